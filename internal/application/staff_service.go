package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/governance"
	"github.com/example/facility-planner/internal/persistence"
)

var weekdayNames = map[string]string{
	"monday":    "monday",
	"mon":       "monday",
	"tuesday":   "tuesday",
	"tue":       "tuesday",
	"wednesday": "wednesday",
	"wed":       "wednesday",
	"thursday":  "thursday",
	"thu":       "thursday",
	"friday":    "friday",
	"fri":       "friday",
	"saturday":  "saturday",
	"sat":       "saturday",
	"sunday":    "sunday",
	"sun":       "sunday",
}

// StaffService manages the roster.
type StaffService struct {
	staff       persistence.StaffRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStaffServiceWithLogger constructs a roster service.
func NewStaffServiceWithLogger(staff persistence.StaffRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StaffService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StaffService{staff: staff, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *StaffService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StaffService", operation, attrs...)
}

// CreateStaff validates input and adds a staff member to the roster.
func (s *StaffService) CreateStaff(ctx context.Context, input StaffInput) (member persistence.StaffMember, err error) {
	if s == nil || s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateStaff")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create staff member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("staff_id", member.ID).InfoContext(ctx, "staff member created")
	}()

	member = persistence.StaffMember{ID: s.idGenerator(), IsActive: true, CreatedAt: s.now()}
	if err = applyStaffInput(&member, input); err != nil {
		return
	}
	member.UpdatedAt = member.CreatedAt

	if err = s.staff.CreateStaff(ctx, member); err != nil {
		err = mapStaffRepoError(err)
	}
	return
}

// UpdateStaff validates input and updates a roster entry.
func (s *StaffService) UpdateStaff(ctx context.Context, id string, input StaffInput) (member persistence.StaffMember, err error) {
	if s == nil || s.staff == nil {
		err = fmt.Errorf("staff repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateStaff", "staff_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update staff member", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "staff member updated")
	}()

	member, err = s.staff.GetStaff(ctx, id)
	if err != nil {
		err = mapStaffRepoError(err)
		return
	}
	if err = applyStaffInput(&member, input); err != nil {
		return
	}
	member.UpdatedAt = s.now()

	if err = s.staff.UpdateStaff(ctx, member); err != nil {
		err = mapStaffRepoError(err)
	}
	return
}

// GetStaff returns one roster entry.
func (s *StaffService) GetStaff(ctx context.Context, id string) (persistence.StaffMember, error) {
	if s == nil || s.staff == nil {
		return persistence.StaffMember{}, fmt.Errorf("staff repository not configured")
	}
	member, err := s.staff.GetStaff(ctx, id)
	if err != nil {
		return persistence.StaffMember{}, mapStaffRepoError(err)
	}
	return member, nil
}

// DeleteStaff removes a staff member and their shifts.
func (s *StaffService) DeleteStaff(ctx context.Context, id string) error {
	if s == nil || s.staff == nil {
		return fmt.Errorf("staff repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteStaff", "staff_id", id)
	if err := s.staff.DeleteStaff(ctx, id); err != nil {
		err = mapStaffRepoError(err)
		logger.ErrorContext(ctx, "failed to delete staff member", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "staff member deleted")
	return nil
}

// ListStaff returns the roster sorted by name then ID.
func (s *StaffService) ListStaff(ctx context.Context) ([]persistence.StaffMember, error) {
	if s == nil || s.staff == nil {
		return nil, nil
	}
	raw, err := s.staff.ListStaff(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListStaff").ErrorContext(ctx, "failed to list staff", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return sortRoster(raw), nil
}

// ListEligible returns the active staff of sector in roster order. An empty
// sector matches everyone.
func (s *StaffService) ListEligible(ctx context.Context, sector string) ([]persistence.StaffMember, error) {
	roster, err := s.ListStaff(ctx)
	if err != nil {
		return nil, err
	}
	return eligibleRoster(roster, sector), nil
}

func sortRoster(raw []persistence.StaffMember) []persistence.StaffMember {
	roster := make([]persistence.StaffMember, len(raw))
	copy(roster, raw)
	sort.SliceStable(roster, func(i, j int) bool {
		return byNameThenID(roster[i].Name, roster[i].ID, roster[j].Name, roster[j].ID)
	})
	return roster
}

func eligibleRoster(roster []persistence.StaffMember, sector string) []persistence.StaffMember {
	sector = strings.TrimSpace(sector)
	var out []persistence.StaffMember
	for _, member := range roster {
		if !member.IsActive {
			continue
		}
		if sector != "" && !strings.EqualFold(strings.TrimSpace(member.Sector), sector) {
			continue
		}
		out = append(out, member)
	}
	return out
}

func toGovernanceStaff(members []persistence.StaffMember) []governance.StaffMember {
	out := make([]governance.StaffMember, 0, len(members))
	for _, m := range members {
		contract, _ := governance.ParseContractType(m.ContractType)
		out = append(out, governance.StaffMember{
			ID:              m.ID,
			Name:            m.Name,
			Sector:          m.Sector,
			ContractType:    contract,
			Active:          m.IsActive,
			UnavailableDays: m.UnavailableDays,
			MaxWeeklyHours:  m.MaxWeeklyHours,
		})
	}
	return out
}

func applyStaffInput(member *persistence.StaffMember, input StaffInput) error {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	contract, ok := governance.ParseContractType(input.ContractType)
	if !ok {
		vErr.add("contract_type", "contract type must be permanent or intermittent")
	}
	if input.MaxWeeklyHours < 0 {
		vErr.add("max_weekly_hours", "max weekly hours must not be negative")
	}
	days, err := normalizeWeekdays(input.UnavailableDays)
	if err != nil {
		vErr.add("unavailable_days", err.Error())
	}
	if vErr.HasErrors() {
		return vErr
	}

	member.Name = name
	member.Sector = strings.TrimSpace(input.Sector)
	member.ContractType = string(contract)
	if input.IsActive != nil {
		member.IsActive = *input.IsActive
	}
	member.UnavailableDays = days
	member.MaxWeeklyHours = input.MaxWeeklyHours
	return nil
}

func normalizeWeekdays(days []string) ([]string, error) {
	seen := make(map[string]bool, len(days))
	var out []string
	for _, raw := range days {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" {
			continue
		}
		name, ok := weekdayNames[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", raw)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func mapStaffRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("contract_type", "contract type must be permanent or intermittent")
	}
	return err
}
