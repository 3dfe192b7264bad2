package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/persistence"
)

// ActivityService manages cleaning activity definitions.
type ActivityService struct {
	activities  persistence.ActivityRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewActivityServiceWithLogger constructs an activity service.
func NewActivityServiceWithLogger(activities persistence.ActivityRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ActivityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityService{activities: activities, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ActivityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ActivityService", operation, attrs...)
}

// EstimatedMinutes is the expected duration of activity on a floor of area square metres.
func EstimatedMinutes(activity persistence.Activity, area float64) float64 {
	if area < 0 {
		area = 0
	}
	return activity.FixedMinutes + activity.MinutesPerM2*area
}

// CreateActivity validates input and persists a new activity definition.
func (s *ActivityService) CreateActivity(ctx context.Context, input ActivityInput) (activity persistence.Activity, err error) {
	if s == nil || s.activities == nil {
		err = fmt.Errorf("activity repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateActivity")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create activity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("activity_id", activity.ID).InfoContext(ctx, "activity created")
	}()

	if vErr := validateActivityInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	activity = persistence.Activity{ID: s.idGenerator(), CreatedAt: s.now()}
	applyActivityInput(&activity, input)
	activity.UpdatedAt = activity.CreatedAt

	if err = s.activities.CreateActivity(ctx, activity); err != nil {
		err = mapActivityRepoError(err)
	}
	return
}

// UpdateActivity validates input and updates an existing activity definition.
func (s *ActivityService) UpdateActivity(ctx context.Context, id string, input ActivityInput) (activity persistence.Activity, err error) {
	if s == nil || s.activities == nil {
		err = fmt.Errorf("activity repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateActivity", "activity_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update activity", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "activity updated")
	}()

	activity, err = s.activities.GetActivity(ctx, id)
	if err != nil {
		err = mapActivityRepoError(err)
		return
	}
	if vErr := validateActivityInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	applyActivityInput(&activity, input)
	activity.UpdatedAt = s.now()

	if err = s.activities.UpdateActivity(ctx, activity); err != nil {
		err = mapActivityRepoError(err)
	}
	return
}

// GetActivity returns one activity definition.
func (s *ActivityService) GetActivity(ctx context.Context, id string) (persistence.Activity, error) {
	if s == nil || s.activities == nil {
		return persistence.Activity{}, fmt.Errorf("activity repository not configured")
	}
	activity, err := s.activities.GetActivity(ctx, id)
	if err != nil {
		return persistence.Activity{}, mapActivityRepoError(err)
	}
	return activity, nil
}

// DeleteActivity removes an activity no template references.
func (s *ActivityService) DeleteActivity(ctx context.Context, id string) error {
	if s == nil || s.activities == nil {
		return fmt.Errorf("activity repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteActivity", "activity_id", id)
	if err := s.activities.DeleteActivity(ctx, id); err != nil {
		err = mapActivityRepoError(err)
		logger.ErrorContext(ctx, "failed to delete activity", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "activity deleted")
	return nil
}

// ListActivities returns activity definitions sorted by name then ID.
func (s *ActivityService) ListActivities(ctx context.Context) ([]persistence.Activity, error) {
	if s == nil || s.activities == nil {
		return nil, nil
	}
	raw, err := s.activities.ListActivities(ctx)
	if err != nil {
		s.loggerWith(ctx, "ListActivities").ErrorContext(ctx, "failed to list activities", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	activities := make([]persistence.Activity, len(raw))
	copy(activities, raw)
	sort.SliceStable(activities, func(i, j int) bool {
		return byNameThenID(activities[i].Name, activities[i].ID, activities[j].Name, activities[j].ID)
	})
	return activities, nil
}

func applyActivityInput(activity *persistence.Activity, input ActivityInput) {
	activity.Name = strings.TrimSpace(input.Name)
	activity.FixedMinutes = input.FixedMinutes
	activity.MinutesPerM2 = input.MinutesPerM2
	activity.RequiredTools = normalizeTools(input.RequiredTools)
}

func normalizeTools(tools []string) []string {
	seen := make(map[string]struct{}, len(tools))
	var out []string
	for _, tool := range tools {
		tool = strings.TrimSpace(tool)
		key := strings.ToLower(tool)
		if tool == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tool)
	}
	return out
}

func validateActivityInput(input ActivityInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.FixedMinutes < 0 {
		vErr.add("fixed_minutes", "fixed minutes must not be negative")
	}
	if input.MinutesPerM2 < 0 {
		vErr.add("minutes_per_m2", "minutes per square metre must not be negative")
	}
	return vErr
}

func mapActivityRepoError(err error) error {
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
		return fmt.Errorf("%w: activity is referenced by tasks", ErrConflict)
	}
	return err
}
