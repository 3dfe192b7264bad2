package sqlite

import (
	"context"

	"github.com/example/facility-planner/internal/persistence"
)

// StaffRepository implements persistence.StaffRepository using SQLite.
type StaffRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewStaffRepository creates a new SQLite roster repository.
func NewStaffRepository(pool *ConnectionPool) *StaffRepository {
	return &StaffRepository{pool: pool, mapper: NewErrorMapper()}
}

const staffColumns = `id, name, sector, contract_type, is_active, unavailable_days, max_weekly_hours, created_at, updated_at`

// CreateStaff inserts a new staff member.
func (r *StaffRepository) CreateStaff(ctx context.Context, staff persistence.StaffMember) error {
	if staff.ID == "" {
		return persistence.ErrConstraintViolation
	}
	days, err := encodeStrings(staff.UnavailableDays)
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO staff_members (`+staffColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		staff.ID,
		staff.Name,
		staff.Sector,
		staff.ContractType,
		boolToInt(staff.IsActive),
		days,
		staff.MaxWeeklyHours,
		formatTimestamp(staff.CreatedAt),
		formatTimestamp(staff.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateStaff updates an existing staff member.
func (r *StaffRepository) UpdateStaff(ctx context.Context, staff persistence.StaffMember) error {
	days, err := encodeStrings(staff.UnavailableDays)
	if err != nil {
		return err
	}

	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE staff_members
		SET name = ?, sector = ?, contract_type = ?, is_active = ?, unavailable_days = ?, max_weekly_hours = ?, updated_at = ?
		WHERE id = ?`,
		staff.Name,
		staff.Sector,
		staff.ContractType,
		boolToInt(staff.IsActive),
		days,
		staff.MaxWeeklyHours,
		formatTimestamp(staff.UpdatedAt),
		staff.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

// GetStaff retrieves a staff member by ID.
func (r *StaffRepository) GetStaff(ctx context.Context, id string) (persistence.StaffMember, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE id = ?`, id)
	staff, err := scanStaff(row)
	if err != nil {
		return persistence.StaffMember{}, r.mapper.MapError(err)
	}
	return staff, nil
}

// ListStaff returns the roster ordered by name then ID.
func (r *StaffRepository) ListStaff(ctx context.Context) ([]persistence.StaffMember, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+staffColumns+` FROM staff_members ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var roster []persistence.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		roster = append(roster, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return roster, nil
}

// DeleteStaff removes a staff member together with their shifts.
func (r *StaffRepository) DeleteStaff(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM staff_members WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

func scanStaff(row rowScanner) (persistence.StaffMember, error) {
	var (
		staff                persistence.StaffMember
		active               int
		days                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&staff.ID, &staff.Name, &staff.Sector, &staff.ContractType, &active, &days, &staff.MaxWeeklyHours, &createdAt, &updatedAt); err != nil {
		return persistence.StaffMember{}, err
	}
	staff.IsActive = active != 0

	var err error
	if staff.UnavailableDays, err = decodeStrings(days); err != nil {
		return persistence.StaffMember{}, err
	}
	if staff.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.StaffMember{}, err
	}
	if staff.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.StaffMember{}, err
	}
	return staff, nil
}
