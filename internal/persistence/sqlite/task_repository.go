package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/facility-planner/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite.
type TaskRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{pool: pool, mapper: NewErrorMapper()}
}

const (
	templateColumns   = `id, location_id, activity_id, periodicity, created_at, updated_at`
	occurrenceColumns = `id, template_id, location_id, activity_id, planned_date, execution_date, operator_id, created_at, updated_at`
)

// CreateTemplate inserts a new task template.
func (r *TaskRepository) CreateTemplate(ctx context.Context, template persistence.TaskTemplate) error {
	if template.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		template.ID,
		template.LocationID,
		template.ActivityID,
		template.Periodicity,
		formatTimestamp(template.CreatedAt),
		formatTimestamp(template.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetTemplate retrieves a task template by ID.
func (r *TaskRepository) GetTemplate(ctx context.Context, id string) (persistence.TaskTemplate, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+templateColumns+` FROM task_templates WHERE id = ?`, id)
	template, err := scanTemplate(row)
	if err != nil {
		return persistence.TaskTemplate{}, r.mapper.MapError(err)
	}
	return template, nil
}

// ListTemplates returns templates, optionally restricted to one location.
func (r *TaskRepository) ListTemplates(ctx context.Context, locationID string) ([]persistence.TaskTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM task_templates`
	var args []any
	if locationID != "" {
		query += ` WHERE location_id = ?`
		args = append(args, locationID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var templates []persistence.TaskTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return templates, nil
}

// DeleteTemplate removes the template and its pending occurrences. Executed
// occurrences survive with a NULL template reference.
func (r *TaskRepository) DeleteTemplate(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_occurrences WHERE template_id = ? AND execution_date IS NULL`, id); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE task_occurrences SET template_id = NULL WHERE template_id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM task_templates WHERE id = ?`, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result, persistence.ErrNotFound)
	})
}

// GetOccurrence retrieves an occurrence by ID.
func (r *TaskRepository) GetOccurrence(ctx context.Context, id string) (persistence.TaskOccurrence, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+occurrenceColumns+` FROM task_occurrences WHERE id = ?`, id)
	occurrence, err := scanOccurrence(row)
	if err != nil {
		return persistence.TaskOccurrence{}, r.mapper.MapError(err)
	}
	return occurrence, nil
}

// ListOccurrences returns occurrences matching filter ordered by planned date.
func (r *TaskRepository) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.TaskOccurrence, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.LocationID != "" {
		conditions = append(conditions, "location_id = ?")
		args = append(args, filter.LocationID)
	}
	if filter.TemplateID != "" {
		conditions = append(conditions, "template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.From != nil {
		conditions = append(conditions, "planned_date >= ?")
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "planned_date <= ?")
		args = append(args, formatDate(*filter.To))
	}
	if filter.PendingOnly {
		conditions = append(conditions, "execution_date IS NULL")
	}

	query := `SELECT ` + occurrenceColumns + ` FROM task_occurrences`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY planned_date ASC, id ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var occurrences []persistence.TaskOccurrence
	for rows.Next() {
		occurrence, err := scanOccurrence(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		occurrences = append(occurrences, occurrence)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return occurrences, nil
}

// InsertOccurrences stores occurrences in one transaction. An occurrence whose
// template already has one on the same planned date is skipped.
func (r *TaskRepository) InsertOccurrences(ctx context.Context, occurrences []persistence.TaskOccurrence) error {
	if len(occurrences) == 0 {
		return nil
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, occurrence := range occurrences {
			if err := r.insertOccurrence(ctx, tx, occurrence); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateOccurrence rewrites the mutable fields of an occurrence.
func (r *TaskRepository) UpdateOccurrence(ctx context.Context, occurrence persistence.TaskOccurrence) error {
	return r.updateOccurrence(ctx, r.pool.DB(), occurrence)
}

// CompleteOccurrence stores done and, when present, inserts next atomically.
func (r *TaskRepository) CompleteOccurrence(ctx context.Context, done persistence.TaskOccurrence, next *persistence.TaskOccurrence) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.updateOccurrence(ctx, tx, done); err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		return r.insertOccurrence(ctx, tx, *next)
	})
}

func (r *TaskRepository) insertOccurrence(ctx context.Context, db execer, occurrence persistence.TaskOccurrence) error {
	if occurrence.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO task_occurrences (`+occurrenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (template_id, planned_date) DO NOTHING`,
		occurrence.ID,
		nullString(occurrence.TemplateID),
		occurrence.LocationID,
		occurrence.ActivityID,
		formatDate(occurrence.PlannedDate),
		nullDate(occurrence.ExecutionDate),
		nullString(occurrence.OperatorID),
		formatTimestamp(occurrence.CreatedAt),
		formatTimestamp(occurrence.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert occurrence %s: %w", occurrence.ID, r.mapper.MapError(err))
	}
	return nil
}

func (r *TaskRepository) updateOccurrence(ctx context.Context, db execer, occurrence persistence.TaskOccurrence) error {
	result, err := db.ExecContext(ctx, `
		UPDATE task_occurrences
		SET planned_date = ?, execution_date = ?, operator_id = ?, updated_at = ?
		WHERE id = ?`,
		formatDate(occurrence.PlannedDate),
		nullDate(occurrence.ExecutionDate),
		nullString(occurrence.OperatorID),
		formatTimestamp(occurrence.UpdatedAt),
		occurrence.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result, persistence.ErrNotFound)
}

func scanTemplate(row rowScanner) (persistence.TaskTemplate, error) {
	var (
		template             persistence.TaskTemplate
		createdAt, updatedAt string
	)
	if err := row.Scan(&template.ID, &template.LocationID, &template.ActivityID, &template.Periodicity, &createdAt, &updatedAt); err != nil {
		return persistence.TaskTemplate{}, err
	}

	var err error
	if template.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.TaskTemplate{}, err
	}
	if template.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.TaskTemplate{}, err
	}
	return template, nil
}

func scanOccurrence(row rowScanner) (persistence.TaskOccurrence, error) {
	var (
		occurrence           persistence.TaskOccurrence
		templateID           sql.NullString
		plannedDate          string
		executionDate        sql.NullString
		operatorID           sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&occurrence.ID,
		&templateID,
		&occurrence.LocationID,
		&occurrence.ActivityID,
		&plannedDate,
		&executionDate,
		&operatorID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.TaskOccurrence{}, err
	}
	occurrence.TemplateID = stringPtr(templateID)
	occurrence.OperatorID = stringPtr(operatorID)

	var err error
	if occurrence.PlannedDate, err = parseDate(plannedDate); err != nil {
		return persistence.TaskOccurrence{}, err
	}
	if occurrence.ExecutionDate, err = datePtr(executionDate); err != nil {
		return persistence.TaskOccurrence{}, err
	}
	if occurrence.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.TaskOccurrence{}, err
	}
	if occurrence.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.TaskOccurrence{}, err
	}
	return occurrence, nil
}
