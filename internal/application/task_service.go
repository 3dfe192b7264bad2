package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/periodicity"
	"github.com/example/facility-planner/internal/persistence"
)

// MaxHorizonDays bounds a single projection.
const MaxHorizonDays = 366

// TaskService orchestrates recurring task templates and their occurrences.
type TaskService struct {
	tasks       persistence.TaskRepository
	locations   persistence.LocationRepository
	activities  persistence.ActivityRepository
	staff       persistence.StaffRepository
	engine      *periodicity.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskServiceWithLogger constructs a task service. The engine's location
// decides which calendar day "today" is.
func NewTaskServiceWithLogger(
	tasks persistence.TaskRepository,
	locations persistence.LocationRepository,
	activities persistence.ActivityRepository,
	staff persistence.StaffRepository,
	engine *periodicity.Engine,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *TaskService {
	if engine == nil {
		engine = periodicity.NewEngine(time.UTC)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:       tasks,
		locations:   locations,
		activities:  activities,
		staff:       staff,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// CreateTemplate validates input and stores a recurring template for a location.
func (s *TaskService) CreateTemplate(ctx context.Context, input TemplateInput) (template persistence.TaskTemplate, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateTemplate",
		"location_id", input.LocationID,
		"activity_id", input.ActivityID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create template", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("template_id", template.ID, "periodicity", template.Periodicity).InfoContext(ctx, "template created")
	}()

	vErr := &ValidationError{}
	p, parseErr := periodicity.Parse(input.Periodicity)
	if parseErr != nil {
		vErr.add("periodicity", "periodicity must be a known label or \"every N days\"")
	}
	if strings.TrimSpace(input.LocationID) == "" {
		vErr.add("location_id", "location is required")
	} else if _, getErr := s.locations.GetLocation(ctx, input.LocationID); getErr != nil {
		if !errors.Is(getErr, persistence.ErrNotFound) {
			err = getErr
			return
		}
		vErr.add("location_id", "location does not exist")
	}
	if strings.TrimSpace(input.ActivityID) == "" {
		vErr.add("activity_id", "activity is required")
	} else if _, getErr := s.activities.GetActivity(ctx, input.ActivityID); getErr != nil {
		if !errors.Is(getErr, persistence.ErrNotFound) {
			err = getErr
			return
		}
		vErr.add("activity_id", "activity does not exist")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if p.Degraded {
		logger.WarnContext(ctx, "periodicity day count unreadable, advancing daily", "label", input.Periodicity)
	}

	template = persistence.TaskTemplate{
		ID:          s.idGenerator(),
		LocationID:  input.LocationID,
		ActivityID:  input.ActivityID,
		Periodicity: p.String(),
		CreatedAt:   s.now(),
	}
	template.UpdatedAt = template.CreatedAt

	if err = s.tasks.CreateTemplate(ctx, template); err != nil {
		err = mapTaskRepoError(err)
	}
	return
}

// ListTemplates returns the templates of a location, or all when locationID is empty.
func (s *TaskService) ListTemplates(ctx context.Context, locationID string) ([]persistence.TaskTemplate, error) {
	if s == nil || s.tasks == nil {
		return nil, nil
	}
	if locationID != "" {
		if _, err := s.locations.GetLocation(ctx, locationID); err != nil {
			return nil, mapTaskRepoError(err)
		}
	}
	templates, err := s.tasks.ListTemplates(ctx, locationID)
	if err != nil {
		return nil, mapTaskRepoError(err)
	}
	return templates, nil
}

// DeleteTemplate removes a template and its pending occurrences. Executed
// occurrences are kept as history.
func (s *TaskService) DeleteTemplate(ctx context.Context, id string) error {
	if s == nil || s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTemplate", "template_id", id)
	if err := s.tasks.DeleteTemplate(ctx, id); err != nil {
		err = mapTaskRepoError(err)
		logger.ErrorContext(ctx, "failed to delete template", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "template deleted")
	return nil
}

// ProjectTemplate stores the occurrences of one template missing up to
// today+horizonDays and returns the new ones.
func (s *TaskService) ProjectTemplate(ctx context.Context, id string, horizonDays int) (created []persistence.TaskOccurrence, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProjectTemplate", "template_id", id, "horizon_days", horizonDays)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to project template", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("created", len(created)).InfoContext(ctx, "template projected")
	}()

	if vErr := validateHorizon(horizonDays); vErr.HasErrors() {
		err = vErr
		return
	}

	var template persistence.TaskTemplate
	template, err = s.tasks.GetTemplate(ctx, id)
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}
	created, err = s.projectTemplate(ctx, logger, template, horizonDays)
	return
}

// ProjectAll projects every template. A failing template is logged and
// counted; the others still run.
func (s *TaskService) ProjectAll(ctx context.Context, horizonDays int) (report ProjectionReport, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProjectAll", "horizon_days", horizonDays)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "projection run failed", "error", err, "error_kind", ErrorKind(err),
				"templates", report.Templates, "failed", report.Failed)
			return
		}
		logger.InfoContext(ctx, "projection run finished",
			"templates", report.Templates, "created", report.Created)
	}()

	if vErr := validateHorizon(horizonDays); vErr.HasErrors() {
		err = vErr
		return
	}

	var templates []persistence.TaskTemplate
	templates, err = s.tasks.ListTemplates(ctx, "")
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}

	var failures []error
	for _, template := range templates {
		if ctxErr := ctx.Err(); ctxErr != nil {
			failures = append(failures, ctxErr)
			break
		}
		report.Templates++
		created, projErr := s.projectTemplate(ctx, logger, template, horizonDays)
		if projErr != nil {
			report.Failed++
			failures = append(failures, fmt.Errorf("template %s: %w", template.ID, projErr))
			continue
		}
		report.Created += len(created)
	}
	err = errors.Join(failures...)
	return
}

func (s *TaskService) projectTemplate(ctx context.Context, logger *slog.Logger, template persistence.TaskTemplate, horizonDays int) ([]persistence.TaskOccurrence, error) {
	p, err := s.parsePeriodicity(ctx, logger, template)
	if err != nil {
		return nil, err
	}

	existing, err := s.tasks.ListOccurrences(ctx, persistence.OccurrenceFilter{TemplateID: template.ID})
	if err != nil {
		return nil, mapTaskRepoError(err)
	}

	generated, err := s.engine.Project(
		periodicity.Template{ID: template.ID, Periodicity: p},
		s.engineOccurrences(existing),
		s.now(),
		horizonDays,
	)
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, nil
	}

	created := make([]persistence.TaskOccurrence, 0, len(generated))
	for _, occ := range generated {
		created = append(created, s.newOccurrence(template, occ))
	}
	if err := s.tasks.InsertOccurrences(ctx, created); err != nil {
		return nil, mapTaskRepoError(err)
	}
	return created, nil
}

// ExecuteOccurrence marks an occurrence executed today and stores its
// follow-up at the next periodicity step.
func (s *TaskService) ExecuteOccurrence(ctx context.Context, id string) (done persistence.TaskOccurrence, next *persistence.TaskOccurrence, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ExecuteOccurrence", "occurrence_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to execute occurrence", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if next != nil {
			logger = logger.With("next_occurrence_id", next.ID, "next_planned_date", next.PlannedDate.Format(time.DateOnly))
		}
		logger.InfoContext(ctx, "occurrence executed")
	}()

	var occurrence persistence.TaskOccurrence
	occurrence, err = s.tasks.GetOccurrence(ctx, id)
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}
	if occurrence.ExecutionDate != nil {
		err = fmt.Errorf("%w: occurrence already executed", ErrInvalidTransition)
		return
	}

	if occurrence.TemplateID == nil {
		done = occurrence
		executed := today(s.now(), s.engine.Location())
		done.ExecutionDate = &executed
		done.UpdatedAt = s.now()
		err = mapTaskRepoError(s.tasks.CompleteOccurrence(ctx, done, nil))
		return
	}

	var template persistence.TaskTemplate
	template, err = s.tasks.GetTemplate(ctx, *occurrence.TemplateID)
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}
	var p periodicity.Periodicity
	p, err = s.parsePeriodicity(ctx, logger, template)
	if err != nil {
		return
	}

	var existing []persistence.TaskOccurrence
	existing, err = s.tasks.ListOccurrences(ctx, persistence.OccurrenceFilter{TemplateID: template.ID})
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}

	engineDone, engineNext, execErr := s.engine.Execute(
		periodicity.Template{ID: template.ID, Periodicity: p},
		s.engineOccurrence(occurrence),
		s.engineOccurrences(existing),
		s.now(),
	)
	if execErr != nil {
		if errors.Is(execErr, periodicity.ErrAlreadyExecuted) {
			err = fmt.Errorf("%w: occurrence already executed", ErrInvalidTransition)
			return
		}
		err = execErr
		return
	}

	done = occurrence
	done.ExecutionDate = engineDone.ExecutionDate
	done.UpdatedAt = s.now()
	if engineNext != nil {
		created := s.newOccurrence(template, *engineNext)
		next = &created
	}

	if err = s.tasks.CompleteOccurrence(ctx, done, next); err != nil {
		err = mapTaskRepoError(err)
	}
	return
}

// AssignOperator sets or clears the operator of a pending occurrence.
func (s *TaskService) AssignOperator(ctx context.Context, id string, operatorID *string) (occurrence persistence.TaskOccurrence, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignOperator", "occurrence_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign operator", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "operator assigned")
	}()

	occurrence, err = s.tasks.GetOccurrence(ctx, id)
	if err != nil {
		err = mapTaskRepoError(err)
		return
	}
	if occurrence.ExecutionDate != nil {
		err = fmt.Errorf("%w: executed occurrences are history", ErrInvalidTransition)
		return
	}

	operatorID = normalizeOptionalString(operatorID)
	if operatorID != nil && s.staff != nil {
		if _, getErr := s.staff.GetStaff(ctx, *operatorID); getErr != nil {
			if errors.Is(getErr, persistence.ErrNotFound) {
				err = fieldError("operator_id", "operator does not exist")
				return
			}
			err = getErr
			return
		}
	}

	occurrence.OperatorID = operatorID
	occurrence.UpdatedAt = s.now()
	if err = s.tasks.UpdateOccurrence(ctx, occurrence); err != nil {
		err = mapTaskRepoError(err)
	}
	return
}

// ListOccurrences returns occurrences in planned-date order with their
// estimated duration.
func (s *TaskService) ListOccurrences(ctx context.Context, query OccurrenceQuery) ([]Occurrence, error) {
	if s == nil || s.tasks == nil {
		return nil, nil
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, fieldError("to", "to must not be before from")
	}

	raw, err := s.tasks.ListOccurrences(ctx, persistence.OccurrenceFilter{
		LocationID:  query.LocationID,
		TemplateID:  query.TemplateID,
		From:        query.From,
		To:          query.To,
		PendingOnly: query.PendingOnly,
	})
	if err != nil {
		return nil, mapTaskRepoError(err)
	}

	areas := make(map[string]float64)
	activities := make(map[string]persistence.Activity)
	out := make([]Occurrence, 0, len(raw))
	for _, occ := range raw {
		area, ok := areas[occ.LocationID]
		if !ok {
			location, err := s.locations.GetLocation(ctx, occ.LocationID)
			if err != nil {
				return nil, mapTaskRepoError(err)
			}
			area = location.FloorAreaM2
			areas[occ.LocationID] = area
		}
		activity, ok := activities[occ.ActivityID]
		if !ok {
			activity, err = s.activities.GetActivity(ctx, occ.ActivityID)
			if err != nil {
				return nil, mapTaskRepoError(err)
			}
			activities[occ.ActivityID] = activity
		}
		out = append(out, Occurrence{TaskOccurrence: occ, EstimatedMinutes: EstimatedMinutes(activity, area)})
	}
	return out, nil
}

func (s *TaskService) parsePeriodicity(ctx context.Context, logger *slog.Logger, template persistence.TaskTemplate) (periodicity.Periodicity, error) {
	p, err := periodicity.Parse(template.Periodicity)
	if err != nil {
		return periodicity.Periodicity{}, fmt.Errorf("template %s: %w", template.ID, err)
	}
	if p.Degraded {
		logger.WarnContext(ctx, "periodicity day count unreadable, advancing daily",
			"template_id", template.ID, "label", template.Periodicity)
	}
	return p, nil
}

func (s *TaskService) engineOccurrence(occ persistence.TaskOccurrence) periodicity.Occurrence {
	loc := s.engine.Location()
	out := periodicity.Occurrence{
		PlannedDate: localDate(occ.PlannedDate, loc),
		OperatorID:  occ.OperatorID,
	}
	if occ.TemplateID != nil {
		out.TemplateID = *occ.TemplateID
	}
	if occ.ExecutionDate != nil {
		executed := localDate(*occ.ExecutionDate, loc)
		out.ExecutionDate = &executed
	}
	return out
}

func (s *TaskService) engineOccurrences(occurrences []persistence.TaskOccurrence) []periodicity.Occurrence {
	out := make([]periodicity.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		out = append(out, s.engineOccurrence(occ))
	}
	return out
}

func (s *TaskService) newOccurrence(template persistence.TaskTemplate, occ periodicity.Occurrence) persistence.TaskOccurrence {
	templateID := template.ID
	now := s.now()
	return persistence.TaskOccurrence{
		ID:          s.idGenerator(),
		TemplateID:  &templateID,
		LocationID:  template.LocationID,
		ActivityID:  template.ActivityID,
		PlannedDate: occ.PlannedDate,
		OperatorID:  occ.OperatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func validateHorizon(horizonDays int) *ValidationError {
	vErr := &ValidationError{}
	if horizonDays < 1 || horizonDays > MaxHorizonDays {
		vErr.add("horizon_days", fmt.Sprintf("horizon must be between 1 and %d days", MaxHorizonDays))
	}
	return vErr
}

func mapTaskRepoError(err error) error {
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
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
