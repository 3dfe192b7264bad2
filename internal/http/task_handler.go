package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/persistence"
)

// DefaultHorizonDays is used by template projection requests that omit a horizon.
const DefaultHorizonDays = 30

type taskService interface {
	CreateTemplate(ctx context.Context, input application.TemplateInput) (persistence.TaskTemplate, error)
	ListTemplates(ctx context.Context, locationID string) ([]persistence.TaskTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	ProjectTemplate(ctx context.Context, id string, horizonDays int) ([]persistence.TaskOccurrence, error)
	ExecuteOccurrence(ctx context.Context, id string) (persistence.TaskOccurrence, *persistence.TaskOccurrence, error)
	AssignOperator(ctx context.Context, id string, operatorID *string) (persistence.TaskOccurrence, error)
	ListOccurrences(ctx context.Context, query application.OccurrenceQuery) ([]application.Occurrence, error)
}

// TaskHandler serves recurring task templates and their occurrences.
type TaskHandler struct {
	handlerBase
	service        taskService
	defaultHorizon int
}

func NewTaskHandler(service taskService, defaultHorizon int, logger *slog.Logger) *TaskHandler {
	if defaultHorizon <= 0 {
		defaultHorizon = DefaultHorizonDays
	}
	return &TaskHandler{handlerBase: newHandlerBase("TaskHandler", logger), service: service, defaultHorizon: defaultHorizon}
}

func (h *TaskHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	locationID, ok := h.requireID(w, r, "CreateTemplate")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "CreateTemplate", "location_id", locationID)

	var req templateRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	template, err := h.service.CreateTemplate(ctx, application.TemplateInput{
		LocationID:  locationID,
		ActivityID:  strings.TrimSpace(req.ActivityID),
		Periodicity: strings.TrimSpace(req.Periodicity),
	})
	if err != nil {
		h.fail(ctx, w, logger, "template creation failed", err)
		return
	}

	logger.With("template_id", template.ID).InfoContext(ctx, "template created")
	h.responder.writeJSON(ctx, w, http.StatusCreated, toTemplateDTO(template))
}

func (h *TaskHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	locationID, ok := h.requireID(w, r, "ListTemplates")
	if !ok {
		return
	}
	ctx := r.Context()

	templates, err := h.service.ListTemplates(ctx, locationID)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "ListTemplates", "location_id", locationID), "template list failed", err)
		return
	}

	out := make([]templateDTO, 0, len(templates))
	for _, template := range templates {
		out = append(out, toTemplateDTO(template))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listTemplatesResponse{Templates: out})
}

func (h *TaskHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "DeleteTemplate")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "DeleteTemplate", "template_id", id)

	if err := h.service.DeleteTemplate(ctx, id); err != nil {
		h.fail(ctx, w, logger, "template delete failed", err)
		return
	}

	logger.InfoContext(ctx, "template deleted")
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

// ProjectTemplate generates occurrences up to horizon_days ahead. An empty
// body uses the configured default horizon.
func (h *TaskHandler) ProjectTemplate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "ProjectTemplate")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "ProjectTemplate", "template_id", id)

	req := projectRequest{HorizonDays: h.defaultHorizon}
	if r.ContentLength != 0 {
		if !h.decode(w, r, logger, &req) {
			return
		}
		if req.HorizonDays == 0 {
			req.HorizonDays = h.defaultHorizon
		}
	}

	created, err := h.service.ProjectTemplate(ctx, id, req.HorizonDays)
	if err != nil {
		h.fail(ctx, w, logger, "template projection failed", err)
		return
	}

	out := make([]occurrenceDTO, 0, len(created))
	for _, occ := range created {
		out = append(out, toOccurrenceDTO(occ, nil))
	}
	logger.With("created", len(created)).InfoContext(ctx, "template projected")
	h.responder.writeJSON(ctx, w, http.StatusOK, projectResponse{Created: out})
}

// ListOccurrences accepts location_id, template_id, from, to and pending query parameters.
func (h *TaskHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "ListOccurrences")
	query := r.URL.Query()

	fields := map[string]string{}
	from, err := parseDate(query.Get("from"))
	if err != nil {
		fields["from"] = validationMessageDate
	}
	to, err := parseDate(query.Get("to"))
	if err != nil {
		fields["to"] = validationMessageDate
	}
	pendingOnly := false
	if raw := query.Get("pending"); raw != "" {
		if pendingOnly, err = strconv.ParseBool(raw); err != nil {
			fields["pending"] = "must be true or false"
		}
	}
	if len(fields) > 0 {
		h.responder.writeFieldErrors(ctx, w, fields)
		return
	}

	occurrences, err := h.service.ListOccurrences(ctx, application.OccurrenceQuery{
		LocationID:  strings.TrimSpace(query.Get("location_id")),
		TemplateID:  strings.TrimSpace(query.Get("template_id")),
		From:        from,
		To:          to,
		PendingOnly: pendingOnly,
	})
	if err != nil {
		h.fail(ctx, w, logger, "occurrence list failed", err)
		return
	}

	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occ := range occurrences {
		minutes := occ.EstimatedMinutes
		out = append(out, toOccurrenceDTO(occ.TaskOccurrence, &minutes))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listOccurrencesResponse{Occurrences: out})
}

func (h *TaskHandler) ExecuteOccurrence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "ExecuteOccurrence")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "ExecuteOccurrence", "occurrence_id", id)

	done, next, err := h.service.ExecuteOccurrence(ctx, id)
	if err != nil {
		h.fail(ctx, w, logger, "occurrence execution failed", err)
		return
	}

	resp := executeResponse{Executed: toOccurrenceDTO(done, nil)}
	if next != nil {
		dto := toOccurrenceDTO(*next, nil)
		resp.Next = &dto
	}
	logger.InfoContext(ctx, "occurrence executed", "follow_up", next != nil)
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *TaskHandler) AssignOperator(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "AssignOperator")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "AssignOperator", "occurrence_id", id)

	var req operatorRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	occ, err := h.service.AssignOperator(ctx, id, req.OperatorID)
	if err != nil {
		h.fail(ctx, w, logger, "operator assignment failed", err)
		return
	}

	logger.InfoContext(ctx, "operator assigned")
	h.responder.writeJSON(ctx, w, http.StatusOK, toOccurrenceDTO(occ, nil))
}

const validationMessageDate = "must be a date formatted as YYYY-MM-DD"

type templateRequest struct {
	ActivityID  string `json:"activity_id" validate:"required"`
	Periodicity string `json:"periodicity" validate:"required"`
}

type projectRequest struct {
	HorizonDays int `json:"horizon_days" validate:"gte=0,lte=366"`
}

type operatorRequest struct {
	OperatorID *string `json:"operator_id"`
}

type templateDTO struct {
	ID          string `json:"id"`
	LocationID  string `json:"location_id"`
	ActivityID  string `json:"activity_id"`
	Periodicity string `json:"periodicity"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateDTO `json:"templates"`
}

func toTemplateDTO(t persistence.TaskTemplate) templateDTO {
	return templateDTO{
		ID:          t.ID,
		LocationID:  t.LocationID,
		ActivityID:  t.ActivityID,
		Periodicity: t.Periodicity,
		CreatedAt:   formatTimestamp(t.CreatedAt),
		UpdatedAt:   formatTimestamp(t.UpdatedAt),
	}
}

type occurrenceDTO struct {
	ID               string   `json:"id"`
	TemplateID       *string  `json:"template_id"`
	LocationID       string   `json:"location_id"`
	ActivityID       string   `json:"activity_id"`
	PlannedDate      string   `json:"planned_date"`
	ExecutionDate    *string  `json:"execution_date"`
	OperatorID       *string  `json:"operator_id"`
	EstimatedMinutes *float64 `json:"estimated_minutes,omitempty"`
}

type listOccurrencesResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type projectResponse struct {
	Created []occurrenceDTO `json:"created"`
}

type executeResponse struct {
	Executed occurrenceDTO  `json:"executed"`
	Next     *occurrenceDTO `json:"next,omitempty"`
}

func toOccurrenceDTO(o persistence.TaskOccurrence, estimatedMinutes *float64) occurrenceDTO {
	return occurrenceDTO{
		ID:               o.ID,
		TemplateID:       o.TemplateID,
		LocationID:       o.LocationID,
		ActivityID:       o.ActivityID,
		PlannedDate:      formatDate(o.PlannedDate),
		ExecutionDate:    formatOptionalDate(o.ExecutionDate),
		OperatorID:       o.OperatorID,
		EstimatedMinutes: estimatedMinutes,
	}
}
