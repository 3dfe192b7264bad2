package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/convocation"
	"github.com/example/facility-planner/internal/persistence"
)

type convocationService interface {
	ListSendable(ctx context.Context, weekStart time.Time) ([]persistence.ShiftAssignment, error)
	Send(ctx context.Context, params application.SendParams) (application.SendResult, error)
	Accept(ctx context.Context, id string) (application.Convocation, error)
	Reject(ctx context.Context, id, reason string) (application.Convocation, error)
	List(ctx context.Context, weekStart time.Time) ([]application.Convocation, error)
	Summary(ctx context.Context, weekStart time.Time) (convocation.Summary, error)
}

// ConvocationHandler serves shift convocations and staff responses.
type ConvocationHandler struct {
	handlerBase
	service convocationService
}

func NewConvocationHandler(service convocationService, logger *slog.Logger) *ConvocationHandler {
	return &ConvocationHandler{handlerBase: newHandlerBase("ConvocationHandler", logger), service: service}
}

func (h *ConvocationHandler) ListSendable(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "ListSendable")
	if !ok {
		return
	}
	ctx := r.Context()

	shifts, err := h.service.ListSendable(ctx, week)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "ListSendable", "week_start", formatDate(week)), "sendable lookup failed", err)
		return
	}

	out := make([]shiftDTO, 0, len(shifts))
	for _, shift := range shifts {
		out = append(out, toShiftDTO(shift))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, sendableResponse{Shifts: out})
}

// Send convokes the listed shifts, or every sendable shift when shift_ids is empty.
func (h *ConvocationHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "Send")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "Send", "week_start", formatDate(week))

	var req sendRequest
	if r.ContentLength != 0 && !h.decode(w, r, logger, &req) {
		return
	}

	result, err := h.service.Send(ctx, application.SendParams{
		WeekStart:     week,
		ShiftIDs:      req.ShiftIDs,
		Justification: strings.TrimSpace(req.Justification),
	})
	if err != nil {
		h.fail(ctx, w, logger, "convocation send failed", err)
		return
	}

	resp := sendResponse{
		Sent:    make([]convocationDTO, 0, len(result.Sent)),
		Skipped: make([]skippedDTO, 0, len(result.Skipped)),
	}
	for _, c := range result.Sent {
		resp.Sent = append(resp.Sent, toConvocationDTO(c))
	}
	for _, s := range result.Skipped {
		resp.Skipped = append(resp.Skipped, skippedDTO{ShiftID: s.ShiftID, StaffID: s.StaffID, Reason: s.Reason})
	}
	logger.With("sent", len(resp.Sent), "skipped", len(resp.Skipped)).InfoContext(ctx, "convocations sent")
	h.responder.writeJSON(ctx, w, http.StatusOK, resp)
}

func (h *ConvocationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "List")
	if !ok {
		return
	}
	ctx := r.Context()

	list, err := h.service.List(ctx, week)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "List", "week_start", formatDate(week)), "convocation list failed", err)
		return
	}

	out := make([]convocationDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toConvocationDTO(c))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, listConvocationsResponse{Convocations: out})
}

func (h *ConvocationHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	week, ok := h.requireWeek(w, r, "Summary")
	if !ok {
		return
	}
	ctx := r.Context()

	summary, err := h.service.Summary(ctx, week)
	if err != nil {
		h.fail(ctx, w, h.log(ctx, "Summary", "week_start", formatDate(week)), "convocation summary failed", err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, summaryDTO{
		Total:    summary.Total,
		Pending:  summary.Pending,
		Accepted: summary.Accepted,
		Rejected: summary.Rejected,
		Expired:  summary.Expired,
	})
}

func (h *ConvocationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "Accept")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "Accept", "convocation_id", id)

	c, err := h.service.Accept(ctx, id)
	if err != nil {
		h.fail(ctx, w, logger, "convocation accept failed", err)
		return
	}

	logger.InfoContext(ctx, "convocation accepted")
	h.responder.writeJSON(ctx, w, http.StatusOK, toConvocationDTO(c))
}

func (h *ConvocationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		unavailable(w)
		return
	}
	id, ok := h.requireID(w, r, "Reject")
	if !ok {
		return
	}
	ctx := r.Context()
	logger := h.log(ctx, "Reject", "convocation_id", id)

	var req rejectRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	c, err := h.service.Reject(ctx, id, req.Reason)
	if err != nil {
		h.fail(ctx, w, logger, "convocation reject failed", err)
		return
	}

	logger.InfoContext(ctx, "convocation rejected")
	h.responder.writeJSON(ctx, w, http.StatusOK, toConvocationDTO(c))
}

type sendRequest struct {
	ShiftIDs      []string `json:"shift_ids" validate:"omitempty,dive,required"`
	Justification string   `json:"justification" validate:"max=1000"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type convocationDTO struct {
	ID              string  `json:"id"`
	ScheduleID      string  `json:"schedule_id"`
	ShiftID         string  `json:"shift_id"`
	StaffID         string  `json:"staff_id"`
	ShiftDate       string  `json:"shift_date"`
	ShiftStartTime  string  `json:"shift_start_time"`
	ShiftEndTime    string  `json:"shift_end_time"`
	SentAt          string  `json:"sent_at"`
	DeadlineAt      string  `json:"deadline_at"`
	RespondedAt     *string `json:"responded_at"`
	Status          string  `json:"status"`
	Justification   string  `json:"justification"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type sendResponse struct {
	Sent    []convocationDTO `json:"sent"`
	Skipped []skippedDTO     `json:"skipped"`
}

type skippedDTO struct {
	ShiftID string `json:"shift_id"`
	StaffID string `json:"staff_id,omitempty"`
	Reason  string `json:"reason"`
}

type sendableResponse struct {
	Shifts []shiftDTO `json:"shifts"`
}

type listConvocationsResponse struct {
	Convocations []convocationDTO `json:"convocations"`
}

type summaryDTO struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Expired  int `json:"expired"`
}

// toConvocationDTO reports the effective status, so an unanswered
// convocation past its deadline reads as expired.
func toConvocationDTO(c application.Convocation) convocationDTO {
	status := string(c.EffectiveStatus)
	if status == "" {
		status = c.Status
	}
	return convocationDTO{
		ID:              c.ID,
		ScheduleID:      c.ScheduleID,
		ShiftID:         c.ShiftID,
		StaffID:         c.StaffID,
		ShiftDate:       formatDate(c.ShiftDate),
		ShiftStartTime:  c.ShiftStartTime,
		ShiftEndTime:    c.ShiftEndTime,
		SentAt:          formatTimestamp(c.SentAt),
		DeadlineAt:      formatTimestamp(c.DeadlineAt),
		RespondedAt:     formatOptionalTimestamp(c.RespondedAt),
		Status:          status,
		Justification:   c.Justification,
		RejectionReason: c.RejectionReason,
	}
}
