package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/facility-planner/internal/application"
	"github.com/example/facility-planner/internal/logging"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errInvalidWeek    = errors.New("week must be a date formatted as YYYY-MM-DD")
	errMissingID      = errors.New("resource id is required")
)

const (
	codeBadRequest           = "bad_request"
	codeValidation           = "validation_error"
	codeNotFound             = "not_found"
	codeMethodNotAllowed     = "method_not_allowed"
	codeConflict             = "conflict"
	codeInvalidTransition    = "invalid_transition"
	codeInvalidConfiguration = "invalid_configuration"
	codeInternal             = "internal_error"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: statusCode(status), Message: message})
}

func (r responder) writeFieldErrors(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: codeValidation,
		Message:   statusMessage(http.StatusUnprocessableEntity),
		Errors:    fields,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeFieldErrors(ctx, w, vErr.FieldErrors)
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: codeNotFound, Message: statusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrAlreadyExists), errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: codeConflict, Message: serviceMessage(err)})
	case errors.Is(err, application.ErrInvalidTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: codeInvalidTransition, Message: serviceMessage(err)})
	case errors.Is(err, application.ErrInvalidConfiguration):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{ErrorCode: codeInvalidConfiguration, Message: serviceMessage(err)})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: statusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// serviceMessage strips the "application: " sentinel prefix so clients see
// the detail the service attached.
func serviceMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "application: "); i >= 0 {
		msg = msg[:i] + msg[i+len("application: "):]
	}
	return strings.TrimSpace(msg)
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request could not be understood."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusConflict:
		return "The request conflicts with the current state of the resource."
	case http.StatusUnprocessableEntity:
		return "The submitted data is invalid."
	default:
		return "An unexpected error occurred."
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return codeBadRequest
	case http.StatusNotFound:
		return codeNotFound
	case http.StatusConflict:
		return codeConflict
	case http.StatusUnprocessableEntity:
		return codeValidation
	default:
		return codeInternal
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
