package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/facility-planner/internal/application"
)

// handlerBase carries the logger and responder shared by resource handlers.
type handlerBase struct {
	name      string
	responder responder
	logger    *slog.Logger
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	base := defaultLogger(logger)
	return handlerBase{name: name, responder: newResponder(base), logger: base}
}

func (h handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, h.name, operation, attrs...)
}

// decode fills dst from the request body. It writes the error response and
// returns false when the body is malformed or fails validation.
func (h handlerBase) decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	ctx := r.Context()
	fields, err := decodeJSON(r, dst)
	if err != nil {
		logger.With("error_kind", "bad_request").ErrorContext(ctx, "failed to decode request body", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	if len(fields) > 0 {
		logger.With("error_kind", "validation").InfoContext(ctx, "request body rejected", "fields", len(fields))
		h.responder.writeFieldErrors(ctx, w, fields)
		return false
	}
	return true
}

func (h handlerBase) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, message string, err error) {
	logger.ErrorContext(ctx, message, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h handlerBase) requireID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id := pathParam(r, "id")
	if id == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "missing id in path")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return "", false
	}
	return id, true
}

func (h handlerBase) requireWeek(w http.ResponseWriter, r *http.Request, operation string) (time.Time, bool) {
	week, err := weekParam(r)
	if err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid week in path", "week", pathParam(r, "week"))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return time.Time{}, false
	}
	return week, true
}

func unavailable(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
