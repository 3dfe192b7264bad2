package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/facility-planner/internal/logging"
)

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *statusRecorder) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// RequestLogger assigns a request id, attaches a request-scoped logger to the
// context and logs the completed request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(ContextWithRequestID(r.Context(), id), logger)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(recorder, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", recorder.status,
				"bytes", recorder.size,
				"duration", time.Since(start),
			)
		})
	}
}

// Recoverer turns a panic in a downstream handler into a 500 response.
func Recoverer(base *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					ctx := r.Context()
					responder.loggerFor(ctx).ErrorContext(ctx, "panic recovered",
						"panic", fmt.Sprint(rec),
						"stack", string(debug.Stack()),
					)
					responder.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
						ErrorCode: codeInternal,
						Message:   statusMessage(http.StatusInternalServerError),
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
