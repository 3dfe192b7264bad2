package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterConfig lists the handlers mounted by NewRouter. Nil handlers leave
// their routes unregistered.
type RouterConfig struct {
	Catalog      *CatalogHandler
	Tasks        *TaskHandler
	Governance   *GovernanceHandler
	Convocations *ConvocationHandler
	Health       HealthChecker
	Logger       *slog.Logger
	Middleware   []func(http.Handler) http.Handler
}

// NewRouter mounts every configured handler under /api on a single router.
// Routes are registered with their full paths rather than through
// subrouters so that a method mismatch is answered with 405. Middleware wraps
// the whole router so unmatched routes are logged too.
func NewRouter(cfg RouterConfig) http.Handler {
	root := mux.NewRouter()
	responder := newResponder(cfg.Logger)
	withFallbacks(root, responder)

	api := func(path string, handler http.HandlerFunc, method string) {
		root.HandleFunc("/api"+path, handler).Methods(method)
	}

	api("/health", healthHandler(cfg.Health, responder), http.MethodGet)

	if h := cfg.Catalog; h != nil {
		api("/locations", h.ListLocations, http.MethodGet)
		api("/locations", h.CreateLocation, http.MethodPost)
		api("/locations/{id}", h.GetLocation, http.MethodGet)
		api("/locations/{id}", h.UpdateLocation, http.MethodPut)
		api("/locations/{id}", h.DeleteLocation, http.MethodDelete)

		api("/activities", h.ListActivities, http.MethodGet)
		api("/activities", h.CreateActivity, http.MethodPost)
		api("/activities/{id}", h.GetActivity, http.MethodGet)
		api("/activities/{id}", h.UpdateActivity, http.MethodPut)
		api("/activities/{id}", h.DeleteActivity, http.MethodDelete)

		api("/staff", h.ListStaff, http.MethodGet)
		api("/staff", h.CreateStaff, http.MethodPost)
		api("/staff/{id}", h.GetStaff, http.MethodGet)
		api("/staff/{id}", h.UpdateStaff, http.MethodPut)
		api("/staff/{id}", h.DeleteStaff, http.MethodDelete)
	}

	if h := cfg.Tasks; h != nil {
		api("/locations/{id}/templates", h.ListTemplates, http.MethodGet)
		api("/locations/{id}/templates", h.CreateTemplate, http.MethodPost)
		api("/templates/{id}", h.DeleteTemplate, http.MethodDelete)
		api("/templates/{id}/project", h.ProjectTemplate, http.MethodPost)
		api("/occurrences", h.ListOccurrences, http.MethodGet)
		api("/occurrences/{id}/execute", h.ExecuteOccurrence, http.MethodPost)
		api("/occurrences/{id}/operator", h.AssignOperator, http.MethodPut)
	}

	if h := cfg.Governance; h != nil {
		api("/governance/parameters", h.GetParameters, http.MethodGet)
		api("/governance/parameters", h.SaveParameters, http.MethodPut)
		api("/governance/parameters/reset", h.ResetParameters, http.MethodPost)
		api("/governance/weeks/{week}/plan", h.GetWeekPlan, http.MethodGet)
		api("/governance/weeks/{week}/plan", h.SaveWeekPlan, http.MethodPut)
		api("/governance/weeks/{week}/schedule", h.GetSchedule, http.MethodGet)
		api("/governance/weeks/{week}/schedule/suggest", h.SuggestSchedule, http.MethodPost)
		api("/governance/weeks/{week}/schedule/shifts", h.SetShiftTime, http.MethodPut)
	}

	if h := cfg.Convocations; h != nil {
		api("/governance/weeks/{week}/convocations", h.List, http.MethodGet)
		api("/governance/weeks/{week}/convocations", h.Send, http.MethodPost)
		api("/governance/weeks/{week}/convocations/sendable", h.ListSendable, http.MethodGet)
		api("/governance/weeks/{week}/convocations/summary", h.Summary, http.MethodGet)
		api("/convocations/{id}/accept", h.Accept, http.MethodPost)
		api("/convocations/{id}/reject", h.Reject, http.MethodPost)
	}

	var handler http.Handler = root
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// withFallbacks installs the JSON 404 and 405 handlers on r.
func withFallbacks(r *mux.Router, responder responder) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: codeNotFound, Message: statusMessage(http.StatusNotFound)})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{ErrorCode: codeMethodNotAllowed, Message: http.StatusText(http.StatusMethodNotAllowed)})
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func healthHandler(checker HealthChecker, responder responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if checker != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			if err := checker.Ping(pingCtx); err != nil {
				responder.loggerFor(ctx).ErrorContext(ctx, "health check failed", "error", err)
				responder.writeJSON(ctx, w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Time: formatTimestamp(time.Now())})
				return
			}
		}
		responder.writeJSON(ctx, w, http.StatusOK, healthResponse{Status: "ok", Time: formatTimestamp(time.Now())})
	}
}
