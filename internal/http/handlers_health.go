package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandlers reports readiness of the service and its dependencies.
type HealthHandlers struct {
	Checks []HealthCheck
	Logger *slog.Logger
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every check concurrently and answers 200 when all pass and 503
// otherwise.
// GET|HEAD /healthz.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	results := make([]string, len(h.Checks))
	var g errgroup.Group
	for i, c := range h.Checks {
		g.Go(func() error {
			if err := c.Check(ctx); err != nil {
				results[i] = "error"
				if h.Logger != nil {
					h.Logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
				}
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.Checks) > 0 {
		resp.Checks = make(map[string]string, len(h.Checks))
	}
	for i, c := range h.Checks {
		resp.Checks[c.Name] = results[i]
		if results[i] != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, resp)
}
