package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"meetingscheduler/internal/delivery/http/helpers"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthResponse lists the state of each checked dependency.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthController answers liveness checks.
type HealthController struct {
	Logger  *slog.Logger
	Checks  map[string]Pinger
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, checks map[string]Pinger) *HealthController {
	return &HealthController{Logger: logger, Checks: checks, Timeout: 2 * time.Second}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 503 {object} helpers.APIResponse "data.status: degraded"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(c.Checks))}
	status := http.StatusOK
	for name, p := range c.Checks {
		if err := p.Ping(ctx); err != nil {
			c.Logger.WarnContext(ctx, "health check failed", "check", name, "err", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	helpers.WriteJSONSuccess(w, status, resp)
}
