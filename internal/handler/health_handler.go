package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Pinger checks a backing service. *sql.DB and events.RedisBroker satisfy it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness and the state of backing services
type HealthHandler struct {
	build   BuildInfo
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(build BuildInfo, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{build: build, checks: checks, timeout: 2 * time.Second}
}

// Health reports "ok", or "degraded" with status 503 when a check fails
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			deps[name] = "unavailable"
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status":       status,
		"version":      h.build.Version,
		"commit":       h.build.Commit,
		"build_time":   h.build.BuildTime,
		"time":         time.Now().Unix(),
		"dependencies": deps,
	})
}
