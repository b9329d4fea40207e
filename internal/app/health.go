package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	code      int
}

func (r healthResponse) StatusCode() int { return r.code }

func (r healthResponse) Body() any { return r }

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:    "ok",
		Timestamp: a.clock.Now(),
		Checks:    map[string]string{"database": "ok", "redis": "ok"},
		code:      http.StatusOK,
	}

	if err := a.dbConn.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "name", "database", "error", err)
		resp.Checks["database"] = "down"
	}
	if err := a.cacheConn.Ping(ctx).Err(); err != nil {
		slog.WarnContext(ctx, "health check failed", "name", "redis", "error", err)
		resp.Checks["redis"] = "down"
	}

	for _, v := range resp.Checks {
		if v != "ok" {
			resp.Status = "degraded"
			resp.code = http.StatusServiceUnavailable
		}
	}

	return resp, nil
}
