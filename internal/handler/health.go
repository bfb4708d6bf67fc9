package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Health is the liveness probe: plain text "ok" with 200 whenever the
// process can serve HTTP.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// ReadinessHandler reports whether optional dependencies are reachable.
// A nil Redis client means caching and rate limiting were switched off at
// startup, which does not make the service unready.
type ReadinessHandler struct {
    Redis *redis.Client
}

// Ready handles GET /readyz.
func (h *ReadinessHandler) Ready(c echo.Context) error {
    if h.Redis != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
        defer cancel()
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            return c.String(http.StatusServiceUnavailable, "redis unavailable")
        }
    }
    return c.String(http.StatusOK, "ready")
}
