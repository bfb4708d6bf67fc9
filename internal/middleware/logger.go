package middleware

import (
    "context"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger logs one line per request through slog.  Errors returned by
// handlers are forwarded to the global error handler first, so the logged
// status is the one the client received.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogRoutePath: true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            attrs := []slog.Attr{
                slog.String("method", v.Method),
                slog.String("uri", v.URI),
                slog.String("route", v.RoutePath),
                slog.Int("status", v.Status),
                slog.Duration("latency", v.Latency),
                slog.String("request_id", v.RequestID),
            }
            if v.Error == nil {
                log.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)
                return nil
            }
            level := slog.LevelInfo
            if v.Status >= http.StatusInternalServerError {
                level = slog.LevelError
            }
            attrs = append(attrs, slog.String("error", v.Error.Error()))
            log.LogAttrs(context.Background(), level, "request error", attrs...)
            return nil
        },
    })
}
