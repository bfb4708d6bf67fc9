// Package server assembles the echo instance: error handling, middleware
// chain and route registration, plus a graceful Serve loop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/greeter-api/internal/config"
	"github.com/iliyamo/greeter-api/internal/handler"
	"github.com/iliyamo/greeter-api/internal/middleware"
	"github.com/iliyamo/greeter-api/internal/router"
)

// Deps carries everything New wires in.  Redis and Events may be nil; the
// features that need them are then disabled.
type Deps struct {
	Log       *slog.Logger
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Events    *middleware.ServedEvents
	Metrics   *middleware.Metrics
}

// New builds a ready-to-serve echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(d.Metrics.Middleware())
	e.Use(middleware.RequestLogger(d.Log))

	router.RegisterOps(e, &handler.ReadinessHandler{Redis: d.Redis}, d.Metrics.Handler())
	router.RegisterRoutes(e,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.PublishServed(d.Events),
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
	)
	return e
}

// Serve starts e on addr and blocks until ctx is cancelled, then drains
// in-flight requests for at most shutdownTimeout.
func Serve(ctx context.Context, e *echo.Echo, addr string, shutdownTimeout time.Duration, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening on " + addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down http server")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
