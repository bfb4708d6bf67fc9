package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/greeter-api/internal/config" // Internal config loader
	"github.com/iliyamo/greeter-api/internal/logger"
	"github.com/iliyamo/greeter-api/internal/middleware"
	"github.com/iliyamo/greeter-api/internal/queue"
	"github.com/iliyamo/greeter-api/internal/server"
	queue_publisher "github.com/iliyamo/greeter-api/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	log, syncLogger := logger.New(cfg.IsProd())

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "error", err)
		_ = syncLogger()
		os.Exit(1)
	}
	_ = syncLogger()
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log) // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	deps := server.Deps{
		Log:       log,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Metrics:   middleware.NewMetrics(),
	}

	events := config.LoadEventsConfig()
	if events.Enabled {
		pub := queue_publisher.NewPublisher(events.URL, events.Queue, log)
		defer pub.Close()
		served := middleware.NewServedEvents(pub, events.Buffer, events.PublishTimeout, log)
		defer served.Close() // runs before pub.Close
		deps.Events = served

		if events.Consumer {
			consumer := &queue.Consumer{URL: events.URL, Queue: events.Queue, LogDir: events.LogDir, Log: log}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("event consumer stopped", "error", err)
				}
			}()
		}
	}

	e := server.New(deps)
	log.Info("starting greeter api", "env", cfg.Env, "port", cfg.Port, "events", events.Enabled, "redis", rdb != nil)

	return server.Serve(ctx, e, ":"+cfg.Port, cfg.ShutdownTimeout, log)
}
