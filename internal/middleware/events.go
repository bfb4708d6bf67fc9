package middleware

import (
    "context"
    "log/slog"
    "sync"
    "sync/atomic"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/greeter-api/internal/queue"
)

// EventPublisher is satisfied by the RabbitMQ publisher.
type EventPublisher interface {
    PublishGreetingServed(ctx context.Context, ev queue.GreetingServedEvent) error
}

// ServedEvents hands GreetingServedEvents to a publisher from a single
// worker goroutine.  Events wait in a bounded buffer; when it is full they
// are dropped, so a slow or hung broker costs at most one goroutine and
// len(buffer) events.
type ServedEvents struct {
    pub     EventPublisher
    timeout time.Duration
    log     *slog.Logger

    events  chan queue.GreetingServedEvent
    stop    chan struct{}
    done    chan struct{}
    once    sync.Once
    dropped atomic.Int64
}

// NewServedEvents starts the worker.  Call Close to stop it.
func NewServedEvents(pub EventPublisher, buffer int, timeout time.Duration, log *slog.Logger) *ServedEvents {
    if buffer < 1 {
        buffer = 1
    }
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    s := &ServedEvents{
        pub:     pub,
        timeout: timeout,
        log:     log,
        events:  make(chan queue.GreetingServedEvent, buffer),
        stop:    make(chan struct{}),
        done:    make(chan struct{}),
    }
    go s.run()
    return s
}

func (s *ServedEvents) run() {
    defer close(s.done)
    for {
        select {
        case <-s.stop:
            return
        case ev := <-s.events:
            ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
            if err := s.pub.PublishGreetingServed(ctx, ev); err != nil {
                s.log.Debug("served event dropped", "uri", ev.URI, "error", err)
            }
            cancel()
        }
    }
}

// Enqueue offers ev to the worker without blocking.  It reports false when
// the event was dropped because the buffer is full or the worker stopped.
func (s *ServedEvents) Enqueue(ev queue.GreetingServedEvent) bool {
    select {
    case <-s.stop:
        return false
    default:
    }
    select {
    case s.events <- ev:
        return true
    default:
        s.dropped.Add(1)
        return false
    }
}

// Dropped counts events discarded because the buffer was full.
func (s *ServedEvents) Dropped() int64 { return s.dropped.Load() }

// Close stops the worker and waits for the publish in flight, if any.
// Buffered events are discarded.
func (s *ServedEvents) Close() {
    s.once.Do(func() { close(s.stop) })
    <-s.done
}

// PublishServed enqueues a GreetingServedEvent for every 2xx response.  A
// nil ServedEvents disables the middleware.
func PublishServed(events *ServedEvents) echo.MiddlewareFunc {
    if events == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil {
                return err
            }
            res := c.Response()
            if res.Status < 200 || res.Status >= 300 {
                return nil
            }
            events.Enqueue(queue.GreetingServedEvent{
                RequestID: res.Header().Get(echo.HeaderXRequestID),
                Method:    c.Request().Method,
                Route:     c.Path(),
                URI:       c.Request().RequestURI,
                Status:    res.Status,
                Bytes:     res.Size,
                ServedAt:  time.Now().UTC().Format(time.RFC3339),
            })
            return nil
        }
    }
}
