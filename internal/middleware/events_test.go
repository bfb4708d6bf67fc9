package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/greeter-api/internal/logger"
	"github.com/iliyamo/greeter-api/internal/queue"
)

type chanPublisher chan queue.GreetingServedEvent

func (p chanPublisher) PublishGreetingServed(_ context.Context, ev queue.GreetingServedEvent) error {
	p <- ev
	return nil
}

// stuckPublisher blocks every publish until its context expires, like a
// broker that accepted the connection and went quiet.
type stuckPublisher struct{}

func (stuckPublisher) PublishGreetingServed(ctx context.Context, _ queue.GreetingServedEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func newEvents(t *testing.T, pub EventPublisher, buffer int, timeout time.Duration) *ServedEvents {
	t.Helper()
	s := NewServedEvents(pub, buffer, timeout, logger.Nop())
	t.Cleanup(s.Close)
	return s
}

func TestPublishServedOnSuccess(t *testing.T) {
	pub := make(chanPublisher, 4)
	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(PublishServed(newEvents(t, pub, 4, time.Second)))
	e.GET("/api/greeting/:name", func(c echo.Context) error { return c.String(http.StatusOK, "Hello Bob") })

	rec := serve(e, http.MethodGet, "/api/greeting/Bob")

	select {
	case ev := <-pub:
		assert.Equal(t, http.MethodGet, ev.Method)
		assert.Equal(t, "/api/greeting/:name", ev.Route)
		assert.Equal(t, "/api/greeting/Bob", ev.URI)
		assert.Equal(t, http.StatusOK, ev.Status)
		assert.Equal(t, int64(len("Hello Bob")), ev.Bytes)
		assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), ev.RequestID)
		_, err := time.Parse(time.RFC3339, ev.ServedAt)
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestPublishServedSkipsFailures(t *testing.T) {
	pub := make(chanPublisher, 4)
	e := echo.New()
	e.Use(PublishServed(newEvents(t, pub, 4, time.Second)))
	e.GET("/api/search", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest) })

	serve(e, http.MethodGet, "/api/search")
	serve(e, http.MethodGet, "/nowhere")

	select {
	case ev := <-pub:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublishServedNilEvents(t *testing.T) {
	e := echo.New()
	e.Use(PublishServed(nil))
	e.GET("/api/greeting", func(c echo.Context) error { return c.String(http.StatusOK, "hi") })

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/greeting").Code)
}

func TestStuckBrokerDoesNotPileUpGoroutines(t *testing.T) {
	events := newEvents(t, stuckPublisher{}, 8, 100*time.Millisecond)
	e := echo.New()
	e.Use(PublishServed(events))
	e.GET("/api/welcome", func(c echo.Context) error { return c.String(http.StatusOK, "welcome, Guest!") })

	before := runtime.NumGoroutine()
	for i := 0; i < 500; i++ {
		rec := serve(e, http.MethodGet, fmt.Sprintf("/api/welcome?name=n%d", i))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.LessOrEqual(t, runtime.NumGoroutine(), before+2)
	assert.GreaterOrEqual(t, events.Dropped(), int64(500-8-1))
}

func TestServedEventsCloseReturnsWhilePublishing(t *testing.T) {
	events := NewServedEvents(stuckPublisher{}, 4, 100*time.Millisecond, logger.Nop())
	events.Enqueue(queue.GreetingServedEvent{URI: "/api/greeting"})

	done := make(chan struct{})
	go func() { events.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a stuck publish")
	}
	assert.False(t, events.Enqueue(queue.GreetingServedEvent{}))
}
