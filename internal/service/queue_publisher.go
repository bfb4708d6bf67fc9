// Package queue_publisher publishes domain events to RabbitMQ.  Failures are
// logged and returned so callers can ignore them without interrupting the
// request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/greeter-api/internal/queue"
)

const (
    // defaultDialTimeout bounds the TCP connect and AMQP handshake when the
    // caller's context carries no deadline.
    defaultDialTimeout = 5 * time.Second
    heartbeat          = 10 * time.Second
)

// Publisher keeps one AMQP connection and channel open across publishes and
// re-dials lazily after either is closed.
type Publisher struct {
    url   string
    queue string
    log   *slog.Logger

    // sem is a one-slot lock that can be acquired with a context.
    sem  chan struct{}
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
    return &Publisher{url: url, queue: queue, log: log, sem: make(chan struct{}, 1)}
}

func (p *Publisher) lock(ctx context.Context) error {
    select {
    case p.sem <- struct{}{}:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *Publisher) unlock() { <-p.sem }

// dialTimeout is what is left of ctx's deadline, or defaultDialTimeout.
func dialTimeout(ctx context.Context) time.Duration {
    if dl, ok := ctx.Deadline(); ok {
        if d := time.Until(dl); d > 0 {
            return d
        }
        return time.Millisecond
    }
    return defaultDialTimeout
}

// channel returns an open channel with the queue declared, dialing if
// needed.  The caller must hold the lock.  The connect and the handshake
// share ctx's deadline; a broker that accepts TCP but never speaks AMQP
// fails the dial instead of hanging it.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
        return p.ch, nil
    }
    p.closeLocked()

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: heartbeat,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout(ctx)),
    })
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Durable so messages survive broker restarts; declaring is idempotent.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// PublishGreetingServed publishes ev as a persistent JSON message on the
// default exchange, routed to the configured queue.  Waiting for the lock,
// dialing and publishing are all bounded by ctx.
func (p *Publisher) PublishGreetingServed(ctx context.Context, ev q.GreetingServedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        p.log.Warn("rabbitmq: marshal event failed", "error", err)
        return err
    }

    if err := p.lock(ctx); err != nil {
        return err
    }
    defer p.unlock()

    ch, err := p.channel(ctx)
    if err != nil {
        p.log.Warn("rabbitmq: connect failed", "error", err)
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        p.log.Warn("rabbitmq: publish failed", "error", err)
        p.closeLocked()
        return err
    }
    return nil
}

// Close releases the channel and connection.  It waits for an in-flight
// publish, which is itself bounded by its context.
func (p *Publisher) Close() error {
    p.sem <- struct{}{}
    defer p.unlock()
    p.closeLocked()
    return nil
}

func (p *Publisher) closeLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}
