// Package service publishes session events to RabbitMQ.  Publishing never
// interrupts the request that produced the event: Emit only enqueues, and a
// background Run loop drains the buffer to the broker.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/oakline/storefront/internal/queue"
	"github.com/oakline/storefront/internal/session"
)

// amqpChannel is the slice of *amqp.Channel the publisher needs.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// connChannel closes its connection together with the channel.
type connChannel struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (c connChannel) Close() error {
	_ = c.Channel.Close()
	return c.conn.Close()
}

func dialAMQP(url string) (amqpChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return connChannel{Channel: ch, conn: conn}, nil
}

// Publisher is a session.EventSink backed by the session.events queue.
type Publisher struct {
	url    string
	log    *zap.Logger
	events chan q.SessionEvent
	ignore map[session.EventType]bool
	dial   func(url string) (amqpChannel, error)
	// retry is the first reconnect delay; it doubles up to maxRetry.
	retry time.Duration
}

const maxRetry = 30 * time.Second

var _ session.EventSink = (*Publisher)(nil)

// NewPublisher buffers up to size events before Emit starts dropping them.
func NewPublisher(url string, size int, log *zap.Logger) *Publisher {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log, events: make(chan q.SessionEvent, size), dial: dialAMQP, retry: time.Second}
}

// Ignore stops Emit from publishing the given event types.  Call it before
// the publisher is shared.
func (p *Publisher) Ignore(types ...session.EventType) *Publisher {
	if p.ignore == nil {
		p.ignore = make(map[session.EventType]bool, len(types))
	}
	for _, t := range types {
		p.ignore[t] = true
	}
	return p
}

// Emit enqueues ev without blocking.  A full buffer drops the event.
func (p *Publisher) Emit(_ context.Context, ev session.Event) {
	if p.ignore[ev.Type] {
		return
	}
	select {
	case p.events <- q.FromSession(ev):
	default:
		p.log.Warn("rabbitmq: event buffer full, dropping", zap.String("type", string(ev.Type)), zap.String("user_id", ev.UserID))
	}
}

// Run publishes buffered events until ctx is cancelled, reconnecting with
// backoff when the broker is unreachable or rejects publishes.  An event
// whose publish fails is retried on the next connection.  The backoff only
// resets once a publish succeeds.
func (p *Publisher) Run(ctx context.Context) error {
	backoff := p.retry
	var pending *q.SessionEvent
	for {
		ch, err := p.open()
		if err != nil {
			p.log.Warn("rabbitmq: connect failed", zap.Error(err), zap.Duration("retry_in", backoff))
		} else {
			var sent int
			pending, sent, err = p.drain(ctx, ch, pending)
			_ = ch.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if sent > 0 {
				backoff = p.retry
			}
			p.log.Warn("rabbitmq: publish failed; reconnecting", zap.Error(err), zap.Duration("retry_in", backoff))
		}
		if !wait(ctx, backoff) {
			return ctx.Err()
		}
		if backoff < maxRetry {
			backoff *= 2
		}
	}
}

func (p *Publisher) open() (amqpChannel, error) {
	ch, err := p.dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.SessionQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	return ch, nil
}

// drain publishes until ctx is done or a publish fails; the failed event is
// handed back so it survives the reconnect.  sent counts successful
// publishes.
func (p *Publisher) drain(ctx context.Context, ch amqpChannel, pending *q.SessionEvent) (_ *q.SessionEvent, sent int, _ error) {
	if pending != nil {
		if err := p.publish(ctx, ch, *pending); err != nil {
			return pending, sent, err
		}
		sent++
	}
	for {
		select {
		case <-ctx.Done():
			return nil, sent, ctx.Err()
		case ev := <-p.events:
			if err := p.publish(ctx, ch, ev); err != nil {
				return &ev, sent, err
			}
			sent++
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ch amqpChannel, ev q.SessionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return ch.PublishWithContext(ctx,
		"",                 // default exchange
		q.SessionQueueName, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		pub,
	)
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
