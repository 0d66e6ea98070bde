package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dai/shuttle/job"
)

// PublishChannel is the subset of *amqp.Channel the Publisher uses.
type PublishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher enqueues jobs on the default exchange, routed by queue name.
type Publisher struct {
	ch  PublishChannel
	now func() time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(ch PublishChannel) *Publisher {
	return &Publisher{ch: ch, now: time.Now}
}

// Publish sends a raw job message to queue.
func (p *Publisher) Publish(ctx context.Context, queue, name string, payload []byte) error {
	err := p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Type:         name,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("shuttle/amqp: publish %s to %s: %w", name, queue, err)
	}
	return nil
}

// Enqueue publishes args for def on the definition's queue.
func Enqueue[T job.Args](ctx context.Context, p *Publisher, def *job.Definition[T], args T) error {
	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("shuttle/amqp: marshal args for job %q: %w", def.Name, err)
	}
	return p.Publish(ctx, def.Opts.Queue, def.Name, body)
}
