// Package amqp adapts RabbitMQ to shuttle. A Consumer turns deliveries on a
// queue into worker deliveries, using the AMQP Type property as the job name
// and the body as the JSON payload. A Publisher enqueues jobs in the same
// shape.
package amqp

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dai/shuttle/worker"
)

// Channel is the subset of *amqp.Channel the Consumer uses.
type Channel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Compile-time check.
var _ worker.Source = (*Consumer)(nil)

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerTag sets the consumer tag. Empty lets the broker choose.
func WithConsumerTag(tag string) ConsumerOption {
	return func(c *Consumer) { c.tag = tag }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = l }
}

// Consumer reads one queue with manual acknowledgement.
type Consumer struct {
	ch     Channel
	queue  string
	tag    string
	logger *slog.Logger
}

// NewConsumer creates a Consumer for queue.
func NewConsumer(ch Channel, queue string, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		ch:     ch,
		queue:  queue,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliveries implements worker.Source. The returned channel closes when ctx
// is done or the broker closes the delivery stream.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan worker.Delivery, error) {
	msgs, err := c.ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("shuttle/amqp: consume %s: %w", c.queue, err)
	}

	c.logger.Info("amqp consumer started", slog.String("queue", c.queue))

	out := make(chan worker.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("amqp consumer stopping", slog.String("queue", c.queue))
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn("amqp delivery channel closed", slog.String("queue", c.queue))
					return
				}
				select {
				case out <- delivery{msg: msg}:
				case <-ctx.Done():
					// Hand the message back so another consumer takes it.
					if err := msg.Nack(false, true); err != nil {
						c.logger.Error("failed to return delivery",
							slog.String("queue", c.queue),
							slog.String("error", err.Error()),
						)
					}
					return
				}
			}
		}
	}()
	return out, nil
}

// Serve consumes with a worker pool until ctx is done or the broker closes
// the stream, then stops the pool, waiting for in-flight jobs.
func (c *Consumer) Serve(ctx context.Context, executor *worker.Executor, opts ...worker.PoolOption) error {
	pool := worker.NewPool(c, executor, c.logger, opts...)
	if err := pool.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-pool.Done():
	}
	return pool.Stop(context.WithoutCancel(ctx))
}

// delivery adapts amqp.Delivery to worker.Delivery.
type delivery struct {
	msg amqp.Delivery
}

func (d delivery) Name() string    { return d.msg.Type }
func (d delivery) Payload() []byte { return d.msg.Body }
func (d delivery) Ack() error      { return d.msg.Ack(false) }

func (d delivery) Nack(requeue bool) error { return d.msg.Nack(false, requeue) }
