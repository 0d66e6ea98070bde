package amqp_test

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/dai/shuttle/job"
	shuttleamqp "github.com/dai/shuttle/transport/amqp"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakePublishChannel struct {
	sent []published
	err  error
}

func (c *fakePublishChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestEnqueue_UsesDefinitionQueue(t *testing.T) {
	t.Parallel()
	ch := &fakePublishChannel{}
	p := shuttleamqp.NewPublisher(ch)
	def := job.NewDefinition("manifest.precompile", func(context.Context, commitArgs) error { return nil },
		job.WithQueue("low"))

	if err := shuttleamqp.Enqueue(context.Background(), p, def, commitArgs{CommitID: 5, Format: "yaml"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent %d messages", len(ch.sent))
	}
	got := ch.sent[0]
	if got.exchange != "" || got.key != "low" {
		t.Fatalf("routed to %q/%q", got.exchange, got.key)
	}
	if got.msg.Type != "manifest.precompile" {
		t.Fatalf("type = %q", got.msg.Type)
	}
	if string(got.msg.Body) != `{"commit_id":5,"format":"yaml"}` {
		t.Fatalf("body = %s", got.msg.Body)
	}
	if got.msg.DeliveryMode != amqp.Persistent || got.msg.ContentType != "application/json" {
		t.Fatalf("unexpected properties %+v", got.msg)
	}
}

func TestPublish_WrapsError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	p := shuttleamqp.NewPublisher(&fakePublishChannel{err: boom})
	if err := p.Publish(context.Background(), "high", "blob.import", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
