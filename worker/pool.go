package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dai/shuttle/id"
)

// Delivery is one message handed over by a transport.
type Delivery interface {
	// Name is the registered job name.
	Name() string
	// Payload is the JSON-encoded job arguments.
	Payload() []byte
	Ack() error
	Nack(requeue bool) error
}

// Source yields deliveries until ctx is cancelled or the underlying
// transport closes, then closes the channel.
type Source interface {
	Deliveries(ctx context.Context) (<-chan Delivery, error)
}

// Pool runs a fixed number of goroutines that take deliveries from a
// Source, dispatch them through the Executor, and acknowledge them.
type Pool struct {
	source      Source
	executor    *Executor
	concurrency int
	requeue     bool
	workerID    id.ID
	logger      *slog.Logger

	stopConsume context.CancelFunc
	wg          sync.WaitGroup
	done        chan struct{}
	mu          sync.Mutex
	running     bool
	started     bool

	seq        atomic.Uint64
	activeJobs map[uint64]context.CancelFunc
	activeMu   sync.Mutex
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of concurrent worker goroutines.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRequeue makes fatal failures nack with requeue. The default is to
// nack without requeue so a dead-letter exchange applies the broker's retry
// policy.
func WithRequeue(requeue bool) PoolOption {
	return func(p *Pool) { p.requeue = requeue }
}

// NewPool creates a worker pool.
func NewPool(source Source, executor *Executor, logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		source:      source,
		executor:    executor,
		concurrency: 10,
		workerID:    id.NewWorkerID(),
		logger:      logger,
		done:        make(chan struct{}),
		activeJobs:  make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.ID { return p.workerID }

// Start subscribes to the source and launches the worker goroutines. It
// returns immediately. A pool starts at most once; later calls are no-ops.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	deliveries, err := p.source.Deliveries(consumeCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("worker: subscribe: %w", err)
	}
	p.stopConsume = cancel
	p.running = true
	p.started = true

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.consumeLoop(deliveries)
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	return nil
}

// Done is closed once every worker goroutine has exited, either after Stop
// or because the source closed its channel.
func (p *Pool) Done() <-chan struct{} { return p.done }

// Stop stops taking new deliveries and waits for in-flight jobs. If ctx
// ends first, in-flight jobs are cancelled; their locks are still released
// by the runner.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))
	p.stopConsume()

	select {
	case <-p.done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs()
		<-p.done
	}

	return nil
}

func (p *Pool) consumeLoop(deliveries <-chan Delivery) {
	defer p.wg.Done()
	for d := range deliveries {
		p.handle(d)
	}
}

func (p *Pool) handle(d Delivery) {
	ctx, cancel := context.WithCancel(context.Background())
	seq := p.trackJob(cancel)
	defer func() {
		p.untrackJob(seq)
		cancel()
	}()

	out, err := p.executor.Execute(ctx, d.Name(), d.Payload())
	if err != nil {
		if nackErr := d.Nack(p.requeue); nackErr != nil {
			p.logger.Error("failed to nack delivery",
				slog.String("job_name", d.Name()),
				slog.String("error", nackErr.Error()),
			)
		}
		return
	}

	if ackErr := d.Ack(); ackErr != nil {
		p.logger.Error("failed to ack delivery",
			slog.String("job_name", d.Name()),
			slog.String("status", out.Status.String()),
			slog.String("error", ackErr.Error()),
		)
	}
}

func (p *Pool) trackJob(cancel context.CancelFunc) uint64 {
	seq := p.seq.Add(1)
	p.activeMu.Lock()
	p.activeJobs[seq] = cancel
	p.activeMu.Unlock()
	return seq
}

func (p *Pool) untrackJob(seq uint64) {
	p.activeMu.Lock()
	delete(p.activeJobs, seq)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for seq, cancel := range p.activeJobs {
		p.logger.Warn("cancelling active job", slog.Uint64("delivery_seq", seq))
		cancel()
	}
}
