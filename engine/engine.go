// Package engine wires the shuttle subsystems together: the store, the
// in-flight registry, the runner and its middleware, the extension
// registry, and the executor. It provides the application-level API for
// registering jobs and dispatching them.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dai/shuttle"
	"github.com/dai/shuttle/backoff"
	"github.com/dai/shuttle/ext"
	"github.com/dai/shuttle/id"
	"github.com/dai/shuttle/job"
	"github.com/dai/shuttle/jobkey"
	"github.com/dai/shuttle/lock"
	mw "github.com/dai/shuttle/middleware"
	"github.com/dai/shuttle/observability"
	"github.com/dai/shuttle/policy"
	"github.com/dai/shuttle/registry"
	"github.com/dai/shuttle/runner"
	"github.com/dai/shuttle/store"
	"github.com/dai/shuttle/worker"
)

// instrumentationName scopes the engine's tracer and meters.
const instrumentationName = "github.com/dai/shuttle"

// Engine owns the wiring for one process. It does not own the store;
// the caller closes it after Stop.
type Engine struct {
	store      store.Store
	config     shuttle.Config
	extensions *ext.Registry
	jobs       *job.Registry
	active     *registry.Registry
	runner     *runner.Runner
	executor   *worker.Executor
	policy     *policy.Policy
	bo         backoff.Strategy
	exts       []ext.Extension
	mws        []mw.Middleware
	logger     *slog.Logger

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu    sync.Mutex
	pools []*worker.Pool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithConfig replaces the runtime configuration.
func WithConfig(cfg shuttle.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithLockTTL sets how long a lock survives a holder that never releases
// it. Zero, the default, means locks never expire.
func WithLockTTL(ttl time.Duration) Option {
	return func(eng *Engine) { eng.config.LockTTL = ttl }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.exts = append(eng.exts, e) }
}

// WithMiddleware adds middleware to the engine's chain. It runs inside the
// built-in stack, closest to the work.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithBackoff sets the delay strategy between lock attempts for jobs that
// wait when running. If not set, backoff.DefaultStrategy() is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) { eng.bo = b }
}

// WithPolicy sets the failure classification policy. If not set,
// policy.Default() is used.
func WithPolicy(p *policy.Policy) Option {
	return func(eng *Engine) { eng.policy = p }
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension. If not set, the global
// provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// New creates an Engine on s.
func New(s store.Store, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, shuttle.ErrNoStore
	}

	eng := &Engine{
		store:  s,
		config: shuttle.DefaultConfig(),
		jobs:   job.NewRegistry(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}
	if eng.policy == nil {
		eng.policy = policy.Default()
	}

	eng.extensions = ext.NewRegistry(eng.logger)
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}

	// Observing middleware reports ignorable failures the way the executor does.
	classify := mw.WithIgnorable(eng.policy.Ignorable)

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName), classify)
	} else {
		tracingMw = mw.Tracing(classify)
	}

	// Build metrics middleware and the outcome extension (custom provider or global).
	var metricsMw mw.Middleware
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName), classify)
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	} else {
		metricsMw = mw.Metrics(classify)
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Default stack: started hook → tracing → metrics → logging → recover → timeout.
	defaultMws := []mw.Middleware{
		eng.extensions.Middleware(),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger, classify),
		mw.Recover(eng.logger),
		mw.Timeout(eng.logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	eng.active = registry.New(s, registry.WithLogger(eng.logger))
	eng.runner = runner.New(s, eng.active,
		runner.WithConfig(eng.config),
		runner.WithBackoff(eng.bo),
		runner.WithLogger(eng.logger),
		runner.WithMiddleware(allMws...),
	)
	eng.executor = worker.NewExecutor(eng.jobs, eng.runner, eng.extensions, eng.policy, eng.logger)

	return eng, nil
}

// Register registers a typed job definition with the engine.
func Register[T job.Args](eng *Engine, def *job.Definition[T]) {
	job.RegisterDefinition(eng.jobs, def)
}

// Dispatch runs the job registered under name with args on the calling
// goroutine, exactly as if args had arrived from a transport.
func Dispatch[T any](ctx context.Context, eng *Engine, name string, args T) (runner.Outcome, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return runner.Outcome{Name: name, Status: runner.Failed, Err: err},
			fmt.Errorf("marshal args for job %q: %w", name, err)
	}
	return eng.Execute(ctx, name, data)
}

// Execute dispatches a raw (name, payload) message. It is the entry point
// for transports.
func (eng *Engine) Execute(ctx context.Context, name string, payload []byte) (runner.Outcome, error) {
	return eng.executor.Execute(ctx, name, payload)
}

// Run executes call under its lock without policy classification or
// extension events.
func (eng *Engine) Run(ctx context.Context, call job.Call) (runner.Outcome, error) {
	return eng.runner.Run(ctx, call)
}

// ListActive returns the execution IDs currently in flight for owner.
func (eng *Engine) ListActive(ctx context.Context, owner registry.OwnerRef) ([]id.ID, error) {
	return eng.active.ListActive(ctx, owner)
}

// Forget drops every in-flight record for owner. Running jobs keep running
// and keep their locks.
func (eng *Engine) Forget(ctx context.Context, owner registry.OwnerRef) error {
	return eng.active.Forget(ctx, owner)
}

// InspectLock reports who holds key, or shuttle.ErrLockNotHeld.
func (eng *Engine) InspectLock(ctx context.Context, key jobkey.Key) (*lock.Lock, error) {
	return eng.store.Inspect(ctx, key)
}

// NewPool creates a worker pool that feeds deliveries from source through
// the engine's executor. Stop stops every pool created this way.
func (eng *Engine) NewPool(source worker.Source, opts ...worker.PoolOption) *worker.Pool {
	p := worker.NewPool(source, eng.executor, eng.logger, opts...)
	eng.mu.Lock()
	eng.pools = append(eng.pools, p)
	eng.mu.Unlock()
	return p
}

// Stop stops the engine's pools, waiting for in-flight jobs until ctx
// ends, then notifies Shutdown extensions.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.mu.Lock()
	pools := eng.pools
	eng.pools = nil
	eng.mu.Unlock()

	for _, p := range pools {
		if err := p.Stop(ctx); err != nil {
			eng.logger.Error("worker pool stop error", slog.String("error", err.Error()))
		}
	}

	eng.extensions.EmitShutdown(ctx)
	return nil
}

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registry returns the job registry.
func (eng *Engine) Registry() *job.Registry { return eng.jobs }

// Active returns the in-flight registry.
func (eng *Engine) Active() *registry.Registry { return eng.active }

// Runner returns the runner.
func (eng *Engine) Runner() *runner.Runner { return eng.runner }

// Store returns the store the engine was built on.
func (eng *Engine) Store() store.Store { return eng.store }

// Executor returns the executor transports dispatch through.
func (eng *Engine) Executor() *worker.Executor { return eng.executor }
