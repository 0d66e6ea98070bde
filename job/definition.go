package job

import "context"

// Definition is a typed job definition with a handler function.
// T is the argument type; it must be JSON-serializable.
type Definition[T Args] struct {
	// Name is the unique identifier for this job type. It prefixes every
	// lock key the job produces.
	Name string

	// Handler performs the work once the lock is held.
	Handler func(ctx context.Context, args T) error

	// Opts configures queue, timeout, and the already-running policy.
	Opts Options
}

// NewDefinition creates a typed job definition.
func NewDefinition[T Args](name string, handler func(ctx context.Context, args T) error, opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// Call binds args to the definition.
func (d *Definition[T]) Call(args T) Call {
	c := Call{
		Name:        d.Name,
		Queue:       d.Opts.Queue,
		Args:        args.KeyArgs(),
		WhenRunning: d.Opts.WhenRunning,
		Timeout:     d.Opts.Timeout,
		Work: func(ctx context.Context) error {
			return d.Handler(ctx, args)
		},
	}
	if o, ok := any(args).(Owned); ok {
		if owner, has := o.Owner(); has {
			c.Owner = &owner
		}
	}
	return c
}
