package middleware

import (
	"errors"

	"github.com/dai/shuttle"
)

// Option configures the observing middleware (Tracing, Metrics, Logging).
type Option func(*options)

type options struct {
	ignorable func(error) bool
}

// WithIgnorable sets the test for failures the dispatcher will swallow.
// Such failures are reported as ignored rather than as errors. Pass the
// engine's policy.Policy.Ignorable so both agree. The default matches only
// shuttle.ErrNotReady.
func WithIgnorable(fn func(error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.ignorable = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ignorable: func(err error) bool { return errors.Is(err, shuttle.ErrNotReady) }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// result names how admitted work ended: "ok", "ignored" or "error".
func (o options) result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case o.ignorable(err):
		return "ignored"
	default:
		return "error"
	}
}
