package job

import "context"

type executionKey struct{}

// NewContext returns a copy of ctx carrying e.
func NewContext(ctx context.Context, e *Execution) context.Context {
	return context.WithValue(ctx, executionKey{}, e)
}

// FromContext returns the Execution the runner admitted, if any. Work
// functions use it to learn their own execution ID.
func FromContext(ctx context.Context) (*Execution, bool) {
	e, ok := ctx.Value(executionKey{}).(*Execution)
	return e, ok && e != nil
}
