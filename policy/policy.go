// Package policy decides whether a job failure is worth reporting.
//
// A failure is Ignorable when the resource the job needed left the required
// state between dispatch and execution; the job is then a no-op rather than
// an error. Everything else is Fatal and goes back to the transport.
package policy

import (
	"errors"

	"github.com/dai/shuttle"
)

// Class is the outcome of classifying an error.
type Class int

const (
	// Fatal errors are surfaced to the dispatcher's caller.
	Fatal Class = iota
	// Ignorable errors are logged and swallowed.
	Ignorable
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case Ignorable:
		return "ignorable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Policy classifies errors against a fixed set of ignorable conditions.
type Policy struct {
	ignorable []error
}

// Default returns the policy whose only ignorable condition is
// shuttle.ErrNotReady.
func Default() *Policy { return New() }

// New returns a policy that ignores shuttle.ErrNotReady plus extra.
func New(extra ...error) *Policy {
	p := &Policy{ignorable: []error{shuttle.ErrNotReady}}
	for _, e := range extra {
		if e != nil {
			p.ignorable = append(p.ignorable, e)
		}
	}
	return p
}

// Classify reports how err should be treated. A nil error is Fatal by
// convention; callers only classify failures.
func (p *Policy) Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	for _, target := range p.ignorable {
		if errors.Is(err, target) {
			return Ignorable
		}
	}
	return Fatal
}

// Ignorable reports whether err is classified Ignorable.
func (p *Policy) Ignorable(err error) bool { return p.Classify(err) == Ignorable }
