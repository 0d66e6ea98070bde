package shuttle

import "errors"

var (
	// Store errors.
	ErrNoStore              = errors.New("shuttle: no store configured")
	ErrLockStoreUnavailable = errors.New("shuttle: lock store unavailable")
	ErrStoreClosed          = errors.New("shuttle: store closed")

	// Lock errors.
	ErrLockNotHeld = errors.New("shuttle: lock not held")

	// Dispatch errors.
	ErrEncoding     = errors.New("shuttle: unsupported job argument")
	ErrUnknownJob   = errors.New("shuttle: unknown job")
	ErrInvalidOwner = errors.New("shuttle: invalid owner reference")
	ErrPanic        = errors.New("shuttle: job panicked")

	// ErrNotReady marks a resource that left the state a job requires between
	// dispatch and execution. It is the only condition the default policy
	// treats as ignorable.
	ErrNotReady = errors.New("shuttle: resource not ready")

	// Cache errors.
	ErrNotRegularFile = errors.New("shuttle: cache path is not a regular file")
)
