// Package middleware provides composable middleware for admitted job work.
//
// A [Middleware] wraps the work of one execution. It runs only after the
// runner holds the job's lock, so skipped dispatches never reach it.
// Middleware are composed with [Chain]; the first in the slice is the
// outermost wrapper.
//
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs start, duration, and outcome
//   - [Recover] turns panics into errors wrapping shuttle.ErrPanic
//   - [Timeout] bounds the work with the job's configured timeout
//   - [Tracing] wraps the work in an OpenTelemetry span
//   - [Metrics] records duration and outcome counters
package middleware
