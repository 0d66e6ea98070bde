// Package observability provides an OpenTelemetry metrics extension that
// counts dispatch outcomes. It sees every dispatch, including skipped and
// failed-before-admission ones that never reach the middleware chain.
//
// For per-execution tracing and timing, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
