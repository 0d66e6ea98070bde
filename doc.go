// Package shuttle runs background jobs derived from repository-import and
// artifact-generation events.
//
// Two mechanisms carry the weight. A per-key job lock collapses duplicate
// dispatches of the same logical job into one active execution, and an
// atomic cache writer materializes generated artifacts without ever exposing
// a partially written file.
//
// # Quick Start
//
//	eng, err := engine.New(memory.New(), engine.WithLogger(logger))
//	if err != nil { ... }
//	importer := jobs.NewBlobImporter(projects, commits, logger)
//	engine.Register(eng, importer.Definition())
//
//	out, err := eng.Execute(ctx, jobs.BlobImportName, payload)
//
// # Architecture
//
// The runner derives a key from the job name and its ordered arguments
// (package jobkey), acquires it in a lock.Store, records the execution in the
// active-job registry under the owning entity, runs the work through
// middleware, then unregisters and releases on every exit path. The worker
// Executor sits above the runner and turns the one expected race, a resource
// that is no longer ready, into a silent no-op (package policy).
//
// Execution identifiers are prefixed, K-sortable UUIDv7 values (package id).
package shuttle
