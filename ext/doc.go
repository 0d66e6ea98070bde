// Package ext defines the extension system for shuttle.
//
// Extensions are notified of dispatch outcomes and can react to them by
// recording metrics, writing audit logs, or paging someone. Each lifecycle
// hook is a separate interface so extensions opt in only to the events they
// care about.
//
// # Implementing an Extension
//
//	type SlowJobs struct{ threshold time.Duration }
//
//	func (s *SlowJobs) Name() string { return "slow-jobs" }
//
//	func (s *SlowJobs) OnJobExecuted(ctx context.Context, o runner.Outcome) error {
//	    if o.Elapsed > s.threshold {
//	        log.Printf("%s took %s", o.Key, o.Elapsed)
//	    }
//	    return nil
//	}
//
// # Hooks
//
//   - [JobStarted]: the lock was acquired and the work is about to run
//   - [JobExecuted]: the work returned nil
//   - [JobSkipped]: another execution held the lock
//   - [JobFailed]: a fatal failure is being returned to the transport
//   - [JobIgnored]: a failure was classified as ignorable
//   - [Shutdown]: the engine is stopping
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
