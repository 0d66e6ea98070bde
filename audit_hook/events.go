package audithook

// Audit event actions, one per lifecycle hook.
const (
	ActionJobStarted  = "job.started"
	ActionJobExecuted = "job.executed"
	ActionJobSkipped  = "job.skipped"
	ActionJobFailed   = "job.failed"
	ActionJobIgnored  = "job.ignored"
)

// CategoryJob groups every action this extension emits.
const CategoryJob = "shuttle.job"

// Resource types used as the Resource field.
const (
	// ResourceExecution is used when the dispatch was admitted and has an
	// execution id.
	ResourceExecution = "execution"
	// ResourceJobKey is used for dispatches that never acquired the lock.
	ResourceJobKey = "job_key"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobStarted,
		ActionJobExecuted,
		ActionJobSkipped,
		ActionJobFailed,
		ActionJobIgnored,
	}
}
