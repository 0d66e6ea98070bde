// Package audithook is a shuttle extension that turns dispatch lifecycle
// events into audit records, so an operator can later answer why a job did
// not run: it was skipped as a duplicate, ignored because its resource was
// no longer ready, or failed.
//
// Records go through the [Recorder] interface; the application bridges it
// to whatever audit backend it keeps.
//
//	eng, _ := engine.New(s, engine.WithExtension(
//	    audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	        return auditLog.Append(ctx, evt)
//	    })),
//	))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionJobSkipped,
//	        audithook.ActionJobIgnored,
//	        audithook.ActionJobFailed,
//	    ),
//	)
package audithook
