// Package job defines typed job definitions and the registry that turns a
// transport payload back into a runnable [Call].
//
// # Defining a Job
//
// Arguments implement [Args]. KeyArgs lists, in order, the values that make
// two dispatches the same logical job:
//
//	type ResizeArgs struct {
//	    ImageID int64  `json:"image_id"`
//	    Size    string `json:"size"`
//	}
//
//	func (a ResizeArgs) KeyArgs() []any { return []any{a.ImageID, a.Size} }
//
//	var Resize = job.NewDefinition("image.resize",
//	    func(ctx context.Context, a ResizeArgs) error { return resize(ctx, a) },
//	    job.WithQueue("low"),
//	)
//
// Arguments that also implement [Owned] have their executions recorded
// against the returned owner while they run.
//
// # Registry
//
// [Registry] maps job names to [Builder] values. Register definitions at
// startup via [RegisterDefinition]; the engine package wraps this as
// engine.Register.
package job
