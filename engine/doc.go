// Package engine wires the shuttle subsystems together and provides the
// application-level API for registering and dispatching jobs.
//
// # Building an Engine
//
//	eng, err := engine.New(redisstore.New(client),
//	    engine.WithLogger(logger),
//	    engine.WithLockTTL(30*time.Minute),
//	    engine.WithExtension(myExtension),
//	)
//
// # Registering Work
//
//	engine.Register(eng, jobs.NewBlobImport(importer))
//	engine.Register(eng, jobs.NewManifestPrecompile(precompiler))
//
// # Dispatching
//
// Transports call [Engine.Execute] with the job name and JSON payload, or
// hand a worker.Source to [Engine.NewPool]. In-process callers use the
// typed [Dispatch]:
//
//	out, err := engine.Dispatch(ctx, eng, jobs.BlobImportName, args)
//
// A nil error means the message is done: it ran, was skipped because the
// same job was already running, or failed in a way the policy ignores.
package engine
