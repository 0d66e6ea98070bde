// Package store defines the aggregate persistence interface.
//
// The lock subsystem (per-key job locks) and the registry subsystem
// (in-flight executions by owner) each define a store interface. The
// composite [Store] embeds both, so one backend serves the runner.
//
// # Available Backends
//
//   - store/memory: in-process store for tests and single-process workers
//   - store/redis: Redis backend shared by every worker in a deployment
//
// # Usage
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := engine.New(s)
//
// Only the memory backend can linearize acquisition inside one process; every
// process sharing locks must point at the same Redis.
package store
