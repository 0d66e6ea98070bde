// Command shuttle is the operator CLI for a shuttle deployment. It computes
// job keys, inspects and force-releases locks, lists and forgets in-flight
// executions, and resolves manifest cache paths, all against the Redis
// store configured by SHUTTLE_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{out: os.Stdout, errOut: os.Stderr}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
