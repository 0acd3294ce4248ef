// Command crawler is the single entry point for every process role: the
// query API, the queue worker, the scheduler and the one-shot pipeline tasks.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jobradar/crawler/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.ExecuteContext(ctx)
}
