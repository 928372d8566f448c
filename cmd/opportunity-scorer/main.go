// Command opportunity-scorer scores the records of an AI use-case inventory
// CSV with a language model and keeps one JSON result per record. Re-runs only
// score records missing from the processed ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", app, err)
		stop()
		os.Exit(1)
	}
}
