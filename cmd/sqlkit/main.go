// Package main is the entry point for the sqlkit CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Konsultn-Engineering/sqlkit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
