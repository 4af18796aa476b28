// Package main is the entry point for textnonce-cli.
//
// textnonce-cli generates nonces locally or fetches them from a running
// textnonce-server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yndnr/textnonce-go/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		command.PrintError("%v", err)
		stop()
		os.Exit(1)
	}
}
