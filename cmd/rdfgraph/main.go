// Package main is the entry point for the rdfgraph CLI.
//
// Usage:
//
//	rdfgraph [--db path] [--config file.cue] [--format text|json] <command>
//
// Commands:
//
//	load  - Import a YAML fixture in one transaction
//	dump  - Print committed quads as N-Quads
//	show  - Print a vertex with its properties and edges
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/rdfgraph/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
