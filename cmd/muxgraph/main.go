// Command muxgraph resolves ffmpeg command lines into a stream graph and
// runs them.
//
// It parses persistent flags and the config file, then dispatches to the
// resolve, run, options and check subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Cancel on SIGINT/SIGTERM so a running ffmpeg is stopped and its
	// partial output removed.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := (&app{}).execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "muxgraph: %v\n", err)
		return 1
	}
	return 0
}
