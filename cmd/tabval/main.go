// Command tabval validates CSV sources against a schema and writes the
// coerced records as JSON Lines.
//
// Usage:
//
//	tabval [-schema schema.yaml] [-o out.jsonl] [-comma ;] [source ...]
//
// Sources are paths, globs, file:// URLs or s3://bucket/key specs. Flags
// and positional arguments override the TABVAL_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/carlodf/tabval/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		fatalf("%v", err)
	}
	if err := cfg.applyFlags(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		fatalf("%v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "tabval: "+format+"\n", a...)
	os.Exit(1)
}
