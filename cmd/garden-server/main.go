// Command garden-server runs the gene garden headless with websocket telemetry and persistence
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file overlaid on the embedded defaults")
	flag.StringVar(&opts.storeKind, "store", "", "storage backend override: memory or sqlite")
	flag.StringVar(&opts.dbPath, "db", "", "sqlite database path override")
	flag.StringVar(&opts.addr, "addr", "", "telemetry listen address override, \"-\" disables it")
	flag.Int64Var(&opts.seed, "seed", 0, "world seed override, 0 keeps the configured seed")
	flag.IntVar(&opts.ticks, "ticks", 0, "run this many ticks as fast as possible and exit, 0 runs in real time")
	flag.StringVar(&opts.load, "load", "", "snapshot id to restore before starting")
	flag.StringVar(&opts.save, "save", "", "snapshot id to write on shutdown")
	templates := flag.String("templates", "", "comma separated template names to plant, all when empty")
	level := flag.String("log-level", "", "log level override")
	flag.Parse()

	if *templates != "" {
		opts.templates = strings.Split(*templates, ",")
	}
	opts.logLevel = *level

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		slog.Error("garden server failed", "error", err)
		fmt.Fprintf(os.Stderr, "garden-server: %v\n", err)
		os.Exit(1)
	}
}
