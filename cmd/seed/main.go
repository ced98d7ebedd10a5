// Package main loads demo collaboration data into a local database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	entrypoint "github.com/louisbranch/crosspromo/internal/platform/cmd"
	"github.com/louisbranch/crosspromo/internal/platform/config"
	"github.com/louisbranch/crosspromo/internal/tools/seed"
)

func main() {
	cfg, err := seed.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	entrypoint.ConfigureLogging(entrypoint.ServiceSeed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seed.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
