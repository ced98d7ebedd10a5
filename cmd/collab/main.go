package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	collabcmd "github.com/louisbranch/crosspromo/internal/cmd/collab"
	entrypoint "github.com/louisbranch/crosspromo/internal/platform/cmd"
)

func main() {
	cfg, err := collabcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	entrypoint.ConfigureLogging(entrypoint.ServiceCollab)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := collabcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
