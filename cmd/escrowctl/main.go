// Package main runs escrow operator commands against a running service.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigmate/gigmate/internal/cmd/escrowctl"
	"github.com/gigmate/gigmate/internal/platform/config"
	"github.com/gigmate/gigmate/internal/platform/logging"
)

func main() {
	cfg, err := escrowctl.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.UsageExitf("%v", err)
	}
	logger, closer, err := logging.New("escrowctl", logging.Config{Level: "warn"})
	if err != nil {
		config.Exitf("configure logging: %v", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := escrowctl.Run(ctx, cfg, os.Stdout, logger); err != nil {
		stop()
		_ = closer.Close()
		if errors.Is(err, escrowctl.ErrUsage) {
			config.UsageExitf("%v", err)
		}
		config.Exitf("escrowctl: %v", err)
	}
}
