// Package main starts the escrow ledger service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	escrowcmd "github.com/gigmate/gigmate/internal/cmd/escrow"
	entrypoint "github.com/gigmate/gigmate/internal/platform/cmd"
	"github.com/gigmate/gigmate/internal/platform/config"
	"github.com/gigmate/gigmate/internal/platform/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		config.Exitf("load .env: %v", err)
	}
	cfg, err := escrowcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.UsageExitf("parse flags: %v", err)
	}
	logger, closer, err := logging.New(entrypoint.ServiceEscrow, cfg.Log)
	if err != nil {
		config.Exitf("configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = escrowcmd.Run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.WithError(err).Error("escrow server stopped")
	}
	_ = closer.Close()
	if err != nil {
		os.Exit(1)
	}
}
