// Package escrow parses escrow service flags and launches the service.
package escrow

import (
	"context"
	"flag"

	entrypoint "github.com/gigmate/gigmate/internal/platform/cmd"
	"github.com/gigmate/gigmate/internal/platform/logging"
	server "github.com/gigmate/gigmate/internal/services/escrow/app"
	"github.com/sirupsen/logrus"
)

// Config holds escrow command configuration.
type Config struct {
	GRPCAddr string `env:"GIGMATE_ESCROW_GRPC_ADDR" envDefault:":8090"`
	HTTPAddr string `env:"GIGMATE_ESCROW_HTTP_ADDR" envDefault:":8080"`
	Server   server.Config
	Log      logging.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The escrow gRPC listen address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The escrow HTTP gateway listen address")
	fs.StringVar(&cfg.Server.StoreKind, "store", cfg.Server.StoreKind, "Booking store: sqlite or postgres")
	fs.StringVar(&cfg.Server.DBPath, "db-path", cfg.Server.DBPath, "SQLite database path")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the escrow gRPC API and HTTP gateway.
func Run(ctx context.Context, cfg Config, logger logrus.FieldLogger) error {
	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceEscrow, options, func(ctx context.Context) error {
		return server.Run(ctx, server.Options{
			GRPCAddr: cfg.GRPCAddr,
			HTTPAddr: cfg.HTTPAddr,
			Config:   cfg.Server,
			Logger:   logger,
		})
	})
}
