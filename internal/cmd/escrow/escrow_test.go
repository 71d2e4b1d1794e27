package escrow

import (
	"flag"
	"io"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("escrow", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCAddr != ":8090" || cfg.HTTPAddr != ":8080" {
		t.Fatalf("addrs = %q/%q, want :8090/:8080", cfg.GRPCAddr, cfg.HTTPAddr)
	}
	if cfg.Server.StoreKind != "sqlite" {
		t.Fatalf("store = %q, want sqlite", cfg.Server.StoreKind)
	}
	if cfg.Server.EventStream != "gigmate:escrow:events" {
		t.Fatalf("event stream = %q", cfg.Server.EventStream)
	}
	if cfg.Server.HTTPRateLimit != "60-M" {
		t.Fatalf("rate limit = %q, want 60-M", cfg.Server.HTTPRateLimit)
	}
	if cfg.Server.SMTP.Port != 587 {
		t.Fatalf("smtp port = %d, want 587", cfg.Server.SMTP.Port)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GIGMATE_ESCROW_GRPC_ADDR", "127.0.0.1:9001")
	t.Setenv("GIGMATE_ESCROW_STORE", "postgres")
	t.Setenv("GIGMATE_ESCROW_POSTGRES_DSN", "postgres://escrow@localhost/escrow")
	t.Setenv("GIGMATE_SMTP_HOST", "smtp.example.test")

	fs := flag.NewFlagSet("escrow", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-grpc-addr", "127.0.0.1:9100", "-log-level", "debug"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GRPCAddr != "127.0.0.1:9100" {
		t.Fatalf("grpc addr = %q, want flag value", cfg.GRPCAddr)
	}
	if cfg.Server.StoreKind != "postgres" || cfg.Server.PostgresDSN == "" {
		t.Fatalf("store = %q dsn %q, want postgres from env", cfg.Server.StoreKind, cfg.Server.PostgresDSN)
	}
	if !cfg.Server.SMTP.Enabled() {
		t.Fatal("expected SMTP enabled from env")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.Log.Level)
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("escrow", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}
