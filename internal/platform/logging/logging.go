// Package logging builds the structured process logger shared by services.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format names accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config controls logger construction.
type Config struct {
	Level  string `env:"GIGMATE_LOG_LEVEL" envDefault:"info"`
	Format string `env:"GIGMATE_LOG_FORMAT" envDefault:"text"`
	// File enables size-based rotation into the named file in addition to stderr.
	File       string `env:"GIGMATE_LOG_FILE"`
	MaxSizeMB  int    `env:"GIGMATE_LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"GIGMATE_LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"GIGMATE_LOG_MAX_AGE_DAYS" envDefault:"28"`
}

// New returns a logger tagged with the service name.
func New(service string, cfg Config) (*logrus.Entry, io.Closer, error) {
	return newWithOutput(service, cfg, os.Stderr)
}

func newWithOutput(service string, cfg Config, stderr io.Writer) (*logrus.Entry, io.Closer, error) {
	logger := logrus.New()

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(parsed)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("log format %q is not supported", cfg.Format)
	}

	closer := io.Closer(nopCloser{})
	if file := strings.TrimSpace(cfg.File); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(stderr, rotator))
		closer = rotator
	} else {
		logger.SetOutput(stderr)
	}

	entry := logger.WithField("service", strings.TrimSpace(service))
	return entry, closer, nil
}

// Discard returns a logger that drops every entry. Tests and optional
// collaborators use it in place of a nil logger.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
