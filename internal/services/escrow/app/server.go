// Package server wires the escrow ledger runtime with its gRPC and HTTP
// lifecycles.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	"github.com/gigmate/gigmate/internal/platform/logging"
	"github.com/gigmate/gigmate/internal/platform/timeouts"
	"github.com/gigmate/gigmate/internal/services/escrow/api/gateway"
	escrowservice "github.com/gigmate/gigmate/internal/services/escrow/api/grpc/escrow"
	"github.com/gigmate/gigmate/internal/services/escrow/ledger"
	"github.com/gigmate/gigmate/internal/services/escrow/notify"
	"github.com/gigmate/gigmate/internal/services/escrow/storage"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/postgres"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Store kinds accepted by Config.StoreKind.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config selects the backing store and the optional collaborators.
type Config struct {
	StoreKind         string `env:"GIGMATE_ESCROW_STORE" envDefault:"sqlite"`
	DBPath            string `env:"GIGMATE_ESCROW_DB_PATH"`
	PostgresDSN       string `env:"GIGMATE_ESCROW_POSTGRES_DSN"`
	RedisURL          string `env:"GIGMATE_ESCROW_REDIS_URL"`
	EventStream       string `env:"GIGMATE_ESCROW_EVENT_STREAM" envDefault:"gigmate:escrow:events"`
	EventStreamMaxLen int64  `env:"GIGMATE_ESCROW_EVENT_STREAM_MAXLEN" envDefault:"100000"`
	HTTPRateLimit     string `env:"GIGMATE_ESCROW_HTTP_RATE_LIMIT" envDefault:"60-M"`
	SMTP              notify.SMTPConfig
}

// Options configures a Server.
type Options struct {
	GRPCAddr string
	HTTPAddr string
	Config   Config
	Logger   logrus.FieldLogger
}

// Server hosts the escrow gRPC API, the HTTP gateway and storage lifecycle.
type Server struct {
	logger       logrus.FieldLogger
	grpcListener net.Listener
	httpListener net.Listener
	grpcServer   *grpc.Server
	httpServer   *http.Server
	health       *health.Server
	store        storage.BookingStore
	redis        *redis.Client
}

// New opens the store and collaborators and binds both listeners.
func New(ctx context.Context, opts Options) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{logger: logger}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	openCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOpen)
	defer cancel()

	store, err := openStore(openCtx, opts.Config)
	if err != nil {
		return nil, err
	}
	s.store = store

	notifier, err := s.openNotifier(openCtx, opts.Config)
	if err != nil {
		return nil, err
	}

	l := ledger.New(store, ledger.WithNotifier(notifier), ledger.WithLogger(logger))
	service := escrowservice.NewService(l)

	s.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(requestTimeout(timeouts.GRPCRequest)),
	)
	s.health = health.NewServer()
	escrowv1.RegisterBookingEscrowServiceServer(s.grpcServer, service)
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(escrowv1.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	gin.SetMode(gin.ReleaseMode)
	router, err := gateway.NewRouter(service, gateway.Config{
		RateLimit: opts.Config.HTTPRateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	if s.grpcListener, err = net.Listen("tcp", opts.GRPCAddr); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.GRPCAddr, err)
	}
	if s.httpListener, err = net.Listen("tcp", opts.HTTPAddr); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.HTTPAddr, err)
	}

	ok = true
	return s, nil
}

// GRPCAddr returns the gRPC listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves an escrow server until context cancellation.
func Run(ctx context.Context, opts Options) error {
	server, err := New(ctx, opts)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both listeners until context cancellation or the first
// listener failure, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.WithFields(logrus.Fields{
		"grpc_addr": s.GRPCAddr(),
		"http_addr": s.HTTPAddr(),
	}).Info("escrow server listening")

	grpcErr := make(chan error, 1)
	httpErr := make(chan error, 1)
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-grpcErr:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr = fmt.Errorf("serve gRPC: %w", err)
		}
		grpcErr = nil
	case err := <-httpErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve HTTP: %w", err)
		}
		httpErr = nil
	}

	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Warn("shutdown HTTP server")
	}
	stopGracefully(shutdownCtx, s.grpcServer)

	if grpcErr != nil {
		if err := <-grpcErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) && serveErr == nil {
			serveErr = fmt.Errorf("serve gRPC: %w", err)
		}
	}
	if httpErr != nil {
		if err := <-httpErr; err != nil && !errors.Is(err, http.ErrServerClosed) && serveErr == nil {
			serveErr = fmt.Errorf("serve HTTP: %w", err)
		}
	}
	return serveErr
}

// Close releases escrow server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.WithError(err).Warn("close redis client")
		}
		s.redis = nil
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.WithError(err).Warn("close escrow store")
		}
		s.store = nil
	}
}

func (s *Server) openNotifier(ctx context.Context, cfg Config) (notify.Notifier, error) {
	var fanout notify.Fanout
	if url := strings.TrimSpace(cfg.RedisURL); url != "" {
		client, err := notify.OpenRedis(ctx, url)
		if err != nil {
			return nil, err
		}
		s.redis = client
		fanout = append(fanout, notify.NewRedisPublisher(client, cfg.EventStream, cfg.EventStreamMaxLen))
	}
	if cfg.SMTP.Enabled() {
		fanout = append(fanout, notify.NewSMTPMailer(cfg.SMTP))
	}
	if len(fanout) == 0 {
		return notify.Noop{}, nil
	}
	return fanout, nil
}

func openStore(ctx context.Context, cfg Config) (storage.BookingStore, error) {
	switch kind := strings.ToLower(strings.TrimSpace(cfg.StoreKind)); kind {
	case "", StoreSQLite:
		path := strings.TrimSpace(cfg.DBPath)
		if path == "" {
			path = filepath.Join("data", "escrow.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open escrow sqlite store: %w", err)
		}
		return store, nil
	case StorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("GIGMATE_ESCROW_POSTGRES_DSN is required for the postgres store")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open escrow postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("escrow store %q is not supported", cfg.StoreKind)
	}
}

func requestTimeout(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

// stopGracefully falls back to a hard stop when draining outlives ctx.
func stopGracefully(ctx context.Context, server *grpc.Server) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		server.Stop()
		<-done
	}
}
