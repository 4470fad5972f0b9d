package config

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/taekwondodev/go-account-service/internal/interceptors"
	"github.com/taekwondodev/go-account-service/internal/logging"
)

type GRPCServer struct {
	Server          *grpc.Server
	Health          *health.Server
	config          GRPCConfig
	shutdownTimeout time.Duration
	log             logging.Logger
}

// NewGRPCServer builds the server with logging and error mapping outermost;
// extra interceptors run after them, closest to the handler.
func NewGRPCServer(cfg GRPCConfig, shutdownTimeout time.Duration, log logging.Logger, extra ...grpc.UnaryServerInterceptor) (*GRPCServer, error) {
	chain := append([]grpc.UnaryServerInterceptor{
		interceptors.LoggingInterceptor(log),
		interceptors.ErrorInterceptor,
	}, extra...)

	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(chain...),
	}

	if cfg.TLSEnabled() {
		creds, err := loadTLSCredentials(cfg)
		if err != nil {
			return nil, fmt.Errorf("load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	server := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	return &GRPCServer{
		Server:          server,
		Health:          healthServer,
		config:          cfg,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}, nil
}

// ListenAndServe listens on the configured address and blocks until ctx is
// cancelled or the server fails.
func (s *GRPCServer) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, lis)
}

func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "gRPC server listening", "addr", lis.Addr().String())
		s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		serverErrors <- s.Server.Serve(lis)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.GracefulShutdown(context.WithoutCancel(ctx))
		return nil
	}
}

func (s *GRPCServer) GracefulShutdown(ctx context.Context) {
	s.log.Info(ctx, "starting gRPC graceful shutdown")
	s.Health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.Server.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(s.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.log.Warn(ctx, "timeout reached, forcing gRPC shutdown")
		s.Server.Stop()
	case <-stopped:
		s.log.Info(ctx, "gRPC server stopped gracefully")
	}
}

// loadTLSCredentials enables server TLS; a CA file additionally turns on
// client certificate verification.
func loadTLSCredentials(cfg GRPCConfig) (credentials.TransportCredentials, error) {
	serverCert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		MinVersion:   tls.VersionTLS13,
	}

	if cfg.CACertFile != "" {
		caCert, err := os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, err
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACertFile)
		}
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
		tlsConfig.ClientCAs = certPool
	}

	return credentials.NewTLS(tlsConfig), nil
}
