package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/taekwondodev/go-account-service/internal/logging"
)

type Server struct {
	*http.Server
	shutdownTimeout time.Duration
	log             logging.Logger
}

func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration, log logging.Logger) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}
}

// Run listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(ctx, "HTTP server listening", "addr", lis.Addr().String())
		serverErrors <- s.Server.Serve(lis)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.log.Info(ctx, "starting HTTP graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			s.log.Warn(ctx, "could not gracefully shutdown HTTP server", "error", err)
			if err := s.Close(); err != nil {
				return fmt.Errorf("close HTTP server: %w", err)
			}
		}
		s.log.Info(ctx, "HTTP server stopped")
		return nil
	}
}
