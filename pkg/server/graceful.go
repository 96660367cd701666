// Package server wraps an HTTP server with graceful shutdown.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shikhar1809/vajra-core/pkg/logging"
)

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownCh      chan struct{}
	shutdownOnce    sync.Once
	shutdownTimeout time.Duration
}

// Option configures the server
type Option func(*GracefulServer)

// WithShutdownTimeout sets how long in-flight requests get to finish
// when a shutdown signal arrives
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(gs *GracefulServer) { gs.shutdownTimeout = timeout }
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger, opts ...Option) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	gs := &GracefulServer{
		server: &http.Server{
			Addr:           addr,
			Handler:        handler,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		logger:          logger,
		shutdownCh:      make(chan struct{}),
		shutdownTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// Start starts the server and handles graceful shutdown signals
func (gs *GracefulServer) Start() error {
	go gs.handleSignals()

	gs.logger.Info("starting HTTP server", logging.String("addr", gs.server.Addr))
	if err := gs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown initiates a graceful shutdown
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if shutdownErr := gs.server.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
			gs.logger.Error("error during shutdown", logging.Error(shutdownErr))
		} else {
			gs.logger.Info("server shutdown complete")
		}
	})
	return err
}

// Done returns a channel closed when shutdown begins
func (gs *GracefulServer) Done() <-chan struct{} {
	return gs.shutdownCh
}

// handleSignals listens for OS signals and triggers graceful shutdown
func (gs *GracefulServer) handleSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		gs.logger.Info("received signal", logging.String("signal", sig.String()))
		gs.Shutdown(gs.shutdownTimeout)
	case <-gs.shutdownCh:
	}
}
