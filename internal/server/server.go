// Package server runs the HTTP API and the gRPC health endpoint and shuts
// both down when the process is signalled.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health wraps a gRPC health server and the listener it serves on.
type Health struct {
	grpc     *grpc.Server
	status   *health.Server
	listener net.Listener
}

// NewHealth creates a health server that reports NOT_SERVING until MarkServing is called.
func NewHealth(listener net.Listener) *Health {
	status := health.NewServer()
	status.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, status)

	return &Health{grpc: srv, status: status, listener: listener}
}

// MarkServing flips the overall status to SERVING.
func (h *Health) MarkServing() {
	h.status.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// Serve blocks serving health checks until Stop is called.
func (h *Health) Serve() error {
	err := h.grpc.Serve(h.listener)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop marks the service NOT_SERVING and drains in-flight checks.
func (h *Health) Stop() {
	h.status.Shutdown()
	h.grpc.GracefulStop()
}

// Options controls Serve.
type Options struct {
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
	// Listener is used instead of server.Addr when set.
	Listener net.Listener
	// Signals replaces SIGINT/SIGTERM notification when set.
	Signals <-chan os.Signal
	// Health is stopped alongside the HTTP server when set.
	Health *Health
}

// Serve runs server until it fails or a shutdown signal arrives, then shuts
// it down gracefully within opts.ShutdownTimeout.
func Serve(server *http.Server, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if opts.Listener != nil {
			err = server.Serve(opts.Listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	healthErr := make(chan error, 1)
	if opts.Health != nil {
		go func() { healthErr <- opts.Health.Serve() }()
	}

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if opts.Signals != nil {
		sigCh = opts.Signals
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	stopHealth := func() {
		if opts.Health != nil {
			opts.Health.Stop()
			if err := <-healthErr; err != nil {
				logger.Warn("health server exited with error", zap.Error(err))
			}
		}
	}

	select {
	case err := <-errCh:
		stopHealth()
		return err
	case err := <-healthErr:
		// Restore the value for stopHealth.
		healthErr <- err
		logger.Error("health server stopped unexpectedly", zap.Error(err))
		return shutdown(server, opts.ShutdownTimeout, errCh, stopHealth)
	case sig, ok := <-sigCh:
		if !ok {
			err := <-errCh
			stopHealth()
			return err
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		return shutdown(server, opts.ShutdownTimeout, errCh, stopHealth)
	}
}

func shutdown(server *http.Server, timeout time.Duration, errCh <-chan error, stopHealth func()) error {
	defer stopHealth()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-errCh
}
