// server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dalemusser/cachebuster/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// WithShutdownSignals returns a context that is canceled when the process
// receives SIGINT or SIGTERM. The returned cancel function also stops signal
// delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext starts an HTTP server on cfg.HTTP.HTTPPort and
// blocks until ctx is canceled or the server fails. TLS is expected to be
// terminated in front of this process.
func ListenAndServeWithContext(ctx context.Context, cfg *config.CoreConfig, handler http.Handler, logger *zap.Logger) error {
	if cfg == nil {
		return fmt.Errorf("ListenAndServeWithContext: cfg is nil")
	}
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.HTTP.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen http :%d: %w", cfg.HTTP.HTTPPort, err)
	}
	return Serve(ctx, ln, cfg.HTTP, handler, logger)
}

// Serve runs an HTTP server on ln until ctx is canceled, then shuts it down
// gracefully within cfg.ShutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) error {
	if handler == nil {
		_ = ln.Close()
		return fmt.Errorf("Serve: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	// Route stdlib error logs into zap at Warn level.
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
		logger.Info("shutting down server…")
		// ctx is already done; the shutdown window is independent of it.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil

	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
