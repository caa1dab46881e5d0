package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownFunc is a function to call during shutdown
type ShutdownFunc func(context.Context) error

// ShutdownManager handles graceful shutdown of the server and its stores
type ShutdownManager struct {
	log             *logrus.Logger
	server          *http.Server
	shutdownTimeout time.Duration

	mu    sync.Mutex
	funcs []namedShutdown
}

type namedShutdown struct {
	name string
	fn   ShutdownFunc
}

// NewShutdownManager creates a shutdown manager. A zero timeout means 30s.
func NewShutdownManager(log *logrus.Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{log: log, server: server, shutdownTimeout: timeout}
}

// Register adds a named function to run after the server stops
func (sm *ShutdownManager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, namedShutdown{name: name, fn: fn})
}

// WaitForShutdown blocks until SIGINT, SIGTERM or ctx is done, then shuts down
func (sm *ShutdownManager) WaitForShutdown(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	sm.log.Info("Starting graceful shutdown")
	return sm.Shutdown(context.Background())
}

// Shutdown stops the server, then runs every registered function
// concurrently within the shutdown timeout
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sm.shutdownTimeout)
	defer cancel()

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.log.WithError(err).Error("HTTP server shutdown error")
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		sm.log.Info("HTTP server shutdown complete")
	}

	sm.mu.Lock()
	funcs := append([]namedShutdown(nil), sm.funcs...)
	sm.mu.Unlock()

	errs := make([]error, len(funcs))
	var wg sync.WaitGroup
	for i, f := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.fn(ctx); err != nil {
				sm.log.WithError(err).WithField("component", f.name).Error("Shutdown function failed")
				errs[i] = fmt.Errorf("%s: %w", f.name, err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sm.log.Warn("Shutdown timeout reached, forcing shutdown")
		return fmt.Errorf("shutdown timeout reached: %w", ctx.Err())
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	sm.log.Info("Graceful shutdown complete")
	return nil
}
