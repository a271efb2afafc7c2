// Package server runs the simulation host's long-lived components with
// graceful shutdown on signal, error, or completion.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Run blocks until ctx is cancelled or
// the service finishes on its own.
type Service interface {
	Run(ctx context.Context) error
}

// ServiceFunc adapts a function into the Service interface.
type ServiceFunc func(ctx context.Context) error

// Run calls f.
func (f ServiceFunc) Run(ctx context.Context) error { return f(ctx) }

// Lifecycle manages the startup and shutdown of multiple services.
// Services are started in order and stopped in reverse order.
type Lifecycle struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
	signals  bool
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a new Lifecycle manager that also stops on SIGINT or SIGTERM.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger, signals: true}
}

// IgnoreSignals disables signal handling; the lifecycle then stops only on
// context cancellation or a service returning.
func (l *Lifecycle) IgnoreSignals() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.signals = false
}

// Add registers a named service for lifecycle management.
// Services are started in the order they are added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

type exit struct {
	name string
	err  error
}

// Run starts every service and blocks until a signal arrives, ctx is
// cancelled, or any service returns. A service returning nil counts as
// completion and shuts the rest down.
//
// Postcondition: every service has returned. The result is the first
// service error other than context cancellation, or nil.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	signals := l.signals
	l.mu.Unlock()

	cancels := make([]context.CancelFunc, len(services))
	dones := make([]chan struct{}, len(services))
	exits := make(chan exit, len(services))
	for i, ns := range services {
		svcCtx, cancel := context.WithCancel(ctx)
		cancels[i] = cancel
		dones[i] = make(chan struct{})
		go func(ns namedService, done chan struct{}) {
			defer close(done)
			l.logger.Info("starting service", zap.String("service", ns.name))
			svcStart := time.Now()
			err := ns.service.Run(svcCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(svcStart)),
				)
				exits <- exit{name: ns.name, err: fmt.Errorf("service %s: %w", ns.name, err)}
				return
			}
			exits <- exit{name: ns.name}
		}(ns, dones[i])
	}

	l.logger.Info("all services started",
		zap.Int("count", len(services)),
		zap.Duration("startup", time.Since(start)),
	)

	var sigCh chan os.Signal
	if signals {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	var runErr error
	if len(services) > 0 {
		select {
		case sig := <-sigCh:
			l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		case e := <-exits:
			runErr = e.err
			if e.err == nil {
				l.logger.Info("service finished, shutting down", zap.String("service", e.name))
			}
		case <-ctx.Done():
			l.logger.Info("context cancelled, shutting down")
		}
	}

	l.shutdown(services, cancels, dones)
	// Collect errors from services that failed while stopping.
	for len(exits) > 0 {
		if e := <-exits; runErr == nil && e.err != nil {
			runErr = e.err
		}
	}

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return runErr
}

func (l *Lifecycle) shutdown(services []namedService, cancels []context.CancelFunc, dones []chan struct{}) {
	shutdownStart := time.Now()
	for i := len(services) - 1; i >= 0; i-- {
		svcStart := time.Now()
		l.logger.Info("stopping service", zap.String("service", services[i].name))
		cancels[i]()
		<-dones[i]
		l.logger.Info("service stopped",
			zap.String("service", services[i].name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all services stopped", zap.Duration("shutdown_elapsed", time.Since(shutdownStart)))
}
