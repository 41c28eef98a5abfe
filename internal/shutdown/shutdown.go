// Package shutdown coordinates SIGINT/SIGTERM handling for the long
// running commands. Hooks run in reverse registration order within one
// shared timeout, and the context from Context is cancelled as soon as
// shutdown starts so an in-flight pass stops between entries.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/glefebvre/mediasorter/internal/logger"
)

// Hook is a named cleanup step
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Handler manages graceful shutdown of the application
type Handler struct {
	mu             sync.Mutex
	hooks          []Hook
	timeout        time.Duration
	log            *logger.Logger
	signalChan     chan os.Signal
	ctx            context.Context
	cancel         context.CancelFunc
	isShuttingDown bool
}

// New creates a new shutdown handler
func New(timeout time.Duration, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		hooks:      make([]Hook, 0),
		timeout:    timeout,
		log:        log,
		signalChan: make(chan os.Signal, 1),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register adds a hook. Hooks run in reverse order of registration.
func (h *Handler) Register(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Fn: fn})
}

// Context is cancelled when shutdown starts
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Wait blocks until a shutdown signal is received, then runs the hooks
func (h *Handler) Wait() error {
	signal.Notify(h.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(h.signalChan)

	sig := <-h.signalChan
	h.log.Info(fmt.Sprintf("Received %s, shutting down", sig))
	return h.Shutdown()
}

// Shutdown cancels Context and runs every hook, last registered first.
// All hooks share the handler timeout; the first error is returned.
func (h *Handler) Shutdown() error {
	h.mu.Lock()
	if h.isShuttingDown {
		h.mu.Unlock()
		return nil
	}
	h.isShuttingDown = true
	hooks := append([]Hook(nil), h.hooks...)
	h.mu.Unlock()

	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if err := ctx.Err(); err != nil {
			h.log.Warn(fmt.Sprintf("Shutdown timeout reached before %s", hook.Name))
			errs = append(errs, err)
			break
		}
		if err := runHook(ctx, hook); err != nil {
			h.log.Error(fmt.Sprintf("Shutdown hook %s failed", hook.Name), err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// runHook returns when the hook returns or the context expires
func runHook(ctx context.Context, hook Hook) error {
	done := make(chan error, 1)
	go func() {
		done <- hook.Fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Join(ctx.Err(), fmt.Errorf("hook %s did not finish", hook.Name))
	}
}

// IsShuttingDown returns true if shutdown has been initiated
func (h *Handler) IsShuttingDown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isShuttingDown
}

// ShutdownChan returns a channel that is closed when shutdown is initiated
func (h *Handler) ShutdownChan() <-chan struct{} {
	return h.ctx.Done()
}

// TriggerShutdown programmatically triggers a shutdown
func (h *Handler) TriggerShutdown() {
	select {
	case h.signalChan <- syscall.SIGTERM:
	default:
	}
}
