package webhooks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/quote-gateway/models"
)

// AsyncConfig holds configuration for the AsyncNotifier
type AsyncConfig struct {
	BufferSize  int           // Size of the notification buffer channel
	WorkerCount int           // Number of concurrent workers
	Timeout     time.Duration // Per-notification delivery timeout
}

// DefaultAsyncConfig returns the default configuration
func DefaultAsyncConfig() AsyncConfig {
	return AsyncConfig{
		BufferSize:  1000,
		WorkerCount: 4,
		Timeout:     5 * time.Second,
	}
}

// AsyncNotifier queues notifications and delivers them to the next notifier
// from a pool of background workers
type AsyncNotifier struct {
	next        Notifier
	logger      *zap.Logger
	queue       chan *models.Notification
	workerCount int
	bufferSize  int
	timeout     time.Duration
	wg          sync.WaitGroup
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// NewAsyncNotifier creates a new AsyncNotifier in front of next
func NewAsyncNotifier(next Notifier, logger *zap.Logger, config AsyncConfig) *AsyncNotifier {
	defaults := DefaultAsyncConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &AsyncNotifier{
		next:        next,
		logger:      logger,
		queue:       make(chan *models.Notification, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		timeout:     config.Timeout,
	}
}

// Start starts the background workers
func (a *AsyncNotifier) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("notifier already started")
	}

	for i := 0; i < a.workerCount; i++ {
		a.wg.Add(1)
		go a.worker(i)
	}

	a.started = true
	a.logger.Info("started notification dispatcher",
		zap.Int("worker_count", a.workerCount),
		zap.Int("buffer_size", a.bufferSize))

	return nil
}

// Stop drains pending notifications, waiting at most timeout
func (a *AsyncNotifier) Stop(timeout time.Duration) error {
	a.mu.Lock()
	if !a.started || a.stopped {
		a.mu.Unlock()
		return fmt.Errorf("notifier not running")
	}
	a.stopped = true
	close(a.queue)
	a.mu.Unlock()

	a.logger.Info("stopping notification dispatcher", zap.Int("pending", len(a.queue)))

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("notification dispatcher stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("notification dispatcher stop timeout after %v", timeout)
	}
}

// Notify queues n without blocking. A full buffer drops the notification and errors.
func (a *AsyncNotifier) Notify(_ context.Context, n *models.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started || a.stopped {
		return fmt.Errorf("notifier not running")
	}

	select {
	case a.queue <- n:
		return nil
	default:
		a.logger.Warn("notification buffer full, dropping notification",
			zap.String("kind", string(n.Kind)),
			zap.String("provider", n.Provider),
			zap.String("notification_id", n.ID.String()))
		return fmt.Errorf("notification buffer full")
	}
}

func (a *AsyncNotifier) worker(id int) {
	defer a.wg.Done()

	for n := range a.queue {
		if err := a.deliver(n); err != nil {
			a.logger.Error("failed to deliver notification",
				zap.Int("worker_id", id),
				zap.String("kind", string(n.Kind)),
				zap.String("provider", n.Provider),
				zap.String("notification_id", n.ID.String()),
				zap.Error(err))
		}
	}
}

func (a *AsyncNotifier) deliver(n *models.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	return a.next.Notify(ctx, n)
}

// Stats returns dispatcher statistics
func (a *AsyncNotifier) Stats() AsyncStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return AsyncStats{
		BufferSize:  a.bufferSize,
		Pending:     len(a.queue),
		WorkerCount: a.workerCount,
		Started:     a.started && !a.stopped,
	}
}

// AsyncStats represents dispatcher statistics
type AsyncStats struct {
	BufferSize  int
	Pending     int
	WorkerCount int
	Started     bool
}
