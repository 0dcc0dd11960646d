package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	QueueSize         int
	NumWorkers        int
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		QueueSize:         100,
		NumWorkers:        2,
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        1 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

func (c WorkerConfig) normalized() WorkerConfig {
	def := DefaultWorkerConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = def.NumWorkers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	return c
}

// QueueItem is a pending delivery of one payload to one destination.
type QueueItem struct {
	ID          string
	Destination Destination
	Payload     NotificationPayload
	CreatedAt   time.Time
}

// Worker delivers queued notifications in background goroutines.
// Items live only in memory; a process restart loses anything not yet sent.
type Worker struct {
	config     WorkerConfig
	dispatcher *Dispatcher
	renderer   *Renderer

	queue   chan QueueItem
	mu      sync.RWMutex
	closed  bool
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	sleep   func(ctx context.Context, stop <-chan struct{}, d time.Duration) bool
}

// NewWorker creates a new notification worker.
func NewWorker(config WorkerConfig, dispatcher *Dispatcher, renderer *Renderer) *Worker {
	config = config.normalized()
	return &Worker{
		config:     config,
		dispatcher: dispatcher,
		renderer:   renderer,
		queue:      make(chan QueueItem, config.QueueSize),
		stopCh:     make(chan struct{}),
		sleep:      sleepOrStop,
	}
}

// Enqueue adds an item without blocking. It returns ErrQueueFull when the
// buffer is exhausted and ErrWorkerStopped after Stop.
func (w *Worker) Enqueue(destination Destination, payload NotificationPayload) error {
	item := QueueItem{
		ID:          uuid.NewString(),
		Destination: destination,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		observeDrop(dropStopped)
		return ErrWorkerStopped
	}

	select {
	case w.queue <- item:
		return nil
	default:
		observeDrop(dropQueueFull)
		return ErrQueueFull
	}
}

// Len returns the number of items waiting in the queue.
func (w *Worker) Len() int {
	return len(w.queue)
}

// Start launches worker goroutines. Calling it more than once has no effect.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true

	slog.Info("starting notification worker",
		"component", "notifications",
		"workers", w.config.NumWorkers,
		"queue_size", w.config.QueueSize,
	)

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop closes the queue and waits for workers to drain it. Pending retry
// waits are abandoned.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	slog.Info("notification worker stopped", "component", "notifications")
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-w.queue:
			if !ok {
				return
			}
			w.process(ctx, workerID, item)
		}
	}
}

func (w *Worker) process(ctx context.Context, workerID int, item QueueItem) {
	channelType := item.Destination.Type

	subject, body, err := w.renderer.Render(channelType, item.Payload)
	if err != nil {
		slog.Error("failed to render notification",
			"component", "notifications",
			"item_id", item.ID,
			"error", err,
		)
		observeDelivery(channelType, statusFailed)
		return
	}

	notification := Notification{
		To:      item.Destination.Target,
		Subject: subject,
		Body:    body,
	}

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := w.dispatcher.SendToChannel(ctx, channelType, notification)
		if err == nil {
			duration := time.Since(start)
			observeDelivery(channelType, statusSuccess)
			observeSendDuration(channelType, duration)
			slog.Debug("notification sent",
				"component", "notifications",
				"worker", workerID,
				"item_id", item.ID,
				"channel_type", channelType,
				"duration", duration,
			)
			return
		}

		slog.Warn("send failed",
			"component", "notifications",
			"item_id", item.ID,
			"channel_type", channelType,
			"attempt", attempt,
			"max_attempts", w.config.MaxAttempts,
			"error", err,
		)

		if !isRetryable(err) || attempt >= w.config.MaxAttempts {
			observeDelivery(channelType, statusFailed)
			return
		}

		observeDelivery(channelType, statusRetry)
		delay := w.backoff(attempt)
		if hint := retryAfterHint(err); hint > delay {
			delay = hint
		}
		if !w.sleep(ctx, w.stopCh, delay) {
			observeDelivery(channelType, statusFailed)
			return
		}
	}
}

// backoff returns the wait before the attempt following the given one.
func (w *Worker) backoff(attempt int) time.Duration {
	backoff := float64(w.config.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= w.config.BackoffMultiplier
	}

	if backoff > float64(w.config.MaxBackoff) {
		backoff = float64(w.config.MaxBackoff)
	}

	return time.Duration(backoff)
}

func sleepOrStop(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	}
}
