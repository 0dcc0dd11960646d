package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/adboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendError struct {
	retryable bool
	after     time.Duration
}

func (e *sendError) Error() string                 { return "send failed" }
func (e *sendError) IsRetryable() bool             { return e.retryable }
func (e *sendError) RetryAfterHint() time.Duration { return e.after }

type fakeSender struct {
	channelType domain.ChannelType

	mu    sync.Mutex
	errs  []error
	sent  []Notification
	calls int
}

func (f *fakeSender) Type() domain.ChannelType { return f.channelType }

func (f *fakeSender) Send(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) snapshot() (int, []Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]Notification(nil), f.sent...)
}

func newTestWorker(t *testing.T, cfg WorkerConfig, senders ...Sender) (*Worker, *[]time.Duration) {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)

	w := NewWorker(cfg, NewDispatcher(senders...), renderer)
	var delays []time.Duration
	var mu sync.Mutex
	w.sleep = func(_ context.Context, _ <-chan struct{}, d time.Duration) bool {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		return true
	}
	return w, &delays
}

func TestWorker_Backoff(t *testing.T) {
	worker := &Worker{config: WorkerConfig{
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{20, 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, worker.backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestWorkerConfig_Normalized(t *testing.T) {
	cfg := WorkerConfig{}.normalized()
	def := DefaultWorkerConfig()

	assert.Equal(t, def.QueueSize, cfg.QueueSize)
	assert.Equal(t, def.NumWorkers, cfg.NumWorkers)
	assert.Equal(t, def.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, def.BackoffMultiplier, cfg.BackoffMultiplier)
	assert.GreaterOrEqual(t, cfg.MaxBackoff, cfg.InitialBackoff)
}

func TestWorker_DeliversAndDrainsOnStop(t *testing.T) {
	// Arrange
	sender := &fakeSender{channelType: domain.ChannelTypeTelegram}
	w, _ := newTestWorker(t, WorkerConfig{QueueSize: 10, NumWorkers: 1}, sender)
	dest := Destination{Type: domain.ChannelTypeTelegram, Target: "-100"}

	// Act
	require.NoError(t, w.Enqueue(dest, testPayload()))
	require.NoError(t, w.Enqueue(dest, testPayload()))
	w.Start(context.Background())
	w.Stop()

	// Assert
	calls, sent := sender.snapshot()
	assert.Equal(t, 2, calls)
	require.Len(t, sent, 2)
	assert.Equal(t, "-100", sent[0].To)
	assert.Equal(t, "[New user] Jane Doe", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "jane@example.com")
}

func TestWorker_RetriesRetryableErrors(t *testing.T) {
	sender := &fakeSender{
		channelType: domain.ChannelTypeTelegram,
		errs:        []error{&sendError{retryable: true}, &sendError{retryable: true, after: 30 * time.Second}, nil},
	}
	w, delays := newTestWorker(t, WorkerConfig{
		NumWorkers:        1,
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Minute,
		BackoffMultiplier: 2,
	}, sender)

	require.NoError(t, w.Enqueue(Destination{Type: domain.ChannelTypeTelegram, Target: "1"}, testPayload()))
	w.Start(context.Background())
	w.Stop()

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Len(t, sent, 1)
	assert.Equal(t, []time.Duration{time.Second, 30 * time.Second}, *delays)
}

func TestWorker_StopsOnPermanentError(t *testing.T) {
	sender := &fakeSender{
		channelType: domain.ChannelTypeTelegram,
		errs:        []error{&sendError{retryable: false}},
	}
	w, delays := newTestWorker(t, WorkerConfig{NumWorkers: 1, MaxAttempts: 5}, sender)

	require.NoError(t, w.Enqueue(Destination{Type: domain.ChannelTypeTelegram, Target: "1"}, testPayload()))
	w.Start(context.Background())
	w.Stop()

	calls, sent := sender.snapshot()
	assert.Equal(t, 1, calls)
	assert.Empty(t, sent)
	assert.Empty(t, *delays)
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("connection reset")
	sender := &fakeSender{
		channelType: domain.ChannelTypeMattermost,
		errs:        []error{boom, boom, boom, boom},
	}
	w, _ := newTestWorker(t, WorkerConfig{NumWorkers: 1, MaxAttempts: 3}, sender)

	require.NoError(t, w.Enqueue(Destination{Type: domain.ChannelTypeMattermost, Target: "hook"}, testPayload()))
	w.Start(context.Background())
	w.Stop()

	calls, sent := sender.snapshot()
	assert.Equal(t, 3, calls)
	assert.Empty(t, sent)
}

func TestWorker_QueueFull(t *testing.T) {
	w, _ := newTestWorker(t, WorkerConfig{QueueSize: 1, NumWorkers: 1})
	dest := Destination{Type: domain.ChannelTypeTelegram, Target: "1"}

	require.NoError(t, w.Enqueue(dest, testPayload()))
	err := w.Enqueue(dest, testPayload())

	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, w.Len())
}

func TestWorker_EnqueueAfterStop(t *testing.T) {
	w, _ := newTestWorker(t, WorkerConfig{})
	w.Start(context.Background())
	w.Stop()
	w.Stop()

	err := w.Enqueue(Destination{Type: domain.ChannelTypeTelegram, Target: "1"}, testPayload())
	assert.ErrorIs(t, err, ErrWorkerStopped)
}

func TestWorker_NoSenderIsNotRetried(t *testing.T) {
	w, delays := newTestWorker(t, WorkerConfig{NumWorkers: 1, MaxAttempts: 3})

	require.NoError(t, w.Enqueue(Destination{Type: domain.ChannelTypeTelegram, Target: "1"}, testPayload()))
	w.Start(context.Background())
	w.Stop()

	assert.Empty(t, *delays)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(nil))
	assert.False(t, isRetryable(ErrNoSender))
	assert.True(t, isRetryable(errors.New("network")))
	assert.False(t, isRetryable(&sendError{retryable: false}))
	assert.True(t, isRetryable(&sendError{retryable: true}))
}

func TestSleepOrStop(t *testing.T) {
	stop := make(chan struct{})
	close(stop)
	assert.False(t, sleepOrStop(context.Background(), stop, time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepOrStop(ctx, make(chan struct{}), time.Hour))

	assert.True(t, sleepOrStop(context.Background(), make(chan struct{}), time.Millisecond))
}
