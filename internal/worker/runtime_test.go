package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easymo/internal/logger"
	"easymo/internal/queue"
	"easymo/pkg/models"
)

// fakeQueue feeds notifications from a channel and reports whether Close
// was called.
type fakeQueue struct {
	items  chan queueItem
	mu     sync.Mutex
	closed bool
}

type queueItem struct {
	notification *models.Notification
	err          error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{items: make(chan queueItem, 16)}
}

func (q *fakeQueue) Enqueue(ctx context.Context, n models.Notification) error {
	q.items <- queueItem{notification: &n}
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*models.Notification, error) {
	select {
	case item := <-q.items:
		return item.notification, item.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	}
}

func (q *fakeQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

func (q *fakeQueue) wasClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

type fakeSender struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (s *fakeSender) Send(ctx context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestRuntimeStartValidation(t *testing.T) {
	t.Run("nil queue", func(t *testing.T) {
		r := NewRuntime(nil, &fakeSender{}, logger.NopLogger())
		err := r.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue")
	})

	t.Run("nil sender", func(t *testing.T) {
		r := NewRuntime(newFakeQueue(), nil, logger.NopLogger())
		err := r.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider client")
	})
}

func TestRuntimeLifecycle(t *testing.T) {
	q := newFakeQueue()
	r := NewRuntime(q, &fakeSender{}, logger.NopLogger())

	assert.Equal(t, StateStopped, r.CurrentState())
	assert.False(t, r.IsStarted())

	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StateRunning, r.CurrentState())
	assert.True(t, r.IsStarted())

	// Second start is a no-op.
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StateRunning, r.CurrentState())

	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, StateStopped, r.CurrentState())
	assert.False(t, r.IsStarted())
	assert.True(t, q.wasClosed())

	// Second stop is a no-op; the queue is not closed twice.
	require.NoError(t, r.Stop(context.Background()))
	assert.Equal(t, StateStopped, r.CurrentState())
}

func TestRuntimeProcessesNotifications(t *testing.T) {
	q := newFakeQueue()
	sender := &fakeSender{}
	r := NewRuntime(q, sender, logger.NopLogger())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), models.Notification{ID: "n-1", To: "254700000001", Type: "text", Text: "hello"}))
	require.NoError(t, q.Enqueue(context.Background(), models.Notification{ID: "n-2", To: "254700000002", Type: "text", Text: "world"}))

	waitFor(t, func() bool { return sender.sentCount() == 2 })

	m := r.GetMetrics()
	assert.Equal(t, int64(2), m.Processed)
	assert.Equal(t, int64(0), m.Failed)
	require.NotNil(t, m.StartedAt)
	require.NotNil(t, m.LastActivityAt)
}

func TestRuntimeCountsSendFailures(t *testing.T) {
	q := newFakeQueue()
	sender := &fakeSender{err: errors.New("provider unavailable")}
	r := NewRuntime(q, sender, logger.NopLogger())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), models.Notification{ID: "n-1", To: "254700000001"}))

	waitFor(t, func() bool { return r.GetMetrics().Failed == 1 })
	assert.Equal(t, int64(0), r.GetMetrics().Processed)
}

func TestRuntimeSkipsMalformedEntries(t *testing.T) {
	q := newFakeQueue()
	sender := &fakeSender{}
	r := NewRuntime(q, sender, logger.NopLogger())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop(context.Background())

	q.items <- queueItem{err: queue.ErrMalformed}
	require.NoError(t, q.Enqueue(context.Background(), models.Notification{ID: "n-1", To: "254700000001"}))

	waitFor(t, func() bool { return sender.sentCount() == 1 })

	m := r.GetMetrics()
	assert.Equal(t, int64(1), m.Failed, "malformed entry counted as failed")
	assert.Equal(t, int64(1), m.Processed, "loop survives the malformed entry")
}

func TestRuntimeMetricsSnapshotBeforeStart(t *testing.T) {
	r := NewRuntime(newFakeQueue(), &fakeSender{}, logger.NopLogger())

	m := r.GetMetrics()
	assert.Equal(t, int64(0), m.Processed)
	assert.Equal(t, int64(0), m.Failed)
	assert.Nil(t, m.StartedAt)
	assert.Nil(t, m.LastActivityAt)
}
