package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"easymo/internal/constants"
	"easymo/internal/logger"
	"easymo/internal/queue"
	"easymo/pkg/metrics"
	"easymo/pkg/retry"
)

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Metrics is a read-only snapshot of the runtime's counters, safe to take
// from a concurrently-running health check.
type Metrics struct {
	Processed      int64      `json:"processed"`
	Failed         int64      `json:"failed"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// Runtime owns the long-running ingestion loop: it consumes outbound
// notifications from the queue and delivers them through the provider
// client. All counters are atomic so metric reads never observe a torn
// state while stop() runs.
type Runtime struct {
	queue  queue.Queue
	sender Sender
	logger logger.Logger

	state        atomic.Int32
	processed    atomic.Int64
	failed       atomic.Int64
	startedAt    atomic.Int64
	lastActivity atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	doneCh chan struct{}
}

func NewRuntime(q queue.Queue, sender Sender, log logger.Logger) *Runtime {
	return &Runtime{
		queue:  q,
		sender: sender,
		logger: log,
	}
}

// Start brings the loop up. It is a no-op when already starting or
// running; from stopped it transitions to running only once the ingestion
// resources are in place. A missing queue or sender is a fatal
// configuration error, not something to run degraded over.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch State(r.state.Load()) {
	case StateStarting, StateRunning:
		return nil
	case StateStopping:
		return errors.New("worker is stopping")
	}

	if r.queue == nil {
		return fmt.Errorf("worker queue is not configured")
	}
	if r.sender == nil {
		return fmt.Errorf("worker provider client is not configured")
	}

	r.state.Store(int32(StateStarting))

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.doneCh = make(chan struct{})

	now := time.Now()
	r.startedAt.Store(now.UnixNano())

	go r.run(loopCtx)

	r.state.Store(int32(StateRunning))
	r.logger.InfowCtx(ctx, "Worker runtime started")
	return nil
}

// Stop drains the loop with a bounded grace period, then releases the
// queue subscription. Safe to call concurrently with health checks; a
// second Stop is a no-op.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if State(r.state.Load()) != StateRunning {
		return nil
	}
	r.state.Store(int32(StateStopping))
	r.cancel()

	select {
	case <-r.doneCh:
	case <-time.After(constants.WorkerDrainGrace):
		r.logger.WarnwCtx(ctx, "Worker drain grace period elapsed, abandoning in-flight work")
	case <-ctx.Done():
	}

	err := r.queue.Close()
	r.state.Store(int32(StateStopped))
	r.logger.InfowCtx(ctx, "Worker runtime stopped")
	return err
}

func (r *Runtime) IsStarted() bool {
	return State(r.state.Load()) == StateRunning
}

func (r *Runtime) CurrentState() State {
	return State(r.state.Load())
}

func (r *Runtime) GetMetrics() Metrics {
	m := Metrics{
		Processed: r.processed.Load(),
		Failed:    r.failed.Load(),
	}
	if ns := r.startedAt.Load(); ns > 0 {
		t := time.Unix(0, ns)
		m.StartedAt = &t
	}
	if ns := r.lastActivity.Load(); ns > 0 {
		t := time.Unix(0, ns)
		m.LastActivityAt = &t
	}
	return m
}

func (r *Runtime) run(ctx context.Context) {
	defer close(r.doneCh)

	reconnect := retry.NewReconnect(retry.DefaultPolicy())

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, queue.ErrMalformed) {
				r.failed.Add(1)
				metrics.WorkerMessagesTotal.WithLabelValues("malformed").Inc()
				r.logger.WarnwCtx(ctx, "Dropping malformed queue entry", "error", err)
				continue
			}
			r.logger.ErrorwCtx(ctx, "Queue fetch failed, backing off", "error", err)
			reconnect.Wait(ctx.Done())
			continue
		}
		reconnect.Reset()

		if n == nil {
			// Poll window elapsed with nothing queued.
			continue
		}

		r.lastActivity.Store(time.Now().UnixNano())

		if err := r.sender.Send(ctx, *n); err != nil {
			r.failed.Add(1)
			metrics.WorkerMessagesTotal.WithLabelValues("failed").Inc()
			r.logger.ErrorwCtx(ctx, "Outbound send failed",
				"notification_id", n.ID,
				"error", err,
			)
			continue
		}

		r.processed.Add(1)
		metrics.WorkerMessagesTotal.WithLabelValues("processed").Inc()
		r.logger.DebugwCtx(ctx, "Outbound notification delivered",
			"notification_id", n.ID,
		)
	}
}
