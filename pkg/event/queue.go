package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "crm_refresh_tasks_total",
	Help: "Number of refresh batches run, by result.",
}, []string{"result"})

// Task refreshes the given keys.
type Task func(ctx context.Context, keys []string) error

type QueueOption func(*Queue)

// WithRetryDelay sets how long a failed batch waits before it is enqueued again.
func WithRetryDelay(delay time.Duration) QueueOption {
	return func(q *Queue) {
		q.retryDelay = delay
	}
}

func NewQueue(logger *slog.Logger, task Task, options ...QueueOption) *Queue {
	q := &Queue{
		logger:     logger,
		task:       task,
		pending:    make(map[string]struct{}),
		signal:     make(chan struct{}, 1),
		retryDelay: time.Second,
	}
	for _, option := range options {
		option(q)
	}
	return q
}

// Queue runs a Task asynchronously for enqueued keys. Keys pending at the same time are coalesced
// into one batch, and a failed batch is enqueued again, so every key is refreshed at least once.
type Queue struct {
	logger     *slog.Logger
	task       Task
	retryDelay time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	order   []string
	signal  chan struct{}
}

// Enqueue schedules keys for refresh. It never blocks.
func (q *Queue) Enqueue(keys ...string) {
	q.mu.Lock()
	for _, key := range keys {
		if _, ok := q.pending[key]; ok {
			continue
		}
		q.pending[key] = struct{}{}
		q.order = append(q.order, key)
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pending returns the keys waiting for the next batch.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.order...)
}

func (q *Queue) take() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	keys := q.order
	q.order = nil
	q.pending = make(map[string]struct{})
	return keys
}

// Run processes batches until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}

		keys := q.take()
		if len(keys) == 0 {
			continue
		}

		if err := q.task(ctx, keys); err != nil {
			refreshes.WithLabelValues("failure").Inc()
			q.logger.ErrorContext(ctx, "Refresh failed", "keys", keys, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(q.retryDelay):
			}
			q.Enqueue(keys...)
			continue
		}
		refreshes.WithLabelValues("success").Inc()
	}
}
