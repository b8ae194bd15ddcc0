package event_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lcmc/crm-manager/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batches struct {
	mu    sync.Mutex
	calls [][]string
	fail  int
}

func (b *batches) task(_ context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, keys)
	if b.fail > 0 {
		b.fail--
		return errors.New("status backend down")
	}
	return nil
}

func (b *batches) get() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.calls...)
}

func runQueue(t *testing.T, q *event.Queue) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
}

func TestQueue(t *testing.T) {
	t.Run("CoalescesPendingKeys", func(t *testing.T) {
		b := &batches{}
		q := event.NewQueue(slog.Default(), b.task)

		q.Enqueue("ip1", "fs1")
		q.Enqueue("ip1")
		require.Equal(t, []string{"ip1", "fs1"}, q.Pending())

		runQueue(t, q)

		require.Eventually(t, func() bool { return len(b.get()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, [][]string{{"ip1", "fs1"}}, b.get())
		assert.Empty(t, q.Pending())
	})

	t.Run("RetriesFailedBatch", func(t *testing.T) {
		b := &batches{fail: 1}
		q := event.NewQueue(slog.Default(), b.task, event.WithRetryDelay(time.Millisecond))

		runQueue(t, q)
		q.Enqueue("ip1")

		require.Eventually(t, func() bool { return len(b.get()) == 2 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, [][]string{{"ip1"}, {"ip1"}}, b.get())
	})

	t.Run("EnqueueNeverBlocks", func(t *testing.T) {
		q := event.NewQueue(slog.Default(), (&batches{}).task)

		for i := 0; i < 1000; i++ {
			q.Enqueue("ip1", "fs1")
		}

		assert.Len(t, q.Pending(), 2)
	})
}
