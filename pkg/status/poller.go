// Package status keeps the current ClusterStatus snapshot. Snapshots are polled from the CRM and
// replaced as a whole; readers never see a partially updated one. A failed poll keeps the previous
// snapshot but flags the CRM status as failed so every dependent predicate fails closed.
package status

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
)

// Source polls the CRM for the current cluster status.
type Source interface {
	Poll(ctx context.Context) (*model.ClusterStatus, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*model.ClusterStatus, error)

func (f SourceFunc) Poll(ctx context.Context) (*model.ClusterStatus, error) {
	return f(ctx)
}

// Store persists the last good snapshot across restarts.
type Store interface {
	Save(status *model.ClusterStatus) error
	Load() (*model.ClusterStatus, bool, error)
}

type Poller struct {
	logger   *slog.Logger
	source   Source
	store    Store
	interval time.Duration

	current atomic.Pointer[model.ClusterStatus]
	issued  atomic.Uint64

	mu          sync.Mutex
	published   uint64
	subscribers []func(*model.ClusterStatus)
}

type Option func(*Poller)

func WithStore(store Store) Option {
	return func(p *Poller) {
		p.store = store
	}
}

func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		p.interval = interval
	}
}

func NewPoller(logger *slog.Logger, source Source, options ...Option) *Poller {
	p := &Poller{
		logger:   logger,
		source:   source,
		interval: 5 * time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.current.Store(model.EmptyStatus())
	return p
}

// Current returns the current snapshot. It must not be modified.
func (p *Poller) Current() *model.ClusterStatus {
	return p.current.Load()
}

// OnUpdate registers f to be called with every published snapshot. f must not block.
func (p *Poller) OnUpdate(f func(*model.ClusterStatus)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, f)
}

// Restore publishes the snapshot saved in the store, if any. The CRM status of a restored snapshot
// is flagged as failed until the first successful poll.
func (p *Poller) Restore() error {
	if p.store == nil {
		return nil
	}
	status, ok, err := p.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	p.logger.Info("Restored cluster status", "polledAt", status.PolledAt, "resources", len(status.Resources))
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publish(status.Failed())
	return nil
}

// Poll polls the source once. A poll which finishes after a poll issued later has already been
// published is dropped.
func (p *Poller) Poll(ctx context.Context) error {
	seq := p.issued.Add(1)
	start := time.Now()
	status, err := p.source.Poll(ctx)
	pollDuration.Observe(time.Since(start).Seconds())

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq < p.published {
		pollsTotal.WithLabelValues("superseded").Inc()
		return nil
	}
	p.published = seq

	if err != nil {
		pollsTotal.WithLabelValues("failure").Inc()
		p.publish(p.Current().Failed())
		return errdef.NewPoll("failed polling cluster status: %v", err)
	}

	pollsTotal.WithLabelValues("success").Inc()
	if status.PolledAt.IsZero() {
		status.PolledAt = time.Now()
	}
	p.publish(status)

	if p.store != nil {
		if err := p.store.Save(status); err != nil {
			p.logger.ErrorContext(ctx, "Failed saving cluster status", "error", err)
		}
	}
	return nil
}

// Publish replaces the current snapshot with status as if it had been polled.
func (p *Poller) Publish(status *model.ClusterStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = p.issued.Add(1)
	p.publish(status)
}

func (p *Poller) publish(status *model.ClusterStatus) {
	p.current.Store(status)
	if !status.PolledAt.IsZero() {
		statusAge.Set(time.Since(status.PolledAt).Seconds())
	}
	crmStatusFailed.Set(boolToFloat(status.CRMStatusFailed))
	for _, subscriber := range p.subscribers {
		subscriber(status)
	}
}

// Run polls every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil {
			p.logger.WarnContext(ctx, "Cluster status poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
