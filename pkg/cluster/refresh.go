package cluster

import (
	"context"
	"strings"

	"github.com/lcmc/crm-manager/pkg/event"
	"github.com/lcmc/crm-manager/pkg/model"
)

type poller interface {
	Poll(ctx context.Context) error
	Current() *model.ClusterStatus
}

type publisher interface {
	Publish(event event.Event) int
}

// RefreshTask returns the task refreshing nodes touched by live mutations. It polls the cluster
// status, confirms pending removals, adopts orphaned resources and tells subscribers which nodes
// changed.
func (s *Session) RefreshTask(p poller, broker publisher) event.Task {
	return func(ctx context.Context, keys []string) error {
		if err := p.Poll(ctx); err != nil {
			return err
		}

		status := p.Current()
		removed := s.ConfirmRemovals(status)
		orphans := s.SyncOrphans(status)
		broker.Publish(event.Event{Type: "refresh", Message: strings.Join(keys, ",")})
		if len(removed) > 0 {
			broker.Publish(event.Event{Type: "removed", Message: strings.Join(removed, ",")})
		}
		if len(orphans) > 0 {
			broker.Publish(event.Event{Type: "orphaned", Message: strings.Join(orphans, ",")})
		}
		return nil
	}
}
