package cluster

import (
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/command"
	"github.com/lcmc/crm-manager/pkg/constraint"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/reconcile"
	"github.com/lcmc/crm-manager/pkg/service"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type applied struct {
	edge    string
	touched []string
	change  command.Change
}

// apply runs m against g. Migrations are checked against the live status.
func (s *Session) apply(g *constraint.Graph, f *service.Factory, m model.Mutation, status *model.ClusterStatus) (applied, error) {
	var result applied
	before := g.Edges()
	view := reconcile.View{Nodes: g, Live: status}

	var err error
	var params map[string]string
	switch m.Kind {
	case model.MutationAddOrder:
		result.edge, err = g.AddOrder(m.Node, m.With)
		result.touched = []string{m.Node, m.With}
	case model.MutationAddColocation:
		result.edge, err = g.AddColocation(m.Node, m.With, m.PlaceholderAllowed)
		result.touched = []string{m.Node, m.With}
	case model.MutationRemoveOrder, model.MutationRemoveColocation, model.MutationToggleOrder, model.MutationToggleColocation:
		result.edge, result.touched, err = applyToEdge(g, m)
	case model.MutationRemoveService:
		result.touched, err = removeService(g, f, m.Node)
	case model.MutationRemovePlaceholder:
		result.touched = neighbours(g, m.Node)
		err = g.RemovePlaceholder(m.Node)
	case model.MutationSetParams:
		var node *model.ServiceNode
		if node, err = g.Node(m.Node); err == nil {
			params = maps.Clone(node.Params)
			err = f.SetParams(node, m.Params)
		}
		result.touched = []string{m.Node}
	case model.MutationMigrate, model.MutationMigrateFrom:
		err = s.checkMigration(view, m)
		result.touched = []string{m.Node}
	case model.MutationUnmigrate, model.MutationStart, model.MutationStop:
		_, err = g.Node(m.Node)
		result.touched = []string{m.Node}
	default:
		err = errdef.NewBadRequest("unknown mutation %q", m.Kind)
	}
	if err != nil {
		return applied{}, err
	}

	result.change = command.Change{Before: before, After: g.Edges(), Shape: model.MigratePlain, Params: params}
	if node, err := g.Node(m.Node); err == nil {
		result.change.Shape = s.engine.MigrateShape(view, node)
	}
	return result, nil
}

func applyToEdge(g *constraint.Graph, m model.Mutation) (string, []string, error) {
	edge, err := g.Edge(m.Edge)
	if err != nil {
		return "", nil, err
	}
	touched := []string{edge.A, edge.B}

	id := m.Edge
	switch m.Kind {
	case model.MutationRemoveOrder:
		err = g.RemoveOrder(m.Edge)
	case model.MutationRemoveColocation:
		err = g.RemoveColocation(m.Edge)
	case model.MutationToggleOrder:
		id, err = g.ToggleOrder(m.Edge)
	case model.MutationToggleColocation:
		id, err = g.ToggleColocation(m.Edge)
	}
	return id, touched, err
}

// removeService drops every constraint of the node, releases its claims and marks it removed.
func removeService(g *constraint.Graph, f *service.Factory, id string) ([]string, error) {
	node, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	if node.IsPlaceholder() {
		return nil, errdef.NewBadRequest("%q is a placeholder", id)
	}
	if node.Removed {
		return nil, errdef.NewBadRequest("service %q is already being removed", id)
	}

	touched := neighbours(g, id)
	for _, edge := range g.Edges() {
		if !edge.Touches(id) {
			continue
		}
		if edge.HasOrder {
			if err := g.RemoveOrder(edge.ID); err != nil {
				return nil, err
			}
		}
		if edge.HasColocation {
			if err := g.RemoveColocation(edge.ID); err != nil {
				return nil, err
			}
		}
	}

	f.Release(node)
	node.Removed = true
	return touched, nil
}

// neighbours returns id and the ids of every node sharing an edge with it.
func neighbours(g *constraint.Graph, id string) []string {
	ids := []string{id}
	for _, edge := range g.Edges() {
		if !edge.Touches(id) {
			continue
		}
		for _, other := range []string{edge.A, edge.B} {
			if !slices.Contains(ids, other) {
				ids = append(ids, other)
			}
		}
	}
	return ids
}

func (s *Session) checkMigration(view reconcile.View, m model.Mutation) error {
	if err := requireHost(m); err != nil {
		return err
	}
	node, err := view.Nodes.Node(m.Node)
	if err != nil {
		return err
	}
	if view.Live.CRMStatusFailed {
		return errdef.NewBackendUnavailable("cluster status is unavailable")
	}
	if !s.engine.IsAvailable(view, node, model.Live) {
		return errdef.NewBadRequest("service %q is not available", m.Node)
	}

	if m.Kind == model.MutationMigrateFrom {
		if !s.engine.CanMigrateFrom(view, node, m.Host, model.Live) {
			return errdef.NewBadRequest("service %q cannot be migrated from %q", m.Node, m.Host)
		}
		return nil
	}

	host, ok := view.Live.Hosts[m.Host]
	if !ok {
		return errdef.NewBadRequest("unknown host %q", m.Host)
	}
	if !host.OK() {
		return errdef.NewBadRequest("host %q cannot run services", m.Host)
	}
	return nil
}
