// Package cluster ties the catalog, the dependency graph, the status snapshot and the command
// translator together. A Session is the single writer of the cluster model: every mutation runs
// under its lock, is translated into CRM commands and is rolled back when those cannot be
// submitted.
package cluster

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/catalog"
	"github.com/lcmc/crm-manager/pkg/command"
	"github.com/lcmc/crm-manager/pkg/constraint"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/reconcile"
	"github.com/lcmc/crm-manager/pkg/service"
	"golang.org/x/exp/maps"
)

type statusSource interface {
	Current() *model.ClusterStatus
}

type refresher interface {
	Enqueue(keys ...string)
}

type translator interface {
	Translate(m model.Mutation, change command.Change) []command.Command
	Submit(ctx context.Context, cmds []command.Command, mode model.RunMode, status *model.ClusterStatus) error
}

// NewSession returns a session working on graph. The factory must resolve superseded claims
// against graph, see service.WithNodes.
func NewSession(logger *slog.Logger, catalog *catalog.Catalog, factory *service.Factory, graph *constraint.Graph, translator translator, status statusSource, refresh refresher) *Session {
	return &Session{
		logger:     logger,
		catalog:    catalog,
		factory:    factory,
		graph:      graph,
		engine:     reconcile.New(),
		translator: translator,
		status:     status,
		refresh:    refresh,
	}
}

type Session struct {
	logger     *slog.Logger
	catalog    *catalog.Catalog
	factory    *service.Factory
	graph      *constraint.Graph
	engine     *reconcile.Engine
	translator translator
	status     statusSource
	refresh    refresher

	mu sync.Mutex
	// projection is the simulated status left by the last test mode mutation.
	projection *model.ClusterStatus
}

// Ack is the outcome of a mutation.
// swagger:model Ack
type Ack struct {
	Mode     model.RunMode `json:"mode"`
	Edge     string        `json:"edge,omitempty"`
	Commands []string      `json:"commands"`
	// Projection is the simulated cluster status after a test mode mutation.
	Projection *model.ClusterStatus `json:"projection,omitempty"`
}

func (s *Session) current() *model.ClusterStatus {
	status := s.status.Current()
	if status == nil {
		return model.EmptyStatus()
	}
	return status
}

// Mutate applies m. In live mode the graph is changed and the resulting commands are sent to the
// designated coordinator as one batch; if that fails the graph is restored and the error returned.
// In test mode the mutation runs on a copy of the graph and the commands only reach the simulator.
// Test mutations do not stack: each one is applied to the live graph and projected onto the live
// status, replacing the projection of the previous one.
func (s *Session) Mutate(ctx context.Context, m model.Mutation, mode model.RunMode) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = model.NewContextWithRunMode(ctx, mode)
	if mode == model.Test {
		return s.simulate(ctx, m)
	}

	status := s.current()
	saved := s.save()

	result, err := s.apply(s.graph, s.factory, m, status)
	if err != nil {
		s.rollback(ctx, saved)
		return Ack{}, err
	}

	cmds := s.translator.Translate(m, result.change)
	if err := s.translator.Submit(ctx, cmds, model.Live, status); err != nil {
		s.logger.ErrorContext(ctx, "Rolling back mutation", "kind", m.Kind, "error", err)
		s.rollback(ctx, saved)
		return Ack{}, err
	}

	s.projection = nil
	if s.refresh != nil && len(result.touched) > 0 {
		s.refresh.Enqueue(result.touched...)
	}
	s.logger.InfoContext(ctx, "Mutation applied", "kind", m.Kind, "commands", len(cmds))
	return Ack{Mode: model.Live, Edge: result.edge, Commands: shell(cmds)}, nil
}

func (s *Session) simulate(ctx context.Context, m model.Mutation) (Ack, error) {
	status := s.current()
	scratch := s.graph.Copy()
	factory := s.factory.Fork(scratch)

	result, err := s.apply(scratch, factory, m, status)
	if err != nil {
		return Ack{}, err
	}

	cmds := s.translator.Translate(m, result.change)
	if err := s.translator.Submit(ctx, cmds, model.Test, status); err != nil {
		return Ack{}, err
	}

	s.projection = command.Project(status, cmds)
	return Ack{Mode: model.Test, Edge: result.edge, Commands: shell(cmds), Projection: s.projection}, nil
}

func shell(cmds []command.Command) []string {
	lines := make([]string, len(cmds))
	for i, cmd := range cmds {
		lines[i] = cmd.Shell()
	}
	return lines
}

type savepoint struct {
	graph constraint.Snapshot
	drbd  *service.Registry
	vms   *service.Registry
}

func (s *Session) save() savepoint {
	return savepoint{
		graph: s.graph.Snapshot(),
		drbd:  s.factory.DrbdRegistry().Copy(),
		vms:   s.factory.VMRegistry().Copy(),
	}
}

func (s *Session) rollback(ctx context.Context, saved savepoint) {
	if err := s.graph.Restore(saved.graph); err != nil {
		s.logger.ErrorContext(ctx, "Failed to restore graph", "error", err)
	}
	s.factory.DrbdRegistry().Restore(saved.drbd)
	s.factory.VMRegistry().Restore(saved.vms)
}

func (s *Session) view() reconcile.View {
	return reconcile.View{
		Nodes:     s.graph,
		Live:      s.current(),
		Simulated: s.projection,
	}
}

// Query reconciles the node with the latest status. In test mode the status projected by the last
// test mutation alone is used; earlier test mutations are not part of it.
func (s *Session) Query(ctx context.Context, id string, mode model.RunMode) (reconcile.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Query(s.view(), id, mode)
}

// Snapshot returns a copy of the graph.
func (s *Session) Snapshot() constraint.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Snapshot()
}

// StartOrder returns the node ids in an order satisfying every order constraint.
func (s *Session) StartOrder() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.StartOrder()
}

// AddServiceRequest describes a service to add to the model.
// swagger:model AddServiceRequest
type AddServiceRequest struct {
	ID       string            `json:"id"`
	Class    string            `json:"class" binding:"required"`
	Provider string            `json:"provider"`
	Agent    string            `json:"agent" binding:"required"`
	Params   map[string]string `json:"params"`
	Master   bool              `json:"master"`
	// Group is the id of a group the service joins.
	Group string `json:"group"`
	// Contains is the id of the service a new clone holds.
	Contains string `json:"contains"`
}

// AddService adds a new service to the model. It is marked as new until a status poll reports it.
func (s *Session) AddService(ctx context.Context, request AddServiceRequest) (*model.ServiceNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.catalog.Agent(request.Class, request.Provider, request.Agent)
	if err != nil {
		return nil, err
	}
	if !agent.IsGroup() && !agent.IsClone() {
		if err := catalog.ValidateParams(agent, request.Params); err != nil {
			return nil, err
		}
	}

	saved := s.save()
	node, err := s.addService(agent, request)
	if err != nil {
		s.rollback(ctx, saved)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Service added", "node", node.ID, "agent", agent.ID())
	return node.Copy(), nil
}

func (s *Session) addService(agent *model.ResourceAgent, request AddServiceRequest) (*model.ServiceNode, error) {
	node, err := s.factory.NewNode(request.ID, agent, request.Params, service.New(), service.Master(request.Master))
	if err != nil {
		return nil, err
	}
	if err := s.graph.AddNode(node); err != nil {
		s.factory.Release(node)
		return nil, err
	}

	if request.Group != "" {
		group, err := s.graph.Node(request.Group)
		if err != nil {
			return nil, err
		}
		if err := service.AddChild(group, node); err != nil {
			return nil, err
		}
	}
	if request.Contains != "" {
		contained, err := s.graph.Node(request.Contains)
		if err != nil {
			return nil, err
		}
		if err := service.SetContained(node, contained); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// AddPlaceholder adds a placeholder standing in for a resource set.
func (s *Session) AddPlaceholder(ctx context.Context, id string) (*model.ServiceNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.factory.NewPlaceholder(id)
	if err := s.graph.AddNode(node); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Placeholder added", "node", node.ID)
	return node.Copy(), nil
}

// RemoveService marks the service as removed and deletes it from the CRM. The node stays in the
// model until ConfirmRemovals sees a status without it.
func (s *Session) RemoveService(ctx context.Context, id string, mode model.RunMode) (Ack, error) {
	return s.Mutate(ctx, model.Mutation{Kind: model.MutationRemoveService, Node: id}, mode)
}

// ConfirmRemovals drops removed and orphaned nodes the status no longer reports and clears the new
// flag of nodes it does report. A failed status confirms nothing. The ids of dropped nodes are
// returned.
func (s *Session) ConfirmRemovals(status *model.ClusterStatus) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == nil || status.CRMStatusFailed {
		return nil
	}

	var removed []string
	for _, node := range s.graph.Nodes() {
		_, reported := status.Resources[node.ID]
		switch {
		case (node.Removed || node.Orphaned) && !reported:
			if node.Kind == model.KindClone {
				service.DetachContained(node)
			}
			s.factory.Release(node)
			if err := s.graph.RemoveNode(node.ID); err != nil {
				s.logger.Error("Failed to remove node", "node", node.ID, "error", err)
				continue
			}
			removed = append(removed, node.ID)
		case node.New && reported:
			node.New = false
		}
	}

	if len(removed) > 0 {
		s.logger.Info("Removals confirmed", "nodes", removed)
	}
	return removed
}

// SyncOrphans adds an orphaned node for every resource the status reports that the model does not
// hold, and refreshes the managed flag of orphans already known. Agents are resolved through the
// catalog when it knows them. A failed status adds nothing. The ids of new orphans are returned.
func (s *Session) SyncOrphans(status *model.ClusterStatus) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status == nil || status.CRMStatusFailed {
		return nil
	}

	ids := maps.Keys(status.Resources)
	sort.Strings(ids)

	var orphans []string
	for _, id := range ids {
		row := status.Resources[id]
		if node, err := s.graph.Node(id); err == nil {
			if node.Orphaned {
				node.Managed = row.Managed
			}
			continue
		}

		var agent *model.ResourceAgent
		if row.Agent != "" {
			agent, _ = s.catalog.AgentByID(row.Agent)
		}
		options := []service.Option{service.Orphaned()}
		if !row.Managed {
			options = append(options, service.Unmanaged())
		}
		node, err := s.factory.NewNode(id, agent, nil, options...)
		if err != nil {
			s.logger.Error("Failed to create orphaned node", "node", id, "error", err)
			continue
		}
		if err := s.graph.AddNode(node); err != nil {
			s.factory.Release(node)
			s.logger.Error("Failed to add orphaned node", "node", id, "error", err)
			continue
		}
		orphans = append(orphans, id)
	}

	if len(orphans) > 0 {
		s.logger.Info("Orphaned resources found", "nodes", orphans)
	}
	return orphans
}

// Reset drops the simulated status of the last test mode mutation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projection = nil
}

func requireHost(m model.Mutation) error {
	if m.Host == "" {
		return errdef.NewBadRequest("%s requires a host", m.Kind)
	}
	return nil
}
