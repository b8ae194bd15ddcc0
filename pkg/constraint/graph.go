// Package constraint holds the service nodes of a cluster and the constraints between them. Two
// nodes are connected by at most one edge which carries an order constraint, a colocation
// constraint or both. The UI treats this connection as one object, and toggling one kind re-derives
// its direction from the other kind, so both kinds live on the same edge.
//
// Order constraints additionally form a directed graph which must stay acyclic as no start order
// exists otherwise.
package constraint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
)

// Graph is not safe for concurrent use. Callers serialize access.
type Graph struct {
	nodes map[string]*model.ServiceNode
	edges map[string]*model.ConstraintEdge
	pairs map[[2]string]string
	order graph.Graph[string, string]
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*model.ServiceNode),
		edges: make(map[string]*model.ConstraintEdge),
		pairs: make(map[[2]string]string),
		order: graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
	}
}

// AddNode adds node to the graph.
func (g *Graph) AddNode(node *model.ServiceNode) error {
	if _, ok := g.nodes[node.ID]; ok {
		return errdef.NewDuplicated("node %q already exists", node.ID)
	}
	if err := g.order.AddVertex(node.ID); err != nil {
		return fmt.Errorf("failed adding vertex for node %q: %v", node.ID, err)
	}
	g.nodes[node.ID] = node
	return nil
}

// Node returns the node with the given id. The returned node is owned by the graph.
func (g *Graph) Node(id string) (*model.ServiceNode, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, errdef.NewNotFound("node %q not found", id)
	}
	return node, nil
}

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []*model.ServiceNode {
	nodes := make([]*model.ServiceNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// RemoveNode removes the node and every edge touching it. The node is detached from a group or
// clone holding it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return errdef.NewNotFound("node %q not found", id)
	}

	for _, edgeID := range g.edgesOf(id) {
		g.deleteEdge(g.edges[edgeID])
	}
	for _, parent := range g.nodes {
		switch parent.Kind {
		case model.KindGroup:
			service.RemoveChild(parent, id)
		case model.KindClone:
			if parent.Contained == id {
				service.DetachContained(parent)
			}
		}
	}

	if err := g.order.RemoveVertex(id); err != nil && !errors.Is(err, graph.ErrVertexNotFound) {
		return fmt.Errorf("failed removing vertex for node %q: %v", id, err)
	}
	delete(g.nodes, id)
	return nil
}

// RemovePlaceholder removes every edge touching the placeholder and then the placeholder itself.
func (g *Graph) RemovePlaceholder(id string) error {
	node, err := g.Node(id)
	if err != nil {
		return err
	}
	if !node.IsPlaceholder() {
		return errdef.NewBadRequest("node %q is not a placeholder", id)
	}
	return g.RemoveNode(id)
}

func (g *Graph) edgesOf(id string) []string {
	var ids []string
	for edgeID, edge := range g.edges {
		if edge.Touches(id) {
			ids = append(ids, edgeID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (g *Graph) checkEndpoints(a, b string, placeholderAllowed bool) error {
	if a == b {
		return errdef.NewInvalidEndpoint("cannot connect node %q to itself", a)
	}
	for _, id := range []string{a, b} {
		node, ok := g.nodes[id]
		if !ok {
			return errdef.NewInvalidEndpoint("unknown endpoint %q", id)
		}
		if node.IsPlaceholder() && !placeholderAllowed {
			return errdef.NewInvalidEndpoint("placeholder %q is not allowed as endpoint", id)
		}
		if node.Removed {
			return errdef.NewInvalidEndpoint("endpoint %q is being removed", id)
		}
	}
	return nil
}

// edgeFor returns the edge of the pair a, b. A new edge which is not yet part of the graph is
// returned if there is none.
func (g *Graph) edgeFor(a, b string) (*model.ConstraintEdge, bool) {
	key := model.PairKey(a, b)
	if id, ok := g.pairs[key]; ok {
		return g.edges[id], true
	}
	return &model.ConstraintEdge{ID: "c_" + uuid.NewString(), A: key[0], B: key[1], New: true}, false
}

func (g *Graph) insertEdge(edge *model.ConstraintEdge) {
	g.edges[edge.ID] = edge
	g.pairs[model.PairKey(edge.A, edge.B)] = edge.ID
}

func (g *Graph) deleteEdge(edge *model.ConstraintEdge) {
	if edge.HasOrder {
		_ = g.order.RemoveEdge(edge.Order.First, edge.Order.Then)
	}
	delete(g.edges, edge.ID)
	delete(g.pairs, model.PairKey(edge.A, edge.B))
}

func (g *Graph) edge(id string) (*model.ConstraintEdge, error) {
	edge, ok := g.edges[id]
	if !ok {
		return nil, errdef.NewNotFound("constraint %q not found", id)
	}
	return edge, nil
}

// AddOrder makes before start ahead of after. The edge of the pair is created if needed; an existing
// order on it is redirected. Orders closing a cycle are rejected.
func (g *Graph) AddOrder(before, after string) (string, error) {
	if err := g.checkEndpoints(before, after, true); err != nil {
		return "", err
	}

	edge, exists := g.edgeFor(before, after)
	if edge.HasOrder && edge.Order.First == before && edge.Order.Then == after {
		return edge.ID, nil
	}

	previous := edge.Order
	if edge.HasOrder {
		_ = g.order.RemoveEdge(previous.First, previous.Then)
	}
	if err := g.order.AddEdge(before, after); err != nil {
		if edge.HasOrder {
			_ = g.order.AddEdge(previous.First, previous.Then)
		}
		if errors.Is(err, graph.ErrEdgeCreatesCycle) {
			return "", errdef.NewInvalidEndpoint("order from %q to %q creates a cycle", before, after)
		}
		return "", fmt.Errorf("failed adding order from %q to %q: %v", before, after, err)
	}

	edge.HasOrder = true
	edge.Order = model.OrderSpec{First: before, Then: after, Score: previous.Score}
	if !exists {
		g.insertEdge(edge)
	}
	return edge.ID, nil
}

// AddColocation places node relative to withNode. A placeholder may only be one of them if
// placeholderAllowed is set.
func (g *Graph) AddColocation(node, withNode string, placeholderAllowed bool) (string, error) {
	if err := g.checkEndpoints(node, withNode, placeholderAllowed); err != nil {
		return "", err
	}

	edge, exists := g.edgeFor(node, withNode)
	edge.HasColocation = true
	edge.Colocation = model.ColocationSpec{Rsc: node, WithRsc: withNode, Score: edge.Colocation.Score}
	if !exists {
		g.insertEdge(edge)
	}
	return edge.ID, nil
}

// RemoveOrder clears the order of the edge. The edge is deleted if it has no colocation left.
func (g *Graph) RemoveOrder(edgeID string) error {
	edge, err := g.edge(edgeID)
	if err != nil {
		return err
	}
	if !edge.HasOrder {
		return nil
	}

	_ = g.order.RemoveEdge(edge.Order.First, edge.Order.Then)
	edge.HasOrder = false
	if !edge.HasColocation {
		g.deleteEdge(edge)
	}
	return nil
}

// RemoveColocation clears the colocation of the edge. The edge is deleted if it has no order left.
func (g *Graph) RemoveColocation(edgeID string) error {
	edge, err := g.edge(edgeID)
	if err != nil {
		return err
	}
	if !edge.HasColocation {
		return nil
	}

	edge.HasColocation = false
	if !edge.HasOrder {
		g.deleteEdge(edge)
	}
	return nil
}

// ToggleOrder removes the order of the edge if it has one and adds it otherwise. A re-added order
// takes its direction from the colocation on the same edge: the node placed with another starts
// after it.
func (g *Graph) ToggleOrder(edgeID string) (string, error) {
	edge, err := g.edge(edgeID)
	if err != nil {
		return "", err
	}
	if edge.HasOrder {
		return edgeID, g.RemoveOrder(edgeID)
	}

	first, then := edge.Colocation.WithRsc, edge.Colocation.Rsc
	return g.AddOrder(first, then)
}

// ToggleColocation removes the colocation of the edge if it has one and adds it otherwise. A
// re-added colocation takes its direction from the order on the same edge.
func (g *Graph) ToggleColocation(edgeID string) (string, error) {
	edge, err := g.edge(edgeID)
	if err != nil {
		return "", err
	}
	if edge.HasColocation {
		return edgeID, g.RemoveColocation(edgeID)
	}

	return g.AddColocation(edge.Order.Then, edge.Order.First, true)
}

func (g *Graph) IsOrder(edgeID string) bool {
	edge, ok := g.edges[edgeID]
	return ok && edge.HasOrder
}

func (g *Graph) IsColocation(edgeID string) bool {
	edge, ok := g.edges[edgeID]
	return ok && edge.HasColocation
}

// Edge returns a copy of the edge.
func (g *Graph) Edge(edgeID string) (model.ConstraintEdge, error) {
	edge, err := g.edge(edgeID)
	if err != nil {
		return model.ConstraintEdge{}, err
	}
	return *edge, nil
}

// EdgeBetween returns the id of the edge connecting a and b.
func (g *Graph) EdgeBetween(a, b string) (string, bool) {
	id, ok := g.pairs[model.PairKey(a, b)]
	return id, ok
}

// Edges returns copies of all edges ordered by id.
func (g *Graph) Edges() []model.ConstraintEdge {
	edges := make([]model.ConstraintEdge, 0, len(g.edges))
	for _, edge := range g.edges {
		edges = append(edges, *edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].ID < edges[j].ID
	})
	return edges
}

// StartOrder returns the node ids in an order satisfying every order constraint. Ties are broken by
// id so the result is stable.
func (g *Graph) StartOrder() ([]string, error) {
	ids, err := graph.StableTopologicalSort(g.order, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, fmt.Errorf("failed sorting order constraints: %v", err)
	}
	return ids, nil
}
