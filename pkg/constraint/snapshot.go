package constraint

import (
	"fmt"

	"github.com/lcmc/crm-manager/pkg/model"
)

// Snapshot is a read-only copy of the nodes and edges of a graph.
// swagger:model GraphSnapshot
type Snapshot struct {
	Nodes []*model.ServiceNode   `json:"nodes"`
	Edges []model.ConstraintEdge `json:"edges"`
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (*model.ServiceNode, bool) {
	for _, node := range s.Nodes {
		if node.ID == id {
			return node, true
		}
	}
	return nil, false
}

// Snapshot returns a deep copy of the graph.
func (g *Graph) Snapshot() Snapshot {
	nodes := g.Nodes()
	copies := make([]*model.ServiceNode, len(nodes))
	for i, node := range nodes {
		copies[i] = node.Copy()
	}
	return Snapshot{
		Nodes: copies,
		Edges: g.Edges(),
	}
}

// FromSnapshot builds a graph holding copies of the nodes and edges of s.
func FromSnapshot(s Snapshot) (*Graph, error) {
	g := New()
	for _, node := range s.Nodes {
		if err := g.AddNode(node.Copy()); err != nil {
			return nil, err
		}
	}
	for _, e := range s.Edges {
		edge := e
		if edge.HasOrder {
			if err := g.order.AddEdge(edge.Order.First, edge.Order.Then); err != nil {
				return nil, fmt.Errorf("failed restoring order %q: %v", edge.ID, err)
			}
		}
		g.insertEdge(&edge)
	}
	return g, nil
}

// Copy returns an independent deep copy of the graph.
func (g *Graph) Copy() *Graph {
	c, err := FromSnapshot(g.Snapshot())
	if err != nil {
		// a snapshot of a consistent graph always restores
		panic(err)
	}
	return c
}

// Restore replaces the content of the graph with s.
func (g *Graph) Restore(s Snapshot) error {
	restored, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	*g = *restored
	return nil
}
