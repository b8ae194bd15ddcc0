package cluster

import (
	"github.com/lcmc/crm-manager/pkg/constraint"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
)

// NodeView is a node as presented to clients.
type NodeView struct {
	ID        string            `json:"id"`
	Identity  string            `json:"identity"`
	Name      string            `json:"name"`
	Kind      model.Kind        `json:"kind"`
	Agent     string            `json:"agent,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	New       bool              `json:"new"`
	Removed   bool              `json:"removed"`
	Orphaned  bool              `json:"orphaned"`
	Managed   bool              `json:"managed"`
	Master    bool              `json:"master"`
	Children  []string          `json:"children,omitempty"`
	Contained string            `json:"contained,omitempty"`
	LinkKey   string            `json:"linkKey,omitempty"`
}

// GraphView is the dependency graph as presented to clients.
// swagger:model GraphView
type GraphView struct {
	Nodes []NodeView             `json:"nodes"`
	Edges []model.ConstraintEdge `json:"edges"`
}

func newGraphView(snapshot constraint.Snapshot) GraphView {
	nodes := make([]NodeView, len(snapshot.Nodes))
	for i, node := range snapshot.Nodes {
		var contained *model.ServiceNode
		if node.Contained != "" {
			contained, _ = snapshot.Node(node.Contained)
		}

		view := NodeView{
			ID:        node.ID,
			Identity:  service.Identity(node, contained),
			Name:      service.DisplayName(node, contained),
			Kind:      node.Kind,
			Params:    node.Params,
			New:       node.New,
			Removed:   node.Removed,
			Orphaned:  node.Orphaned,
			Managed:   node.Managed,
			Master:    node.Master,
			Children:  node.Children,
			Contained: node.Contained,
			LinkKey:   node.LinkKey,
		}
		if node.Agent != nil {
			view.Agent = node.Agent.ID()
		}
		nodes[i] = view
	}
	return GraphView{Nodes: nodes, Edges: snapshot.Edges}
}
