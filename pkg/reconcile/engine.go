// Package reconcile merges the configured service nodes with a cluster status snapshot. Nothing is
// cached: every query reads the nodes and the snapshot it is given, so results always reflect the
// latest mutation and poll.
package reconcile

import (
	"sort"

	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// Nodes gives access to configured service nodes.
type Nodes interface {
	Node(id string) (*model.ServiceNode, error)
}

// View is what a query is evaluated against. Simulated is the projected status after a pending
// mutation and is read in model.Test mode; Live is read otherwise and when there is no projection.
type View struct {
	Nodes     Nodes
	Live      *model.ClusterStatus
	Simulated *model.ClusterStatus
}

func (v View) status(mode model.RunMode) *model.ClusterStatus {
	if mode == model.Test && v.Simulated != nil {
		return v.Simulated
	}
	if v.Live == nil {
		return model.EmptyStatus()
	}
	return v.Live
}

// Result is the reconciled state of one node.
// swagger:model QueryResult
type Result struct {
	Node           string             `json:"node"`
	Mode           model.RunMode      `json:"mode"`
	Available      bool               `json:"available"`
	Managed        bool               `json:"managed"`
	Failed         bool               `json:"failed"`
	RunningOn      []string           `json:"runningOn"`
	CanMigrateFrom map[string]bool    `json:"canMigrateFrom"`
	MigrateShape   model.MigrateShape `json:"migrateShape"`
}

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// RunningOnNodes returns the sorted hosts node runs on. A group without a status of its own runs
// where its first member runs; a clone runs wherever its service runs.
func (e *Engine) RunningOnNodes(v View, node *model.ServiceNode, mode model.RunMode) []string {
	status := v.status(mode)
	hosts := slices.Clone(status.Resources[node.ID].RunningOn)

	switch node.Kind {
	case model.KindGroup:
		if len(hosts) == 0 && len(node.Children) > 0 {
			hosts = slices.Clone(status.Resources[node.Children[0]].RunningOn)
		}
	case model.KindClone:
		if node.Contained != "" {
			hosts = append(hosts, status.Resources[node.Contained].RunningOn...)
		}
	}

	if len(hosts) == 0 {
		return []string{}
	}
	sort.Strings(hosts)
	return slices.Compact(hosts)
}

// IsAvailable reports whether actions on node may run. It is false for orphaned and removed nodes,
// for resources the status reports as unmanaged or failed and for every node while the CRM status
// has failed. Nodes the status does not report yet fall back to their configured managed flag.
func (e *Engine) IsAvailable(v View, node *model.ServiceNode, mode model.RunMode) bool {
	status := v.status(mode)
	if status.CRMStatusFailed || node.Orphaned || node.Removed {
		return false
	}
	return e.isManaged(status, node) && !status.Resources[node.ID].Failed
}

func (e *Engine) isManaged(status *model.ClusterStatus, node *model.ServiceNode) bool {
	if row, ok := status.Resources[node.ID]; ok {
		return row.Managed
	}
	return node.Managed
}

// CanMigrateFrom reports whether node can be migrated away from host: the CRM status is healthy,
// host itself is OK and node runs on it.
func (e *Engine) CanMigrateFrom(v View, node *model.ServiceNode, host string, mode model.RunMode) bool {
	status := v.status(mode)
	if status.CRMStatusFailed {
		return false
	}
	if !status.Hosts[host].OK() {
		return false
	}
	return slices.Contains(e.RunningOnNodes(v, node, mode), host)
}

// MigrateShape returns the form of migration command node needs. Promotable clones, and clones whose
// service the live status reports as promoted, are migrated with the master aware command.
func (e *Engine) MigrateShape(v View, node *model.ServiceNode) model.MigrateShape {
	if node.Kind != model.KindClone {
		return model.MigratePlain
	}
	if node.Master {
		return model.MigrateMaster
	}
	if node.Contained != "" && v.Nodes != nil {
		if contained, err := v.Nodes.Node(node.Contained); err == nil && len(v.status(model.Live).Resources[contained.ID].MasterOn) > 0 {
			return model.MigrateMaster
		}
	}
	return model.MigratePlain
}

// Query reconciles the node with the given id.
func (e *Engine) Query(v View, id string, mode model.RunMode) (Result, error) {
	node, err := v.Nodes.Node(id)
	if err != nil {
		return Result{}, err
	}

	status := v.status(mode)
	canMigrate := make(map[string]bool, len(status.Hosts))
	for host := range status.Hosts {
		canMigrate[host] = e.CanMigrateFrom(v, node, host, mode)
	}

	return Result{
		Node:           id,
		Mode:           mode,
		Available:      e.IsAvailable(v, node, mode),
		Managed:        e.isManaged(status, node),
		Failed:         status.Resources[node.ID].Failed,
		RunningOn:      e.RunningOnNodes(v, node, mode),
		CanMigrateFrom: canMigrate,
		MigrateShape:   e.MigrateShape(v, node),
	}, nil
}
