package model

import (
	"time"

	"golang.org/x/exp/slices"
)

// ResourceStatus is the live state of one resource.
type ResourceStatus struct {
	RunningOn []string `json:"runningOn"`
	MasterOn  []string `json:"masterOn,omitempty"`
	Managed   bool     `json:"managed"`
	Failed    bool     `json:"failed"`
	// Agent is the resource agent reported for a primitive, e.g. "ocf::heartbeat:IPaddr2".
	Agent string `json:"agent,omitempty"`
}

// HostStatus is the live CRM state of one cluster host.
type HostStatus struct {
	Online  bool `json:"online"`
	Standby bool `json:"standby"`
	Unclean bool `json:"unclean"`
}

// OK reports whether the host can take part in resource placement.
func (h HostStatus) OK() bool {
	return h.Online && !h.Standby && !h.Unclean
}

// ClusterStatus is a snapshot of the cluster as reported by the CRM. Snapshots are replaced as a
// whole and never mutated once published.
// swagger:model ClusterStatus
type ClusterStatus struct {
	Resources       map[string]ResourceStatus `json:"resources"`
	Hosts           map[string]HostStatus     `json:"hosts"`
	CRMStatusFailed bool                      `json:"crmStatusFailed"`
	DC              string                    `json:"dc"`
	PolledAt        time.Time                 `json:"polledAt"`
}

// EmptyStatus is the snapshot used before the first poll. It fails closed.
func EmptyStatus() *ClusterStatus {
	return &ClusterStatus{
		Resources:       map[string]ResourceStatus{},
		Hosts:           map[string]HostStatus{},
		CRMStatusFailed: true,
	}
}

// Copy returns a deep copy of the snapshot.
func (s *ClusterStatus) Copy() *ClusterStatus {
	c := &ClusterStatus{
		Resources:       make(map[string]ResourceStatus, len(s.Resources)),
		Hosts:           make(map[string]HostStatus, len(s.Hosts)),
		CRMStatusFailed: s.CRMStatusFailed,
		DC:              s.DC,
		PolledAt:        s.PolledAt,
	}
	for id, r := range s.Resources {
		r.RunningOn = slices.Clone(r.RunningOn)
		r.MasterOn = slices.Clone(r.MasterOn)
		c.Resources[id] = r
	}
	for name, h := range s.Hosts {
		c.Hosts[name] = h
	}
	return c
}

// Failed returns a copy of the snapshot with the CRM status flagged as failed.
func (s *ClusterStatus) Failed() *ClusterStatus {
	c := s.Copy()
	c.CRMStatusFailed = true
	return c
}
