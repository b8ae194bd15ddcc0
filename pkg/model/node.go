package model

// Kind selects the behavior of a ServiceNode.
type Kind string

const (
	KindPlain         Kind = "plain"
	KindFilesystem    Kind = "filesystem"
	KindIPAddress     Kind = "ipaddress"
	KindGroup         Kind = "group"
	KindClone         Kind = "clone"
	KindLinbitDrbd    Kind = "linbitDrbd"
	KindDrbddisk      Kind = "drbddisk"
	KindVirtualDomain Kind = "virtualDomain"
	// KindPlaceholder stands in for a resource set as one end of a constraint.
	KindPlaceholder Kind = "placeholder"
)

// IsLinked reports whether nodes of this kind claim an external entity through a link registry.
func (k Kind) IsLinked() bool {
	return k == KindLinbitDrbd || k == KindDrbddisk || k == KindVirtualDomain
}

// ServiceNode is one configured cluster resource.
// swagger:model ServiceNode
type ServiceNode struct {
	ID     string            `json:"id"`
	Kind   Kind              `json:"kind"`
	Agent  *ResourceAgent    `json:"agent,omitempty"`
	Params map[string]string `json:"params"`

	New      bool `json:"new"`
	Removed  bool `json:"removed"`
	Orphaned bool `json:"orphaned"`
	Managed  bool `json:"managed"`
	Master   bool `json:"master"`

	// Children holds the ordered child ids of a group.
	Children []string `json:"children,omitempty"`
	// Contained is the id of the single service of a clone.
	Contained string `json:"contained,omitempty"`
	// LinkKey is the DRBD resource or VM name a linked node currently claims.
	LinkKey string        `json:"linkKey,omitempty"`
	VM      *VMDefinition `json:"vm,omitempty"`
}

// Copy returns a deep copy of the node. The agent is shared.
func (n *ServiceNode) Copy() *ServiceNode {
	c := *n
	c.Params = make(map[string]string, len(n.Params))
	for k, v := range n.Params {
		c.Params[k] = v
	}
	c.Children = append([]string(nil), n.Children...)
	if n.VM != nil {
		vm := *n.VM
		vm.Hosts = append([]string(nil), n.VM.Hosts...)
		c.VM = &vm
	}
	return &c
}

func (n *ServiceNode) IsPlaceholder() bool {
	return n.Kind == KindPlaceholder
}

// VMDefinition is a virtual machine known to the hosts of the cluster.
type VMDefinition struct {
	Name       string   `json:"name"`
	ConfigPath string   `json:"configPath"`
	Hosts      []string `json:"hosts"`
}
