package model

import "fmt"

// Well known resource agent classes and providers.
const (
	ClassOCF       = "ocf"
	ClassHeartbeat = "heartbeat"
	ClassLSB       = "lsb"
	ClassService   = "service"
	ClassSystemd   = "systemd"
	ClassStonith   = "stonith"
	ClassGroup     = "group"
	ClassClone     = "clone"

	ProviderHeartbeat = "heartbeat"
	ProviderLinbit    = "linbit"
)

// GroupAgent and CloneAgent are the pseudo agents of groups and clones. They carry meta attributes
// only.
var (
	GroupAgent = &ResourceAgent{Class: ClassGroup, Name: "Group"}
	CloneAgent = &ResourceAgent{Class: ClassClone, Name: "Clone", MasterSlave: true}
)

// ResourceAgent describes a resource agent as provided by the catalog. It is never mutated after it
// has been loaded and is shared by every service node using it.
// swagger:model ResourceAgent
type ResourceAgent struct {
	Class       string      `json:"class" yaml:"class" validate:"required"`
	Provider    string      `json:"provider,omitempty" yaml:"provider"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Version     string      `json:"version,omitempty" yaml:"version"`
	ShortDesc   string      `json:"shortDesc,omitempty" yaml:"shortDesc"`
	LongDesc    string      `json:"longDesc,omitempty" yaml:"longDesc"`
	MasterSlave bool        `json:"masterSlave" yaml:"masterSlave"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters" validate:"dive"`
}

// Parameter is one entry of a resource agents ordered parameter schema.
type Parameter struct {
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Type            string   `json:"type" yaml:"type" validate:"omitempty,oneof=string integer boolean time"`
	Default         string   `json:"default,omitempty" yaml:"default"`
	PossibleChoices []string `json:"possibleChoices,omitempty" yaml:"possibleChoices"`
	Required        bool     `json:"required" yaml:"required"`
	Advanced        bool     `json:"advanced" yaml:"advanced"`
	ShortDesc       string   `json:"shortDesc,omitempty" yaml:"shortDesc"`
}

// ID returns the class:provider:name triple identifying the agent.
func (a *ResourceAgent) ID() string {
	if a.Provider == "" {
		return fmt.Sprintf("%s:%s", a.Class, a.Name)
	}
	return fmt.Sprintf("%s:%s:%s", a.Class, a.Provider, a.Name)
}

// Parameter returns the schema of the named parameter.
func (a *ResourceAgent) Parameter(name string) (Parameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

func (a *ResourceAgent) isHeartbeatOCF(name string) bool {
	return a.Class == ClassOCF && a.Provider == ProviderHeartbeat && a.Name == name
}

func (a *ResourceAgent) IsFilesystem() bool {
	return a.isHeartbeatOCF("Filesystem")
}

func (a *ResourceAgent) IsGroup() bool {
	return a.Class == ClassGroup
}

func (a *ResourceAgent) IsClone() bool {
	return a.Class == ClassClone
}

func (a *ResourceAgent) IsLinbitDrbd() bool {
	return a.Class == ClassOCF && a.Provider == ProviderLinbit && a.Name == "drbd"
}

func (a *ResourceAgent) IsDrbddisk() bool {
	return a.Class == ClassHeartbeat && a.Name == "drbddisk"
}

func (a *ResourceAgent) IsIPAddr() bool {
	return a.isHeartbeatOCF("IPaddr") || a.isHeartbeatOCF("IPaddr2")
}

func (a *ResourceAgent) IsVirtualDomain() bool {
	return a.isHeartbeatOCF("VirtualDomain")
}
