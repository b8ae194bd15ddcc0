package model

// MutationKind names a change to the cluster configuration.
type MutationKind string

const (
	MutationAddOrder          MutationKind = "addOrder"
	MutationRemoveOrder       MutationKind = "removeOrder"
	MutationToggleOrder       MutationKind = "toggleOrder"
	MutationAddColocation     MutationKind = "addColocation"
	MutationRemoveColocation  MutationKind = "removeColocation"
	MutationToggleColocation  MutationKind = "toggleColocation"
	MutationRemoveService     MutationKind = "removeService"
	MutationRemovePlaceholder MutationKind = "removePlaceholder"
	MutationSetParams         MutationKind = "setParams"
	MutationMigrate           MutationKind = "migrate"
	MutationMigrateFrom       MutationKind = "migrateFrom"
	MutationUnmigrate         MutationKind = "unmigrate"
	MutationStart             MutationKind = "start"
	MutationStop              MutationKind = "stop"
)

// Mutation is a request to change the cluster configuration. Which fields are used depends on Kind:
// orders and colocations use Node and With, edge removals and toggles use Edge, migrations use Node
// and Host.
// swagger:model Mutation
type Mutation struct {
	Kind               MutationKind      `json:"kind" binding:"required,oneOf=addOrder removeOrder toggleOrder addColocation removeColocation toggleColocation removeService removePlaceholder setParams migrate migrateFrom unmigrate start stop"`
	Node               string            `json:"node,omitempty"`
	With               string            `json:"with,omitempty"`
	Edge               string            `json:"edge,omitempty"`
	Host               string            `json:"host,omitempty"`
	Params             map[string]string `json:"params,omitempty"`
	PlaceholderAllowed bool              `json:"placeholderAllowed,omitempty"`
}
