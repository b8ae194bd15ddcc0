// Package service creates service nodes. The agent of a node decides its kind. DRBD backed and
// virtual domain nodes claim an external entity by name; those claims live in a Registry so that a
// DRBD resource or VM is claimed by at most one node.
package service

import (
	"fmt"
	"log/slog"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/catalog"
	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/maps"
)

// Link keys of the linked kinds.
const (
	ParamDrbdResource = "drbd_resource"
	// ParamDrbddiskResource is the first positional argument of the heartbeat drbddisk agent.
	ParamDrbddiskResource = "1"
	ParamVMConfig         = "config"
)

// Nodes gives access to nodes already known so superseded claims can be cleared on them.
type Nodes interface {
	Node(id string) (*model.ServiceNode, error)
}

// VMDefinitionSource looks up virtual machines by the name derived from their config file.
type VMDefinitionSource interface {
	FindByConfigName(name string) (*model.VMDefinition, bool)
}

type Factory struct {
	logger   *slog.Logger
	drbd     *Registry
	vms      *Registry
	vmSource VMDefinitionSource
	nodes    Nodes
	subnets  []netip.Prefix
}

type FactoryOption func(*Factory)

func WithVMSource(source VMDefinitionSource) FactoryOption {
	return func(f *Factory) {
		f.vmSource = source
	}
}

func WithNodes(nodes Nodes) FactoryOption {
	return func(f *Factory) {
		f.nodes = nodes
	}
}

// WithSubnets restricts IP address services to the given host subnets.
func WithSubnets(subnets ...netip.Prefix) FactoryOption {
	return func(f *Factory) {
		f.subnets = subnets
	}
}

func NewFactory(logger *slog.Logger, drbd, vms *Registry, options ...FactoryOption) *Factory {
	f := &Factory{
		logger: logger,
		drbd:   drbd,
		vms:    vms,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// DrbdRegistry returns the registry of DRBD resource claims.
func (f *Factory) DrbdRegistry() *Registry {
	return f.drbd
}

// VMRegistry returns the registry of VM claims.
func (f *Factory) VMRegistry() *Registry {
	return f.vms
}

// Fork returns a factory working on copies of the registries of f whose superseded claims are
// cleared on nodes. Changes made through the fork never reach f.
func (f *Factory) Fork(nodes Nodes) *Factory {
	return &Factory{
		logger:   f.logger,
		drbd:     f.drbd.Copy(),
		vms:      f.vms.Copy(),
		vmSource: f.vmSource,
		nodes:    nodes,
		subnets:  f.subnets,
	}
}

type nodeOptions struct {
	master   bool
	isNew    bool
	managed  bool
	orphaned bool
}

type Option func(*nodeOptions)

// Master selects promotable semantics for a clone. It is ignored for other kinds.
func Master(master bool) Option {
	return func(o *nodeOptions) {
		o.master = master
	}
}

// New marks the node as created locally and not yet known to the CRM.
func New() Option {
	return func(o *nodeOptions) {
		o.isNew = true
	}
}

func Unmanaged() Option {
	return func(o *nodeOptions) {
		o.managed = false
	}
}

// Orphaned marks the node as reported by the CRM without being configured in the model.
func Orphaned() Option {
	return func(o *nodeOptions) {
		o.orphaned = true
	}
}

// KindOf returns the kind of node created for agent. The checks run in precedence order, the first
// match wins.
func KindOf(agent *model.ResourceAgent) model.Kind {
	switch {
	case agent == nil:
		return model.KindPlain
	case agent.IsFilesystem():
		return model.KindFilesystem
	case agent.IsLinbitDrbd():
		return model.KindLinbitDrbd
	case agent.IsDrbddisk():
		return model.KindDrbddisk
	case agent.IsIPAddr():
		return model.KindIPAddress
	case agent.IsVirtualDomain():
		return model.KindVirtualDomain
	case agent.IsGroup():
		return model.KindGroup
	case agent.IsClone():
		return model.KindClone
	}
	return model.KindPlain
}

// NewNode creates the node variant matching agent. An empty id is replaced by a generated one.
// Linked kinds claim their DRBD resource or VM right away, taking it over from any node that held
// it before.
func (f *Factory) NewNode(id string, agent *model.ResourceAgent, params map[string]string, options ...Option) (*model.ServiceNode, error) {
	o := nodeOptions{managed: true}
	for _, option := range options {
		option(&o)
	}

	kind := KindOf(agent)
	if id == "" {
		id = generateID(kind, agent)
	}

	node := &model.ServiceNode{
		ID:       id,
		Kind:     kind,
		Agent:    agent,
		Params:   maps.Clone(params),
		New:      o.isNew,
		Orphaned: o.orphaned,
		Managed:  o.managed,
		Master:   kind == model.KindClone && o.master,
	}
	if node.Params == nil {
		node.Params = map[string]string{}
	}

	if kind == model.KindIPAddress && node.Params["ip"] != "" {
		if err := ValidateIP(node.Params, f.subnets); err != nil {
			return nil, err
		}
	}

	f.link(node)
	return node, nil
}

// NewPlaceholder creates a placeholder standing in for a resource set.
func (f *Factory) NewPlaceholder(id string) *model.ServiceNode {
	if id == "" {
		id = "ph_" + uuid.NewString()[:8]
	}
	return &model.ServiceNode{ID: id, Kind: model.KindPlaceholder, Params: map[string]string{}, Managed: true}
}

func generateID(kind model.Kind, agent *model.ResourceAgent) string {
	suffix := uuid.NewString()[:8]
	switch kind {
	case model.KindGroup:
		return "grp_" + suffix
	case model.KindClone:
		return "cl_" + suffix
	}
	if agent == nil {
		return "res_" + suffix
	}
	return fmt.Sprintf("res_%s_%s", agent.Name, suffix)
}

// SetParams replaces the parameters of node after validating them. When the change moves the link
// key of a linked node, the old claim is released before the new one is made.
func (f *Factory) SetParams(node *model.ServiceNode, params map[string]string) error {
	if node.IsPlaceholder() {
		return errdef.NewBadRequest("placeholder %q has no parameters", node.ID)
	}
	if err := catalog.ValidateParams(node.Agent, params); err != nil {
		return err
	}
	if node.Kind == model.KindIPAddress {
		if err := ValidateIP(params, f.subnets); err != nil {
			return err
		}
	}

	node.Params = maps.Clone(params)
	f.link(node)
	return nil
}

// Release drops every claim held by node.
func (f *Factory) Release(node *model.ServiceNode) {
	if registry := f.registryOf(node.Kind); registry != nil {
		registry.Unlink(node.ID)
	}
	node.LinkKey = ""
	node.VM = nil
}

func (f *Factory) registryOf(kind model.Kind) *Registry {
	switch kind {
	case model.KindLinbitDrbd, model.KindDrbddisk:
		return f.drbd
	case model.KindVirtualDomain:
		return f.vms
	}
	return nil
}

// LinkKey returns the name of the entity a node of the given kind claims with params.
func LinkKey(kind model.Kind, params map[string]string) string {
	switch kind {
	case model.KindLinbitDrbd:
		return params[ParamDrbdResource]
	case model.KindDrbddisk:
		return params[ParamDrbddiskResource]
	case model.KindVirtualDomain:
		return vmName(params[ParamVMConfig])
	}
	return ""
}

// vmName derives the VM name from the path of its libvirt config file.
func vmName(config string) string {
	if config == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(config), ".xml")
}

func (f *Factory) link(node *model.ServiceNode) {
	registry := f.registryOf(node.Kind)
	if registry == nil {
		return
	}

	key := LinkKey(node.Kind, node.Params)
	if key == "" {
		registry.Unlink(node.ID)
		node.LinkKey = ""
		node.VM = nil
		return
	}
	if holder, ok := registry.Get(key); ok && holder == node.ID {
		node.LinkKey = key
		return
	}

	superseded := registry.Link(key, node.ID)
	node.LinkKey = key
	if node.Kind == model.KindVirtualDomain {
		node.VM = nil
		if f.vmSource != nil {
			if vm, ok := f.vmSource.FindByConfigName(key); ok {
				node.VM = vm
			}
		}
	}

	if superseded == "" {
		return
	}
	if f.logger != nil {
		f.logger.Info("Link taken over", "key", key, "node", node.ID, "previous", superseded)
	}
	if f.nodes == nil {
		return
	}
	if previous, err := f.nodes.Node(superseded); err == nil {
		previous.LinkKey = ""
		previous.VM = nil
	}
}
