package service_test

import (
	"log/slog"
	"net/netip"
	"testing"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	filesystem    = &model.ResourceAgent{Class: "ocf", Provider: "heartbeat", Name: "Filesystem"}
	ipaddr2       = &model.ResourceAgent{Class: "ocf", Provider: "heartbeat", Name: "IPaddr2", Parameters: []model.Parameter{{Name: "ip", Required: true}}}
	linbitDrbd    = &model.ResourceAgent{Class: "ocf", Provider: "linbit", Name: "drbd", MasterSlave: true}
	drbddisk      = &model.ResourceAgent{Class: "heartbeat", Name: "drbddisk"}
	virtualDomain = &model.ResourceAgent{Class: "ocf", Provider: "heartbeat", Name: "VirtualDomain"}
	apache        = &model.ResourceAgent{Class: "lsb", Name: "apache"}
)

type nodes map[string]*model.ServiceNode

func (n nodes) Node(id string) (*model.ServiceNode, error) {
	node, ok := n[id]
	if !ok {
		return nil, errdef.NewNotFound("node %q not found", id)
	}
	return node, nil
}

type vmSource map[string]*model.VMDefinition

func (v vmSource) FindByConfigName(name string) (*model.VMDefinition, bool) {
	vm, ok := v[name]
	return vm, ok
}

func TestKindOf(t *testing.T) {
	tests := map[string]struct {
		agent *model.ResourceAgent
		kind  model.Kind
	}{
		"Unknown":       {nil, model.KindPlain},
		"Filesystem":    {filesystem, model.KindFilesystem},
		"IPaddr2":       {ipaddr2, model.KindIPAddress},
		"LinbitDrbd":    {linbitDrbd, model.KindLinbitDrbd},
		"Drbddisk":      {drbddisk, model.KindDrbddisk},
		"VirtualDomain": {virtualDomain, model.KindVirtualDomain},
		"Group":         {model.GroupAgent, model.KindGroup},
		"Clone":         {model.CloneAgent, model.KindClone},
		"Generic":       {apache, model.KindPlain},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.kind, service.KindOf(test.agent))
		})
	}
}

func TestNewNode(t *testing.T) {
	t.Run("GeneratesID", func(t *testing.T) {
		f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry())

		node, err := f.NewNode("", apache, nil, service.New())
		require.NoError(t, err)

		assert.Contains(t, node.ID, "res_apache_")
		assert.True(t, node.New)
		assert.True(t, node.Managed)
		assert.NotNil(t, node.Params)
	})

	t.Run("MasterIsExplicit", func(t *testing.T) {
		f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry())

		plain, err := f.NewNode("cl1", model.CloneAgent, nil)
		require.NoError(t, err)
		master, err := f.NewNode("ms1", model.CloneAgent, nil, service.Master(true))
		require.NoError(t, err)
		notClone, err := f.NewNode("a", apache, nil, service.Master(true))
		require.NoError(t, err)

		assert.False(t, plain.Master)
		assert.True(t, master.Master)
		assert.False(t, notClone.Master)
	})

	t.Run("FailGivenInvalidIP", func(t *testing.T) {
		f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry())

		_, err := f.NewNode("ip1", ipaddr2, map[string]string{"ip": "10.0.0.500"})

		assert.True(t, errdef.IsBadRequest(err))
	})

	t.Run("FailGivenIPOutsideOfHostSubnets", func(t *testing.T) {
		f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry(), service.WithSubnets(netip.MustParsePrefix("10.0.0.0/24")))

		_, err := f.NewNode("ip1", ipaddr2, map[string]string{"ip": "192.168.1.5"})
		require.ErrorContains(t, err, "not part of any host subnet")

		node, err := f.NewNode("ip2", ipaddr2, map[string]string{"ip": "10.0.0.5"})
		require.NoError(t, err)
		assert.Equal(t, model.KindIPAddress, node.Kind)
	})

	t.Run("VirtualDomainLinksToVM", func(t *testing.T) {
		vm := &model.VMDefinition{Name: "web", ConfigPath: "/etc/libvirt/qemu/web.xml"}
		vms := service.NewRegistry()
		f := service.NewFactory(slog.Default(), service.NewRegistry(), vms, service.WithVMSource(vmSource{"web": vm}))

		node, err := f.NewNode("vm1", virtualDomain, map[string]string{"config": "/etc/libvirt/qemu/web.xml"})
		require.NoError(t, err)

		assert.Equal(t, "web", node.LinkKey)
		assert.Same(t, vm, node.VM)
		id, ok := vms.Get("web")
		assert.True(t, ok)
		assert.Equal(t, "vm1", id)
	})
}

func TestDrbdLinkUniqueness(t *testing.T) {
	drbd := service.NewRegistry()
	known := nodes{}
	f := service.NewFactory(slog.Default(), drbd, service.NewRegistry(), service.WithNodes(known))

	first, err := f.NewNode("drbd1", linbitDrbd, map[string]string{"drbd_resource": "r0"})
	require.NoError(t, err)
	known[first.ID] = first
	second, err := f.NewNode("drbd2", drbddisk, map[string]string{"1": "r0"})
	require.NoError(t, err)
	known[second.ID] = second

	id, ok := drbd.Get("r0")
	require.True(t, ok)
	assert.Equal(t, "drbd2", id)
	assert.Equal(t, 1, drbd.Len())
	assert.Equal(t, "r0", second.LinkKey)
	assert.Empty(t, first.LinkKey, "superseded node must lose its back reference")
	_, ok = drbd.KeyOf("drbd1")
	assert.False(t, ok)
}

func TestSetParams(t *testing.T) {
	t.Run("RelinkClearsOldKey", func(t *testing.T) {
		drbd := service.NewRegistry()
		f := service.NewFactory(slog.Default(), drbd, service.NewRegistry())
		node, err := f.NewNode("drbd1", linbitDrbd, map[string]string{"drbd_resource": "r0"})
		require.NoError(t, err)

		err = f.SetParams(node, map[string]string{"drbd_resource": "r1"})
		require.NoError(t, err)

		_, ok := drbd.Get("r0")
		assert.False(t, ok)
		id, ok := drbd.Get("r1")
		assert.True(t, ok)
		assert.Equal(t, "drbd1", id)
		assert.Equal(t, "r1", node.LinkKey)
	})

	t.Run("EmptyKeyReleasesClaim", func(t *testing.T) {
		drbd := service.NewRegistry()
		f := service.NewFactory(slog.Default(), drbd, service.NewRegistry())
		node, err := f.NewNode("drbd1", linbitDrbd, map[string]string{"drbd_resource": "r0"})
		require.NoError(t, err)

		require.NoError(t, f.SetParams(node, map[string]string{}))

		assert.Equal(t, 0, drbd.Len())
		assert.Empty(t, node.LinkKey)
	})

	t.Run("FailGivenMissingRequiredParameter", func(t *testing.T) {
		f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry())
		node, err := f.NewNode("ip1", ipaddr2, map[string]string{"ip": "10.0.0.5"})
		require.NoError(t, err)

		err = f.SetParams(node, map[string]string{"cidr_netmask": "24"})

		require.Error(t, err)
		assert.Equal(t, "10.0.0.5", node.Params["ip"], "parameters must be left untouched")
	})

	t.Run("Release", func(t *testing.T) {
		drbd := service.NewRegistry()
		f := service.NewFactory(slog.Default(), drbd, service.NewRegistry())
		node, err := f.NewNode("drbd1", linbitDrbd, map[string]string{"drbd_resource": "r0"})
		require.NoError(t, err)

		f.Release(node)

		assert.Equal(t, 0, drbd.Len())
	})
}

func TestValidateIP(t *testing.T) {
	tests := map[string]struct {
		params map[string]string
		valid  bool
	}{
		"IPv4":           {map[string]string{"ip": "10.0.0.5"}, true},
		"IPv6":           {map[string]string{"ip": "fd00::5", "cidr_netmask": "64"}, true},
		"Missing":        {map[string]string{}, false},
		"Hostname":       {map[string]string{"ip": "hostA"}, false},
		"NetmaskTooWide": {map[string]string{"ip": "10.0.0.5", "cidr_netmask": "33"}, false},
		"NetmaskNotInt":  {map[string]string{"ip": "10.0.0.5", "cidr_netmask": "255.255.255.0"}, false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := service.ValidateIP(test.params, nil)
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errdef.IsBadRequest(err))
			}
		})
	}
}
