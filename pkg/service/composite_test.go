package service_test

import (
	"testing"

	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup(t *testing.T) {
	group := &model.ServiceNode{ID: "grp", Kind: model.KindGroup}
	a := &model.ServiceNode{ID: "a", Kind: model.KindPlain}
	b := &model.ServiceNode{ID: "b", Kind: model.KindIPAddress}

	require.NoError(t, service.AddChild(group, a))
	require.NoError(t, service.AddChild(group, b))
	assert.Equal(t, []string{"a", "b"}, group.Children)

	err := service.AddChild(group, &model.ServiceNode{ID: "cl", Kind: model.KindClone})
	assert.Error(t, err)
	assert.Error(t, service.AddChild(group, a), "children are unique")

	assert.True(t, service.RemoveChild(group, "a"))
	assert.False(t, service.RemoveChild(group, "a"))
	assert.Equal(t, []string{"b"}, group.Children)
}

func TestClone(t *testing.T) {
	t.Run("IdentityFollowsContainedService", func(t *testing.T) {
		clone := &model.ServiceNode{ID: "cl_1", Kind: model.KindClone}
		drbd := &model.ServiceNode{ID: "drbd_r0", Kind: model.KindLinbitDrbd, Agent: linbitDrbd}

		assert.Equal(t, "cl_1", service.Identity(clone, nil))
		require.NoError(t, service.SetContained(clone, drbd))

		assert.Equal(t, "cl_drbd_r0", service.Identity(clone, drbd))
		clone.Master = true
		assert.Equal(t, "ms_drbd_r0", service.Identity(clone, drbd))
		assert.Equal(t, "Master/Slave Set (drbd (drbd_r0))", service.DisplayName(clone, drbd))
	})

	t.Run("DetachKeepsService", func(t *testing.T) {
		clone := &model.ServiceNode{ID: "cl_1", Kind: model.KindClone}
		a := &model.ServiceNode{ID: "a", Kind: model.KindPlain}
		require.NoError(t, service.SetContained(clone, a))

		id := service.DetachContained(clone)

		assert.Equal(t, "a", id)
		assert.Empty(t, clone.Contained)
	})

	t.Run("OnlyOneContainedService", func(t *testing.T) {
		clone := &model.ServiceNode{ID: "cl_1", Kind: model.KindClone}
		require.NoError(t, service.SetContained(clone, &model.ServiceNode{ID: "a"}))

		assert.Error(t, service.SetContained(clone, &model.ServiceNode{ID: "b"}))
	})
}
