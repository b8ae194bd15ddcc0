package service_test

import (
	"log/slog"
	"testing"

	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/lcmc/crm-manager/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("LinkSupersedesPreviousHolder", func(t *testing.T) {
		r := service.NewRegistry()

		assert.Empty(t, r.Link("r0", "drbd1"))
		assert.Equal(t, "drbd1", r.Link("r0", "drbd2"))

		holder, ok := r.Get("r0")
		require.True(t, ok)
		assert.Equal(t, "drbd2", holder)
		_, ok = r.KeyOf("drbd1")
		assert.False(t, ok)
	})

	t.Run("RestoreUndoesLinks", func(t *testing.T) {
		r := service.NewRegistry()
		r.Link("r0", "drbd1")
		saved := r.Copy()

		r.Link("r0", "drbd2")
		r.Link("r1", "drbd3")
		r.Restore(saved)

		holder, ok := r.Get("r0")
		require.True(t, ok)
		assert.Equal(t, "drbd1", holder)
		assert.Equal(t, 1, r.Len())
	})
}

func TestFork(t *testing.T) {
	f := service.NewFactory(slog.Default(), service.NewRegistry(), service.NewRegistry())
	_, err := f.NewNode("drbd1", linbitDrbd, map[string]string{service.ParamDrbdResource: "r0"})
	require.NoError(t, err)

	forked := f.Fork(nodes{})
	node, err := forked.NewNode("drbd2", linbitDrbd, map[string]string{service.ParamDrbdResource: "r0"})
	require.NoError(t, err)

	assert.Equal(t, "r0", node.LinkKey)
	holder, _ := forked.DrbdRegistry().Get("r0")
	assert.Equal(t, "drbd2", holder)
	holder, _ = f.DrbdRegistry().Get("r0")
	assert.Equal(t, "drbd1", holder)
	assert.Equal(t, model.KindLinbitDrbd, node.Kind)
}
