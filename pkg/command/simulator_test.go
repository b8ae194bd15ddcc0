package command_test

import (
	"testing"

	"github.com/lcmc/crm-manager/pkg/command"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/stretchr/testify/assert"
)

func projectionStatus() *model.ClusterStatus {
	return &model.ClusterStatus{
		Resources: map[string]model.ResourceStatus{
			"a":    {RunningOn: []string{"hostA"}, Managed: true},
			"b":    {RunningOn: []string{"hostB"}, Managed: true},
			"drbd": {RunningOn: []string{"hostA", "hostB"}, MasterOn: []string{"hostA"}, Managed: true},
		},
		Hosts: map[string]model.HostStatus{
			"hostA": {Online: true},
			"hostB": {Online: true},
			"hostC": {Online: true, Standby: true},
		},
		DC: "hostA",
	}
}

func TestProject(t *testing.T) {
	t.Run("RemovedRunsNowhere", func(t *testing.T) {
		status := projectionStatus()

		projected := command.Project(status, []command.Command{{Kind: model.MutationRemoveService, Resource: "a"}})

		assert.NotContains(t, projected.Resources, "a")
		assert.Contains(t, status.Resources, "a", "live snapshot must be untouched")
	})

	t.Run("StoppedRunsNowhere", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationStop, Resource: "a"}})

		assert.Empty(t, projected.Resources["a"].RunningOn)
	})

	t.Run("StoppingUnreportedResourceKeepsItManaged", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationStop, Resource: "new"}})

		assert.True(t, projected.Resources["new"].Managed)
		assert.Empty(t, projected.Resources["new"].RunningOn)
	})

	t.Run("StartPicksFirstOKHost", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationStart, Resource: "new"}})

		assert.Equal(t, []string{"hostA"}, projected.Resources["new"].RunningOn)
	})

	t.Run("MigrateMovesHost", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationMigrate, Resource: "a", Host: "hostB"}})

		assert.Equal(t, []string{"hostB"}, projected.Resources["a"].RunningOn)
	})

	t.Run("MigrateMaster", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationMigrate, Resource: "drbd", Host: "hostB", Master: true}})

		assert.Equal(t, []string{"hostB"}, projected.Resources["drbd"].MasterOn)
		assert.Equal(t, []string{"hostA", "hostB"}, projected.Resources["drbd"].RunningOn)
	})

	t.Run("MigrateFromSkipsStandbyHost", func(t *testing.T) {
		projected := command.Project(projectionStatus(), []command.Command{{Kind: model.MutationMigrateFrom, Resource: "b", Host: "hostB"}})

		assert.Equal(t, []string{"hostA"}, projected.Resources["b"].RunningOn)
	})

	t.Run("ConstraintsDoNotMoveResources", func(t *testing.T) {
		status := projectionStatus()

		projected := command.Project(status, []command.Command{{Kind: model.MutationAddOrder, ID: "o-a-b", Resource: "a", With: "b"}})

		assert.Equal(t, status.Resources, projected.Resources)
	})
}
