package command_test

import (
	"testing"

	"github.com/lcmc/crm-manager/pkg/command"
	"github.com/lcmc/crm-manager/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestShell(t *testing.T) {
	tests := map[string]struct {
		command command.Command
		want    string
	}{
		"order": {
			command: command.Command{Kind: model.MutationAddOrder, ID: "o-a-b", Resource: "a", With: "b"},
			want:    "crm configure order o-a-b inf: a b",
		},
		"colocation with score": {
			command: command.Command{Kind: model.MutationAddColocation, ID: "c-a-b", Resource: "a", With: "b", Score: "100"},
			want:    "crm configure colocation c-a-b 100: a b",
		},
		"remove order": {
			command: command.Command{Kind: model.MutationRemoveOrder, ID: "o-a-b", Resource: "a", With: "b"},
			want:    "crm configure delete o-a-b",
		},
		"remove service": {
			command: command.Command{Kind: model.MutationRemoveService, Resource: "a"},
			want:    "crm configure delete a",
		},
		"migrate": {
			command: command.Command{Kind: model.MutationMigrate, Resource: "a", Host: "hostB"},
			want:    "crm resource move a hostB",
		},
		"migrate master": {
			command: command.Command{Kind: model.MutationMigrate, Resource: "a", Host: "hostB", Master: true},
			want:    "crm resource move a hostB --master",
		},
		"migrate from": {
			command: command.Command{Kind: model.MutationMigrateFrom, Resource: "a", Host: "hostA"},
			want:    "crm resource ban a hostA",
		},
		"unmigrate": {
			command: command.Command{Kind: model.MutationUnmigrate, Resource: "a"},
			want:    "crm resource unmove a",
		},
		"start": {
			command: command.Command{Kind: model.MutationStart, Resource: "a"},
			want:    "crm resource start a",
		},
		"stop": {
			command: command.Command{Kind: model.MutationStop, Resource: "a"},
			want:    "crm resource stop a",
		},
		"params": {
			command: command.Command{Kind: model.MutationSetParams, Resource: "a", Params: map[string]string{"ip": "10.0.0.5", "comment": "web ip"}},
			want:    "crm resource param a set comment 'web ip' && crm resource param a set ip 10.0.0.5",
		},
		"params with deletes": {
			command: command.Command{Kind: model.MutationSetParams, Resource: "a", Params: map[string]string{"ip": "10.0.0.5"}, Unset: []string{"nic", "cidr_netmask"}},
			want:    "crm resource param a set ip 10.0.0.5 && crm resource param a delete cidr_netmask && crm resource param a delete nic",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, test.command.Shell())
		})
	}
}

func TestEdgeCommands(t *testing.T) {
	order := model.OrderSpec{First: "a", Then: "b"}
	colocation := model.ColocationSpec{Rsc: "b", WithRsc: "a"}

	t.Run("NewEdge", func(t *testing.T) {
		after := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: order}

		cmds := command.EdgeCommands(nil, after)

		assert.Equal(t, []command.Command{
			{Kind: model.MutationAddOrder, ID: "o-a-b", Resource: "a", With: "b"},
		}, cmds)
	})

	t.Run("ToggleColocationOff", func(t *testing.T) {
		before := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: order, HasColocation: true, Colocation: colocation}
		after := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: order, Colocation: colocation}

		cmds := command.EdgeCommands(before, after)

		assert.Equal(t, []command.Command{
			{Kind: model.MutationRemoveColocation, ID: "c-b-a", Resource: "b", With: "a"},
		}, cmds)
	})

	t.Run("RedirectedOrder", func(t *testing.T) {
		before := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: order}
		after := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: model.OrderSpec{First: "b", Then: "a"}}

		cmds := command.EdgeCommands(before, after)

		assert.Len(t, cmds, 2)
		assert.Equal(t, model.MutationRemoveOrder, cmds[0].Kind)
		assert.Equal(t, "o-a-b", cmds[0].ID)
		assert.Equal(t, model.MutationAddOrder, cmds[1].Kind)
		assert.Equal(t, "o-b-a", cmds[1].ID)
	})

	t.Run("Unchanged", func(t *testing.T) {
		edge := &model.ConstraintEdge{ID: "e", A: "a", B: "b", HasOrder: true, Order: order}

		assert.Empty(t, command.EdgeCommands(edge, edge))
	})
}

func TestDiffEdgesRemovesBeforeAdding(t *testing.T) {
	before := []model.ConstraintEdge{
		{ID: "e1", A: "a", B: "b", HasOrder: true, Order: model.OrderSpec{First: "a", Then: "b"}},
	}
	after := []model.ConstraintEdge{
		{ID: "e0", A: "c", B: "d", HasColocation: true, Colocation: model.ColocationSpec{Rsc: "c", WithRsc: "d"}},
	}

	cmds := command.DiffEdges(before, after)

	assert.Len(t, cmds, 2)
	assert.Equal(t, "crm configure delete o-a-b", cmds[0].Shell())
	assert.Equal(t, "crm configure colocation c-c-d inf: c d", cmds[1].Shell())
}
