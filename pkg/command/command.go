// Package command turns mutations of the cluster model into CRM commands. Commands are plain data
// so the same command can be run against the live cluster or handed to a simulator for a dry run.
package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

const defaultScore = "inf"

// Command is one CRM command.
// swagger:model Command
type Command struct {
	Kind     model.MutationKind `json:"kind"`
	ID       string             `json:"id,omitempty"`
	Resource string             `json:"resource"`
	With     string             `json:"with,omitempty"`
	Host     string             `json:"host,omitempty"`
	Params   map[string]string  `json:"params,omitempty"`
	Unset    []string           `json:"unset,omitempty"`
	Score    string             `json:"score,omitempty"`
	Master   bool               `json:"master,omitempty"`
}

// OrderID returns the CRM id of the given order constraint.
func OrderID(order model.OrderSpec) string {
	return fmt.Sprintf("o-%s-%s", order.First, order.Then)
}

// ColocationID returns the CRM id of the given colocation constraint.
func ColocationID(colocation model.ColocationSpec) string {
	return fmt.Sprintf("c-%s-%s", colocation.Rsc, colocation.WithRsc)
}

func score(s string) string {
	if s == "" {
		return defaultScore
	}
	return s
}

// Shell renders the command as a crm shell command line. Parameter updates render one command per
// set or deleted parameter joined with "&&", sets first.
func (c Command) Shell() string {
	switch c.Kind {
	case model.MutationAddOrder:
		return fmt.Sprintf("crm configure order %s %s: %s %s", c.ID, score(c.Score), c.Resource, c.With)
	case model.MutationAddColocation:
		return fmt.Sprintf("crm configure colocation %s %s: %s %s", c.ID, score(c.Score), c.Resource, c.With)
	case model.MutationRemoveOrder, model.MutationRemoveColocation:
		return fmt.Sprintf("crm configure delete %s", c.ID)
	case model.MutationRemoveService, model.MutationRemovePlaceholder:
		return fmt.Sprintf("crm configure delete %s", c.Resource)
	case model.MutationSetParams:
		names := make([]string, 0, len(c.Params))
		for name := range c.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		lines := make([]string, 0, len(names)+len(c.Unset))
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("crm resource param %s set %s %s", c.Resource, name, quote(c.Params[name])))
		}
		unset := slices.Clone(c.Unset)
		sort.Strings(unset)
		for _, name := range unset {
			lines = append(lines, fmt.Sprintf("crm resource param %s delete %s", c.Resource, name))
		}
		return strings.Join(lines, " && ")
	case model.MutationMigrate:
		return c.withMaster(fmt.Sprintf("crm resource move %s %s", c.Resource, c.Host))
	case model.MutationMigrateFrom:
		return c.withMaster(fmt.Sprintf("crm resource ban %s %s", c.Resource, c.Host))
	case model.MutationUnmigrate:
		return fmt.Sprintf("crm resource unmove %s", c.Resource)
	case model.MutationStart:
		return fmt.Sprintf("crm resource start %s", c.Resource)
	case model.MutationStop:
		return fmt.Sprintf("crm resource stop %s", c.Resource)
	}
	return ""
}

func (c Command) withMaster(s string) string {
	if c.Master {
		return s + " --master"
	}
	return s
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t'\"") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// EdgeCommands returns the commands turning the constraints of before into those of after. Either
// may be nil for an edge that did not exist or no longer exists. Removals come first.
func EdgeCommands(before, after *model.ConstraintEdge) []Command {
	var removes, adds []Command

	hadOrder := before != nil && before.HasOrder
	hasOrder := after != nil && after.HasOrder
	if hadOrder && (!hasOrder || before.Order != after.Order) {
		removes = append(removes, Command{Kind: model.MutationRemoveOrder, ID: OrderID(before.Order), Resource: before.Order.First, With: before.Order.Then})
	}
	if hasOrder && (!hadOrder || before.Order != after.Order) {
		adds = append(adds, Command{Kind: model.MutationAddOrder, ID: OrderID(after.Order), Resource: after.Order.First, With: after.Order.Then, Score: after.Order.Score})
	}

	hadColocation := before != nil && before.HasColocation
	hasColocation := after != nil && after.HasColocation
	if hadColocation && (!hasColocation || before.Colocation != after.Colocation) {
		removes = append(removes, Command{Kind: model.MutationRemoveColocation, ID: ColocationID(before.Colocation), Resource: before.Colocation.Rsc, With: before.Colocation.WithRsc})
	}
	if hasColocation && (!hadColocation || before.Colocation != after.Colocation) {
		adds = append(adds, Command{Kind: model.MutationAddColocation, ID: ColocationID(after.Colocation), Resource: after.Colocation.Rsc, With: after.Colocation.WithRsc, Score: after.Colocation.Score})
	}

	return append(removes, adds...)
}

// DiffEdges returns the commands turning the edges before into the edges after.
func DiffEdges(before, after []model.ConstraintEdge) []Command {
	beforeByID := indexEdges(before)
	afterByID := indexEdges(after)

	ids := make([]string, 0, len(beforeByID)+len(afterByID))
	for id := range beforeByID {
		ids = append(ids, id)
	}
	for id := range afterByID {
		if _, ok := beforeByID[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var removes, adds []Command
	for _, id := range ids {
		for _, cmd := range EdgeCommands(beforeByID[id], afterByID[id]) {
			if cmd.Kind == model.MutationRemoveOrder || cmd.Kind == model.MutationRemoveColocation {
				removes = append(removes, cmd)
			} else {
				adds = append(adds, cmd)
			}
		}
	}
	return append(removes, adds...)
}

func indexEdges(edges []model.ConstraintEdge) map[string]*model.ConstraintEdge {
	index := make(map[string]*model.ConstraintEdge, len(edges))
	for i := range edges {
		index[edges[i].ID] = &edges[i]
	}
	return index
}
