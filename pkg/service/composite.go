package service

import (
	"fmt"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// AddChild appends child to the ordered children of group. Groups hold primitives only.
func AddChild(group, child *model.ServiceNode) error {
	if group.Kind != model.KindGroup {
		return errdef.NewBadRequest("%q is not a group", group.ID)
	}
	switch child.Kind {
	case model.KindGroup, model.KindClone, model.KindPlaceholder:
		return errdef.NewBadRequest("%s %q cannot be part of group %q", child.Kind, child.ID, group.ID)
	}
	if slices.Contains(group.Children, child.ID) {
		return errdef.NewBadRequest("%q is already part of group %q", child.ID, group.ID)
	}
	group.Children = append(group.Children, child.ID)
	return nil
}

// RemoveChild removes childID from group. It reports whether the child was part of the group.
func RemoveChild(group *model.ServiceNode, childID string) bool {
	i := slices.Index(group.Children, childID)
	if i < 0 {
		return false
	}
	group.Children = slices.Delete(group.Children, i, i+1)
	return true
}

// SetContained makes child the one service of clone.
func SetContained(clone, child *model.ServiceNode) error {
	if clone.Kind != model.KindClone {
		return errdef.NewBadRequest("%q is not a clone", clone.ID)
	}
	if child.Kind == model.KindClone || child.Kind == model.KindPlaceholder {
		return errdef.NewBadRequest("%s %q cannot be cloned", child.Kind, child.ID)
	}
	if clone.Contained != "" && clone.Contained != child.ID {
		return errdef.NewBadRequest("clone %q already contains %q", clone.ID, clone.Contained)
	}
	clone.Contained = child.ID
	return nil
}

// DetachContained releases the service of clone without destroying it and returns its id.
func DetachContained(clone *model.ServiceNode) string {
	id := clone.Contained
	clone.Contained = ""
	return id
}

// Identity returns the identity string of node. A clone takes its identity from its contained
// service once that is set.
func Identity(node *model.ServiceNode, contained *model.ServiceNode) string {
	if node.Kind != model.KindClone || contained == nil {
		return node.ID
	}
	if node.Master {
		return "ms_" + contained.ID
	}
	return "cl_" + contained.ID
}

// DisplayName returns the name shown for node.
func DisplayName(node *model.ServiceNode, contained *model.ServiceNode) string {
	switch node.Kind {
	case model.KindClone:
		name := "Clone"
		if node.Master {
			name = "Master/Slave Set"
		}
		if contained == nil {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, DisplayName(contained, nil))
	case model.KindPlaceholder:
		return "Resource Set"
	}
	if node.Agent == nil {
		return node.ID
	}
	return fmt.Sprintf("%s (%s)", node.Agent.Name, node.ID)
}
