// Package catalog holds the resource agents available to a cluster. Agents are read once from a
// Source and are never mutated afterwards. Every service node using an agent shares the same
// *model.ResourceAgent.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// Source provides resource agent metadata grouped by class.
type Source interface {
	Classes() ([]string, error)
	Services(class string) ([]*model.ResourceAgent, error)
}

// classOrder is the order classes are listed in. Classes not listed here follow alphabetically.
var classOrder = []string{
	model.ClassOCF,
	model.ClassHeartbeat,
	model.ClassLSB,
	model.ClassService,
	model.ClassSystemd,
	model.ClassStonith,
}

// Catalog is the read-only set of known resource agents.
type Catalog struct {
	classes []string
	agents  map[string][]*model.ResourceAgent
	byID    map[string]*model.ResourceAgent
}

// New loads every class provided by source. Agents failing validation or sharing an identity with
// another agent are rejected.
func New(source Source) (*Catalog, error) {
	classes, err := source.Classes()
	if err != nil {
		return nil, fmt.Errorf("failed listing resource agent classes: %v", err)
	}

	validate := validator.New()
	c := &Catalog{
		agents: make(map[string][]*model.ResourceAgent, len(classes)),
		byID:   make(map[string]*model.ResourceAgent),
	}
	for _, class := range classes {
		agents, err := source.Services(class)
		if err != nil {
			return nil, fmt.Errorf("failed loading resource agents of class %q: %v", class, err)
		}

		for _, agent := range agents {
			if agent.Class == "" {
				agent.Class = class
			}
			if agent.Class != class {
				return nil, errdef.NewBadRequest("resource agent %q listed in class %q", agent.ID(), class)
			}
			if err := validate.Struct(agent); err != nil {
				return nil, errdef.NewBadRequest("invalid resource agent %q: %v", agent.ID(), err)
			}
			if _, ok := c.byID[agent.ID()]; ok {
				return nil, errdef.NewDuplicated("resource agent %q is defined more than once", agent.ID())
			}
			c.byID[agent.ID()] = agent
		}

		sorted := slices.Clone(agents)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ID() < sorted[j].ID()
		})
		c.agents[class] = sorted
		c.classes = append(c.classes, class)
	}

	sortClasses(c.classes)
	return c, nil
}

func sortClasses(classes []string) {
	rank := func(class string) int {
		if i := slices.Index(classOrder, class); i >= 0 {
			return i
		}
		return len(classOrder)
	}
	sort.SliceStable(classes, func(i, j int) bool {
		ri, rj := rank(classes[i]), rank(classes[j])
		if ri != rj {
			return ri < rj
		}
		return classes[i] < classes[j]
	})
}

// ListClasses returns the known classes in display order.
func (c *Catalog) ListClasses() []string {
	return slices.Clone(c.classes)
}

// AgentsInClass returns the agents of class ordered by identity.
func (c *Catalog) AgentsInClass(class string) ([]*model.ResourceAgent, error) {
	agents, ok := c.agents[class]
	if !ok {
		return nil, errdef.NewNotFound("resource agent class %q not found", class)
	}
	return slices.Clone(agents), nil
}

// Agent returns the agent identified by class, provider and name. The pseudo agents of groups and
// clones are always known.
func (c *Catalog) Agent(class, provider, name string) (*model.ResourceAgent, error) {
	switch class {
	case model.ClassGroup:
		return model.GroupAgent, nil
	case model.ClassClone:
		return model.CloneAgent, nil
	}

	id := (&model.ResourceAgent{Class: class, Provider: provider, Name: name}).ID()
	agent, ok := c.byID[id]
	if !ok {
		return nil, errdef.NewNotFound("resource agent %q not found", id)
	}
	return agent, nil
}

// AgentByID returns the agent with the identity reported by the CRM. Both "ocf::heartbeat:IPaddr2"
// and "ocf:heartbeat:IPaddr2" are accepted.
func (c *Catalog) AgentByID(id string) (*model.ResourceAgent, error) {
	agent, ok := c.byID[strings.ReplaceAll(id, "::", ":")]
	if !ok {
		return nil, errdef.NewNotFound("resource agent %q not found", id)
	}
	return agent, nil
}

// DescribeParameter returns the schema of the parameter called name of the given agent.
func (c *Catalog) DescribeParameter(agent *model.ResourceAgent, name string) (model.Parameter, error) {
	if agent == nil {
		return model.Parameter{}, errdef.NewNotFound("no resource agent given for parameter %q", name)
	}
	if _, err := c.Agent(agent.Class, agent.Provider, agent.Name); err != nil {
		return model.Parameter{}, err
	}
	parameter, ok := agent.Parameter(name)
	if !ok {
		return model.Parameter{}, errdef.NewNotFound("parameter %q of resource agent %q not found", name, agent.ID())
	}
	return parameter, nil
}
