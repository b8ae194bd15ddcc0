package command

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// Submission is a command recorded by the Simulator.
type Submission struct {
	Command Command       `json:"command"`
	Shell   string        `json:"shell"`
	Host    string        `json:"host"`
	Mode    model.RunMode `json:"mode"`
	At      time.Time     `json:"at"`
}

func NewSimulator() *Simulator {
	return &Simulator{}
}

// Simulator is a Sink recording every command instead of running it.
type Simulator struct {
	mu  sync.Mutex
	log []Submission
}

func (s *Simulator) Submit(_ context.Context, cmds []Command, host string, mode model.RunMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, cmd := range cmds {
		s.log = append(s.log, Submission{
			Command: cmd,
			Shell:   cmd.Shell(),
			Host:    host,
			Mode:    mode,
			At:      now,
		})
	}
	return nil
}

// Log returns the recorded commands, oldest first.
func (s *Simulator) Log() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// Project returns a copy of status with the effect of cmds applied. Removed and stopped resources
// run nowhere, migrations move resources between hosts.
func Project(status *model.ClusterStatus, cmds []Command) *model.ClusterStatus {
	projected := status.Copy()
	hosts := okHosts(projected)

	for _, cmd := range cmds {
		switch cmd.Kind {
		case model.MutationRemoveService, model.MutationRemovePlaceholder:
			delete(projected.Resources, cmd.Resource)
		case model.MutationStop:
			row, ok := projected.Resources[cmd.Resource]
			if !ok {
				row.Managed = true
			}
			row.RunningOn = nil
			row.MasterOn = nil
			projected.Resources[cmd.Resource] = row
		case model.MutationStart:
			row, ok := projected.Resources[cmd.Resource]
			if !ok {
				row.Managed = true
			}
			if len(row.RunningOn) == 0 && len(hosts) > 0 {
				row.RunningOn = []string{hosts[0]}
			}
			projected.Resources[cmd.Resource] = row
		case model.MutationMigrate:
			row, ok := projected.Resources[cmd.Resource]
			if !ok {
				row.Managed = true
			}
			if cmd.Master {
				row.MasterOn = []string{cmd.Host}
				if !slices.Contains(row.RunningOn, cmd.Host) {
					row.RunningOn = append(slices.Clone(row.RunningOn), cmd.Host)
				}
			} else {
				row.RunningOn = []string{cmd.Host}
			}
			projected.Resources[cmd.Resource] = row
		case model.MutationMigrateFrom:
			row, ok := projected.Resources[cmd.Resource]
			if !ok {
				continue
			}
			if cmd.Master {
				row.MasterOn = moveAway(row.MasterOn, cmd.Host, hosts)
			} else {
				row.RunningOn = moveAway(row.RunningOn, cmd.Host, hosts)
			}
			projected.Resources[cmd.Resource] = row
		}
	}
	return projected
}

// moveAway replaces host in running with the first ok host not already listed.
func moveAway(running []string, host string, hosts []string) []string {
	i := slices.Index(running, host)
	if i < 0 {
		return running
	}
	moved := slices.Delete(slices.Clone(running), i, i+1)
	for _, candidate := range hosts {
		if candidate != host && !slices.Contains(moved, candidate) {
			moved = append(moved, candidate)
			break
		}
	}
	sort.Strings(moved)
	return moved
}

func okHosts(status *model.ClusterStatus) []string {
	var hosts []string
	for name, host := range status.Hosts {
		if host.OK() {
			hosts = append(hosts, name)
		}
	}
	sort.Strings(hosts)
	return hosts
}
