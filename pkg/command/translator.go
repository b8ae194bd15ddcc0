package command

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
)

// Sink executes the commands of one mutation on a cluster host. The batch is delivered as a whole
// or not at all.
type Sink interface {
	Submit(ctx context.Context, cmds []Command, host string, mode model.RunMode) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, cmds []Command, host string, mode model.RunMode) error

func (f SinkFunc) Submit(ctx context.Context, cmds []Command, host string, mode model.RunMode) error {
	return f(ctx, cmds, host, mode)
}

// Change describes what applying a mutation did to the graph.
type Change struct {
	// Before and After are the constraint edges before and after the mutation.
	Before []model.ConstraintEdge
	After  []model.ConstraintEdge
	Shape  model.MigrateShape
	// Params holds the parameters of the node before a parameter update.
	Params map[string]string
}

func NewTranslator(logger *slog.Logger, live Sink, simulator Sink) *Translator {
	return &Translator{
		logger:    logger,
		live:      live,
		simulator: simulator,
	}
}

type Translator struct {
	logger    *slog.Logger
	live      Sink
	simulator Sink
}

// Translate returns the commands realising mutation m given the change it made to the graph.
func (t *Translator) Translate(m model.Mutation, change Change) []Command {
	constraints := DiffEdges(change.Before, change.After)

	switch m.Kind {
	case model.MutationAddOrder, model.MutationRemoveOrder, model.MutationToggleOrder,
		model.MutationAddColocation, model.MutationRemoveColocation, model.MutationToggleColocation:
		return constraints
	case model.MutationRemoveService:
		return append(constraints, Command{Kind: model.MutationRemoveService, Resource: m.Node})
	case model.MutationRemovePlaceholder:
		return append(constraints, Command{Kind: model.MutationRemovePlaceholder, Resource: m.Node})
	case model.MutationSetParams:
		return []Command{{Kind: model.MutationSetParams, Resource: m.Node, Params: m.Params, Unset: unset(change.Params, m.Params)}}
	case model.MutationMigrate, model.MutationMigrateFrom:
		return []Command{{Kind: m.Kind, Resource: m.Node, Host: m.Host, Master: change.Shape == model.MigrateMaster}}
	case model.MutationUnmigrate, model.MutationStart, model.MutationStop:
		return []Command{{Kind: m.Kind, Resource: m.Node}}
	}
	return nil
}

// Submit hands cmds as one batch to the sink selected by mode. Live commands go to the designated coordinator of
// status; test commands only ever reach the simulator.
func (t *Translator) Submit(ctx context.Context, cmds []Command, mode model.RunMode, status *model.ClusterStatus) error {
	sink := t.simulator
	host := ""
	if status != nil {
		host = status.DC
	}

	if mode == model.Live {
		if t.live == nil {
			return errdef.NewBackendUnavailable("no command sink configured")
		}
		if host == "" {
			return errdef.NewBackendUnavailable("no designated coordinator known")
		}
		sink = t.live
	}

	if len(cmds) == 0 {
		return nil
	}

	for _, cmd := range cmds {
		t.logger.InfoContext(ctx, "Submitting command", "command", cmd.Shell(), "host", host, "mode", mode)
	}
	if err := sink.Submit(ctx, cmds, host, mode); err != nil {
		if errdef.IsBackendUnavailable(err) {
			return err
		}
		return errdef.NewBackendUnavailable("failed to submit %d command(s) to %q: %v", len(cmds), host, err)
	}
	return nil
}

// unset returns the sorted names present in before but not in after.
func unset(before, after map[string]string) []string {
	var names []string
	for name := range before {
		if _, ok := after[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
