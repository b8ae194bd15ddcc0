package model

import (
	"context"
	"strings"

	"github.com/lcmc/crm-manager/internal/errdef"
)

// RunMode selects whether an operation runs against the live cluster or a simulated one.
type RunMode string

const (
	Live RunMode = "live"
	Test RunMode = "test"
)

// ParseRunMode parses s into a RunMode. An empty string is Live.
func ParseRunMode(s string) (RunMode, error) {
	switch strings.ToLower(s) {
	case "", string(Live):
		return Live, nil
	case string(Test):
		return Test, nil
	}
	return "", errdef.NewBadRequest("unknown run mode %q", s)
}

// MigrateShape is the form of the CRM command used to migrate a resource.
type MigrateShape string

const (
	MigratePlain  MigrateShape = "plain"
	MigrateMaster MigrateShape = "master"
)

type runModeKey struct{}

// NewContextWithRunMode returns a copy of ctx carrying mode.
func NewContextWithRunMode(ctx context.Context, mode RunMode) context.Context {
	return context.WithValue(ctx, runModeKey{}, mode)
}

// GetRunModeFromContext returns the run mode stored in ctx, if any.
func GetRunModeFromContext(ctx context.Context) (RunMode, bool) {
	mode, ok := ctx.Value(runModeKey{}).(RunMode)
	return mode, ok
}
