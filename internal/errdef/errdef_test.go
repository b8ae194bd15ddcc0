package errdef_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lcmc/crm-manager/internal/errdef"

	"github.com/stretchr/testify/assert"
)

func TestIsBadRequest(t *testing.T) {
	assert.False(t, errdef.IsBadRequest(errors.New("some error")))
	assert.True(t, errdef.IsBadRequest(errdef.NewBadRequest("some error")))
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, errdef.IsDuplicated(errors.New("some error")))
	assert.True(t, errdef.IsDuplicated(errdef.NewDuplicated("some error")))
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, errdef.IsNotFound(errors.New("some error")))
	assert.True(t, errdef.IsNotFound(errdef.NewNotFound("some error")))
}

func TestIsInvalidEndpoint(t *testing.T) {
	assert.False(t, errdef.IsInvalidEndpoint(errors.New("some error")))
	assert.True(t, errdef.IsInvalidEndpoint(errdef.NewInvalidEndpoint("some error")))
}

func TestIsBackendUnavailable(t *testing.T) {
	assert.False(t, errdef.IsBackendUnavailable(errors.New("some error")))
	assert.True(t, errdef.IsBackendUnavailable(errdef.NewBackendUnavailable("some error")))
}

func TestIsPoll(t *testing.T) {
	assert.False(t, errdef.IsPoll(errors.New("some error")))
	assert.True(t, errdef.IsPoll(errdef.NewPoll("some error")))
}

func TestWrapped(t *testing.T) {
	err := fmt.Errorf("failed adding order: %w", errdef.NewInvalidEndpoint("self edge"))

	assert.True(t, errdef.IsInvalidEndpoint(err))
	assert.False(t, errdef.IsNotFound(err))
}
