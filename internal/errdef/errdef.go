package errdef

import (
	"errors"
	"fmt"
)

func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

func NewDuplicated(format string, a ...any) error {
	return duplicated{fmt.Errorf(format, a...)}
}

type duplicated struct{ error }

func IsDuplicated(err error) bool {
	var e duplicated
	return errors.As(err, &e)
}

// NewNotFound creates an error representing an agent, class, node or edge that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing something that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewInvalidEndpoint creates an error representing a malformed constraint mutation. The graph is
// left unchanged when it is returned.
func NewInvalidEndpoint(format string, a ...any) error {
	return invalidEndpoint{fmt.Errorf(format, a...)}
}

type invalidEndpoint struct{ error }

// IsInvalidEndpoint returns true if err is an error representing a malformed constraint mutation and false otherwise.
func IsInvalidEndpoint(err error) bool {
	var e invalidEndpoint
	return errors.As(err, &e)
}

// NewBackendUnavailable creates an error representing a CRM backend that cannot take commands,
// either because no designated coordinator is known or because the submission failed.
func NewBackendUnavailable(format string, a ...any) error {
	return backendUnavailable{fmt.Errorf(format, a...)}
}

type backendUnavailable struct{ error }

// IsBackendUnavailable returns true if err is an error representing an unavailable CRM backend and false otherwise.
func IsBackendUnavailable(err error) bool {
	var e backendUnavailable
	return errors.As(err, &e)
}

// NewPoll creates an error representing a failed cluster status refresh.
func NewPoll(format string, a ...any) error {
	return poll{fmt.Errorf(format, a...)}
}

type poll struct{ error }

// IsPoll returns true if err is an error representing a failed cluster status refresh and false otherwise.
func IsPoll(err error) bool {
	var e poll
	return errors.As(err, &e)
}
