package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lcmc/crm-manager/internal/errdef"
	"github.com/lcmc/crm-manager/pkg/model"
	"golang.org/x/exp/slices"
)

// OneOf creates a function returning an error when called with a value that is not any of the given
// validValues.
func OneOf(validValues ...string) func(value string) error {
	fmtErrorArg := quoteStrings(validValues)

	return func(value string) error {
		if slices.Contains(validValues, value) {
			return nil
		}

		return fmt.Errorf("%q is not valid, only %s are allowed", value, fmtErrorArg)
	}
}

// quoteStrings quotes values and comma separates them into a joint string.
func quoteStrings(values []string) string {
	var result strings.Builder
	for i, validValue := range values {
		result.WriteString(strconv.Quote(validValue))
		if i+1 < len(values) {
			result.WriteString(", ")
		}
	}
	return result.String()
}

// ValidateParams validates params against the parameter schema of agent. Required parameters
// without a default must be set, values of parameters with possible choices must be one of them and
// integer and boolean parameters must parse. Parameters unknown to the agent are meta attributes and
// are not validated.
func ValidateParams(agent *model.ResourceAgent, params map[string]string) error {
	if agent == nil {
		return nil
	}

	var errs []error
	for _, parameter := range agent.Parameters {
		value, ok := params[parameter.Name]
		if !ok || value == "" {
			if parameter.Required && parameter.Default == "" {
				errs = append(errs, fmt.Errorf("parameter %q is required", parameter.Name))
			}
			continue
		}

		if len(parameter.PossibleChoices) > 0 {
			if err := OneOf(parameter.PossibleChoices...)(value); err != nil {
				errs = append(errs, fmt.Errorf("parameter %q: %v", parameter.Name, err))
			}
		}

		switch parameter.Type {
		case "integer":
			if _, err := strconv.Atoi(value); err != nil {
				errs = append(errs, fmt.Errorf("parameter %q: %q is not an integer", parameter.Name, value))
			}
		case "boolean":
			if !isBoolean(value) {
				errs = append(errs, fmt.Errorf("parameter %q: %q is not a boolean", parameter.Name, value))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return errdef.NewBadRequest("invalid parameters for %q: %v", agent.ID(), err)
	}
	return nil
}

func isBoolean(value string) bool {
	return OneOf("true", "false", "yes", "no", "on", "off", "1", "0")(strings.ToLower(value)) == nil
}
