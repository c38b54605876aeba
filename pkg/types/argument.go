package types

import (
	"regexp"
	"strings"
)

var argumentNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Argument declares a launch argument.
type Argument struct {
	Name string

	// Default is used when no override is given. A nil Default makes the
	// argument required.
	Default Substitution

	// Choices, when set, is the closed set of accepted values.
	Choices []string

	Description string
}

// BoolChoices are the accepted values of boolean launch arguments.
var BoolChoices = []string{"true", "false"}

// Validate checks the declaration itself, not a value.
func (a Argument) Validate() error {
	if !argumentNameRegex.MatchString(a.Name) {
		return NewValidationError("invalid launch argument name %q", a.Name)
	}
	seen := make(map[string]bool, len(a.Choices))
	for _, c := range a.Choices {
		if seen[c] {
			return NewValidationError("launch argument '%s' lists choice %q twice", a.Name, c)
		}
		seen[c] = true
	}
	return nil
}

// CheckValue rejects a value outside Choices.
func (a Argument) CheckValue(value string) error {
	if len(a.Choices) == 0 {
		return nil
	}
	for _, c := range a.Choices {
		if c == value {
			return nil
		}
	}
	return NewValidationError(
		"argument '%s' provided value '%s' is not valid, valid options are: [%s]",
		a.Name, value, strings.Join(a.Choices, ", "))
}

// DescribeDefault renders the default for help output.
func (a Argument) DescribeDefault() string {
	if a.Default == nil {
		return ""
	}
	return a.Default.Describe()
}
