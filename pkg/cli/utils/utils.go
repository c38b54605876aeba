package utils

import (
	"strings"

	"github.com/rzbill/navlaunch/pkg/types"
)

// ParseLaunchArguments parses ros2 launch style "name:=value" arguments.
// Values may be empty or contain further ":=". A later assignment of the same
// name wins.
// Example: ["namespace:=/robot1", "sync:=false"] -> {"namespace": "/robot1", "sync": "false"}
func ParseLaunchArguments(args []string) (map[string]string, error) {
	result := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, ":=")
		if !ok {
			return nil, types.NewValidationError("invalid launch argument %q, expected <name>:=<value>", arg)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, types.NewValidationError("empty name in launch argument %q", arg)
		}
		result[name] = value
	}
	return result, nil
}
