package types

import "fmt"

// OutputMode selects where a process's stdout and stderr go.
type OutputMode string

const (
	// OutputScreen prints process output to the console.
	OutputScreen OutputMode = "screen"
	// OutputLog writes process output to a per-process log file.
	OutputLog OutputMode = "log"
	// OutputBoth does both.
	OutputBoth OutputMode = "both"
)

// Validate rejects unknown output modes. Empty means OutputLog.
func (m OutputMode) Validate() error {
	switch m {
	case "", OutputScreen, OutputLog, OutputBoth:
		return nil
	}
	return NewValidationError("unknown output mode %q", string(m))
}

// Action is an element of a launch description.
type Action interface {
	// ActionName names the action in errors and help output.
	ActionName() string
}

// Remapping renames a topic or service for one process.
type Remapping struct {
	From Substitution
	To   Substitution
}

// Node launches a single executable from an installed package.
type Node struct {
	Package    string
	Executable string
	Name       string
	Output     OutputMode
	Arguments  []Substitution
	Parameters []ParameterOverlay
	Remappings []Remapping
	Condition  Condition
}

func (n *Node) ActionName() string { return fmt.Sprintf("node %s/%s", n.Package, n.Executable) }

// IncludeLaunch runs another launch file with the given arguments.
type IncludeLaunch struct {
	Path      Substitution
	Arguments []LaunchArgument
	Condition Condition
}

// LaunchArgument is a name:=value pair passed to an included launch file.
type LaunchArgument struct {
	Name  string
	Value Substitution
}

func (i *IncludeLaunch) ActionName() string { return "include " + Describe(i.Path) }

// Group scopes its actions. When PushNamespace is set, every process inside
// the group, and only those, resolve their names under that namespace.
type Group struct {
	PushNamespace Substitution
	Actions       []Action
	Condition     Condition
}

func (g *Group) ActionName() string { return "group" }
