package types

import "fmt"

// ProcessKind distinguishes a node from an included launch file.
type ProcessKind string

const (
	ProcessKindNode    ProcessKind = "node"
	ProcessKindInclude ProcessKind = "include"
)

// ResolvedParameter is one parameter overlay after substitution. File is
// what the node is handed; Values lists inline parameters written to File and
// Source records the input of a rewritten file.
type ResolvedParameter struct {
	File   string           `json:"file,omitempty" yaml:"file,omitempty"`
	Source string           `json:"source,omitempty" yaml:"source,omitempty"`
	Values []ParameterValue `json:"values,omitempty" yaml:"values,omitempty"`
}

// ParameterValue is a typed parameter.
type ParameterValue struct {
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
}

// ResolvedRemapping is a remapping after substitution.
type ResolvedRemapping struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// String renders the remapping as a --ros-args rule.
func (r ResolvedRemapping) String() string {
	return r.From + ":=" + r.To
}

// Process is the fully resolved description of one process to spawn.
type Process struct {
	// ID is unique within a plan, e.g. "rviz2-1".
	ID   string      `json:"id" yaml:"id"`
	Kind ProcessKind `json:"kind" yaml:"kind"`

	Package    string `json:"package,omitempty" yaml:"package,omitempty"`
	Executable string `json:"executable,omitempty" yaml:"executable,omitempty"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`

	// Namespace is absolute ("/robot1") or empty when no namespace applies.
	Namespace string     `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Output    OutputMode `json:"output" yaml:"output"`

	Arguments       []string              `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	LaunchArguments []LaunchArgumentValue `json:"launchArguments,omitempty" yaml:"launchArguments,omitempty"`
	Parameters      []ResolvedParameter   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Remappings      []ResolvedRemapping   `json:"remappings,omitempty" yaml:"remappings,omitempty"`

	// Command is the argument vector the runner executes; Command[0] is the
	// executable path.
	Command []string `json:"command" yaml:"command"`
}

// LaunchArgumentValue is a resolved name:=value pair for an included launch.
type LaunchArgumentValue struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Validate checks the fields a runner depends on.
func (p *Process) Validate() error {
	if p.ID == "" {
		return NewValidationError("process id is required")
	}
	if len(p.Command) == 0 || p.Command[0] == "" {
		return NewValidationError("process %s: command is required", p.ID)
	}
	return p.Output.Validate()
}

// FullName is the namespaced node name, e.g. "/robot1/slam_toolbox".
func (p *Process) FullName() string {
	if p.Name == "" {
		return ""
	}
	if p.Namespace == "" {
		return "/" + p.Name
	}
	return fmt.Sprintf("%s/%s", p.Namespace, p.Name)
}

// ProcessState is the lifecycle state of a spawned process.
type ProcessState string

const (
	ProcessStateCreated ProcessState = "Created"
	ProcessStateRunning ProcessState = "Running"
	ProcessStateExited  ProcessState = "Exited"
	ProcessStateFailed  ProcessState = "Failed"
)
