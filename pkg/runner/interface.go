// Package runner defines how resolved launch processes are supervised.
package runner

import (
	"context"
	"io"
	"time"

	"github.com/rzbill/navlaunch/pkg/types"
)

// Runner manages the lifecycle of the processes of one launch.
type Runner interface {
	// Create prepares a process but does not start it.
	Create(ctx context.Context, proc *types.Process) error

	// Start starts a created process.
	Start(ctx context.Context, id string) error

	// Wait blocks until the process exits or ctx is done.
	Wait(ctx context.Context, id string) (Status, error)

	// Stop asks a running process to exit, escalating signals until it does.
	Stop(ctx context.Context, id string) error

	// Remove forgets an exited process. force stops it first.
	Remove(ctx context.Context, id string, force bool) error

	// GetLogs reads the log file of a process with log output.
	GetLogs(ctx context.Context, id string, options LogOptions) (io.ReadCloser, error)

	// Status returns the current status of a process.
	Status(ctx context.Context, id string) (Status, error)

	// List returns the status of every managed process, in creation order.
	List(ctx context.Context) ([]Status, error)
}

// LogOptions defines options for retrieving logs.
type LogOptions struct {
	// Tail is the number of lines to return from the end of the log (0 for all).
	Tail int
}

// Status describes a managed process.
type Status struct {
	// ID is the process ID within its plan.
	ID string

	// Name is the fully qualified node name, if any.
	Name string

	State types.ProcessState
	Pid   int

	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	// ExitCode is the exit code once the process has exited; -1 when it was
	// killed by a signal.
	ExitCode int

	// Signal names the signal that terminated the process, if any.
	Signal string

	// LogPath is the log file of processes with log output.
	LogPath string

	// ErrorMessage contains any error information.
	ErrorMessage string
}

// Exited reports whether the process is no longer running.
func (s Status) Exited() bool {
	return s.State == types.ProcessStateExited || s.State == types.ProcessStateFailed
}
