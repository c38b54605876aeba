package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rzbill/navlaunch/pkg/types"
)

var _ Runner = (*TestRunner)(nil)

// TestRunner is a simplified, predictable implementation of Runner for testing.
// Processes listed in ExitCodes exit as soon as they start; every other process
// runs until it is stopped.
type TestRunner struct {
	// Configurable test behavior
	ExitCodes   map[string]int
	StartErrors map[string]error
	LogOutput   []byte

	// Optional tracking for verification
	CreatedProcesses []*types.Process
	StartedProcesses []string
	StoppedProcesses []string
	RemovedProcesses []string
	LogCalls         []string

	statuses map[string]*Status
	done     map[string]chan struct{}
	order    []string
	mu       sync.Mutex // protects the tracking fields
}

// NewTestRunner creates a new TestRunner with default behavior
func NewTestRunner() *TestRunner {
	return &TestRunner{
		ExitCodes:   make(map[string]int),
		StartErrors: make(map[string]error),
		statuses:    make(map[string]*Status),
		done:        make(map[string]chan struct{}),
	}
}

// Create tracks process creation
func (r *TestRunner) Create(ctx context.Context, proc *types.Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.statuses[proc.ID]; exists {
		return fmt.Errorf("process with ID %s already exists", proc.ID)
	}

	r.CreatedProcesses = append(r.CreatedProcesses, proc)
	r.statuses[proc.ID] = &Status{
		ID:        proc.ID,
		Name:      proc.FullName(),
		State:     types.ProcessStateCreated,
		CreatedAt: time.Now(),
	}
	r.done[proc.ID] = make(chan struct{})
	r.order = append(r.order, proc.ID)
	return nil
}

// Start tracks process starting
func (r *TestRunner) Start(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[id]
	if !ok {
		return fmt.Errorf("process with ID %s not found", id)
	}
	if err := r.StartErrors[id]; err != nil {
		status.State = types.ProcessStateFailed
		status.ErrorMessage = err.Error()
		close(r.done[id])
		return err
	}

	r.StartedProcesses = append(r.StartedProcesses, id)
	status.State = types.ProcessStateRunning
	status.StartedAt = time.Now()

	if code, exits := r.ExitCodes[id]; exits {
		r.finish(id, code, "")
	}
	return nil
}

// finish marks id exited. Callers hold r.mu.
func (r *TestRunner) finish(id string, code int, signal string) {
	status := r.statuses[id]
	if status.Exited() {
		return
	}
	status.State = types.ProcessStateExited
	status.ExitCode = code
	status.Signal = signal
	status.FinishedAt = time.Now()
	close(r.done[id])
}

// Wait blocks until the process exits
func (r *TestRunner) Wait(ctx context.Context, id string) (Status, error) {
	r.mu.Lock()
	done, ok := r.done[id]
	r.mu.Unlock()
	if !ok {
		return Status{}, fmt.Errorf("process with ID %s not found", id)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	return r.Status(ctx, id)
}

// Stop tracks process stopping
func (r *TestRunner) Stop(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[id]
	if !ok {
		return fmt.Errorf("process with ID %s not found", id)
	}

	r.StoppedProcesses = append(r.StoppedProcesses, id)
	if status.State == types.ProcessStateRunning {
		r.finish(id, -1, "interrupt")
	}
	return nil
}

// Remove tracks process removal
func (r *TestRunner) Remove(ctx context.Context, id string, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[id]
	if !ok {
		return fmt.Errorf("process with ID %s not found", id)
	}
	if status.State == types.ProcessStateRunning {
		if !force {
			return fmt.Errorf("cannot remove running process, use force to override")
		}
		r.finish(id, -1, "killed")
	}

	r.RemovedProcesses = append(r.RemovedProcesses, id)
	delete(r.statuses, id)
	delete(r.done, id)
	for i, known := range r.order {
		if known == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetLogs returns predefined log output
func (r *TestRunner) GetLogs(ctx context.Context, id string, options LogOptions) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.LogCalls = append(r.LogCalls, id)
	return io.NopCloser(bytes.NewReader(r.LogOutput)), nil
}

// Status returns the tracked status
func (r *TestRunner) Status(ctx context.Context, id string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[id]
	if !ok {
		return Status{}, fmt.Errorf("process with ID %s not found", id)
	}
	return *status, nil
}

// List returns all registered processes in creation order
func (r *TestRunner) List(ctx context.Context) ([]Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.statuses[id])
	}
	return out, nil
}
