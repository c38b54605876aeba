// Package orchestrator runs evaluated launch plans on a runner.
package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rzbill/navlaunch/pkg/launch"
	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/runner"
	"github.com/rzbill/navlaunch/pkg/types"
)

// DefaultFailureLogLines is how many log lines are reported for a process
// that died with output to a log file.
const DefaultFailureLogLines = 10

// Result summarizes a finished launch.
type Result struct {
	// Statuses holds the final status of each process, in plan order.
	Statuses []runner.Status

	// Interrupted is set when the launch was shut down through its context.
	Interrupted bool
}

// Failed returns the processes that died on their own with an error.
func (r *Result) Failed() []runner.Status {
	var out []runner.Status
	for _, s := range r.Statuses {
		if s.State == types.ProcessStateFailed {
			out = append(out, s)
		}
	}
	return out
}

// Orchestrator starts the processes of a plan and supervises them until they
// have all exited.
type Orchestrator struct {
	runner          runner.Runner
	logger          log.Logger
	failureLogLines int
	stopTimeout     time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(logger log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithFailureLogLines sets how many log lines of a dead process are reported.
func WithFailureLogLines(n int) Option {
	return func(o *Orchestrator) {
		o.failureLogLines = n
	}
}

// WithStopTimeout bounds how long shutdown waits for each process. Zero
// waits for the runner's own escalation to finish.
func WithStopTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stopTimeout = d
	}
}

// NewOrchestrator creates an Orchestrator running processes on r.
func NewOrchestrator(r runner.Runner, options ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:          r,
		logger:          log.GetDefaultLogger(),
		failureLogLines: DefaultFailureLogLines,
	}
	for _, option := range options {
		option(o)
	}
	o.logger = o.logger.WithComponent("orchestrator")
	return o
}

// Run starts every process of plan in order and waits until all of them have
// exited. A process exiting does not affect the others. Cancelling ctx stops
// the remaining processes, most recently started first. An error is returned
// only when the plan could not be started, in which case everything already
// started is stopped again.
func (o *Orchestrator) Run(ctx context.Context, plan *launch.Plan) (*Result, error) {
	ids := make([]string, 0, len(plan.Processes))
	for _, proc := range plan.Processes {
		if err := o.runner.Create(ctx, proc); err != nil {
			o.cleanup(ids, false)
			return nil, fmt.Errorf("creating process %s: %w", proc.ID, err)
		}
		ids = append(ids, proc.ID)
	}

	for i, id := range ids {
		if err := o.runner.Start(ctx, id); err != nil {
			o.shutdown(ids[:i])
			o.cleanup(ids, true)
			return nil, fmt.Errorf("starting process %s: %w", id, err)
		}
		status, err := o.runner.Status(ctx, id)
		if err != nil {
			o.logger.Debug("Failed to read process status", log.Process(id), log.Err(err))
			o.logger.Info("Process started", log.Process(id))
			continue
		}
		o.logger.Info("Process started", log.Process(id), log.Int("pid", status.Pid))
	}

	result := &Result{Statuses: make([]runner.Status, len(ids))}

	// Waiting is detached from ctx so final statuses are still collected
	// after an interrupt.
	var g errgroup.Group
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			status, err := o.runner.Wait(context.Background(), id)
			if err != nil {
				return fmt.Errorf("waiting for process %s: %w", id, err)
			}
			result.Statuses[i] = status
			o.reportExit(status)
			return nil
		})
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-ctx.Done():
		result.Interrupted = true
		o.logger.Info("Shutting down launch", log.Str("launch", plan.Launch), log.Int("processes", len(ids)))
		o.shutdown(ids)
		waitErr = <-done
	}

	o.cleanup(ids, true)
	return result, waitErr
}

// shutdown stops ids concurrently, signalling the last started process first.
func (o *Orchestrator) shutdown(ids []string) {
	var g errgroup.Group
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		g.Go(func() error {
			ctx := context.Background()
			if o.stopTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, o.stopTimeout)
				defer cancel()
			}
			if err := o.runner.Stop(ctx, id); err != nil {
				o.logger.Warn("Failed to stop process", log.Process(id), log.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) cleanup(ids []string, force bool) {
	for _, id := range ids {
		if err := o.runner.Remove(context.Background(), id, force); err != nil {
			o.logger.Debug("Failed to remove process", log.Process(id), log.Err(err))
		}
	}
}

func (o *Orchestrator) reportExit(status runner.Status) {
	fields := []log.Field{
		log.Process(status.ID),
		log.Int("pid", status.Pid),
		log.Int("exit_code", status.ExitCode),
	}
	if status.Signal != "" {
		fields = append(fields, log.Str("signal", status.Signal))
	}

	if status.State != types.ProcessStateFailed {
		o.logger.Info("Process has finished cleanly", fields...)
		return
	}

	if status.LogPath != "" {
		fields = append(fields, log.Str("log", status.LogPath))
	}
	o.logger.Error("Process has died", fields...)

	if status.LogPath == "" || o.failureLogLines <= 0 {
		return
	}
	logs, err := o.runner.GetLogs(context.Background(), status.ID, runner.LogOptions{Tail: o.failureLogLines})
	if err != nil {
		o.logger.Debug("Failed to read process log", log.Process(status.ID), log.Err(err))
		return
	}
	defer logs.Close()

	scanner := bufio.NewScanner(logs)
	for scanner.Scan() {
		o.logger.Error(scanner.Text(), log.Process(status.ID))
	}
}
