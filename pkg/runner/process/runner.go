// Package process implements a Runner for local processes
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/runner"
	"github.com/rzbill/navlaunch/pkg/types"
)

// Default stop escalation delays, matching ros2 launch.
const (
	DefaultSigtermTimeout = 5 * time.Second
	DefaultSigkillTimeout = 5 * time.Second
)

// Validate that ProcessRunner implements the runner.Runner interface
var _ runner.Runner = &ProcessRunner{}

// ProcessRunner implements the runner.Runner interface for local processes
type ProcessRunner struct {
	baseDir        string
	logger         log.Logger
	stdout         io.Writer
	stderr         io.Writer
	colorPrefixes  bool
	sigtermTimeout time.Duration
	sigkillTimeout time.Duration

	processes map[string]*managedProcess
	order     []string
	mu        sync.RWMutex

	// consoleMu serializes screen output across processes.
	consoleMu sync.Mutex
}

// managedProcess holds internal state for a process managed by ProcessRunner
type managedProcess struct {
	proc     *types.Process
	index    int
	cmd      *exec.Cmd
	status   runner.Status
	logFile  *os.File
	writers  []*lineWriter
	stopping bool
	done     chan struct{}
	mu       sync.RWMutex
}

// ProcessOption is a function that configures a ProcessRunner
type ProcessOption func(*ProcessRunner)

// WithBaseDir sets the directory process log files are written to
func WithBaseDir(dir string) ProcessOption {
	return func(r *ProcessRunner) {
		r.baseDir = dir
	}
}

// WithLogger sets the logger for the runner
func WithLogger(logger log.Logger) ProcessOption {
	return func(r *ProcessRunner) {
		r.logger = logger
	}
}

// WithConsole sets where screen output is copied to
func WithConsole(stdout, stderr io.Writer) ProcessOption {
	return func(r *ProcessRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithColorPrefixes colors the [id] prefix of screen output
func WithColorPrefixes(enabled bool) ProcessOption {
	return func(r *ProcessRunner) {
		r.colorPrefixes = enabled
	}
}

// WithStopTimeouts sets how long Stop waits after SIGINT before sending
// SIGTERM, and after SIGTERM before sending SIGKILL
func WithStopTimeouts(sigterm, sigkill time.Duration) ProcessOption {
	return func(r *ProcessRunner) {
		r.sigtermTimeout = sigterm
		r.sigkillTimeout = sigkill
	}
}

// NewProcessRunner creates a new ProcessRunner with the given options
func NewProcessRunner(options ...ProcessOption) (*ProcessRunner, error) {
	r := &ProcessRunner{
		baseDir:        os.TempDir(),
		logger:         log.GetDefaultLogger(),
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		sigtermTimeout: DefaultSigtermTimeout,
		sigkillTimeout: DefaultSigkillTimeout,
		processes:      make(map[string]*managedProcess),
	}

	for _, option := range options {
		option(r)
	}
	r.logger = r.logger.WithComponent("process-runner")

	if err := os.MkdirAll(r.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return r, nil
}

func (r *ProcessRunner) get(id string) (*managedProcess, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mp, ok := r.processes[id]
	if !ok {
		return nil, fmt.Errorf("process with ID %s not found", id)
	}
	return mp, nil
}

// Create prepares a process but does not start it
func (r *ProcessRunner) Create(ctx context.Context, proc *types.Process) error {
	if err := ValidateProcess(proc); err != nil {
		return fmt.Errorf("invalid process: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processes[proc.ID]; exists {
		return fmt.Errorf("process with ID %s already exists", proc.ID)
	}

	mp := &managedProcess{
		proc:  proc,
		index: len(r.order),
		done:  make(chan struct{}),
		status: runner.Status{
			ID:        proc.ID,
			Name:      proc.FullName(),
			State:     types.ProcessStateCreated,
			CreatedAt: time.Now(),
		},
	}

	cmd := exec.Command(proc.Command[0], proc.Command[1:]...)
	// Own process group, so signals reach the node and everything it forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := r.attachOutput(mp, cmd); err != nil {
		return err
	}
	mp.cmd = cmd

	r.processes[proc.ID] = mp
	r.order = append(r.order, proc.ID)

	r.logger.Debug("Created process",
		log.Process(proc.ID),
		log.Str("name", mp.status.Name),
		log.Strs("command", proc.Command))

	return nil
}

// attachOutput routes stdout and stderr according to the process output mode.
func (r *ProcessRunner) attachOutput(mp *managedProcess, cmd *exec.Cmd) error {
	var stdout, stderr []io.Writer

	mode := mp.proc.Output
	if mode == "" {
		mode = types.OutputLog
	}

	if mode == types.OutputLog || mode == types.OutputBoth {
		logPath := filepath.Join(r.baseDir, mp.proc.ID+".log")
		logFile, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		mp.logFile = logFile
		mp.status.LogPath = logPath
		stdout = append(stdout, logFile)
		stderr = append(stderr, logFile)
	}

	if mode == types.OutputScreen || mode == types.OutputBoth {
		prefix := processPrefix(mp.proc.ID, mp.index, r.colorPrefixes)
		out := newLineWriter(&r.consoleMu, r.stdout, prefix)
		errOut := newLineWriter(&r.consoleMu, r.stderr, prefix)
		mp.writers = append(mp.writers, out, errOut)
		stdout = append(stdout, out)
		stderr = append(stderr, errOut)
	}

	cmd.Stdout = combine(stdout)
	cmd.Stderr = combine(stderr)
	return nil
}

func combine(writers []io.Writer) io.Writer {
	if len(writers) == 1 {
		return writers[0]
	}
	return io.MultiWriter(writers...)
}

// Start starts a created process
func (r *ProcessRunner) Start(ctx context.Context, id string) error {
	mp, err := r.get(id)
	if err != nil {
		return err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.status.State != types.ProcessStateCreated {
		return fmt.Errorf("process in state %s cannot be started", mp.status.State)
	}

	if err := mp.cmd.Start(); err != nil {
		mp.status.State = types.ProcessStateFailed
		mp.status.ErrorMessage = err.Error()
		mp.status.FinishedAt = time.Now()
		mp.closeLog()
		close(mp.done)
		return fmt.Errorf("failed to start process %s: %w", id, err)
	}

	mp.status.State = types.ProcessStateRunning
	mp.status.StartedAt = time.Now()
	mp.status.Pid = mp.cmd.Process.Pid

	go r.monitor(mp)

	r.logger.Debug("Started process",
		log.Process(id),
		log.Int("pid", mp.status.Pid))

	return nil
}

// monitor waits for the process to complete and records how it exited.
func (r *ProcessRunner) monitor(mp *managedProcess) {
	err := mp.cmd.Wait()

	for _, w := range mp.writers {
		_ = w.Flush()
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	exitCode, signal := exitStatus(err)
	if err != nil && exitCode == 0 && signal == "" {
		mp.status.ErrorMessage = err.Error()
	}

	mp.status.ExitCode = exitCode
	mp.status.Signal = signal
	mp.status.FinishedAt = time.Now()
	if exitCode == 0 || mp.stopping {
		mp.status.State = types.ProcessStateExited
	} else {
		mp.status.State = types.ProcessStateFailed
	}
	mp.closeLog()
	close(mp.done)

	fields := []log.Field{
		log.Process(mp.proc.ID),
		log.Int("pid", mp.status.Pid),
		log.Int("exit_code", exitCode),
	}
	if signal != "" {
		fields = append(fields, log.Str("signal", signal))
	}
	r.logger.Debug("Process exited", fields...)
}

// exitStatus extracts the exit code from a Wait error. A process killed by a
// signal reports -1 and the signal name.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, ""
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return -1, status.Signal().String()
	}
	return exitErr.ExitCode(), ""
}

func (mp *managedProcess) closeLog() {
	if mp.logFile != nil {
		_ = mp.logFile.Close()
		mp.logFile = nil
	}
}

// Wait blocks until the process exits or ctx is done
func (r *ProcessRunner) Wait(ctx context.Context, id string) (runner.Status, error) {
	mp, err := r.get(id)
	if err != nil {
		return runner.Status{}, err
	}

	select {
	case <-mp.done:
	case <-ctx.Done():
		return runner.Status{}, ctx.Err()
	}

	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.status, nil
}

// Stop interrupts a running process. Like ros2 launch it sends SIGINT, then
// SIGTERM after the sigterm timeout, then SIGKILL after the sigkill timeout.
func (r *ProcessRunner) Stop(ctx context.Context, id string) error {
	mp, err := r.get(id)
	if err != nil {
		return err
	}

	mp.mu.Lock()
	if mp.status.State != types.ProcessStateRunning {
		mp.mu.Unlock()
		return nil
	}
	mp.stopping = true
	pid := mp.status.Pid
	mp.mu.Unlock()

	steps := []struct {
		signal syscall.Signal
		wait   time.Duration
	}{
		{syscall.SIGINT, r.sigtermTimeout},
		{syscall.SIGTERM, r.sigkillTimeout},
		{syscall.SIGKILL, 0},
	}

	for _, step := range steps {
		if err := signalGroup(pid, step.signal); err != nil {
			r.logger.Warn("Failed to signal process",
				log.Process(id),
				log.Str("signal", step.signal.String()),
				log.Err(err))
		}

		if step.signal == syscall.SIGKILL {
			break
		}
		timer := time.NewTimer(step.wait)
		select {
		case <-mp.done:
			timer.Stop()
			return nil
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.logger.Warn("Process did not exit, escalating",
				log.Process(id),
				log.Str("after", step.signal.String()),
				log.Duration("timeout", step.wait))
		}
	}

	select {
	case <-mp.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signalGroup signals the process group led by pid. A group that is already
// gone is not an error.
func signalGroup(pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// Remove forgets an exited process. Its log file is kept.
func (r *ProcessRunner) Remove(ctx context.Context, id string, force bool) error {
	mp, err := r.get(id)
	if err != nil {
		return err
	}

	mp.mu.RLock()
	running := mp.status.State == types.ProcessStateRunning
	mp.mu.RUnlock()

	if running {
		if !force {
			return fmt.Errorf("cannot remove running process, use force to override")
		}
		if err := r.Stop(ctx, id); err != nil {
			return err
		}
	}

	mp.mu.Lock()
	mp.closeLog()
	mp.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processes, id)
	for i, known := range r.order {
		if known == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Debug("Removed process", log.Process(id))
	return nil
}

// GetLogs reads the log file of a process with log output
func (r *ProcessRunner) GetLogs(ctx context.Context, id string, options runner.LogOptions) (io.ReadCloser, error) {
	mp, err := r.get(id)
	if err != nil {
		return nil, err
	}

	mp.mu.RLock()
	logPath := mp.status.LogPath
	mp.mu.RUnlock()

	if logPath == "" {
		return nil, fmt.Errorf("process %s writes no log file", id)
	}

	file, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if options.Tail > 0 {
		info, err := file.Stat()
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to stat log file: %w", err)
		}
		start := findStartPosition(file, info.Size(), options.Tail)
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to seek log file: %w", err)
		}
	}

	return file, nil
}

// Status retrieves the current status of a process
func (r *ProcessRunner) Status(ctx context.Context, id string) (runner.Status, error) {
	mp, err := r.get(id)
	if err != nil {
		return runner.Status{}, err
	}

	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.status, nil
}

// List returns the status of every process, in creation order
func (r *ProcessRunner) List(ctx context.Context) ([]runner.Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]runner.Status, 0, len(r.order))
	for _, id := range r.order {
		mp := r.processes[id]
		mp.mu.RLock()
		out = append(out, mp.status)
		mp.mu.RUnlock()
	}
	return out, nil
}

// findStartPosition finds the position to start reading to get the last n lines
func findStartPosition(file *os.File, fileSize int64, numLines int) int64 {
	if numLines <= 0 || fileSize == 0 {
		return 0
	}

	buf := make([]byte, 1)
	lineCount := 0

	// A trailing newline terminates the last line rather than starting a new one.
	for pos := fileSize - 1; pos >= 0; pos-- {
		if _, err := file.ReadAt(buf, pos); err != nil {
			return 0
		}
		if buf[0] == '\n' && pos != fileSize-1 {
			lineCount++
			if lineCount == numLines {
				return pos + 1
			}
		}
	}

	return 0
}
