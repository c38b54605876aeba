package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rzbill/navlaunch/pkg/launch"
	"github.com/rzbill/navlaunch/pkg/log"
	"github.com/rzbill/navlaunch/pkg/runner"
	"github.com/rzbill/navlaunch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan(ids ...string) *launch.Plan {
	plan := &launch.Plan{Launch: "test"}
	for _, id := range ids {
		plan.Processes = append(plan.Processes, &types.Process{ID: id, Command: []string{"/bin/" + id}})
	}
	return plan
}

func TestRun_AllExit(t *testing.T) {
	r := runner.NewTestRunner()
	r.ExitCodes["a-1"] = 0
	r.ExitCodes["b-1"] = 2
	r.LogOutput = []byte("first\nsecond\n")
	logger := log.NewTestLogger()

	o := NewOrchestrator(r, WithLogger(logger))
	result, err := o.Run(context.Background(), testPlan("a-1", "b-1"))
	require.NoError(t, err)
	assert.False(t, result.Interrupted)

	require.Len(t, result.Statuses, 2)
	assert.Equal(t, "a-1", result.Statuses[0].ID)
	assert.Equal(t, 2, result.Statuses[1].ExitCode)

	assert.Equal(t, []string{"a-1", "b-1"}, r.StartedProcesses)
	assert.Empty(t, r.StoppedProcesses)
	assert.ElementsMatch(t, []string{"a-1", "b-1"}, r.RemovedProcesses)
	assert.True(t, logger.HasMessage(log.InfoLevel, "Process has finished cleanly"))
}

func TestRun_FailedProcessReportsLog(t *testing.T) {
	r := &failingRunner{TestRunner: runner.NewTestRunner()}
	r.LogOutput = []byte("[ERROR] map file not found\n")
	r.ExitCodes["amcl-1"] = 1
	logger := log.NewTestLogger()

	o := NewOrchestrator(r, WithLogger(logger))
	result, err := o.Run(context.Background(), testPlan("amcl-1"))
	require.NoError(t, err)

	failed := result.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].ExitCode)
	assert.True(t, logger.HasMessage(log.ErrorLevel, "Process has died"))
	assert.True(t, logger.HasMessage(log.ErrorLevel, "map file not found"))
	assert.Equal(t, []string{"amcl-1"}, r.LogCalls)
}

func TestRun_InterruptStopsInReverse(t *testing.T) {
	r := runner.NewTestRunner()
	o := NewOrchestrator(r, WithLogger(log.NewTestLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := o.Run(ctx, testPlan("slam-1", "rviz2-1"))
		done <- outcome{result, err}
	}()

	require.Eventually(t, func() bool {
		list, _ := r.List(context.Background())
		running := 0
		for _, s := range list {
			if s.State == types.ProcessStateRunning {
				running++
			}
		}
		return running == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	var out outcome
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("launch did not shut down")
	}
	require.NoError(t, out.err)
	assert.True(t, out.result.Interrupted)
	assert.Empty(t, out.result.Failed())
	assert.ElementsMatch(t, []string{"rviz2-1", "slam-1"}, r.StoppedProcesses)
	for _, s := range out.result.Statuses {
		assert.Equal(t, types.ProcessStateExited, s.State)
	}
}

func TestRun_StartFailureStopsStarted(t *testing.T) {
	r := runner.NewTestRunner()
	r.StartErrors["rviz2-1"] = errors.New("exec format error")

	o := NewOrchestrator(r, WithLogger(log.NewTestLogger()))
	_, err := o.Run(context.Background(), testPlan("slam-1", "rviz2-1", "never-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting process rviz2-1")

	assert.Equal(t, []string{"slam-1"}, r.StartedProcesses)
	assert.Equal(t, []string{"slam-1"}, r.StoppedProcesses)
	assert.ElementsMatch(t, []string{"slam-1", "rviz2-1", "never-1"}, r.RemovedProcesses)
}

func TestRun_CreateFailure(t *testing.T) {
	r := runner.NewTestRunner()
	o := NewOrchestrator(r, WithLogger(log.NewTestLogger()))

	_, err := o.Run(context.Background(), testPlan("dup-1", "dup-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Empty(t, r.StartedProcesses)
	assert.Equal(t, []string{"dup-1"}, r.RemovedProcesses)
}

func TestNewRun(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	run, err := NewRun(base, "slam", now)
	require.NoError(t, err)
	assert.DirExists(t, run.Dir)
	assert.Equal(t, base, filepath.Dir(run.Dir))
	assert.True(t, strings.HasPrefix(filepath.Base(run.Dir), "2024-05-01-12-30-00-slam-"))
	assert.True(t, strings.HasSuffix(run.Dir, run.ID[:8]))

	other, err := NewRun(base, "slam", now)
	require.NoError(t, err)
	assert.NotEqual(t, run.Dir, other.Dir)

	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	_, err = NewRun(blocker, "slam", now)
	assert.Error(t, err)
}

func TestRun_StatusErrorIsLogged(t *testing.T) {
	r := &statuslessRunner{TestRunner: runner.NewTestRunner()}
	r.ExitCodes["rviz2-1"] = 0
	logger := log.NewTestLogger()

	o := NewOrchestrator(r, WithLogger(logger))
	result, err := o.Run(context.Background(), testPlan("rviz2-1"))
	require.NoError(t, err)
	require.Len(t, result.Statuses, 1)

	assert.True(t, logger.HasMessage(log.DebugLevel, "Failed to read process status"))
	for _, e := range logger.GetEntries() {
		if e.Message == "Process started" {
			assert.NotContains(t, e.Fields, "pid")
		}
	}
}

// statuslessRunner fails every Status call.
type statuslessRunner struct {
	*runner.TestRunner
}

func (r *statuslessRunner) Status(ctx context.Context, id string) (runner.Status, error) {
	return runner.Status{}, errors.New("status unavailable")
}

// failingRunner reports every exited process as failed with a log file.
type failingRunner struct {
	*runner.TestRunner
}

func (r *failingRunner) Wait(ctx context.Context, id string) (runner.Status, error) {
	status, err := r.TestRunner.Wait(ctx, id)
	if err == nil && status.ExitCode != 0 {
		status.State = types.ProcessStateFailed
		status.LogPath = "/tmp/" + id + ".log"
	}
	return status, err
}
