package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/eagraf/localfabric/internal/command"
	"github.com/eagraf/localfabric/internal/command/mocks"
	"github.com/eagraf/localfabric/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOperationTable(t *testing.T) {
	testCases := []struct {
		op        Operation
		name      string
		transient State
		terminal  State
		scripts   []string
	}{
		{OperationStart, "start", Starting, Started, []string{"start"}},
		{OperationStop, "stop", Stopping, Stopped, []string{"stop"}},
		{OperationTeardown, "teardown", Stopping, Stopped, []string{"teardown"}},
		{OperationRestart, "restart", Restarting, Started, []string{"stop", "start"}},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.name, tc.op.String())
		assert.Equal(t, tc.transient, tc.op.transient())
		assert.Equal(t, tc.terminal, tc.op.terminal())
		assert.Equal(t, tc.scripts, tc.op.scripts())
	}
	assert.Equal(t, "operation(9)", Operation(9).String())
}

func TestStart(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "start", `echo "starting in $CORE_CHAINCODE_MODE mode"`)
	recorder := &output.Recorder{}

	require.NoError(t, tr.Start(context.Background(), recorder))

	require.Equal(t, []string{"starting in net mode"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Starting, Started}, tr.events.States())
	require.Equal(t, Started, tr.State())
	require.False(t, tr.IsBusy())
	// starting leaves an open log stream alone
	require.Equal(t, 0, tr.streamer.stops)
}

func TestStartDevelopmentMode(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "start", `echo "starting in $CORE_CHAINCODE_MODE mode"`)
	require.NoError(t, tr.SetDevelopmentMode(true))
	recorder := &output.Recorder{}

	require.NoError(t, tr.Start(context.Background(), recorder))
	require.Equal(t, []string{"starting in dev mode"}, recorder.Messages(output.Info))
}

func TestStop(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "stop", `echo stopping; echo "warning" >&2`)
	recorder := &output.Recorder{}

	require.NoError(t, tr.Stop(context.Background(), recorder))

	require.ElementsMatch(t, []string{"stopping", "warning"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Stopping, Stopped}, tr.events.States())
	require.Equal(t, 1, tr.streamer.stops)
}

func TestTeardown(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "teardown", `echo "tearing down $CORE_CHAINCODE_MODE"`)
	recorder := &output.Recorder{}

	require.NoError(t, tr.Teardown(context.Background(), recorder))

	require.Equal(t, []string{"tearing down net"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Stopping, Stopped}, tr.events.States())
	require.Equal(t, 1, tr.streamer.stops)
}

func TestRestart(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "stop", "echo stop")
	writeScript(t, tr.scriptsDir, "start", "echo start")
	recorder := &output.Recorder{}

	require.NoError(t, tr.Restart(context.Background(), recorder))

	require.Equal(t, []string{"stop", "start"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Restarting, Started}, tr.events.States())
	require.Equal(t, 1, tr.streamer.stops)
}

func TestStartFailureWithNetworkDown(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "start", "echo half way; exit 1")
	tr.network.SetAllRunning(false)
	recorder := &output.Recorder{}

	err := tr.Start(context.Background(), recorder)
	require.Error(t, err)

	var execErr *command.CommandExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, 1, execErr.Code)
	require.Equal(t, `Failed to execute command "/bin/sh" with  arguments "start.sh" return code 1`, err.Error())

	require.Equal(t, []string{"half way"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Starting, Stopped}, tr.events.States())
	require.False(t, tr.IsBusy())
}

func TestStartFailureWithNetworkUp(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "start", "exit 3")

	err := tr.Start(context.Background(), &output.Recorder{})
	require.Error(t, err)
	require.Equal(t, []State{Starting, Started}, tr.events.States())
}

func TestStopFailureWithNetworkUp(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "stop", "exit 1")

	err := tr.Stop(context.Background(), &output.Recorder{})
	require.Error(t, err)
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Stopping, Started}, tr.events.States())
	require.Equal(t, 1, tr.streamer.stops)
}

func TestTeardownFailureWithNetworkDown(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "teardown", "exit 1")
	tr.network.SetAllRunning(false)

	err := tr.Teardown(context.Background(), &output.Recorder{})
	require.Error(t, err)
	require.Equal(t, []State{Stopping, Stopped}, tr.events.States())
}

func TestRestartStopFailureSkipsStart(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "stop", "exit 2")
	writeScript(t, tr.scriptsDir, "start", "touch started")

	err := tr.Restart(context.Background(), &output.Recorder{})
	require.Error(t, err)

	var execErr *command.CommandExecutionError
	require.True(t, errors.As(err, &execErr))
	require.Equal(t, 2, execErr.Code)
	require.Equal(t, []State{Restarting, Started}, tr.events.States())

	_, statErr := os.Stat(filepath.Join(tr.scriptsDir, "started"))
	require.True(t, os.IsNotExist(statErr))
}

func TestMissingScript(t *testing.T) {
	tr := newTestRuntime(t, nil)
	tr.network.SetAllRunning(false)

	err := tr.Start(context.Background(), &output.Recorder{})
	require.Error(t, err)
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Starting, Stopped}, tr.events.States())
}

func TestWindowsStopFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)

	tr := newTestRuntime(t, func(opts *Options) {
		opts.Runner = runner
		opts.Shell = command.WindowsShell()
	})
	tr.network.SetAllRunning(false)

	runner.EXPECT().Execute(gomock.Any(), "cmd", []string{"/c", "stop.cmd"}, gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd string, args []string, opts command.Options) error {
			require.Equal(t, tr.scriptsDir, opts.Dir)
			require.Equal(t, map[string]string{"CORE_CHAINCODE_MODE": "net"}, opts.Env)
			return &command.CommandExecutionError{Command: cmd, Args: args, Code: 1}
		},
	)

	err := tr.Stop(context.Background(), &output.Recorder{})
	require.Error(t, err)
	require.Equal(t, `Failed to execute command "cmd" with  arguments "/c, stop.cmd" return code 1`, err.Error())
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Stopping, Stopped}, tr.events.States())
}

func TestWindowsRestart(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)

	tr := newTestRuntime(t, func(opts *Options) {
		opts.Runner = runner
		opts.Shell = command.WindowsShell()
		opts.DevelopmentMode = true
	})

	devEnv := command.Options{
		Dir: tr.scriptsDir,
		Env: map[string]string{"CORE_CHAINCODE_MODE": "dev"},
	}
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), "cmd", []string{"/c", "stop.cmd"}, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, _ []string, opts command.Options) error {
				require.Equal(t, devEnv.Dir, opts.Dir)
				require.Equal(t, devEnv.Env, opts.Env)
				require.Equal(t, Restarting, tr.State())
				require.True(t, tr.IsBusy())
				return nil
			}),
		runner.EXPECT().Execute(gomock.Any(), "cmd", []string{"/c", "start.cmd"}, gomock.Any()).Return(nil),
	)

	require.NoError(t, tr.Restart(context.Background(), &output.Recorder{}))
	require.Equal(t, []State{Restarting, Started}, tr.events.States())
}

func TestRestartStartFailureWithNetworkDown(t *testing.T) {
	tr := newTestRuntime(t, nil)
	writeScript(t, tr.scriptsDir, "stop", "echo stopped")
	writeScript(t, tr.scriptsDir, "start", "exit 1")
	tr.network.SetAllRunning(false)
	recorder := &output.Recorder{}

	err := tr.Restart(context.Background(), recorder)
	require.Error(t, err)
	require.Equal(t, `Failed to execute command "/bin/sh" with  arguments "start.sh" return code 1`, err.Error())

	require.Equal(t, []string{"stopped"}, recorder.Messages(output.Info))
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Restarting, Stopped}, tr.events.States())
	require.Equal(t, Stopped, tr.State())
}

func TestWindowsRestartStartFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)

	tr := newTestRuntime(t, func(opts *Options) {
		opts.Runner = runner
		opts.Shell = command.WindowsShell()
	})
	tr.network.SetAllRunning(false)

	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), "cmd", []string{"/c", "stop.cmd"}, gomock.Any()).Return(nil),
		runner.EXPECT().Execute(gomock.Any(), "cmd", []string{"/c", "start.cmd"}, gomock.Any()).Return(
			&command.CommandExecutionError{Command: "cmd", Args: []string{"/c", "start.cmd"}, Code: 1},
		),
	)

	err := tr.Restart(context.Background(), &output.Recorder{})
	require.EqualError(t, err, `Failed to execute command "cmd" with  arguments "/c, start.cmd" return code 1`)
	require.Equal(t, []State{Restarting, Stopped}, tr.events.States())
}

func TestPanicSettlesState(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)

	tr := newTestRuntime(t, func(opts *Options) {
		opts.Runner = runner
	})
	tr.network.SetAllRunning(false)

	runner.EXPECT().Execute(gomock.Any(), "/bin/sh", []string{"start.sh"}, gomock.Any()).DoAndReturn(
		func(context.Context, string, []string, command.Options) error {
			panic("runner exploded")
		},
	)

	require.PanicsWithValue(t, "runner exploded", func() {
		_ = tr.Start(context.Background(), &output.Recorder{})
	})
	require.Equal(t, []bool{true, false}, tr.events.Busy())
	require.Equal(t, []State{Starting, Stopped}, tr.events.States())
	require.False(t, tr.IsBusy())
}
