package runtime

import (
	"context"

	"github.com/eagraf/localfabric/internal/command"
	"github.com/eagraf/localfabric/internal/constants"
	"github.com/eagraf/localfabric/internal/output"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func (r *Runtime) Start(ctx context.Context, sink output.Adapter) error {
	return r.run(ctx, OperationStart, sink)
}

func (r *Runtime) Stop(ctx context.Context, sink output.Adapter) error {
	return r.run(ctx, OperationStop, sink)
}

// Teardown stops the network and removes its containers and volumes.
func (r *Runtime) Teardown(ctx context.Context, sink output.Adapter) error {
	return r.run(ctx, OperationTeardown, sink)
}

func (r *Runtime) Restart(ctx context.Context, sink output.Adapter) error {
	return r.run(ctx, OperationRestart, sink)
}

func (r *Runtime) run(ctx context.Context, op Operation, sink output.Adapter) error {
	logger := log.With().
		Str("runtime", r.name).
		Str("operation", op.String()).
		Str("operation_id", uuid.NewString()).
		Logger()

	r.setBusy(logger, true)
	defer r.setBusy(logger, false)
	r.setState(logger, op.transient())

	settled := false
	defer func() {
		// Reached without a terminal state only while panicking.
		if !settled {
			r.setState(logger, r.observedState(ctx))
		}
	}()

	if op != OperationStart {
		r.logs.Stop()
	}

	if err := r.runScripts(ctx, op, sink); err != nil {
		logger.Error().Err(err).Msgf("%s failed", op)
		settled = true
		// The scripts may have partially succeeded, so ask docker.
		r.setState(logger, r.observedState(ctx))
		return err
	}

	settled = true
	r.setState(logger, op.terminal())
	return nil
}

func (r *Runtime) observedState(ctx context.Context) State {
	if r.inspector.IsRunning(context.WithoutCancel(ctx)) {
		return Started
	}
	return Stopped
}

func (r *Runtime) runScripts(ctx context.Context, op Operation, sink output.Adapter) error {
	mode := constants.ChaincodeModeNet
	if r.IsDevelopmentMode() {
		mode = constants.ChaincodeModeDev
	}

	for _, script := range op.scripts() {
		cmd, args := r.shell.Command(script)
		err := r.runner.Execute(ctx, cmd, args, command.Options{
			Dir:  r.scriptsDir,
			Env:  map[string]string{constants.EnvChaincodeMode: mode},
			Sink: sink,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) setBusy(logger zerolog.Logger, busy bool) {
	r.mu.Lock()
	r.busy = busy
	r.mu.Unlock()

	if err := r.busyPublisher.PublishEvent(&BusyEvent{Busy: busy}); err != nil {
		logger.Warn().Err(err).Msg("error publishing busy event")
	}
}

func (r *Runtime) setState(logger zerolog.Logger, state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	logger.Debug().Str("state", string(state)).Msg("runtime state changed")
	if err := r.statePublisher.PublishEvent(&StateEvent{State: state}); err != nil {
		logger.Warn().Err(err).Msg("error publishing state event")
	}
}
