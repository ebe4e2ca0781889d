package runtime

import (
	"context"
	"sync"

	"github.com/eagraf/localfabric/internal/command"
	"github.com/eagraf/localfabric/internal/config"
	"github.com/eagraf/localfabric/internal/constants"
	"github.com/eagraf/localfabric/internal/docker"
	"github.com/eagraf/localfabric/internal/logs"
	"github.com/eagraf/localfabric/internal/output"
	"github.com/eagraf/localfabric/internal/pubsub"
	"github.com/spf13/afero"
)

type Inspector interface {
	IsCreated(ctx context.Context) bool
	IsRunning(ctx context.Context) bool
	ContainerName(s docker.Service) string
	PublishedAddress(ctx context.Context, s docker.Service, containerPort string) (docker.Binding, error)
}

type LogStreamer interface {
	Start(ctx context.Context, url string, sink output.Adapter) error
	Stop()
	Active() bool
}

// SettingsStore persists user settings that outlive the process.
type SettingsStore interface {
	SaveDevelopmentMode(enabled bool) error
}

type Options struct {
	Name string
	// Directory holds connection profiles and wallets.
	Directory       string
	ScriptsDir      string
	Ports           config.Ports
	DevelopmentMode bool
	// ProfilePatch is applied to every generated connection profile.
	ProfilePatch string

	Runner    command.Runner
	Shell     command.Shell
	Inspector Inspector
	Logs      LogStreamer
	Fs        afero.Fs
	Settings  SettingsStore
}

// Runtime manages the lifecycle of the local Fabric network and derives the
// client configuration needed to talk to it.
type Runtime struct {
	name         string
	directory    string
	scriptsDir   string
	ports        config.Ports
	profilePatch string

	runner    command.Runner
	shell     command.Shell
	inspector Inspector
	logs      LogStreamer
	fs        afero.Fs
	settings  SettingsStore

	busyPublisher  *pubsub.SimplePublisher[BusyEvent]
	statePublisher *pubsub.SimplePublisher[StateEvent]

	mu      sync.RWMutex
	state   State
	busy    bool
	devMode bool
}

func New(opts Options) *Runtime {
	r := &Runtime{
		name:           opts.Name,
		directory:      opts.Directory,
		scriptsDir:     opts.ScriptsDir,
		ports:          opts.Ports,
		profilePatch:   opts.ProfilePatch,
		runner:         opts.Runner,
		shell:          opts.Shell,
		inspector:      opts.Inspector,
		logs:           opts.Logs,
		fs:             opts.Fs,
		settings:       opts.Settings,
		busyPublisher:  pubsub.NewSimplePublisher[BusyEvent](),
		statePublisher: pubsub.NewSimplePublisher[StateEvent](),
		state:          Stopped,
		devMode:        opts.DevelopmentMode,
	}
	if r.name == "" {
		r.name = constants.RuntimeName
	}
	if r.runner == nil {
		r.runner = command.NewExecRunner()
	}
	if r.shell == nil {
		r.shell = command.DefaultShell()
	}
	if r.logs == nil {
		r.logs = logs.NewStreamer(nil)
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	return r
}

// NewFromConfig wires a runtime to the host: scripts run through the
// platform shell and containers are inspected through api.
func NewFromConfig(cfg *config.Config, api docker.API) *Runtime {
	return New(Options{
		Directory:       cfg.Directory,
		ScriptsDir:      cfg.ScriptsDir,
		Ports:           cfg.Ports,
		DevelopmentMode: cfg.DevelopmentMode,
		ProfilePatch:    cfg.ProfilePatch,
		Inspector:       docker.NewInspector(api, cfg.ContainerPrefix),
		Settings:        cfg,
	})
}

func (r *Runtime) Name() string {
	return r.name
}

func (r *Runtime) Ports() config.Ports {
	return r.ports
}

func (r *Runtime) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runtime) IsBusy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.busy
}

func (r *Runtime) IsDevelopmentMode() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devMode
}

// SetDevelopmentMode takes effect on the next lifecycle operation.
func (r *Runtime) SetDevelopmentMode(enabled bool) error {
	r.mu.Lock()
	r.devMode = enabled
	r.mu.Unlock()

	if r.settings == nil {
		return nil
	}
	return r.settings.SaveDevelopmentMode(enabled)
}

func (r *Runtime) IsCreated(ctx context.Context) bool {
	return r.inspector.IsCreated(ctx)
}

func (r *Runtime) IsRunning(ctx context.Context) bool {
	return r.inspector.IsRunning(ctx)
}

func (r *Runtime) PeerContainerName() string {
	return r.inspector.ContainerName(docker.PeerService)
}

func (r *Runtime) SubscribeBusy(s pubsub.Subscriber[BusyEvent]) func() {
	return r.busyPublisher.AddSubscriber(s)
}

func (r *Runtime) SubscribeState(s pubsub.Subscriber[StateEvent]) func() {
	return r.statePublisher.AddSubscriber(s)
}
