package docker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPortNotPublished = errors.New("port not published")
)

// API is the part of the Docker Engine client the inspector needs.
// *client.Client satisfies it.
type API interface {
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	VolumeInspect(ctx context.Context, volumeID string) (volume.Volume, error)
}

var _ API = &client.Client{}

// NewClient connects to the Docker daemon configured by the environment.
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return cli, nil
}

type Binding struct {
	HostIP   string
	HostPort int
}

// Address formats the binding as host:port.
func (b Binding) Address() string {
	return fmt.Sprintf("%s:%d", b.HostIP, b.HostPort)
}

type Inspector struct {
	api    API
	prefix string
}

func NewInspector(api API, prefix string) *Inspector {
	return &Inspector{
		api:    api,
		prefix: prefix,
	}
}

func (i *Inspector) Prefix() string {
	return i.prefix
}

// ContainerName returns the name of the container backing a service.
func (i *Inspector) ContainerName(s Service) string {
	return s.ResourceName(i.prefix)
}

func (i *Inspector) InspectContainer(ctx context.Context, name string) (types.ContainerJSON, error) {
	return i.api.ContainerInspect(ctx, name)
}

// ContainerExists reports whether the named container can be inspected.
// Every inspection error counts as absence.
func (i *Inspector) ContainerExists(ctx context.Context, name string) bool {
	_, err := i.api.ContainerInspect(ctx, name)
	if err != nil {
		logInspectErr(err, "container", name)
		return false
	}
	return true
}

func (i *Inspector) ContainerIsRunning(ctx context.Context, name string) bool {
	info, err := i.api.ContainerInspect(ctx, name)
	if err != nil {
		logInspectErr(err, "container", name)
		return false
	}
	if info.ContainerJSONBase == nil || info.State == nil {
		return false
	}
	return info.State.Running
}

func (i *Inspector) VolumeExists(ctx context.Context, name string) bool {
	_, err := i.api.VolumeInspect(ctx, name)
	if err != nil {
		logInspectErr(err, "volume", name)
		return false
	}
	return true
}

// IsCreated is true if at least one of the managed volumes exists.
func (i *Inspector) IsCreated(ctx context.Context) bool {
	services := Services()
	found := make([]bool, len(services))
	eg, egCtx := errgroup.WithContext(ctx)
	for idx, s := range services {
		idx, s := idx, s
		eg.Go(func() error {
			found[idx] = i.VolumeExists(egCtx, s.ResourceName(i.prefix))
			return nil
		})
	}
	_ = eg.Wait()
	for _, ok := range found {
		if ok {
			return true
		}
	}
	return false
}

// IsRunning is true only if every managed container exists and is running.
func (i *Inspector) IsRunning(ctx context.Context) bool {
	services := Services()
	running := make([]bool, len(services))
	eg, egCtx := errgroup.WithContext(ctx)
	for idx, s := range services {
		idx, s := idx, s
		eg.Go(func() error {
			running[idx] = i.ContainerIsRunning(egCtx, s.ResourceName(i.prefix))
			return nil
		})
	}
	_ = eg.Wait()
	for _, ok := range running {
		if !ok {
			return false
		}
	}
	return true
}

// PublishedAddress inspects the service's container and resolves the host
// binding of one of its container ports.
func (i *Inspector) PublishedAddress(ctx context.Context, s Service, containerPort string) (Binding, error) {
	name := i.ContainerName(s)
	info, err := i.api.ContainerInspect(ctx, name)
	if err != nil {
		return Binding{}, fmt.Errorf("error inspecting container %s: %w", name, err)
	}
	return ResolvePublishedPort(info, containerPort)
}

// ResolvePublishedPort returns the first host binding for containerPort
// (e.g. "7051/tcp" or "7051"). Wildcard host IPs resolve to localhost.
func ResolvePublishedPort(info types.ContainerJSON, containerPort string) (Binding, error) {
	port, err := parsePort(containerPort)
	if err != nil {
		return Binding{}, err
	}
	if info.NetworkSettings == nil {
		return Binding{}, fmt.Errorf("%w: %s", ErrPortNotPublished, port)
	}
	bindings := info.NetworkSettings.Ports[port]
	for _, b := range bindings {
		if b.HostPort == "" {
			continue
		}
		hostPort, err := strconv.Atoi(b.HostPort)
		if err != nil {
			return Binding{}, fmt.Errorf("invalid host port %q for %s: %w", b.HostPort, port, err)
		}
		return Binding{HostIP: normalizeHostIP(b.HostIP), HostPort: hostPort}, nil
	}
	return Binding{}, fmt.Errorf("%w: %s", ErrPortNotPublished, port)
}

func parsePort(containerPort string) (nat.Port, error) {
	proto, port := nat.SplitProtoPort(containerPort)
	if port == "" {
		return "", fmt.Errorf("invalid container port %q", containerPort)
	}
	return nat.NewPort(proto, port)
}

func normalizeHostIP(ip string) string {
	switch ip {
	case "", "0.0.0.0", "::":
		return "localhost"
	default:
		return ip
	}
}

func logInspectErr(err error, kind, name string) {
	if client.IsErrNotFound(err) {
		log.Debug().Msgf("%s %s does not exist", kind, name)
		return
	}
	log.Warn().Err(err).Msgf("error inspecting %s %s", kind, name)
}
