package test_helpers

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/eagraf/localfabric/internal/docker"
	"github.com/eagraf/localfabric/internal/docker/mocks"
	"go.uber.org/mock/gomock"
)

// Network fakes the Docker daemon view of a provisioned, running network.
// Containers and volumes can be removed or stopped between calls.
type Network struct {
	API    *mocks.MockAPI
	Prefix string

	mu         sync.Mutex
	containers map[string]types.ContainerJSON
	volumes    map[string]bool
}

func ContainerJSON(running bool, bindings map[string]nat.PortBinding) types.ContainerJSON {
	ports := nat.PortMap{}
	for port, binding := range bindings {
		ports[nat.Port(port)] = []nat.PortBinding{binding}
	}
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			State: &types.ContainerState{Running: running},
		},
		NetworkSettings: &types.NetworkSettings{
			NetworkSettingsBase: types.NetworkSettingsBase{Ports: ports},
		},
	}
}

func binding(ip string, port int) nat.PortBinding {
	return nat.PortBinding{HostIP: ip, HostPort: strconv.Itoa(port)}
}

// NewNetwork returns a network whose published ports match DefaultPorts.
func NewNetwork(ctrl *gomock.Controller, prefix string) *Network {
	n := &Network{
		API:        mocks.NewMockAPI(ctrl),
		Prefix:     prefix,
		containers: make(map[string]types.ContainerJSON),
		volumes:    make(map[string]bool),
	}
	n.containers[docker.PeerService.ResourceName(prefix)] = ContainerJSON(true, map[string]nat.PortBinding{
		docker.PortPeerRequest:   binding("0.0.0.0", 12345),
		docker.PortPeerChaincode: binding("0.0.0.0", 54321),
		docker.PortPeerEventHub:  binding("0.0.0.0", 12346),
	})
	n.containers[docker.OrdererService.ResourceName(prefix)] = ContainerJSON(true, map[string]nat.PortBinding{
		docker.PortOrderer: binding("127.0.0.1", 12347),
	})
	n.containers[docker.CAService.ResourceName(prefix)] = ContainerJSON(true, map[string]nat.PortBinding{
		docker.PortCA: binding("127.0.0.1", 12348),
	})
	n.containers[docker.CouchDBService.ResourceName(prefix)] = ContainerJSON(true, map[string]nat.PortBinding{
		docker.PortCouchDB: binding("127.0.0.1", 12349),
	})
	n.containers[docker.LogsService.ResourceName(prefix)] = ContainerJSON(true, map[string]nat.PortBinding{
		docker.PortLogs: binding("0.0.0.0", 12387),
	})
	for _, s := range docker.Services() {
		n.volumes[s.ResourceName(prefix)] = true
	}

	n.API.EXPECT().ContainerInspect(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, name string) (types.ContainerJSON, error) {
			n.mu.Lock()
			defer n.mu.Unlock()
			info, ok := n.containers[name]
			if !ok {
				return types.ContainerJSON{}, errdefs.NotFound(fmt.Errorf("No such container: %s", name))
			}
			return info, nil
		},
	).AnyTimes()
	n.API.EXPECT().VolumeInspect(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, name string) (volume.Volume, error) {
			n.mu.Lock()
			defer n.mu.Unlock()
			if !n.volumes[name] {
				return volume.Volume{}, errdefs.NotFound(fmt.Errorf("get %s: no such volume", name))
			}
			return volume.Volume{Name: name}, nil
		},
	).AnyTimes()
	return n
}

func (n *Network) SetRunning(s docker.Service, running bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	name := s.ResourceName(n.Prefix)
	info, ok := n.containers[name]
	if !ok {
		return
	}
	state := *info.State
	state.Running = running
	base := *info.ContainerJSONBase
	base.State = &state
	info.ContainerJSONBase = &base
	n.containers[name] = info
}

// SetAllRunning starts or stops every container that still exists.
func (n *Network) SetAllRunning(running bool) {
	for _, s := range docker.Services() {
		n.SetRunning(s, running)
	}
}

func (n *Network) RemoveContainer(s docker.Service) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.containers, s.ResourceName(n.Prefix))
}

func (n *Network) RemoveVolume(s docker.Service) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.volumes, s.ResourceName(n.Prefix))
}
