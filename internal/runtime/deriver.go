package runtime

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/eagraf/localfabric/internal/constants"
	"github.com/eagraf/localfabric/internal/docker"
	"github.com/eagraf/localfabric/internal/gateway"
	"github.com/eagraf/localfabric/internal/logs"
	"github.com/eagraf/localfabric/internal/output"
	"github.com/eagraf/localfabric/internal/wallet"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func (r *Runtime) ChaincodeAddress() string {
	return fmt.Sprintf("localhost:%d", r.ports.PeerChaincode)
}

func (r *Runtime) LogsAddress() string {
	return fmt.Sprintf("localhost:%d", r.ports.Logs)
}

func (r *Runtime) connectionProfileDir(dir string) string {
	return filepath.Join(dir, r.name)
}

func (r *Runtime) connectionProfilePath(dir string) string {
	return filepath.Join(r.connectionProfileDir(dir), constants.ConnectionProfile)
}

// connectionProfile renders the profile for the running network. Peer
// addresses come from the live container, the rest from configured ports.
func (r *Runtime) connectionProfile(ctx context.Context) ([]byte, error) {
	peerRequest, err := r.inspector.PublishedAddress(ctx, docker.PeerService, docker.PortPeerRequest)
	if err != nil {
		return nil, err
	}
	peerEventHub, err := r.inspector.PublishedAddress(ctx, docker.PeerService, docker.PortPeerEventHub)
	if err != nil {
		return nil, err
	}

	profile := gateway.NewConnectionProfile(gateway.Endpoints{
		PeerRequest:  peerRequest.Address(),
		PeerEventHub: peerEventHub.Address(),
		Orderer:      fmt.Sprintf("127.0.0.1:%d", r.ports.Orderer),
		CA:           fmt.Sprintf("127.0.0.1:%d", r.ports.CertificateAuthority),
	})
	return gateway.Render(profile, r.profilePatch)
}

func (r *Runtime) Gateways(ctx context.Context) ([]Gateway, error) {
	profile, err := r.connectionProfile(ctx)
	if err != nil {
		return nil, err
	}
	return []Gateway{
		{
			Name:              r.name,
			Path:              r.connectionProfilePath(r.directory),
			ConnectionProfile: profile,
		},
	}, nil
}

func (r *Runtime) Nodes() []Node {
	return []Node{
		{
			ShortName: docker.PeerService.DNSName,
			Name:      docker.PeerService.DNSName,
			Type:      NodeTypePeer,
			URL:       fmt.Sprintf("grpc://localhost:%d", r.ports.PeerRequest),
			Wallet:    constants.OpsWallet(),
			Identity:  constants.AdminUser,
			MSPID:     gateway.OrgMSPID,
		},
		{
			ShortName: docker.CAService.DNSName,
			Name:      docker.CAService.DNSName,
			Type:      NodeTypeCA,
			URL:       fmt.Sprintf("http://localhost:%d", r.ports.CertificateAuthority),
			Wallet:    constants.LocalWallet,
			Identity:  constants.AdminUser,
			MSPID:     gateway.OrgMSPID,
		},
		{
			ShortName: docker.OrdererService.DNSName,
			Name:      docker.OrdererService.DNSName,
			Type:      NodeTypeOrderer,
			URL:       fmt.Sprintf("grpc://localhost:%d", r.ports.Orderer),
			Wallet:    constants.OpsWallet(),
			Identity:  constants.AdminUser,
			MSPID:     gateway.OrdererMSPID,
		},
	}
}

func (r *Runtime) WalletNames() []string {
	return []string{constants.OpsWallet()}
}

func (r *Runtime) Identities(walletName string) ([]IdentityBundle, error) {
	w, err := wallet.Open(r.fs, r.directory, walletName)
	if err != nil {
		return nil, err
	}
	identities, err := w.List()
	if err != nil {
		return nil, err
	}

	bundles := make([]IdentityBundle, 0, len(identities))
	for _, identity := range identities {
		bundles = append(bundles, IdentityBundle{
			Name:        identity.Label,
			Certificate: base64.StdEncoding.EncodeToString(identity.Certificate),
			PrivateKey:  base64.StdEncoding.EncodeToString(identity.PrivateKey),
			MSPID:       identity.MSPID,
		})
	}
	return bundles, nil
}

// ImportAdminIdentity copies the admin certificate and key out of an MSP
// directory into the named wallet, creating the wallet if needed.
func (r *Runtime) ImportAdminIdentity(walletName, mspDir string) error {
	identity, err := wallet.LoadMSP(r.fs, constants.AdminUser, gateway.OrgMSPID, mspDir)
	if err != nil {
		return fmt.Errorf("error importing admin identity into %s: %w", walletName, err)
	}
	w, err := wallet.Create(r.fs, r.directory, walletName)
	if err != nil {
		return err
	}
	if err := w.Put(identity); err != nil {
		return fmt.Errorf("error importing admin identity into %s: %w", walletName, err)
	}
	log.Info().Msgf("imported %s into wallet %s", constants.AdminUser, walletName)
	return nil
}

// ExportConnectionProfile writes <dir>/<name>/connection.json, where dir
// defaults to the runtime directory.
func (r *Runtime) ExportConnectionProfile(ctx context.Context, sink output.Adapter, targetDir string) error {
	sink = output.OrDefault(sink)
	if targetDir == "" {
		targetDir = r.directory
	}
	dir := r.connectionProfileDir(targetDir)

	if err := r.writeConnectionProfile(ctx, dir); err != nil {
		perr := &PersistenceError{Dir: dir, Err: err}
		sink.Log(output.Error, perr.Error())
		return perr
	}
	return nil
}

func (r *Runtime) writeConnectionProfile(ctx context.Context, dir string) error {
	profile, err := r.connectionProfile(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, constants.ConnectionProfile)
	if previous, err := afero.ReadFile(r.fs, path); err == nil {
		patch, err := gateway.Diff(previous, profile)
		if err != nil {
			log.Debug().Err(err).Msgf("not comparing with existing profile %s", path)
		} else if len(patch) > 0 {
			log.Debug().Msgf("connection profile %s changed: %s", path, patch)
		}
	}

	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return afero.WriteFile(r.fs, path, profile, 0o644)
}

// DeleteConnectionDetails removes the exported profile and the wallets
// created for the network. Failures are reported to the sink and skipped.
func (r *Runtime) DeleteConnectionDetails(sink output.Adapter) {
	sink = output.OrDefault(sink)
	paths := []string{
		r.connectionProfileDir(r.directory),
		filepath.Join(r.directory, constants.LocalWallet, constants.AdminUser),
		filepath.Join(r.directory, constants.OpsWallet()),
	}
	for _, path := range paths {
		err := r.fs.RemoveAll(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		sink.Log(output.Error, fmt.Sprintf("Error removing runtime connection details: %s", err.Error()))
	}
}

// StartLogs follows the log sidecar, replacing any stream already open.
func (r *Runtime) StartLogs(ctx context.Context, sink output.Adapter) error {
	return r.logs.Start(ctx, logs.URL(r.LogsAddress()), sink)
}

func (r *Runtime) StopLogs() {
	r.logs.Stop()
}
