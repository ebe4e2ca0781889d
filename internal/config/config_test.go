package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	config, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, DefaultPorts(), config.Ports)
	require.Equal(t, "fabricvscodelocalfabric", config.ContainerPrefix)
	require.False(t, config.DevelopmentMode)
	require.Equal(t, "info", config.LogLevel)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
directory: /tmp/fabric
development_mode: true
ports:
  orderer: 12347
  peer_request: 12345
  peer_chaincode: 54321
  peer_event_hub: 12346
  certificate_authority: 12348
  couch_db: 12349
  logs: 12387
`
	err := os.WriteFile(filepath.Join(dir, "localfabric.yml"), []byte(contents), 0o600)
	require.NoError(t, err)

	config, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "/tmp/fabric", config.Directory)
	require.True(t, config.DevelopmentMode)
	require.Equal(t, Ports{
		Orderer:              12347,
		PeerRequest:          12345,
		PeerChaincode:        54321,
		PeerEventHub:         12346,
		CertificateAuthority: 12348,
		CouchDB:              12349,
		Logs:                 12387,
	}, config.Ports)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LOCALFABRIC_CONTAINER_PREFIX", "other")
	config, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "other", config.ContainerPrefix)
}

func TestSaveDevelopmentMode(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOCALFABRIC_PATH", dir)

	config, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, config.SaveDevelopmentMode(true))
	require.True(t, config.DevelopmentMode)

	reloaded, err := Load(dir)
	require.NoError(t, err)
	require.True(t, reloaded.DevelopmentMode)
}
