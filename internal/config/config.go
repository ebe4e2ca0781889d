package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eagraf/localfabric/internal/constants"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Ports struct {
	Orderer              int `mapstructure:"orderer"`
	PeerRequest          int `mapstructure:"peer_request"`
	PeerChaincode        int `mapstructure:"peer_chaincode"`
	PeerEventHub         int `mapstructure:"peer_event_hub"`
	CertificateAuthority int `mapstructure:"certificate_authority"`
	CouchDB              int `mapstructure:"couch_db"`
	Logs                 int `mapstructure:"logs"`
}

type Config struct {
	// Directory holds connection profiles and wallets.
	Directory string `mapstructure:"directory"`
	// ScriptsDir holds the start/stop/teardown scripts of the network.
	ScriptsDir      string `mapstructure:"scripts_dir"`
	ContainerPrefix string `mapstructure:"container_prefix"`
	DevelopmentMode bool   `mapstructure:"development_mode"`
	LogLevel        string `mapstructure:"log_level"`
	Ports           Ports  `mapstructure:"ports"`
	// ProfilePatch is an RFC 6902 JSON patch applied to generated connection profiles.
	ProfilePatch string `mapstructure:"profile_patch"`

	v *viper.Viper
}

func DefaultPorts() Ports {
	return Ports{
		Orderer:              17050,
		PeerRequest:          17051,
		PeerChaincode:        17052,
		PeerEventHub:         17053,
		CertificateAuthority: 17054,
		CouchDB:              17055,
		Logs:                 17056,
	}
}

func loadEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"directory":        "LOCALFABRIC_PATH",
		"scripts_dir":      "LOCALFABRIC_SCRIPTS_DIR",
		"container_prefix": "LOCALFABRIC_CONTAINER_PREFIX",
		"development_mode": "LOCALFABRIC_DEV_MODE",
		"log_level":        "LOCALFABRIC_LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("directory", filepath.Join(home, ".fabric-vscode"))
	v.SetDefault("scripts_dir", filepath.Join(home, ".fabric-vscode", "basic-network"))
	v.SetDefault("container_prefix", constants.ContainerPrefix)
	v.SetDefault("development_mode", false)
	v.SetDefault("log_level", "info")

	ports := DefaultPorts()
	v.SetDefault("ports.orderer", ports.Orderer)
	v.SetDefault("ports.peer_request", ports.PeerRequest)
	v.SetDefault("ports.peer_chaincode", ports.PeerChaincode)
	v.SetDefault("ports.peer_event_hub", ports.PeerEventHub)
	v.SetDefault("ports.certificate_authority", ports.CertificateAuthority)
	v.SetDefault("ports.couch_db", ports.CouchDB)
	v.SetDefault("ports.logs", ports.Logs)
	return nil
}

// Load reads localfabric.yml from configDir (or the default directory when
// empty). A missing config file is not an error; defaults and environment
// variables apply.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	if err := loadEnv(v); err != nil {
		return nil, err
	}

	v.SetConfigType(constants.DefaultConfigType)
	v.SetConfigName(constants.DefaultConfigName)
	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(v.GetString("directory"))
		v.AddConfigPath("$HOME/.fabric-vscode")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		log.Debug().Msg("no config file found, using defaults")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.v = v

	log.Debug().Msgf("Loaded localfabric config: %+v", config)
	return &config, nil
}

// ConfigFile is the file settings are written back to.
func (c *Config) ConfigFile() string {
	if c.v != nil && c.v.ConfigFileUsed() != "" {
		return c.v.ConfigFileUsed()
	}
	return filepath.Join(c.Directory, constants.DefaultConfigName+"."+constants.DefaultConfigType)
}

// SaveDevelopmentMode records the flag and writes the settings file.
func (c *Config) SaveDevelopmentMode(enabled bool) error {
	c.DevelopmentMode = enabled
	if c.v == nil {
		return nil
	}
	c.v.Set("development_mode", enabled)
	path := c.ConfigFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := c.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error saving settings to %s: %w", path, err)
	}
	return nil
}
