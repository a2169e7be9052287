// Package config contains pollvm node configuration definitions.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/spacemeshos/go-pollvm/api"
	vm "github.com/spacemeshos/go-pollvm/genvm"
	"github.com/spacemeshos/go-pollvm/metrics"
	"github.com/spacemeshos/go-pollvm/prune"
)

const (
	defaultConfigFileName = "./config.toml"
	defaultDataDirName    = "pollvm"
	dbFile                = "state.sql"
)

// Config defines the top level configuration for a pollvm node.
type Config struct {
	BaseConfig `mapstructure:"main"`
	API        api.Config    `mapstructure:"api"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
	VM         vm.Config     `mapstructure:"vm"`
	Prune      prune.Config  `mapstructure:"prune"`
	LOGGING    LoggerConfig  `mapstructure:"logging"`
}

// BaseConfig defines the default configuration options for pollvm app.
type BaseConfig struct {
	DataDirParent string `mapstructure:"data-folder"`
	FileLock      string `mapstructure:"filelock"`
	ConfigFile    string `mapstructure:"config"`

	NetworkHRP string `mapstructure:"network-hrp"`

	DatabaseConnections     int  `mapstructure:"db-connections"`
	DatabaseLatencyMetering bool `mapstructure:"db-latency-metering"`
}

// MetricsConfig configures prometheus server and optional push gateway.
type MetricsConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Listen  string             `mapstructure:"listen"`
	Push    metrics.PushConfig `mapstructure:"push"`
}

// DataDir returns the absolute path to use for the node's data.
func (cfg *Config) DataDir() string {
	return filepath.Clean(cfg.DataDirParent)
}

// DatabasePath returns path to the sqlite state database.
func (cfg *Config) DatabasePath() string {
	return filepath.Join(cfg.DataDir(), dbFile)
}

// DefaultConfig returns the default configuration for a pollvm node.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		API:        api.DefaultConfig(),
		Metrics: MetricsConfig{
			Listen: "127.0.0.1:9071",
			Push: metrics.PushConfig{
				Period: time.Minute,
			},
		},
		VM:      vm.DefaultConfig(),
		Prune:   prune.DefaultConfig(),
		LOGGING: defaultLoggingConfig(),
	}
}

// DefaultTestConfig returns the default config for tests.
func DefaultTestConfig() Config {
	conf := DefaultConfig()
	conf.API.Listen = "127.0.0.1:0"
	conf.Metrics.Listen = "127.0.0.1:0"
	conf.BaseConfig.NetworkHRP = "stest"
	conf.BaseConfig.DatabaseConnections = 4
	return conf
}

func defaultBaseConfig() BaseConfig {
	dataDir := filepath.Join(defaultHomeDir(), defaultDataDirName)
	return BaseConfig{
		DataDirParent:       dataDir,
		FileLock:            filepath.Join(os.TempDir(), "pollvm.lock"),
		ConfigFile:          defaultConfigFileName,
		NetworkHRP:          "sm",
		DatabaseConnections: 16,
	}
}

func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// LoadConfig reads the config file into viper.
// A missing file at the default location is not an error.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}
	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		if fileLocation == defaultConfigFileName && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %w", err)
	}
	return nil
}
