package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyListen   = "listen"
	cfgKeyLogLevel = "log_level"
)

// configHeader precedes the generated config.yaml content.
const configHeader = "# Pantry configuration. Flags override these values.\n"

// settings is the resolved content of config.yaml.
type settings struct {
	Dir      string
	Backend  string
	DataDir  string
	Listen   string
	LogLevel string
}

// loadConfig reads config.yaml from configDir using Viper. When create is
// set it first creates the directory and a default config.yaml. A missing
// config.yaml is not an error.
func loadConfig(configDir string, create bool) (settings, error) {
	if create {
		if err := ensureConfigDir(configDir); err != nil {
			return settings{}, fmt.Errorf("ensure config dir: %w", err)
		}
		if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), defaultConfigFile()); err != nil {
			return settings{}, fmt.Errorf("ensure default config: %w", err)
		}
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyListen, types.DefaultListen)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return settings{
		Dir:      configDir,
		Backend:  v.GetString(cfgKeyBackend),
		DataDir:  v.GetString(cfgKeyDataDir),
		Listen:   v.GetString(cfgKeyListen),
		LogLevel: v.GetString(cfgKeyLogLevel),
	}, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend:  types.BackendSQLite,
		Listen:   types.DefaultListen,
		LogLevel: logging.DefaultLevel,
	}
}

// writeConfigIfMissing writes cfg to path unless the file already exists.
func writeConfigIfMissing(path string, cfg configFile) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
