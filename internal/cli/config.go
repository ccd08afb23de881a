// Config loading for the walkabout CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/fieldops/walkabout/internal/paths"
	"github.com/fieldops/walkabout/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeyPollInterval      = "poll_interval"
	cfgKeyHeartbeatInterval = "heartbeat_interval"
	cfgKeyRequireInitial    = "require_initial_condition"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Walkabout CLI configuration

# Backend selection
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Pre-flow inspection gate on departure flows
require_initial_condition: false
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper, creating the directory and a default config.yaml on first run. A
// missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyRequireInitial, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveEngineConfig builds the engine Config from flags, config.yaml,
// env, and defaults.
func resolveEngineConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{
		Backend:                 v.GetString(cfgKeyBackend),
		DataDir:                 dataDir,
		RequireInitialCondition: v.GetBool(cfgKeyRequireInitial),
	}
	if d := v.GetDuration(cfgKeyPollInterval); d > 0 {
		cfg.PollInterval = d
	}
	if d := v.GetDuration(cfgKeyHeartbeatInterval); d > 0 {
		cfg.HeartbeatInterval = d
	}
	// Durations below a millisecond are almost certainly a unit mistake.
	if cfg.PollInterval > 0 && cfg.PollInterval < time.Millisecond {
		cfg.PollInterval = time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}
