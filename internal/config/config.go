// Package config loads application settings from the config file,
// environment and flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every setting the application reads.
type Config struct {
	// DataDir is where local documents, logs and the account database
	// live. Defaults to ~/.learntrack.
	DataDir string `mapstructure:"data_dir"`

	// RemoteAddr is the remote store address. A libsql:// or https://
	// URL selects the hosted driver; anything else is treated as a
	// local database path.
	RemoteAddr string `mapstructure:"remote_addr"`

	// RemoteAuthToken authenticates against a hosted remote store.
	RemoteAuthToken string `mapstructure:"remote_auth_token"`

	// AutoConfirm skips the account confirmation step on sign-up.
	AutoConfirm bool `mapstructure:"auto_confirm"`

	// DashboardAddr is the listen address for the web dashboard.
	DashboardAddr string `mapstructure:"dashboard_addr"`

	// LogFile is the rotating log destination. Empty logs to stderr.
	LogFile string `mapstructure:"log_file"`

	// Model overrides the task-generation model.
	Model string `mapstructure:"model"`
}

// Default returns the built-in settings.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".learntrack")
	return Config{
		DataDir:       dataDir,
		RemoteAddr:    filepath.Join(dataDir, "remote.db"),
		AutoConfirm:   true,
		DashboardAddr: "localhost:8080",
	}
}

// Load reads settings from path (or the default locations when path is
// empty), overlaid with LEARNTRACK_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("remote_addr", defaults.RemoteAddr)
	v.SetDefault("auto_confirm", defaults.AutoConfirm)
	v.SetDefault("dashboard_addr", defaults.DashboardAddr)

	v.SetEnvPrefix("LEARNTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaults.DataDir)
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.DataDir == "" {
		return Config{}, fmt.Errorf("data_dir must not be empty")
	}
	return config, nil
}
