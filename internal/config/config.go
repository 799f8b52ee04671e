// Package config loads dyntab's runtime configuration (SPEC_FULL.md
// "Configuration"): a viper singleton initialized once at startup,
// searching project .dyntab/config.toml, then
// $XDG_CONFIG_HOME/dyntab/config.toml, then ~/.dyntab/config.toml, with
// DYNTAB_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper singleton. Safe to call once at process
// startup; later Get* calls read through it.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("toml")

	configFileSet := false

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			configPath := filepath.Join(dir, ".dyntab", "config.toml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
				break
			}
		}
	}

	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			configPath := filepath.Join(configDir, "dyntab", "config.toml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	if !configFileSet {
		if homeDir, err := os.UserHomeDir(); err == nil {
			configPath := filepath.Join(homeDir, ".dyntab", "config.toml")
			if _, err := os.Stat(configPath); err == nil {
				v.SetConfigFile(configPath)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("DYNTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("busy-timeout", "5s")
	v.SetDefault("lock-timeout", "5s")
	v.SetDefault("page-size", 100)
	v.SetDefault("log-file", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("db", "")

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}
	return nil
}

// DefaultConfig is the shape WriteDefaultConfig renders with
// BurntSushi/toml; viper's own file reading tolerates a superset of
// these keys, so this struct only needs to cover the values worth
// surfacing in a freshly scaffolded config file.
type DefaultConfig struct {
	BusyTimeout string `toml:"busy-timeout"`
	LockTimeout string `toml:"lock-timeout"`
	PageSize    int    `toml:"page-size"`
	LogFile     string `toml:"log-file"`
	LogLevel    string `toml:"log-level"`
}

// WriteDefaultConfig renders a starter config.toml at path
// (used by `dyntab init`). Uses BurntSushi/toml directly — the one
// place this process writes TOML rather than reads it through viper.
func WriteDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig{
		BusyTimeout: "5s",
		LockTimeout: "5s",
		PageSize:    100,
		LogFile:     "",
		LogLevel:    "info",
	}
	enc := toml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return nil
}

// GetString, GetBool, GetInt, and GetDuration read through the viper
// singleton; they return the zero value if Initialize was never called.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// ConfigFileUsed reports the path viper loaded, or "" if none was found.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}
