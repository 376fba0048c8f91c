// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads, saves and validates daoverse node configuration.
//
// Configuration is a YAML file at {dataDir}/config.yaml. Every key can be
// overridden by an environment variable named DAOVERSE_<KEY>, for example
// DAOVERSE_LOG_LEVEL=debug.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendMySQL  = "mysql"
)

// Reward policies.
const (
	RewardProportional = "proportional"
	RewardFlat         = "flat"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DAOVERSE"

// Config holds node configuration.
type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	Backend  string `mapstructure:"backend"`
	MySQLDSN string `mapstructure:"mysql_dsn"`
	LogLevel string `mapstructure:"log_level"`

	// Balance floors in the smallest token unit.
	MinMemberBalance   uint64 `mapstructure:"min_member_balance"`
	MinProposerBalance uint64 `mapstructure:"min_proposer_balance"`
	MinVoterBalance    uint64 `mapstructure:"min_voter_balance"`

	RewardPolicy  string `mapstructure:"reward_policy"`
	RewardPercent uint64 `mapstructure:"reward_percent"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	dataDir := ".daoverse"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".daoverse")
	}
	return Config{
		DataDir:            dataDir,
		Backend:            BackendBolt,
		LogLevel:           "info",
		MinMemberBalance:   100_000_000,
		MinProposerBalance: 200_000_000,
		MinVoterBalance:    150_000_000,
		RewardPolicy:       RewardProportional,
		RewardPercent:      20,
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// newViper returns a viper instance seeded with defaults and env bindings.
func newViper(defaults Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv applies during Unmarshal.
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("mysql_dsn", defaults.MySQLDSN)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("min_member_balance", defaults.MinMemberBalance)
	v.SetDefault("min_proposer_balance", defaults.MinProposerBalance)
	v.SetDefault("min_voter_balance", defaults.MinVoterBalance)
	v.SetDefault("reward_policy", defaults.RewardPolicy)
	v.SetDefault("reward_percent", defaults.RewardPercent)
	return v
}

// LoadConfig reads the YAML file at path on top of DefaultConfig and applies
// environment overrides. Unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
	}

	v := newViper(DefaultConfig())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config file in dataDir, falling back to
// DefaultConfig (with DataDir set and env overrides applied) when it is
// missing.
func LoadOrDefault(dataDir string) (Config, error) {
	cfg, err := LoadConfig(ConfigPath(dataDir))
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return Config{}, err
	}

	defaults := DefaultConfig()
	defaults.DataDir = dataDir
	if err := newViper(defaults).Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: apply environment: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("data_dir", cfg.DataDir)
	v.Set("backend", cfg.Backend)
	v.Set("mysql_dsn", cfg.MySQLDSN)
	v.Set("log_level", cfg.LogLevel)
	v.Set("min_member_balance", cfg.MinMemberBalance)
	v.Set("min_proposer_balance", cfg.MinProposerBalance)
	v.Set("min_voter_balance", cfg.MinVoterBalance)
	v.Set("reward_policy", cfg.RewardPolicy)
	v.Set("reward_percent", cfg.RewardPercent)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
