// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	switch cfg.Backend {
	case BackendMemory:
	case BackendBolt:
		if cfg.DataDir == "" {
			return ErrEmptyDataDir
		}
	case BackendMySQL:
		if cfg.MySQLDSN == "" {
			return ErrEmptyDSN
		}
	default:
		return ErrInvalidBackend
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.RewardPolicy != RewardProportional && cfg.RewardPolicy != RewardFlat {
		return ErrInvalidRewardPolicy
	}
	if cfg.RewardPercent > 100 {
		return ErrInvalidRewardPercent
	}

	return nil
}
