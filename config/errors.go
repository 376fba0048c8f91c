// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidBackend indicates the storage backend name is not recognized.
	ErrInvalidBackend = errors.New("config: invalid backend (must be \"memory\", \"bolt\", or \"mysql\")")

	// ErrEmptyDSN indicates the mysql backend was chosen without a DSN.
	ErrEmptyDSN = errors.New("config: mysql backend requires mysql_dsn")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"trace\", \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidRewardPolicy indicates the reward policy name is not recognized.
	ErrInvalidRewardPolicy = errors.New("config: invalid reward policy (must be \"proportional\" or \"flat\")")

	// ErrInvalidRewardPercent indicates a reward percentage above 100.
	ErrInvalidRewardPercent = errors.New("config: reward percent must be between 0 and 100")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the configuration file could not be parsed.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")
)
