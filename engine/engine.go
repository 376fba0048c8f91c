// Package engine assembles a ready-to-use governance node from a Config:
// logger, ledger store, token service and governance program.
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mborders/logmatic"

	"github.com/bitfsorg/daoverse-go/config"
	"github.com/bitfsorg/daoverse-go/governance"
	"github.com/bitfsorg/daoverse-go/ledger"
	"github.com/bitfsorg/daoverse-go/logging"
	"github.com/bitfsorg/daoverse-go/token"
)

// LedgerFile is the bolt database name inside the data directory.
const LedgerFile = "ledger.db"

// Engine is the shared entry point for anything driving the program.
type Engine struct {
	Config  config.Config
	Log     *logmatic.Logger
	Store   ledger.Store
	Tokens  *token.Service
	Program *governance.Program
	Events  *governance.EventLog // every committed event, in order
}

// New validates cfg and opens its store. A nil clock reads the wall clock.
func New(cfg config.Config, clock governance.Clock) (*Engine, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	policy, rewards, err := governance.PolicyFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("engine: %s ledger ready", cfg.Backend)

	events := &governance.EventLog{}
	return &Engine{
		Config: cfg,
		Log:    log,
		Store:  store,
		Tokens: token.NewService(store),
		Program: governance.New(store, governance.Options{
			Clock:   clock,
			Policy:  &policy,
			Rewards: rewards,
			Logger:  log,
			Events:  events,
		}),
		Events: events,
	}, nil
}

func openStore(cfg config.Config) (ledger.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return ledger.NewMemStore(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("engine: create data dir: %w", err)
		}
		s, err := ledger.OpenBoltStore(filepath.Join(cfg.DataDir, LedgerFile), governance.Buckets()...)
		if err != nil {
			return nil, fmt.Errorf("engine: open ledger: %w", err)
		}
		return s, nil
	case config.BackendMySQL:
		s, err := ledger.OpenMySQLStore(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("engine: open ledger: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("engine: %w", config.ErrInvalidBackend)
	}
}

// Close releases the store.
func (e *Engine) Close() error {
	if err := e.Store.Close(); err != nil {
		return fmt.Errorf("engine: close ledger: %w", err)
	}
	return nil
}
