package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/logger"
	"github.com/questbank/questbank-server/internal/seed"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/store/sqlite"
)

// StoreHandle wraps the node store with shutdown capability.
type StoreHandle struct {
	store.NodeStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the node store for the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		st  store.NodeStore
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		dbPath := filepath.Join(cfg.Store.DataPath, "categories.db")
		st, err = sqlite.Open(dbPath, log.Logger)
	case config.BackendBadger:
		dbPath := filepath.Join(cfg.Store.DataPath, "db")
		st, err = store.OpenBadger(dbPath, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Store initialized", "backend", cfg.Store.Backend)

	return &StoreHandle{NodeStore: st}, nil
}

// Bootstrap records what store preparation happened at startup.
type Bootstrap struct {
	Seeded int // number of categories inserted into a previously empty store
}

// ProvideBootstrap seeds the default category tree into an empty store.
func ProvideBootstrap(i do.Injector) (*Bootstrap, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	count, err := seed.Load(context.Background(), storeHandle.NodeStore, log.Logger)
	if err != nil {
		return nil, err
	}

	return &Bootstrap{Seeded: count}, nil
}
