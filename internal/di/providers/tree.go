package providers

import (
	"github.com/samber/do/v2"

	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/logger"
	"github.com/questbank/questbank-server/internal/tree"
)

// ProvideTreeEngine provides the mutation engine for the category tree.
func ProvideTreeEngine(i do.Injector) (*tree.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return tree.NewEngine(storeHandle.NodeStore, log.Logger, tree.Options{
		MaxDepth: cfg.Tree.MaxDepth,
		MaxBatch: cfg.Tree.MaxBatch,
	}), nil
}

// ProvideTreeQuery provides the read-side query service.
func ProvideTreeQuery(i do.Injector) (*tree.Query, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	return tree.NewQuery(storeHandle.NodeStore), nil
}
