package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/logger"
	"github.com/questbank/questbank-server/internal/search"
	"github.com/questbank/questbank-server/internal/store"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when full-text search is disabled by configuration.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it into the
// store so mutations keep the index in sync.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if !cfg.Search.Enabled {
		log.Info("Full-text search disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Store.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// TriggerSearchReindexIfNeeded backfills an empty index from the store.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	if indexHandle.Index == nil {
		return
	}
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	var nodes []*domain.Category
	err := storeHandle.View(context.Background(), func(tx store.ReadTx) error {
		var err error
		nodes, err = tx.All()
		return err
	})
	if err != nil || len(nodes) == 0 {
		return
	}

	log.Info("Search index is empty but categories exist, triggering initial reindex",
		"category_count", len(nodes),
	)

	go func() {
		if err := indexHandle.IndexCategories(nodes); err != nil {
			log.Error("Initial search reindex failed", "error", err)
		} else {
			count, _ := indexHandle.DocumentCount()
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}
