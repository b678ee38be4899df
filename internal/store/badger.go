package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
)

// Key prefixes for category storage.
const (
	nodePrefix         = "cat:"
	nodeByCodePrefix   = "idx:cat:code:"   // code -> category ID
	nodeByParentPrefix = "idx:cat:parent:" // parentID(or "root"):categoryID -> empty
	nodeByPathPrefix   = "idx:cat:path:"   // path + categoryID -> category ID
)

// Badger is the primary NodeStore implementation, backed by BadgerDB.
// Badger transactions give the snapshot reads and serializable writes the
// tree engine needs; a write conflict detected at commit surfaces as
// errors.ErrConflict.
type Badger struct {
	db      *badger.DB
	logger  *slog.Logger
	indexer Indexer
}

// OpenBadger opens (or creates) a Badger-backed store at the given path.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("badger store opened", "path", path)
	}

	return &Badger{
		db:      db,
		logger:  logger,
		indexer: NewNoopIndexer(),
	}, nil
}

// Close gracefully closes the database.
func (s *Badger) Close() error {
	if s.logger != nil {
		s.logger.Info("closing badger store")
	}
	return s.db.Close()
}

// SetIndexer installs the search indexer. Set after store creation to avoid
// a circular dependency between store and search.
func (s *Badger) SetIndexer(indexer Indexer) {
	if indexer == nil {
		indexer = NewNoopIndexer()
	}
	s.indexer = indexer
}

// View implements NodeStore.View.
func (s *Badger) View(ctx context.Context, fn func(ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update implements NodeStore.Update. The closure runs inside a single
// badger transaction; a conflict at commit maps to errors.ErrConflict so
// the engine can retry. Search index updates are dispatched asynchronously
// after a successful commit.
func (s *Badger) Update(ctx context.Context, fn func(WriteTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &badgerTx{}
	err := s.db.Update(func(txn *badger.Txn) error {
		tx.txn = txn
		tx.puts = tx.puts[:0]
		tx.deletes = tx.deletes[:0]
		return fn(tx)
	})
	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return errors.ErrConflict.WithCause(err)
		}
		return err
	}

	s.syncIndex(tx.puts, tx.deletes)
	return nil
}

// syncIndex pushes committed changes to the search indexer in the
// background. Indexing failures are logged, never surfaced: the store is
// the source of truth and the index can always be rebuilt from it.
func (s *Badger) syncIndex(puts []*domain.Category, deletes []string) {
	if len(puts) == 0 && len(deletes) == 0 {
		return
	}
	indexer := s.indexer
	go func() {
		ctx := context.Background()
		for _, node := range puts {
			var err error
			if node.IsDeleted() {
				err = indexer.DeleteCategory(ctx, node.ID)
			} else {
				err = indexer.IndexCategory(ctx, node)
			}
			if err != nil && s.logger != nil {
				s.logger.Warn("search index update failed", "id", node.ID, "error", err)
			}
		}
		for _, id := range deletes {
			if err := indexer.DeleteCategory(ctx, id); err != nil && s.logger != nil {
				s.logger.Warn("search index delete failed", "id", id, "error", err)
			}
		}
	}()
}

// BulkInsert implements NodeStore.BulkInsert using Badger's WriteBatch.
func (s *Badger) BulkInsert(ctx context.Context, nodes []*domain.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for _, node := range nodes {
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal category %s: %w", node.ID, err)
		}
		if err := batch.Set([]byte(nodePrefix+node.ID), data); err != nil {
			return err
		}
		if err := batch.Set([]byte(nodeByCodePrefix+node.Code), []byte(node.ID)); err != nil {
			return err
		}
		if err := batch.Set([]byte(parentIndexKey(node.ParentID, node.ID)), []byte{}); err != nil {
			return err
		}
		if err := batch.Set([]byte(nodeByPathPrefix+node.Path+node.ID), []byte(node.ID)); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		return fmt.Errorf("flush bulk insert: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("bulk insert flushed", "count", len(nodes))
	}

	s.syncIndex(nodes, nil)
	return nil
}

// parentIndexKey builds the parent index key; root categories are grouped
// under the literal "root" segment.
func parentIndexKey(parentID, id string) string {
	if parentID == "" {
		parentID = "root"
	}
	return nodeByParentPrefix + parentID + ":" + id
}

// badgerTx implements ReadTx/WriteTx over a badger transaction and records
// mutations for post-commit index sync.
type badgerTx struct {
	txn     *badger.Txn
	puts    []*domain.Category
	deletes []string
}

// getRaw fetches a category record by id regardless of soft-delete state.
func (t *badgerTx) getRaw(id string) (*domain.Category, error) {
	item, err := t.txn.Get([]byte(nodePrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	var node domain.Category
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Node implements ReadTx.Node. Soft-deleted records read as not found.
func (t *badgerTx) Node(id string) (*domain.Category, error) {
	node, err := t.getRaw(id)
	if err != nil {
		return nil, err
	}
	if node.IsDeleted() {
		return nil, errors.NotFoundf("category %s not found", id)
	}
	return node, nil
}

// NodeByCode implements ReadTx.NodeByCode.
func (t *badgerTx) NodeByCode(code string) (*domain.Category, error) {
	item, err := t.txn.Get([]byte(nodeByCodePrefix + code))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NotFoundf("category with code %q not found", code)
	}
	if err != nil {
		return nil, err
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.Node(id)
}

// Children implements ReadTx.Children.
func (t *badgerTx) Children(parentID string) ([]*domain.Category, error) {
	prefix := []byte(parentIndexKey(parentID, ""))

	var childIDs []string
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := string(it.Item().Key())
		childIDs = append(childIDs, strings.TrimPrefix(key, string(prefix)))
	}
	it.Close()

	children := make([]*domain.Category, 0, len(childIDs))
	for _, childID := range childIDs {
		node, err := t.Node(childID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue // stale index entry
			}
			return nil, err
		}
		children = append(children, node)
	}

	slices.SortFunc(children, func(a, b *domain.Category) int {
		if a.SortOrder != b.SortOrder {
			return a.SortOrder - b.SortOrder
		}
		return strings.Compare(a.ID, b.ID)
	})

	return children, nil
}

// ScanPathPrefix implements ReadTx.ScanPathPrefix. The path index is keyed
// by path+id, so lexicographic key order is path order.
func (t *badgerTx) ScanPathPrefix(prefix string) ([]*domain.Category, error) {
	keyPrefix := []byte(nodeByPathPrefix + prefix)

	var ids []string
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyPrefix

	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	it.Close()

	nodes := make([]*domain.Category, 0, len(ids))
	for _, id := range ids {
		node, err := t.Node(id)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// All implements ReadTx.All.
func (t *badgerTx) All() ([]*domain.Category, error) {
	prefix := []byte(nodePrefix)

	var nodes []*domain.Category
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var node domain.Category
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &node)
		})
		if err != nil {
			return nil, err
		}
		if !node.IsDeleted() {
			n := node
			nodes = append(nodes, &n)
		}
	}
	return nodes, nil
}

// Put implements WriteTx.Put. It diffs against the stored record so the
// code, parent and path indexes track renames, moves and soft deletes.
func (t *badgerTx) Put(node *domain.Category) error {
	old, err := t.getRaw(node.ID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal category: %w", err)
	}
	if err := t.txn.Set([]byte(nodePrefix+node.ID), data); err != nil {
		return err
	}

	// Drop index entries that no longer apply.
	if old != nil && !old.IsDeleted() {
		if old.Code != node.Code || node.IsDeleted() {
			if err := t.txn.Delete([]byte(nodeByCodePrefix + old.Code)); err != nil {
				return err
			}
		}
		if old.ParentID != node.ParentID || node.IsDeleted() {
			if err := t.txn.Delete([]byte(parentIndexKey(old.ParentID, old.ID))); err != nil {
				return err
			}
		}
		if old.Path != node.Path || node.IsDeleted() {
			if err := t.txn.Delete([]byte(nodeByPathPrefix + old.Path + old.ID)); err != nil {
				return err
			}
		}
	}

	if !node.IsDeleted() {
		if err := t.txn.Set([]byte(nodeByCodePrefix+node.Code), []byte(node.ID)); err != nil {
			return err
		}
		if err := t.txn.Set([]byte(parentIndexKey(node.ParentID, node.ID)), []byte{}); err != nil {
			return err
		}
		if err := t.txn.Set([]byte(nodeByPathPrefix+node.Path+node.ID), []byte(node.ID)); err != nil {
			return err
		}
	}

	t.puts = append(t.puts, node)
	return nil
}

// Delete implements WriteTx.Delete.
func (t *badgerTx) Delete(id string) error {
	node, err := t.getRaw(id)
	if err != nil {
		return err
	}

	if err := t.txn.Delete([]byte(nodePrefix + id)); err != nil {
		return err
	}
	if !node.IsDeleted() {
		if err := t.txn.Delete([]byte(nodeByCodePrefix + node.Code)); err != nil {
			return err
		}
		if err := t.txn.Delete([]byte(parentIndexKey(node.ParentID, node.ID))); err != nil {
			return err
		}
		if err := t.txn.Delete([]byte(nodeByPathPrefix + node.Path + node.ID)); err != nil {
			return err
		}
	}

	t.deletes = append(t.deletes, id)
	return nil
}
