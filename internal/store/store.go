// Package store defines the persistence contract for the category tree and
// provides the BadgerDB-backed implementation. A SQLite implementation
// lives in the sqlite subpackage.
package store

import (
	"context"

	"github.com/questbank/questbank-server/internal/domain"
)

// NodeStore is the narrow persistence interface the tree engine runs on:
// point lookups by id, range scans by path prefix, and atomic multi-row
// updates. The engine holds no locks of its own; every invariant the tree
// maintains rides on the transactional guarantees of this interface.
type NodeStore interface {
	// View runs fn in a read-only snapshot transaction. fn must not retain
	// returned records past the call.
	View(ctx context.Context, fn func(ReadTx) error) error

	// Update runs fn in a serializable write transaction. Either every write
	// fn performed is visible afterwards or none is; concurrent readers never
	// observe a partial application. A commit-time conflict surfaces as
	// errors.ErrConflict and is safe to retry with the same inputs.
	Update(ctx context.Context, fn func(WriteTx) error) error

	// BulkInsert writes nodes without per-row transactional overhead.
	// Intended for seeding an empty store; it bypasses conflict detection.
	BulkInsert(ctx context.Context, nodes []*domain.Category) error

	// SetIndexer installs the search indexer kept in sync with mutations.
	SetIndexer(indexer Indexer)

	Close() error
}

// ReadTx exposes the read operations available inside a transaction.
// All lookups exclude soft-deleted records.
type ReadTx interface {
	// Node returns the category with the given id, or errors.ErrNotFound.
	Node(id string) (*domain.Category, error)

	// NodeByCode returns the category with the given code, or errors.ErrNotFound.
	NodeByCode(code string) (*domain.Category, error)

	// Children returns the direct children of parentID (empty string for
	// roots), sorted by SortOrder then id.
	Children(parentID string) ([]*domain.Category, error)

	// ScanPathPrefix returns every category whose materialized path begins
	// with prefix, i.e. the subtree below the node whose child-path equals
	// prefix. Results are sorted by path.
	ScanPathPrefix(prefix string) ([]*domain.Category, error)

	// All returns every non-deleted category, unordered.
	All() ([]*domain.Category, error)
}

// WriteTx adds mutation to ReadTx.
type WriteTx interface {
	ReadTx

	// Put inserts or replaces a category and maintains the code, parent and
	// path indexes. Putting a soft-deleted record drops its index entries so
	// it falls out of traversal while staying addressable on disk.
	Put(node *domain.Category) error

	// Delete physically removes a category and its index entries.
	Delete(id string) error
}

// Indexer is the interface for keeping the search index in sync with store
// mutations. Index updates happen after commit and never block or fail the
// transaction.
type Indexer interface {
	IndexCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// NoopIndexer is a no-op Indexer for tests and index-less deployments.
type NoopIndexer struct{}

// IndexCategory is a no-op.
func (NoopIndexer) IndexCategory(context.Context, *domain.Category) error { return nil }

// DeleteCategory is a no-op.
func (NoopIndexer) DeleteCategory(context.Context, string) error { return nil }

// NewNoopIndexer creates a new no-op indexer.
func NewNoopIndexer() Indexer {
	return NoopIndexer{}
}
