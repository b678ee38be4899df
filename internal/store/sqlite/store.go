// Package sqlite provides the SQLite-backed NodeStore implementation.
// It is interchangeable with the Badger store; deployments pick one via
// configuration.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
	"github.com/questbank/questbank-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for the category tree.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	indexer store.Indexer
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows a single writer; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("sqlite store opened", "path", path)
	}

	return &Store{
		db:      db,
		logger:  logger,
		indexer: store.NewNoopIndexer(),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetIndexer installs the search indexer.
func (s *Store) SetIndexer(indexer store.Indexer) {
	if indexer == nil {
		indexer = store.NewNoopIndexer()
	}
	s.indexer = indexer
}

// View implements store.NodeStore.View.
func (s *Store) View(ctx context.Context, fn func(store.ReadTx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return mapSQLiteErr(err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only rollback

	return fn(&sqlTx{ctx: ctx, tx: tx})
}

// Update implements store.NodeStore.Update. The closure runs in one
// BEGIN IMMEDIATE transaction so the write lock is taken up front rather
// than on the first write; database/sql only issues deferred BEGINs, so
// the transaction is managed by hand on a dedicated connection. Lock
// contention maps to errors.ErrConflict. Search index updates are
// dispatched asynchronously after a successful commit.
func (s *Store) Update(ctx context.Context, fn func(store.WriteTx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return mapSQLiteErr(err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return mapSQLiteErr(err)
	}

	wtx := &sqlTx{ctx: ctx, tx: conn}
	if err := fn(wtx); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return mapSQLiteErr(err)
	}

	s.syncIndex(wtx.puts, wtx.deletes)
	return nil
}

// BulkInsert implements store.NodeStore.BulkInsert with a single prepared
// statement inside one transaction.
func (s *Store) BulkInsert(ctx context.Context, nodes []*domain.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteErr(err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, insertCategorySQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, node := range nodes {
		if _, err := stmt.ExecContext(ctx, insertArgs(node)...); err != nil {
			return fmt.Errorf("bulk insert category %s: %w", node.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapSQLiteErr(err)
	}

	if s.logger != nil {
		s.logger.Info("bulk insert committed", "count", len(nodes))
	}

	s.syncIndex(nodes, nil)
	return nil
}

// syncIndex pushes committed changes to the search indexer in the
// background. Failures are logged, never surfaced.
func (s *Store) syncIndex(puts []*domain.Category, deletes []string) {
	if len(puts) == 0 && len(deletes) == 0 {
		return
	}
	indexer := s.indexer
	logger := s.logger
	go func() {
		ctx := context.Background()
		for _, node := range puts {
			var err error
			if node.IsDeleted() {
				err = indexer.DeleteCategory(ctx, node.ID)
			} else {
				err = indexer.IndexCategory(ctx, node)
			}
			if err != nil && logger != nil {
				logger.Warn("search index update failed", "id", node.ID, "error", err)
			}
		}
		for _, id := range deletes {
			if err := indexer.DeleteCategory(ctx, id); err != nil && logger != nil {
				logger.Warn("search index delete failed", "id", id, "error", err)
			}
		}
	}()
}

// mapSQLiteErr converts SQLite contention errors into the retryable
// conflict code; everything else passes through.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return errors.ErrConflict.WithCause(err)
	}
	return err
}

// Time columns are stored as RFC 3339 strings.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func nullTimeString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
