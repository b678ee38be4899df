package sqlite

import (
	"context"
	"database/sql"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
)

// categoryColumns is the ordered list of columns selected in category
// queries. Must match the scan order in scanCategory.
const categoryColumns = `id, created_at, updated_at, deleted_at, name, code, type,
	parent_id, path, depth, sort_order`

const insertCategorySQL = `
	INSERT INTO categories (
		id, created_at, updated_at, deleted_at, name, code, type,
		parent_id, path, depth, sort_order
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		updated_at = excluded.updated_at,
		deleted_at = excluded.deleted_at,
		name       = excluded.name,
		code       = excluded.code,
		type       = excluded.type,
		parent_id  = excluded.parent_id,
		path       = excluded.path,
		depth      = excluded.depth,
		sort_order = excluded.sort_order`

func insertArgs(c *domain.Category) []any {
	var parentID any
	if c.ParentID != "" {
		parentID = c.ParentID
	}
	return []any{
		c.ID,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
		nullTimeString(c.DeletedAt),
		c.Name,
		c.Code,
		string(c.Type),
		parentID,
		c.Path,
		c.Depth,
		c.SortOrder,
	}
}

// scanCategory scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Category.
func scanCategory(scanner interface{ Scan(dest ...any) error }) (*domain.Category, error) {
	var c domain.Category

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
		catType   string
		parentID  sql.NullString
	)

	err := scanner.Scan(
		&c.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&c.Name,
		&c.Code,
		&catType,
		&parentID,
		&c.Path,
		&c.Depth,
		&c.SortOrder,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	c.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	c.Type = domain.CategoryType(catType)
	if parentID.Valid {
		c.ParentID = parentID.String
	}

	return &c, nil
}

// queryer is the querying surface shared by *sql.Tx and *sql.Conn. View
// runs over a database/sql transaction; Update manages BEGIN IMMEDIATE by
// hand on a dedicated connection.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlTx implements store.ReadTx/WriteTx over an open SQLite transaction
// and records mutations for post-commit index sync.
type sqlTx struct {
	ctx     context.Context
	tx      queryer
	puts    []*domain.Category
	deletes []string
}

// Node implements store.ReadTx.Node.
func (t *sqlTx) Node(id string) (*domain.Category, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE id = ? AND deleted_at IS NULL`, id)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("category %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NodeByCode implements store.ReadTx.NodeByCode.
func (t *sqlTx) NodeByCode(code string) (*domain.Category, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE code = ? AND deleted_at IS NULL`, code)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("category with code %q not found", code)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Children implements store.ReadTx.Children.
func (t *sqlTx) Children(parentID string) ([]*domain.Category, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == "" {
		rows, err = t.tx.QueryContext(t.ctx, `
			SELECT `+categoryColumns+`
			FROM categories WHERE parent_id IS NULL AND deleted_at IS NULL
			ORDER BY sort_order, id`)
	} else {
		rows, err = t.tx.QueryContext(t.ctx, `
			SELECT `+categoryColumns+`
			FROM categories WHERE parent_id = ? AND deleted_at IS NULL
			ORDER BY sort_order, id`, parentID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCategories(rows)
}

// ScanPathPrefix implements store.ReadTx.ScanPathPrefix.
func (t *sqlTx) ScanPathPrefix(prefix string) ([]*domain.Category, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE path LIKE ? ESCAPE '\' AND deleted_at IS NULL
		ORDER BY path, id`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCategories(rows)
}

// All implements store.ReadTx.All.
func (t *sqlTx) All() ([]*domain.Category, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCategories(rows)
}

// Put implements store.WriteTx.Put.
func (t *sqlTx) Put(node *domain.Category) error {
	if _, err := t.tx.ExecContext(t.ctx, insertCategorySQL, insertArgs(node)...); err != nil {
		return mapSQLiteErr(err)
	}
	t.puts = append(t.puts, node)
	return nil
}

// Delete implements store.WriteTx.Delete.
func (t *sqlTx) Delete(id string) error {
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NotFoundf("category %s not found", id)
	}
	t.deletes = append(t.deletes, id)
	return nil
}

func collectCategories(rows *sql.Rows) ([]*domain.Category, error) {
	var nodes []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, c)
	}
	return nodes, rows.Err()
}

// escapeLike escapes LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := range len(s) {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
