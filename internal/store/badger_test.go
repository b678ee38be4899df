package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
)

func setupTestStore(t *testing.T) *Badger {
	t.Helper()

	s, err := OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCategory(id, parentID, path, code string, order int) *domain.Category {
	c := &domain.Category{
		Auditable: domain.Auditable{ID: id},
		Name:      "Category " + id,
		Code:      code,
		Type:      domain.TypeSubject,
		ParentID:  parentID,
		Path:      path,
		Depth:     0,
		SortOrder: order,
	}
	c.InitTimestamps()
	return c
}

func put(t *testing.T, s *Badger, nodes ...*domain.Category) {
	t.Helper()
	err := s.Update(context.Background(), func(tx WriteTx) error {
		for _, n := range nodes {
			if err := tx.Put(n); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_PutAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	put(t, s, newCategory("cat-a", "", "/", "MATH", 0))

	err := s.View(ctx, func(tx ReadTx) error {
		node, err := tx.Node("cat-a")
		require.NoError(t, err)
		assert.Equal(t, "MATH", node.Code)

		byCode, err := tx.NodeByCode("MATH")
		require.NoError(t, err)
		assert.Equal(t, "cat-a", byCode.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_NodeNotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.View(context.Background(), func(tx ReadTx) error {
		_, err := tx.Node("cat-missing")
		return err
	})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestBadger_Children_SortedByOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	put(t, s,
		newCategory("cat-r", "", "/", "R", 0),
		newCategory("cat-b", "cat-r", "/cat-r/", "B", 1),
		newCategory("cat-a", "cat-r", "/cat-r/", "A", 0),
		newCategory("cat-c", "cat-r", "/cat-r/", "C", 2),
	)

	err := s.View(ctx, func(tx ReadTx) error {
		children, err := tx.Children("cat-r")
		require.NoError(t, err)
		require.Len(t, children, 3)
		assert.Equal(t, []string{"cat-a", "cat-b", "cat-c"}, []string{children[0].ID, children[1].ID, children[2].ID})
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_ScanPathPrefix(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// r -> a -> b, plus an unrelated root x whose id shares a prefix with r.
	put(t, s,
		newCategory("cat-r", "", "/", "R", 0),
		newCategory("cat-rx", "", "/", "RX", 1),
		newCategory("cat-a", "cat-r", "/cat-r/", "A", 0),
		newCategory("cat-b", "cat-a", "/cat-r/cat-a/", "B", 0),
	)

	err := s.View(ctx, func(tx ReadTx) error {
		subtree, err := tx.ScanPathPrefix("/cat-r/")
		require.NoError(t, err)
		require.Len(t, subtree, 2)
		assert.Equal(t, "cat-a", subtree[0].ID)
		assert.Equal(t, "cat-b", subtree[1].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_Put_MaintainsIndexesOnMove(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	put(t, s,
		newCategory("cat-r", "", "/", "R", 0),
		newCategory("cat-s", "", "/", "S", 1),
		newCategory("cat-a", "cat-r", "/cat-r/", "A", 0),
	)

	// Reparent cat-a from cat-r to cat-s.
	err := s.Update(ctx, func(tx WriteTx) error {
		node, err := tx.Node("cat-a")
		if err != nil {
			return err
		}
		node.ParentID = "cat-s"
		node.Path = "/cat-s/"
		return tx.Put(node)
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx ReadTx) error {
		oldChildren, err := tx.Children("cat-r")
		require.NoError(t, err)
		assert.Empty(t, oldChildren)

		newChildren, err := tx.Children("cat-s")
		require.NoError(t, err)
		require.Len(t, newChildren, 1)
		assert.Equal(t, "cat-a", newChildren[0].ID)

		oldSubtree, err := tx.ScanPathPrefix("/cat-r/")
		require.NoError(t, err)
		assert.Empty(t, oldSubtree)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_SoftDelete_DropsFromTraversal(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	node := newCategory("cat-a", "", "/", "A", 0)
	put(t, s, node)

	err := s.Update(ctx, func(tx WriteTx) error {
		n, err := tx.Node("cat-a")
		if err != nil {
			return err
		}
		n.MarkDeleted()
		return tx.Put(n)
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx ReadTx) error {
		_, err := tx.Node("cat-a")
		assert.ErrorIs(t, err, errors.ErrNotFound)

		_, err = tx.NodeByCode("A")
		assert.ErrorIs(t, err, errors.ErrNotFound)

		roots, err := tx.Children("")
		require.NoError(t, err)
		assert.Empty(t, roots)

		all, err := tx.All()
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_HardDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	put(t, s, newCategory("cat-a", "", "/", "A", 0))

	err := s.Update(ctx, func(tx WriteTx) error {
		return tx.Delete("cat-a")
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx ReadTx) error {
		_, err := tx.Node("cat-a")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		_, err = tx.NodeByCode("A")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_UpdateRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sentinel := errors.Internal("boom")
	err := s.Update(ctx, func(tx WriteTx) error {
		if err := tx.Put(newCategory("cat-a", "", "/", "A", 0)); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	err = s.View(ctx, func(tx ReadTx) error {
		_, err := tx.Node("cat-a")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestBadger_BulkInsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	nodes := []*domain.Category{
		newCategory("cat-r", "", "/", "R", 0),
		newCategory("cat-a", "cat-r", "/cat-r/", "A", 0),
	}
	require.NoError(t, s.BulkInsert(ctx, nodes))

	err := s.View(ctx, func(tx ReadTx) error {
		all, err := tx.All()
		require.NoError(t, err)
		assert.Len(t, all, 2)

		children, err := tx.Children("cat-r")
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, "cat-a", children[0].ID)
		return nil
	})
	require.NoError(t, err)
}
