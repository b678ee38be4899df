package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/store"
)

// setupRawStore opens a store the tests can corrupt directly, bypassing
// the engine's validation.
func setupRawStore(t *testing.T) store.NodeStore {
	t.Helper()
	s, err := store.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rawPut(t *testing.T, s store.NodeStore, nodes ...*domain.Category) {
	t.Helper()
	err := s.Update(context.Background(), func(tx store.WriteTx) error {
		for _, n := range nodes {
			if err := tx.Put(n); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func rawCategory(id, parentID, path string, depth, order int) *domain.Category {
	c := &domain.Category{
		Auditable: domain.Auditable{ID: id},
		Name:      "Category " + id,
		Code:      "CODE-" + id,
		Type:      domain.TypeSubject,
		ParentID:  parentID,
		Path:      path,
		Depth:     depth,
		SortOrder: order,
	}
	c.InitTimestamps()
	return c
}

func TestValidator_CleanTree(t *testing.T) {
	e, _ := setupEngine(t)
	seedFixture(t, e)

	report, err := e.ValidateIntegrity(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean(), report.String())
	assert.Equal(t, "integrity: clean", report.String())
}

func TestValidator_DetectsOrphans(t *testing.T) {
	s := setupRawStore(t)
	rawPut(t, s,
		rawCategory("cat-root", "", "/", 0, 0),
		rawCategory("cat-lost", "cat-gone", "/cat-gone/", 1, 0),
	)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-lost"}, report.Orphans)
	assert.False(t, report.Clean())
}

func TestValidator_OrphanWhenParentSoftDeleted(t *testing.T) {
	s := setupRawStore(t)
	parent := rawCategory("cat-p", "", "/", 0, 0)
	child := rawCategory("cat-c", "cat-p", "/cat-p/", 1, 0)
	rawPut(t, s, parent, child)

	parent.MarkDeleted()
	rawPut(t, s, parent)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-c"}, report.Orphans)
}

func TestValidator_DetectsPathMismatches(t *testing.T) {
	s := setupRawStore(t)
	rawPut(t, s,
		rawCategory("cat-a", "", "/", 0, 0),
		rawCategory("cat-b", "cat-a", "/cat-wrong/", 1, 0), // stale prefix
		rawCategory("cat-c", "cat-a", "/cat-a/", 7, 1),     // depth disagrees with path
	)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-b", "cat-c"}, report.PathMismatches)
}

func TestValidator_DetectsDuplicateOrdersAndGaps(t *testing.T) {
	s := setupRawStore(t)
	rawPut(t, s,
		rawCategory("cat-r", "", "/", 0, 0),
		rawCategory("cat-a", "cat-r", "/cat-r/", 1, 0),
		rawCategory("cat-b", "cat-r", "/cat-r/", 1, 0), // duplicate order 0
		rawCategory("cat-s", "", "/", 0, 2),            // root group gap: 0, 2
	)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-r"}, report.DuplicateOrders)
	assert.Equal(t, []string{"<root>"}, report.OrderGaps)
}

func TestValidator_DetectsCycles(t *testing.T) {
	s := setupRawStore(t)
	// a and b point at each other; c hangs off the loop.
	rawPut(t, s,
		rawCategory("cat-a", "cat-b", "/cat-b/", 1, 0),
		rawCategory("cat-b", "cat-a", "/cat-a/", 1, 0),
		rawCategory("cat-c", "cat-a", "/cat-a/", 2, 1),
	)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, report.Cycles, "cat-a")
	assert.Contains(t, report.Cycles, "cat-b")
	assert.Contains(t, report.Cycles, "cat-c")
}

func TestValidator_DetectsDepthOverrun(t *testing.T) {
	s := setupRawStore(t)
	rawPut(t, s,
		rawCategory("cat-a", "", "/", 0, 0),
		rawCategory("cat-b", "cat-a", "/cat-a/", 1, 0),
	)

	report, err := NewValidator(s, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.DepthExceeded)

	report, err = NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.DepthExceeded, "zero maxDepth falls back to the default")

	s2 := setupRawStore(t)
	rawPut(t, s2,
		rawCategory("cat-a", "", "/", 0, 0),
		rawCategory("cat-b", "cat-a", "/cat-a/", 1, 0),
		rawCategory("cat-c", "cat-b", "/cat-a/cat-b/", 2, 0),
	)
	report, err = NewValidator(s2, 1).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cat-c"}, report.DepthExceeded)
}

func TestValidator_EmptyStoreIsClean(t *testing.T) {
	s := setupRawStore(t)

	report, err := NewValidator(s, 0).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean())
}
