package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/tree"
)

func TestLoad_SeedsEmptyStore(t *testing.T) {
	s, err := store.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	count, err := Load(ctx, s, nil)
	require.NoError(t, err)
	assert.Greater(t, count, 0)

	// The fixture satisfies every structural invariant.
	report, err := tree.NewValidator(s, 0).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean(), report.String())

	roots, err := tree.NewQuery(s).GetChildren(ctx, "")
	require.NoError(t, err)
	require.Len(t, roots, 3)
	assert.Equal(t, "MATH", roots[0].Code)
}

func TestLoad_SkipsPopulatedStore(t *testing.T) {
	s, err := store.OpenBadger(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	first, err := Load(ctx, s, nil)
	require.NoError(t, err)

	second, err := Load(ctx, s, nil)
	require.NoError(t, err)
	assert.Zero(t, second)

	all := 0
	err = s.View(ctx, func(tx store.ReadTx) error {
		nodes, err := tx.All()
		all = len(nodes)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, first, all)
}
