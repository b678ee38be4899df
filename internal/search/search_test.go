package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questbank/questbank-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	idx, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func indexedCategory(id, name, code, path string, typ domain.CategoryType, depth int) *domain.Category {
	c := &domain.Category{
		Auditable: domain.Auditable{ID: id},
		Name:      name,
		Code:      code,
		Type:      typ,
		Path:      path,
		Depth:     depth,
	}
	c.InitTimestamps()
	return c
}

func seedIndex(t *testing.T, idx *Index) {
	t.Helper()
	err := idx.IndexCategories([]*domain.Category{
		indexedCategory("cat-math", "Mathematics", "MATH", "/", domain.TypeSubject, 0),
		indexedCategory("cat-alg", "Algebra", "MATH-ALG", "/cat-math/", domain.TypeChapter, 1),
		indexedCategory("cat-quad", "Quadratic Equations", "MATH-ALG-QUAD", "/cat-math/cat-alg/", domain.TypeTopic, 2),
		indexedCategory("cat-sci", "Science", "SCI", "/", domain.TypeSubject, 0),
	})
	require.NoError(t, err)
}

func hitIDs(result *Result) []string {
	ids := make([]string, len(result.Hits))
	for i, h := range result.Hits {
		ids[i] = h.ID
	}
	return ids
}

func TestSearch_ByName(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), Params{Query: "algebra"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "cat-alg", result.Hits[0].ID)
	assert.Equal(t, "Algebra", result.Hits[0].Name)
}

func TestSearch_ByCodePrefix(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), Params{Query: "math-alg"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cat-alg", "cat-quad"}, hitIDs(result))
}

func TestSearch_TypeFilter(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), Params{
		Query: "",
		Types: []string{string(domain.TypeSubject)},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cat-math", "cat-sci"}, hitIDs(result))
}

func TestSearch_PathPrefixFilter(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	result, err := idx.Search(context.Background(), Params{PathPrefix: "/cat-math/"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cat-alg", "cat-quad"}, hitIDs(result))
}

func TestIndexAndDelete(t *testing.T) {
	idx := setupTestIndex(t)
	ctx := context.Background()

	node := indexedCategory("cat-x", "Trigonometry", "TRIG", "/", domain.TypeSubject, 0)
	require.NoError(t, idx.IndexCategory(ctx, node))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, idx.DeleteCategory(ctx, "cat-x"))
	count, err = idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestRebuild_EmptiesIndex(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// The rebuilt index accepts writes.
	require.NoError(t, idx.IndexCategory(context.Background(),
		indexedCategory("cat-y", "Statistics", "STAT", "/", domain.TypeSubject, 0)))
}

func TestSearch_Pagination(t *testing.T) {
	idx := setupTestIndex(t)
	seedIndex(t, idx)

	page1, err := idx.Search(context.Background(), Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Hits, 2)
	assert.Equal(t, uint64(4), page1.Total)

	page2, err := idx.Search(context.Background(), Params{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Hits, 2)
	assert.NotEqual(t, hitIDs(page1), hitIDs(page2))
}
