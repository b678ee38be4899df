// Package seed loads the default category fixture into an empty store.
// The fixture is pure bootstrap data; the engine never depends on it.
package seed

import (
	"context"
	"log/slog"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/id"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/treepath"
)

// node is one fixture entry; children inherit structure from nesting.
type node struct {
	name     string
	code     string
	typ      domain.CategoryType
	children []node
}

// defaultTree is the out-of-the-box subject hierarchy.
func defaultTree() []node {
	return []node{
		{name: "Mathematics", code: "MATH", typ: domain.TypeSubject, children: []node{
			{name: "Algebra", code: "MATH-ALG", typ: domain.TypeChapter, children: []node{
				{name: "Linear Equations", code: "MATH-ALG-LIN", typ: domain.TypeTopic},
				{name: "Quadratic Equations", code: "MATH-ALG-QUAD", typ: domain.TypeTopic},
			}},
			{name: "Geometry", code: "MATH-GEO", typ: domain.TypeChapter, children: []node{
				{name: "Triangles", code: "MATH-GEO-TRI", typ: domain.TypeTopic},
				{name: "Circles", code: "MATH-GEO-CIR", typ: domain.TypeTopic},
			}},
		}},
		{name: "Physics", code: "PHY", typ: domain.TypeSubject, children: []node{
			{name: "Mechanics", code: "PHY-MECH", typ: domain.TypeChapter, children: []node{
				{name: "Kinematics", code: "PHY-MECH-KIN", typ: domain.TypeTopic},
			}},
			{name: "Optics", code: "PHY-OPT", typ: domain.TypeChapter},
		}},
		{name: "Chemistry", code: "CHEM", typ: domain.TypeSubject},
	}
}

// Load inserts the default fixture when the store holds no categories.
// Returns the number of categories inserted (zero when the store was
// already populated).
func Load(ctx context.Context, st store.NodeStore, logger *slog.Logger) (int, error) {
	empty := true
	err := st.View(ctx, func(tx store.ReadTx) error {
		all, err := tx.All()
		if err != nil {
			return err
		}
		empty = len(all) == 0
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !empty {
		return 0, nil
	}

	categories, err := flatten(defaultTree(), "", treepath.Root, 0)
	if err != nil {
		return 0, err
	}
	if err := st.BulkInsert(ctx, categories); err != nil {
		return 0, err
	}

	if logger != nil {
		logger.Info("seeded default categories", "count", len(categories))
	}
	return len(categories), nil
}

// flatten walks the fixture depth-first, assigning ids, paths, depths and
// dense sibling orders.
func flatten(nodes []node, parentID, path string, depth int) ([]*domain.Category, error) {
	var out []*domain.Category
	for i, n := range nodes {
		categoryID, err := id.Generate(id.CategoryPrefix)
		if err != nil {
			return nil, err
		}

		c := &domain.Category{
			Auditable: domain.Auditable{ID: categoryID},
			Name:      n.name,
			Code:      n.code,
			Type:      n.typ,
			ParentID:  parentID,
			Path:      path,
			Depth:     depth,
			SortOrder: i,
		}
		c.InitTimestamps()
		out = append(out, c)

		children, err := flatten(n.children, categoryID, c.ChildPath(), depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}
