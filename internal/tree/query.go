package tree

import (
	"context"
	"sort"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
	"github.com/questbank/questbank-server/internal/normalize"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/treepath"
)

// DefaultSearchLimit bounds Search results when the caller gives no limit.
const DefaultSearchLimit = 50

// Query is the read side of the tree: traversals, lookups and statistics
// built on snapshot reads. It never mutates.
type Query struct {
	store store.NodeStore
}

// NewQuery creates a query service on top of a node store.
func NewQuery(st store.NodeStore) *Query {
	return &Query{store: st}
}

// Get returns a single category by id.
func (q *Query) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	var node *domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		node, err = tx.Node(categoryID)
		return err
	})
	return node, err
}

// GetByCode returns a single category by its tree-wide unique code.
func (q *Query) GetByCode(ctx context.Context, code string) (*domain.Category, error) {
	var node *domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		node, err = tx.NodeByCode(code)
		return err
	})
	return node, err
}

// Tree returns every category in stable tree order: grouped by path,
// siblings by order.
func (q *Query) Tree(ctx context.Context) ([]*domain.Category, error) {
	var nodes []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		var err error
		nodes, err = tx.ScanPathPrefix(treepath.Root)
		return err
	})
	if err != nil {
		return nil, err
	}
	sortTreeOrder(nodes)
	return nodes, nil
}

// GetChildren returns the direct children of parentID (empty for roots),
// sorted by sibling order.
func (q *Query) GetChildren(ctx context.Context, parentID string) ([]*domain.Category, error) {
	var children []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		if parentID != "" {
			if _, err := tx.Node(parentID); err != nil {
				return err
			}
		}
		var err error
		children, err = tx.Children(parentID)
		return err
	})
	return children, err
}

// GetAncestors returns the chain from the root down to the node's parent,
// decoded from the materialized path.
func (q *Query) GetAncestors(ctx context.Context, categoryID string) ([]*domain.Category, error) {
	var ancestors []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		node, err := tx.Node(categoryID)
		if err != nil {
			return err
		}
		ids, err := treepath.Decode(node.Path)
		if err != nil {
			return err
		}
		ancestors = make([]*domain.Category, 0, len(ids))
		for _, ancestorID := range ids {
			ancestor, err := tx.Node(ancestorID)
			if err != nil {
				return errors.Wrapf(err, errors.CodeMalformedPath,
					"path of %s references missing ancestor %s", categoryID, ancestorID)
			}
			ancestors = append(ancestors, ancestor)
		}
		return nil
	})
	return ancestors, err
}

// GetDescendants returns the whole subtree below categoryID in tree order.
// maxDepth > 0 limits how many levels below the node are included.
func (q *Query) GetDescendants(ctx context.Context, categoryID string, maxDepth int) ([]*domain.Category, error) {
	var descendants []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		node, err := tx.Node(categoryID)
		if err != nil {
			return err
		}
		all, err := tx.ScanPathPrefix(node.ChildPath())
		if err != nil {
			return err
		}
		if maxDepth <= 0 {
			descendants = all
			return nil
		}
		descendants = make([]*domain.Category, 0, len(all))
		for _, d := range all {
			if d.Depth-node.Depth <= maxDepth {
				descendants = append(descendants, d)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortTreeOrder(descendants)
	return descendants, nil
}

// GetSiblings returns the other members of the node's sibling group,
// sorted by order.
func (q *Query) GetSiblings(ctx context.Context, categoryID string) ([]*domain.Category, error) {
	var siblings []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		node, err := tx.Node(categoryID)
		if err != nil {
			return err
		}
		group, err := tx.Children(node.ParentID)
		if err != nil {
			return err
		}
		siblings = make([]*domain.Category, 0, len(group))
		for _, sib := range group {
			if sib.ID != categoryID {
				siblings = append(siblings, sib)
			}
		}
		return nil
	})
	return siblings, err
}

// FindByPath resolves a full materialized path, last segment included, to
// its category. "/cat-a/cat-b/" names cat-b sitting under cat-a. The path
// here is caller input, so a decode failure is a validation error rather
// than the malformed-path code reserved for corrupt stored paths.
func (q *Query) FindByPath(ctx context.Context, path string) (*domain.Category, error) {
	ids, err := treepath.Decode(path)
	if err != nil {
		return nil, errors.Validationf("malformed path %q", path)
	}
	if len(ids) == 0 {
		return nil, errors.NotFound("no category at the root path")
	}

	var node *domain.Category
	err = q.store.View(ctx, func(tx store.ReadTx) error {
		candidate, err := tx.Node(ids[len(ids)-1])
		if err != nil {
			return err
		}
		if candidate.ChildPath() != path {
			return errors.NotFoundf("no category at path %s", path)
		}
		node = candidate
		return nil
	})
	return node, err
}

// Search returns categories whose name or code contains term, compared
// case- and diacritic-insensitively. Results are tree-ordered and capped
// at limit (DefaultSearchLimit when <= 0).
func (q *Query) Search(ctx context.Context, term string, limit int) ([]*domain.Category, error) {
	if term == "" {
		return nil, errors.Validation("empty search term")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	folded := normalize.Fold(term)
	var matches []*domain.Category
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		all, err := tx.All()
		if err != nil {
			return err
		}
		for _, node := range all {
			if normalize.FoldContains(node.Name, folded) || normalize.FoldContains(node.Code, folded) {
				matches = append(matches, node)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortTreeOrder(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Statistics summarizes the shape of the tree.
type Statistics struct {
	TotalNodes         int                         `json:"total_nodes"`
	MaxDepth           int                         `json:"max_depth"`
	AvgChildrenPerNode float64                     `json:"avg_children_per_node"`
	NodesByType        map[domain.CategoryType]int `json:"nodes_by_type"`
}

// GetStatistics computes tree-wide counters in one pass over the store.
func (q *Query) GetStatistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{NodesByType: make(map[domain.CategoryType]int)}
	err := q.store.View(ctx, func(tx store.ReadTx) error {
		all, err := tx.All()
		if err != nil {
			return err
		}

		childCounts := make(map[string]int)
		for _, node := range all {
			stats.TotalNodes++
			stats.NodesByType[node.Type]++
			if node.Depth > stats.MaxDepth {
				stats.MaxDepth = node.Depth
			}
			if node.ParentID != "" {
				childCounts[node.ParentID]++
			}
		}
		if len(childCounts) > 0 {
			total := 0
			for _, n := range childCounts {
				total += n
			}
			stats.AvgChildrenPerNode = float64(total) / float64(len(childCounts))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// sortTreeOrder sorts nodes by path, then sibling order, then id for
// stability. Parents sort before their subtrees because a parent's path is
// a proper prefix of its descendants' paths.
func sortTreeOrder(nodes []*domain.Category) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Path != nodes[j].Path {
			return nodes[i].Path < nodes[j].Path
		}
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].ID < nodes[j].ID
	})
}
