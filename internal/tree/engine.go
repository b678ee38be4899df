// Package tree implements the category tree engine: invariant-preserving
// create/move/reorder/delete over materialized paths, plus the read-side
// query service and the structural integrity sweep.
//
// The engine holds no locks and no state beyond the store handle; every
// mutating operation is a single store.Update transaction, so concurrent
// callers are serialized by the store and never observe a half-applied
// move or reorder.
package tree

import (
	"context"
	"log/slog"
	"strings"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/errors"
	"github.com/questbank/questbank-server/internal/id"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/treepath"
	"github.com/questbank/questbank-server/internal/validation"
)

// Defaults applied when Options fields are zero.
const (
	DefaultMaxDepth  = 10
	DefaultMaxBatch  = 500
	conflictAttempts = 3
)

// Options bounds the shapes the engine will accept.
type Options struct {
	// MaxDepth is the largest Depth any category may reach. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// MaxBatch caps the number of items in one BulkCreate call. Zero means
	// DefaultMaxBatch.
	MaxBatch int
}

// Engine orchestrates all mutations of the category tree.
type Engine struct {
	store     store.NodeStore
	logger    *slog.Logger
	validator *validation.Validator
	maxDepth  int
	maxBatch  int
}

// NewEngine creates a tree engine on top of a node store.
func NewEngine(st store.NodeStore, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	return &Engine{
		store:     st,
		logger:    logger,
		validator: validation.New(),
		maxDepth:  opts.MaxDepth,
		maxBatch:  opts.MaxBatch,
	}
}

// withRetry runs fn, retrying a bounded number of times on store-level
// transaction conflicts. fn re-reads and re-validates from scratch on each
// attempt, so retrying with the same inputs is safe.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= conflictAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, errors.ErrConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		e.logger.Warn("transaction conflict, retrying", "op", op, "attempt", attempt)
	}
	return err
}

// Create inserts a new category under spec.ParentID (or as a root).
// The sibling order is append-to-end unless spec.Order names a position,
// in which case siblings at or after it shift right.
func (e *Engine) Create(ctx context.Context, spec domain.CreateSpec) (*domain.Category, error) {
	if err := e.validator.Validate(spec); err != nil {
		return nil, err
	}
	if !spec.Type.Valid() {
		return nil, errors.Validationf("unknown category type %q", spec.Type)
	}

	categoryID, err := id.Generate(id.CategoryPrefix)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate category id")
	}

	var created *domain.Category
	err = e.withRetry(ctx, "create", func() error {
		return e.store.Update(ctx, func(tx store.WriteTx) error {
			node, err := e.createInTx(tx, categoryID, spec)
			if err != nil {
				return err
			}
			created = node
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("category created",
		"id", created.ID, "code", created.Code, "parent", created.ParentID, "depth", created.Depth)
	return created, nil
}

// createInTx performs one create inside an open transaction.
func (e *Engine) createInTx(tx store.WriteTx, categoryID string, spec domain.CreateSpec) (*domain.Category, error) {
	if existing, err := tx.NodeByCode(spec.Code); err == nil && existing != nil {
		return nil, errors.DuplicateCode("code %q already in use by %s", spec.Code, existing.ID)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	var (
		path  = treepath.Root
		depth = 0
	)
	if spec.ParentID != "" {
		parent, err := tx.Node(spec.ParentID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ParentNotFoundf("parent category %s not found", spec.ParentID)
		}
		if err != nil {
			return nil, err
		}
		if !parent.Type.CanContain(spec.Type) {
			return nil, errors.Validationf("a %s cannot contain a %s", parent.Type, spec.Type)
		}
		path = parent.ChildPath()
		depth = parent.Depth + 1
		if depth > e.maxDepth {
			return nil, errors.Validationf("depth limit of %d exceeded", e.maxDepth)
		}
	} else if !spec.Type.CanBeRoot() {
		return nil, errors.Validationf("a %s cannot be a root category", spec.Type)
	}

	siblings, err := tx.Children(spec.ParentID)
	if err != nil {
		return nil, err
	}

	order := len(siblings)
	if spec.Order != nil {
		order = *spec.Order
		if order < 0 || order > len(siblings) {
			return nil, errors.Validationf("order %d out of range [0, %d]", order, len(siblings))
		}
		// Open a slot: shift siblings at or after the insertion point.
		for _, sib := range siblings[order:] {
			sib.SortOrder++
			sib.Touch()
			if err := tx.Put(sib); err != nil {
				return nil, err
			}
		}
	}

	node := &domain.Category{
		Auditable: domain.Auditable{ID: categoryID},
		Name:      spec.Name,
		Code:      spec.Code,
		Type:      spec.Type,
		ParentID:  spec.ParentID,
		Path:      path,
		Depth:     depth,
		SortOrder: order,
	}
	node.InitTimestamps()

	if err := tx.Put(node); err != nil {
		return nil, err
	}
	return node, nil
}

// Update applies an in-place metadata change. Path, depth, parent and
// order are untouched; relocations go through Move, ordering through
// ReorderSiblings.
func (e *Engine) Update(ctx context.Context, categoryID string, spec domain.UpdateSpec) (*domain.Category, error) {
	if err := e.validator.Validate(spec); err != nil {
		return nil, err
	}

	var updated *domain.Category
	err := e.withRetry(ctx, "update", func() error {
		return e.store.Update(ctx, func(tx store.WriteTx) error {
			node, err := tx.Node(categoryID)
			if err != nil {
				return err
			}

			if spec.Code != nil && *spec.Code != node.Code {
				if existing, err := tx.NodeByCode(*spec.Code); err == nil && existing != nil {
					return errors.DuplicateCode("code %q already in use by %s", *spec.Code, existing.ID)
				} else if !errors.Is(err, errors.ErrNotFound) {
					return err
				}
				node.Code = *spec.Code
			}
			if spec.Name != nil {
				node.Name = *spec.Name
			}

			node.Touch()
			if err := tx.Put(node); err != nil {
				return err
			}
			updated = node
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Move relocates a category, and with it its whole subtree, to a new
// parent and/or a new position among its siblings. The relocation is one
// transaction: the node's path/depth/parent rewrite, the prefix rewrite of
// every descendant, the gap-close in the old sibling group and the
// slot-open in the new one all commit together or not at all.
func (e *Engine) Move(ctx context.Context, spec domain.MoveSpec) (*domain.Category, error) {
	if err := e.validator.Validate(spec); err != nil {
		return nil, err
	}

	var moved *domain.Category
	err := e.withRetry(ctx, "move", func() error {
		return e.store.Update(ctx, func(tx store.WriteTx) error {
			node, err := e.moveInTx(tx, spec)
			if err != nil {
				return err
			}
			moved = node
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("category moved",
		"id", moved.ID, "parent", moved.ParentID, "order", moved.SortOrder, "depth", moved.Depth)
	return moved, nil
}

func (e *Engine) moveInTx(tx store.WriteTx, spec domain.MoveSpec) (*domain.Category, error) {
	node, err := tx.Node(spec.ID)
	if err != nil {
		return nil, err
	}

	targetParentID := node.ParentID
	if spec.NewParentID != nil {
		targetParentID = *spec.NewParentID
	}

	// Same parent, no position given: nothing to do.
	if targetParentID == node.ParentID && spec.NewOrder == nil {
		return node, nil
	}
	if targetParentID == node.ID {
		return nil, errors.Cycle("cannot move %s under itself", node.ID)
	}

	if targetParentID == node.ParentID {
		return e.repositionInTx(tx, node, spec.NewOrder)
	}
	return e.reparentInTx(tx, node, targetParentID, spec.NewOrder)
}

// repositionInTx moves a node within its current sibling group. Paths are
// untouched; only orders change.
func (e *Engine) repositionInTx(tx store.WriteTx, node *domain.Category, newOrder *int) (*domain.Category, error) {
	siblings, err := tx.Children(node.ParentID)
	if err != nil {
		return nil, err
	}

	others := make([]*domain.Category, 0, len(siblings))
	for _, sib := range siblings {
		if sib.ID != node.ID {
			others = append(others, sib)
		}
	}

	order := len(others)
	if newOrder != nil {
		order = *newOrder
		if order < 0 || order > len(others) {
			return nil, errors.Validationf("order %d out of range [0, %d]", order, len(others))
		}
	}

	// Re-assign dense orders with the node slotted at its new position.
	reordered := make([]*domain.Category, 0, len(siblings))
	reordered = append(reordered, others[:order]...)
	reordered = append(reordered, node)
	reordered = append(reordered, others[order:]...)
	for i, sib := range reordered {
		if sib.SortOrder == i {
			continue
		}
		sib.SortOrder = i
		sib.Touch()
		if err := tx.Put(sib); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// reparentInTx relocates a node under a different parent (or to the root
// group) and rewrites the path prefix of its entire subtree.
func (e *Engine) reparentInTx(tx store.WriteTx, node *domain.Category, targetParentID string, newOrder *int) (*domain.Category, error) {
	var (
		newPath  = treepath.Root
		newDepth = 0
	)
	if targetParentID != "" {
		parent, err := tx.Node(targetParentID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.ParentNotFoundf("parent category %s not found", targetParentID)
		}
		if err != nil {
			return nil, err
		}
		if treepath.Contains(parent.Path, node.ID) {
			return nil, errors.Cycle("cannot move %s under its own descendant %s", node.ID, parent.ID)
		}
		if !parent.Type.CanContain(node.Type) {
			return nil, errors.Validationf("a %s cannot contain a %s", parent.Type, node.Type)
		}
		newPath = parent.ChildPath()
		newDepth = parent.Depth + 1
	} else if !node.Type.CanBeRoot() {
		return nil, errors.Validationf("a %s cannot be a root category", node.Type)
	}

	// Read everything up front; all writes follow.
	oldChildPrefix := node.ChildPath()
	descendants, err := tx.ScanPathPrefix(oldChildPrefix)
	if err != nil {
		return nil, err
	}

	// The deepest descendant moves by the same delta as the node.
	deepest := node.Depth
	for _, d := range descendants {
		if d.Depth > deepest {
			deepest = d.Depth
		}
	}
	if deepest+(newDepth-node.Depth) > e.maxDepth {
		return nil, errors.Validationf("depth limit of %d exceeded", e.maxDepth)
	}

	oldSiblings, err := tx.Children(node.ParentID)
	if err != nil {
		return nil, err
	}
	newSiblings, err := tx.Children(targetParentID)
	if err != nil {
		return nil, err
	}

	order := len(newSiblings)
	if newOrder != nil {
		order = *newOrder
		if order < 0 || order > len(newSiblings) {
			return nil, errors.Validationf("order %d out of range [0, %d]", order, len(newSiblings))
		}
	}

	// Close the gap the node leaves behind.
	for _, sib := range oldSiblings {
		if sib.ID == node.ID || sib.SortOrder <= node.SortOrder {
			continue
		}
		sib.SortOrder--
		sib.Touch()
		if err := tx.Put(sib); err != nil {
			return nil, err
		}
	}

	// Open a slot in the target group.
	for _, sib := range newSiblings {
		if sib.SortOrder < order {
			continue
		}
		sib.SortOrder++
		sib.Touch()
		if err := tx.Put(sib); err != nil {
			return nil, err
		}
	}

	depthDelta := newDepth - node.Depth
	node.ParentID = targetParentID
	node.Path = newPath
	node.Depth = newDepth
	node.SortOrder = order
	node.Touch()
	if err := tx.Put(node); err != nil {
		return nil, err
	}

	// One pass over the subtree: swap the old path prefix for the new one.
	newChildPrefix := node.ChildPath()
	for _, d := range descendants {
		d.Path = newChildPrefix + strings.TrimPrefix(d.Path, oldChildPrefix)
		d.Depth += depthDelta
		d.Touch()
		if err := tx.Put(d); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// ReorderSiblings re-assigns dense 0..n-1 order across exactly the current
// children of parentID. The given id set must match the sibling set
// exactly; the operation is all-or-nothing.
func (e *Engine) ReorderSiblings(ctx context.Context, spec domain.ReorderSpec) error {
	if err := e.validator.Validate(spec); err != nil {
		return err
	}

	return e.withRetry(ctx, "reorder", func() error {
		return e.store.Update(ctx, func(tx store.WriteTx) error {
			siblings, err := tx.Children(spec.ParentID)
			if err != nil {
				return err
			}

			byID := make(map[string]*domain.Category, len(siblings))
			for _, sib := range siblings {
				byID[sib.ID] = sib
			}
			if len(spec.OrderedIDs) != len(siblings) {
				return errors.Validationf("reorder set has %d ids, sibling group has %d",
					len(spec.OrderedIDs), len(siblings))
			}
			seen := make(map[string]bool, len(spec.OrderedIDs))
			for _, sibID := range spec.OrderedIDs {
				if seen[sibID] {
					return errors.Validationf("duplicate id %s in reorder set", sibID)
				}
				seen[sibID] = true
				if _, ok := byID[sibID]; !ok {
					return errors.Validationf("id %s is not a child of %q", sibID, spec.ParentID)
				}
			}

			for i, sibID := range spec.OrderedIDs {
				sib := byID[sibID]
				if sib.SortOrder == i {
					continue
				}
				sib.SortOrder = i
				sib.Touch()
				if err := tx.Put(sib); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// Delete removes a category. Without Cascade it refuses when non-deleted
// children exist. Soft delete keeps records addressable on disk but out of
// traversal; Hard physically removes them. Either way the gap left in the
// sibling group closes.
func (e *Engine) Delete(ctx context.Context, spec domain.DeleteSpec) error {
	if err := e.validator.Validate(spec); err != nil {
		return err
	}

	err := e.withRetry(ctx, "delete", func() error {
		return e.store.Update(ctx, func(tx store.WriteTx) error {
			node, err := tx.Node(spec.ID)
			if err != nil {
				return err
			}

			children, err := tx.Children(node.ID)
			if err != nil {
				return err
			}
			if len(children) > 0 && !spec.Cascade {
				return errors.HasChildren("category %s has %d children; delete with cascade or move them first",
					node.ID, len(children))
			}

			victims := []*domain.Category{node}
			if spec.Cascade {
				descendants, err := tx.ScanPathPrefix(node.ChildPath())
				if err != nil {
					return err
				}
				victims = append(victims, descendants...)
			}

			siblings, err := tx.Children(node.ParentID)
			if err != nil {
				return err
			}

			for _, victim := range victims {
				if spec.Hard {
					if err := tx.Delete(victim.ID); err != nil {
						return err
					}
					continue
				}
				victim.MarkDeleted()
				if err := tx.Put(victim); err != nil {
					return err
				}
			}

			// Close the order gap among the remaining siblings.
			for _, sib := range siblings {
				if sib.ID == node.ID || sib.SortOrder <= node.SortOrder {
					continue
				}
				sib.SortOrder--
				sib.Touch()
				if err := tx.Put(sib); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("category deleted", "id", spec.ID, "cascade", spec.Cascade, "hard", spec.Hard)
	return nil
}

// BulkResult is the outcome of one item in a BulkCreate batch.
type BulkResult struct {
	Index int              `json:"index"`
	Node  *domain.Category `json:"node,omitempty"`
	Err   *errors.Error    `json:"error,omitempty"`
}

// BulkCreate processes create specs independently: a failed item (duplicate
// code, missing parent) does not roll back or abort the others. Items are
// applied in order, so an item may reference a category created earlier in
// the same batch.
func (e *Engine) BulkCreate(ctx context.Context, specs []domain.CreateSpec) ([]BulkResult, error) {
	if len(specs) == 0 {
		return nil, errors.Validation("empty batch")
	}
	if len(specs) > e.maxBatch {
		return nil, errors.Validationf("batch of %d exceeds limit of %d", len(specs), e.maxBatch)
	}

	results := make([]BulkResult, len(specs))
	for i, spec := range specs {
		node, err := e.Create(ctx, spec)
		results[i] = BulkResult{Index: i, Node: node, Err: asDomainError(err)}
	}

	return results, nil
}

// ValidateIntegrity runs the full structural sweep.
func (e *Engine) ValidateIntegrity(ctx context.Context) (*Report, error) {
	return NewValidator(e.store, e.maxDepth).Run(ctx)
}

// asDomainError coerces any error into a serializable *errors.Error.
func asDomainError(err error) *errors.Error {
	if err == nil {
		return nil
	}
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return errors.Wrap(err, errors.CodeInternal, err.Error())
}
