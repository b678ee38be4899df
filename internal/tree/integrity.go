package tree

import (
	"context"
	"fmt"
	"sort"

	"github.com/questbank/questbank-server/internal/domain"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/treepath"
)

// Report is the outcome of a full integrity sweep. Data-quality findings
// land in the report fields; the sweep itself errors only when the store
// cannot be read.
type Report struct {
	// Orphans lists ids whose parent is missing or soft-deleted.
	Orphans []string `json:"orphans,omitempty"`
	// PathMismatches lists ids whose path or depth disagrees with the
	// parent chain.
	PathMismatches []string `json:"path_mismatches,omitempty"`
	// DuplicateOrders lists sibling groups containing a repeated order.
	DuplicateOrders []string `json:"duplicate_orders,omitempty"`
	// OrderGaps lists sibling groups whose orders are not dense 0..n-1.
	OrderGaps []string `json:"order_gaps,omitempty"`
	// Cycles lists ids sitting on a parent-chain loop.
	Cycles []string `json:"cycles,omitempty"`
	// DepthExceeded lists ids deeper than the configured limit.
	DepthExceeded []string `json:"depth_exceeded,omitempty"`
}

// Clean reports whether the sweep found nothing wrong.
func (r *Report) Clean() bool {
	return len(r.Orphans) == 0 &&
		len(r.PathMismatches) == 0 &&
		len(r.DuplicateOrders) == 0 &&
		len(r.OrderGaps) == 0 &&
		len(r.Cycles) == 0 &&
		len(r.DepthExceeded) == 0
}

// Validator runs structural consistency checks over the whole tree.
type Validator struct {
	store    store.NodeStore
	maxDepth int
}

// NewValidator creates an integrity validator.
func NewValidator(st store.NodeStore, maxDepth int) *Validator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Validator{store: st, maxDepth: maxDepth}
}

// Run sweeps every category in one snapshot and reports structural
// deviations: orphaned nodes, stale materialized paths, broken sibling
// ordering, parent-chain cycles and depth overruns.
func (v *Validator) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	err := v.store.View(ctx, func(tx store.ReadTx) error {
		all, err := tx.All()
		if err != nil {
			return err
		}

		byID := make(map[string]*domain.Category, len(all))
		for _, node := range all {
			byID[node.ID] = node
		}

		v.checkNodes(all, byID, report)
		v.checkSiblingOrders(all, report)
		v.checkCycles(all, byID, report)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(report.Orphans)
	sort.Strings(report.PathMismatches)
	sort.Strings(report.DuplicateOrders)
	sort.Strings(report.OrderGaps)
	sort.Strings(report.Cycles)
	sort.Strings(report.DepthExceeded)
	return report, nil
}

// checkNodes verifies per-node invariants: parent resolution, path/depth
// agreement with the parent, depth limit.
func (v *Validator) checkNodes(all []*domain.Category, byID map[string]*domain.Category, report *Report) {
	for _, node := range all {
		expectedPath := treepath.Root
		if node.ParentID != "" {
			parent, ok := byID[node.ParentID]
			if !ok {
				// All() excludes soft-deleted records, so a soft-deleted
				// parent reports as an orphan too.
				report.Orphans = append(report.Orphans, node.ID)
				continue
			}
			expectedPath = parent.ChildPath()
		}

		if node.Path != expectedPath || node.Depth != treepath.Depth(node.Path) {
			report.PathMismatches = append(report.PathMismatches, node.ID)
		}
		if node.Depth > v.maxDepth {
			report.DepthExceeded = append(report.DepthExceeded, node.ID)
		}
	}
}

// checkSiblingOrders verifies each sibling group carries dense, unique
// 0..n-1 orders. Groups are reported by parent id, "<root>" for the root
// group.
func (v *Validator) checkSiblingOrders(all []*domain.Category, report *Report) {
	groups := make(map[string][]int)
	for _, node := range all {
		groups[node.ParentID] = append(groups[node.ParentID], node.SortOrder)
	}

	for parentID, orders := range groups {
		label := parentID
		if label == "" {
			label = "<root>"
		}

		sort.Ints(orders)
		duplicate, gap := false, false
		for i, order := range orders {
			if i > 0 && order == orders[i-1] {
				duplicate = true
			}
			if order != i && !duplicate {
				gap = true
			}
		}
		if duplicate {
			report.DuplicateOrders = append(report.DuplicateOrders, label)
		}
		if gap {
			report.OrderGaps = append(report.OrderGaps, label)
		}
	}
}

// checkCycles walks each node's parent chain with a visited set. The walk
// is capped well above any legal depth so corrupt chains terminate.
func (v *Validator) checkCycles(all []*domain.Category, byID map[string]*domain.Category, report *Report) {
	// acyclic memoizes nodes whose chain already proved clean.
	acyclic := make(map[string]bool, len(all))

	for _, node := range all {
		if acyclic[node.ID] {
			continue
		}

		visited := map[string]bool{}
		chain := []string{}
		current := node
		looped := false
		for current != nil && !acyclic[current.ID] {
			if visited[current.ID] || len(chain) > len(all) {
				looped = true
				break
			}
			visited[current.ID] = true
			chain = append(chain, current.ID)
			current = byID[current.ParentID]
		}

		if looped {
			report.Cycles = append(report.Cycles, node.ID)
			continue
		}
		for _, visitedID := range chain {
			acyclic[visitedID] = true
		}
	}
}

// String renders a short human-readable summary.
func (r *Report) String() string {
	if r.Clean() {
		return "integrity: clean"
	}
	return fmt.Sprintf("integrity: %d orphans, %d path mismatches, %d duplicate orders, %d order gaps, %d cycles, %d over depth",
		len(r.Orphans), len(r.PathMismatches), len(r.DuplicateOrders), len(r.OrderGaps), len(r.Cycles), len(r.DepthExceeded))
}
