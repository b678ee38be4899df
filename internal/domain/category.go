package domain

// Category is a node in the question-bank classification tree.
// Categories form an arbitrary-depth hierarchy: Mathematics -> Algebra -> Quadratics.
// Questions reference Category.ID as their classification key; this service
// does not know about questions beyond exposing ids.
type Category struct {
	Auditable
	Name      string       `json:"name"`                // Display name: "Quadratic Equations"
	Code      string       `json:"code"`                // Lookup key, unique tree-wide: "MATH-ALG-QUAD"
	Type      CategoryType `json:"type"`                // subject, chapter, or topic
	ParentID  string       `json:"parent_id,omitempty"` // Parent category ID (empty for roots)
	Path      string       `json:"path"`                // Materialized ancestor-id path: "/cat-a/cat-b/"
	Depth     int          `json:"depth"`               // 0=root, equals the number of ids in Path
	SortOrder int          `json:"sort_order"`          // Dense position among siblings, 0-based
}

// IsRoot returns true if this category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == ""
}

// ChildPath returns the materialized path that children of this category carry:
// the category's own path extended by its id.
func (c *Category) ChildPath() string {
	return c.Path + c.ID + "/"
}

// CreateSpec describes a category to be created.
type CreateSpec struct {
	ParentID string       `json:"parent_id,omitempty"`
	Name     string       `json:"name" validate:"required,min=1,max=200"`
	Code     string       `json:"code" validate:"required,min=1,max=64"`
	Type     CategoryType `json:"type" validate:"required"`
	Order    *int         `json:"order,omitempty"` // nil appends to end
}

// UpdateSpec describes an in-place metadata update. Structure (parent,
// path, order) is never touched here; that goes through move and reorder.
type UpdateSpec struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Code *string `json:"code,omitempty" validate:"omitempty,min=1,max=64"`
}

// MoveSpec describes a relocation of a category (and its subtree).
type MoveSpec struct {
	ID          string  `json:"id" validate:"required"`
	NewParentID *string `json:"new_parent_id,omitempty"` // nil keeps current parent, "" moves to root
	NewOrder    *int    `json:"new_order,omitempty"`     // nil appends to end of target sibling group
}

// ReorderSpec re-assigns sibling order for exactly the children of ParentID.
type ReorderSpec struct {
	ParentID   string   `json:"parent_id,omitempty"` // empty for the root group
	OrderedIDs []string `json:"ordered_ids" validate:"required,min=1"`
}

// DeleteSpec describes a category removal.
type DeleteSpec struct {
	ID      string `json:"id" validate:"required"`
	Cascade bool   `json:"cascade"` // remove the whole subtree
	Hard    bool   `json:"hard"`    // physical removal instead of soft delete
}
