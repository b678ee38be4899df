package domain

import "time"

// Auditable provides common identity and lifecycle fields for persisted
// entities. Embed it in any domain type that is stored.
type Auditable struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	ID        string     `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (a *Auditable) Touch() {
	a.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (a *Auditable) InitTimestamps() {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
}

// IsDeleted returns true if this entity has been soft-deleted.
func (a *Auditable) IsDeleted() bool {
	return a.DeletedAt != nil
}

// MarkDeleted marks this entity as soft-deleted by setting DeletedAt to now.
// The record stays addressable for audit history but drops out of traversal.
func (a *Auditable) MarkDeleted() {
	now := time.Now()
	a.DeletedAt = &now
	a.UpdatedAt = now
}
