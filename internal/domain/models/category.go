package models

import "time"

// Category is a node in the hierarchical document taxonomy.
// ParentID is NULL for top-level categories. Categories are soft-deleted so
// that existing documents keep a resolvable reference.
type Category struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Code        string     `json:"code,omitempty" db:"code"`
	Description string     `json:"description,omitempty" db:"description"`
	ParentID    *string    `json:"parent_id" db:"parent_id"`
	Active      bool       `json:"active" db:"active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`
}
