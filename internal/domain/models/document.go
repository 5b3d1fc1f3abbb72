package models

import "time"

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "draft"
	DocumentStatusInReview DocumentStatus = "in_review"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusObsolete DocumentStatus = "obsolete"
)

// Document is a controlled or informational record tracked by code, category
// and version. Version and Status mirror the latest approved revision; the
// revision ledger is the source of truth for history.
type Document struct {
	ID            string         `json:"id" db:"id"`
	Code          string         `json:"code" db:"code"`
	Title         string         `json:"title" db:"title"`
	Description   string         `json:"description,omitempty" db:"description"`
	CategoryID    string         `json:"category_id" db:"category_id"`
	Version       string         `json:"version,omitempty" db:"version"` // e.g. "REV.002", caller-supplied label
	Status        DocumentStatus `json:"status" db:"status"`
	EffectiveDate *time.Time     `json:"effective_date,omitempty" db:"effective_date"`
	ReviewDate    *time.Time     `json:"review_date,omitempty" db:"review_date"`
	FilePath      string         `json:"-" db:"file_path"`
	FileName      string         `json:"file_name,omitempty" db:"file_name"`
	FileType      string         `json:"file_type,omitempty" db:"file_type"`
	FileSize      int64          `json:"file_size,omitempty" db:"file_size"`
	CreatedBy     string         `json:"created_by" db:"created_by"`
	ReviewedBy    *string        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewNotes   string         `json:"review_notes,omitempty" db:"review_notes"`
	IsControlled  bool           `json:"is_controlled" db:"is_controlled"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time     `json:"-" db:"deleted_at"`
}

// Terminal reports whether the document can accept no further status changes.
func (s DocumentStatus) Terminal() bool {
	return s == DocumentStatusObsolete
}
