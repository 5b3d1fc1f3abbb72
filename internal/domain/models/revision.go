package models

import "time"

// RevisionStatus is the lifecycle state of a single revision.
type RevisionStatus string

const (
	RevisionStatusDraft    RevisionStatus = "draft"
	RevisionStatusInReview RevisionStatus = "in_review"
	RevisionStatusCurrent  RevisionStatus = "current" // "vigente": the published revision
	RevisionStatusRejected RevisionStatus = "rejected"
	RevisionStatusObsolete RevisionStatus = "obsolete"
)

// Revision is one versioned file submission against a document. Revisions are
// append-only: they are superseded, never deleted. For a given document at
// most one revision holds status "current" at any time.
type Revision struct {
	ID           string         `json:"id" db:"id"`
	DocumentID   string         `json:"document_id" db:"document_id"`
	Version      string         `json:"version" db:"version"`
	RevisionDate time.Time      `json:"revision_date" db:"revision_date"`
	Status       RevisionStatus `json:"status" db:"status"`
	Changes      string         `json:"changes,omitempty" db:"changes"`
	Observations string         `json:"observations,omitempty" db:"observations"`
	FilePath     string         `json:"-" db:"file_path"`
	FileName     string         `json:"file_name,omitempty" db:"file_name"`
	FileType     string         `json:"file_type,omitempty" db:"file_type"`
	FileSize     int64          `json:"file_size,omitempty" db:"file_size"`
	CreatedBy    string         `json:"created_by" db:"created_by"`
	ApprovedBy   *string        `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt   *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// Terminal reports whether the revision can accept no further status changes.
func (s RevisionStatus) Terminal() bool {
	return s == RevisionStatusRejected || s == RevisionStatusObsolete
}
