package models

import "time"

// Distribution records a controlled copy checked out to a user. Rows are
// append-only and mutated exactly once, on return.
//
// Invariant: IsReturned is true iff ReturnedAt is set. The pair is only ever
// written through MarkReturned and persisted in a single conditional UPDATE.
type Distribution struct {
	ID            string     `json:"id" db:"id"`
	DocumentID    string     `json:"document_id" db:"document_id"`
	UserID        string     `json:"user_id" db:"user_id"`
	DistributedBy string     `json:"distributed_by" db:"distributed_by"`
	DistributedAt time.Time  `json:"distributed_at" db:"distributed_at"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty" db:"returned_at"`
	IsReturned    bool       `json:"is_returned" db:"is_returned"`
	ReturnedTo    *string    `json:"returned_to,omitempty" db:"returned_to"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// Open reports whether the copy is still checked out.
func (d *Distribution) Open() bool {
	return !d.IsReturned
}

// MarkReturned closes the distribution, keeping the returned_at/is_returned
// pair consistent. Returns false if the copy was already returned.
func (d *Distribution) MarkReturned(returnedTo string, at time.Time) bool {
	if d.IsReturned {
		return false
	}
	d.IsReturned = true
	d.ReturnedAt = &at
	d.ReturnedTo = &returnedTo
	return true
}
