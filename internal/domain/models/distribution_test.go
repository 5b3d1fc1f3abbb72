package models

import (
	"testing"
	"time"
)

func TestMarkReturned(t *testing.T) {
	dist := Distribution{
		ID:         "dist-1",
		DocumentID: "doc-1",
		UserID:     "holder-1",
	}

	at := time.Now()
	if !dist.MarkReturned("archivist-1", at) {
		t.Fatal("MarkReturned on open copy = false, want true")
	}

	if !dist.IsReturned {
		t.Error("is_returned = false after MarkReturned")
	}
	if dist.ReturnedAt == nil || !dist.ReturnedAt.Equal(at) {
		t.Errorf("returned_at = %v, want %v", dist.ReturnedAt, at)
	}
	if dist.ReturnedTo == nil || *dist.ReturnedTo != "archivist-1" {
		t.Errorf("returned_to = %v, want archivist-1", dist.ReturnedTo)
	}
	if dist.Open() {
		t.Error("Open() = true after return")
	}

	// Second call refuses and leaves the pair untouched
	if dist.MarkReturned("someone-else", at.Add(time.Hour)) {
		t.Fatal("MarkReturned on returned copy = true, want false")
	}
	if *dist.ReturnedTo != "archivist-1" {
		t.Errorf("returned_to changed to %s on failed re-return", *dist.ReturnedTo)
	}
	if !dist.ReturnedAt.Equal(at) {
		t.Error("returned_at changed on failed re-return")
	}
}

func TestOpen(t *testing.T) {
	dist := Distribution{}
	if !dist.Open() {
		t.Error("fresh distribution Open() = false, want true")
	}
}
