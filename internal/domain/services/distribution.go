package services

import (
	"context"

	"qualidoc/internal/domain/models"
)

// DistributionService tracks controlled copies checked out to users.
type DistributionService interface {
	// Distribute checks a controlled copy out to a user. A user may hold at
	// most one open copy of a document; a second checkout fails with Conflict.
	Distribute(ctx context.Context, req *DistributeRequest) (*models.Distribution, error)

	// Return closes an open distribution. Returning an already-returned
	// distribution fails with Conflict and leaves state unchanged.
	Return(ctx context.Context, distributionID string, req *ReturnRequest) (*models.Distribution, error)

	List(ctx context.Context, documentID string, openOnly bool) ([]models.Distribution, error)
}

// DistributeRequest represents a controlled-copy checkout.
type DistributeRequest struct {
	DocumentID string       `json:"-"` // from URL
	UserID     string       `json:"user_id"`
	Notes      string       `json:"notes,omitempty"`
	Actor      models.Actor `json:"-"` // distributor, from auth context
}

// ReturnRequest represents a controlled-copy return.
type ReturnRequest struct {
	ReturnedTo string       `json:"returned_to,omitempty"` // defaults to the actor
	Notes      string       `json:"notes,omitempty"`
	Actor      models.Actor `json:"-"`
}
