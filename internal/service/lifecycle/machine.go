// Package lifecycle defines the status machines for documents and revisions.
// Services consult the guard before persisting any status change; an event
// the machine will not accept in the entity's current state is an illegal
// transition and surfaces as Conflict.
package lifecycle

import (
	"fmt"

	"github.com/anggasct/fluo"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
)

// Event is a lifecycle trigger shared by both machines.
type Event string

const (
	// EventSubmit sends a draft into review; on an approved document it
	// reopens review for a new revision.
	EventSubmit Event = "submit"
	// EventApprove publishes: revision becomes current, document approved.
	EventApprove Event = "approve"
	// EventReject terminates a revision under review.
	EventReject Event = "reject"
	// EventSupersede demotes the current revision when a newer one is approved.
	EventSupersede Event = "supersede"
	// EventObsolete retires a document from any non-terminal state.
	EventObsolete Event = "obsolete"
)

// Guard validates status transitions against the statechart definitions.
// Definitions are built once; each check hydrates a throwaway instance at
// the entity's persisted state.
type Guard struct {
	document fluo.MachineDefinition
	revision fluo.MachineDefinition
}

// NewGuard builds both machine definitions.
func NewGuard() *Guard {
	return &Guard{
		document: buildDocumentMachine(),
		revision: buildRevisionMachine(),
	}
}

func buildDocumentMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()

	b.State(string(models.DocumentStatusDraft)).Initial().
		To(string(models.DocumentStatusInReview)).On(string(EventSubmit)).
		To(string(models.DocumentStatusApproved)).On(string(EventApprove)).
		To(string(models.DocumentStatusObsolete)).On(string(EventObsolete))

	b.State(string(models.DocumentStatusInReview)).
		To(string(models.DocumentStatusApproved)).On(string(EventApprove)).
		To(string(models.DocumentStatusObsolete)).On(string(EventObsolete))

	// Approved documents re-enter review when a new revision is submitted;
	// approve is accepted again when a further revision is published.
	b.State(string(models.DocumentStatusApproved)).
		To(string(models.DocumentStatusInReview)).On(string(EventSubmit)).
		To(string(models.DocumentStatusApproved)).On(string(EventApprove)).
		To(string(models.DocumentStatusObsolete)).On(string(EventObsolete))

	b.State(string(models.DocumentStatusObsolete)).Final()

	return b.Build()
}

func buildRevisionMachine() fluo.MachineDefinition {
	b := fluo.NewMachine()

	b.State(string(models.RevisionStatusDraft)).Initial().
		To(string(models.RevisionStatusInReview)).On(string(EventSubmit)).
		To(string(models.RevisionStatusCurrent)).On(string(EventApprove)).
		To(string(models.RevisionStatusRejected)).On(string(EventReject))

	b.State(string(models.RevisionStatusInReview)).
		To(string(models.RevisionStatusCurrent)).On(string(EventApprove)).
		To(string(models.RevisionStatusRejected)).On(string(EventReject))

	// Current revisions leave only by being superseded.
	b.State(string(models.RevisionStatusCurrent)).
		To(string(models.RevisionStatusObsolete)).On(string(EventSupersede))

	b.State(string(models.RevisionStatusRejected)).Final()
	b.State(string(models.RevisionStatusObsolete)).Final()

	return b.Build()
}

// Document fires event against a document in status from and returns the
// resulting status, or Conflict if the transition is illegal.
func (g *Guard) Document(from models.DocumentStatus, event Event) (models.DocumentStatus, error) {
	to, err := fire(g.document, string(from), event, "document")
	if err != nil {
		return "", err
	}
	return models.DocumentStatus(to), nil
}

// Revision fires event against a revision in status from and returns the
// resulting status, or Conflict if the transition is illegal.
func (g *Guard) Revision(from models.RevisionStatus, event Event) (models.RevisionStatus, error) {
	to, err := fire(g.revision, string(from), event, "revision")
	if err != nil {
		return "", err
	}
	return models.RevisionStatus(to), nil
}

func fire(def fluo.MachineDefinition, from string, event Event, kind string) (string, error) {
	m := def.CreateInstance()
	if err := m.Start(); err != nil {
		return "", fmt.Errorf("start %s machine: %w", kind, err)
	}
	if err := m.SetState(from); err != nil {
		return "", fmt.Errorf("unknown %s status %q: %w", kind, from, err)
	}

	// Self-transitions (approved document re-approved on a newer revision)
	// are processed without a state change, so only Processed is checked.
	result := m.HandleEvent(string(event), nil)
	if !result.Processed {
		return "", &domain.ConflictError{
			Message:      fmt.Sprintf("%s in status %q cannot %s", kind, from, event),
			ResourceType: kind,
		}
	}

	return result.CurrentState, nil
}
