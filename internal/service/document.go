package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"qualidoc/internal/auth"
	"qualidoc/internal/config"
	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
	"qualidoc/internal/domain/services"
	"qualidoc/internal/notify"
	"qualidoc/internal/service/lifecycle"
	"qualidoc/internal/storage"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo   repositories.DocumentRepository
	revRepo   repositories.RevisionRepository
	catRepo   repositories.CategoryRepository
	txManager repositories.TransactionManager
	guard     *lifecycle.Guard
	files     storage.FileStore
	policy    auth.Policy
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	revRepo repositories.RevisionRepository,
	catRepo repositories.CategoryRepository,
	txManager repositories.TransactionManager,
	guard *lifecycle.Guard,
	files storage.FileStore,
	policy auth.Policy,
	notifier notify.Notifier,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:   docRepo,
		revRepo:   revRepo,
		catRepo:   catRepo,
		txManager: txManager,
		guard:     guard,
		files:     files,
		policy:    policy,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateDocument creates a document in status draft with no revisions yet
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*models.Document, error) {
	if err := s.policy.Require(req.Actor, auth.ActionCreateDocument); err != nil {
		return nil, err
	}

	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	// Resolve the category first so a dangling reference surfaces as a
	// field-level validation failure, not a bare FK error
	if _, err := s.catRepo.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ValidationError{
				Message: "validation failed",
				Fields:  map[string]string{"category_id": "category does not exist"},
			}
		}
		return nil, err
	}

	now := time.Now()
	doc := &models.Document{
		Code:         strings.TrimSpace(req.Code),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		Status:       models.DocumentStatusDraft,
		CreatedBy:    req.Actor.ID,
		IsControlled: req.IsControlled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			// Duplicate code is a validation failure on the code field per
			// the form contract, not a 409
			return nil, &domain.ValidationError{
				Message: conflict.Message,
				Fields:  map[string]string{"code": "code already in use"},
			}
		}
		return nil, err
	}

	s.logger.Info("document created",
		"id", doc.ID,
		"code", doc.Code,
		"category_id", doc.CategoryID,
		"is_controlled", doc.IsControlled,
		"actor", req.Actor.ID,
	)

	s.notifier.Notify(ctx, notify.EventDocumentCreated, map[string]interface{}{
		"document_id": doc.ID,
		"code":        doc.Code,
		"actor":       req.Actor.ID,
	})

	return doc, nil
}

// GetDocument retrieves a document by id
func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, id)
}

// GetDocumentByCode retrieves a document by its unique code
func (s *documentService) GetDocumentByCode(ctx context.Context, code string) (*models.Document, error) {
	return s.docRepo.GetByCode(ctx, code)
}

// ListDocuments lists documents, hiding soft-deleted ones
func (s *documentService) ListDocuments(ctx context.Context, filter repositories.DocumentFilter) ([]models.Document, error) {
	return s.docRepo.List(ctx, filter)
}

// UpdateDocument updates document metadata. Status and version are owned by
// the revision lifecycle and are never writable here.
func (s *documentService) UpdateDocument(ctx context.Context, id string, req *services.UpdateDocumentRequest) (*models.Document, error) {
	if err := s.policy.Require(req.Actor, auth.ActionEditDocument); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title, validation.Required, validation.Length(1, config.MaxDocumentTitleLength)); err != nil {
			return nil, &domain.ValidationError{
				Message: "validation failed",
				Fields:  map[string]string{"title": err.Error()},
			}
		}
		doc.Title = title
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.CategoryID != nil {
		if _, err := s.catRepo.GetByID(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		doc.CategoryID = *req.CategoryID
	}
	if req.ReviewDate != nil {
		t, err := time.Parse(time.RFC3339, *req.ReviewDate)
		if err != nil {
			// Accept plain dates as well
			t, err = time.Parse("2006-01-02", *req.ReviewDate)
		}
		if err != nil {
			return nil, &domain.ValidationError{
				Message: "validation failed",
				Fields:  map[string]string{"review_date": "must be an RFC 3339 timestamp or YYYY-MM-DD date"},
			}
		}
		doc.ReviewDate = &t
	}

	doc.UpdatedAt = time.Now()

	// Metadata-only write: a full-row update here could race ApproveRevision
	// and push the pre-approval status and version back onto the document.
	if err := s.docRepo.UpdateMetadata(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document updated", "id", doc.ID, "actor", req.Actor.ID)

	return doc, nil
}

// DeleteDocument soft-deletes the document. Revisions and distributions stay
// readable by direct id lookup.
func (s *documentService) DeleteDocument(ctx context.Context, id string, actor models.Actor) error {
	if err := s.policy.Require(actor, auth.ActionDeleteDocument); err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted", "id", id, "actor", actor.ID)

	return nil
}

// SubmitForReview transitions a draft document to in_review
func (s *documentService) SubmitForReview(ctx context.Context, id string, actor models.Actor) (*models.Document, error) {
	if err := s.policy.Require(actor, auth.ActionEditDocument); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := s.guard.Document(doc.Status, lifecycle.EventSubmit)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	doc.Status = next

	s.logger.Info("document submitted for review", "id", id, "actor", actor.ID)

	return doc, nil
}

// MarkObsolete retires the document. Revision history is untouched and
// outstanding distributions remain open for historical tracking.
func (s *documentService) MarkObsolete(ctx context.Context, id string, actor models.Actor) (*models.Document, error) {
	if err := s.policy.Require(actor, auth.ActionObsoleteDocument); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := s.guard.Document(doc.Status, lifecycle.EventObsolete)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	doc.Status = next

	s.logger.Info("document marked obsolete", "id", id, "actor", actor.ID)

	s.notifier.Notify(ctx, notify.EventDocumentObsolete, map[string]interface{}{
		"document_id": doc.ID,
		"code":        doc.Code,
		"actor":       actor.ID,
	})

	return doc, nil
}

// UploadRevision appends a revision carrying the uploaded file. The document
// is not touched unless req.Publish is set, in which case the new revision
// goes through the same atomic approval path as ApproveRevision.
func (s *documentService) UploadRevision(ctx context.Context, req *services.UploadRevisionRequest) (*models.Revision, error) {
	if err := s.policy.Require(req.Actor, auth.ActionUploadRevision); err != nil {
		return nil, err
	}

	if err := s.validateUploadRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.Status.Terminal() {
		return nil, &domain.ConflictError{
			Message:      "cannot add revisions to an obsolete document",
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}

	key, err := s.files.Save(ctx, req.File, req.FileName, req.ContentType)
	if err != nil {
		s.logger.Error("revision file store failed", "document_id", doc.ID, "error", err)
		return nil, &domain.StorageError{Message: "failed to store revision file", Cause: err}
	}

	now := time.Now()
	rev := &models.Revision{
		DocumentID:   doc.ID,
		Version:      strings.TrimSpace(req.Version),
		RevisionDate: now,
		Status:       models.RevisionStatusDraft,
		Changes:      req.Changes,
		FilePath:     key,
		FileName:     req.FileName,
		FileType:     req.ContentType,
		FileSize:     req.FileSize,
		CreatedBy:    req.Actor.ID,
		CreatedAt:    now,
	}

	if err := s.revRepo.Create(ctx, rev); err != nil {
		// The ledger row failed; do not leak the stored file
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned revision file", "key", key, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("revision uploaded",
		"id", rev.ID,
		"document_id", doc.ID,
		"version", rev.Version,
		"size", rev.FileSize,
		"actor", req.Actor.ID,
	)

	if req.Publish {
		return s.ApproveRevision(ctx, rev.ID, req.Actor)
	}

	return rev, nil
}

// ApproveRevision promotes the revision to current, demotes any prior
// current revision to obsolete, and mirrors version/status/effective date
// onto the parent document. The writes run in a single transaction: a crash
// mid-operation leaves either the fully-old or the fully-new state.
func (s *documentService) ApproveRevision(ctx context.Context, revisionID string, actor models.Actor) (*models.Revision, error) {
	if err := s.policy.Require(actor, auth.ActionApproveRevision); err != nil {
		return nil, err
	}

	var approved *models.Revision

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		rev, err := s.revRepo.GetByID(txCtx, revisionID)
		if err != nil {
			return err
		}

		nextRev, err := s.guard.Revision(rev.Status, lifecycle.EventApprove)
		if err != nil {
			return err
		}

		doc, err := s.docRepo.GetByID(txCtx, rev.DocumentID)
		if err != nil {
			return err
		}

		nextDoc, err := s.guard.Document(doc.Status, lifecycle.EventApprove)
		if err != nil {
			return err
		}

		// Demote the previously published revision, if any
		demoted, err := s.revRepo.DemoteCurrent(txCtx, rev.DocumentID)
		if err != nil {
			return err
		}
		if demoted > 1 {
			return fmt.Errorf("document %s held %d current revisions", rev.DocumentID, demoted)
		}

		now := time.Now()
		rev.Status = nextRev
		rev.ApprovedBy = &actor.ID
		rev.ApprovedAt = &now

		if err := s.revRepo.Approve(txCtx, rev); err != nil {
			return err
		}

		// Mirror the approved revision onto the document
		doc.Status = nextDoc
		doc.Version = rev.Version
		doc.EffectiveDate = &now
		doc.ReviewedBy = &actor.ID
		doc.ReviewedAt = &now
		doc.FilePath = rev.FilePath
		doc.FileName = rev.FileName
		doc.FileType = rev.FileType
		doc.FileSize = rev.FileSize
		doc.UpdatedAt = now

		if err := s.docRepo.Update(txCtx, doc); err != nil {
			return err
		}

		approved = rev
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("revision approved",
		"id", approved.ID,
		"document_id", approved.DocumentID,
		"version", approved.Version,
		"actor", actor.ID,
	)

	s.notifier.Notify(ctx, notify.EventRevisionApproved, map[string]interface{}{
		"document_id": approved.DocumentID,
		"revision_id": approved.ID,
		"version":     approved.Version,
		"actor":       actor.ID,
	})

	return approved, nil
}

// RejectRevision terminates the revision; the parent document is untouched
func (s *documentService) RejectRevision(ctx context.Context, revisionID string, notes string, actor models.Actor) (*models.Revision, error) {
	if err := s.policy.Require(actor, auth.ActionApproveRevision); err != nil {
		return nil, err
	}

	rev, err := s.revRepo.GetByID(ctx, revisionID)
	if err != nil {
		return nil, err
	}

	next, err := s.guard.Revision(rev.Status, lifecycle.EventReject)
	if err != nil {
		return nil, err
	}

	rev.Status = next
	rev.Observations = notes

	if err := s.revRepo.Reject(ctx, rev); err != nil {
		return nil, err
	}

	s.logger.Info("revision rejected",
		"id", rev.ID,
		"document_id", rev.DocumentID,
		"actor", actor.ID,
	)

	s.notifier.Notify(ctx, notify.EventRevisionRejected, map[string]interface{}{
		"document_id": rev.DocumentID,
		"revision_id": rev.ID,
		"actor":       actor.ID,
	})

	return rev, nil
}

// ListRevisions returns the ledger for a document, most recent first
func (s *documentService) ListRevisions(ctx context.Context, documentID string) ([]models.Revision, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.revRepo.ListByDocument(ctx, documentID)
}

// MostRecentRevision returns the newest revision by creation time, which is
// not necessarily the published one.
func (s *documentService) MostRecentRevision(ctx context.Context, documentID string) (*models.Revision, error) {
	return s.revRepo.MostRecent(ctx, documentID)
}

// CurrentRevision returns the revision with status "current"
func (s *documentService) CurrentRevision(ctx context.Context, documentID string) (*models.Revision, error) {
	return s.revRepo.Current(ctx, documentID)
}

// OpenRevisionFile streams the stored file of a revision
func (s *documentService) OpenRevisionFile(ctx context.Context, revisionID string) (*models.Revision, io.ReadCloser, error) {
	rev, err := s.revRepo.GetByID(ctx, revisionID)
	if err != nil {
		return nil, nil, err
	}

	if rev.FilePath == "" {
		return nil, nil, fmt.Errorf("revision %s has no file: %w", revisionID, domain.ErrNotFound)
	}

	// A ledger row pointing at a missing object is a 404 for the caller,
	// but worth an error log since it means the store lost a file
	exists, err := s.files.Exists(ctx, rev.FilePath)
	if err != nil {
		s.logger.Error("revision file check failed", "revision_id", revisionID, "error", err)
		return nil, nil, &domain.StorageError{Message: "failed to read revision file", Cause: err}
	}
	if !exists {
		s.logger.Error("revision file missing from store", "revision_id", revisionID, "key", rev.FilePath)
		return nil, nil, fmt.Errorf("file for revision %s: %w", revisionID, domain.ErrNotFound)
	}

	rc, err := s.files.Open(ctx, rev.FilePath)
	if err != nil {
		s.logger.Error("revision file open failed", "revision_id", revisionID, "error", err)
		return nil, nil, &domain.StorageError{Message: "failed to read revision file", Cause: err}
	}

	return rev, rc, nil
}

func (s *documentService) validateCreateRequest(req *services.CreateDocumentRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Code,
			validation.Required,
			validation.Length(1, config.MaxDocumentCodeLength),
		),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		validation.Field(&req.CategoryID, validation.Required),
		validation.Field(&req.Description, validation.Length(0, config.MaxNotesLength)),
	)
	if err != nil {
		return invalidRequest(err)
	}
	return nil
}

func (s *documentService) validateUploadRequest(req *services.UploadRevisionRequest) error {
	err := validation.Errors{
		"version": validation.Validate(req.Version,
			validation.Required,
			validation.Length(1, config.MaxVersionLabelLength),
		),
		"changes": validation.Validate(req.Changes,
			validation.Length(0, config.MaxNotesLength),
		),
		"file": validation.Validate(req.FileName, validation.Required),
	}.Filter()
	if err != nil {
		return invalidRequest(err)
	}
	if req.File == nil {
		return &domain.ValidationError{
			Message: "validation failed",
			Fields:  map[string]string{"file": "file is required"},
		}
	}
	return nil
}
