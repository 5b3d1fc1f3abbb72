package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"qualidoc/internal/auth"
	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/repositories"
)

// In-memory repository fakes backing the service tests. They mirror the
// postgres implementations' error contracts: NotFound sentinels, Conflict on
// unique-constraint equivalents, and the conditional one-shot return.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type allowAllPolicy struct{}

func (allowAllPolicy) Require(models.Actor, auth.Action) error { return nil }

type denyAllPolicy struct{}

func (denyAllPolicy) Require(models.Actor, auth.Action) error {
	return &domain.ForbiddenError{Message: "denied"}
}

type noopNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *noopNotifier) Notify(_ context.Context, event string, _ map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// fakeTxManager gives the in-memory fakes rollback semantics: it snapshots
// the document and revision stores before running fn and restores both when
// fn fails, so a mid-transaction error leaves the fully-old state.
type fakeTxManager struct {
	docs *fakeDocumentRepo
	revs *fakeRevisionRepo
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	docSnap := m.docs.snapshot()
	revSnap := m.revs.snapshot()
	if err := fn(ctx); err != nil {
		m.docs.restore(docSnap)
		m.revs.restore(revSnap)
		return err
	}
	return nil
}

type fakeCategoryRepo struct {
	mu   sync.Mutex
	seq  int
	cats map[string]*models.Category
	docs *fakeDocumentRepo // for HasDocuments; may be nil
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{cats: make(map[string]*models.Category)}
}

func (r *fakeCategoryRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("cat-%d", r.seq)
}

func (r *fakeCategoryRepo) Create(_ context.Context, cat *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.cats {
		if existing.DeletedAt == nil && existing.Name == cat.Name {
			return &domain.ConflictError{
				Message:      "category name already in use",
				ResourceType: "category",
				ResourceID:   existing.ID,
			}
		}
	}
	cat.ID = r.nextID()
	cp := *cat
	r.cats[cat.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.cats[id]
	if !ok || cat.DeletedAt != nil {
		return nil, &domain.NotFoundError{Message: "category " + id + " not found"}
	}
	cp := *cat
	return &cp, nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, cat *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.cats[cat.ID]
	if !ok || existing.DeletedAt != nil {
		return &domain.NotFoundError{Message: "category " + cat.ID + " not found"}
	}
	cp := *cat
	r.cats[cat.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) List(_ context.Context, activeOnly bool) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Category
	for _, cat := range r.cats {
		if cat.DeletedAt != nil {
			continue
		}
		if activeOnly && !cat.Active {
			continue
		}
		out = append(out, *cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCategoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cat, ok := r.cats[id]
	if !ok || cat.DeletedAt != nil {
		return &domain.NotFoundError{Message: "category " + id + " not found"}
	}
	now := time.Now()
	cat.DeletedAt = &now
	return nil
}

func (r *fakeCategoryRepo) HasChildren(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.cats {
		if cat.DeletedAt == nil && cat.ParentID != nil && *cat.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCategoryRepo) HasDocuments(_ context.Context, id string) (bool, error) {
	if r.docs == nil {
		return false, nil
	}
	r.docs.mu.Lock()
	defer r.docs.mu.Unlock()
	for _, doc := range r.docs.docs {
		if doc.DeletedAt == nil && doc.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}

type fakeDocumentRepo struct {
	mu   sync.Mutex
	seq  int
	docs map[string]*models.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{docs: make(map[string]*models.Document)}
}

func (r *fakeDocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.docs {
		if existing.DeletedAt == nil && existing.Code == doc.Code {
			return &domain.ConflictError{
				Message:      "document code already in use",
				ResourceType: "document",
				ResourceID:   existing.ID,
			}
		}
	}
	r.seq++
	doc.ID = fmt.Sprintf("doc-%d", r.seq)
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return nil, &domain.NotFoundError{Message: "document " + id + " not found"}
	}
	cp := *doc
	return &cp, nil
}

func (r *fakeDocumentRepo) GetByCode(_ context.Context, code string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.DeletedAt == nil && doc.Code == code {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, &domain.NotFoundError{Message: "document code " + code + " not found"}
}

func (r *fakeDocumentRepo) Update(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.DeletedAt != nil {
		return &domain.NotFoundError{Message: "document " + doc.ID + " not found"}
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocumentRepo) UpdateMetadata(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.DeletedAt != nil {
		return &domain.NotFoundError{Message: "document " + doc.ID + " not found"}
	}
	// Descriptive columns only; the lifecycle mirror stays untouched
	existing.Title = doc.Title
	existing.Description = doc.Description
	existing.CategoryID = doc.CategoryID
	existing.ReviewDate = doc.ReviewDate
	existing.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *fakeDocumentRepo) snapshot() map[string]*models.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*models.Document, len(r.docs))
	for id, doc := range r.docs {
		cp := *doc
		snap[id] = &cp
	}
	return snap
}

func (r *fakeDocumentRepo) restore(snap map[string]*models.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = snap
}

func (r *fakeDocumentRepo) List(_ context.Context, filter repositories.DocumentFilter) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, doc := range r.docs {
		if doc.DeletedAt != nil {
			continue
		}
		if filter.CategoryID != "" && doc.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return &domain.NotFoundError{Message: "document " + id + " not found"}
	}
	now := time.Now()
	doc.DeletedAt = &now
	return nil
}

func (r *fakeDocumentRepo) UpdateStatus(_ context.Context, id string, status models.DocumentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.DeletedAt != nil {
		return &domain.NotFoundError{Message: "document " + id + " not found"}
	}
	doc.Status = status
	return nil
}

type fakeRevisionRepo struct {
	mu   sync.Mutex
	seq  int
	revs map[string]*models.Revision
}

func newFakeRevisionRepo() *fakeRevisionRepo {
	return &fakeRevisionRepo{revs: make(map[string]*models.Revision)}
}

func (r *fakeRevisionRepo) Create(_ context.Context, rev *models.Revision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	rev.ID = fmt.Sprintf("rev-%d", r.seq)
	cp := *rev
	r.revs[rev.ID] = &cp
	return nil
}

func (r *fakeRevisionRepo) GetByID(_ context.Context, id string) (*models.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.revs[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "revision " + id + " not found"}
	}
	cp := *rev
	return &cp, nil
}

func (r *fakeRevisionRepo) ListByDocument(_ context.Context, documentID string) ([]models.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Revision
	for _, rev := range r.revs {
		if rev.DocumentID == documentID {
			out = append(out, *rev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeRevisionRepo) MostRecent(_ context.Context, documentID string) (*models.Revision, error) {
	revs, _ := r.ListByDocument(context.Background(), documentID)
	if len(revs) == 0 {
		return nil, &domain.NotFoundError{Message: "document has no revisions"}
	}
	cp := revs[0]
	return &cp, nil
}

func (r *fakeRevisionRepo) Current(_ context.Context, documentID string) (*models.Revision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.revs {
		if rev.DocumentID == documentID && rev.Status == models.RevisionStatusCurrent {
			cp := *rev
			return &cp, nil
		}
	}
	return nil, &domain.NotFoundError{Message: "document has no current revision"}
}

func (r *fakeRevisionRepo) UpdateStatus(_ context.Context, id string, status models.RevisionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev, ok := r.revs[id]
	if !ok {
		return &domain.NotFoundError{Message: "revision " + id + " not found"}
	}
	rev.Status = status
	return nil
}

func (r *fakeRevisionRepo) Approve(_ context.Context, rev *models.Revision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.revs[rev.ID]
	if !ok {
		return &domain.NotFoundError{Message: "revision " + rev.ID + " not found"}
	}
	// Mirror the partial unique index: at most one current per document
	for _, other := range r.revs {
		if other.ID != rev.ID && other.DocumentID == rev.DocumentID && other.Status == models.RevisionStatusCurrent {
			return &domain.ConflictError{
				Message:      "document already has a current revision",
				ResourceType: "revision",
				ResourceID:   rev.ID,
			}
		}
	}
	stored.Status = rev.Status
	stored.ApprovedBy = rev.ApprovedBy
	stored.ApprovedAt = rev.ApprovedAt
	return nil
}

func (r *fakeRevisionRepo) Reject(_ context.Context, rev *models.Revision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.revs[rev.ID]
	if !ok {
		return &domain.NotFoundError{Message: "revision " + rev.ID + " not found"}
	}
	stored.Status = rev.Status
	stored.Observations = rev.Observations
	return nil
}

func (r *fakeRevisionRepo) snapshot() map[string]*models.Revision {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*models.Revision, len(r.revs))
	for id, rev := range r.revs {
		cp := *rev
		snap[id] = &cp
	}
	return snap
}

func (r *fakeRevisionRepo) restore(snap map[string]*models.Revision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revs = snap
}

func (r *fakeRevisionRepo) DemoteCurrent(_ context.Context, documentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var demoted int64
	for _, rev := range r.revs {
		if rev.DocumentID == documentID && rev.Status == models.RevisionStatusCurrent {
			rev.Status = models.RevisionStatusObsolete
			demoted++
		}
	}
	return demoted, nil
}

type fakeDistributionRepo struct {
	mu    sync.Mutex
	seq   int
	dists map[string]*models.Distribution
}

func newFakeDistributionRepo() *fakeDistributionRepo {
	return &fakeDistributionRepo{dists: make(map[string]*models.Distribution)}
}

func (r *fakeDistributionRepo) Create(_ context.Context, dist *models.Distribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirror the partial unique index on (document_id, user_id) open copies
	for _, existing := range r.dists {
		if existing.DocumentID == dist.DocumentID && existing.UserID == dist.UserID && !existing.IsReturned {
			return &domain.ConflictError{
				Message:      "user already holds an open copy of this document",
				ResourceType: "distribution",
				ResourceID:   existing.ID,
			}
		}
	}
	r.seq++
	dist.ID = fmt.Sprintf("dist-%d", r.seq)
	cp := *dist
	r.dists[dist.ID] = &cp
	return nil
}

func (r *fakeDistributionRepo) GetByID(_ context.Context, id string) (*models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dist, ok := r.dists[id]
	if !ok {
		return nil, &domain.NotFoundError{Message: "distribution " + id + " not found"}
	}
	cp := *dist
	return &cp, nil
}

func (r *fakeDistributionRepo) ListByDocument(_ context.Context, documentID string, openOnly bool) ([]models.Distribution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Distribution
	for _, dist := range r.dists {
		if dist.DocumentID != documentID {
			continue
		}
		if openOnly && dist.IsReturned {
			continue
		}
		out = append(out, *dist)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDistributionRepo) Return(_ context.Context, dist *models.Distribution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.dists[dist.ID]
	if !ok {
		return &domain.NotFoundError{Message: "distribution " + dist.ID + " not found"}
	}
	// Conditional update on is_returned = FALSE
	if stored.IsReturned {
		return &domain.ConflictError{
			Message:      "distribution already returned",
			ResourceType: "distribution",
			ResourceID:   dist.ID,
		}
	}
	stored.IsReturned = true
	stored.ReturnedAt = dist.ReturnedAt
	stored.ReturnedTo = dist.ReturnedTo
	stored.Notes = dist.Notes
	return nil
}

type fakeFileStore struct {
	mu    sync.Mutex
	seq   int
	files map[string][]byte

	saveErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (s *fakeFileStore) Save(_ context.Context, r io.Reader, filename, _ string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("file-%d_%s", s.seq, filename)
	s.files[key] = data
	return key, nil
}

func (s *fakeFileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("file %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeFileStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[key]
	return ok, nil
}

func (s *fakeFileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}
