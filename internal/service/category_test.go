package service

import (
	"context"
	"errors"
	"testing"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/domain/services"
)

type catFixture struct {
	catRepo *fakeCategoryRepo
	docRepo *fakeDocumentRepo
	service services.CategoryService
	actor   models.Actor
}

func newCatFixture(t *testing.T) *catFixture {
	t.Helper()

	catRepo := newFakeCategoryRepo()
	docRepo := newFakeDocumentRepo()
	catRepo.docs = docRepo

	return &catFixture{
		catRepo: catRepo,
		docRepo: docRepo,
		service: NewCategoryService(catRepo, allowAllPolicy{}, testLogger()),
		actor:   models.Actor{ID: "admin-1", Role: models.RoleAdmin},
	}
}

func (f *catFixture) create(t *testing.T, name string, parentID *string) *models.Category {
	t.Helper()
	cat, err := f.service.Create(context.Background(), &services.CreateCategoryRequest{
		Name:     name,
		ParentID: parentID,
		Actor:    f.actor,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return cat
}

func TestCreateCategory(t *testing.T) {
	f := newCatFixture(t)

	cat := f.create(t, "Procedures", nil)

	if !cat.Active {
		t.Error("new category not active")
	}
	if cat.ParentID != nil {
		t.Errorf("parent_id = %v, want nil for top level", cat.ParentID)
	}

	child := f.create(t, "Calibration", &cat.ID)
	if child.ParentID == nil || *child.ParentID != cat.ID {
		t.Errorf("child parent_id = %v, want %s", child.ParentID, cat.ID)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	f := newCatFixture(t)

	_, err := f.service.Create(context.Background(), &services.CreateCategoryRequest{
		Name:  "",
		Actor: f.actor,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("empty name error = %v, want Validation", err)
	}
}

func TestCreateCategoryMissingParent(t *testing.T) {
	f := newCatFixture(t)
	missing := "cat-999"

	_, err := f.service.Create(context.Background(), &services.CreateCategoryRequest{
		Name:     "Orphan",
		ParentID: &missing,
		Actor:    f.actor,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing parent error = %v, want NotFound", err)
	}
}

func TestUpdateCategoryCycleRejected(t *testing.T) {
	f := newCatFixture(t)
	a := f.create(t, "A", nil)
	b := f.create(t, "B", &a.ID)
	c := f.create(t, "C", &b.ID)

	// Moving A under its own grandchild closes a cycle
	_, err := f.service.Update(context.Background(), a.ID, &services.UpdateCategoryRequest{
		ParentID: &c.ID,
		Actor:    f.actor,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("cycle-introducing update error = %v, want Validation", err)
	}

	// Self-parent is the degenerate cycle
	_, err = f.service.Update(context.Background(), a.ID, &services.UpdateCategoryRequest{
		ParentID: &a.ID,
		Actor:    f.actor,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("self-parent update error = %v, want Validation", err)
	}
}

func TestUpdateCategoryMoveToTopLevel(t *testing.T) {
	f := newCatFixture(t)
	a := f.create(t, "A", nil)
	b := f.create(t, "B", &a.ID)

	empty := ""
	got, err := f.service.Update(context.Background(), b.ID, &services.UpdateCategoryRequest{
		ParentID: &empty,
		Actor:    f.actor,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("parent_id = %v, want nil after move to top level", got.ParentID)
	}
}

func TestDeleteCategoryWithChildrenConflicts(t *testing.T) {
	f := newCatFixture(t)
	a := f.create(t, "A", nil)
	f.create(t, "B", &a.ID)

	err := f.service.Delete(context.Background(), a.ID, f.actor)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("delete with children error = %v, want Conflict", err)
	}
}

func TestDeleteCategoryWithDocumentsConflicts(t *testing.T) {
	f := newCatFixture(t)
	cat := f.create(t, "Procedures", nil)

	doc := &models.Document{
		Code:       "CAL-001",
		Title:      "T",
		CategoryID: cat.ID,
		Status:     models.DocumentStatusDraft,
		CreatedBy:  "user-1",
	}
	if err := f.docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	err := f.service.Delete(context.Background(), cat.ID, f.actor)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("delete with documents error = %v, want Conflict", err)
	}

	// Once the document is gone the category can be deleted
	if err := f.docRepo.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("delete document: %v", err)
	}
	if err := f.service.Delete(context.Background(), cat.ID, f.actor); err != nil {
		t.Fatalf("delete empty category: %v", err)
	}
}

func TestListCategoriesActiveOnly(t *testing.T) {
	f := newCatFixture(t)
	f.create(t, "Active", nil)
	b := f.create(t, "Retired", nil)

	inactive := false
	if _, err := f.service.Update(context.Background(), b.ID, &services.UpdateCategoryRequest{
		Active: &inactive,
		Actor:  f.actor,
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := f.service.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("full list has %d categories, want 2", len(all))
	}

	active, err := f.service.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List(active): %v", err)
	}
	if len(active) != 1 || active[0].Name != "Active" {
		t.Errorf("active list = %d entries, want only Active", len(active))
	}
}

func TestCategoryPolicyDenied(t *testing.T) {
	svc := NewCategoryService(newFakeCategoryRepo(), denyAllPolicy{}, testLogger())
	actor := models.Actor{ID: "user-1", Role: models.RoleUser}

	if _, err := svc.Create(context.Background(), &services.CreateCategoryRequest{
		Name:  "X",
		Actor: actor,
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Create error = %v, want Forbidden", err)
	}
	if err := svc.Delete(context.Background(), "cat-1", actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Delete error = %v, want Forbidden", err)
	}
}
