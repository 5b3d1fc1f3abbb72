package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
)

func TestDefaultPolicy(t *testing.T) {
	policy, err := NewRolePolicy("")
	if err != nil {
		t.Fatalf("NewRolePolicy: %v", err)
	}

	tests := []struct {
		name    string
		role    models.Role
		action  Action
		allowed bool
	}{
		{"admin manages categories", models.RoleAdmin, ActionManageCategories, true},
		{"admin approves", models.RoleAdmin, ActionApproveRevision, true},
		{"quality approves", models.RoleQuality, ActionApproveRevision, true},
		{"quality distributes", models.RoleQuality, ActionDistribute, true},
		{"quality cannot manage categories", models.RoleQuality, ActionManageCategories, false},
		{"quality cannot delete", models.RoleQuality, ActionDeleteDocument, false},
		{"user creates documents", models.RoleUser, ActionCreateDocument, true},
		{"user uploads revisions", models.RoleUser, ActionUploadRevision, true},
		{"user cannot approve", models.RoleUser, ActionApproveRevision, false},
		{"user cannot distribute", models.RoleUser, ActionDistribute, false},
		{"user cannot obsolete", models.RoleUser, ActionObsoleteDocument, false},
		{"unknown role denied", models.Role("guest"), ActionCreateDocument, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Require(models.Actor{ID: "u", Role: tt.role}, tt.action)
			if tt.allowed && err != nil {
				t.Errorf("Require(%s, %s) = %v, want allowed", tt.role, tt.action, err)
			}
			if !tt.allowed {
				if !errors.Is(err, domain.ErrForbidden) {
					t.Errorf("Require(%s, %s) = %v, want Forbidden", tt.role, tt.action, err)
				}
			}
		})
	}
}

func TestPolicyFileOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "policy.yaml")
	content := []byte("user:\n  - revisions.approve\n")
	if err := os.WriteFile(file, content, 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	policy, err := NewRolePolicy(file)
	if err != nil {
		t.Fatalf("NewRolePolicy: %v", err)
	}

	// The override replaces the built-in table entirely
	if err := policy.Require(models.Actor{ID: "u", Role: models.RoleUser}, ActionApproveRevision); err != nil {
		t.Errorf("overridden user approve = %v, want allowed", err)
	}
	if err := policy.Require(models.Actor{ID: "u", Role: models.RoleUser}, ActionCreateDocument); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unlisted action after override = %v, want Forbidden", err)
	}
	if err := policy.Require(models.Actor{ID: "q", Role: models.RoleQuality}, ActionApproveRevision); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("quality after override = %v, want Forbidden", err)
	}

	// Admin stays implicitly allowed
	if err := policy.Require(models.Actor{ID: "a", Role: models.RoleAdmin}, ActionManageCategories); err != nil {
		t.Errorf("admin after override = %v, want allowed", err)
	}
}

func TestPolicyFileMissing(t *testing.T) {
	if _, err := NewRolePolicy("/nonexistent/policy.yaml"); err == nil {
		t.Fatal("NewRolePolicy with missing file = nil error, want error")
	}
}
