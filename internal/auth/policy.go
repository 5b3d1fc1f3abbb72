package auth

import (
	"fmt"
	"os"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"

	"gopkg.in/yaml.v3"
)

// Action is a privileged operation gated by the policy.
type Action string

const (
	ActionManageCategories Action = "categories.manage"
	ActionCreateDocument   Action = "documents.create"
	ActionEditDocument     Action = "documents.edit"
	ActionDeleteDocument   Action = "documents.delete"
	ActionObsoleteDocument Action = "documents.obsolete"
	ActionUploadRevision   Action = "revisions.upload"
	ActionApproveRevision  Action = "revisions.approve"
	ActionDistribute       Action = "distributions.manage"
)

// Policy is the single permission-evaluation point consumed by the services.
// Role logic lives here rather than being re-derived per operation.
type Policy interface {
	// Require returns ErrForbidden when the actor's role does not permit
	// the action.
	Require(actor models.Actor, action Action) error
}

// RolePolicy evaluates permissions from a role -> actions table.
type RolePolicy struct {
	grants map[models.Role]map[Action]bool
}

// defaultGrants is the built-in permission table. Admin is handled
// implicitly: it is allowed everything.
var defaultGrants = map[models.Role][]Action{
	models.RoleQuality: {
		ActionCreateDocument,
		ActionEditDocument,
		ActionObsoleteDocument,
		ActionUploadRevision,
		ActionApproveRevision,
		ActionDistribute,
	},
	models.RoleUser: {
		ActionCreateDocument,
		ActionEditDocument,
		ActionUploadRevision,
	},
}

// NewRolePolicy builds the policy from the built-in table, optionally
// overridden by a YAML file of the shape:
//
//	quality:
//	  - revisions.approve
//	  - distributions.manage
//	user:
//	  - documents.create
func NewRolePolicy(policyFile string) (*RolePolicy, error) {
	table := defaultGrants

	if policyFile != "" {
		data, err := os.ReadFile(policyFile)
		if err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}

		var override map[models.Role][]Action
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("parse policy file: %w", err)
		}
		table = override
	}

	grants := make(map[models.Role]map[Action]bool, len(table))
	for role, actions := range table {
		set := make(map[Action]bool, len(actions))
		for _, a := range actions {
			set[a] = true
		}
		grants[role] = set
	}

	return &RolePolicy{grants: grants}, nil
}

// Require implements Policy.
func (p *RolePolicy) Require(actor models.Actor, action Action) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if p.grants[actor.Role][action] {
		return nil
	}
	return &domain.ForbiddenError{
		Message: fmt.Sprintf("role %q may not perform %q", actor.Role, action),
	}
}
