// Package authz answers role questions with a Casbin RBAC model.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

const (
	ObjCatalog = "catalog"
	ObjReview  = "review"
	ObjComment = "comment"
	ObjProfile = "profile"
	ObjUsers   = "users"
)

const (
	ActRead     = "read"
	ActWrite    = "write"
	ActModerate = "moderate"
	ActManage   = "manage"
)

// Actor is the caller a decision is made for. ID is zero for anonymous callers.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) Authenticated() bool {
	return a.ID != 0
}

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: enforcer}, nil
}

func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role may perform act on obj. Errors deny.
func (e *Enforcer) Allowed(role, obj, act string) bool {
	if role == "" {
		role = RoleAnonymous
	}
	ok, err := e.enforcer.Enforce(role, obj, act)
	return err == nil && ok
}

// IsAdministrator reports whether role may manage users and the catalogue.
func (e *Enforcer) IsAdministrator(role string) bool {
	return e.Allowed(role, ObjUsers, ActManage)
}

// IsModerator reports whether role belongs to staff. Administrators are staff.
func (e *Enforcer) IsModerator(role string) bool {
	return e.Allowed(role, ObjReview, ActModerate)
}

// CanModify reports whether actor may change or delete an object written by authorID.
func (e *Enforcer) CanModify(actor Actor, obj string, authorID int64) bool {
	if !actor.Authenticated() {
		return false
	}
	if actor.ID == authorID && e.Allowed(actor.Role, obj, ActWrite) {
		return true
	}
	return e.Allowed(actor.Role, obj, ActModerate)
}
