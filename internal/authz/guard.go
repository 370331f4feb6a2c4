// Package authz implements the board authorization guard: project membership
// roles (viewer, member, admin, owner) checked against required access
// levels (read, write, admin) through a casbin enforcer.
package authz

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v3"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

//go:embed model.conf policy.csv
var embedFS embed.FS

// Level is the access level an operation requires.
type Level string

const (
	LevelRead  Level = "read"
	LevelWrite Level = "write"
	LevelAdmin Level = "admin"
)

// Guard authorizes principals against a project's membership records.
type Guard struct {
	enforcer *casbin.Enforcer
	projects store.ProjectStore
}

// NewGuard creates a Guard from the embedded model and policy.
func NewGuard(projects store.ProjectStore) (*Guard, error) {
	dir, err := os.MkdirTemp("", "worknest-casbin-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"model.conf", "policy.csv"} {
		data, err := embedFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return nil, err
		}
	}

	enforcer, err := casbin.NewEnforcer(filepath.Join(dir, "model.conf"), filepath.Join(dir, "policy.csv"))
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	return &Guard{enforcer: enforcer, projects: projects}, nil
}

// Authorize returns the principal's membership record when its role grants
// the required level, and an authorization error otherwise. A principal with
// no membership record is denied at every level.
func (g *Guard) Authorize(ctx context.Context, userID, projectID string, level Level) (*models.Member, error) {
	member, err := g.projects.GetMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Authorization("not a member of this project")
		}
		return nil, apperr.Internal("check project membership", err)
	}

	allowed, err := g.enforcer.Enforce(string(member.Role), string(level))
	if err != nil {
		return nil, apperr.Internal("enforce project role", err)
	}
	if !allowed {
		return nil, apperr.Authorization(fmt.Sprintf("role %s does not grant %s access", member.Role, level))
	}
	return member, nil
}

// CanJoin re-validates that the principal may read the project. The realtime
// channel calls this at join-project time, not just at handshake, because
// membership can change while a socket stays connected.
func (g *Guard) CanJoin(ctx context.Context, userID, projectID string) error {
	_, err := g.Authorize(ctx, userID, projectID, LevelRead)
	return err
}
