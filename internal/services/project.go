package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// ProjectService handles project, membership, and column operations.
type ProjectService struct {
	projects store.ProjectStore
	users    store.UserStore
	activity store.ActivityStore
	guard    *authz.Guard
	log      *logger.Logger
}

// NewProjectService creates a ProjectService. The guard is set after
// construction because it needs the project store itself.
func NewProjectService(projects store.ProjectStore, users store.UserStore, activity store.ActivityStore, log *logger.Logger) *ProjectService {
	return &ProjectService{projects: projects, users: users, activity: activity, log: log}
}

// SetGuard wires the authorization guard.
func (s *ProjectService) SetGuard(g *authz.Guard) { s.guard = g }

// Create creates a project; the creator becomes its single owner member and
// the default three-column board is installed.
func (s *ProjectService) Create(ctx context.Context, creator *models.User, title, description, workspace string) (*models.Project, error) {
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	now := time.Now()
	p := &models.Project{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Workspace:   workspace,
		OwnerID:     creator.ID,
		Settings:    models.DefaultProjectSettings(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Members: []models.Member{{
			ID:        uuid.New().String(),
			UserID:    creator.ID,
			Role:      models.RoleOwner,
			JoinedAt:  now,
		}},
		Columns: models.DefaultColumns(),
	}
	for i := range p.Members {
		p.Members[i].ProjectID = p.ID
	}
	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, apperr.Internal("create project", err)
	}
	return s.Get(ctx, creator, p.ID)
}

// Get returns a project the principal can read.
func (s *ProjectService) Get(ctx context.Context, principal *models.User, projectID string) (*models.Project, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("load project", err)
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelRead); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the principal's projects.
func (s *ProjectService) List(ctx context.Context, principal *models.User) ([]*models.Project, error) {
	projects, err := s.projects.ListProjectsForUser(ctx, principal.ID)
	if err != nil {
		return nil, apperr.Internal("list projects", err)
	}
	return projects, nil
}

// UpdateProjectInput is the allow-listed project update payload.
type UpdateProjectInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Workspace   *string `json:"workspace"`
}

// Update applies the supplied fields (admin level).
func (s *ProjectService) Update(ctx context.Context, principal *models.User, projectID string, in UpdateProjectInput) (*models.Project, error) {
	p, err := s.Get(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return nil, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Workspace != nil {
		p.Workspace = *in.Workspace
	}
	p.UpdatedAt = time.Now()
	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return nil, apperr.Internal("update project", err)
	}
	return s.Get(ctx, principal, projectID)
}

// UpdateSettings replaces the project feature toggles (admin level).
func (s *ProjectService) UpdateSettings(ctx context.Context, principal *models.User, projectID string, settings models.ProjectSettings) (*models.Project, error) {
	p, err := s.Get(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return nil, err
	}
	p.Settings = settings
	p.UpdatedAt = time.Now()
	if err := s.projects.UpdateProject(ctx, p); err != nil {
		return nil, apperr.Internal("update project settings", err)
	}
	return s.Get(ctx, principal, projectID)
}

// Delete removes a project and everything it owns (admin level).
func (s *ProjectService) Delete(ctx context.Context, principal *models.User, projectID string) error {
	if _, err := s.Get(ctx, principal, projectID); err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return err
	}
	if err := s.projects.DeleteProject(ctx, projectID); err != nil {
		return apperr.Internal("delete project", err)
	}
	return nil
}

// AddMember adds a user to the project (admin level). The owner role cannot
// be granted this way.
func (s *ProjectService) AddMember(ctx context.Context, principal *models.User, projectID, userID string, role models.Role) (*models.Member, error) {
	if _, err := s.Get(ctx, principal, projectID); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return nil, err
	}
	if !models.ValidRole(role) || role == models.RoleOwner {
		return nil, apperr.Validation("invalid member role")
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("load user", err)
	}

	m := &models.Member{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	if err := s.projects.AddMember(ctx, m); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Validation("user is already a member")
		}
		return nil, apperr.Internal("add member", err)
	}

	bestEffort(s.log, "activity log", func() error {
		return s.activity.AppendActivity(ctx, &models.Activity{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			UserID:      principal.ID,
			Action:      models.ActivityMemberAdded,
			Description: "added a member to the project",
			Metadata:    map[string]string{"member_id": userID},
			CreatedAt:   time.Now(),
		})
	})
	return m, nil
}

// UpdateMemberRole changes a member's role (admin level). The owner's role is
// never reassigned through this operation, and no one can be promoted to
// owner by it.
func (s *ProjectService) UpdateMemberRole(ctx context.Context, principal *models.User, projectID, userID string, role models.Role) error {
	p, err := s.Get(ctx, principal, projectID)
	if err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return err
	}
	if !models.ValidRole(role) || role == models.RoleOwner {
		return apperr.Validation("invalid member role")
	}
	if userID == p.OwnerID {
		return apperr.Validation("the project owner's role cannot be changed")
	}
	if err := s.projects.UpdateMemberRole(ctx, projectID, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("member not found")
		}
		return apperr.Internal("update member role", err)
	}
	return nil
}

// RemoveMember removes a member (admin level); the owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, principal *models.User, projectID, userID string) error {
	p, err := s.Get(ctx, principal, projectID)
	if err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return err
	}
	if userID == p.OwnerID {
		return apperr.Validation("the project owner cannot be removed")
	}
	if err := s.projects.RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("member not found")
		}
		return apperr.Internal("remove member", err)
	}

	bestEffort(s.log, "activity log", func() error {
		return s.activity.AppendActivity(ctx, &models.Activity{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			UserID:      principal.ID,
			Action:      models.ActivityMemberRemoved,
			Description: "removed a member from the project",
			Metadata:    map[string]string{"member_id": userID},
			CreatedAt:   time.Now(),
		})
	})
	return nil
}

// SetColumns replaces the board column order (write level). The column
// task-id lists are advisory display state; task status is authoritative.
func (s *ProjectService) SetColumns(ctx context.Context, principal *models.User, projectID string, cols []models.Column) error {
	if _, err := s.Get(ctx, principal, projectID); err != nil {
		return err
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelWrite); err != nil {
		return err
	}
	for i := range cols {
		if cols[i].ID == "" || cols[i].Title == "" {
			return apperr.Validation("columns require an id and a title")
		}
		cols[i].Position = i
	}
	if err := s.projects.SetColumns(ctx, projectID, cols); err != nil {
		return apperr.Internal("set columns", err)
	}
	return nil
}

// Activity returns a project's recent activity (read level).
func (s *ProjectService) Activity(ctx context.Context, principal *models.User, projectID string, limit int) ([]*models.Activity, error) {
	if _, err := s.Get(ctx, principal, projectID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.activity.ListActivity(ctx, projectID, limit)
	if err != nil {
		return nil, apperr.Internal("list activity", err)
	}
	return entries, nil
}
