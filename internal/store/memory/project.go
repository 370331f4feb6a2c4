package memory

import (
	"context"
	"sort"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// CreateProject inserts a project with its initial members and columns.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return store.ErrDuplicate
	}
	cp := cloneProject(p)
	s.members[p.ID] = append([]models.Member(nil), cp.Members...)
	s.columns[p.ID] = append([]models.Column(nil), cp.Columns...)
	cp.Members, cp.Columns = nil, nil
	s.projects[p.ID] = cp
	return nil
}

// GetProject returns a project with members and columns loaded.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := cloneProject(p)
	cp.Members = append([]models.Member(nil), s.members[id]...)
	cp.Columns = append([]models.Column(nil), s.columns[id]...)
	return cp, nil
}

// ListProjectsForUser returns every project the user is a member of.
func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for id, p := range s.projects {
		for _, m := range s.members[id] {
			if m.UserID == userID {
				out = append(out, cloneProject(p))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateProject replaces a project's scalar fields and settings.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := cloneProject(p)
	cp.Members, cp.Columns = nil, nil
	s.projects[p.ID] = cp
	return nil
}

// DeleteProject removes a project and cascades to its tasks and children.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.projects, id)
	delete(s.members, id)
	delete(s.columns, id)
	delete(s.activities, id)
	delete(s.webhooks, id)
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, tid)
		}
	}
	return nil
}

// GetMember returns the membership record for (projectID, userID).
func (s *Store) GetMember(ctx context.Context, projectID, userID string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members[projectID] {
		if m.UserID == userID {
			cp := m
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// ListMembers returns all members of a project.
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Member(nil), s.members[projectID]...), nil
}

// AddMember appends a membership record.
func (s *Store) AddMember(ctx context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[m.ProjectID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range s.members[m.ProjectID] {
		if existing.UserID == m.UserID {
			return store.ErrDuplicate
		}
	}
	s.members[m.ProjectID] = append(s.members[m.ProjectID], *m)
	return nil
}

// UpdateMemberRole changes a member's role.
func (s *Store) UpdateMemberRole(ctx context.Context, projectID, userID string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.members[projectID]
	for i := range list {
		if list[i].UserID == userID {
			list[i].Role = role
			return nil
		}
	}
	return store.ErrNotFound
}

// RemoveMember deletes a membership record.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.members[projectID]
	for i := range list {
		if list[i].UserID == userID {
			s.members[projectID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// SetColumns replaces a project's column list.
func (s *Store) SetColumns(ctx context.Context, projectID string, cols []models.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return store.ErrNotFound
	}
	s.columns[projectID] = append([]models.Column(nil), cols...)
	return nil
}
