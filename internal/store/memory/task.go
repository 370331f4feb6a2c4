package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return store.ErrDuplicate
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

// GetTask returns a task with its sub-entities.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTask(t), nil
}

// GetTasks returns the tasks for the given IDs, skipping missing ones.
func (s *Store) GetTasks(ctx context.Context, ids []string) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

// ListTasks returns a filtered, paginated task page for a project.
func (s *Store) ListTasks(ctx context.Context, projectID string, f store.TaskFilter) (*store.TaskPage, error) {
	f.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Task
	for _, t := range s.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if !matchesFilter(t, f) {
			continue
		}
		matched = append(matched, cloneTask(t))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (f.Page - 1) * f.PageSize
	if start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}
	return &store.TaskPage{Tasks: matched[start:end], Total: total}, nil
}

func matchesFilter(t *models.Task, f store.TaskFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.AssigneeID != "" {
		if t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.DueFrom != nil {
		if t.DueDate == nil || t.DueDate.Before(*f.DueFrom) {
			return false
		}
	}
	if f.DueTo != nil {
		if t.DueDate == nil || t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// UpdateTask replaces a task's scalar fields; sub-entity lists are managed by
// their own operations and preserved.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok {
		return store.ErrNotFound
	}
	cp := cloneTask(t)
	cp.Comments = cur.Comments
	cp.Attachments = cur.Attachments
	cp.Dependencies = cur.Dependencies
	s.tasks[t.ID] = cp
	return nil
}

// DeleteTask hard-deletes a task and its owned sub-entities.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// MaxDisplaySeq scans display IDs under prefix and returns the highest suffix.
func (s *Store) MaxDisplaySeq(ctx context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, t := range s.tasks {
		rest, ok := strings.CutPrefix(t.DisplayID, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// AddComment appends a comment to its task.
func (s *Store) AddComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[c.TaskID]
	if !ok {
		return store.ErrNotFound
	}
	t.Comments = append(t.Comments, *c)
	return nil
}

// AddAttachment appends an attachment record to its task.
func (s *Store) AddAttachment(ctx context.Context, a *models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[a.TaskID]
	if !ok {
		return store.ErrNotFound
	}
	t.Attachments = append(t.Attachments, *a)
	return nil
}

// GetAttachment returns one attachment record of a task.
func (s *Store) GetAttachment(ctx context.Context, taskID, attachmentID string) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for i := range t.Attachments {
		if t.Attachments[i].ID == attachmentID {
			a := t.Attachments[i]
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

// RemoveAttachment deletes an attachment record from a task.
func (s *Store) RemoveAttachment(ctx context.Context, taskID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	for i := range t.Attachments {
		if t.Attachments[i].ID == attachmentID {
			t.Attachments = append(t.Attachments[:i], t.Attachments[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// AddDependency appends a dependency edge, rejecting duplicates to the same
// target.
func (s *Store) AddDependency(ctx context.Context, d *models.Dependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[d.TaskID]
	if !ok {
		return store.ErrNotFound
	}
	for _, existing := range t.Dependencies {
		if existing.DependsOn == d.DependsOn {
			return store.ErrDuplicate
		}
	}
	t.Dependencies = append(t.Dependencies, *d)
	return nil
}

// RemoveDependency deletes a dependency edge from a task.
func (s *Store) RemoveDependency(ctx context.Context, taskID, dependencyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	for i := range t.Dependencies {
		if t.Dependencies[i].ID == dependencyID {
			t.Dependencies = append(t.Dependencies[:i], t.Dependencies[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// Increment atomically bumps the counter for prefix, creating it at 1.
func (s *Store) Increment(ctx context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return s.counters[prefix], nil
}

// FastForward raises the counter to at least seq and returns the stored value.
func (s *Store) FastForward(ctx context.Context, prefix string, seq int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters[prefix] < seq {
		s.counters[prefix] = seq
	}
	return s.counters[prefix], nil
}
