package memory

import (
	"context"
	"sort"
	"time"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// CreateUser inserts a user, rejecting duplicate emails.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateToken stores an API token under its hash.
func (s *Store) CreateToken(ctx context.Context, t *models.APIToken, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[hash]; ok {
		return store.ErrDuplicate
	}
	cp := *t
	s.tokens[hash] = &cp
	return nil
}

// GetTokenByHash resolves a token hash.
func (s *Store) GetTokenByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

// DeleteToken removes a token by ID.
func (s *Store) DeleteToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.tokens {
		if t.ID == id {
			delete(s.tokens, hash)
			return nil
		}
	}
	return store.ErrNotFound
}

// CreateNotification inserts a notification.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.RecipientID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// MarkNotificationRead marks one of the user's notifications read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.RecipientID != userID {
		return store.ErrNotFound
	}
	now := time.Now()
	n.Read = true
	n.ReadAt = &now
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the user read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, n := range s.notifications {
		if n.RecipientID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &now
		}
	}
	return nil
}

// AppendActivity appends an activity-log entry.
func (s *Store) AppendActivity(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.activities[a.ProjectID] = append(s.activities[a.ProjectID], &cp)
	return nil
}

// ListActivity returns a project's most recent entries, newest first.
func (s *Store) ListActivity(ctx context.Context, projectID string, limit int) ([]*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.activities[projectID]
	out := make([]*models.Activity, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		cp := *entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CreateWebhook registers a project webhook.
func (s *Store) CreateWebhook(ctx context.Context, w *models.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.webhooks[w.ProjectID] = append(s.webhooks[w.ProjectID], &cp)
	return nil
}

// ListWebhooks returns a project's webhook registrations.
func (s *Store) ListWebhooks(ctx context.Context, projectID string) ([]*models.Webhook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hooks := s.webhooks[projectID]
	out := make([]*models.Webhook, 0, len(hooks))
	for _, w := range hooks {
		cp := *w
		out = append(out, &cp)
	}
	return out, nil
}

// DeleteWebhook removes a webhook registration.
func (s *Store) DeleteWebhook(ctx context.Context, projectID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hooks := s.webhooks[projectID]
	for i, w := range hooks {
		if w.ID == id {
			s.webhooks[projectID] = append(hooks[:i], hooks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
