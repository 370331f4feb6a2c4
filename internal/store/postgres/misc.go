package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// CreateUser inserts a user; duplicate emails map to ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err))
	}
	return nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// CreateToken inserts an API token; only the hash is stored.
func (s *Store) CreateToken(ctx context.Context, t *models.APIToken, hash string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_tokens (id, user_id, name, token_hash, expires_at, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.Name, hash, t.ExpiresAt, t.LastUsedAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token: %w", mapErr(err))
	}
	return nil
}

// GetTokenByHash resolves a token hash to its record.
func (s *Store) GetTokenByHash(ctx context.Context, hash string) (*models.APIToken, error) {
	var t models.APIToken
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, expires_at, last_used_at, created_at
		FROM api_tokens WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.Name, &t.ExpiresAt, &t.LastUsedAt, &t.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

// DeleteToken removes an API token.
func (s *Store) DeleteToken(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreateNotification inserts a notification.
func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, read, read_at, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message, n.Read, n.ReadAt, data, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapErr(err))
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error) {
	q := `SELECT id, recipient_id, sender_id, type, title, message, read, read_at, data, created_at
		FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		q += ` AND NOT read`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title,
			&n.Message, &n.Read, &n.ReadAt, &data, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, fmt.Errorf("unmarshal notification data: %w", err)
			}
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkNotificationRead marks one of the user's notifications read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = now()
		WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the user read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = now()
		WHERE recipient_id = $1 AND NOT read`, userID)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// AppendActivity inserts an activity-log entry.
func (s *Store) AppendActivity(ctx context.Context, a *models.Activity) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO activity_logs (id, project_id, user_id, action, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.ProjectID, a.UserID, a.Action, a.Description, meta, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity: %w", mapErr(err))
	}
	return nil
}

// ListActivity returns a project's newest activity entries.
func (s *Store) ListActivity(ctx context.Context, projectID string, limit int) ([]*models.Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, user_id, action, description, metadata, created_at
		FROM activity_logs WHERE project_id = $1
		ORDER BY created_at DESC LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("select activity: %w", err)
	}
	defer rows.Close()

	var out []*models.Activity
	for rows.Next() {
		var a models.Activity
		var meta []byte
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Action,
			&a.Description, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &a.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
			}
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// CreateWebhook inserts a webhook registration.
func (s *Store) CreateWebhook(ctx context.Context, w *models.Webhook) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project_webhooks (id, project_id, url, secret, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		w.ID, w.ProjectID, w.URL, w.Secret)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", mapErr(err))
	}
	return nil
}

// ListWebhooks returns a project's webhook registrations.
func (s *Store) ListWebhooks(ctx context.Context, projectID string) ([]*models.Webhook, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, url, secret, created_at
		FROM project_webhooks WHERE project_id = $1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select webhooks: %w", err)
	}
	defer rows.Close()

	var out []*models.Webhook
	for rows.Next() {
		var w models.Webhook
		if err := rows.Scan(&w.ID, &w.ProjectID, &w.URL, &w.Secret, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// DeleteWebhook removes a webhook registration.
func (s *Store) DeleteWebhook(ctx context.Context, projectID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM project_webhooks WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
