package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// NotificationService exposes a user's notification feed.
type NotificationService struct {
	notifications store.NotificationStore
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications store.NotificationStore) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the principal's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal *models.User, unreadOnly bool) ([]*models.Notification, error) {
	out, err := s.notifications.ListNotifications(ctx, principal.ID, unreadOnly)
	if err != nil {
		return nil, apperr.Internal("list notifications", err)
	}
	return out, nil
}

// MarkRead marks one of the principal's notifications read.
func (s *NotificationService) MarkRead(ctx context.Context, principal *models.User, id string) error {
	if err := s.notifications.MarkNotificationRead(ctx, id, principal.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("notification not found")
		}
		return apperr.Internal("mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the principal read.
func (s *NotificationService) MarkAllRead(ctx context.Context, principal *models.User) error {
	if err := s.notifications.MarkAllNotificationsRead(ctx, principal.ID); err != nil {
		return apperr.Internal("mark notifications read", err)
	}
	return nil
}

// WebhookService manages per-project webhook registrations (admin level).
type WebhookService struct {
	webhooks store.WebhookStore
	projects store.ProjectStore
	guard    *authz.Guard
}

// NewWebhookService creates a WebhookService.
func NewWebhookService(webhooks store.WebhookStore, projects store.ProjectStore, guard *authz.Guard) *WebhookService {
	return &WebhookService{webhooks: webhooks, projects: projects, guard: guard}
}

// Create registers a webhook URL for a project.
func (s *WebhookService) Create(ctx context.Context, principal *models.User, projectID, url, secret string) (*models.Webhook, error) {
	if url == "" {
		return nil, apperr.Validation("url is required")
	}
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("load project", err)
	}
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return nil, err
	}
	w := &models.Webhook{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		URL:       url,
		Secret:    secret,
	}
	if err := s.webhooks.CreateWebhook(ctx, w); err != nil {
		return nil, apperr.Internal("create webhook", err)
	}
	return w, nil
}

// List returns a project's webhook registrations.
func (s *WebhookService) List(ctx context.Context, principal *models.User, projectID string) ([]*models.Webhook, error) {
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return nil, err
	}
	out, err := s.webhooks.ListWebhooks(ctx, projectID)
	if err != nil {
		return nil, apperr.Internal("list webhooks", err)
	}
	return out, nil
}

// Delete removes a webhook registration.
func (s *WebhookService) Delete(ctx context.Context, principal *models.User, projectID, id string) error {
	if _, err := s.guard.Authorize(ctx, principal.ID, projectID, authz.LevelAdmin); err != nil {
		return err
	}
	if err := s.webhooks.DeleteWebhook(ctx, projectID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("webhook not found")
		}
		return apperr.Internal("delete webhook", err)
	}
	return nil
}
