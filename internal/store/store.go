// Package store defines the persistence gateway interfaces for the board
// service. Implementations: store/postgres (production) and store/memory
// (tests). Stores own CRUD and query only; all board logic lives above them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/worknest/worknest/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated.
var ErrDuplicate = errors.New("duplicate record")

// TaskFilter narrows and pages a project task listing.
type TaskFilter struct {
	Search     string // matches title or description, case-insensitive
	AssigneeID string
	Status     models.Status
	Priority   models.Priority
	DueFrom    *time.Time
	DueTo      *time.Time
	Page       int // 1-based
	PageSize   int
}

// Normalize applies paging defaults and bounds.
func (f *TaskFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 50
	}
	if f.PageSize > 200 {
		f.PageSize = 200
	}
}

// TaskPage is one page of a filtered listing plus the unpaged total.
type TaskPage struct {
	Tasks []*models.Task `json:"tasks"`
	Total int            `json:"total"`
}

// TaskStore persists tasks and their owned sub-entities. Get and List return
// tasks with comments, attachments, and dependencies loaded.
type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetTasks(ctx context.Context, ids []string) ([]*models.Task, error)
	ListTasks(ctx context.Context, projectID string, f TaskFilter) (*TaskPage, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// MaxDisplaySeq returns the largest numeric display-ID suffix already
	// used under the given prefix, or 0 when none exist.
	MaxDisplaySeq(ctx context.Context, prefix string) (int64, error)

	AddComment(ctx context.Context, c *models.Comment) error
	AddAttachment(ctx context.Context, a *models.Attachment) error
	GetAttachment(ctx context.Context, taskID, attachmentID string) (*models.Attachment, error)
	RemoveAttachment(ctx context.Context, taskID, attachmentID string) error
	AddDependency(ctx context.Context, d *models.Dependency) error
	RemoveDependency(ctx context.Context, taskID, dependencyID string) error
}

// CounterStore is the per-prefix sequence allocator's storage primitive.
// Both operations must be atomic at the storage layer.
type CounterStore interface {
	// Increment atomically increments (creating at 1 if absent) and returns
	// the counter for prefix.
	Increment(ctx context.Context, prefix string) (int64, error)
	// FastForward atomically raises the counter to at least seq and returns
	// the stored value. Used to reconcile a fresh counter with pre-existing
	// display IDs.
	FastForward(ctx context.Context, prefix string, seq int64) (int64, error)
}

// ProjectStore persists projects, memberships, and board columns.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	GetMember(ctx context.Context, projectID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, projectID string) ([]models.Member, error)
	AddMember(ctx context.Context, m *models.Member) error
	UpdateMemberRole(ctx context.Context, projectID, userID string, role models.Role) error
	RemoveMember(ctx context.Context, projectID, userID string) error

	SetColumns(ctx context.Context, projectID string, cols []models.Column) error
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenStore persists API tokens by hash.
type TokenStore interface {
	CreateToken(ctx context.Context, t *models.APIToken, hash string) error
	GetTokenByHash(ctx context.Context, hash string) (*models.APIToken, error)
	DeleteToken(ctx context.Context, id string) error
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
}

// ActivityStore is the append-only project activity log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, a *models.Activity) error
	ListActivity(ctx context.Context, projectID string, limit int) ([]*models.Activity, error)
}

// WebhookStore persists per-project webhook registrations.
type WebhookStore interface {
	CreateWebhook(ctx context.Context, w *models.Webhook) error
	ListWebhooks(ctx context.Context, projectID string) ([]*models.Webhook, error)
	DeleteWebhook(ctx context.Context, projectID, id string) error
}
