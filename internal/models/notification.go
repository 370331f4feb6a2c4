package models

import "time"

// NotificationType enumerates the notification kinds the board emits.
type NotificationType string

const (
	NotifyTaskAssigned  NotificationType = "task_assigned"
	NotifyCommentAdded  NotificationType = "comment_added"
	NotifyStatusChanged NotificationType = "status_changed"
	NotifyProjectInvite NotificationType = "project_invite"
	NotifyDueSoon       NotificationType = "due_soon"
	NotifyFileUploaded  NotificationType = "file_uploaded"
)

// Notification is created as a side effect of task mutations and consumed
// independently by the recipient.
type Notification struct {
	ID          string            `json:"id"`
	RecipientID string            `json:"recipient_id"`
	SenderID    string            `json:"sender_id"`
	Type        NotificationType  `json:"type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Read        bool              `json:"read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	Data        map[string]string `json:"data,omitempty"` // project/task references for deep-linking
	CreatedAt   time.Time         `json:"created_at"`
}
