package models

import "time"

// ActivityAction tags an activity-log entry.
type ActivityAction string

const (
	ActivityTaskCreated       ActivityAction = "task_created"
	ActivityTaskStatusChanged ActivityAction = "task_status_changed"
	ActivityTaskDeleted       ActivityAction = "task_deleted"
	ActivityCommentAdded      ActivityAction = "comment_added"
	ActivityFileUploaded      ActivityAction = "file_uploaded"
	ActivityMemberAdded       ActivityAction = "member_added"
	ActivityMemberRemoved     ActivityAction = "member_removed"
)

// Activity is an append-only project activity-log entry.
type Activity struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	UserID      string            `json:"user_id"`
	Action      ActivityAction    `json:"action"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Webhook is a per-project outbound integration endpoint. Deliveries are
// fire-and-forget; failures never affect the triggering mutation.
type Webhook struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
