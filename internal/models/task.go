package models

import "time"

// Status is a task's board status.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusDone       Status = "done"
)

// ValidStatus reports whether s is one of the board statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is a task's priority level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// DependencyType distinguishes blocking edges from informational ones.
type DependencyType string

const (
	DependencyBlocking DependencyType = "blocking"
	DependencyRelated  DependencyType = "related"
)

// Task represents a board task. The display ID is issued once at creation
// and is immutable; CompletedAt is non-nil exactly while Status is done.
type Task struct {
	ID           string       `json:"id"`
	DisplayID    string       `json:"display_id"`
	ProjectID    string       `json:"project_id"`
	ParentID     *string      `json:"parent_id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	AssigneeID   *string      `json:"assignee_id,omitempty"`
	Status       Status       `json:"status"`
	Priority     Priority     `json:"priority"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	ReminderSent bool         `json:"reminder_sent"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Comments     []Comment    `json:"comments"`
	Attachments  []Attachment `json:"attachments"`
	Dependencies []Dependency `json:"dependencies"`
}

// Comment is a task comment (owned by its task, ordered by creation time).
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file attached to a task; the binary lives in object storage.
type Attachment struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Dependency is a typed edge from a task to another task in the same project.
type Dependency struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	DependsOn string         `json:"depends_on"`
	Type      DependencyType `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
}

// BlockingDependencyIDs returns the target task IDs of blocking edges.
func (t *Task) BlockingDependencyIDs() []string {
	var ids []string
	for _, d := range t.Dependencies {
		if d.Type == DependencyBlocking {
			ids = append(ids, d.DependsOn)
		}
	}
	return ids
}
