package models

import "time"

// Role is a per-project membership role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ValidRole reports whether r is a known membership role.
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// IsAdmin reports whether the role carries admin-level permissions.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleOwner
}

// ProjectSettings are per-project feature toggles.
type ProjectSettings struct {
	AllowComments      bool `json:"allow_comments"`
	AllowFileUploads   bool `json:"allow_file_uploads"`
	EmailNotifications bool `json:"email_notifications"`
}

// DefaultProjectSettings enables everything; projects opt out.
func DefaultProjectSettings() ProjectSettings {
	return ProjectSettings{AllowComments: true, AllowFileUploads: true, EmailNotifications: true}
}

// Project is a workspace-scoped container of tasks, members, and columns.
type Project struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Workspace   string          `json:"workspace,omitempty"`
	OwnerID     string          `json:"owner_id"`
	Settings    ProjectSettings `json:"settings"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Members     []Member        `json:"members,omitempty"`
	Columns     []Column        `json:"columns,omitempty"`
}

// PrefixSource is the name the display-ID prefix is derived from:
// the workspace name, or the project title when no workspace is set.
func (p *Project) PrefixSource() string {
	if p.Workspace != "" {
		return p.Workspace
	}
	return p.Title
}

// Member is a project membership record.
type Member struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Column is a board column. Its task-id order is advisory and display-only;
// the authoritative status lives on each task.
type Column struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Position int      `json:"position"`
	TaskIDs  []string `json:"task_ids"`
}

// DefaultColumns returns the three-column board every project starts with.
func DefaultColumns() []Column {
	return []Column{
		{ID: string(StatusTodo), Title: "To Do", Position: 0},
		{ID: string(StatusInProgress), Title: "In Progress", Position: 1},
		{ID: string(StatusDone), Title: "Done", Position: 2},
	}
}
