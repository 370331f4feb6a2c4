// Package memory implements the store interfaces in process memory. It is
// the reference implementation used by tests; semantics (atomic counter
// increments, cascade deletes, not-found errors) match store/postgres.
package memory

import (
	"sync"

	"github.com/worknest/worknest/internal/models"
)

// Store holds every collection behind one mutex. Counter operations take the
// same lock, which makes Increment/FastForward atomic with respect to each
// other and to task queries.
type Store struct {
	mu sync.Mutex

	tasks         map[string]*models.Task
	projects      map[string]*models.Project
	members       map[string][]models.Member // projectID -> members
	columns       map[string][]models.Column // projectID -> columns
	counters      map[string]int64           // prefix -> last issued seq
	users         map[string]*models.User
	tokens        map[string]*models.APIToken // hash -> token
	notifications map[string]*models.Notification
	activities    map[string][]*models.Activity // projectID -> entries
	webhooks      map[string][]*models.Webhook  // projectID -> hooks
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		tasks:         make(map[string]*models.Task),
		projects:      make(map[string]*models.Project),
		members:       make(map[string][]models.Member),
		columns:       make(map[string][]models.Column),
		counters:      make(map[string]int64),
		users:         make(map[string]*models.User),
		tokens:        make(map[string]*models.APIToken),
		notifications: make(map[string]*models.Notification),
		activities:    make(map[string][]*models.Activity),
		webhooks:      make(map[string][]*models.Webhook),
	}
}

func cloneTask(t *models.Task) *models.Task {
	cp := *t
	cp.Comments = append([]models.Comment(nil), t.Comments...)
	cp.Attachments = append([]models.Attachment(nil), t.Attachments...)
	cp.Dependencies = append([]models.Dependency(nil), t.Dependencies...)
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		cp.CompletedAt = &c
	}
	if t.AssigneeID != nil {
		a := *t.AssigneeID
		cp.AssigneeID = &a
	}
	if t.ParentID != nil {
		p := *t.ParentID
		cp.ParentID = &p
	}
	return &cp
}

func cloneProject(p *models.Project) *models.Project {
	cp := *p
	cp.Members = append([]models.Member(nil), p.Members...)
	cp.Columns = append([]models.Column(nil), p.Columns...)
	return &cp
}
