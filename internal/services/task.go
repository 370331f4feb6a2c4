package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/board"
	"github.com/worknest/worknest/internal/cache"
	"github.com/worknest/worknest/internal/idgen"
	"github.com/worknest/worknest/internal/integration"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/realtime"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/internal/store"
)

// EventPublisher fans board events out to connected project-room clients.
// Publishing happens after persistence and before the HTTP response; its
// delivery is best-effort.
type EventPublisher interface {
	Publish(projectID, event string, data interface{})
}

// AttachmentStorage stores attachment binaries.
type AttachmentStorage interface {
	Enabled() bool
	PutAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string, r io.Reader, size int64, contentType string) (string, error)
	GetAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) (*storage.GetAttachmentResult, error)
	DeleteAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) error
}

// TaskServiceDeps bundles the orchestrator's collaborators.
type TaskServiceDeps struct {
	Tasks         store.TaskStore
	Projects      store.ProjectStore
	Users         store.UserStore
	Notifications store.NotificationStore
	Activity      store.ActivityStore
	Guard         *authz.Guard
	Allocator     *idgen.Allocator
	Events        EventPublisher
	Cache         *cache.ListingCache
	Webhooks      *integration.Dispatcher // optional
	Files         AttachmentStorage       // optional
	Log           *logger.Logger
}

// TaskService orchestrates board mutations: authorization, the status state
// machine, display-ID allocation, persistence, realtime fan-out, and the
// best-effort side effects. Persistence happens-before the realtime publish,
// which happens-before the caller sees success. There is no version check on
// update: concurrent writers to the same task are last-writer-wins.
type TaskService struct {
	d   TaskServiceDeps
	now func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(d TaskServiceDeps) *TaskService {
	return &TaskService{d: d, now: time.Now}
}

// loadProject maps a missing project to 404 before any authorization check.
func (s *TaskService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := s.d.Projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("project not found")
		}
		return nil, apperr.Internal("load project", err)
	}
	return p, nil
}

// loadTask maps a missing task to 404.
func (s *TaskService) loadTask(ctx context.Context, taskID string) (*models.Task, error) {
	t, err := s.d.Tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("task not found")
		}
		return nil, apperr.Internal("load task", err)
	}
	return t, nil
}

// List returns a filtered, paginated listing for a project (read level).
func (s *TaskService) List(ctx context.Context, principal *models.User, projectID string, f store.TaskFilter) (*store.TaskPage, error) {
	if _, err := s.loadProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, projectID, authz.LevelRead); err != nil {
		return nil, err
	}
	page, err := s.d.Tasks.ListTasks(ctx, projectID, f)
	if err != nil {
		return nil, apperr.Internal("list tasks", err)
	}
	return page, nil
}

// CreateTaskInput is the task creation payload.
type CreateTaskInput struct {
	ProjectID   string          `json:"project_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ParentID    *string         `json:"parent_id"`
	AssigneeID  *string         `json:"assignee_id"`
	Priority    models.Priority `json:"priority"`
	DueDate     *time.Time      `json:"due_date"`
}

// Create creates a task (write level), allocates its display ID, persists,
// broadcasts task-created, and invalidates the project's listing cache.
func (s *TaskService) Create(ctx context.Context, principal *models.User, in CreateTaskInput) (*models.Task, error) {
	if in.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.ProjectID == "" {
		return nil, apperr.Validation("project_id is required")
	}
	project, err := s.loadProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, in.ProjectID, authz.LevelWrite); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.d.Tasks.GetTask(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.NotFound("parent task not found")
			}
			return nil, apperr.Internal("load parent task", err)
		}
		if parent.ProjectID != in.ProjectID {
			return nil, apperr.Validation("parent task belongs to a different project")
		}
	}
	if in.AssigneeID != nil && *in.AssigneeID != "" {
		if err := s.requireMember(ctx, in.ProjectID, *in.AssigneeID); err != nil {
			return nil, err
		}
	} else {
		in.AssigneeID = nil
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, apperr.Validation("invalid priority")
	}

	displayID, err := s.d.Allocator.DisplayIDForProject(ctx, project)
	if err != nil {
		return nil, apperr.Internal("allocate display id", err)
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.New().String(),
		DisplayID:   displayID,
		ProjectID:   in.ProjectID,
		ParentID:    in.ParentID,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		Status:      models.StatusTodo,
		Priority:    priority,
		DueDate:     in.DueDate,
		CreatedBy:   principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.d.Tasks.CreateTask(ctx, task); err != nil {
		return nil, apperr.Internal("create task", err)
	}

	s.d.Events.Publish(task.ProjectID, realtime.EventTaskCreated, task)
	s.d.Cache.InvalidateProject(task.ProjectID)

	if task.AssigneeID != nil && *task.AssigneeID != principal.ID {
		s.notifyAssigned(ctx, principal, task)
	}
	s.logActivity(ctx, principal, task.ProjectID, models.ActivityTaskCreated,
		fmt.Sprintf("created task %s", task.DisplayID), map[string]string{"task_id": task.ID})
	s.d.Webhooks.Notify(task.ProjectID, realtime.EventTaskCreated, task)
	return task, nil
}

// UpdateTaskInput is the allow-listed partial update payload; only supplied
// fields change.
type UpdateTaskInput struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Status       *models.Status   `json:"status"`
	Priority     *models.Priority `json:"priority"`
	AssigneeID   *string          `json:"assignee_id"` // empty string unassigns
	DueDate      *time.Time       `json:"due_date"`
	ClearDueDate bool             `json:"clear_due_date"`
}

// Update applies a partial update (write level). A status change runs the
// state machine guard with the task's blocking dependency targets resolved;
// every other supplied field is applied unconditionally.
func (s *TaskService) Update(ctx context.Context, principal *models.User, taskID string, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, project.ID, authz.LevelWrite); err != nil {
		return nil, err
	}

	prevStatus := task.Status
	prevAssignee := task.AssigneeID

	if in.Status != nil && *in.Status != task.Status {
		targets, err := s.resolveBlockingTargets(ctx, task)
		if err != nil {
			return nil, err
		}
		if err := board.Transition(task, *in.Status, targets, s.now()); err != nil {
			return nil, err
		}
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, apperr.Validation("title cannot be empty")
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Priority != nil {
		if !models.ValidPriority(*in.Priority) {
			return nil, apperr.Validation("invalid priority")
		}
		task.Priority = *in.Priority
	}
	if in.AssigneeID != nil {
		if *in.AssigneeID == "" {
			task.AssigneeID = nil
		} else {
			if err := s.requireMember(ctx, project.ID, *in.AssigneeID); err != nil {
				return nil, err
			}
			task.AssigneeID = in.AssigneeID
		}
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}
	if in.ClearDueDate {
		task.DueDate = nil
	}
	task.UpdatedAt = s.now()

	if err := s.d.Tasks.UpdateTask(ctx, task); err != nil {
		return nil, apperr.Internal("update task", err)
	}

	s.d.Events.Publish(task.ProjectID, realtime.EventTaskUpdated, task)
	s.d.Cache.InvalidateProject(task.ProjectID)

	assigneeChanged := !equalAssignee(prevAssignee, task.AssigneeID)
	if assigneeChanged && task.AssigneeID != nil && *task.AssigneeID != principal.ID {
		s.notifyAssigned(ctx, principal, task)
	}
	statusChanged := task.Status != prevStatus
	if statusChanged {
		if task.AssigneeID != nil && *task.AssigneeID != principal.ID {
			s.notifyStatusChanged(ctx, principal, task)
		}
		s.logActivity(ctx, principal, task.ProjectID, models.ActivityTaskStatusChanged,
			fmt.Sprintf("moved task %s to %s", task.DisplayID, task.Status),
			map[string]string{"task_id": task.ID, "status": string(task.Status)})
	}
	s.d.Webhooks.Notify(task.ProjectID, realtime.EventTaskUpdated, task)
	return task, nil
}

// Delete hard-deletes a task. Requires a role above plain member: admin
// level, so viewers and members are forbidden regardless of write access.
func (s *TaskService) Delete(ctx context.Context, principal *models.User, taskID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, task.ProjectID, authz.LevelAdmin); err != nil {
		return err
	}
	if err := s.d.Tasks.DeleteTask(ctx, taskID); err != nil {
		return apperr.Internal("delete task", err)
	}

	s.d.Events.Publish(task.ProjectID, realtime.EventTaskDeleted, map[string]string{"id": task.ID})
	s.d.Cache.InvalidateProject(task.ProjectID)

	s.logActivity(ctx, principal, task.ProjectID, models.ActivityTaskDeleted,
		fmt.Sprintf("deleted task %s", task.DisplayID), map[string]string{"task_id": task.ID})
	s.d.Webhooks.Notify(task.ProjectID, realtime.EventTaskDeleted, map[string]string{"id": task.ID})
	return nil
}

// AddComment appends a comment (write level, gated by the project's comment
// setting for non-admins) and broadcasts only the new comment.
func (s *TaskService) AddComment(ctx context.Context, principal *models.User, taskID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, apperr.Validation("comment text is required")
	}
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	member, err := s.d.Guard.Authorize(ctx, principal.ID, project.ID, authz.LevelWrite)
	if err != nil {
		return nil, err
	}
	if !project.Settings.AllowComments && !member.Role.IsAdmin() {
		return nil, apperr.Authorization("comments are disabled for this project")
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		AuthorID:  principal.ID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.d.Tasks.AddComment(ctx, comment); err != nil {
		return nil, apperr.Internal("add comment", err)
	}

	s.d.Events.Publish(task.ProjectID, realtime.EventCommentAdded, map[string]interface{}{
		"task_id": task.ID,
		"comment": comment,
	})
	s.d.Cache.InvalidateProject(task.ProjectID)

	s.notifyMembers(ctx, principal, project, models.NotifyCommentAdded,
		"New comment", fmt.Sprintf("%s commented on %s", principal.Name, task.DisplayID), task.ID)
	s.logActivity(ctx, principal, task.ProjectID, models.ActivityCommentAdded,
		fmt.Sprintf("commented on task %s", task.DisplayID), map[string]string{"task_id": task.ID})
	s.d.Webhooks.Notify(task.ProjectID, realtime.EventCommentAdded, comment)
	return comment, nil
}

// AddAttachment stores the binary and appends the attachment record (write
// level, gated by the project's upload setting for non-admins).
func (s *TaskService) AddAttachment(ctx context.Context, principal *models.User, taskID, filename, contentType string, size int64, r io.Reader) (*models.Attachment, error) {
	if filename == "" {
		return nil, apperr.Validation("filename is required")
	}
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	member, err := s.d.Guard.Authorize(ctx, principal.ID, project.ID, authz.LevelWrite)
	if err != nil {
		return nil, err
	}
	if !project.Settings.AllowFileUploads && !member.Role.IsAdmin() {
		return nil, apperr.Authorization("file uploads are disabled for this project")
	}
	if s.d.Files == nil || !s.d.Files.Enabled() {
		return nil, apperr.Internal("file storage not configured", nil)
	}

	attachmentID := uuid.New().String()
	url, err := s.d.Files.PutAttachment(ctx, project.ID, task.ID, attachmentID, filename, r, size, contentType)
	if err != nil {
		return nil, apperr.Internal("store attachment", err)
	}

	att := &models.Attachment{
		ID:         attachmentID,
		TaskID:     task.ID,
		Filename:   filename,
		URL:        url,
		Size:       size,
		MimeType:   contentType,
		UploadedBy: principal.ID,
		UploadedAt: s.now(),
	}
	if err := s.d.Tasks.AddAttachment(ctx, att); err != nil {
		return nil, apperr.Internal("record attachment", err)
	}

	s.publishTask(ctx, task.ID, task.ProjectID)
	s.d.Cache.InvalidateProject(task.ProjectID)

	if task.AssigneeID != nil && *task.AssigneeID != principal.ID {
		bestEffort(s.d.Log, "file-uploaded notification", func() error {
			return s.d.Notifications.CreateNotification(ctx, s.notification(principal, *task.AssigneeID,
				models.NotifyFileUploaded, "File uploaded",
				fmt.Sprintf("%s attached %s to %s", principal.Name, filename, task.DisplayID), task))
		})
	}
	s.logActivity(ctx, principal, task.ProjectID, models.ActivityFileUploaded,
		fmt.Sprintf("attached %s to task %s", filename, task.DisplayID), map[string]string{"task_id": task.ID})
	return att, nil
}

// OpenAttachment returns the attachment record and a stream over its binary
// (read level). Callers own closing the returned reader.
func (s *TaskService) OpenAttachment(ctx context.Context, principal *models.User, taskID, attachmentID string) (*models.Attachment, *storage.GetAttachmentResult, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, task.ProjectID, authz.LevelRead); err != nil {
		return nil, nil, err
	}
	att, err := s.d.Tasks.GetAttachment(ctx, taskID, attachmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperr.NotFound("attachment not found")
		}
		return nil, nil, apperr.Internal("load attachment", err)
	}
	if s.d.Files == nil || !s.d.Files.Enabled() {
		return nil, nil, apperr.NotFound("attachment binary not available")
	}
	res, err := s.d.Files.GetAttachment(ctx, task.ProjectID, task.ID, att.ID, att.Filename)
	if err != nil {
		return nil, nil, apperr.Internal("open attachment", err)
	}
	return att, res, nil
}

// RemoveAttachment deletes an attachment record (and, best-effort, its
// binary). Only the uploader, the task's assignee, or an admin may delete.
func (s *TaskService) RemoveAttachment(ctx context.Context, principal *models.User, taskID, attachmentID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	member, err := s.d.Guard.Authorize(ctx, principal.ID, task.ProjectID, authz.LevelWrite)
	if err != nil {
		return err
	}
	att, err := s.d.Tasks.GetAttachment(ctx, taskID, attachmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("attachment not found")
		}
		return apperr.Internal("load attachment", err)
	}

	isAssignee := task.AssigneeID != nil && *task.AssigneeID == principal.ID
	if att.UploadedBy != principal.ID && !isAssignee && !member.Role.IsAdmin() {
		return apperr.Authorization("only the uploader, the assignee, or an admin can delete an attachment")
	}

	if s.d.Files != nil && s.d.Files.Enabled() {
		bestEffort(s.d.Log, "attachment binary delete", func() error {
			return s.d.Files.DeleteAttachment(ctx, task.ProjectID, task.ID, att.ID, att.Filename)
		})
	}
	if err := s.d.Tasks.RemoveAttachment(ctx, taskID, attachmentID); err != nil {
		return apperr.Internal("remove attachment", err)
	}

	s.publishTask(ctx, task.ID, task.ProjectID)
	s.d.Cache.InvalidateProject(task.ProjectID)
	return nil
}

// AddDependency adds a typed edge; both tasks must belong to the same
// project and duplicate edges to the same target are rejected.
func (s *TaskService) AddDependency(ctx context.Context, principal *models.User, taskID, targetID string, depType models.DependencyType) (*models.Dependency, error) {
	if targetID == "" {
		return nil, apperr.Validation("depends_on is required")
	}
	if targetID == taskID {
		return nil, apperr.Validation("a task cannot depend on itself")
	}
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, task.ProjectID, authz.LevelWrite); err != nil {
		return nil, err
	}

	target, err := s.d.Tasks.GetTask(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("dependency target not found")
		}
		return nil, apperr.Internal("load dependency target", err)
	}
	if target.ProjectID != task.ProjectID {
		return nil, apperr.NotFound("dependency target is not in this project")
	}

	if depType == "" {
		depType = models.DependencyBlocking
	}
	if depType != models.DependencyBlocking && depType != models.DependencyRelated {
		return nil, apperr.Validation("invalid dependency type")
	}

	dep := &models.Dependency{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		DependsOn: targetID,
		Type:      depType,
		CreatedAt: s.now(),
	}
	if err := s.d.Tasks.AddDependency(ctx, dep); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Validation("dependency already exists")
		}
		return nil, apperr.Internal("add dependency", err)
	}

	s.publishTask(ctx, task.ID, task.ProjectID)
	s.d.Cache.InvalidateProject(task.ProjectID)
	return dep, nil
}

// RemoveDependency removes a dependency edge (write level).
func (s *TaskService) RemoveDependency(ctx context.Context, principal *models.User, taskID, dependencyID string) error {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.d.Guard.Authorize(ctx, principal.ID, task.ProjectID, authz.LevelWrite); err != nil {
		return err
	}
	if err := s.d.Tasks.RemoveDependency(ctx, taskID, dependencyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("dependency not found")
		}
		return apperr.Internal("remove dependency", err)
	}

	s.publishTask(ctx, task.ID, task.ProjectID)
	s.d.Cache.InvalidateProject(task.ProjectID)
	return nil
}

// resolveBlockingTargets loads the target tasks of the task's blocking edges.
func (s *TaskService) resolveBlockingTargets(ctx context.Context, task *models.Task) (map[string]*models.Task, error) {
	ids := task.BlockingDependencyIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	targets, err := s.d.Tasks.GetTasks(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("resolve dependencies", err)
	}
	out := make(map[string]*models.Task, len(targets))
	for _, t := range targets {
		out[t.ID] = t
	}
	return out, nil
}

// requireMember maps a missing membership to a validation error (assignees
// must be current project members).
func (s *TaskService) requireMember(ctx context.Context, projectID, userID string) error {
	_, err := s.d.Projects.GetMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Validation("assignee must be a member of the project")
		}
		return apperr.Internal("check assignee membership", err)
	}
	return nil
}

// publishTask re-fetches a task and broadcasts it as task-updated, so events
// that change sub-entities carry the full updated entity.
func (s *TaskService) publishTask(ctx context.Context, taskID, projectID string) {
	t, err := s.d.Tasks.GetTask(ctx, taskID)
	if err != nil {
		s.d.Log.Warn("publish task-updated: reload task %s: %v", taskID, err)
		return
	}
	s.d.Events.Publish(projectID, realtime.EventTaskUpdated, t)
}

func (s *TaskService) notification(actor *models.User, recipientID string, typ models.NotificationType, title, message string, task *models.Task) *models.Notification {
	return &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		SenderID:    actor.ID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        map[string]string{"project_id": task.ProjectID, "task_id": task.ID},
		CreatedAt:   s.now(),
	}
}

func (s *TaskService) notifyAssigned(ctx context.Context, actor *models.User, task *models.Task) {
	bestEffort(s.d.Log, "task-assigned notification", func() error {
		return s.d.Notifications.CreateNotification(ctx, s.notification(actor, *task.AssigneeID,
			models.NotifyTaskAssigned, "Task assigned",
			fmt.Sprintf("%s assigned %s to you", actor.Name, task.DisplayID), task))
	})
}

func (s *TaskService) notifyStatusChanged(ctx context.Context, actor *models.User, task *models.Task) {
	bestEffort(s.d.Log, "status-changed notification", func() error {
		return s.d.Notifications.CreateNotification(ctx, s.notification(actor, *task.AssigneeID,
			models.NotifyStatusChanged, "Status changed",
			fmt.Sprintf("%s moved %s to %s", actor.Name, task.DisplayID, task.Status), task))
	})
}

// notifyMembers notifies every current project member except the actor.
func (s *TaskService) notifyMembers(ctx context.Context, actor *models.User, project *models.Project, typ models.NotificationType, title, message, taskID string) {
	bestEffort(s.d.Log, "member notifications", func() error {
		members, err := s.d.Projects.ListMembers(ctx, project.ID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.UserID == actor.ID {
				continue
			}
			n := &models.Notification{
				ID:          uuid.New().String(),
				RecipientID: m.UserID,
				SenderID:    actor.ID,
				Type:        typ,
				Title:       title,
				Message:     message,
				Data:        map[string]string{"project_id": project.ID, "task_id": taskID},
				CreatedAt:   s.now(),
			}
			if err := s.d.Notifications.CreateNotification(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TaskService) logActivity(ctx context.Context, actor *models.User, projectID string, action models.ActivityAction, description string, meta map[string]string) {
	bestEffort(s.d.Log, "activity log", func() error {
		return s.d.Activity.AppendActivity(ctx, &models.Activity{
			ID:          uuid.New().String(),
			ProjectID:   projectID,
			UserID:      actor.ID,
			Action:      action,
			Description: description,
			Metadata:    meta,
			CreatedAt:   s.now(),
		})
	})
}

func equalAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
