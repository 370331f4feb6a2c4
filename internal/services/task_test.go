package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/cache"
	"github.com/worknest/worknest/internal/idgen"
	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/realtime"
	"github.com/worknest/worknest/internal/storage"
	"github.com/worknest/worknest/internal/store"
	"github.com/worknest/worknest/internal/store/memory"
)

type publishedEvent struct {
	ProjectID string
	Event     string
	Data      interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(projectID, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{ProjectID: projectID, Event: event, Data: data})
}

func (f *fakePublisher) byName(event string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type taskHarness struct {
	svc    *TaskService
	store  *memory.Store
	pub    *fakePublisher
	cache  *cache.ListingCache
	owner  *models.User
	member *models.User
	viewer *models.User
	proj   *models.Project
}

func newTaskHarness(t *testing.T) *taskHarness {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	log := logger.New(io.Discard, logger.LevelError, "[test]")

	guard, err := authz.NewGuard(mem)
	require.NoError(t, err)

	owner := &models.User{ID: "u-owner", Email: "owner@worknest.dev", Name: "Olive Owner"}
	member := &models.User{ID: "u-member", Email: "member@worknest.dev", Name: "Max Member"}
	viewer := &models.User{ID: "u-viewer", Email: "viewer@worknest.dev", Name: "Vera Viewer"}
	for _, u := range []*models.User{owner, member, viewer} {
		require.NoError(t, mem.CreateUser(ctx, u))
	}

	now := time.Now()
	proj := &models.Project{
		ID:        "p-engine",
		Title:     "Engine Room",
		Workspace: "Engine",
		OwnerID:   owner.ID,
		Settings:  models.DefaultProjectSettings(),
		CreatedAt: now,
		UpdatedAt: now,
		Members: []models.Member{
			{ID: "m1", ProjectID: "p-engine", UserID: owner.ID, Role: models.RoleOwner, JoinedAt: now},
			{ID: "m2", ProjectID: "p-engine", UserID: member.ID, Role: models.RoleMember, JoinedAt: now},
			{ID: "m3", ProjectID: "p-engine", UserID: viewer.ID, Role: models.RoleViewer, JoinedAt: now},
		},
		Columns: models.DefaultColumns(),
	}
	require.NoError(t, mem.CreateProject(ctx, proj))

	pub := &fakePublisher{}
	listings := cache.New(time.Minute)
	svc := NewTaskService(TaskServiceDeps{
		Tasks:         mem,
		Projects:      mem,
		Users:         mem,
		Notifications: mem,
		Activity:      mem,
		Guard:         guard,
		Allocator:     idgen.New(mem, mem, log),
		Events:        pub,
		Cache:         listings,
		Log:           log,
	})
	return &taskHarness{svc: svc, store: mem, pub: pub, cache: listings, owner: owner, member: member, viewer: viewer, proj: proj}
}

func (h *taskHarness) create(t *testing.T, actor *models.User, title string) *models.Task {
	t.Helper()
	task, err := h.svc.Create(context.Background(), actor, CreateTaskInput{
		ProjectID: h.proj.ID,
		Title:     title,
	})
	require.NoError(t, err)
	return task
}

func TestCreateAllocatesWorkspaceDisplayIDs(t *testing.T) {
	h := newTaskHarness(t)

	t1 := h.create(t, h.owner, "Design the intake manifold")
	t2 := h.create(t, h.member, "Wire the ignition")
	t3 := h.create(t, h.member, "Dyno run")

	assert.Equal(t, "EN-1", t1.DisplayID)
	assert.Equal(t, "EN-2", t2.DisplayID)
	assert.Equal(t, "EN-3", t3.DisplayID)
	assert.Equal(t, models.StatusTodo, t1.Status)
	assert.Equal(t, models.PriorityMedium, t1.Priority)

	created := h.pub.byName(realtime.EventTaskCreated)
	require.Len(t, created, 3)
	assert.Equal(t, h.proj.ID, created[0].ProjectID)
}

func TestCreateValidation(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, h.owner, CreateTaskInput{ProjectID: h.proj.ID})
	requireKind(t, err, apperr.KindValidation)

	_, err = h.svc.Create(ctx, h.owner, CreateTaskInput{ProjectID: "p-ghost", Title: "x"})
	requireKind(t, err, apperr.KindNotFound)

	outsider := &models.User{ID: "u-outsider", Email: "out@worknest.dev", Name: "Out Sider"}
	require.NoError(t, h.store.CreateUser(ctx, outsider))
	_, err = h.svc.Create(ctx, outsider, CreateTaskInput{ProjectID: h.proj.ID, Title: "x"})
	requireKind(t, err, apperr.KindAuthorization)

	// Viewers can read but never mutate.
	_, err = h.svc.Create(ctx, h.viewer, CreateTaskInput{ProjectID: h.proj.ID, Title: "x"})
	requireKind(t, err, apperr.KindAuthorization)

	outsiderID := outsider.ID
	_, err = h.svc.Create(ctx, h.owner, CreateTaskInput{ProjectID: h.proj.ID, Title: "x", AssigneeID: &outsiderID})
	requireKind(t, err, apperr.KindValidation)
}

func TestBlockedTransitionReturnsBlockingTitles(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	blocker := h.create(t, h.owner, "Design the intake manifold")
	blocked := h.create(t, h.owner, "Install the manifold")

	_, err := h.svc.AddDependency(ctx, h.owner, blocked.ID, blocker.ID, models.DependencyBlocking)
	require.NoError(t, err)

	done := models.StatusDone
	_, err = h.svc.Update(ctx, h.member, blocked.ID, UpdateTaskInput{Status: &done})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"Design the intake manifold"}, appErr.BlockingTasks)

	// The rejected transition must not have persisted anything.
	stored, err := h.store.GetTask(ctx, blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	// Resolve the blocker, then the transition succeeds.
	_, err = h.svc.Update(ctx, h.owner, blocker.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)

	updated, err := h.svc.Update(ctx, h.member, blocked.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	events := h.pub.byName(realtime.EventTaskUpdated)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, h.proj.ID, last.ProjectID)
	assert.Equal(t, updated.ID, last.Data.(*models.Task).ID)
}

func TestReopeningClearsCompletedAt(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	task := h.create(t, h.owner, "Dyno run")
	done, todo := models.StatusDone, models.StatusTodo

	updated, err := h.svc.Update(ctx, h.owner, task.ID, UpdateTaskInput{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)

	reopened, err := h.svc.Update(ctx, h.owner, task.ID, UpdateTaskInput{Status: &todo})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)
}

func TestMutationsInvalidateProjectListings(t *testing.T) {
	h := newTaskHarness(t)

	mine := cache.Key(h.member.ID, "/api/tasks/project/"+h.proj.ID+"?page=1")
	theirs := cache.Key(h.owner.ID, "/api/tasks/project/"+h.proj.ID+"?status=todo")
	other := cache.Key(h.member.ID, "/api/tasks/project/p-other?page=1")
	h.cache.Set(mine, []byte("a"))
	h.cache.Set(theirs, []byte("b"))
	h.cache.Set(other, []byte("c"))

	h.create(t, h.owner, "Wire the ignition")

	_, ok := h.cache.Get(mine)
	assert.False(t, ok)
	_, ok = h.cache.Get(theirs)
	assert.False(t, ok)
	_, ok = h.cache.Get(other)
	assert.True(t, ok, "listings of other projects stay cached")
}

func TestDeleteRequiresAdminRole(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	task := h.create(t, h.owner, "Dyno run")

	err := h.svc.Delete(ctx, h.member, task.ID)
	requireKind(t, err, apperr.KindAuthorization)

	require.NoError(t, h.svc.Delete(ctx, h.owner, task.ID))
	_, err = h.store.GetTask(ctx, task.ID)
	assert.Equal(t, store.ErrNotFound, err)

	deleted := h.pub.byName(realtime.EventTaskDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, map[string]string{"id": task.ID}, deleted[0].Data)
}

func TestCommentsGatedByProjectSettings(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	task := h.create(t, h.owner, "Wire the ignition")

	proj, err := h.store.GetProject(ctx, h.proj.ID)
	require.NoError(t, err)
	proj.Settings.AllowComments = false
	require.NoError(t, h.store.UpdateProject(ctx, proj))

	_, err = h.svc.AddComment(ctx, h.member, task.ID, "looks good")
	requireKind(t, err, apperr.KindAuthorization)

	// Admin roles bypass the toggle.
	comment, err := h.svc.AddComment(ctx, h.owner, task.ID, "reopening this")
	require.NoError(t, err)
	assert.Equal(t, h.owner.ID, comment.AuthorID)

	events := h.pub.byName(realtime.EventCommentAdded)
	require.Len(t, events, 1)

	// Other members get a notification; the actor does not.
	memberNotes, err := h.store.ListNotifications(ctx, h.member.ID, false)
	require.NoError(t, err)
	require.Len(t, memberNotes, 1)
	assert.Equal(t, models.NotifyCommentAdded, memberNotes[0].Type)
	ownNotes, err := h.store.ListNotifications(ctx, h.owner.ID, false)
	require.NoError(t, err)
	assert.Empty(t, ownNotes)
}

func TestDependencyRules(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	a := h.create(t, h.owner, "Task A")
	b := h.create(t, h.owner, "Task B")

	_, err := h.svc.AddDependency(ctx, h.owner, a.ID, a.ID, models.DependencyBlocking)
	requireKind(t, err, apperr.KindValidation)

	_, err = h.svc.AddDependency(ctx, h.owner, a.ID, "t-ghost", models.DependencyBlocking)
	requireKind(t, err, apperr.KindNotFound)

	// A target in another project is reported as not found, not forbidden.
	other := &models.Project{
		ID:      "p-other",
		Title:   "Other",
		OwnerID: h.owner.ID,
		Members: []models.Member{{ID: "m9", ProjectID: "p-other", UserID: h.owner.ID, Role: models.RoleOwner}},
	}
	require.NoError(t, h.store.CreateProject(ctx, other))
	foreign, err := h.svc.Create(ctx, h.owner, CreateTaskInput{ProjectID: other.ID, Title: "Foreign"})
	require.NoError(t, err)
	_, err = h.svc.AddDependency(ctx, h.owner, a.ID, foreign.ID, models.DependencyBlocking)
	requireKind(t, err, apperr.KindNotFound)

	dep, err := h.svc.AddDependency(ctx, h.owner, a.ID, b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DependencyBlocking, dep.Type, "type defaults to blocking")

	_, err = h.svc.AddDependency(ctx, h.owner, a.ID, b.ID, models.DependencyRelated)
	requireKind(t, err, apperr.KindValidation)

	require.NoError(t, h.svc.RemoveDependency(ctx, h.owner, a.ID, dep.ID))
	err = h.svc.RemoveDependency(ctx, h.owner, a.ID, dep.ID)
	requireKind(t, err, apperr.KindNotFound)
}

// wrappingTaskStore decorates every error the way the production store does,
// so tests catch sentinel comparisons that break under fmt.Errorf("%w").
type wrappingTaskStore struct {
	store.TaskStore
}

func (w wrappingTaskStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := w.TaskStore.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (w wrappingTaskStore) AddDependency(ctx context.Context, d *models.Dependency) error {
	if err := w.TaskStore.AddDependency(ctx, d); err != nil {
		return fmt.Errorf("insert dependency: %w", err)
	}
	return nil
}

func TestWrappedStoreErrorsKeepStatusMapping(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	a := h.create(t, h.owner, "Task A")
	b := h.create(t, h.owner, "Task B")
	h.svc.d.Tasks = wrappingTaskStore{TaskStore: h.store}

	_, err := h.svc.AddDependency(ctx, h.owner, a.ID, b.ID, models.DependencyBlocking)
	require.NoError(t, err)

	_, err = h.svc.AddDependency(ctx, h.owner, a.ID, b.ID, models.DependencyBlocking)
	requireKind(t, err, apperr.KindValidation)

	_, err = h.svc.Update(ctx, h.owner, "t-ghost", UpdateTaskInput{})
	requireKind(t, err, apperr.KindNotFound)
}

func TestAssignmentNotifications(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	memberID := h.member.ID
	_, err := h.svc.Create(ctx, h.owner, CreateTaskInput{
		ProjectID:  h.proj.ID,
		Title:      "Wire the ignition",
		AssigneeID: &memberID,
	})
	require.NoError(t, err)

	notes, err := h.store.ListNotifications(ctx, h.member.ID, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyTaskAssigned, notes[0].Type)
	assert.Equal(t, h.proj.ID, notes[0].Data["project_id"])

	// Assigning a task to yourself stays quiet.
	ownerID := h.owner.ID
	_, err = h.svc.Create(ctx, h.owner, CreateTaskInput{
		ProjectID:  h.proj.ID,
		Title:      "Dyno run",
		AssigneeID: &ownerID,
	})
	require.NoError(t, err)
	ownNotes, err := h.store.ListNotifications(ctx, h.owner.ID, true)
	require.NoError(t, err)
	assert.Empty(t, ownNotes)
}

func TestUpdateUnassignAndClearDueDate(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	memberID := h.member.ID
	due := time.Now().Add(48 * time.Hour)
	task, err := h.svc.Create(ctx, h.owner, CreateTaskInput{
		ProjectID:  h.proj.ID,
		Title:      "Wire the ignition",
		AssigneeID: &memberID,
		DueDate:    &due,
	})
	require.NoError(t, err)

	empty := ""
	updated, err := h.svc.Update(ctx, h.owner, task.ID, UpdateTaskInput{
		AssigneeID:   &empty,
		ClearDueDate: true,
	})
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
	assert.Nil(t, updated.DueDate)
}

func TestListRequiresMembership(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()

	h.create(t, h.owner, "Task A")
	h.create(t, h.owner, "Task B")

	page, err := h.svc.List(ctx, h.viewer, h.proj.ID, store.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	outsider := &models.User{ID: "u-outsider", Email: "out@worknest.dev", Name: "Out Sider"}
	require.NoError(t, h.store.CreateUser(ctx, outsider))
	_, err = h.svc.List(ctx, outsider, h.proj.ID, store.TaskFilter{})
	requireKind(t, err, apperr.KindAuthorization)

	_, err = h.svc.List(ctx, h.owner, "p-ghost", store.TaskFilter{})
	requireKind(t, err, apperr.KindNotFound)
}

type fakeFiles struct {
	mu      sync.Mutex
	stored  map[string][]byte // attachmentID -> content
	deleted []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{stored: make(map[string][]byte)}
}

func (f *fakeFiles) Enabled() bool { return true }

func (f *fakeFiles) PutAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.stored[attachmentID] = content
	return "http://files.local/" + attachmentID, nil
}

func (f *fakeFiles) GetAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) (*storage.GetAttachmentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.stored[attachmentID]
	if !ok {
		return nil, storage.ErrDisabled
	}
	return &storage.GetAttachmentResult{
		Reader:      io.NopCloser(bytes.NewReader(content)),
		Size:        int64(len(content)),
		ContentType: "application/octet-stream",
	}, nil
}

func (f *fakeFiles) DeleteAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, attachmentID)
	return nil
}

func TestAttachmentLifecycle(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()
	files := newFakeFiles()
	h.svc.d.Files = files

	task := h.create(t, h.owner, "Wire the ignition")

	att, err := h.svc.AddAttachment(ctx, h.member, task.ID, "diagram.png", "image/png", 42, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/"+att.ID, att.URL)
	assert.Equal(t, h.member.ID, att.UploadedBy)

	// Any reader can stream it back.
	got, res, err := h.svc.OpenAttachment(ctx, h.viewer, task.ID, att.ID)
	require.NoError(t, err)
	content, err := io.ReadAll(res.Reader)
	require.NoError(t, err)
	res.Reader.Close()
	assert.Equal(t, "png-bytes", string(content))
	assert.Equal(t, att.ID, got.ID)

	// Someone who neither uploaded it nor is assigned cannot delete it.
	second := &models.User{ID: "u-second", Email: "second@worknest.dev", Name: "Sam Second"}
	require.NoError(t, h.store.CreateUser(ctx, second))
	require.NoError(t, h.store.AddMember(ctx, &models.Member{
		ID: "m4", ProjectID: h.proj.ID, UserID: second.ID, Role: models.RoleMember, JoinedAt: time.Now(),
	}))
	err = h.svc.RemoveAttachment(ctx, second, task.ID, att.ID)
	requireKind(t, err, apperr.KindAuthorization)

	require.NoError(t, h.svc.RemoveAttachment(ctx, h.member, task.ID, att.ID))
	assert.Equal(t, []string{att.ID}, files.deleted)
	_, err = h.store.GetAttachment(ctx, task.ID, att.ID)
	assert.Equal(t, store.ErrNotFound, err)
}

func TestAttachmentsGatedByProjectSettings(t *testing.T) {
	h := newTaskHarness(t)
	ctx := context.Background()
	h.svc.d.Files = newFakeFiles()

	task := h.create(t, h.owner, "Dyno run")

	proj, err := h.store.GetProject(ctx, h.proj.ID)
	require.NoError(t, err)
	proj.Settings.AllowFileUploads = false
	require.NoError(t, h.store.UpdateProject(ctx, proj))

	_, err = h.svc.AddAttachment(ctx, h.member, task.ID, "log.txt", "text/plain", 3, strings.NewReader("abc"))
	requireKind(t, err, apperr.KindAuthorization)

	_, err = h.svc.AddAttachment(ctx, h.owner, task.ID, "log.txt", "text/plain", 3, strings.NewReader("abc"))
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected an apperr, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
}
