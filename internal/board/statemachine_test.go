package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/models"
)

func task(id string, status models.Status) *models.Task {
	return &models.Task{ID: id, Title: "task " + id, Status: status}
}

func TestTransitionFreeBetweenTodoAndInProgress(t *testing.T) {
	now := time.Now()

	tk := task("t1", models.StatusTodo)
	require.NoError(t, Transition(tk, models.StatusInProgress, nil, now))
	assert.Equal(t, models.StatusInProgress, tk.Status)
	assert.Nil(t, tk.CompletedAt)

	require.NoError(t, Transition(tk, models.StatusTodo, nil, now))
	assert.Equal(t, models.StatusTodo, tk.Status)
	assert.Nil(t, tk.CompletedAt)
}

func TestTransitionToDoneBlockedByDependency(t *testing.T) {
	now := time.Now()
	blocker := task("t2", models.StatusTodo)
	blocker.Title = "write the migration"

	tk := task("t1", models.StatusInProgress)
	tk.Dependencies = []models.Dependency{
		{ID: "d1", TaskID: "t1", DependsOn: "t2", Type: models.DependencyBlocking},
	}
	targets := map[string]*models.Task{"t2": blocker}

	err := Transition(tk, models.StatusDone, targets, now)
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Equal(t, []string{"write the migration"}, ae.BlockingTasks)

	// No mutation on rejection.
	assert.Equal(t, models.StatusInProgress, tk.Status)
	assert.Nil(t, tk.CompletedAt)

	// Once the blocker is done, the same transition succeeds.
	blocker.Status = models.StatusDone
	require.NoError(t, Transition(tk, models.StatusDone, targets, now))
	assert.Equal(t, models.StatusDone, tk.Status)
	require.NotNil(t, tk.CompletedAt)
	assert.True(t, tk.CompletedAt.Equal(now))
}

func TestTransitionInformationalDependencyDoesNotBlock(t *testing.T) {
	now := time.Now()
	tk := task("t1", models.StatusTodo)
	tk.Dependencies = []models.Dependency{
		{ID: "d1", TaskID: "t1", DependsOn: "t2", Type: models.DependencyRelated},
	}
	targets := map[string]*models.Task{"t2": task("t2", models.StatusTodo)}

	require.NoError(t, Transition(tk, models.StatusDone, targets, now))
	assert.Equal(t, models.StatusDone, tk.Status)
}

func TestTransitionMissingTargetBlocksByID(t *testing.T) {
	tk := task("t1", models.StatusTodo)
	tk.Dependencies = []models.Dependency{
		{ID: "d1", TaskID: "t1", DependsOn: "ghost", Type: models.DependencyBlocking},
	}

	err := Transition(tk, models.StatusDone, map[string]*models.Task{}, time.Now())
	require.Error(t, err)
	ae, _ := apperr.As(err)
	assert.Equal(t, []string{"ghost"}, ae.BlockingTasks)
}

func TestCompletedAtInvariantAcrossTransitions(t *testing.T) {
	now := time.Now()
	tk := task("t1", models.StatusTodo)

	// create -> done
	require.NoError(t, Transition(tk, models.StatusDone, nil, now))
	require.NotNil(t, tk.CompletedAt)

	// done -> inprogress clears the timestamp
	require.NoError(t, Transition(tk, models.StatusInProgress, nil, now.Add(time.Minute)))
	assert.Nil(t, tk.CompletedAt)

	// back to done sets it again
	later := now.Add(2 * time.Minute)
	require.NoError(t, Transition(tk, models.StatusDone, nil, later))
	require.NotNil(t, tk.CompletedAt)
	assert.True(t, tk.CompletedAt.Equal(later))
}

func TestTransitionSameStatusIsNoop(t *testing.T) {
	now := time.Now()
	tk := task("t1", models.StatusDone)
	completed := now.Add(-time.Hour)
	tk.CompletedAt = &completed

	require.NoError(t, Transition(tk, models.StatusDone, nil, now))
	assert.True(t, tk.CompletedAt.Equal(completed), "re-asserting done must not touch the timestamp")
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	tk := task("t1", models.StatusTodo)
	err := Transition(tk, models.Status("archived"), nil, time.Now())
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
}
