package idgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store/memory"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "[test]")
}

func TestDerivePrefix(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "Engineering", "EN", false},
		{"lowercase", "worknest", "WO", false},
		{"leading digits", "42 tasks", "TA", false},
		{"single letter", "x", "", true},
		{"empty", "", "", true},
		{"symbols only", "!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DerivePrefix(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocateSequence(t *testing.T) {
	st := memory.New()
	alloc := New(st, st, testLogger())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := alloc.Allocate(ctx, "EN")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("EN-%d", i), id)
	}

	// Another prefix has its own sequence.
	id, err := alloc.Allocate(ctx, "MK")
	require.NoError(t, err)
	assert.Equal(t, "MK-1", id)
}

func TestAllocateConcurrentUniqueness(t *testing.T) {
	st := memory.New()
	alloc := New(st, st, testLogger())

	const n = 100
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := alloc.Allocate(context.Background(), "EN")
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	got := make([]string, 0, n)
	for id := range ids {
		got = append(got, id)
	}
	sort.Strings(got)

	want := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		want = append(want, fmt.Sprintf("EN-%d", i))
	}
	sort.Strings(want)
	assert.Equal(t, want, got, "N concurrent allocations must yield {1..N} with no gaps or duplicates")
}

func TestAllocateReconcilesExistingDisplayIDs(t *testing.T) {
	st := memory.New()
	alloc := New(st, st, testLogger())
	ctx := context.Background()

	// Tasks MK-1..MK-7 exist but no counter record (e.g. migrated data).
	for i := 1; i <= 7; i++ {
		err := st.CreateTask(ctx, &models.Task{
			ID:        fmt.Sprintf("t%d", i),
			DisplayID: fmt.Sprintf("MK-%d", i),
			ProjectID: "p1",
			Title:     fmt.Sprintf("task %d", i),
			Status:    models.StatusTodo,
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	id, err := alloc.Allocate(ctx, "MK")
	require.NoError(t, err)
	assert.Equal(t, "MK-8", id, "fresh counter must fast-forward past existing IDs")

	id, err = alloc.Allocate(ctx, "MK")
	require.NoError(t, err)
	assert.Equal(t, "MK-9", id)
}

func TestDisplayIDForProjectFallback(t *testing.T) {
	st := memory.New()
	alloc := New(st, st, testLogger())
	alloc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	// The fallback prefix is not derivable, so it can never clash with a
	// real counter scope or feed a reconciliation scan.
	p := &models.Project{ID: "p1", Title: "!!!"}
	id, err := alloc.DisplayIDForProject(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "TASK-1700000000000", id)

	// A persisted fallback ID stays invisible to derived counter scopes.
	require.NoError(t, st.CreateTask(context.Background(), &models.Task{
		ID: "t1", DisplayID: id, ProjectID: "p1", Title: "orphan", Status: models.StatusTodo,
	}))
	max, err := st.MaxDisplaySeq(context.Background(), "TA")
	require.NoError(t, err)
	assert.Zero(t, max)
}

func TestDisplayIDForProjectUsesWorkspace(t *testing.T) {
	st := memory.New()
	alloc := New(st, st, testLogger())

	p := &models.Project{ID: "p1", Title: "Backlog", Workspace: "Engineering"}
	id, err := alloc.DisplayIDForProject(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "EN-1", id)
}

type failingCounters struct{}

func (failingCounters) Increment(ctx context.Context, prefix string) (int64, error) {
	return 0, errors.New("counters unavailable")
}

func (failingCounters) FastForward(ctx context.Context, prefix string, seq int64) (int64, error) {
	return 0, errors.New("counters unavailable")
}

func TestDisplayIDForProjectPropagatesCounterErrors(t *testing.T) {
	st := memory.New()
	alloc := New(failingCounters{}, st, testLogger())

	// Transient counter-store failure is an error, not a fallback ID.
	p := &models.Project{ID: "p1", Title: "Backlog", Workspace: "Engineering"}
	_, err := alloc.DisplayIDForProject(context.Background(), p)
	require.Error(t, err)
}
