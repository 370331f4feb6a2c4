// Package board implements the task status state machine. Transitions
// between todo and inprogress are free in either direction; entering done is
// guarded by unresolved blocking dependencies, and the completion timestamp
// is kept consistent with the status.
package board

import (
	"time"

	"github.com/worknest/worknest/internal/apperr"
	"github.com/worknest/worknest/internal/models"
)

// Blockers returns the titles of unresolved blocking dependencies, given the
// resolved target tasks of the blocking edges. A blocking edge whose target
// is already done does not block. Targets missing from the map are treated
// as unresolved and reported by ID so a dangling edge can never silently
// unblock a task.
func Blockers(t *models.Task, targets map[string]*models.Task) []string {
	var titles []string
	for _, d := range t.Dependencies {
		if d.Type != models.DependencyBlocking {
			continue
		}
		target, ok := targets[d.DependsOn]
		if !ok {
			titles = append(titles, d.DependsOn)
			continue
		}
		if target.Status != models.StatusDone {
			titles = append(titles, target.Title)
		}
	}
	return titles
}

// Transition validates and applies a status change on t, maintaining the
// CompletedAt invariant: non-nil iff status is done. It mutates only the
// status and completion timestamp; other field updates in the same request
// are applied by the caller regardless of this guard.
func Transition(t *models.Task, next models.Status, targets map[string]*models.Task, now time.Time) error {
	if !models.ValidStatus(next) {
		return apperr.Validation("invalid status")
	}
	if next == t.Status {
		return nil
	}
	if next == models.StatusDone {
		if blockers := Blockers(t, targets); len(blockers) > 0 {
			return apperr.Blocked(blockers)
		}
		t.Status = next
		completed := now
		t.CompletedAt = &completed
		return nil
	}
	// Leaving done clears the completion timestamp.
	t.Status = next
	t.CompletedAt = nil
	return nil
}
