// Package idgen issues human-readable task display IDs of the form
// <PREFIX>-<N>, unique and monotonically increasing per prefix even under
// concurrent allocation.
package idgen

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/worknest/worknest/internal/logger"
	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

// Allocator issues display IDs backed by an atomic per-prefix counter.
type Allocator struct {
	counters store.CounterStore
	tasks    store.TaskStore
	log      *logger.Logger
	now      func() time.Time
}

// New creates an Allocator.
func New(counters store.CounterStore, tasks store.TaskStore, log *logger.Logger) *Allocator {
	return &Allocator{counters: counters, tasks: tasks, log: log, now: time.Now}
}

// DerivePrefix returns the two-letter upper-cased prefix for a name, or an
// error when the name does not contain two usable ASCII letters. Display IDs
// must match ^[A-Z]{2}-\d+$ once issued.
func DerivePrefix(name string) (string, error) {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			r = unicode.ToUpper(r)
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 2 {
				return b.String(), nil
			}
		}
	}
	return "", fmt.Errorf("cannot derive prefix from %q", name)
}

// Allocate returns "<prefix>-<n>" where n is strictly greater than any n
// previously issued for prefix. The counter increment is atomic at the
// storage layer; a freshly created counter (first increment returns 1) is
// reconciled against display IDs that already exist under the prefix, so a
// lost or never-created counter cannot cause collisions.
func (a *Allocator) Allocate(ctx context.Context, prefix string) (string, error) {
	seq, err := a.counters.Increment(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("increment counter %s: %w", prefix, err)
	}
	if seq == 1 {
		// The fast-forward is monotonic but not exclusive: a concurrent
		// caller that increments the fresh counter to exactly max+1 before
		// this lands can be issued the same reconciled value. The window
		// exists only on the first use of a prefix that already has
		// untracked display IDs.
		max, err := a.tasks.MaxDisplaySeq(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("reconcile counter %s: %w", prefix, err)
		}
		if max > 0 {
			seq, err = a.counters.FastForward(ctx, prefix, max+1)
			if err != nil {
				return "", fmt.Errorf("fast-forward counter %s: %w", prefix, err)
			}
		}
	}
	return fmt.Sprintf("%s-%d", prefix, seq), nil
}

// DisplayIDForProject allocates a display ID scoped to the project's
// workspace prefix (or title prefix without one). When no prefix can be
// derived from the name it falls back to a timestamp identifier rather than
// blocking task creation; the anomaly is logged. Counter-store failures are
// returned, not papered over with a fallback.
func (a *Allocator) DisplayIDForProject(ctx context.Context, p *models.Project) (string, error) {
	prefix, err := DerivePrefix(p.PrefixSource())
	if err != nil {
		a.log.Warn("display id: %v, using timestamp fallback", err)
		return a.fallbackID(), nil
	}
	return a.Allocate(ctx, prefix)
}

// The fallback prefix is four letters so it can never collide with a derived
// two-letter counter scope or be picked up by its reconciliation scan.
func (a *Allocator) fallbackID() string {
	return fmt.Sprintf("TASK-%d", a.now().UnixMilli())
}
