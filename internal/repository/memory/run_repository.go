// Package memory provides in-memory implementations of repository interfaces.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/limiquantix/mlfq/internal/domain"
)

type runEntry struct {
	run       *domain.Run
	expiresAt time.Time // zero when the entry never expires
}

// RunRepository is an in-memory implementation of simulation.RunRepository.
// Entries older than the configured TTL are invisible and pruned on write.
type RunRepository struct {
	mu    sync.RWMutex
	runs  map[string]runEntry
	ttl   time.Duration
	clock clock.PassiveClock
}

// NewRunRepository creates a new in-memory run repository. A ttl of zero
// keeps records forever.
func NewRunRepository(ttl time.Duration) *RunRepository {
	return newRunRepository(ttl, clock.RealClock{})
}

func newRunRepository(ttl time.Duration, clk clock.PassiveClock) *RunRepository {
	return &RunRepository{
		runs:  make(map[string]runEntry),
		ttl:   ttl,
		clock: clk,
	}
}

// Create stores a new run.
func (r *RunRepository) Create(_ context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	r.pruneLocked(now)

	// Generate ID if not provided
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}

	entry := runEntry{run: copyRun(run)}
	if r.ttl > 0 {
		entry.expiresAt = now.Add(r.ttl)
	}
	r.runs[run.ID] = entry

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(_ context.Context, id string) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.runs[id]
	if !ok || entry.expired(r.clock.Now()) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}

	// Return a copy
	return copyRun(entry.run), nil
}

// List returns up to limit runs, newest first.
func (r *RunRepository) List(_ context.Context, limit int) ([]*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.clock.Now()
	result := make([]*domain.Run, 0, len(r.runs))
	for _, entry := range r.runs {
		if entry.expired(now) {
			continue
		}
		result = append(result, copyRun(entry.run))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Health always succeeds for the in-memory store.
func (r *RunRepository) Health(_ context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (r *RunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.runs)
}

func (r *RunRepository) pruneLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, entry := range r.runs {
		if entry.expired(now) {
			delete(r.runs, id)
		}
	}
}

func (e runEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func copyRun(run *domain.Run) *domain.Run {
	c := *run
	if run.Interrupts != nil {
		c.Interrupts = make(map[string]int64, len(run.Interrupts))
		for k, v := range run.Interrupts {
			c.Interrupts[k] = v
		}
	}
	c.Completions = append([]domain.Completion(nil), run.Completions...)
	return &c
}
