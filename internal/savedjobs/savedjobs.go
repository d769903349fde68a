// Package savedjobs keeps the bookmarked job IDs of a browsing session.
package savedjobs

import (
	"context"
	"encoding/json"
	"sync"

	"jobboard-portal/internal/store"

	"go.uber.org/zap"
)

// Key is the fixed store key of the saved-jobs set.
const Key = "savedJobs"

// Set is an insertion-ordered set of job IDs. Every change is written
// through to the store; write failures are logged and the in-memory set
// stays authoritative for the rest of the session.
//
// When the stored set cannot be read the Set is degraded: changes are kept
// in memory and nothing is written until a later read succeeds and the
// stored IDs have been merged back in.
type Set struct {
	store  store.Store
	logger *zap.Logger

	mu       sync.Mutex
	ids      []string
	degraded bool
	removed  map[string]bool
}

// Load reads the persisted set. A missing or corrupt value yields an empty
// set, an unreadable one a degraded empty set.
func Load(ctx context.Context, s store.Store, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := &Set{store: s, logger: logger, ids: make([]string, 0)}

	stored, err := set.read(ctx)
	if err != nil {
		logger.Warn("Failed to read saved jobs, keeping changes in memory", zap.Error(err))
		set.degraded = true
		set.removed = make(map[string]bool)
		return set
	}
	for _, id := range stored {
		if !set.contains(id) {
			set.ids = append(set.ids, id)
		}
	}
	return set
}

// read returns the stored IDs. Only a failed store read is an error.
func (s *Set) read(ctx context.Context) ([]string, error) {
	raw, err := s.store.Get(ctx, Key)
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn("Ignoring corrupt saved jobs entry", zap.Error(err))
		return nil, nil
	}
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// Degraded reports whether changes are currently held in memory only.
func (s *Set) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Toggle flips the saved state of jobID and returns the new state.
func (s *Set) Toggle(ctx context.Context, jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contains(jobID) {
		s.remove(jobID)
		s.persist(ctx)
		return false
	}
	s.add(jobID)
	s.persist(ctx)
	return true
}

// Save adds jobID. It reports false when it was already saved.
func (s *Set) Save(ctx context.Context, jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contains(jobID) {
		return false
	}
	s.add(jobID)
	s.persist(ctx)
	return true
}

// Unsave removes jobID. It reports false when it was not saved.
func (s *Set) Unsave(ctx context.Context, jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.contains(jobID) {
		return false
	}
	s.remove(jobID)
	s.persist(ctx)
	return true
}

func (s *Set) IsSaved(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contains(jobID)
}

// List returns the saved IDs in the order they were saved.
func (s *Set) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Set) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Clear removes every bookmark.
func (s *Set) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = s.ids[:0]
	if err := s.store.Remove(ctx, Key); err != nil {
		s.logger.Error("Failed to clear saved jobs", zap.Error(err))
		return
	}
	s.degraded = false
	s.removed = nil
}

func (s *Set) contains(jobID string) bool {
	for _, id := range s.ids {
		if id == jobID {
			return true
		}
	}
	return false
}

func (s *Set) add(jobID string) {
	s.ids = append(s.ids, jobID)
	if s.degraded {
		delete(s.removed, jobID)
	}
}

func (s *Set) remove(jobID string) {
	if s.degraded {
		s.removed[jobID] = true
	}
	for i, id := range s.ids {
		if id == jobID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *Set) persist(ctx context.Context) {
	if s.degraded && !s.recover(ctx) {
		return
	}
	b, err := json.Marshal(s.ids)
	if err == nil {
		err = s.store.Set(ctx, Key, string(b))
	}
	if err != nil {
		s.logger.Error("Failed to persist saved jobs", zap.Int("count", len(s.ids)), zap.Error(err))
	}
}

// recover re-reads the stored set and merges it with the changes made while
// degraded: stored IDs keep their order, minus the ones removed since, and
// IDs saved in memory follow.
func (s *Set) recover(ctx context.Context) bool {
	stored, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("Saved jobs still unreadable, not persisting", zap.Int("count", len(s.ids)), zap.Error(err))
		return false
	}

	merged := make([]string, 0, len(stored)+len(s.ids))
	seen := make(map[string]bool, cap(merged))
	for _, id := range stored {
		if !s.removed[id] && !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range s.ids {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	s.ids = merged
	s.degraded = false
	s.removed = nil
	s.logger.Info("Saved jobs readable again", zap.Int("count", len(s.ids)))
	return true
}
