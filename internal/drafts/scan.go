package drafts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jobboard-portal/internal/store"
)

// CorruptEntry is a draft key whose value can no longer be decoded.
type CorruptEntry struct {
	Key    string `json:"key"`
	JobID  string `json:"job_id"`
	Reason string `json:"reason"`
}

// Scan walks every draft in s, across all session namespaces, and returns
// the ones that fail to decode. Managers never delete these on their own.
func Scan(ctx context.Context, s store.Store) ([]CorruptEntry, error) {
	keys, err := s.Keys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)

	var corrupt []CorruptEntry
	for _, key := range keys {
		jobID, ok := draftJobID(key)
		if !ok {
			continue
		}
		raw, err := s.Get(ctx, key)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return corrupt, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if _, err := Decode(jobID, raw); err != nil {
			corrupt = append(corrupt, CorruptEntry{Key: key, JobID: jobID, Reason: err.Error()})
		}
	}
	return corrupt, nil
}

// Purge removes the given entries and returns how many were deleted. Each
// key is read again first: entries that were rewritten with a valid draft
// or removed since the scan are skipped.
func Purge(ctx context.Context, s store.Store, entries []CorruptEntry) (int, error) {
	removed := 0
	for _, e := range entries {
		raw, err := s.Get(ctx, e.Key)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to read %s: %w", e.Key, err)
		}
		if _, err := Decode(e.JobID, raw); err == nil {
			continue
		}
		if err := s.Remove(ctx, e.Key); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Key, err)
		}
		removed++
	}
	return removed, nil
}

// draftJobID extracts the job ID from a draft key, with or without a
// session namespace in front of it.
func draftJobID(key string) (string, bool) {
	name := key
	if i := strings.LastIndex(key, ":"); i >= 0 {
		name = key[i+1:]
	}
	if !strings.HasPrefix(name, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, KeyPrefix), true
}
