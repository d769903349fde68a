// Package drafts persists partially filled application forms, one per job.
package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"jobboard-portal/internal/models"
	"jobboard-portal/internal/store"

	"go.uber.org/zap"
)

// KeyPrefix namespaces draft entries inside a session's store.
const KeyPrefix = "applicationDraft_"

const envelopeVersion = 1

// Form field names accepted by UpdateField.
const (
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldPortfolioURL = "portfolioUrl"
	FieldCoverLetter  = "coverLetter"
)

var (
	ErrUnknownField = errors.New("unknown draft field")
	errCorrupt      = errors.New("corrupt draft")
)

// Key returns the store key of the draft for jobID.
func Key(jobID string) string {
	return KeyPrefix + jobID
}

type envelope struct {
	Version   int              `json:"version"`
	JobID     string           `json:"jobId"`
	LastSaved time.Time        `json:"lastSaved"`
	Data      models.DraftData `json:"data"`
}

// Manager owns every read and write of drafts for one browsing session.
// When the store refuses a write the latest draft is kept in memory, so the
// session keeps working with a non-durable copy.
type Manager struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	volatile map[string]models.DraftData
}

func NewManager(s store.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:    s,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		volatile: make(map[string]models.DraftData),
	}
}

// LoadDraft returns the draft for jobID. Missing, unreadable and corrupt
// entries all report absent; corrupt entries are left in the store.
func (m *Manager) LoadDraft(ctx context.Context, jobID string) (models.DraftData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok, _ := m.load(ctx, jobID)
	return d, ok
}

// ReadDraft is LoadDraft for callers that must not mistake a failed read
// for a missing draft. The error is set only when the store could not be
// read; missing and corrupt entries report absent with a nil error.
func (m *Manager) ReadDraft(ctx context.Context, jobID string) (models.DraftData, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, jobID)
}

func (m *Manager) load(ctx context.Context, jobID string) (models.DraftData, bool, error) {
	if d, ok := m.volatile[jobID]; ok {
		return d, true, nil
	}

	raw, err := m.store.Get(ctx, Key(jobID))
	if err != nil {
		if store.IsNotFound(err) {
			return models.DraftData{}, false, nil
		}
		m.logger.Warn("Failed to read draft", zap.String("job_id", jobID), zap.Error(err))
		return models.DraftData{}, false, fmt.Errorf("failed to read draft %s: %w", jobID, err)
	}

	d, err := Decode(jobID, raw)
	if err != nil {
		m.logger.Warn("Ignoring corrupt draft",
			zap.String("job_id", jobID),
			zap.String("key", Key(jobID)),
			zap.Error(err),
		)
		return models.DraftData{}, false, nil
	}
	return d, true, nil
}

// SaveDraft overwrites the draft for jobID with d and reports whether the
// write reached the store.
func (m *Manager) SaveDraft(ctx context.Context, jobID string, d models.DraftData) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(ctx, jobID, d)
}

func (m *Manager) save(ctx context.Context, jobID string, d models.DraftData) bool {
	raw, err := Encode(jobID, d, m.now())
	if err == nil {
		err = m.store.Set(ctx, Key(jobID), raw)
	}
	if err != nil {
		m.logger.Error("Failed to persist draft, keeping it in memory",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		m.volatile[jobID] = d
		return false
	}
	delete(m.volatile, jobID)
	return true
}

// UpdateField applies a single field edit on top of the current draft and
// saves the result. Nothing is written when the current draft cannot be
// read, so the stored copy is never replaced by a partial one.
func (m *Manager) UpdateField(ctx context.Context, jobID, field, value string) (models.DraftData, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, _, err := m.load(ctx, jobID)
	if err != nil {
		return d, false, err
	}
	if err := SetField(&d, field, value); err != nil {
		return d, false, err
	}
	return d, m.save(ctx, jobID, d), nil
}

// ClearDraft removes both the durable and the in-memory copy.
func (m *Manager) ClearDraft(ctx context.Context, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.volatile, jobID)
	if err := m.store.Remove(ctx, Key(jobID)); err != nil {
		m.logger.Error("Failed to remove draft", zap.String("job_id", jobID), zap.Error(err))
	}
}

// JobIDs lists, sorted, the jobs that currently have a draft, durable or not.
func (m *Manager) JobIDs(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool)
	ids := []string{}
	keys, err := m.store.Keys(ctx, KeyPrefix)
	if err != nil {
		m.logger.Warn("Failed to list drafts", zap.Error(err))
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, KeyPrefix)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range m.volatile {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetField assigns value to the named form field of d.
func SetField(d *models.DraftData, field, value string) error {
	switch field {
	case FieldFullName:
		d.FullName = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	case FieldPortfolioURL:
		d.PortfolioURL = value
	case FieldCoverLetter:
		d.CoverLetter = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// FieldValue returns the named form field of d.
func FieldValue(d models.DraftData, field string) (string, error) {
	switch field {
	case FieldFullName:
		return d.FullName, nil
	case FieldEmail:
		return d.Email, nil
	case FieldPhone:
		return d.Phone, nil
	case FieldPortfolioURL:
		return d.PortfolioURL, nil
	case FieldCoverLetter:
		return d.CoverLetter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// Encode renders the stored form of a draft.
func Encode(jobID string, d models.DraftData, savedAt time.Time) (string, error) {
	b, err := json.Marshal(envelope{
		Version:   envelopeVersion,
		JobID:     jobID,
		LastSaved: savedAt,
		Data:      d,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode draft: %w", err)
	}
	return string(b), nil
}

// Decode parses a stored draft and checks that it belongs to jobID.
func Decode(jobID, raw string) (models.DraftData, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return models.DraftData{}, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if dec.More() {
		return models.DraftData{}, fmt.Errorf("%w: trailing data", errCorrupt)
	}
	if env.Version != envelopeVersion {
		return models.DraftData{}, fmt.Errorf("%w: unsupported version %d", errCorrupt, env.Version)
	}
	if env.JobID != jobID {
		return models.DraftData{}, fmt.Errorf("%w: belongs to job %q", errCorrupt, env.JobID)
	}
	return env.Data, nil
}
