// Package session holds the per-browsing-session state objects: board view,
// saved jobs, drafts and the open application forms.
package session

import (
	"context"
	"sync"
	"time"

	"jobboard-portal/internal/application"
	"jobboard-portal/internal/board"
	"jobboard-portal/internal/drafts"
	"jobboard-portal/internal/models"
	"jobboard-portal/internal/savedjobs"
	"jobboard-portal/internal/store"

	"go.uber.org/zap"
)

// Namespace returns the store key prefix of a session.
func Namespace(id string) string {
	return "session:" + id + ":"
}

// FlowConfig is shared by every application form the registry creates.
type FlowConfig struct {
	Submitter application.Submitter
	Notifier  application.Notifier
	Rules     application.FileRules
	Timeout   time.Duration
}

// Session is the state of one anonymous visitor.
type Session struct {
	ID     string
	View   *board.View
	Saved  *savedjobs.Set
	Drafts *drafts.Manager

	flowCfg FlowConfig
	logger  *zap.Logger

	mu       sync.Mutex
	flows    map[string]*application.Flow
	lastSeen time.Time
}

// Flow returns the application form for job, creating it on first use.
func (s *Session) Flow(job models.JobListing) *application.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.flows[job.ID]; ok {
		return f
	}
	f := application.NewFlow(job, application.Options{
		SessionID: s.ID,
		Drafts:    s.Drafts,
		Submitter: s.flowCfg.Submitter,
		Notifier:  s.flowCfg.Notifier,
		Rules:     s.flowCfg.Rules,
		Timeout:   s.flowCfg.Timeout,
		Logger:    s.logger,
	})
	s.flows[job.ID] = f
	return f
}

// ExistingFlow returns the form for jobID if one was ever opened.
func (s *Session) ExistingFlow(jobID string) (*application.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[jobID]
	return f, ok
}

func (s *Session) closeAll() {
	s.mu.Lock()
	flows := make([]*application.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		flows = append(flows, f)
	}
	s.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps the live sessions of this process. Durable state lives in
// the store, so a session evicted from memory is rebuilt on its next request.
type Registry struct {
	store   store.Store
	flowCfg FlowConfig
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(s store.Store, flowCfg FlowConfig, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:    s,
		flowCfg:  flowCfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id, loading it from the store if it is not
// in memory yet.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.touch(r.now())
		return s
	}

	logger := r.logger.With(zap.String("session_id", id))
	ns := store.WithPrefix(r.store, Namespace(id))
	s := &Session{
		ID:       id,
		View:     board.NewView(),
		Saved:    savedjobs.Load(ctx, ns, logger),
		Drafts:   drafts.NewManager(ns, logger),
		flowCfg:  r.flowCfg,
		logger:   logger,
		flows:    make(map[string]*application.Flow),
		lastSeen: r.now(),
	}
	r.sessions[id] = s
	logger.Debug("Session loaded")
	return s
}

// Drop closes every open form of the session and forgets its in-memory
// state. Persisted drafts and saved jobs are kept.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.closeAll()
	}
}

// Evict drops sessions that have been idle for longer than idle and returns
// how many were removed.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.closeAll()
	}
	if len(stale) > 0 {
		r.logger.Info("Evicted idle sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Store returns the shared store, unscoped.
func (r *Registry) Store() store.Store {
	return r.store
}
