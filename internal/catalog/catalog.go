// Package catalog provides the job listings the board searches over, either
// from the local database or from the upstream backend.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jobboard-portal/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("job not found")

// Source lists the job catalog. List returns the catalog in display order.
type Source interface {
	List(ctx context.Context) ([]models.JobListing, error)
	Get(ctx context.Context, id string) (models.JobListing, error)
}

// DBSource reads listings from the job_listings table.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) List(ctx context.Context) ([]models.JobListing, error) {
	var jobs []models.JobListing
	if err := s.db.WithContext(ctx).
		Order("featured DESC, posted_date DESC, id ASC").
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func (s *DBSource) Get(ctx context.Context, id string) (models.JobListing, error) {
	var job models.JobListing
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return job, ErrJobNotFound
		}
		return job, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// Lister is the upstream call RemoteSource caches.
type Lister interface {
	ListOpenJobs(ctx context.Context) ([]models.JobListing, error)
}

// RemoteSource caches the backend's open jobs for ttl. A failed refresh
// serves the previous snapshot when there is one.
type RemoteSource struct {
	lister Lister
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
	group  singleflight.Group

	mu        sync.RWMutex
	jobs      []models.JobListing
	fetchedAt time.Time
}

func NewRemoteSource(lister Lister, ttl time.Duration, logger *zap.Logger) *RemoteSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{lister: lister, ttl: ttl, logger: logger, now: time.Now}
}

func (s *RemoteSource) List(ctx context.Context) ([]models.JobListing, error) {
	s.mu.RLock()
	jobs, fetchedAt := s.jobs, s.fetchedAt
	s.mu.RUnlock()

	if jobs != nil && s.now().Sub(fetchedAt) < s.ttl {
		return jobs, nil
	}

	v, err, _ := s.group.Do("jobs", func() (interface{}, error) {
		fresh, err := s.lister.ListOpenJobs(ctx)
		if err != nil {
			return nil, err
		}
		if fresh == nil {
			fresh = []models.JobListing{}
		}
		s.mu.Lock()
		s.jobs, s.fetchedAt = fresh, s.now()
		s.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		if jobs != nil {
			s.logger.Warn("Serving stale job catalog", zap.Time("fetched_at", fetchedAt), zap.Error(err))
			return jobs, nil
		}
		return nil, fmt.Errorf("failed to load job catalog: %w", err)
	}
	return v.([]models.JobListing), nil
}

func (s *RemoteSource) Get(ctx context.Context, id string) (models.JobListing, error) {
	jobs, err := s.List(ctx)
	if err != nil {
		return models.JobListing{}, err
	}
	return find(jobs, id)
}

// Invalidate forces the next List to hit the backend.
func (s *RemoteSource) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.mu.Unlock()
}

func find(jobs []models.JobListing, id string) (models.JobListing, error) {
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return models.JobListing{}, ErrJobNotFound
}
