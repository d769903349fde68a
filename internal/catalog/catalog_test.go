package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobboard-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.JobListing{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func listing(id string, posted time.Time, featured bool) models.JobListing {
	return models.JobListing{
		ID:           id,
		Title:        "Job " + id,
		Company:      "Acme",
		Location:     "Remote",
		LocationType: models.LocationRemote,
		Department:   models.DepartmentEngineering,
		Salary:       models.SalaryRange{Min: 1, Max: 2, Currency: "USD"},
		PostedDate:   posted,
		Requirements: []string{"Go", "SQL"},
		Featured:     featured,
	}
}

func TestDBSource(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&[]models.JobListing{
		listing("1", base, false),
		listing("2", base.Add(48*time.Hour), false),
		listing("3", base.Add(24*time.Hour), true),
	}).Error)

	src := NewDBSource(db)

	t.Run("list_featured_then_newest", func(t *testing.T) {
		jobs, err := src.List(ctx)
		require.NoError(t, err)
		ids := []string{}
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		assert.Equal(t, []string{"3", "2", "1"}, ids)
		assert.Equal(t, []string{"Go", "SQL"}, jobs[0].Requirements)
	})

	t.Run("get", func(t *testing.T) {
		job, err := src.Get(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "Job 2", job.Title)
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := src.Get(ctx, "404")
		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

type fakeLister struct {
	calls atomic.Int32
	jobs  []models.JobListing
	err   error
	delay time.Duration
}

func (f *fakeLister) ListOpenJobs(context.Context) ([]models.JobListing, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.jobs, f.err
}

func TestRemoteSource_CachesForTTL(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{jobs: []models.JobListing{listing("a", time.Now(), false)}}
	src := NewRemoteSource(lister, time.Minute, nil)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	_, err := src.List(ctx)
	require.NoError(t, err)
	_, err = src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), lister.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = src.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())

	src.Invalidate()
	job, err := src.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", job.ID)
	assert.Equal(t, int32(3), lister.calls.Load())

	_, err = src.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRemoteSource_StaleOnError(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{jobs: []models.JobListing{listing("a", time.Now(), false)}}
	src := NewRemoteSource(lister, time.Minute, nil)

	_, err := src.List(ctx)
	require.NoError(t, err)

	src.Invalidate()
	lister.err = errors.New("backend down")
	jobs, err := src.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestRemoteSource_ErrorWithoutSnapshot(t *testing.T) {
	src := NewRemoteSource(&fakeLister{err: errors.New("backend down")}, time.Minute, nil)

	_, err := src.List(context.Background())
	assert.Error(t, err)
}

func TestRemoteSource_ConcurrentRefreshIsShared(t *testing.T) {
	lister := &fakeLister{jobs: []models.JobListing{}, delay: 50 * time.Millisecond}
	src := NewRemoteSource(lister, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs, err := src.List(context.Background())
			assert.NoError(t, err)
			assert.NotNil(t, jobs)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), lister.calls.Load())
}
