package database

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"jobboard-portal/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed/jobs.yaml
var defaultCatalog []byte

type catalogFile struct {
	Jobs []models.JobListing `yaml:"jobs"`
}

// DefaultCatalog returns the embedded development job listings.
func DefaultCatalog() ([]models.JobListing, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalog))
}

// LoadCatalogFile reads a YAML catalog from path.
func LoadCatalogFile(path string) ([]models.JobListing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes a YAML catalog and validates every listing.
func ParseCatalog(r io.Reader) ([]models.JobListing, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Jobs))
	for i := range file.Jobs {
		job := &file.Jobs[i]
		if job.Requirements == nil {
			job.Requirements = []string{}
		}
		if job.Salary.Currency == "" {
			job.Salary.Currency = "USD"
		}
		if err := job.Validate(); err != nil {
			return nil, err
		}
		if seen[job.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", models.ErrInvalidListing, job.ID)
		}
		seen[job.ID] = true
	}
	return file.Jobs, nil
}

// SeedJobs inserts the embedded catalog when the job table is empty.
func SeedJobs(db *gorm.DB, logger *zap.Logger) error {
	var count int64
	if err := db.Model(&models.JobListing{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count jobs: %w", err)
	}
	if count > 0 {
		logger.Debug("Job catalog already seeded", zap.Int64("jobs", count))
		return nil
	}

	jobs, err := DefaultCatalog()
	if err != nil {
		return err
	}
	n, err := UpsertJobs(db, jobs)
	if err != nil {
		return err
	}
	logger.Info("Seeded job catalog", zap.Int("jobs", n))
	return nil
}

// UpsertJobs writes jobs in one transaction, replacing listings with the
// same id.
func UpsertJobs(db *gorm.DB, jobs []models.JobListing) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&jobs).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert jobs: %w", err)
	}
	return len(jobs), nil
}
