package application

import (
	"context"
	"errors"
	"fmt"

	"jobboard-portal/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyApplied is returned when a session applies twice to one job.
var ErrAlreadyApplied = errors.New("already applied to this job")

// Request is what gets submitted: a validated snapshot of the form.
type Request struct {
	SessionID string
	Job       models.JobListing
	Draft     models.DraftData
}

// Submitter delivers an application. Implementations must honour ctx
// cancellation.
type Submitter interface {
	Submit(ctx context.Context, req Request) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req Request) error

func (f SubmitterFunc) Submit(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Notifier is told about every successful submission.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, req Request) error
}

// RepositorySubmitter records applications in the local database.
type RepositorySubmitter struct {
	db *gorm.DB
}

func NewRepositorySubmitter(db *gorm.DB) *RepositorySubmitter {
	return &RepositorySubmitter{db: db}
}

func (s *RepositorySubmitter) Submit(ctx context.Context, req Request) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Application{}).
			Where("job_id = ? AND session_id = ?", req.Job.ID, req.SessionID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing applications: %w", err)
		}
		if count > 0 {
			return ErrAlreadyApplied
		}

		app := models.NewApplication(req.Job.ID, req.SessionID, req.Draft)
		if err := tx.Create(app).Error; err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		return nil
	})
}

// ListBySession returns the applications a session has submitted, newest first.
func (s *RepositorySubmitter) ListBySession(ctx context.Context, sessionID string) ([]models.Application, error) {
	var apps []models.Application
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("submitted_at DESC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}
