package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileDescriptor describes an uploaded resume. Only the descriptor is ever
// persisted, never the file handle.
type FileDescriptor struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	StoragePath string `json:"storagePath,omitempty"`
}

// DraftData is the in-progress application form for one job.
type DraftData struct {
	FullName     string          `json:"fullName"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	PortfolioURL string          `json:"portfolioUrl,omitempty"`
	CoverLetter  string          `json:"coverLetter"`
	Resume       *FileDescriptor `json:"resume,omitempty"`
}

// IsZero reports whether no field has been filled in.
func (d DraftData) IsZero() bool {
	return d.FullName == "" && d.Email == "" && d.Phone == "" &&
		d.PortfolioURL == "" && d.CoverLetter == "" && d.Resume == nil
}

type ApplicationStatus string

// ApplicationStatusApplied is the only status the portal records. Later
// stages belong to the employer's tracking system.
const ApplicationStatusApplied ApplicationStatus = "applied"

// Application is a submitted application recorded by the local submitter.
type Application struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primary_key"`
	JobID     string    `json:"job_id" gorm:"size:64;not null;uniqueIndex:idx_applications_job_session"`
	SessionID string    `json:"session_id" gorm:"size:64;not null;uniqueIndex:idx_applications_job_session"`

	FullName     string `json:"full_name" gorm:"not null"`
	Email        string `json:"email" gorm:"not null;index"`
	Phone        string `json:"phone" gorm:"not null"`
	PortfolioURL string `json:"portfolio_url" gorm:""`
	CoverLetter  string `json:"cover_letter" gorm:"type:text;not null"`

	ResumeName        string `json:"resume_name" gorm:"not null"`
	ResumeSize        int64  `json:"resume_size" gorm:"not null"`
	ResumeContentType string `json:"resume_content_type" gorm:""`
	ResumePath        string `json:"-" gorm:""`

	Status      ApplicationStatus `json:"status" gorm:"size:32;not null;default:'applied'"`
	SubmittedAt time.Time         `json:"submitted_at" gorm:"not null"`

	CreatedAt time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate is a GORM hook that assigns an ID and submission time.
func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	if a.Status == "" {
		a.Status = ApplicationStatusApplied
	}
	return nil
}

// NewApplication builds the record for a validated form and its resume.
func NewApplication(jobID, sessionID string, d DraftData) *Application {
	app := &Application{
		JobID:        jobID,
		SessionID:    sessionID,
		FullName:     d.FullName,
		Email:        d.Email,
		Phone:        d.Phone,
		PortfolioURL: d.PortfolioURL,
		CoverLetter:  d.CoverLetter,
		Status:       ApplicationStatusApplied,
	}
	if d.Resume != nil {
		app.ResumeName = d.Resume.Name
		app.ResumeSize = d.Resume.Size
		app.ResumeContentType = d.Resume.ContentType
		app.ResumePath = d.Resume.StoragePath
	}
	return app
}
