package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"jobboard-portal/internal/application"
	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/models"
	"jobboard-portal/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationLister returns the applications a session has already sent.
type ApplicationLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Application, error)
}

type ApplicationHandler struct {
	source     catalog.Source
	rules      application.FileRules
	uploadPath string
	history    ApplicationLister
	logger     *zap.Logger
}

// NewApplicationHandler builds the form endpoints. history may be nil when
// applications are not recorded locally.
func NewApplicationHandler(source catalog.Source, rules application.FileRules, uploadPath string, history ApplicationLister, logger *zap.Logger) *ApplicationHandler {
	if uploadPath == "" {
		uploadPath = "./storage/resumes"
	}
	return &ApplicationHandler{
		source:     source,
		rules:      rules,
		uploadPath: uploadPath,
		history:    history,
		logger:     logger,
	}
}

// UpdateApplicationRequest is a partial form update keyed by field name:
// fullName, email, phone, portfolioUrl or coverLetter.
type UpdateApplicationRequest map[string]string

// flow resolves the job and returns its form in the caller's session.
func (h *ApplicationHandler) flow(c *gin.Context) (*session.Session, *application.Flow, bool) {
	s, ok := requireSession(c)
	if !ok {
		return nil, nil, false
	}
	job, err := h.source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return nil, nil, false
	}
	return s, s.Flow(job), true
}

// OpenApplication handles opening the form
// @Summary Open application form
// @Description Open the form for a job, restoring a saved draft when there is one
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} application.Snapshot
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application [post]
func (h *ApplicationHandler) OpenApplication(c *gin.Context) {
	_, f, ok := h.flow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, f.Open(c.Request.Context()))
}

// GetApplication handles reading the form state
// @Summary Get application form
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} application.Snapshot
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	f, ok := s.ExistingFlow(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Application form was never opened", "code": "FORM_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, f.Snapshot())
}

// UpdateApplication handles field edits
// @Summary Edit application fields
// @Description Apply field edits and autosave the draft. "durable" is false when the draft could only be kept in memory.
// @Tags applications
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param request body UpdateApplicationRequest true "Changed fields"
// @Success 200 {object} application.Snapshot
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application [patch]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	var req UpdateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "code": "INVALID_REQUEST", "details": err.Error()})
		return
	}

	_, f, ok := h.flow(c)
	if !ok {
		return
	}

	snap, err := f.SetFields(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// UploadResume handles attaching the resume
// @Summary Upload resume
// @Description Attach a resume (.pdf, .doc or .docx, at most 5MB) to the form
// @Tags applications
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Job ID"
// @Param resume formData file true "Resume file"
// @Success 200 {object} application.Snapshot
// @Failure 400 {object} map[string]interface{}
// @Failure 413 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application/resume [put]
func (h *ApplicationHandler) UploadResume(c *gin.Context) {
	s, f, ok := h.flow(c)
	if !ok {
		return
	}

	if h.rules.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.rules.MaxSize+1<<20)
	}
	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.logger, h.rules.CheckFile("", h.rules.MaxSize+1))
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume is required", "code": application.CodeResumeRequired})
		return
	}
	defer file.Close()

	if err := h.rules.CheckFile(header.Filename, header.Size); err != nil {
		respondError(c, h.logger, err)
		return
	}

	previous := f.Snapshot().Data.Resume

	path, err := h.storeFile(s.ID, file, filepath.Ext(header.Filename))
	if err != nil {
		h.logger.Error("Failed to store resume", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file", "code": "STORAGE_ERROR"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	snap, err := f.AttachResume(c.Request.Context(), models.FileDescriptor{
		Name:        filepath.Base(header.Filename),
		Size:        header.Size,
		ContentType: contentType,
		StoragePath: path,
	})
	if err != nil {
		h.removeFile(path)
		respondError(c, h.logger, err)
		return
	}
	if previous != nil {
		h.removeFile(previous.StoragePath)
	}

	h.logger.Info("Resume attached",
		zap.String("session_id", s.ID),
		zap.String("job_id", f.Job().ID),
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	c.JSON(http.StatusOK, snap)
}

// RemoveResume handles detaching the resume
// @Summary Remove resume
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} application.Snapshot
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application/resume [delete]
func (h *ApplicationHandler) RemoveResume(c *gin.Context) {
	_, f, ok := h.flow(c)
	if !ok {
		return
	}

	old, snap, err := f.DetachResume(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if old != nil {
		h.removeFile(old.StoragePath)
	}
	c.JSON(http.StatusOK, snap)
}

// SubmitApplication handles submission
// @Summary Submit application
// @Description Validate the form and send it. On success the draft is cleared and the form closes. On failure the form stays open with its data.
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} application.Outcome
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application/submit [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	_, f, ok := h.flow(c)
	if !ok {
		return
	}

	outcome, err := f.Submit(c.Request.Context())
	if err == nil {
		c.JSON(http.StatusOK, outcome)
		return
	}

	var serr *application.SubmissionError
	if errors.As(err, &serr) && !errors.Is(err, application.ErrAlreadyApplied) {
		code := "SUBMISSION_FAILED"
		if serr.Timeout {
			code = "SUBMISSION_TIMEOUT"
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error":        "Failed to submit application",
			"code":         code,
			"state":        outcome.State,
			"notification": outcome.Notification,
		})
		return
	}
	respondError(c, h.logger, err)
}

// DiscardApplication handles throwing the draft away
// @Summary Discard application
// @Description Delete the saved draft and any uploaded resume, then close the form
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application/discard [post]
func (h *ApplicationHandler) DiscardApplication(c *gin.Context) {
	s, f, ok := h.flow(c)
	if !ok {
		return
	}

	draft, hadDraft := s.Drafts.LoadDraft(c.Request.Context(), f.Job().ID)
	if err := f.Discard(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if hadDraft && draft.Resume != nil {
		h.removeFile(draft.Resume.StoragePath)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded", "job_id": f.Job().ID})
}

// CloseApplication handles dismissing the form
// @Summary Close application form
// @Description Close the form. The draft is kept and an in-flight submission is cancelled.
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/application [delete]
func (h *ApplicationHandler) CloseApplication(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	if f, ok := s.ExistingFlow(c.Param("id")); ok {
		f.Close()
	}
	c.JSON(http.StatusOK, gin.H{"message": "Application form closed", "job_id": c.Param("id")})
}

// GetDraft handles raw draft lookup
// @Summary Get saved draft
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/jobs/{id}/draft [get]
func (h *ApplicationHandler) GetDraft(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	jobID := c.Param("id")
	draft, found := s.Drafts.LoadDraft(c.Request.Context(), jobID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No draft saved for this job", "code": "DRAFT_NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "data": draft})
}

// ListDrafts handles listing jobs with a draft
// @Summary List drafts
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/drafts [get]
func (h *ApplicationHandler) ListDrafts(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_ids": s.Drafts.JobIDs(c.Request.Context())})
}

// ListApplications handles the submission history
// @Summary List submitted applications
// @Tags applications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 501 {object} map[string]interface{}
// @Router /api/v1/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Applications are sent to the upstream service and not recorded here", "code": "NOT_SUPPORTED"})
		return
	}

	apps, err := h.history.ListBySession(c.Request.Context(), s.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps, "count": len(apps)})
}

func (h *ApplicationHandler) storeFile(sessionID string, file multipart.File, ext string) (string, error) {
	dir := filepath.Join(h.uploadPath, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, uuid.New().String()+strings.ToLower(ext))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// removeFile deletes a stored resume. Paths outside the upload directory are
// ignored.
func (h *ApplicationHandler) removeFile(path string) {
	if path == "" {
		return
	}
	root, err := filepath.Abs(h.uploadPath)
	if err != nil {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil || !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("Failed to remove resume", zap.String("path", path), zap.Error(err))
	}
}
