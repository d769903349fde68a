package handlers

import (
	"errors"
	"net/http"

	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SavedJobsHandler struct {
	source catalog.Source
	logger *zap.Logger
}

func NewSavedJobsHandler(source catalog.Source, logger *zap.Logger) *SavedJobsHandler {
	return &SavedJobsHandler{
		source: source,
		logger: logger,
	}
}

// ListSavedJobs handles listing bookmarks
// @Summary List saved jobs
// @Description Saved job IDs in the order they were saved, with the listings that still exist
// @Tags saved-jobs
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/saved-jobs [get]
func (h *SavedJobsHandler) ListSavedJobs(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	ids := s.Saved.List()
	jobs := make([]models.JobListing, 0, len(ids))
	for _, id := range ids {
		job, err := h.source.Get(c.Request.Context(), id)
		if errors.Is(err, catalog.ErrJobNotFound) {
			continue
		}
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		jobs = append(jobs, job)
	}

	c.JSON(http.StatusOK, gin.H{
		"ids":   ids,
		"jobs":  jobs,
		"count": len(ids),
	})
}

// ToggleSavedJob handles flipping a bookmark
// @Summary Toggle saved job
// @Tags saved-jobs
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/saved-jobs/{id}/toggle [post]
func (h *SavedJobsHandler) ToggleSavedJob(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	jobID := c.Param("id")
	if _, err := h.source.Get(c.Request.Context(), jobID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	saved := s.Saved.Toggle(c.Request.Context(), jobID)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "saved": saved, "count": s.Saved.Count()})
}

// SaveJob handles adding a bookmark
// @Summary Save job
// @Tags saved-jobs
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/saved-jobs/{id} [put]
func (h *SavedJobsHandler) SaveJob(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	jobID := c.Param("id")
	if _, err := h.source.Get(c.Request.Context(), jobID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	added := s.Saved.Save(c.Request.Context(), jobID)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "saved": true, "changed": added, "count": s.Saved.Count()})
}

// UnsaveJob handles removing a bookmark
// @Summary Unsave job
// @Tags saved-jobs
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/saved-jobs/{id} [delete]
func (h *SavedJobsHandler) UnsaveJob(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}
	jobID := c.Param("id")

	removed := s.Saved.Unsave(c.Request.Context(), jobID)
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "saved": false, "changed": removed, "count": s.Saved.Count()})
}

// ClearSavedJobs handles removing every bookmark
// @Summary Clear saved jobs
// @Tags saved-jobs
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/saved-jobs [delete]
func (h *SavedJobsHandler) ClearSavedJobs(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	s.Saved.Clear(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Saved jobs cleared", "count": 0})
}
