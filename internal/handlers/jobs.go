package handlers

import (
	"net/http"
	"strconv"

	"jobboard-portal/internal/board"
	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/middleware"
	"jobboard-portal/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JobHandler struct {
	source   catalog.Source
	pageSize int
	logger   *zap.Logger
}

func NewJobHandler(source catalog.Source, pageSize int, logger *zap.Logger) *JobHandler {
	if pageSize <= 0 {
		pageSize = 6
	}
	return &JobHandler{
		source:   source,
		pageSize: pageSize,
		logger:   logger,
	}
}

// JobView is a listing plus the caller's bookmark flag.
type JobView struct {
	models.JobListing
	Saved bool `json:"saved"`
}

// JobListResponse is one page of the filtered board.
type JobListResponse struct {
	Jobs       []JobView        `json:"jobs"`
	Criteria   board.Criteria   `json:"criteria"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	HasNext    bool             `json:"has_next"`
	HasPrev    bool             `json:"has_prev"`
	Pages      []board.PageLink `json:"pages"`
}

// ListJobs handles the filtered, paginated job board
// @Summary List jobs
// @Description Filter the catalog and return one page. With a session, the search and page are remembered and a changed search goes back to page 1.
// @Tags jobs
// @Produce json
// @Param search query string false "Case-insensitive match on title, company or description"
// @Param department query string false "Department or 'All Departments'"
// @Param location_type query string false "Remote, Hybrid, On-site or 'All Types'"
// @Param page query int false "Page number"
// @Success 200 {object} JobListResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	jobs, err := h.source.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load jobs", "code": "CATALOG_UNAVAILABLE"})
		return
	}

	view := board.NewView()
	s, hasSession := middleware.CurrentSession(c)
	if hasSession {
		view = s.View
	}

	requested, _ := strconv.Atoi(c.Query("page"))
	var criteria board.Criteria
	var pageNum int
	if hasFilterQuery(c) || !hasSession {
		criteria, pageNum = view.Apply(board.NewCriteria(c.Query("search"), c.Query("department"), c.Query("location_type")), requested)
	} else {
		criteria, pageNum = view.Turn(requested)
	}

	page, err := board.Paginate(board.Filter(jobs, criteria), h.pageSize, pageNum)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	items := make([]JobView, 0, len(page.Items))
	for _, j := range page.Items {
		items = append(items, JobView{
			JobListing: j,
			Saved:      hasSession && s.Saved.IsSaved(j.ID),
		})
	}

	c.JSON(http.StatusOK, JobListResponse{
		Jobs:       items,
		Criteria:   criteria,
		Page:       page.PageNumber,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
		Pages:      board.VisiblePages(page.PageNumber, page.TotalPages),
	})
}

func hasFilterQuery(c *gin.Context) bool {
	for _, k := range []string{"search", "department", "location_type"} {
		if _, ok := c.GetQuery(k); ok {
			return true
		}
	}
	return false
}

// GetJob handles getting a single listing
// @Summary Get job by ID
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} JobView
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	view := JobView{JobListing: job}
	if s, ok := middleware.CurrentSession(c); ok {
		view.Saved = s.Saved.IsSaved(job.ID)
	}
	c.JSON(http.StatusOK, view)
}

// GetFilters handles the selector options
// @Summary Filter options
// @Description Department and location type choices, each starting with its "all" sentinel
// @Tags jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/jobs/filters [get]
func (h *JobHandler) GetFilters(c *gin.Context) {
	departments := append([]string{board.AllDepartments}, models.Departments...)

	locationTypes := []string{board.AllLocationTypes}
	for _, lt := range models.LocationTypes {
		locationTypes = append(locationTypes, string(lt))
	}

	c.JSON(http.StatusOK, gin.H{
		"departments":    departments,
		"location_types": locationTypes,
		"page_size":      h.pageSize,
	})
}
