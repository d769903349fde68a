package handlers

import (
	"errors"
	"net/http"

	"jobboard-portal/internal/application"
	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/drafts"
	"jobboard-portal/internal/middleware"
	"jobboard-portal/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requireSession returns the request's session or answers 401.
func requireSession(c *gin.Context) (*session.Session, bool) {
	s, ok := middleware.CurrentSession(c)
	if !ok || s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Session not found",
			"code":  "MISSING_SESSION",
		})
		return nil, false
	}
	return s, true
}

// respondError maps domain errors onto the JSON error envelope. Unknown
// errors are logged and reported as 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		verr *application.ValidationError
		ferr *application.FileError
		serr *application.SubmissionError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Please fix the highlighted fields",
			"code":   "VALIDATION_FAILED",
			"fields": verr.Fields,
		})
	case errors.As(err, &ferr):
		status := http.StatusBadRequest
		if ferr.Code == application.CodeFileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": ferr.Message, "code": ferr.Code})
	case errors.Is(err, application.ErrAlreadyApplied):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already applied to this job", "code": "ALREADY_APPLIED"})
	case errors.As(err, &serr):
		code := "SUBMISSION_FAILED"
		if serr.Timeout {
			code = "SUBMISSION_TIMEOUT"
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to submit application", "code": code})
	case errors.Is(err, application.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission already in progress", "code": "SUBMIT_IN_PROGRESS"})
	case errors.Is(err, application.ErrFlowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Application form is not open", "code": "FORM_CLOSED"})
	case errors.Is(err, drafts.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "UNKNOWN_FIELD"})
	case errors.Is(err, catalog.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found", "code": "JOB_NOT_FOUND"})
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL_ERROR"})
	}
}
