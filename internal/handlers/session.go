package handlers

import (
	"net/http"

	"jobboard-portal/internal/middleware"
	"jobboard-portal/internal/session"
	"jobboard-portal/pkg/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	tokens   *auth.TokenService
	registry *session.Registry
	logger   *zap.Logger
}

func NewSessionHandler(tokens *auth.TokenService, registry *session.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		tokens:   tokens,
		registry: registry,
		logger:   logger,
	}
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	SessionID  string   `json:"session_id"`
	SavedJobs  []string `json:"saved_jobs"`
	DraftJobs  []string `json:"draft_jobs"`
	SavedCount int      `json:"saved_count"`
}

// Start handles session creation and renewal
// @Summary Start a browsing session
// @Description Issue a session token. A caller that already holds a valid token gets a fresh token for the same session.
// @Tags sessions
// @Produce json
// @Success 201 {object} auth.SessionToken
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var sessionID string
	if claims, ok := middleware.CurrentClaims(c); ok {
		sessionID = claims.SessionID
	}

	tok, err := h.tokens.Issue(sessionID)
	if err != nil {
		h.logger.Error("Failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session", "code": "SESSION_ERROR"})
		return
	}

	h.registry.Get(c.Request.Context(), tok.SessionID)
	h.logger.Info("Session started", zap.String("session_id", tok.SessionID), zap.Bool("renewed", sessionID != ""))
	c.JSON(http.StatusCreated, tok)
}

// Current handles session lookup
// @Summary Current session
// @Description Saved jobs and open drafts of the calling session
// @Tags sessions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		SessionID:  s.ID,
		SavedJobs:  s.Saved.List(),
		DraftJobs:  s.Drafts.JobIDs(c.Request.Context()),
		SavedCount: s.Saved.Count(),
	})
}

// End handles session termination
// @Summary End the session
// @Description Revoke the token and close every open form. Drafts and saved jobs stay stored.
// @Tags sessions
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/sessions/current [delete]
func (h *SessionHandler) End(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found", "code": "MISSING_SESSION"})
		return
	}

	h.tokens.Revoke(claims)
	h.registry.Drop(claims.SessionID)

	h.logger.Info("Session ended", zap.String("session_id", claims.SessionID))
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}
