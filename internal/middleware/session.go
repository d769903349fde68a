package middleware

import (
	"errors"
	"net/http"

	"jobboard-portal/internal/session"
	"jobboard-portal/pkg/auth"

	"github.com/gin-gonic/gin"
)

// Context keys set by the session middleware.
const (
	SessionIDKey     = "session_id"
	SessionKey       = "session"
	SessionClaimsKey = "session_claims"
)

// SessionRequired validates the bearer session token and attaches the
// session state to the request.
func SessionRequired(tokens *auth.TokenService, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
				"code":  "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		token := auth.ExtractTokenFromBearer(authHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
				"code":  "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			abortInvalidToken(c, err)
			return
		}

		attach(c, claims, registry)
		c.Next()
	}
}

// SessionOptional attaches the session when a valid token is present and
// lets anonymous requests through otherwise.
func SessionOptional(tokens *auth.TokenService, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.ExtractTokenFromBearer(c.GetHeader("Authorization"))
		if token != "" {
			if claims, err := tokens.Validate(token); err == nil {
				attach(c, claims, registry)
			}
		}
		c.Next()
	}
}

func attach(c *gin.Context, claims *auth.Claims, registry *session.Registry) {
	s := registry.Get(c.Request.Context(), claims.SessionID)
	c.Set(SessionIDKey, claims.SessionID)
	c.Set(SessionKey, s)
	c.Set(SessionClaimsKey, claims)
}

func abortInvalidToken(c *gin.Context, err error) {
	message, code := "Invalid session token", "TOKEN_INVALID"
	var verr auth.ValidationError
	if errors.As(err, &verr) {
		message, code = verr.Message, verr.Code
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
	c.Abort()
}

// CurrentSession returns the session attached by the session middleware.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}

func CurrentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(SessionClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
