package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"jobboard-portal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "jobboard-portal"
	audience = "jobboard-portal-api"
)

// Claims identifies an anonymous browsing session.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionToken is returned to the client when a session is started.
type SessionToken struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"`
}

// TokenService signs and verifies session tokens.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	blacklist *TokenBlacklist
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secretKey: []byte(cfg.Session.Secret),
		ttl:       cfg.Session.Expiry,
		blacklist: NewTokenBlacklist(),
	}
}

// Issue signs a token for sessionID. An empty sessionID starts a new session.
func (ts *TokenService) Issue(sessionID string) (*SessionToken, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := time.Now()
	expiresAt := now.Add(ts.ttl)
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			Audience:  []string{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &SessionToken{
		Token:     signed,
		SessionID: sessionID,
		ExpiresAt: expiresAt.UTC(),
		TokenType: "Bearer",
	}, nil
}

// Validate parses tokenString and checks signature, expiry, audience and
// revocation.
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(audience))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrTokenInvalid
	}

	if ts.blacklist.IsBlacklisted(claims.ID) {
		return nil, ErrTokenBlacklisted
	}
	return claims, nil
}

// Revoke blacklists the token until it would have expired anyway.
func (ts *TokenService) Revoke(claims *Claims) {
	expiresAt := time.Now().Add(ts.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	ts.blacklist.Add(claims.ID, expiresAt)
}

func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Blacklist exposes the revocation list for periodic cleanup.
func (ts *TokenService) Blacklist() *TokenBlacklist {
	return ts.blacklist
}

// ExtractTokenFromBearer extracts token from Bearer authorization header
func ExtractTokenFromBearer(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// TokenBlacklist holds revoked token IDs until their expiry.
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{
		tokens: make(map[string]time.Time),
	}
}

func (tb *TokenBlacklist) Add(tokenID string, expiresAt time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tokens[tokenID] = expiresAt
}

// IsBlacklisted checks if a token is blacklisted
func (tb *TokenBlacklist) IsBlacklisted(tokenID string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	expiresAt, exists := tb.tokens[tokenID]
	if !exists {
		return false
	}

	// If token has expired, remove it from blacklist
	if time.Now().After(expiresAt) {
		delete(tb.tokens, tokenID)
		return false
	}

	return true
}

// Cleanup removes expired tokens and returns how many are left.
func (tb *TokenBlacklist) Cleanup() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	for tokenID, expiresAt := range tb.tokens {
		if now.After(expiresAt) {
			delete(tb.tokens, tokenID)
		}
	}
	return len(tb.tokens)
}

// ValidationError represents token validation errors
type ValidationError struct {
	Message string
	Code    string
}

func (e ValidationError) Error() string {
	return e.Message
}

var (
	ErrTokenExpired     = ValidationError{Message: "Session has expired", Code: "TOKEN_EXPIRED"}
	ErrTokenInvalid     = ValidationError{Message: "Invalid session token", Code: "TOKEN_INVALID"}
	ErrTokenBlacklisted = ValidationError{Message: "Session has been ended", Code: "TOKEN_REVOKED"}
	ErrTokenMalformed   = ValidationError{Message: "Session token is malformed", Code: "TOKEN_MALFORMED"}
)
