package testutils

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jobboard-portal/config"
	"jobboard-portal/internal/application"
	"jobboard-portal/internal/database"
	"jobboard-portal/internal/models"
	"jobboard-portal/internal/session"
	"jobboard-portal/internal/store"
	"jobboard-portal/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestContext holds common test dependencies
type TestContext struct {
	DB       *gorm.DB
	Config   *config.Config
	Logger   *zap.Logger
	Tokens   *auth.TokenService
	Store    store.Store
	Registry *session.Registry
	TempDir  string
}

// TestConfig returns a configuration pointing every path into tempDir.
func TestConfig(tempDir string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(tempDir, "test.db"),
		},
		Log: config.LogConfig{
			Level:  "silent",
			Format: "json",
		},
		Server: config.ServerConfig{
			Env: "test",
		},
		Session: config.SessionConfig{
			Secret: "test-secret-key-for-session-tokens",
			Expiry: time.Hour,
		},
		Store: config.StoreConfig{
			Driver: "gorm",
		},
		Backend: config.BackendConfig{
			SubmitTimeout: 5 * time.Second,
		},
		Board: config.BoardConfig{
			PageSize: 6,
		},
		Upload: config.UploadConfig{
			Path:              filepath.Join(tempDir, "resumes"),
			MaxSize:           5 << 20,
			AllowedExtensions: []string{".pdf", ".doc", ".docx"},
		},
		Dev: config.DevConfig{
			AutoMigrate: true,
			SeedData:    true,
		},
		CORS: config.CORSConfig{
			Origins: []string{"http://localhost:5173"},
		},
		RateLimit: config.RateLimitConfig{
			Requests: 1000,
			Window:   60,
		},
	}
}

// SetupTestContext creates a migrated and seeded SQLite database, a
// database-backed store and a session registry that records applications
// locally.
func SetupTestContext(t *testing.T) *TestContext {
	tempDir := t.TempDir()
	cfg := TestConfig(tempDir)
	testLogger := zap.NewNop()

	db, err := database.Connect(cfg, testLogger)
	require.NoError(t, err)
	require.NoError(t, database.SeedJobs(db, testLogger))

	kv := store.NewGormStore(db)
	registry := session.NewRegistry(kv, session.FlowConfig{
		Submitter: application.NewRepositorySubmitter(db),
		Rules:     application.DefaultFileRules(),
		Timeout:   cfg.Backend.SubmitTimeout,
	}, testLogger)

	return &TestContext{
		DB:       db,
		Config:   cfg,
		Logger:   testLogger,
		Tokens:   auth.NewTokenService(cfg),
		Store:    kv,
		Registry: registry,
		TempDir:  tempDir,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(ctx *TestContext) {
	if ctx.DB != nil {
		database.Close(ctx.DB)
		ctx.DB = nil
	}
}

// NewSessionToken starts a session and returns its bearer token and id.
func NewSessionToken(t *testing.T, tokens *auth.TokenService) (string, string) {
	tok, err := tokens.Issue("")
	require.NoError(t, err)
	return tok.Token, tok.SessionID
}

// CreateTestJob inserts a listing with sensible defaults.
func CreateTestJob(t *testing.T, db *gorm.DB, id, title, department string, locationType models.LocationType) *models.JobListing {
	job := &models.JobListing{
		ID:           id,
		Title:        title,
		Company:      "Test Co " + id,
		Location:     "Remote",
		LocationType: locationType,
		Department:   department,
		Salary:       models.SalaryRange{Min: 100000, Max: 120000, Currency: "USD"},
		PostedDate:   time.Now().UTC(),
		Description:  "A test listing",
		Requirements: []string{"Go"},
	}

	require.NoError(t, db.Create(job).Error)
	return job
}

// ValidDraft returns form data that passes validation, minus the resume.
func ValidDraft() models.DraftData {
	return models.DraftData{
		FullName:    "Ada Lovelace",
		Email:       "ada@example.com",
		Phone:       "+1 (555) 123-4567",
		CoverLetter: strings.Repeat("I would love to join the team. ", 3),
	}
}

// CreateAuthenticatedRequest creates an HTTP request with authentication header
func CreateAuthenticatedRequest(method, url string, body string, token string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// ParseJSONResponse parses JSON response body into a struct
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	err := json.Unmarshal(w.Body.Bytes(), target)
	require.NoError(t, err)
}

// AssertJSONResponse asserts that the response has the expected status and contains expected fields
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedFields map[string]interface{}) {
	require.Equal(t, expectedStatus, w.Code, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	for key, expectedValue := range expectedFields {
		require.Contains(t, response, key)
		if expectedValue != nil {
			require.Equal(t, expectedValue, response[key])
		}
	}
}

// AssertErrorResponse asserts that the response is an error with expected message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedErrorMessage string) {
	require.Equal(t, expectedStatus, w.Code, w.Body.String())
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)

	require.Contains(t, response, "error")
	if expectedErrorMessage != "" {
		require.Contains(t, response["error"].(string), expectedErrorMessage)
	}
}

// AssertErrorCode asserts the machine-readable code of an error response.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	require.Equal(t, expectedStatus, w.Code, w.Body.String())

	var response map[string]interface{}
	ParseJSONResponse(t, w, &response)
	require.Equal(t, expectedCode, response["code"])
}

// SetupGinTestMode sets up Gin in test mode
func SetupGinTestMode() {
	gin.SetMode(gin.TestMode)
}

// AssertRecordCount verifies the count of records matching the conditions
func AssertRecordCount(t *testing.T, db *gorm.DB, model interface{}, expectedCount int64, conditions ...interface{}) {
	var count int64
	query := db.Model(model)
	if len(conditions) > 0 {
		query = query.Where(conditions[0], conditions[1:]...)
	}
	err := query.Count(&count).Error
	require.NoError(t, err)
	require.Equal(t, expectedCount, count)
}

// TestHTTPClient provides utilities for HTTP testing
type TestHTTPClient struct {
	router *gin.Engine
}

// NewTestHTTPClient creates a new test HTTP client
func NewTestHTTPClient(router *gin.Engine) *TestHTTPClient {
	return &TestHTTPClient{router: router}
}

func (c *TestHTTPClient) serve(req *http.Request, headers map[string]string) *httptest.ResponseRecorder {
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// GET performs a GET request
func (c *TestHTTPClient) GET(url string, headers map[string]string) *httptest.ResponseRecorder {
	return c.serve(httptest.NewRequest("GET", url, nil), headers)
}

// POST performs a POST request
func (c *TestHTTPClient) POST(url string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.serve(req, headers)
}

// PUT performs a PUT request
func (c *TestHTTPClient) PUT(url string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PUT", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.serve(req, headers)
}

// PATCH performs a PATCH request
func (c *TestHTTPClient) PATCH(url string, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PATCH", url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return c.serve(req, headers)
}

// DELETE performs a DELETE request
func (c *TestHTTPClient) DELETE(url string, headers map[string]string) *httptest.ResponseRecorder {
	return c.serve(httptest.NewRequest("DELETE", url, nil), headers)
}

// Upload PUTs a multipart form with a single file under field.
func (c *TestHTTPClient) Upload(t *testing.T, url, field, filename string, content []byte, headers map[string]string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("PUT", url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.serve(req, headers)
}

// WithAuth adds authentication header to the request headers
func WithAuth(token string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}

// JSON marshals v for request bodies.
func JSON(t *testing.T, v interface{}) string {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(t *testing.T, uuidStr string) {
	_, err := uuid.Parse(uuidStr)
	require.NoError(t, err, "Expected valid UUID, got: %s", uuidStr)
}

// AssertTimestampRecent checks if a timestamp is within the last minute
func AssertTimestampRecent(t *testing.T, timestamp time.Time) {
	now := time.Now()
	diff := now.Sub(timestamp)
	require.True(t, diff >= 0, "Timestamp should not be in the future")
	require.True(t, diff < time.Minute, "Timestamp should be recent (within last minute)")
}
