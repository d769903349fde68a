package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("BACKEND_URL", "")
	require.NoError(t, Load())

	assert.Equal(t, "development", Cfg.Server.Env)
	assert.True(t, Cfg.IsDevelopment())
	assert.False(t, Cfg.UsesBackend())
	assert.Equal(t, 6, Cfg.Board.PageSize)
	assert.Equal(t, 30*time.Second, Cfg.Backend.SubmitTimeout)
	assert.Equal(t, []string{".pdf", ".doc", ".docx"}, Cfg.Upload.AllowedExtensions)
	assert.Equal(t, "./data/jobboard.db", Cfg.GetDSN())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("BACKEND_URL", "http://jobs.internal:8080/")
	t.Setenv("SUBMIT_TIMEOUT", "not-a-duration")
	t.Setenv("BOARD_PAGE_SIZE", "12")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("CORS_ORIGINS", "*")
	require.NoError(t, Load())

	assert.True(t, Cfg.IsProduction())
	assert.True(t, Cfg.UsesBackend())
	assert.Equal(t, "http://jobs.internal:8080", Cfg.Backend.URL)
	assert.Equal(t, time.Hour, Cfg.Backend.SubmitTimeout, "unparseable durations fall back to an hour")
	assert.Equal(t, 12, Cfg.Board.PageSize)
	assert.Equal(t, []string{"*"}, Cfg.CORS.Origins)
	assert.Contains(t, Cfg.GetDSN(), "host=db port=5432")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, ParseDuration("15m"))
	assert.Equal(t, time.Hour, ParseDuration(""))
}
