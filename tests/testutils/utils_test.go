package testutils

import (
	"testing"

	"jobboard-portal/internal/application"
	"jobboard-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestContext(t *testing.T) {
	ctx := SetupTestContext(t)
	defer CleanupTestContext(ctx)

	AssertRecordCount(t, ctx.DB, &models.JobListing{}, 10)

	token, sessionID := NewSessionToken(t, ctx.Tokens)
	claims, err := ctx.Tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
}

func TestValidDraftPassesValidation(t *testing.T) {
	assert.NoError(t, application.Validate(ValidDraft()))
}
