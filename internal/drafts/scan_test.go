package drafts

import (
	"context"
	"testing"
	"time"

	"jobboard-portal/internal/models"
	"jobboard-portal/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAndPurge(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(0)

	good, err := Encode("1", models.DraftData{FullName: "Ada"}, time.Now())
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "session:a:applicationDraft_1", good))
	require.NoError(t, s.Set(ctx, "session:a:applicationDraft_2", "{broken"))
	require.NoError(t, s.Set(ctx, "session:b:applicationDraft_3", good)) // belongs to job 1
	require.NoError(t, s.Set(ctx, "session:b:savedJobs", `not even json`))
	require.NoError(t, s.Set(ctx, "applicationDraft_9", "[]"))

	corrupt, err := Scan(ctx, s)
	require.NoError(t, err)
	require.Len(t, corrupt, 3)

	assert.Equal(t, "applicationDraft_9", corrupt[0].Key)
	assert.Equal(t, "9", corrupt[0].JobID)
	assert.Equal(t, "session:a:applicationDraft_2", corrupt[1].Key)
	assert.Equal(t, "session:b:applicationDraft_3", corrupt[2].Key)
	assert.Contains(t, corrupt[2].Reason, "belongs to job")

	n, err := Purge(ctx, s, corrupt)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.Get(ctx, "session:a:applicationDraft_1")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "session:b:savedJobs")
	assert.NoError(t, err)

	corrupt, err = Scan(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, corrupt)
}

func TestDraftJobID(t *testing.T) {
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"applicationDraft_42", "42", true},
		{"session:abc:applicationDraft_42", "42", true},
		{"session:abc:savedJobs", "", false},
		{"savedJobs", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			id, ok := draftJobID(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestPurge_SkipsEntriesRepairedSinceScan(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(0)
	require.NoError(t, s.Set(ctx, "session:a:applicationDraft_7", "{broken"))
	require.NoError(t, s.Set(ctx, "session:a:applicationDraft_8", "{broken"))
	require.NoError(t, s.Set(ctx, "session:b:applicationDraft_9", "{broken"))

	corrupt, err := Scan(ctx, s)
	require.NoError(t, err)
	require.Len(t, corrupt, 3)

	// The session saves a fresh draft over one key and clears another
	// before the purge runs.
	fresh, err := Encode("7", models.DraftData{FullName: "Jane"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "session:a:applicationDraft_7", fresh))
	require.NoError(t, s.Remove(ctx, "session:a:applicationDraft_8"))

	n, err := Purge(ctx, s, corrupt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := s.Get(ctx, "session:a:applicationDraft_7")
	require.NoError(t, err)
	d, err := Decode("7", raw)
	require.NoError(t, err)
	assert.Equal(t, "Jane", d.FullName)

	_, err = s.Get(ctx, "session:b:applicationDraft_9")
	assert.True(t, store.IsNotFound(err))
}
