package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/models"
)

func TestValidTitle(t *testing.T) {
	assert.True(t, models.ValidTitle("groceries"))
	assert.True(t, models.ValidTitle("  padded  "))
	assert.False(t, models.ValidTitle(""))
	assert.False(t, models.ValidTitle("   "))
	assert.False(t, models.ValidTitle("\t\n"))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	live := &models.Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, live.Expired(now))

	stale := &models.Session{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, stale.Expired(now))

	// no lifetime communicated by the server
	open := &models.Session{}
	assert.False(t, open.Expired(now))
}

func TestSessionWireFormat(t *testing.T) {
	raw := `{"access_token":"tok","expires_at":"2026-08-31T12:00:00Z","user":{"id":"u1","email":"a@b.com"}}`

	var session models.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &session))
	assert.Equal(t, "tok", session.Token)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "a@b.com", session.User.Email)
	assert.Equal(t, 2026, session.ExpiresAt.Year())
}

func TestNoteWireFormat(t *testing.T) {
	raw := `{"id":"n1","user_id":"u1","title":"first","content":"body","created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:05:00Z"}`

	var note models.Note
	require.NoError(t, json.Unmarshal([]byte(raw), &note))
	assert.Equal(t, "n1", note.ID)
	assert.Equal(t, "u1", note.OwnerID)
	assert.True(t, note.UpdatedAt.After(note.CreatedAt))
}
