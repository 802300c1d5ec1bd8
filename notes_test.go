package notefold_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/errs"
	"github.com/notefold/notefold.go/pkg/models"
)

func TestNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "Groceries", "milk, eggs"))
	require.NoError(t, notes.List(ctx))

	got := notes.Notes()
	require.Len(t, got, 1)
	assert.Equal(t, "Groceries", got[0].Title)
	assert.Equal(t, "milk, eggs", got[0].Content)
	assert.Equal(t, got[0].CreatedAt, got[0].UpdatedAt)

	id := got[0].ID
	createdAt := got[0].UpdatedAt

	require.NoError(t, notes.Update(ctx, id, "Groceries v2", "milk, eggs, bread"))
	require.NoError(t, notes.List(ctx))

	got = notes.Notes()
	require.Len(t, got, 1)
	assert.Equal(t, "Groceries v2", got[0].Title)
	assert.Equal(t, "milk, eggs, bread", got[0].Content)
	assert.True(t, got[0].UpdatedAt.After(createdAt), "updated_at must increase on update")

	require.NoError(t, notes.Delete(ctx, id))
	require.NoError(t, notes.List(ctx))
	assert.Empty(t, notes.Notes())
}

func TestListOrdersByUpdatedAtDescending(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "first", ""))
	require.NoError(t, notes.Create(ctx, "second", ""))
	require.NoError(t, notes.Create(ctx, "third", ""))

	got := notes.Notes()
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Title)
	assert.Equal(t, "second", got[1].Title)
	assert.Equal(t, "first", got[2].Title)

	// touching the oldest moves it to the front
	require.NoError(t, notes.Update(ctx, got[2].ID, "first touched", ""))
	got = notes.Notes()
	require.Len(t, got, 3)
	assert.Equal(t, "first touched", got[0].Title)
}

func TestEmptyTitleNeverReachesNetwork(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "keep", "kept content"))
	before := notes.Notes()

	err := notes.Create(ctx, "", "content")
	require.ErrorIs(t, err, errs.ErrValidation)
	err = notes.Create(ctx, "   ", "content")
	require.ErrorIs(t, err, errs.ErrValidation)
	err = notes.Update(ctx, before[0].ID, "", "content")
	require.ErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, 1, env.server.Requests("POST /data/v1/notes"))
	assert.Equal(t, 0, env.server.Requests("PATCH /data/v1/notes/{id}"))
	assert.Equal(t, before, notes.Notes(), "collection unchanged after rejected input")
}

func TestOperationsRequireSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.client.Notes.List(ctx), errs.ErrUnauthenticated)
	require.ErrorIs(t, env.client.Notes.Create(ctx, "title", ""), errs.ErrUnauthenticated)
	require.ErrorIs(t, env.client.Notes.Update(ctx, "some-id", "title", ""), errs.ErrUnauthenticated)
	require.ErrorIs(t, env.client.Notes.Delete(ctx, "some-id"), errs.ErrUnauthenticated)
	assert.Equal(t, 0, env.server.Requests("GET /data/v1/notes"))
}

func TestSignOutClearsCollection(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()

	require.NoError(t, env.client.Notes.Create(ctx, "mine", "private"))
	require.NotEmpty(t, env.client.Notes.Notes())

	env.client.Interactions.SignOut(ctx)

	assert.Nil(t, env.client.Sessions.Session())
	assert.Empty(t, env.client.Notes.Notes(), "no stale notes after sign-out")
	assert.False(t, env.client.Notes.Loaded())
	require.ErrorIs(t, env.client.Notes.List(ctx), errs.ErrUnauthenticated)
}

func TestSignOutClearsLocalStateEvenWhenRemoteFails(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()

	env.server.FailNext("POST /auth/v1/signout", 500, "server_error", "boom")
	env.client.Interactions.SignOut(ctx)

	assert.Nil(t, env.client.Sessions.Session())
	assert.Empty(t, env.client.Notes.Notes())
}

func TestListFailureLeavesCollectionUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "survivor", ""))
	before := notes.Notes()

	env.server.FailNext("GET /data/v1/notes", 500, "server_error", "temporarily broken")
	err := notes.List(ctx)
	require.ErrorIs(t, err, errs.ErrFetchFailed)
	assert.Contains(t, err.Error(), "temporarily broken")
	assert.Equal(t, before, notes.Notes())
}

func TestCreateFailureLeavesCollectionUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "keep", ""))
	before := notes.Notes()

	env.server.FailNext("POST /data/v1/notes", 500, "server_error", "insert failed")
	err := notes.Create(ctx, "lost", "")
	require.ErrorIs(t, err, errs.ErrWriteFailed)
	assert.Equal(t, before, notes.Notes())
}

func TestUpdateOfMissingNoteFailsAndResynchronizes(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()
	notes := env.client.Notes

	require.NoError(t, notes.Create(ctx, "real", ""))

	err := notes.Update(ctx, "no-such-id", "title", "content")
	require.ErrorIs(t, err, errs.ErrWriteFailed)
	assert.Contains(t, err.Error(), "note not found")

	// the failed write triggered a resynchronizing list
	got := notes.Notes()
	require.Len(t, got, 1)
	assert.Equal(t, "real", got[0].Title)
}

func TestDeleteOfMissingNoteFails(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()

	err := env.client.Notes.Delete(ctx, "no-such-id")
	require.ErrorIs(t, err, errs.ErrWriteFailed)
}

func TestNotesReturnsCopy(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()

	require.NoError(t, env.client.Notes.Create(ctx, "original", ""))
	got := env.client.Notes.Notes()
	got[0].Title = "mutated locally"

	assert.Equal(t, "original", env.client.Notes.Notes()[0].Title)
}

func TestCollectionSubscription(t *testing.T) {
	env := newTestEnv(t)
	env.signIn(t)
	ctx := context.Background()

	var mu sync.Mutex
	var lens []int
	unsubscribe := env.client.Notes.Subscribe(func(notes []models.Note) {
		mu.Lock()
		lens = append(lens, len(notes))
		mu.Unlock()
	})

	require.NoError(t, env.client.Notes.Create(ctx, "one", ""))
	require.NoError(t, env.client.Notes.Create(ctx, "two", ""))

	mu.Lock()
	assert.Equal(t, []int{1, 2}, lens)
	mu.Unlock()

	unsubscribe()
	require.NoError(t, env.client.Notes.Create(ctx, "three", ""))
	mu.Lock()
	assert.Equal(t, []int{1, 2}, lens, "no delivery after unsubscribe")
	mu.Unlock()
}
