package noteserver_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/internal/noteserver"
	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/errs"
)

func signedInClient(t *testing.T, server *noteserver.Server, email string) *api.Client {
	t.Helper()
	server.AddUser(email, "pw")
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	client := api.New(ts.URL)
	session, err := client.SignIn(context.Background(), email, "pw")
	require.NoError(t, err)
	client.SetToken(session.Token)
	return client
}

func TestNotesAreScopedToOwner(t *testing.T) {
	server := noteserver.New("secret")
	alice := signedInClient(t, server, "alice@x.com")
	bob := signedInClient(t, server, "bob@x.com")
	ctx := context.Background()

	created, err := alice.CreateNote(ctx, "alice's", "")
	require.NoError(t, err)

	notes, err := bob.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes, "foreign notes stay invisible")

	_, err = bob.UpdateNote(ctx, created.ID, "stolen", "")
	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "not_found", remote.Code, "ownership failures are indistinguishable from missing notes")

	err = bob.DeleteNote(ctx, created.ID)
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "not_found", remote.Code)
}

func TestFailNextIsOneShot(t *testing.T) {
	server := noteserver.New("secret")
	client := signedInClient(t, server, "a@b.com")
	ctx := context.Background()

	server.FailNext("GET /data/v1/notes", 500, "internal", "boom")

	_, err := client.ListNotes(ctx)
	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "internal", remote.Code)

	_, err = client.ListNotes(ctx)
	require.NoError(t, err, "the injected failure is consumed")

	assert.Equal(t, 2, server.Requests("GET /data/v1/notes"))
}

func TestRevokedTokenIsRejected(t *testing.T) {
	server := noteserver.New("secret")
	client := signedInClient(t, server, "a@b.com")
	ctx := context.Background()

	require.NoError(t, client.SignOut(ctx))

	_, err := client.ListNotes(ctx)
	var remote *errs.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, 401, remote.Status)
}

func TestUpdatedAtIsMonotonic(t *testing.T) {
	server := noteserver.New("secret")
	client := signedInClient(t, server, "a@b.com")
	ctx := context.Background()

	first, err := client.CreateNote(ctx, "one", "")
	require.NoError(t, err)
	second, err := client.CreateNote(ctx, "two", "")
	require.NoError(t, err)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	updated, err := client.UpdateNote(ctx, first.ID, "one'", "")
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(second.UpdatedAt))
}
