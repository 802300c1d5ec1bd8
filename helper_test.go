package notefold_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	notefold "github.com/notefold/notefold.go"
	"github.com/notefold/notefold.go/internal/noteserver"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw1"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	n.successes = append(n.successes, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	n.failures = append(n.failures, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Successes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.successes...)
}

func (n *recordingNotifier) Failures() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.failures...)
}

// recordingRedirector captures OAuth redirect URLs instead of opening them.
type recordingRedirector struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingRedirector) Redirect(_ context.Context, url string) error {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	return nil
}

func (r *recordingRedirector) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

type testEnv struct {
	server     *noteserver.Server
	baseURL    string
	client     *notefold.Client
	notifier   *recordingNotifier
	redirector *recordingRedirector
	cache      *notefold.MemoryTokenCache
}

// newTestEnv wires a client against an in-process fake service with one
// registered account. The client is opened (session resolved) before return.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newClosedTestEnv(t)
	require.NoError(t, env.client.Open(context.Background()))
	return env
}

// newClosedTestEnv is newTestEnv without the Open call, for tests that
// exercise the resolution gate themselves.
func newClosedTestEnv(t *testing.T) *testEnv {
	t.Helper()

	server := noteserver.New("test-secret")
	server.AddUser(testEmail, testPassword)

	ts := httptest.NewServer(server.Handler())

	notifier := &recordingNotifier{}
	redirector := &recordingRedirector{}
	cache := &notefold.MemoryTokenCache{}

	client, err := notefold.New(notefold.Options{
		BaseURL:    ts.URL,
		TokenCache: cache,
		Redirector: redirector,
		RedirectTo: "http://localhost/callback",
		Notifier:   notifier,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		server.CloseStreams()
		ts.Close()
	})

	return &testEnv{
		server:     server,
		baseURL:    ts.URL,
		client:     client,
		notifier:   notifier,
		redirector: redirector,
		cache:      cache,
	}
}

// signIn signs the test account in and waits for the automatic initial
// fetch to land, so tests start from a settled collection.
func (e *testEnv) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, e.client.Auth.SignInWithPassword(context.Background(), testEmail, testPassword))
	require.Eventually(t, e.client.Notes.Loaded, time.Second, 5*time.Millisecond,
		"initial note fetch after sign-in")
}
