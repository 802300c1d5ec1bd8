package notefold

import (
	"context"
	"errors"
	"net/http"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/logger"
)

// Options configures a Client. BaseURL is the only required field.
type Options struct {
	// BaseURL is the remote note service endpoint, scheme and host.
	BaseURL string
	// TokenCache persists the session token across client lifetimes.
	// Defaults to an in-memory cache.
	TokenCache TokenCache
	// Redirector handles OAuth authorization redirects. Optional.
	Redirector Redirector
	// RedirectTo is where the external OAuth flow sends the user agent back.
	RedirectTo string
	// Notifier receives user-visible outcome notifications. Optional.
	Notifier Notifier
	// Logger defaults to a no-op logger.
	Logger logger.Logger
	// HTTPClient overrides the default HTTP client. Optional.
	HTTPClient *http.Client
}

// Client bundles the core components over a single API client.
type Client struct {
	API          *api.Client
	Sessions     *SessionMonitor
	Auth         *CredentialGateway
	Notes        *NoteStore
	Interactions *Coordinator
}

// New builds a Client. The client starts unresolved: call Open before
// issuing data operations.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("notefold: BaseURL is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	apiOpts := []api.Option{api.WithLogger(log)}
	if opts.HTTPClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	apiClient := api.New(opts.BaseURL, apiOpts...)

	sessions := NewSessionMonitor(apiClient, opts.TokenCache, log)
	notes := NewNoteStore(apiClient, sessions, log)
	auth := NewCredentialGateway(apiClient, sessions, opts.Redirector, opts.RedirectTo, log)
	interactions := NewCoordinator(apiClient, notes, sessions, opts.Notifier, log)

	return &Client{
		API:          apiClient,
		Sessions:     sessions,
		Auth:         auth,
		Notes:        notes,
		Interactions: interactions,
	}, nil
}

// Open resolves the persisted session. It must complete before the first
// note operation; operations issued earlier block on the resolution gate.
func (c *Client) Open(ctx context.Context) error {
	return c.Sessions.Resume(ctx)
}

// Close releases background resources. It does not sign out.
func (c *Client) Close() {
	c.Notes.Close()
	c.Sessions.Close()
}
