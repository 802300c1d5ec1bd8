// Package api is the HTTP client for the remote note service. It covers the
// auth surface (sign-up, sign-in, sign-out, session retrieval, password
// recovery, OAuth authorize URLs) and the notes data surface (list, insert,
// update-by-id, delete-by-id), plus the websocket auth event stream.
//
// The package is transport plumbing only: it reports failures as
// *errs.RemoteError and leaves classification to the callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/notefold/notefold.go/pkg/errs"
	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

const defaultTimeout = 30 * time.Second

// Client talks to one remote note service. It is safe for concurrent use;
// the bearer token may be swapped at any time with SetToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger

	mu    sync.RWMutex
	token string
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for per-request debug output.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the service at baseURL (scheme and host, no
// trailing slash).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token attached to subsequent requests.
// An empty token reverts the client to anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the service base URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) doRequest(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("api request", "method", method, "path", path, "request_id", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		remote := decodeError(resp)
		c.log.Debug("api error", "path", path, "status", resp.StatusCode, "request_id", reqID)
		return remote
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError turns an error response into a *errs.RemoteError, falling back
// to the raw body when the server did not send a structured error.
func decodeError(resp *http.Response) *errs.RemoteError {
	remote := &errs.RemoteError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, remote) != nil || remote.Message == "" {
		remote.Message = strings.TrimSpace(string(raw))
	}
	if remote.Message == "" {
		remote.Message = http.StatusText(resp.StatusCode)
	}
	return remote
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account. It does not return a session: the service
// may require email confirmation before the first sign-in.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/v1/signup", credentials{email, password}, nil)
}

// SignIn exchanges email/password credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var session models.Session
	if err := c.doRequest(ctx, http.MethodPost, "/auth/v1/signin", credentials{email, password}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut invalidates the session behind the current bearer token.
func (c *Client) SignOut(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/v1/signout", nil, nil)
}

// CurrentSession asks the service whether token still identifies a live
// session, returning the refreshed session if so.
func (c *Client) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/session", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /auth/v1/session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}
	var session models.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

type recoverRequest struct {
	Email string `json:"email"`
}

// RecoverPassword asks the service to mail a password reset link to email.
// It never changes the session.
func (c *Client) RecoverPassword(ctx context.Context, email string) error {
	return c.doRequest(ctx, http.MethodPost, "/auth/v1/recover", recoverRequest{Email: email}, nil)
}

// AuthorizeURL builds the external OAuth authorization URL for provider.
// The user agent is redirected there; completion arrives later through the
// session monitor, not as a return value.
func (c *Client) AuthorizeURL(provider, redirectTo string) string {
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

type notePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ListNotes fetches every note owned by the session behind the current
// token, ordered by updated_at descending.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := c.doRequest(ctx, http.MethodGet, "/data/v1/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote inserts one note. Not idempotent: retries create duplicates.
func (c *Client) CreateNote(ctx context.Context, title, content string) (*models.Note, error) {
	var note models.Note
	if err := c.doRequest(ctx, http.MethodPost, "/data/v1/notes", notePayload{title, content}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces title and content of the note with the given id.
// Ownership is enforced server-side; a foreign or unknown id fails.
func (c *Client) UpdateNote(ctx context.Context, id, title, content string) (*models.Note, error) {
	var note models.Note
	if err := c.doRequest(ctx, http.MethodPatch, "/data/v1/notes/"+url.PathEscape(id), notePayload{title, content}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote removes the note with the given id, subject to the same
// ownership contract as UpdateNote.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.doRequest(ctx, http.MethodDelete, "/data/v1/notes/"+url.PathEscape(id), nil, nil)
}
