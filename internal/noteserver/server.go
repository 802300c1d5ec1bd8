// Package noteserver is an in-process fake of the remote note service, used
// by tests and as a demo backend. It implements the REST surface consumed by
// pkg/api — auth (sign-up, sign-in, sign-out, session retrieval, password
// recovery, OAuth authorize) and the notes collection — plus the websocket
// auth event stream, with per-endpoint request counters and one-shot failure
// injection for exercising error paths.
package noteserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/notefold/notefold.go/pkg/logger"
	"github.com/notefold/notefold.go/pkg/models"
)

const defaultTokenTTL = time.Hour

type account struct {
	id       string
	email    string
	password string
}

type stubFailure struct {
	status  int
	code    string
	message string
}

// Server holds the in-memory state of the fake service. Zero value is not
// usable; construct with New.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	log      logger.Logger

	mu         sync.Mutex
	byEmail    map[string]*account
	notes      map[string]*models.Note
	revoked    map[string]bool
	requests   map[string]int
	failures   map[string][]stubFailure
	eventConns map[string][]eventConn
	lastUpdate time.Time
}

// Option mutates a Server during construction.
type Option func(*Server)

// WithTokenTTL overrides the issued token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New builds an empty fake service signing tokens with secret.
func New(secret string, opts ...Option) *Server {
	s := &Server{
		secret:     []byte(secret),
		tokenTTL:   defaultTokenTTL,
		log:        logger.Nop(),
		byEmail:    make(map[string]*account),
		notes:      make(map[string]*models.Note),
		revoked:    make(map[string]bool),
		requests:   make(map[string]int),
		failures:   make(map[string][]stubFailure),
		eventConns: make(map[string][]eventConn),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddUser registers an account directly, bypassing the signup endpoint.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byEmail[email] = &account{id: uuid.NewString(), email: email, password: password}
}

// Requests returns how many times the endpoint identified by op (e.g.
// "POST /auth/v1/recover") has been hit.
func (s *Server) Requests(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[op]
}

// FailNext queues a one-shot failure for the endpoint identified by op.
func (s *Server) FailNext(op string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], stubFailure{status: status, code: code, message: message})
}

// Handler returns the HTTP handler for the whole fake service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/signup", s.instrument("POST /auth/v1/signup", s.handleSignUp))
	mux.HandleFunc("POST /auth/v1/signin", s.instrument("POST /auth/v1/signin", s.handleSignIn))
	mux.HandleFunc("POST /auth/v1/signout", s.instrument("POST /auth/v1/signout", s.handleSignOut))
	mux.HandleFunc("GET /auth/v1/session", s.instrument("GET /auth/v1/session", s.handleSession))
	mux.HandleFunc("POST /auth/v1/recover", s.instrument("POST /auth/v1/recover", s.handleRecover))
	mux.HandleFunc("GET /auth/v1/authorize", s.instrument("GET /auth/v1/authorize", s.handleAuthorize))
	mux.HandleFunc("GET /auth/v1/events", s.handleEvents)
	mux.HandleFunc("GET /data/v1/notes", s.instrument("GET /data/v1/notes", s.withAuth(s.handleListNotes)))
	mux.HandleFunc("POST /data/v1/notes", s.instrument("POST /data/v1/notes", s.withAuth(s.handleCreateNote)))
	mux.HandleFunc("PATCH /data/v1/notes/{id}", s.instrument("PATCH /data/v1/notes/{id}", s.withAuth(s.handleUpdateNote)))
	mux.HandleFunc("DELETE /data/v1/notes/{id}", s.instrument("DELETE /data/v1/notes/{id}", s.withAuth(s.handleDeleteNote)))
	return mux
}

func (s *Server) instrument(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[op]++
		var failure *stubFailure
		if queued := s.failures[op]; len(queued) > 0 {
			failure = &queued[0]
			s.failures[op] = queued[1:]
		}
		s.mu.Unlock()

		if failure != nil {
			writeError(w, failure.status, failure.code, failure.message)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[creds.Email]; exists {
		writeError(w, http.StatusConflict, "user_exists", "a user with this email already exists")
		return
	}
	s.byEmail[creds.Email] = &account{id: uuid.NewString(), email: creds.Email, password: creds.Password}
	// account is pending until first sign-in; no session is returned
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmation_sent"})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed credentials")
		return
	}
	s.mu.Lock()
	acct, ok := s.byEmail[creds.Email]
	s.mu.Unlock()
	if !ok || acct.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid login credentials")
		return
	}
	session, err := s.mintSession(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token, _, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	s.mu.Lock()
	s.revoked[token] = true
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	_, acct, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}
	session, err := s.mintSession(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "email is required")
		return
	}
	// whether the account exists is deliberately not revealed
	writeJSON(w, http.StatusOK, map[string]string{"status": "recovery_sent"})
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "provider is required")
		return
	}
	email := "user@" + provider + ".example"
	s.mu.Lock()
	acct, ok := s.byEmail[email]
	if !ok {
		acct = &account{id: uuid.NewString(), email: email}
		s.byEmail[email] = acct
	}
	s.mu.Unlock()

	session, err := s.mintSession(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error", err.Error())
		return
	}
	redirectTo := r.URL.Query().Get("redirect_to")
	if redirectTo == "" {
		writeJSON(w, http.StatusOK, session)
		return
	}
	http.Redirect(w, r, redirectTo+"#access_token="+session.Token, http.StatusFound)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request, acct *account) {
	s.mu.Lock()
	owned := make([]models.Note, 0)
	for _, n := range s.notes {
		if n.OwnerID == acct.id {
			owned = append(owned, *n)
		}
	}
	s.mu.Unlock()
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})
	writeJSON(w, http.StatusOK, owned)
}

type notePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request, acct *account) {
	var payload notePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Title) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "title must not be empty")
		return
	}
	now := s.tick()
	note := &models.Note{
		ID:        uuid.NewString(),
		OwnerID:   acct.id,
		Title:     payload.Title,
		Content:   payload.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.notes[note.ID] = note
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request, acct *account) {
	var payload notePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Title) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "title must not be empty")
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	note, ok := s.notes[id]
	if !ok || note.OwnerID != acct.id {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "not_found", "note not found")
		return
	}
	note.Title = payload.Title
	note.Content = payload.Content
	note.UpdatedAt = s.tickLocked()
	updated := *note
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request, acct *account) {
	id := r.PathValue("id")
	s.mu.Lock()
	note, ok := s.notes[id]
	if !ok || note.OwnerID != acct.id {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "not_found", "note not found")
		return
	}
	delete(s.notes, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

type authedHandler func(http.ResponseWriter, *http.Request, *account)

func (s *Server) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, acct, err := s.authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next(w, r, acct)
	}
}

func (s *Server) authenticate(r *http.Request) (string, *account, error) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		token = r.URL.Query().Get("access_token")
	}
	if token == "" {
		return "", nil, fmt.Errorf("missing bearer token")
	}

	s.mu.Lock()
	revoked := s.revoked[token]
	s.mu.Unlock()
	if revoked {
		return "", nil, fmt.Errorf("token revoked")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", nil, fmt.Errorf("invalid token: %w", err)
	}

	email, _ := claims["email"].(string)
	s.mu.Lock()
	acct, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return "", nil, fmt.Errorf("unknown account")
	}
	return token, acct, nil
}

func (s *Server) mintSession(acct *account) (*models.Session, error) {
	expires := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   acct.id,
		"email": acct.email,
		"exp":   expires.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		Token:     signed,
		ExpiresAt: expires,
		User:      models.User{ID: acct.id, Email: acct.email},
	}, nil
}

// tick returns a timestamp strictly after every previously issued one, so
// updated_at is monotonic even when calls land in the same clock tick.
func (s *Server) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked()
}

func (s *Server) tickLocked() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastUpdate) {
		now = s.lastUpdate.Add(time.Millisecond)
	}
	s.lastUpdate = now
	return now
}
