package notefold

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/errs"
	"github.com/notefold/notefold.go/pkg/logger"
)

// Redirector sends the user agent to an external URL. OAuth sign-in hands
// the authorization URL here; the rest of the flow happens outside the
// process and completes through SessionMonitor.Establish.
type Redirector interface {
	Redirect(ctx context.Context, url string) error
}

// RedirectorFunc adapts a function to the Redirector interface.
type RedirectorFunc func(ctx context.Context, url string) error

func (f RedirectorFunc) Redirect(ctx context.Context, url string) error { return f(ctx, url) }

// CredentialGateway performs sign-in, sign-up, and password-reset requests
// against the remote auth service. It is stateless beyond tracking the one
// operation allowed in flight: a second call while one is pending is
// rejected with errs.ErrBusy, never queued.
type CredentialGateway struct {
	api        *api.Client
	monitor    *SessionMonitor
	redirector Redirector
	redirectTo string
	validate   *validator.Validate
	log        logger.Logger

	mu       sync.Mutex
	inFlight string
}

// NewCredentialGateway builds a gateway that establishes sessions on
// monitor. redirector may be nil if OAuth sign-in is never used; redirectTo
// is where the external flow should send the user agent afterwards.
func NewCredentialGateway(apiClient *api.Client, monitor *SessionMonitor, redirector Redirector, redirectTo string, log logger.Logger) *CredentialGateway {
	if log == nil {
		log = logger.Nop()
	}
	return &CredentialGateway{
		api:        apiClient,
		monitor:    monitor,
		redirector: redirector,
		redirectTo: redirectTo,
		validate:   validator.New(),
		log:        log,
	}
}

// Busy reports whether a credential operation is in flight, so callers can
// disable duplicate submission.
func (g *CredentialGateway) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight != ""
}

func (g *CredentialGateway) begin(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight != "" {
		return fmt.Errorf("%w: %s pending", errs.ErrBusy, g.inFlight)
	}
	g.inFlight = op
	return nil
}

func (g *CredentialGateway) end() {
	g.mu.Lock()
	g.inFlight = ""
	g.mu.Unlock()
}

type passwordCredentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (g *CredentialGateway) checkCredentials(email, password string) error {
	err := g.validate.Struct(passwordCredentials{Email: email, Password: password})
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		if f.Tag() == "email" {
			return errs.Validation("email", "must be a valid address")
		}
		return errs.Validation(toSnake(f.Field()), "must not be empty")
	}
	return errs.Validation("credentials", "invalid")
}

// SignInWithPassword exchanges email/password for a session and installs it
// on the session monitor. A rejection by the auth service surfaces as
// errs.ErrInvalidCredentials without mutating state.
func (g *CredentialGateway) SignInWithPassword(ctx context.Context, email, password string) error {
	if err := g.checkCredentials(email, password); err != nil {
		return err
	}
	if err := g.begin("sign-in"); err != nil {
		return err
	}
	defer g.end()

	session, err := g.api.SignIn(ctx, email, password)
	if err != nil {
		var remote *errs.RemoteError
		if errors.As(err, &remote) {
			return fmt.Errorf("%w: %s", errs.ErrInvalidCredentials, remote.Message)
		}
		return fmt.Errorf("sign-in: %w", err)
	}

	g.monitor.Establish(session)
	return nil
}

// SignUpWithPassword creates a pending account. It does not establish a
// session: the service may require email confirmation, so success here is
// distinct from being signed in.
func (g *CredentialGateway) SignUpWithPassword(ctx context.Context, email, password string) error {
	if err := g.checkCredentials(email, password); err != nil {
		return err
	}
	if err := g.begin("sign-up"); err != nil {
		return err
	}
	defer g.end()

	if err := g.api.SignUp(ctx, email, password); err != nil {
		return fmt.Errorf("sign-up: %w", err)
	}
	g.log.Info("account created", "email", email)
	return nil
}

// SignInWithOAuth starts the external authorization flow for provider by
// redirecting the user agent. Completion is observed through the session
// monitor, not as a return value of this call.
func (g *CredentialGateway) SignInWithOAuth(ctx context.Context, provider string) error {
	if provider == "" {
		return errs.Validation("provider", "must not be empty")
	}
	if g.redirector == nil {
		return errors.New("no redirector configured for oauth sign-in")
	}
	if err := g.begin("oauth sign-in"); err != nil {
		return err
	}
	defer g.end()

	url := g.api.AuthorizeURL(provider, g.redirectTo)
	g.log.Debug("redirecting for oauth", "provider", provider)
	return g.redirector.Redirect(ctx, url)
}

// RequestPasswordReset asks the auth service to send a reset link. An empty
// email fails client-side before any network call; success confirms only
// that the request was accepted and never changes the session.
func (g *CredentialGateway) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return errs.Validation("email", "must not be empty")
	}
	if err := g.validate.Var(email, "email"); err != nil {
		return errs.Validation("email", "must be a valid address")
	}
	if err := g.begin("password reset"); err != nil {
		return err
	}
	defer g.end()

	if err := g.api.RecoverPassword(ctx, email); err != nil {
		return fmt.Errorf("password reset: %w", err)
	}
	g.log.Info("password reset requested", "email", email)
	return nil
}

func toSnake(field string) string {
	switch field {
	case "Email":
		return "email"
	case "Password":
		return "password"
	default:
		return field
	}
}
