package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront-client/internal/domain"
)

// ErrSuperseded is returned by a login, registration or refresh whose result
// arrived after the session had already been torn down by a later call.
var ErrSuperseded = errors.New("session torn down while operation was in flight")

// Authenticator is the Auth collaborator the store exchanges credentials with.
type Authenticator interface {
	ExchangeCredentials(ctx context.Context, usernameOrEmail, password string) (domain.Credentials, error)
	CreateAccount(ctx context.Context, username, email, password string) (domain.Credentials, error)
	InvalidateSession(ctx context.Context, token string) error
	RefreshCredentials(ctx context.Context, refreshToken string) (domain.Credentials, error)
	CheckSession(ctx context.Context, token string) error
}

// TeardownReason tells teardown listeners why the session ended.
type TeardownReason string

const (
	// ReasonLogout is an explicit logout.
	ReasonLogout TeardownReason = "logout"
	// ReasonInvalidated is a credential the backend no longer accepts.
	ReasonInvalidated TeardownReason = "invalidated"
)

// Store is the single source of truth for who is logged in and which
// credential protected requests carry.
type Store struct {
	auth Authenticator
	now  func() time.Time

	mu         sync.Mutex
	session    domain.Session
	inFlight   bool
	generation uint64
	listeners  []func(TeardownReason)
}

// New creates an unauthenticated Store backed by auth.
func New(auth Authenticator) *Store {
	return &Store{auth: auth, now: time.Now}
}

// OnTeardown registers fn to run after every transition to unauthenticated.
// Listeners run outside the store lock, in registration order.
func (s *Store) OnTeardown(fn func(TeardownReason)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login exchanges username-or-email and password for a session. Blank fields
// fail locally before the collaborator is called.
func (s *Store) Login(ctx context.Context, usernameOrEmail, password string) (domain.Session, error) {
	usernameOrEmail = strings.TrimSpace(usernameOrEmail)
	if usernameOrEmail == "" {
		return domain.Session{}, &domain.ValidationError{Field: "username", Message: "username or email is required"}
	}
	if strings.TrimSpace(password) == "" {
		return domain.Session{}, &domain.ValidationError{Field: "password", Message: "password is required"}
	}
	return s.establish(ctx, "login", func(ctx context.Context) (domain.Credentials, error) {
		return s.auth.ExchangeCredentials(ctx, usernameOrEmail, password)
	})
}

// Register creates an account and establishes its session exactly as Login does.
func (s *Store) Register(ctx context.Context, username, email, password, passwordConfirm string) (domain.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	switch {
	case username == "":
		return domain.Session{}, &domain.ValidationError{Field: "username", Message: "username is required"}
	case email == "":
		return domain.Session{}, &domain.ValidationError{Field: "email", Message: "email is required"}
	case strings.TrimSpace(password) == "":
		return domain.Session{}, &domain.ValidationError{Field: "password", Message: "password is required"}
	case strings.TrimSpace(passwordConfirm) == "":
		return domain.Session{}, &domain.ValidationError{Field: "passwordConfirm", Message: "password confirmation is required"}
	case password != passwordConfirm:
		return domain.Session{}, &domain.ValidationError{Field: "passwordConfirm", Message: "passwords do not match"}
	}
	return s.establish(ctx, "register", func(ctx context.Context) (domain.Credentials, error) {
		return s.auth.CreateAccount(ctx, username, email, password)
	})
}

// Logout clears the session unconditionally. Notifying the backend is best
// effort and cannot make Logout fail.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	token := s.session.Token
	listeners := s.teardownLocked()
	s.mu.Unlock()

	notify(listeners, ReasonLogout)
	if token != "" {
		_ = s.auth.InvalidateSession(ctx, token)
	}
}

// Invalidate is the credential-invalid transition. Consumers call it after a
// collaborator rejected the current credential.
func (s *Store) Invalidate() {
	s.mu.Lock()
	if !s.session.Active() {
		s.mu.Unlock()
		return
	}
	listeners := s.teardownLocked()
	s.mu.Unlock()

	notify(listeners, ReasonInvalidated)
}

// HasActiveSession reports whether both identity and credential are present.
func (s *Store) HasActiveSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Active()
}

// Busy reports whether a login or registration is in flight.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone()
}

// Token returns the credential to attach to protected requests, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

// NeedsRefresh reports whether the access token expires within the window.
// Tokens without a readable expiry never need a refresh.
func (s *Store) NeedsRefresh(within time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Active() || s.session.ExpiresAt.IsZero() || s.session.RefreshToken == "" {
		return false
	}
	return !s.now().Add(within).Before(s.session.ExpiresAt)
}

// Restore re-hydrates a persisted session. Incomplete sessions are ignored.
func (s *Store) Restore(sess domain.Session) {
	if !sess.Active() {
		return
	}
	sess = sess.Clone()
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = tokenExpiry(sess.Token)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.session = sess
}

// Refresh trades the refresh token for a new access token. A rejected
// refresh token ends the session.
func (s *Store) Refresh(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	if !s.session.Active() || s.session.RefreshToken == "" {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrNoSession
	}
	refresh := s.session.RefreshToken
	gen := s.generation
	s.mu.Unlock()

	creds, err := s.auth.RefreshCredentials(context.WithoutCancel(ctx), refresh)
	if err != nil {
		if rejected(err) {
			s.invalidateGeneration(gen)
		}
		return domain.Session{}, err
	}
	if creds.AccessToken == "" {
		return domain.Session{}, &domain.CollaboratorError{Collaborator: "auth", Op: "refresh", Err: errors.New("empty access token")}
	}

	s.mu.Lock()
	if s.generation != gen || !s.session.Active() {
		s.mu.Unlock()
		return domain.Session{}, ErrSuperseded
	}
	s.session.Token = creds.AccessToken
	s.session.ExpiresAt = tokenExpiry(creds.AccessToken)
	if creds.RefreshToken != "" {
		s.session.RefreshToken = creds.RefreshToken
	}
	if creds.User.ID != "" {
		u := creds.User
		s.session.User = &u
	}
	out := s.session.Clone()
	s.mu.Unlock()
	return out, nil
}

// Verify asks the backend whether the current credential is still accepted.
// A rejection ends the session; a transport failure leaves it intact.
func (s *Store) Verify(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.session.Active() {
		s.mu.Unlock()
		return false, nil
	}
	token := s.session.Token
	gen := s.generation
	s.mu.Unlock()

	if err := s.auth.CheckSession(ctx, token); err != nil {
		if rejected(err) {
			s.invalidateGeneration(gen)
			return false, nil
		}
		return s.HasActiveSession(), err
	}
	return true, nil
}

func (s *Store) establish(ctx context.Context, op string, exchange func(context.Context) (domain.Credentials, error)) (domain.Session, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return domain.Session{}, domain.ErrSessionBusy
	}
	s.inFlight = true
	gen := s.generation
	s.mu.Unlock()

	// The exchange outlives an abandoned caller so its result is applied
	// atomically either way.
	creds, err := exchange(context.WithoutCancel(ctx))
	if err == nil {
		err = checkCredentials(op, creds)
	}

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		var listeners []func(TeardownReason)
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) && s.generation == gen && s.session.Active() {
			listeners = s.teardownLocked()
		}
		s.mu.Unlock()
		notify(listeners, ReasonInvalidated)
		return domain.Session{}, normalizeAuthError(op, err)
	}
	if s.generation != gen {
		s.mu.Unlock()
		_ = s.auth.InvalidateSession(context.WithoutCancel(ctx), creds.AccessToken)
		return domain.Session{}, ErrSuperseded
	}
	// A new identity starts a new generation so refreshes and checks begun
	// against the previous session cannot touch this one.
	s.generation++
	user := creds.User
	s.session = domain.Session{
		User:         &user,
		Token:        creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    tokenExpiry(creds.AccessToken),
	}
	out := s.session.Clone()
	s.mu.Unlock()
	return out, nil
}

func (s *Store) invalidateGeneration(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || !s.session.Active() {
		s.mu.Unlock()
		return
	}
	listeners := s.teardownLocked()
	s.mu.Unlock()
	notify(listeners, ReasonInvalidated)
}

// teardownLocked clears the session and returns the listeners to notify once
// the lock is released.
func (s *Store) teardownLocked() []func(TeardownReason) {
	s.session = domain.Session{}
	s.generation++
	return append([]func(TeardownReason){}, s.listeners...)
}

func notify(listeners []func(TeardownReason), reason TeardownReason) {
	for _, fn := range listeners {
		fn(reason)
	}
}

func checkCredentials(op string, creds domain.Credentials) error {
	if creds.AccessToken == "" {
		return &domain.CollaboratorError{Collaborator: "auth", Op: op, Err: errors.New("empty access token")}
	}
	if creds.User.ID == "" && creds.User.Username == "" {
		return &domain.CollaboratorError{Collaborator: "auth", Op: op, Err: errors.New("missing user identity")}
	}
	return nil
}

func normalizeAuthError(op string, err error) error {
	if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrCollaborator) {
		return err
	}
	return &domain.CollaboratorError{Collaborator: "auth", Op: op, Err: err}
}

func rejected(err error) bool {
	return errors.Is(err, domain.ErrAuthentication) || domain.IsUnauthorized(err)
}
