// ABOUTME: Bearer token service for the ingest connection
// ABOUTME: Env-backed token source with subscribable auth events
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/kelseyhightower/envconfig"
)

// ErrNoToken is returned by Authenticate when no token source yields a
// credential.
var ErrNoToken = errors.New("auth: no token available")

// Event is an authentication state change delivered to subscribers.
type Event int

const (
	// Authenticated fires after Authenticate succeeds.
	Authenticated Event = iota

	// AuthenticationFailed fires when no credential could be obtained.
	AuthenticationFailed

	// LoggedOut fires when the session credential is dropped.
	LoggedOut
)

// String returns the event name for logging.
func (e Event) String() string {
	switch e {
	case Authenticated:
		return "authenticated"
	case AuthenticationFailed:
		return "authentication-failed"
	case LoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("unknown(%d)", int(e))
	}
}

// envCreds is the environment-backed credential set, read with the
// VOCALIS_ prefix (VOCALIS_TOKEN, VOCALIS_TOKEN_OPTIONAL).
type envCreds struct {
	Token    string `envconfig:"TOKEN"`
	Optional bool   `envconfig:"TOKEN_OPTIONAL" default:"true"`
}

// TokenFunc produces a bearer token. An empty string with a nil error
// means no credential is available.
type TokenFunc func(ctx context.Context) (string, error)

// EnvTokenFunc reads the token from the environment.
func EnvTokenFunc(ctx context.Context) (string, error) {
	var creds envCreds
	if err := envconfig.Process("vocalis", &creds); err != nil {
		return "", fmt.Errorf("auth: reading environment: %w", err)
	}
	return creds.Token, nil
}

// Service holds the session credential. The playback engine never
// consults it; only the ingest client does, attaching the token as an
// Authorization header at dial time.
type Service struct {
	mu        sync.Mutex
	tokenFn   TokenFunc
	token     string
	listeners []func(Event)
}

// NewService creates a service on the given token source. A nil
// tokenFn defaults to the environment.
func NewService(tokenFn TokenFunc) *Service {
	if tokenFn == nil {
		tokenFn = EnvTokenFunc
	}
	return &Service{tokenFn: tokenFn}
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether a credential is held.
func (s *Service) IsAuthenticated() bool {
	return s.Token() != ""
}

// Authenticate obtains a credential from the token source. Returns
// ErrNoToken when the source yields nothing; subscribers are notified
// either way.
func (s *Service) Authenticate(ctx context.Context) error {
	token, err := s.tokenFn(ctx)
	if err != nil {
		s.notify(AuthenticationFailed)
		return fmt.Errorf("auth: %w", err)
	}
	if token == "" {
		s.notify(AuthenticationFailed)
		return ErrNoToken
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	log.Printf("Auth: authenticated")
	s.notify(Authenticated)
	return nil
}

// Logout drops the session credential. No-op when unauthenticated.
func (s *Service) Logout() {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if had {
		s.notify(LoggedOut)
	}
}

// Subscribe registers a listener for auth events. Listeners are called
// synchronously in registration order.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Service) notify(e Event) {
	s.mu.Lock()
	listeners := append(([]func(Event))(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}
