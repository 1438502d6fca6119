// ABOUTME: Tests for the bearer token service
// ABOUTME: Tests token lifecycle, failure paths and event delivery
package auth

import (
	"context"
	"errors"
	"testing"
)

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) {
		return token, nil
	}
}

func TestAuthenticateStoresToken(t *testing.T) {
	svc := NewService(staticToken("secret-123"))

	if svc.IsAuthenticated() {
		t.Fatal("expected fresh service to be unauthenticated")
	}

	if err := svc.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	if !svc.IsAuthenticated() {
		t.Error("expected authenticated after success")
	}
	if got := svc.Token(); got != "secret-123" {
		t.Errorf("expected stored token, got %q", got)
	}
}

func TestAuthenticateNoToken(t *testing.T) {
	svc := NewService(staticToken(""))

	err := svc.Authenticate(context.Background())
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Error("expected unauthenticated after empty token")
	}
}

func TestAuthenticateSourceError(t *testing.T) {
	boom := errors.New("keychain unavailable")
	svc := NewService(func(ctx context.Context) (string, error) {
		return "", boom
	})

	err := svc.Authenticate(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc := NewService(staticToken("tok"))
	svc.Authenticate(context.Background())

	svc.Logout()

	if svc.IsAuthenticated() {
		t.Error("expected unauthenticated after logout")
	}
	if got := svc.Token(); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}

func TestEventDelivery(t *testing.T) {
	svc := NewService(staticToken("tok"))

	var events []Event
	svc.Subscribe(func(e Event) { events = append(events, e) })

	svc.Authenticate(context.Background())
	svc.Logout()
	svc.Logout() // idempotent: no second event

	want := []Event{Authenticated, LoggedOut}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i, e := range want {
		if events[i] != e {
			t.Errorf("event %d: expected %s, got %s", i, e, events[i])
		}
	}
}

func TestFailureEvent(t *testing.T) {
	svc := NewService(staticToken(""))

	var events []Event
	svc.Subscribe(func(e Event) { events = append(events, e) })

	svc.Authenticate(context.Background())

	if len(events) != 1 || events[0] != AuthenticationFailed {
		t.Errorf("expected single AuthenticationFailed, got %v", events)
	}
}
