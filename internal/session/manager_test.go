package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CabPortal/CabPortal/internal/common/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Enabled:         true,
		JWTSecret:       "test-secret",
		Issuer:          "cabportal",
		Audience:        "cabportal",
		TokenTTLMinutes: 60,
	}
}

func TestIssueAndVerify(t *testing.T) {
	mgr := NewManager(testAuthConfig(), nil)
	ctx := context.Background()

	token, sess, err := mgr.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatalf("empty token")
	}
	if !sess.Authenticated() || sess.Username() != "alice" {
		t.Fatalf("issued session not authenticated as alice: %+v", sess)
	}

	got, err := mgr.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Username() != "alice" {
		t.Fatalf("verified session username = %q, want alice", got.Username())
	}
	if got.ExpiresAt().Before(time.Now()) {
		t.Fatalf("verified session already expired: %v", got.ExpiresAt())
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	mgr := NewManager(testAuthConfig(), nil)
	ctx := context.Background()

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := mgr.Verify(ctx, token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Verify(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(testAuthConfig(), nil)
	token, _, err := mgr.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := testAuthConfig()
	other.JWTSecret = "another-secret"
	if _, err := NewManager(other, nil).Verify(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret: expected ErrTokenInvalid, got %v", err)
	}
}

func TestRevokeInvalidatesToken(t *testing.T) {
	mgr := NewManager(testAuthConfig(), nil)
	ctx := context.Background()

	token, _, err := mgr.Issue(ctx, "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.Verify(ctx, token); err != nil {
		t.Fatalf("verify before revoke: %v", err)
	}

	if err := mgr.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := mgr.Verify(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("verify after revoke: expected ErrTokenInvalid, got %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Save(ctx, "tok", "alice", 50*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	ok, err := store.Valid(ctx, "tok")
	if err != nil || !ok {
		t.Fatalf("fresh token should be valid: ok=%v err=%v", ok, err)
	}

	time.Sleep(80 * time.Millisecond)
	ok, err = store.Valid(ctx, "tok")
	if err != nil {
		t.Fatalf("valid after expiry: %v", err)
	}
	if ok {
		t.Fatalf("expired token still valid")
	}
}

func TestAnonymousSession(t *testing.T) {
	if Anonymous.Authenticated() {
		t.Fatalf("anonymous session reports authenticated")
	}
	if Anonymous.Username() != "" {
		t.Fatalf("anonymous session has username %q", Anonymous.Username())
	}

	expired := NewSession("alice", time.Now().Add(-time.Minute))
	if expired.Authenticated() {
		t.Fatalf("expired session reports authenticated")
	}
	if expired.Username() != "" {
		t.Fatalf("expired session still exposes username")
	}
}
