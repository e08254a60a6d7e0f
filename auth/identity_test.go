package auth

import (
	"context"
	"testing"
	"time"
)

func TestIdentity_IsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Minute), false},
		{"past", now.Add(-time.Minute), true},
	}
	for _, tt := range tests {
		id := &Identity{Principal: "svc", Method: AuthMethodJWT, ExpiresAt: tt.exp}
		if got := id.IsExpired(now); got != tt.want {
			t.Errorf("%s: IsExpired() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIdentity_IsAnonymous(t *testing.T) {
	if !AnonymousIdentity().IsAnonymous() {
		t.Error("AnonymousIdentity().IsAnonymous() = false")
	}
	if !(&Identity{Method: AuthMethodAPIKey}).IsAnonymous() {
		t.Error("identity without principal should be anonymous")
	}
	if (&Identity{Principal: "key-1a2b3c4d", Method: AuthMethodAPIKey}).IsAnonymous() {
		t.Error("keyed identity should not be anonymous")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil || PrincipalFromContext(ctx) != "" {
		t.Fatal("empty context should carry no identity")
	}

	id := &Identity{Principal: "dashboard", Method: AuthMethodJWT}
	ctx = WithIdentity(ctx, id)
	if got := IdentityFromContext(ctx); got != id {
		t.Errorf("IdentityFromContext() = %v, want %v", got, id)
	}
	if got := PrincipalFromContext(ctx); got != "dashboard" {
		t.Errorf("PrincipalFromContext() = %q, want dashboard", got)
	}
}
