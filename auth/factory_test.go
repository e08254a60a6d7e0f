package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	if a, err := New(Settings{Mode: ModeNone}); err != nil || a != nil {
		t.Errorf("New(none) = %v, %v; want nil, nil", a, err)
	}

	a, err := New(Settings{Mode: ModeAPIKey, APIKeys: []string{"k"}})
	if err != nil {
		t.Fatalf("New(apikey) error = %v", err)
	}
	if a.Name() != "api_key" {
		t.Errorf("Name() = %q", a.Name())
	}

	a, err = New(Settings{Mode: ModeJWT, JWTSecret: strings.Repeat("s", MinSecretLength)})
	if err != nil {
		t.Fatalf("New(jwt) error = %v", err)
	}
	if a.Name() != "jwt" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		want error
	}{
		{"apikey without keys", Settings{Mode: ModeAPIKey, APIKeys: []string{" "}}, ErrMissingCredentials},
		{"short secret", Settings{Mode: ModeJWT, JWTSecret: "short"}, ErrWeakSecret},
		{"unknown mode", Settings{Mode: "basic"}, ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.s); !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}
