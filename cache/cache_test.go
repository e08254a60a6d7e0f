package cache

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"simple", "door", nil},
		{"case and spaces kept", "  Door Closer ", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"newline", "door\nlock", ErrInvalidKey},
		{"carriage return", "door\rlock", ErrInvalidKey},
		{"max length", strings.Repeat("a", MaxKeyLength), nil},
		{"too long", strings.Repeat("a", MaxKeyLength+1), ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestEntry_Age(t *testing.T) {
	stored := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{StoredAt: stored}
	if got := e.Age(stored.Add(90 * time.Minute)); got != 90*time.Minute {
		t.Errorf("Age() = %v, want 90m", got)
	}
}
