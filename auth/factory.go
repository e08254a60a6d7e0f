package auth

import "fmt"

// Modes accepted by New.
const (
	ModeNone   = "none"
	ModeAPIKey = "apikey"
	ModeJWT    = "jwt"
)

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 32

// Settings selects and configures an authenticator.
type Settings struct {
	Mode         string
	APIKeys      []string
	APIKeyHeader string
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
}

// New builds the authenticator for settings. Mode none, or an empty mode,
// returns nil: requests pass unauthenticated.
func New(s Settings) (Authenticator, error) {
	switch s.Mode {
	case "", ModeNone:
		return nil, nil
	case ModeAPIKey:
		store := NewMemoryAPIKeyStore(s.APIKeys...)
		if store.Len() == 0 {
			return nil, fmt.Errorf("%w: no api keys configured", ErrMissingCredentials)
		}
		return NewAPIKeyAuthenticator(s.APIKeyHeader, store), nil
	case ModeJWT:
		if len(s.JWTSecret) < MinSecretLength {
			return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
		}
		return NewJWTAuthenticator(JWTConfig{
			Secret:   []byte(s.JWTSecret),
			Issuer:   s.JWTIssuer,
			Audience: s.JWTAudience,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, s.Mode)
	}
}
