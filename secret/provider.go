package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the environment variable ref.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, ref)
	}
	return v, nil
}

// FileProvider reads secrets from files, such as mounted container secrets.
// Trailing newlines are trimmed.
type FileProvider struct {
	// Root, when set, restricts refs to paths below it.
	Root string
}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve returns the trimmed contents of the file at ref.
func (p FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	var (
		data []byte
		err  error
	)
	if p.Root != "" {
		root, rerr := os.OpenRoot(p.Root)
		if rerr != nil {
			return "", fmt.Errorf("secret: open root: %w", rerr)
		}
		defer root.Close()
		data, err = root.ReadFile(strings.TrimPrefix(ref, "/"))
	} else {
		data, err = os.ReadFile(ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
