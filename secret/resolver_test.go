package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	return s.values[ref], nil
}

func TestParseSecretRef(t *testing.T) {
	provider, ref, ok := ParseSecretRef("secretref:file:/run/secrets/redis")
	if !ok {
		t.Fatalf("expected secretref to parse")
	}
	if provider != "file" || ref != "/run/secrets/redis" {
		t.Fatalf("unexpected values: %q %q", provider, ref)
	}

	for _, v := range []string{"not-a-secretref", "secretref:", "secretref:env", "secretref::X"} {
		if _, _, ok := ParseSecretRef(v); ok {
			t.Errorf("ParseSecretRef(%q) should fail", v)
		}
	}
}

func TestResolver_ResolvesFullSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_MalformedRef(t *testing.T) {
	r := NewResolver(true, EnvProvider{})

	for _, v := range []string{"secretref:", "secretref:env", "secretref:env:"} {
		if _, err := r.ResolveValue(context.Background(), v); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("ResolveValue(%q) error = %v, want ErrInvalidRef", v, err)
		}
	}
}

func TestResolver_ExpandsEnvInPlainValues(t *testing.T) {
	t.Setenv("PRODUCTSEARCH_TEST_REDIS_HOST", "cache.internal")
	r := NewResolver(true)

	got, err := r.ResolveValue(context.Background(), "${PRODUCTSEARCH_TEST_REDIS_HOST}:6379")
	if err != nil || got != "cache.internal:6379" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_ResolveAll(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"jwt": "signing-key"}})

	password, secret := "plain", "secretref:stub:jwt"
	err := r.ResolveAll(context.Background(),
		Target{Name: "redis.password", Value: &password},
		Target{Name: "auth.jwt_secret", Value: &secret},
	)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if password != "plain" || secret != "signing-key" {
		t.Fatalf("ResolveAll() = %q, %q", password, secret)
	}

	bad := "secretref:vault:x"
	err = r.ResolveAll(context.Background(), Target{Name: "auth.jwt_secret", Value: &bad})
	if !errors.Is(err, ErrUnknownProvider) || !strings.HasPrefix(err.Error(), "auth.jwt_secret: ") {
		t.Fatalf("ResolveAll() error = %v, want named ErrUnknownProvider", err)
	}
	if bad != "secretref:vault:x" {
		t.Errorf("failed target modified to %q", bad)
	}
}

func TestResolver_PlainValuePassesThrough(t *testing.T) {
	r := NewResolver(true)

	got, err := r.ResolveValue(context.Background(), "plain-password")
	if err != nil || got != "plain-password" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_StrictEmptyProviderValueErrors(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:empty")
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("ResolveValue() error = %v, want ErrEmptySecret", err)
	}
}

func TestResolver_UnknownProvider(t *testing.T) {
	r := NewResolver(true)

	_, err := r.ResolveValue(context.Background(), "secretref:vault:db")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("ResolveValue() error = %v, want ErrUnknownProvider", err)
	}
}

func TestResolver_ResolveSlice(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	slice, err := r.ResolveSlice(context.Background(), []string{"a", "secretref:stub:alpha"})
	if err != nil {
		t.Fatalf("ResolveSlice() error = %v", err)
	}
	if slice[0] != "a" || slice[1] != "one" {
		t.Fatalf("unexpected slice: %#v", slice)
	}
}

func TestResolver_ProviderResolveErrorPropagates(t *testing.T) {
	want := errors.New("explode")
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(string) (string, error) {
		return "", want
	}})

	if _, err := r.ResolveValue(context.Background(), "secretref:stub:boom"); !errors.Is(err, want) {
		t.Fatalf("ResolveValue() error = %v, want %v", err, want)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("PRODUCTSEARCH_TEST_SECRET", "s3cret")

	got, err := EnvProvider{}.Resolve(context.Background(), "PRODUCTSEARCH_TEST_SECRET")
	if err != nil || got != "s3cret" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}
	if _, err := (EnvProvider{}).Resolve(context.Background(), "PRODUCTSEARCH_TEST_UNSET_SECRET"); !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("Resolve() error = %v, want ErrMissingEnv", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jwt")
	if err := os.WriteFile(path, []byte("signing-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := FileProvider{}.Resolve(context.Background(), path)
	if err != nil || got != "signing-key" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}

	rooted := FileProvider{Root: dir}
	if got, err := rooted.Resolve(context.Background(), "jwt"); err != nil || got != "signing-key" {
		t.Fatalf("rooted Resolve() = %q, %v", got, err)
	}
	if _, err := rooted.Resolve(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("rooted Resolve() should refuse paths outside root")
	}
}
