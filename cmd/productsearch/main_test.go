package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "productsearch dev"))
}

func TestProviders(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "productsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  providers: [sdepot, wesco]\nstream:\n  providers: [sdepot]\n"), 0o600))

	out, err := execute(t, "providers", "--config", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.Contains(t, lines[0], "KEY")
	assert.Regexp(t, `^sdepot\s+SDEPOT\s+yes\s+yes$`, lines[2])
	assert.Regexp(t, `^doorControls\s+Door Controls USA\s+no\s+no$`, lines[1])
	assert.Regexp(t, `^wesco\s+Wesco\s+yes\s+no$`, lines[6])
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	_, err := execute(t, "providers", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEnabled(t *testing.T) {
	assert.True(t, enabled(nil, "a", true))
	assert.False(t, enabled(nil, "a", false))
	assert.True(t, enabled([]string{"b", "a"}, "a", false))
	assert.False(t, enabled([]string{"b"}, "a", true))
}
