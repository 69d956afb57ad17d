package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with a fresh TECHTRIBE_HOME.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TECHTRIBE_HOME", home)
	t.Setenv("TECHTRIBE_JWT_SECRET", "test-secret-at-least-16")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "techtribe")
}

func TestConfigSetGetPath(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml"), strings.TrimSpace(out))

	_, err = run(t, home, "config", "set", "server.port", "9100")
	require.NoError(t, err)

	out, err = run(t, home, "config", "get", "server.port")
	require.NoError(t, err)
	assert.Equal(t, "9100", strings.TrimSpace(out))

	_, err = run(t, home, "config", "get", "server.missing")
	assert.Error(t, err)
}

func TestSeedCmd(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 6")

	out, err = run(t, home, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")

	_, err = os.Stat(filepath.Join(home, "data", "techtribe.db"))
	assert.NoError(t, err)
}

func TestAdminCreateAndToken(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "admin", "create", "--name", "Op", "--email", "op@techtribe.az", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Created operator Op <op@techtribe.az>")

	out, err = run(t, home, "admin", "token", "--email", "op@techtribe.az")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3, "JWT has three segments")

	_, err = run(t, home, "admin", "token", "--email", "nobody@techtribe.az")
	assert.Error(t, err)

	_, err = run(t, home, "admin", "create", "--name", "Op", "--email", "op@techtribe.az", "--password", "pw")
	assert.Error(t, err)
}

func TestStatusCmd(t *testing.T) {
	home := t.TempDir()

	out, err := run(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Database: not created yet")
	assert.Contains(t, out, "IRC:      (not configured)")

	_, err = run(t, home, "seed")
	require.NoError(t, err)

	out, err = run(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Products: 6")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"FALSE", false},
		{"42", 42},
		{"1.5", 1.5},
		{"gemini", "gemini"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseValue(tt.in), tt.in)
	}
}
