package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaths_HomeOverride(t *testing.T) {
	base := t.TempDir()
	t.Setenv("TECHTRIBE_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, base, p.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(base, "data"), p.Data)
	assert.Equal(t, filepath.Join(base, "data", "techtribe.db"), p.Database)
	assert.Equal(t, filepath.Join(base, "logs"), p.Logs)
}

func TestResolvePaths_Default(t *testing.T) {
	t.Setenv("TECHTRIBE_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".techtribe"), p.Base)
}

func TestEnsureDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "tt")
	t.Setenv("TECHTRIBE_HOME", base)

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, p.EnsureDirs())

	for _, d := range []string{p.Base, p.Credentials, p.Logs, p.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}
}

func TestDatabasePath(t *testing.T) {
	p := Paths{Base: "/srv/tt", Database: "/srv/tt/data/techtribe.db"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default", "", "/srv/tt/data/techtribe.db"},
		{"memory", ":memory:", ":memory:"},
		{"absolute", "/var/lib/tt.db", "/var/lib/tt.db"},
		{"relative", "db/tt.db", filepath.Join("/srv/tt", "db/tt.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.DatabasePath(DatabaseConfig{Path: tt.in}))
		})
	}
}

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "server", []string{"server"}, false},
		{"two segments", "server.port", []string{"server", "port"}, false},
		{"three segments", "chat.persona.tone", []string{"chat", "persona", "tone"}, false},
		{"empty", "", nil, true},
		{"empty segment", "server..port", nil, true},
		{"leading dot", ".server", nil, true},
		{"blocked __proto__", "foo.__proto__.bar", nil, true},
		{"blocked constructor", "constructor", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGetValueAtPath(t *testing.T) {
	root := map[string]any{
		"server": map[string]any{
			"port": 8001,
			"tls":  map[string]any{"enabled": false},
		},
		"simple": "value",
	}

	v, ok := GetValueAtPath(root, []string{"server", "tls", "enabled"})
	assert.True(t, ok)
	assert.Equal(t, false, v)

	v, ok = GetValueAtPath(root, []string{"simple"})
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	_, ok = GetValueAtPath(root, []string{"simple", "deeper"})
	assert.False(t, ok)

	_, ok = GetValueAtPath(root, []string{"missing"})
	assert.False(t, ok)
}

func TestSetValueAtPath_OverwritesScalar(t *testing.T) {
	root := map[string]any{"server": "flat"}
	SetValueAtPath(root, []string{"server", "port"}, 1)

	v, ok := GetValueAtPath(root, []string{"server", "port"})
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}
