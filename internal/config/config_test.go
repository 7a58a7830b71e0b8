package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("UDPFORGE_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.flag)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.LocalPort)
	assert.Equal(t, 1, cfg.Server.ListenerThreadCount)
	assert.Equal(t, "1s", cfg.Server.TickInterval)

	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "default", cfg.Groups[0].Name)
	assert.Equal(t, 1000, cfg.Groups[0].Capacity)
	assert.Equal(t, 4, cfg.Groups[0].MinThreads)
	assert.Equal(t, 32, cfg.Groups[0].MaxThreads)

	assert.False(t, cfg.Admin.Enabled)
	assert.Equal(t, "127.0.0.1", cfg.Admin.Host)
	assert.Equal(t, 8090, cfg.Admin.Port)

	assert.Equal(t, "udpforge.sqlite", cfg.Database.Path)
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  local_port: 9100
  listener_thread_count: 2
  tick_interval: "2s"

groups:
  - name: "fast"
    capacity: 500
    effective_wait: "5s"
    min_threads: 2
    max_threads: 16
    worker_stall_timeout: "1s"

logging:
  level: "DEBUG"
  structured: true
  structured_format: "keyvalue"

admin:
  enabled: true
  host: "0.0.0.0"
  port: 9191
  api_key: "secret"

database:
  path: "/tmp/history.sqlite"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.LocalPort)
	assert.Equal(t, 2, cfg.Server.ListenerThreadCount)
	assert.Equal(t, "2s", cfg.Server.TickInterval)

	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "fast", cfg.Groups[0].Name)
	assert.Equal(t, 500, cfg.Groups[0].Capacity)
	assert.Equal(t, 2, cfg.Groups[0].MinThreads)
	assert.Equal(t, 16, cfg.Groups[0].MaxThreads)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Structured)
	assert.Equal(t, "keyvalue", cfg.Logging.StructuredFormat)

	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, "0.0.0.0", cfg.Admin.Host)
	assert.Equal(t, 9191, cfg.Admin.Port)
	assert.Equal(t, "secret", cfg.Admin.APIKey)

	assert.Equal(t, "/tmp/history.sqlite", cfg.Database.Path)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  local_port: [invalid"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeInvalidPort(t *testing.T) {
	content := `
server:
  local_port: 0
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeInvalidGroupThreadBounds(t *testing.T) {
	content := `
groups:
  - name: "broken"
    capacity: 100
    effective_wait: "1s"
    min_threads: 8
    max_threads: 2
    worker_stall_timeout: "1s"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeInvalidDuration(t *testing.T) {
	content := `
groups:
  - name: "broken"
    capacity: 100
    effective_wait: "not-a-duration"
    min_threads: 1
    max_threads: 2
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UDPFORGE_SERVER_LOCAL_PORT", "9500")
	t.Setenv("UDPFORGE_SERVER_LISTENER_THREAD_COUNT", "4")
	t.Setenv("UDPFORGE_LOGGING_LEVEL", "debug")
	t.Setenv("UDPFORGE_ADMIN_ENABLED", "true")
	t.Setenv("UDPFORGE_ADMIN_PORT", "9600")
	t.Setenv("UDPFORGE_DATABASE_PATH", "/custom/history.sqlite")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9500, cfg.Server.LocalPort)
	assert.Equal(t, 4, cfg.Server.ListenerThreadCount)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, 9600, cfg.Admin.Port)
	assert.Equal(t, "/custom/history.sqlite", cfg.Database.Path)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64 // nanoseconds
		wantErr bool
	}{
		{"empty is zero", "", 0, false},
		{"literal zero is zero", "0", 0, false},
		{"seconds", "30s", int64(30_000_000_000), false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, int64(got))
		})
	}
}
