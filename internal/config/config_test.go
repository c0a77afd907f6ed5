package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  url: http://localhost:5004
  probe_timeout: 2s
  candidates:
    - http://localhost:5001
    - http://127.0.0.1:5001
connection:
  reconnect_base_delay: 2s
poller:
  endpoints: [gainers-table-1min, losers-table]
watchlist:
  path: /tmp/watchlist.db
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5004", cfg.API.URL)
	assert.Equal(t, 2*time.Second, cfg.API.ProbeTimeout)
	assert.Equal(t, []string{"http://localhost:5001", "http://127.0.0.1:5001"}, cfg.API.Candidates)
	assert.Equal(t, 2*time.Second, cfg.Connection.ReconnectBaseDelay)
	assert.Equal(t, []string{"gainers-table-1min", "losers-table"}, cfg.Poller.Endpoints)
	assert.Equal(t, "/tmp/watchlist.db", cfg.Watchlist.Path)
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
history:
  enabled: true
  database:
    host: localhost
    name: movers
    user: dashboard
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret123", cfg.History.Database.Password)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://localhost:5006")
	t.Setenv(EnvWSURL, "ws://localhost:5006/ws")
	t.Setenv(EnvBackendPort, "5006")
	t.Setenv(EnvFrontendPort, "3000")

	path := writeTempFile(t, "api:\n  url: /api\n")

	cfg, err := LoadWithDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5006", cfg.API.URL)
	assert.Equal(t, "ws://localhost:5006/ws", cfg.API.WSURL)
	assert.Equal(t, 5006, cfg.Dev.BackendPort)
	assert.Equal(t, "http://localhost:3000", cfg.API.PageOrigin)
}

func TestLoadEnvOverrides_BadPort(t *testing.T) {
	t.Setenv(EnvBackendPort, "five")

	_, err := Load("")
	assert.ErrorContains(t, err, "parse BACKEND_PORT")
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.API.URL)
	assert.Equal(t, DefaultAPITimeout, cfg.API.Timeout)
	assert.Equal(t, DefaultProbeTimeout, cfg.API.ProbeTimeout)
	assert.Equal(t, DefaultCacheWindow, cfg.API.CacheWindow)
	assert.Equal(t, "http://localhost:5173", cfg.API.PageOrigin)
	assert.Equal(t, DefaultReconnectBaseDelay, cfg.Connection.ReconnectBaseDelay)
	assert.Equal(t, DefaultReconnectMaxDelay, cfg.Connection.ReconnectMaxDelay)
	assert.Equal(t, DefaultPollEndpoints, cfg.Poller.Endpoints)
	assert.Equal(t, DefaultDBPort, cfg.History.Database.Port)
	assert.Equal(t, DefaultBackendPort, cfg.Dev.BackendPort)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	valid := func() DashboardConfig {
		cfg := DashboardConfig{}
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*DashboardConfig)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(*DashboardConfig) {},
			wantErr: "",
		},
		{
			name:    "bare host api url",
			mutate:  func(c *DashboardConfig) { c.API.URL = "localhost:5004" },
			wantErr: "",
		},
		{
			name:    "bad ws url scheme",
			mutate:  func(c *DashboardConfig) { c.API.WSURL = "http://localhost:5004/ws" },
			wantErr: `api.ws_url must be a ws:// or wss:// URL, got "http://localhost:5004/ws"`,
		},
		{
			name:    "bad candidate",
			mutate:  func(c *DashboardConfig) { c.API.Candidates = []string{"ftp://host"} },
			wantErr: `api.candidates[0] must be an http(s) origin, got "ftp://host"`,
		},
		{
			name:    "reconnect too tight",
			mutate:  func(c *DashboardConfig) { c.Connection.ReconnectBaseDelay = 100 * time.Millisecond },
			wantErr: "connection.reconnect_base_delay must be >= 1s",
		},
		{
			name: "reconnect max below base",
			mutate: func(c *DashboardConfig) {
				c.Connection.ReconnectBaseDelay = 5 * time.Second
				c.Connection.ReconnectMaxDelay = 2 * time.Second
			},
			wantErr: "connection.reconnect_max_delay (2s) cannot be less than reconnect_base_delay (5s)",
		},
		{
			name:    "zero poll concurrency",
			mutate:  func(c *DashboardConfig) { c.Poller.Concurrency = 0 },
			wantErr: "poller.concurrency must be >= 1",
		},
		{
			name:    "history enabled without host",
			mutate:  func(c *DashboardConfig) { c.History.Enabled = true },
			wantErr: "history.database.host is required",
		},
		{
			name: "history min_conns exceeds max_conns",
			mutate: func(c *DashboardConfig) {
				c.History.Enabled = true
				c.History.Database = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 2, MinConns: 5}
			},
			wantErr: "history.database.min_conns (5) cannot exceed max_conns (2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
