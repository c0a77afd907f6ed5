package config

import "time"

// DashboardConfig is the root configuration for the dashboard client.
type DashboardConfig struct {
	API        APIConfig        `yaml:"api"`
	Connection ConnectionConfig `yaml:"connection"`
	Poller     PollerConfig     `yaml:"poller"`
	Watchlist  WatchlistConfig  `yaml:"watchlist"`
	History    HistoryConfig    `yaml:"history"`
	Dev        DevConfig        `yaml:"dev"`
	Log        LogConfig        `yaml:"log"`
}

// APIConfig holds backend resolution and fetch settings.
type APIConfig struct {
	// URL is either "/api" (same-origin, proxied by the dev server) or an
	// absolute origin such as http://localhost:5004.
	URL          string        `yaml:"url"`
	WSURL        string        `yaml:"ws_url"`      // explicit realtime endpoint override
	PageOrigin   string        `yaml:"page_origin"` // origin that relative /api paths resolve against
	Timeout      time.Duration `yaml:"timeout"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	CacheWindow  time.Duration `yaml:"cache_window"`
	Candidates   []string      `yaml:"candidates"`
}

// ConnectionConfig holds realtime connection manager settings.
type ConnectionConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
}

// PollerConfig holds component polling settings.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Endpoints   []string      `yaml:"endpoints"` // logical endpoint names
}

// WatchlistConfig holds local watchlist persistence settings.
type WatchlistConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig holds the optional TimescaleDB sink for polled movers.
type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Hypertable    bool          `yaml:"hypertable"` // TimescaleDB: convert the table to a hypertable
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// DevConfig holds settings for local development tooling.
type DevConfig struct {
	BackendPort  int `yaml:"backend_port"`
	FrontendPort int `yaml:"frontend_port"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
