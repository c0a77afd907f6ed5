package config

import (
	"fmt"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultAPIURL             = "/api"
	DefaultAPITimeout         = 8 * time.Second
	DefaultProbeTimeout       = 1500 * time.Millisecond
	DefaultCacheWindow        = 10 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultPingInterval       = 25 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPollInterval       = 30 * time.Second
	DefaultPollConcurrency    = 4
	DefaultWatchlistPath      = "./watchlist.db"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultBatchSize          = 500
	DefaultFlushInterval      = 5 * time.Second
	DefaultBackendPort        = 5004
	DefaultFrontendPort       = 5173
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

// DefaultPollEndpoints are the component feeds the dashboard renders.
var DefaultPollEndpoints = []string{
	"top-banner-scroll",
	"gainers-table-1min",
	"gainers-table",
	"losers-table",
	"bottom-banner-scroll",
}

func (c *DashboardConfig) applyDefaults() {
	// Dev defaults first: the page origin depends on them
	if c.Dev.BackendPort == 0 {
		c.Dev.BackendPort = DefaultBackendPort
	}
	if c.Dev.FrontendPort == 0 {
		c.Dev.FrontendPort = DefaultFrontendPort
	}

	// API defaults
	if c.API.URL == "" {
		c.API.URL = DefaultAPIURL
	}
	if c.API.PageOrigin == "" {
		c.API.PageOrigin = fmt.Sprintf("http://localhost:%d", c.Dev.FrontendPort)
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.ProbeTimeout == 0 {
		c.API.ProbeTimeout = DefaultProbeTimeout
	}
	if c.API.CacheWindow == 0 {
		c.API.CacheWindow = DefaultCacheWindow
	}

	// Connection defaults
	if c.Connection.ReconnectBaseDelay == 0 {
		c.Connection.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Connection.ReconnectMaxDelay == 0 {
		c.Connection.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Connection.PingInterval == 0 {
		c.Connection.PingInterval = DefaultPingInterval
	}
	if c.Connection.PingTimeout == 0 {
		c.Connection.PingTimeout = DefaultPingTimeout
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.Concurrency == 0 {
		c.Poller.Concurrency = DefaultPollConcurrency
	}
	if len(c.Poller.Endpoints) == 0 {
		c.Poller.Endpoints = append([]string(nil), DefaultPollEndpoints...)
	}

	if c.Watchlist.Path == "" {
		c.Watchlist.Path = DefaultWatchlistPath
	}

	// History defaults
	applyDBDefaults(&c.History.Database)
	if c.History.BatchSize == 0 {
		c.History.BatchSize = DefaultBatchSize
	}
	if c.History.FlushInterval == 0 {
		c.History.FlushInterval = DefaultFlushInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
