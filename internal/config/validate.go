package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MinReconnectDelay is the tightest reconnect schedule the manager accepts.
const MinReconnectDelay = time.Second

// Validate checks that all required fields are set and values are valid.
func (c *DashboardConfig) Validate() error {
	if c.API.URL == "" {
		return errors.New("api.url is required")
	}
	if !strings.HasPrefix(c.API.URL, "/") {
		raw := c.API.URL
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		if err := validateOrigin("api.url", raw); err != nil {
			return err
		}
	}
	if c.API.WSURL != "" {
		u, err := url.Parse(c.API.WSURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("api.ws_url must be a ws:// or wss:// URL, got %q", c.API.WSURL)
		}
	}
	if err := validateOrigin("api.page_origin", c.API.PageOrigin); err != nil {
		return err
	}
	for i, cand := range c.API.Candidates {
		if err := validateOrigin(fmt.Sprintf("api.candidates[%d]", i), cand); err != nil {
			return err
		}
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if c.API.ProbeTimeout <= 0 {
		return errors.New("api.probe_timeout must be > 0")
	}
	if c.API.CacheWindow < 0 {
		return errors.New("api.cache_window must be >= 0")
	}

	if c.Connection.ReconnectBaseDelay < MinReconnectDelay {
		return fmt.Errorf("connection.reconnect_base_delay must be >= %s", MinReconnectDelay)
	}
	if c.Connection.ReconnectMaxDelay < c.Connection.ReconnectBaseDelay {
		return fmt.Errorf("connection.reconnect_max_delay (%s) cannot be less than reconnect_base_delay (%s)",
			c.Connection.ReconnectMaxDelay, c.Connection.ReconnectBaseDelay)
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}
	if c.Poller.Concurrency < 1 {
		return errors.New("poller.concurrency must be >= 1")
	}

	if c.Watchlist.Path == "" {
		return errors.New("watchlist.path is required")
	}

	if c.History.Enabled {
		if err := c.History.Database.validate("history.database"); err != nil {
			return err
		}
		if c.History.BatchSize < 1 {
			return errors.New("history.batch_size must be >= 1")
		}
	}

	return nil
}

func validateOrigin(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) origin, got %q", field, raw)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
