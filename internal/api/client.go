package api

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Defaults for a new Client.
const (
	DefaultTimeout      = 8 * time.Second
	DefaultProbeTimeout = 1500 * time.Millisecond
	DefaultCacheWindow  = 10 * time.Second
)

// Client is the resilient data fetcher. It owns the active base URL, the
// endpoint table built from it and the request cache. Construct one per
// backend; tests may run several side by side.
type Client struct {
	httpClient   *http.Client
	logger       *slog.Logger
	pageOrigin   string
	candidates   []string
	timeout      time.Duration
	probeTimeout time.Duration
	now          func() time.Time

	mu        sync.RWMutex
	base      string // "" means same-origin relative /api paths
	endpoints Endpoints

	cache *requestCache
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a fetcher. apiOrigin is either empty, a relative path
// such as "/api" (same-origin), or an absolute origin; anything else
// is normalized with NormalizeOrigin.
func NewClient(apiOrigin string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   cleanhttp.DefaultPooledClient(),
		logger:       slog.Default(),
		pageOrigin:   "http://localhost",
		candidates:   DefaultCandidates(),
		timeout:      DefaultTimeout,
		probeTimeout: DefaultProbeTimeout,
		now:          time.Now,
		cache:        newRequestCache(DefaultCacheWindow),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.base = NormalizeOrigin(apiOrigin)
	c.endpoints = BuildEndpoints(c.base)

	return c
}

// WithTimeout bounds each primary request and each fallback retry.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithProbeTimeout bounds each candidate health probe.
func WithProbeTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.probeTimeout = d
	}
}

// WithCandidates replaces the fallback origin list.
func WithCandidates(origins []string) ClientOption {
	return func(c *Client) {
		c.candidates = make([]string, 0, len(origins))
		for _, o := range origins {
			c.candidates = append(c.candidates, strings.TrimRight(o, "/"))
		}
	}
}

// WithPageOrigin sets the origin that relative URLs resolve against.
func WithPageOrigin(origin string) ClientOption {
	return func(c *Client) {
		c.pageOrigin = strings.TrimRight(origin, "/")
	}
}

// WithCacheWindow sets the freshness window of the request cache.
func WithCacheWindow(d time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = newRequestCache(d)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// BaseURL returns the active base URL ("" for same-origin).
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// Endpoints returns the endpoint table built from the active base.
func (c *Client) Endpoints() Endpoints {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints
}

// SetBaseURL switches the active base and rebuilds the endpoint table.
// Empty input is ignored.
func (c *Client) SetBaseURL(base string) {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return
	}

	c.mu.Lock()
	c.base = base
	c.endpoints = BuildEndpoints(base)
	c.mu.Unlock()

	c.logger.Info("switched api base", "base", base)
}

// Candidates returns a copy of the fallback origin list.
func (c *Client) Candidates() []string {
	return append([]string(nil), c.candidates...)
}
