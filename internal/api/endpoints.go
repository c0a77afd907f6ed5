package api

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Paths relative to the API prefix.
const (
	apiPrefix      = "/api"
	serverInfoPath = apiPrefix + "/server-info"
)

// Logical endpoint names, as used in configuration and on the command line.
const (
	NameTopBanner              = "top-banner-scroll"
	NameBottomBanner           = "bottom-banner-scroll"
	NameGainersTable           = "gainers-table"
	NameGainersTable1Min       = "gainers-table-1min"
	NameLosersTable            = "losers-table"
	NameAlertsRecent           = "alerts-recent"
	NameTopMoversBar           = "top-movers-bar"
	NameCrypto                 = "crypto"
	NameHealth                 = "health"
	NameServerInfo             = "server-info"
	NameMarketOverview         = "market-overview"
	NameWatchlistInsights      = "watchlist-insights"
	NameWatchlistInsightsLog   = "watchlist-insights-log"
	NameWatchlistInsightsPrice = "watchlist-insights-price"
)

// Endpoints maps logical operations to URLs under one base.
// Symbol-parameterized endpoints are methods.
type Endpoints struct {
	Base string // "" for same-origin

	TopBanner              string
	BottomBanner           string
	GainersTable           string // 3-minute window
	GainersTable1Min       string
	LosersTable            string // 3-minute window
	AlertsRecent           string
	TopMoversBar           string
	Crypto                 string
	Health                 string
	ServerInfo             string
	MarketOverview         string
	WatchlistInsights      string
	WatchlistInsightsLog   string
	WatchlistInsightsPrice string
}

// BuildEndpoints derives every endpoint URL from base.
func BuildEndpoints(base string) Endpoints {
	root := strings.TrimRight(base, "/") + apiPrefix
	return Endpoints{
		Base:                   strings.TrimRight(base, "/"),
		TopBanner:              root + "/component/top-banner-scroll",
		BottomBanner:           root + "/component/bottom-banner-scroll",
		GainersTable:           root + "/component/gainers-table",
		GainersTable1Min:       root + "/component/gainers-table-1min",
		LosersTable:            root + "/component/losers-table",
		AlertsRecent:           root + "/alerts/recent",
		TopMoversBar:           root + "/component/top-movers-bar",
		Crypto:                 root + "/crypto",
		Health:                 root + "/health",
		ServerInfo:             root + "/server-info",
		MarketOverview:         root + "/market-overview",
		WatchlistInsights:      root + "/watchlist/insights",
		WatchlistInsightsLog:   root + "/watchlist/insights/log",
		WatchlistInsightsPrice: root + "/watchlist/insights/price",
	}
}

// TechnicalAnalysis returns the technical-analysis URL for symbol.
func (e Endpoints) TechnicalAnalysis(symbol string) string {
	return e.root() + "/technical-analysis/" + url.PathEscape(symbol)
}

// CryptoNews returns the news URL for symbol.
func (e Endpoints) CryptoNews(symbol string) string {
	return e.root() + "/news/" + url.PathEscape(symbol)
}

// SocialSentiment returns the social-sentiment URL for symbol.
func (e Endpoints) SocialSentiment(symbol string) string {
	return e.root() + "/social-sentiment/" + url.PathEscape(symbol)
}

// WatchlistLatest is where the latest alert per watched symbol is posted.
func (e Endpoints) WatchlistLatest() string {
	return e.WatchlistInsights + "/latest"
}

func (e Endpoints) root() string {
	return e.Base + apiPrefix
}

// Lookup resolves a logical endpoint name to its URL.
func (e Endpoints) Lookup(name string) (string, bool) {
	u, ok := e.byName()[name]
	return u, ok
}

// Names lists every logical endpoint name, sorted.
func (e Endpoints) Names() []string {
	m := e.byName()
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (e Endpoints) byName() map[string]string {
	return map[string]string{
		NameTopBanner:              e.TopBanner,
		NameBottomBanner:           e.BottomBanner,
		NameGainersTable:           e.GainersTable,
		NameGainersTable1Min:       e.GainersTable1Min,
		NameLosersTable:            e.LosersTable,
		NameAlertsRecent:           e.AlertsRecent,
		NameTopMoversBar:           e.TopMoversBar,
		NameCrypto:                 e.Crypto,
		NameHealth:                 e.Health,
		NameServerInfo:             e.ServerInfo,
		NameMarketOverview:         e.MarketOverview,
		NameWatchlistInsights:      e.WatchlistInsights,
		NameWatchlistInsightsLog:   e.WatchlistInsightsLog,
		NameWatchlistInsightsPrice: e.WatchlistInsightsPrice,
	}
}

// DefaultCandidates returns the fallback origins in probe order:
// localhost then 127.0.0.1 for each port 5001-5007.
func DefaultCandidates() []string {
	out := make([]string, 0, 14)
	for port := 5001; port <= 5007; port++ {
		out = append(out,
			fmt.Sprintf("http://localhost:%d", port),
			fmt.Sprintf("http://127.0.0.1:%d", port),
		)
	}
	return out
}

// NormalizeOrigin reduces an API setting to scheme://host[:port].
// Relative paths ("/api") and unparseable input yield "" (same-origin);
// a bare host gets an http scheme.
func NormalizeOrigin(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "/") {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + u.Host
}

// WebSocketURL derives the realtime endpoint for origin: http becomes ws,
// https becomes wss, and path is appended. An empty or unparseable origin
// falls back to ws://localhost.
func WebSocketURL(origin, path string) string {
	if path == "" {
		path = "/ws"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return "ws://localhost" + path
	}

	scheme := "ws"
	if strings.EqualFold(u.Scheme, "https") {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + path
}

// WebSocketURL returns override when set, otherwise the realtime endpoint of
// the active base, or of the page origin when the client is same-origin.
func (c *Client) WebSocketURL(override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	origin := c.BaseURL()
	if origin == "" {
		origin = c.pageOrigin
	}
	return WebSocketURL(origin, "/ws")
}
