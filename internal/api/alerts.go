package api

import (
	"context"
	"encoding/json"
	"net/http"
)

type latestAlertsRequest struct {
	Symbols []string `json:"symbols"`
}

type latestAlertsResponse struct {
	Latest map[string]json.RawMessage `json:"latest"`
}

// LatestAlerts returns the most recent insight per watched symbol, keyed
// by symbol. Empty input or any failure yields an empty map.
func (c *Client) LatestAlerts(ctx context.Context, symbols []string) map[string]json.RawMessage {
	out := map[string]json.RawMessage{}
	if len(symbols) == 0 {
		return out
	}

	var resp latestAlertsResponse
	err := c.FetchInto(ctx, c.Endpoints().WatchlistLatest(), &resp,
		WithMethod(http.MethodPost),
		WithJSONBody(latestAlertsRequest{Symbols: symbols}),
	)
	if err != nil {
		c.logger.Warn("fetch latest alerts", "symbols", len(symbols), "error", err)
		return out
	}

	for sym, v := range resp.Latest {
		out[sym] = v
	}
	return out
}
