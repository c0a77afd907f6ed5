// Package api resolves which dashboard backend to talk to and fetches
// component data from it.
//
// Fetch applies a short freshness window per literal URL so that several
// views polling the same feed issue one request per window. When a request
// fails the client probes a fixed list of candidate origins
// (localhost/127.0.0.1 ports 5001-5007), retries the request against the
// first one whose /api/server-info answers, and only after that retry
// succeeds switches the active base for all later endpoint construction.
//
// Endpoints:
//   - Components: /api/component/{top-banner-scroll,bottom-banner-scroll,
//     gainers-table,gainers-table-1min,losers-table,top-movers-bar}
//   - Health: /api/health, /api/server-info
//   - Per symbol: /api/technical-analysis/{symbol}, /api/news/{symbol},
//     /api/social-sentiment/{symbol}
package api
