// Package poller implements the movers feed poller.
//
// The poller:
//   - Polls the configured component feeds on a fixed interval
//   - Resolves feed URLs from the fetcher's active base on every fetch,
//     so a base switch during fallback is picked up immediately
//   - Fetches feeds concurrently with a bounded worker count
//   - Hands every result, failures included, to the snapshot handler
package poller
