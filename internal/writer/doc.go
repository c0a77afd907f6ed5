// Package writer implements the batch writer for polled movers.
//
// MoversWriter receives snapshots from the poller, buffers one row per
// mover and bulk-copies them into the history table when the batch is
// full or the flush interval elapses. Writes are append-only.
package writer
