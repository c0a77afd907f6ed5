// Package devserver is an in-process mock of the dashboard backend.
//
// It serves the REST endpoints the api package knows about with canned
// mover data, and a /ws endpoint that echoes envelopes back to the sender
// and broadcasts a "movers" event on every tick. Use it for local
// development, the ws-smoke command and tests.
package devserver
