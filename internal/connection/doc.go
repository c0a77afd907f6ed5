// Package connection implements the realtime Connection Manager.
//
// The Manager:
//   - Holds one WebSocket connection to the backend (gorilla/websocket)
//   - Tracks status (disconnected, connecting, connected, error) and emits
//     it as the reserved "connection" event
//   - Routes inbound {id, event, data} envelopes to subscribed handlers
//   - Reconnects with exponential backoff until Disconnect is called
//
// Provider wraps a Manager for the lifetime of a view and travels in a
// context.Context.
package connection
