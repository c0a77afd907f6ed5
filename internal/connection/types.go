package connection

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrEmptyEvent      = errors.New("event name is required")
	ErrReservedEvent   = errors.New("event name is reserved")
)

// EventConnection is the reserved event emitted on every status change.
// Its data is a StatusChange.
const EventConnection = "connection"

// Status is the lifecycle state of the realtime connection.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// StatusChange is the payload of the connection event.
type StatusChange struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Envelope is the wire format in both directions.
type Envelope struct {
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is a decoded inbound message delivered to handlers.
type Event struct {
	Name       string
	Data       json.RawMessage
	ReceivedAt time.Time
}

// StatusChange decodes the payload of a connection event.
func (e Event) StatusChange() (StatusChange, bool) {
	if e.Name != EventConnection {
		return StatusChange{}, false
	}
	var sc StatusChange
	if err := json.Unmarshal(e.Data, &sc); err != nil {
		return StatusChange{}, false
	}
	return sc, true
}

// Handler receives events for one subscription. Handlers run on the
// manager's goroutine and must not block or call Disconnect.
type Handler func(Event)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string      // e.g. ws://localhost:5001/ws
	Header           http.Header // extra handshake headers
	HandshakeTimeout time.Duration
	PingInterval     time.Duration // how often we ping the server
	PingTimeout      time.Duration // max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration // write deadline for sends
	BufferSize       int           // inbound message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     25 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// MinReconnectWait is the floor for the reconnect delay.
const MinReconnectWait = time.Second

// ManagerConfig configures the Manager.
type ManagerConfig struct {
	URL               string        // WebSocket URL
	URLFunc           func() string // when set, resolves the URL before every dial
	ReconnectBaseWait time.Duration // first reconnect delay, at least MinReconnectWait
	ReconnectMaxWait  time.Duration // cap for the doubling delay
	Client            ClientConfig  // URL is taken from the manager config
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseWait: time.Second,
		ReconnectMaxWait:  30 * time.Second,
		Client:            DefaultClientConfig(),
	}
}

func (c ManagerConfig) normalized() ManagerConfig {
	def := DefaultClientConfig()
	if c.ReconnectBaseWait < MinReconnectWait {
		c.ReconnectBaseWait = MinReconnectWait
	}
	if c.ReconnectMaxWait < c.ReconnectBaseWait {
		c.ReconnectMaxWait = c.ReconnectBaseWait
	}
	if c.Client.HandshakeTimeout <= 0 {
		c.Client.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.Client.PingInterval <= 0 {
		c.Client.PingInterval = def.PingInterval
	}
	if c.Client.PingTimeout <= 0 {
		c.Client.PingTimeout = def.PingTimeout
	}
	if c.Client.WriteTimeout <= 0 {
		c.Client.WriteTimeout = def.WriteTimeout
	}
	if c.Client.BufferSize <= 0 {
		c.Client.BufferSize = def.BufferSize
	}
	c.Client.URL = c.URL
	return c
}
