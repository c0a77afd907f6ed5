package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the single realtime connection: status, subscriptions,
// outbound sends and reconnection with backoff.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	newClient func(ClientConfig, *slog.Logger) Client

	mu      sync.Mutex
	status  Status
	client  Client   // nil unless connected
	session *session // non-nil while a session runs

	subsMu sync.RWMutex
	subs   map[string]map[uint64]Handler
	nextID uint64
}

// session is one Connect..Disconnect lifetime. done closes when its
// goroutine has exited.
type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a Manager in the disconnected state.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		cfg:       cfg.normalized(),
		logger:    logger,
		newClient: NewClient,
		status:    StatusDisconnected,
		subs:      make(map[string]map[uint64]Handler),
	}
}

// Status returns the current connection status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// URL returns the WebSocket URL the next dial will use.
func (m *Manager) URL() string {
	if m.cfg.URLFunc != nil {
		if u := m.cfg.URLFunc(); u != "" {
			return u
		}
	}
	return m.cfg.URL
}

// Connect starts a session in the background. The status moves to
// connecting immediately and then to connected or error; failures are
// reported through the connection event and retried with backoff until
// Disconnect is called or ctx is done. Connect on a running session is a
// no-op.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	if m.session != nil {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &session{cancel: cancel, done: make(chan struct{})}
	m.session = s
	m.mu.Unlock()

	m.setStatus(StatusConnecting, nil)

	go m.run(runCtx, s)
}

// Disconnect stops the session, cancels any pending reconnect and closes
// the connection. It blocks until the cancelled session's goroutine exits.
// A session started meanwhile by another Connect is left running.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s != nil {
		s.cancel()
		<-s.done
	}

	if m.idle() {
		m.setStatus(StatusDisconnected, nil)
	}
}

func (m *Manager) idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session == nil
}

// Subscribe registers handler for event and returns its unsubscribe
// function. Calling the returned function more than once has no effect.
func (m *Manager) Subscribe(event string, handler Handler) func() {
	m.subsMu.Lock()
	m.nextID++
	id := m.nextID
	if m.subs[event] == nil {
		m.subs[event] = make(map[uint64]Handler)
	}
	m.subs[event][id] = handler
	m.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subsMu.Lock()
			defer m.subsMu.Unlock()
			delete(m.subs[event], id)
			if len(m.subs[event]) == 0 {
				delete(m.subs, event)
			}
		})
	}
}

// Send publishes payload under event. It fails with ErrNotConnected when
// there is no open connection; nothing is queued.
func (m *Manager) Send(event string, payload any) error {
	if event == "" {
		return ErrEmptyEvent
	}
	if event == EventConnection {
		return ErrReservedEvent
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	msg, err := json.Marshal(Envelope{
		ID:    uuid.NewString(),
		Event: event,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	m.mu.Lock()
	c := m.client
	m.mu.Unlock()

	if c == nil {
		return ErrNotConnected
	}
	return c.Send(msg)
}

// run is the session loop: dial, pump messages, back off, repeat.
func (m *Manager) run(ctx context.Context, s *session) {
	defer close(s.done)
	defer func() {
		m.mu.Lock()
		current := m.session == s
		if current {
			m.session = nil
		}
		idle := m.session == nil
		m.mu.Unlock()

		s.cancel()
		if idle {
			m.setStatus(StatusDisconnected, nil)
		}
	}()

	wait := m.cfg.ReconnectBaseWait

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			m.logger.Info("reconnecting", "wait", wait, "attempt", attempt)

			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			wait *= 2
			if wait > m.cfg.ReconnectMaxWait {
				wait = m.cfg.ReconnectMaxWait
			}
			m.setStatus(StatusConnecting, nil)
		}

		clientCfg := m.cfg.Client
		clientCfg.URL = m.URL()

		c := m.newClient(clientCfg, m.logger)
		if err := c.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("websocket connect failed", "url", clientCfg.URL, "error", err)
			m.setStatus(StatusError, err)
			continue
		}

		m.setClient(c)
		m.setStatus(StatusConnected, nil)
		wait = m.cfg.ReconnectBaseWait

		err := m.pump(ctx, c)

		m.setClient(nil)
		_ = c.Close()

		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("websocket connection lost", "url", clientCfg.URL, "error", err)
		m.setStatus(StatusError, err)
	}
}

// pump delivers inbound messages until the connection fails or ctx ends.
func (m *Manager) pump(ctx context.Context, c Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-c.Errors():
			return err
		case msg := <-c.Messages():
			m.handleMessage(msg)
		}
	}
}

func (m *Manager) handleMessage(msg TimestampedMessage) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		m.logger.Debug("dropping malformed message", "error", err, "bytes", len(msg.Data))
		return
	}
	if env.Event == "" || env.Event == EventConnection {
		m.logger.Debug("dropping message", "event", env.Event)
		return
	}

	m.dispatch(Event{
		Name:       env.Event,
		Data:       env.Data,
		ReceivedAt: msg.ReceivedAt,
	})
}

func (m *Manager) setClient(c Client) {
	m.mu.Lock()
	m.client = c
	m.mu.Unlock()
}

// setStatus records s and emits the connection event when it changed.
func (m *Manager) setStatus(s Status, cause error) {
	m.mu.Lock()
	if m.status == s {
		m.mu.Unlock()
		return
	}
	m.status = s
	m.mu.Unlock()

	change := StatusChange{Status: s}
	if cause != nil {
		change.Error = cause.Error()
	}
	data, _ := json.Marshal(change)

	m.logger.Debug("connection status", "status", s)
	m.dispatch(Event{Name: EventConnection, Data: data, ReceivedAt: time.Now()})
}

// dispatch calls every handler subscribed to ev.Name. A panicking handler
// is logged and does not affect the others.
func (m *Manager) dispatch(ev Event) {
	m.subsMu.RLock()
	handlers := make([]Handler, 0, len(m.subs[ev.Name]))
	for _, h := range m.subs[ev.Name] {
		handlers = append(handlers, h)
	}
	m.subsMu.RUnlock()

	for _, h := range handlers {
		m.call(h, ev)
	}
}

func (m *Manager) call(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handler panicked", "event", ev.Name, "panic", r)
		}
	}()
	h(ev)
}
