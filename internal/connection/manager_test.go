package connection

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(url string) *Manager {
	cfg := DefaultManagerConfig()
	cfg.URL = url
	return NewManager(cfg, quietLogger())
}

// recordStatuses subscribes to the connection event and forwards every
// status to the returned channel.
func recordStatuses(m *Manager) <-chan Status {
	ch := make(chan Status, 64)
	m.Subscribe(EventConnection, func(ev Event) {
		if sc, ok := ev.StatusChange(); ok {
			ch <- sc.Status
		}
	})
	return ch
}

// waitForStatus reads statuses until want arrives and returns everything
// seen, want included.
func waitForStatus(t *testing.T, ch <-chan Status, want Status, timeout time.Duration) []Status {
	t.Helper()
	var seen []Status
	deadline := time.After(timeout)
	for {
		select {
		case s := <-ch:
			seen = append(seen, s)
			if s == want {
				return seen
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s, saw %v", want, seen)
			return nil
		}
	}
}

func TestManager_ConnectTransitions(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	assert.Equal(t, StatusDisconnected, m.Status())

	m.Connect(context.Background())
	seen := waitForStatus(t, statuses, StatusConnected, 2*time.Second)
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, seen)
	assert.Equal(t, StatusConnected, m.Status())

	m.Disconnect()
	assert.Equal(t, []Status{StatusDisconnected}, waitForStatus(t, statuses, StatusDisconnected, time.Second))
	assert.Equal(t, StatusDisconnected, m.Status())
}

func TestManager_ConnectFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	var errMsg atomic.Value
	m.Subscribe(EventConnection, func(ev Event) {
		if sc, _ := ev.StatusChange(); sc.Status == StatusError {
			errMsg.Store(sc.Error)
		}
	})

	m.Connect(context.Background())
	seen := waitForStatus(t, statuses, StatusError, 2*time.Second)
	assert.Equal(t, []Status{StatusConnecting, StatusError}, seen)
	assert.NotEmpty(t, errMsg.Load())

	// Disconnect cancels the pending reconnect without waiting for it.
	start := time.Now()
	m.Disconnect()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, StatusDisconnected, m.Status())
}

func TestManager_Reconnect(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if conns.Add(1) == 1 {
			return // drop the first connection
		}
		drain(conn)
	})
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	m.Connect(context.Background())
	defer m.Disconnect()

	seen := waitForStatus(t, statuses, StatusError, 2*time.Second)
	assert.Equal(t, []Status{StatusConnecting, StatusConnected, StatusError}, seen)

	start := time.Now()
	seen = waitForStatus(t, statuses, StatusConnected, 3*time.Second)
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, seen)
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond, "reconnect respects the 1s floor")
	assert.Equal(t, int32(2), conns.Load())
}

func TestManager_ConnectIsIdempotent(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		drain(conn)
	})
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	m.Connect(context.Background())
	m.Connect(context.Background())
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)
	m.Connect(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), conns.Load())

	m.Disconnect()
}

func TestManager_ConnectFromHandlerDuringDisconnect(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	var reconnected atomic.Bool
	m.Subscribe(EventConnection, func(ev Event) {
		sc, ok := ev.StatusChange()
		if ok && sc.Status == StatusDisconnected && reconnected.CompareAndSwap(false, true) {
			m.Connect(context.Background())
		}
	})

	m.Connect(context.Background())
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)

	done := make(chan struct{})
	go func() {
		m.Disconnect()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Disconnect blocked; status=%s", m.Status())
	}
	require.True(t, reconnected.Load())

	// The session started by the handler runs on and can be torn down.
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)

	stopped := make(chan struct{})
	go func() {
		m.Disconnect()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("second Disconnect blocked")
	}
	assert.Equal(t, StatusDisconnected, m.Status())
}

func TestManager_URLFuncResolvedPerDial(t *testing.T) {
	var hits atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		hits.Add(1)
		drain(conn)
	})
	defer server.Close()

	var target atomic.Value
	target.Store("ws://127.0.0.1:1/ws")

	cfg := DefaultManagerConfig()
	cfg.URL = "ws://127.0.0.1:1/unused"
	cfg.URLFunc = func() string { return target.Load().(string) }
	m := NewManager(cfg, quietLogger())
	statuses := recordStatuses(m)

	assert.Equal(t, "ws://127.0.0.1:1/ws", m.URL())

	m.Connect(context.Background())
	defer m.Disconnect()
	waitForStatus(t, statuses, StatusError, 2*time.Second)

	// The next reconnect follows the new target.
	target.Store(wsURL(server))
	waitForStatus(t, statuses, StatusConnected, 3*time.Second)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, wsURL(server), m.URL())
}

func TestManager_URLFuncEmptyFallsBack(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.URL = "ws://localhost/ws"
	cfg.URLFunc = func() string { return "" }
	assert.Equal(t, "ws://localhost/ws", NewManager(cfg, quietLogger()).URL())
}

func TestManager_ContextCancelEndsSession(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	ctx, cancel := context.WithCancel(context.Background())
	m.Connect(ctx)
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)

	cancel()
	waitForStatus(t, statuses, StatusDisconnected, 2*time.Second)

	// A new session can start after the old one ended on its own.
	m.Connect(context.Background())
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)
	m.Disconnect()
}

func TestManager_DispatchesEvents(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range []string{
			`not json`,
			`{"event":"","data":1}`,
			`{"event":"connection","data":{"status":"error"}}`,
			`{"event":"alerts","data":{"n":0}}`,
			`{"event":"movers","data":{"n":1}}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		drain(conn)
	})
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	movers := make(chan Event, 4)
	m.Subscribe("movers", func(ev Event) { movers <- ev })

	m.Connect(context.Background())
	defer m.Disconnect()

	select {
	case ev := <-movers:
		assert.Equal(t, "movers", ev.Name)
		assert.JSONEq(t, `{"n":1}`, string(ev.Data))
		assert.False(t, ev.ReceivedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for movers event")
	}

	// The server cannot forge connection events.
	seen := waitForStatus(t, statuses, StatusConnected, time.Second)
	assert.NotContains(t, seen, StatusError)
	assert.Empty(t, statuses)
}

func TestManager_Send(t *testing.T) {
	received := make(chan []byte, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	})
	defer server.Close()

	m := newTestManager(wsURL(server))
	statuses := recordStatuses(m)

	assert.ErrorIs(t, m.Send("watchlist_update", nil), ErrNotConnected)

	m.Connect(context.Background())
	defer m.Disconnect()
	waitForStatus(t, statuses, StatusConnected, 2*time.Second)

	require.NoError(t, m.Send("watchlist_update", map[string]string{"action": "add", "symbol": "BTC"}))

	select {
	case raw := <-received:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, "watchlist_update", env.Event)
		assert.JSONEq(t, `{"action":"add","symbol":"BTC"}`, string(env.Data))
		_, err := uuid.Parse(env.ID)
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for envelope")
	}
}

func TestManager_SendValidation(t *testing.T) {
	m := newTestManager("ws://localhost:1/ws")

	assert.ErrorIs(t, m.Send("", nil), ErrEmptyEvent)
	assert.ErrorIs(t, m.Send(EventConnection, nil), ErrReservedEvent)
	assert.Error(t, m.Send("bad", func() {}))
}

func TestManager_Unsubscribe(t *testing.T) {
	m := newTestManager("ws://localhost:1/ws")

	var calls atomic.Int32
	unsub := m.Subscribe("movers", func(Event) { calls.Add(1) })
	other := m.Subscribe("movers", func(Event) {})

	m.dispatch(Event{Name: "movers"})
	assert.Equal(t, int32(1), calls.Load())

	unsub()
	assert.NotPanics(t, unsub)

	m.dispatch(Event{Name: "movers"})
	assert.Equal(t, int32(1), calls.Load())

	m.subsMu.RLock()
	assert.Len(t, m.subs["movers"], 1)
	m.subsMu.RUnlock()

	other()
	m.subsMu.RLock()
	_, ok := m.subs["movers"]
	m.subsMu.RUnlock()
	assert.False(t, ok, "empty event entries are removed")
}

func TestManager_HandlerPanicIsRecovered(t *testing.T) {
	m := newTestManager("ws://localhost:1/ws")

	var calls atomic.Int32
	m.Subscribe("movers", func(Event) { panic("boom") })
	m.Subscribe("movers", func(Event) { calls.Add(1) })

	assert.NotPanics(t, func() { m.dispatch(Event{Name: "movers"}) })
	assert.Equal(t, int32(1), calls.Load())
}
