package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_MountUnmount(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	m := newTestManager(wsURL(server))
	p := NewProvider(m)
	assert.Same(t, m, p.Manager())
	assert.Equal(t, StatusDisconnected, p.Status())

	observed := make(chan Status, 16)
	p.OnStatus(func(sc StatusChange) { observed <- sc.Status })

	p.Mount(context.Background())
	p.Mount(context.Background())

	seen := waitForStatus(t, observed, StatusConnected, 2*time.Second)
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, seen)
	assert.Equal(t, StatusConnected, p.Status())

	p.Unmount()
	assert.Equal(t, []Status{StatusDisconnected}, waitForStatus(t, observed, StatusDisconnected, time.Second))
	assert.Equal(t, StatusDisconnected, p.Status())
	assert.Equal(t, StatusDisconnected, m.Status())

	m.subsMu.RLock()
	assert.Empty(t, m.subs[EventConnection], "unmount removes the status subscription")
	m.subsMu.RUnlock()

	assert.NotPanics(t, p.Unmount)
}

func TestProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	p := NewProvider(newTestManager(wsURL(server)))

	errs := make(chan StatusChange, 4)
	p.OnStatus(func(sc StatusChange) {
		if sc.Status == StatusError {
			errs <- sc
		}
	})

	p.Mount(context.Background())
	defer p.Unmount()

	select {
	case sc := <-errs:
		assert.NotEmpty(t, sc.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("expected error status")
	}
	assert.Equal(t, StatusError, p.Status())
}

func TestProvider_SubscribeAndSend(t *testing.T) {
	server := mockWSServer(t, drain)
	defer server.Close()

	p := NewProvider(newTestManager(wsURL(server)))
	assert.ErrorIs(t, p.Send("ping", nil), ErrNotConnected)

	connected := make(chan struct{}, 1)
	unsub := p.Subscribe(EventConnection, func(ev Event) {
		if sc, _ := ev.StatusChange(); sc.Status == StatusConnected {
			connected <- struct{}{}
		}
	})
	defer unsub()

	p.Mount(context.Background())
	defer p.Unmount()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for connection")
	}
	assert.NoError(t, p.Send("ping", map[string]int{"n": 1}))
}

func TestProvider_OnStatusRemove(t *testing.T) {
	p := NewProvider(newTestManager("ws://localhost:1/ws"))

	calls := 0
	remove := p.OnStatus(func(StatusChange) { calls++ })

	p.update(StatusChange{Status: StatusConnecting})
	remove()
	remove()
	p.update(StatusChange{Status: StatusError})

	assert.Equal(t, 1, calls)
	assert.Equal(t, StatusError, p.Status())
}

func TestProviderContext(t *testing.T) {
	p := NewProvider(newTestManager("ws://localhost:1/ws"))
	ctx := WithProvider(context.Background(), p)

	got, ok := Lookup(ctx)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Same(t, p, FromContext(ctx))

	_, ok = Lookup(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { FromContext(context.Background()) })
}
