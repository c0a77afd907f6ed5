package devserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmooners/dashboard/internal/api"
	"github.com/cbmooners/dashboard/internal/connection"
	"github.com/cbmooners/dashboard/internal/model"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(WithLogger(quiet()), WithBroadcastInterval(time.Hour))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.hub.closeAll()
		ts.Close()
	})
	return srv, ts
}

func newAPIClient(base string) *api.Client {
	return api.NewClient(base,
		api.WithLogger(quiet()),
		api.WithCandidates(nil),
		api.WithTimeout(2*time.Second),
	)
}

func TestServerInfoAnswersProbe(t *testing.T) {
	_, ts := newTestServer(t)
	c := newAPIClient(ts.URL)

	require.NoError(t, c.Probe(context.Background(), ts.URL))

	body, err := c.Fetch(context.Background(), c.Endpoints().Health)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestComponentFeeds(t *testing.T) {
	_, ts := newTestServer(t)
	c := newAPIClient(ts.URL)
	ep := c.Endpoints()

	movers, err := c.Movers(context.Background(), ep.GainersTable, model.Window3Min, 0)
	require.NoError(t, err)
	require.Len(t, movers, len(seeds))
	for i := 1; i < len(movers); i++ {
		assert.GreaterOrEqual(t, movers[i-1].Change, movers[i].Change)
		assert.Equal(t, i+1, movers[i].Rank)
	}
	assert.NotContains(t, movers[0].Symbol, "-USD")

	losers, err := c.Movers(context.Background(), ep.LosersTable, model.Window3Min, 3)
	require.NoError(t, err)
	require.Len(t, losers, 3)
	assert.Less(t, losers[0].Change, 0.0)

	bar, err := c.Movers(context.Background(), ep.TopMoversBar, model.Window3Min, 0)
	require.NoError(t, err)
	assert.Len(t, bar, 5)
}

func TestUnknownComponent(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/component/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSymbolEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	c := newAPIClient(ts.URL)
	ep := c.Endpoints()

	var ta struct {
		Symbol string `json:"symbol"`
		Signal string `json:"signal"`
	}
	require.NoError(t, c.FetchInto(context.Background(), ep.TechnicalAnalysis("btc"), &ta))
	assert.Equal(t, "BTC", ta.Symbol)
	assert.NotEmpty(t, ta.Signal)

	_, err := c.Fetch(context.Background(), ep.SocialSentiment("NOPE"))
	var httpErr *api.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	_, err = c.Fetch(context.Background(), ep.CryptoNews("ETH"))
	assert.NoError(t, err)
}

func TestLatestAlerts(t *testing.T) {
	_, ts := newTestServer(t)
	c := newAPIClient(ts.URL)

	// SOL and PEPE move strongly in the sample data, BTC does not.
	latest := c.LatestAlerts(context.Background(), []string{"SOL", "PEPE", "BTC"})
	assert.Contains(t, latest, "SOL")
	assert.Contains(t, latest, "PEPE")
	assert.NotContains(t, latest, "BTC")
}

func connect(t *testing.T, ts *httptest.Server) *connection.Manager {
	t.Helper()
	cfg := connection.DefaultManagerConfig()
	cfg.URL = api.WebSocketURL(ts.URL, "/ws")
	m := connection.NewManager(cfg, quiet())

	connected := make(chan struct{}, 1)
	m.Subscribe(connection.EventConnection, func(ev connection.Event) {
		if sc, ok := ev.StatusChange(); ok && sc.Status == connection.StatusConnected {
			select {
			case connected <- struct{}{}:
			default:
			}
		}
	})

	m.Connect(context.Background())
	t.Cleanup(m.Disconnect)

	select {
	case <-connected:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout connecting to mock backend")
	}
	return m
}

func TestWebSocketEcho(t *testing.T) {
	_, ts := newTestServer(t)
	m := connect(t, ts)

	got := make(chan connection.Event, 1)
	m.Subscribe("watchlist_update", func(ev connection.Event) { got <- ev })

	require.NoError(t, m.Send("watchlist_update", map[string]string{"action": "add", "symbol": "BTC"}))

	select {
	case ev := <-got:
		assert.JSONEq(t, `{"action":"add","symbol":"BTC"}`, string(ev.Data))
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for echo")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	srv, ts := newTestServer(t)
	m := connect(t, ts)

	got := make(chan connection.Event, 1)
	m.Subscribe(moversEvent, func(ev connection.Event) {
		select {
		case got <- ev:
		default:
		}
	})

	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	srv.Broadcast()

	select {
	case ev := <-got:
		var resp model.MoversResponse
		require.NoError(t, json.Unmarshal(ev.Data, &resp))
		assert.Len(t, resp.Data, len(seeds))
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
}

func TestRun(t *testing.T) {
	srv := New(WithLogger(quiet()), WithBroadcastInterval(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return srv.currentPort() != 0 }, 2*time.Second, 10*time.Millisecond)

	var info map[string]any
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(srv.currentPort()) + "/api/server-info")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&info) == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "running", info["status"])

	require.Eventually(t, func() bool { return srv.tick.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSampleDataOrdering(t *testing.T) {
	g := gainers(0, model.Window1Min)
	l := losers(0, model.Window1Min)
	assert.Equal(t, g[0].Symbol, l[len(l)-1].Symbol)
	assert.True(t, strings.HasSuffix(g[0].Symbol, "-USD"))
}
