package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cbmooners/dashboard/internal/connection"
	"github.com/cbmooners/dashboard/internal/format"
	"github.com/cbmooners/dashboard/internal/kvstore"
	"github.com/cbmooners/dashboard/internal/watchlist"
)

const notifyConnectTimeout = 5 * time.Second

// WatchlistCmd manages the local watchlist.
type WatchlistCmd struct {
	List   WatchlistListCmd   `cmd:"" default:"1" help:"Show watched symbols"`
	Add    WatchlistAddCmd    `cmd:"" help:"Watch a symbol"`
	Remove WatchlistRemoveCmd `cmd:"" help:"Stop watching a symbol"`
	Alerts WatchlistAlertsCmd `cmd:"" help:"Show the latest alert per watched symbol"`
}

func openWatchlist(cli *Context, opts ...watchlist.Option) (*watchlist.Service, func(), error) {
	store, err := kvstore.Open(cli.Config.Watchlist.Path)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]watchlist.Option{watchlist.WithLogger(cli.Logger)}, opts...)
	return watchlist.NewService(store, opts...), func() { _ = store.Close() }, nil
}

type WatchlistListCmd struct{}

func (c *WatchlistListCmd) Run(cli *Context, ctx context.Context) error {
	svc, closeFn, err := openWatchlist(cli)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := svc.Get(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cli.Out, "Watchlist is empty")
		return nil
	}
	for _, e := range entries {
		added := "-"
		if e.PriceAtAdd != nil {
			added = format.Price(*e.PriceAtAdd)
		}
		fmt.Fprintf(cli.Out, "  %-10s added at %s\n", e.Symbol, added)
	}
	return nil
}

// NotifyFlag publishes changes over the realtime connection.
type NotifyFlag struct {
	Notify bool `help:"Publish the change over the realtime connection"`
}

// notifier connects a manager for the lifetime of one command. The
// returned cleanup disconnects it.
func (f NotifyFlag) notifier(cli *Context, ctx context.Context) ([]watchlist.Option, func(), error) {
	if !f.Notify {
		return nil, func() {}, nil
	}

	client := cli.apiClient()
	mgr := connection.NewManager(cli.realtimeConfig(client), cli.Logger)

	connected := make(chan struct{})
	var once sync.Once
	unsub := mgr.Subscribe(connection.EventConnection, func(ev connection.Event) {
		if sc, ok := ev.StatusChange(); ok && sc.Status == connection.StatusConnected {
			once.Do(func() { close(connected) })
		}
	})
	mgr.Connect(ctx)

	cleanup := func() {
		unsub()
		mgr.Disconnect()
	}

	select {
	case <-connected:
	case <-time.After(notifyConnectTimeout):
		cleanup()
		return nil, nil, errors.New("realtime connection not available")
	case <-ctx.Done():
		cleanup()
		return nil, nil, ctx.Err()
	}
	return []watchlist.Option{watchlist.WithNotifier(mgr)}, cleanup, nil
}

type WatchlistAddCmd struct {
	NotifyFlag
	Symbol string  `arg:"" help:"Symbol to watch, e.g. BTC"`
	Price  float64 `help:"Price at the time of adding"`
}

func (c *WatchlistAddCmd) Run(cli *Context, ctx context.Context) error {
	opts, done, err := c.notifier(cli, ctx)
	if err != nil {
		return err
	}
	defer done()

	svc, closeFn, err := openWatchlist(cli, opts...)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := svc.Add(ctx, c.Symbol, c.Price)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Out, "Watching %s (%d symbols)\n", watchlist.NormalizeSymbol(c.Symbol), len(entries))
	return nil
}

type WatchlistRemoveCmd struct {
	NotifyFlag
	Symbol string `arg:"" help:"Symbol to remove"`
}

func (c *WatchlistRemoveCmd) Run(cli *Context, ctx context.Context) error {
	opts, done, err := c.notifier(cli, ctx)
	if err != nil {
		return err
	}
	defer done()

	svc, closeFn, err := openWatchlist(cli, opts...)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := svc.Remove(ctx, c.Symbol)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.Out, "Removed %s (%d symbols)\n", watchlist.NormalizeSymbol(c.Symbol), len(entries))
	return nil
}

type WatchlistAlertsCmd struct{}

func (c *WatchlistAlertsCmd) Run(cli *Context, ctx context.Context) error {
	svc, closeFn, err := openWatchlist(cli)
	if err != nil {
		return err
	}
	defer closeFn()

	symbols, err := svc.Symbols(ctx)
	if err != nil {
		return err
	}

	latest := cli.apiClient().LatestAlerts(ctx, symbols)
	for _, sym := range symbols {
		alert, ok := latest[sym]
		if !ok {
			fmt.Fprintf(cli.Out, "  %-10s no recent alerts\n", sym)
			continue
		}
		fmt.Fprintf(cli.Out, "  %-10s %s\n", sym, alert)
	}
	return nil
}
