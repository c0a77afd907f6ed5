package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cbmooners/dashboard/internal/connection"
	"github.com/cbmooners/dashboard/internal/database"
	"github.com/cbmooners/dashboard/internal/poller"
	"github.com/cbmooners/dashboard/internal/writer"
)

const shutdownTimeout = 10 * time.Second

// WatchCmd polls the configured feeds until interrupted.
type WatchCmd struct {
	Once     bool          `help:"Poll once and exit"`
	Realtime bool          `help:"Track the realtime connection" default:"true" negatable:""`
	Interval time.Duration `help:"Override the poll interval"`
	Feeds    []string      `help:"Feeds to poll (default: from config)" sep:","`
}

func (c *WatchCmd) Run(cli *Context, ctx context.Context) error {
	cfg := cli.Config
	logger := cli.Logger
	client := cli.apiClient()

	names := cfg.Poller.Endpoints
	if len(c.Feeds) > 0 {
		names = c.Feeds
	}
	interval := cfg.Poller.Interval
	if c.Interval > 0 {
		interval = c.Interval
	}

	var status func() string
	if c.Realtime && !c.Once {
		provider := connection.NewProvider(connection.NewManager(
			cli.realtimeConfig(client), logger,
		))
		ctx = connection.WithProvider(ctx, provider)

		provider.OnStatus(func(sc connection.StatusChange) {
			if sc.Error != "" {
				logger.Warn("realtime status", "status", sc.Status, "error", sc.Error)
				return
			}
			logger.Info("realtime status", "status", sc.Status)
		})
		provider.Subscribe("movers", func(ev connection.Event) {
			logger.Debug("realtime movers update", "bytes", len(ev.Data))
		})

		provider.Mount(ctx)
		defer provider.Unmount()

		status = func() string { return string(connection.FromContext(ctx).Status()) }
	}

	handlers := poller.MultiHandler{newRenderer(cli.Out, status)}

	if cfg.History.Enabled {
		pool, err := database.Connect(ctx, cfg.History.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool, cfg.History.Hypertable); err != nil {
			return err
		}

		w := writer.NewMoversWriter(writer.WriterConfig{
			BatchSize:     cfg.History.BatchSize,
			FlushInterval: cfg.History.FlushInterval,
		}, pool, logger)
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = w.Stop(stopCtx)

			st := w.Stats()
			logger.Info("history writer totals", "inserts", st.Inserts, "skipped", st.Skipped, "errors", st.Errors)
		}()

		handlers = append(handlers, w)
	}

	p := poller.New(poller.Config{
		Interval:    interval,
		Concurrency: cfg.Poller.Concurrency,
		Feeds:       poller.Feeds(names),
	}, client, handlers, logger)

	if c.Once {
		var failed int
		for _, s := range p.Poll(ctx) {
			if s.Err != nil {
				failed++
			}
			if err := handlers.HandleSnapshot(s); err != nil {
				logger.Warn("handle snapshot", "feed", s.Endpoint, "error", err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d feeds failed", failed, len(names))
		}
		return nil
	}

	if err := p.Start(ctx); err != nil {
		return err
	}
	logger.Info("watching", "feeds", len(names), "interval", interval, "base", client.BaseURL())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return p.Stop(stopCtx)
}
