package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cbmooners/dashboard/internal/api"
	"github.com/cbmooners/dashboard/internal/model"
)

// ErrUnknownFeed is set on a snapshot whose feed name has no endpoint.
var ErrUnknownFeed = errors.New("unknown feed")

// Source fetches normalized movers. *api.Client satisfies it.
type Source interface {
	Endpoints() api.Endpoints
	Movers(ctx context.Context, endpointURL string, window model.Window, limit int) ([]model.Mover, error)
}

// SnapshotHandler receives polled snapshots.
type SnapshotHandler interface {
	HandleSnapshot(snapshot model.Snapshot) error
}

// SnapshotHandlerFunc is a function adapter for SnapshotHandler.
type SnapshotHandlerFunc func(model.Snapshot) error

func (f SnapshotHandlerFunc) HandleSnapshot(s model.Snapshot) error {
	return f(s)
}

// MultiHandler fans a snapshot out to several handlers and joins their errors.
type MultiHandler []SnapshotHandler

func (m MultiHandler) HandleSnapshot(s model.Snapshot) error {
	var errs []error
	for _, h := range m {
		if h == nil {
			continue
		}
		if err := h.HandleSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Feed is one component endpoint to poll.
type Feed struct {
	Name   string       // logical endpoint name, e.g. "gainers-table-1min"
	Window model.Window // which change column ranks the rows
	Limit  int          // 0 keeps every row
}

// FeedFor returns the feed settings for a logical endpoint name.
func FeedFor(name string) Feed {
	switch name {
	case api.NameGainersTable1Min:
		return Feed{Name: name, Window: model.Window1Min}
	case api.NameGainersTable, api.NameLosersTable:
		return Feed{Name: name, Window: model.Window3Min}
	case api.NameTopBanner, api.NameBottomBanner:
		return Feed{Name: name, Window: model.Window1h, Limit: model.BannerLimit}
	default:
		return Feed{Name: name, Window: model.Window3Min}
	}
}

// Feeds maps names to feeds with FeedFor.
func Feeds(names []string) []Feed {
	feeds := make([]Feed, 0, len(names))
	for _, n := range names {
		feeds = append(feeds, FeedFor(n))
	}
	return feeds
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 30s)
	Concurrency int           // Max concurrent requests (default: 4)
	Feeds       []Feed
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Concurrency: 4,
	}
}

// Poller periodically fetches the configured feeds.
type Poller struct {
	cfg     Config
	source  Source
	handler SnapshotHandler
	logger  *slog.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source Source, handler SnapshotHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		handler: handler,
		logger:  logger,
		now:     time.Now,
	}
}

// Start begins the polling loop. The first cycle runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	if len(p.cfg.Feeds) == 0 {
		return errors.New("poller: no feeds configured")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("movers poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
		"feeds", len(p.cfg.Feeds),
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("movers poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.deliver(p.Poll(p.ctx))

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.deliver(p.Poll(p.ctx))
		}
	}
}

func (p *Poller) deliver(snapshots []model.Snapshot) {
	if p.handler == nil {
		return
	}
	for _, s := range snapshots {
		if p.ctx.Err() != nil {
			return
		}
		if err := p.handler.HandleSnapshot(s); err != nil {
			p.logger.Warn("snapshot handler failed", "feed", s.Endpoint, "error", err)
		}
	}
}

// Poll fetches every feed once and returns the snapshots in feed order.
// Failed feeds are returned with Err set and no movers.
func (p *Poller) Poll(ctx context.Context) []model.Snapshot {
	start := p.now()
	snapshots := make([]model.Snapshot, len(p.cfg.Feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, feed := range p.cfg.Feeds {
		g.Go(func() error {
			snapshots[i] = p.pollFeed(gctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, s := range snapshots {
		if s.Err != nil {
			failed++
		}
	}

	p.logger.Debug("poll cycle complete",
		"feeds", len(snapshots),
		"errors", failed,
		"duration", p.now().Sub(start),
	)

	return snapshots
}

// pollFeed resolves the feed URL against the current base right before
// fetching it.
func (p *Poller) pollFeed(ctx context.Context, feed Feed) model.Snapshot {
	snap := model.Snapshot{
		Endpoint: feed.Name,
		Window:   feed.Window,
	}

	url, ok := p.source.Endpoints().Lookup(feed.Name)
	if !ok {
		snap.Err = fmt.Errorf("%w: %s", ErrUnknownFeed, feed.Name)
		snap.FetchedAt = p.now()
		return snap
	}
	snap.URL = url

	movers, err := p.source.Movers(ctx, url, feed.Window, feed.Limit)
	snap.FetchedAt = p.now()
	if err != nil {
		p.logger.Warn("failed to poll feed", "feed", feed.Name, "error", err)
		snap.Err = err
		return snap
	}

	snap.Movers = movers
	return snap
}
