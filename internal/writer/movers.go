package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cbmooners/dashboard/internal/database"
	"github.com/cbmooners/dashboard/internal/model"
)

// WriterConfig controls batching.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: 5 * time.Second,
	}
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts int64
	Skipped int64 // failed snapshots not written
	Errors  int64
	Flushes int64
}

// Copier bulk-loads rows. *pgxpool.Pool satisfies it.
type Copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

var moverColumns = []string{
	"fetched_at", "feed", "time_window", "rank", "symbol", "price",
	"change_pct", "badge", "trend_direction", "trend_streak", "trend_score",
}

type moverRow struct {
	FetchedAt      time.Time
	Feed           string
	Window         string
	Rank           int
	Symbol         string
	Price          float64
	Change         float64
	Badge          string
	TrendDirection string
	TrendStreak    int
	TrendScore     float64
}

func (r moverRow) values() []any {
	return []any{
		r.FetchedAt, r.Feed, r.Window, r.Rank, r.Symbol, r.Price,
		r.Change, r.Badge, r.TrendDirection, r.TrendStreak, r.TrendScore,
	}
}

// MoversWriter writes polled movers to the history table.
type MoversWriter struct {
	cfg    WriterConfig
	db     Copier
	logger *slog.Logger

	// Batching
	batch   []moverRow
	batchMu sync.Mutex
	flushMu sync.Mutex // one copy at a time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewMoversWriter creates a new MoversWriter.
func NewMoversWriter(cfg WriterConfig, db Copier, logger *slog.Logger) *MoversWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	return &MoversWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]moverRow, 0, cfg.BatchSize),
		ctx:    context.Background(),
	}
}

// Start begins the periodic flush loop.
func (w *MoversWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("movers writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop stops the flush loop and writes whatever is buffered.
func (w *MoversWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping movers writer")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("movers writer stop timed out")
	}

	// Final flush on the caller's context; ours is already cancelled.
	w.flushWith(ctx)

	w.logger.Info("movers writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *MoversWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// HandleSnapshot buffers the movers of a successful snapshot.
func (w *MoversWriter) HandleSnapshot(s model.Snapshot) error {
	if s.Err != nil || len(s.Movers) == 0 {
		w.batchMu.Lock()
		w.metrics.Skipped++
		w.batchMu.Unlock()
		return nil
	}

	w.batchMu.Lock()
	for _, m := range s.Movers {
		w.batch = append(w.batch, transform(s, m))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flushWith(w.ctx)
	}
	return nil
}

func transform(s model.Snapshot, m model.Mover) moverRow {
	return moverRow{
		FetchedAt:      s.FetchedAt.UTC(),
		Feed:           s.Endpoint,
		Window:         string(s.Window),
		Rank:           m.Rank,
		Symbol:         m.Symbol,
		Price:          m.Price,
		Change:         m.Change,
		Badge:          string(m.Badge),
		TrendDirection: m.TrendDirection,
		TrendStreak:    m.TrendStreak,
		TrendScore:     m.TrendScore,
	}
}

// flushLoop periodically flushes the batch.
func (w *MoversWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flushWith(w.ctx)
		}
	}
}

// flushWith copies the current batch to the database.
func (w *MoversWriter) flushWith(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]moverRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	rows := make([][]any, len(batch))
	for i, r := range batch {
		rows[i] = r.values()
	}

	n, err := w.db.CopyFrom(ctx, pgx.Identifier{database.MoversTable}, moverColumns, pgx.CopyFromRows(rows))
	if err != nil {
		w.logger.Error("copy movers failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += n
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed movers",
		"count", n,
		"duration", time.Since(start),
	)
}
