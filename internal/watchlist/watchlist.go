// Package watchlist keeps the user's ordered list of watched symbols in
// local persistent state under a single key.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cbmooners/dashboard/internal/kvstore"
)

// Key is the persisted state key holding the JSON-encoded list.
const Key = "crypto_watchlist"

// EventUpdate is published after a successful add or remove.
const EventUpdate = "watchlist_update"

// Actions carried by EventUpdate.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// ErrEmptySymbol is returned when a symbol is blank.
var ErrEmptySymbol = errors.New("symbol is required")

// KV is the persistence the service needs. Get returns kvstore.ErrNotFound
// for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Notifier publishes watchlist changes, typically the realtime connection.
type Notifier interface {
	Send(event string, payload any) error
}

// Update is the payload of EventUpdate.
type Update struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// Service reads and mutates the watchlist.
type Service struct {
	kv       KV
	notifier Notifier
	logger   *slog.Logger

	mu sync.Mutex // serializes read-modify-write
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier publishes EventUpdate through n after every change.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a watchlist service over kv.
func NewService(kv KV, opts ...Option) *Service {
	s := &Service{
		kv:     kv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the watchlist in insertion order. A missing or corrupt
// stored value reads as an empty list.
func (s *Service) Get(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add appends symbol unless it is already watched. price <= 0 records an
// unknown price. The resulting list is returned.
func (s *Service) Add(ctx context.Context, symbol string, price float64) ([]Entry, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.Symbol == symbol {
			return entries, nil
		}
	}

	e := Entry{Symbol: symbol}
	if price > 0 {
		p := price
		e.PriceAtAdd = &p
	}
	entries = append(entries, e)

	if err := s.save(ctx, entries); err != nil {
		return nil, err
	}

	s.logger.Info("watchlist add", "symbol", symbol)
	s.notify(ActionAdd, symbol)
	return entries, nil
}

// Remove drops symbol from the list and returns the result. Removing a
// symbol that is not watched is not an error.
func (s *Service) Remove(ctx context.Context, symbol string) ([]Entry, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if e.Symbol == symbol {
			removed = true
			continue
		}
		kept = append(kept, e)
	}

	if err := s.save(ctx, kept); err != nil {
		return nil, err
	}

	if removed {
		s.logger.Info("watchlist remove", "symbol", symbol)
		s.notify(ActionRemove, symbol)
	}
	return kept, nil
}

// Symbols returns just the watched symbols, in order.
func (s *Service) Symbols(ctx context.Context) ([]string, error) {
	entries, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Symbol
	}
	return out, nil
}

func (s *Service) load(ctx context.Context) ([]Entry, error) {
	raw, err := s.kv.Get(ctx, Key)
	if errors.Is(err, kvstore.ErrNotFound) || (err == nil && raw == "") {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	entries, dropped, err := decodeEntries(raw)
	if err != nil {
		s.logger.Warn("corrupt watchlist, treating as empty", "error", err)
		return []Entry{}, nil
	}
	if dropped > 0 {
		s.logger.Warn("dropped unreadable watchlist entries", "count", dropped)
	}
	return entries, nil
}

func (s *Service) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := s.kv.Set(ctx, Key, string(data)); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}

func (s *Service) notify(action, symbol string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(EventUpdate, Update{Action: action, Symbol: symbol}); err != nil {
		s.logger.Debug("watchlist update not published", "action", action, "symbol", symbol, "error", err)
	}
}
