package watchlist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Entry is one watched symbol. PriceAtAdd is nil when the price was
// unknown at the time it was added.
type Entry struct {
	Symbol     string   `json:"symbol"`
	PriceAtAdd *float64 `json:"priceAtAdd"`
}

// UnmarshalJSON accepts both a bare symbol string and an object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = Entry{Symbol: s}
		return nil
	}

	var obj struct {
		Symbol     string   `json:"symbol"`
		PriceAtAdd *float64 `json:"priceAtAdd"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("watchlist entry: %w", err)
	}
	*e = Entry{Symbol: obj.Symbol, PriceAtAdd: obj.PriceAtAdd}
	return nil
}

// NormalizeSymbol is the canonical form symbols are stored and compared in.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// decodeEntries parses the stored list. Unreadable items and items without
// a symbol are dropped; the first occurrence of a symbol wins.
func decodeEntries(raw string) ([]Entry, int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, 0, err
	}

	entries := make([]Entry, 0, len(items))
	seen := make(map[string]bool, len(items))
	dropped := 0
	for _, item := range items {
		var e Entry
		if err := json.Unmarshal(item, &e); err != nil {
			dropped++
			continue
		}
		e.Symbol = NormalizeSymbol(e.Symbol)
		if e.Symbol == "" || seen[e.Symbol] {
			dropped++
			continue
		}
		seen[e.Symbol] = true
		entries = append(entries, e)
	}
	return entries, dropped, nil
}
