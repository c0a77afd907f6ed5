package model

import (
	"math"
	"strings"
)

// BannerLimit caps the number of items shown in a scrolling banner.
const BannerLimit = 20

// quoteSuffix is stripped from backend symbols ("BTC-USD" -> "BTC").
const quoteSuffix = "-USD"

// Normalize converts backend rows into ranked movers for the given window.
// A limit <= 0 keeps every row.
func Normalize(rows []MoverRow, window Window, limit int) []Mover {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	movers := make([]Mover, 0, len(rows))
	for i, row := range rows {
		change := row.change(window)

		rank := row.Rank
		if rank <= 0 {
			rank = i + 1
		}

		movers = append(movers, Mover{
			Rank:           rank,
			Symbol:         DisplaySymbol(row.Symbol),
			Price:          row.price(),
			Change:         change,
			Window:         window,
			Badge:          BadgeFor(change),
			Peaks:          row.Peaks,
			PeakLevel:      row.PeakLevel,
			TrendDirection: row.trendDirection(),
			TrendStreak:    row.trendStreak(),
			TrendScore:     row.trendScore(),
		})
	}
	return movers
}

// DisplaySymbol strips the quote currency suffix; empty symbols render as N/A.
func DisplaySymbol(symbol string) string {
	s := strings.Replace(strings.TrimSpace(symbol), quoteSuffix, "", 1)
	if s == "" {
		return "N/A"
	}
	return s
}

// BadgeFor classifies a percentage change by magnitude.
func BadgeFor(change float64) Badge {
	abs := math.Abs(change)
	switch {
	case abs >= 5:
		return BadgeStrongHigh
	case abs >= 2:
		return BadgeStrong
	default:
		return BadgeModerate
	}
}

// TradeURL links a symbol to its Coinbase advanced-trade page.
func TradeURL(symbol string) string {
	return "https://www.coinbase.com/advanced-trade/spot/" + strings.ToLower(DisplaySymbol(symbol)) + "-USD"
}

func (r MoverRow) price() float64 {
	if r.CurrentPrice != 0 {
		return r.CurrentPrice
	}
	return r.Price
}

func (r MoverRow) change(window Window) float64 {
	switch window {
	case Window1Min:
		return firstSet(r.Change1Min, r.Change)
	case Window3Min:
		return firstSet(r.Change3Min, r.Change)
	default:
		// Banner feeds treat a zero hourly change as missing.
		if r.Change1h != nil && *r.Change1h != 0 {
			return *r.Change1h
		}
		return firstSet(r.Change)
	}
}

func (r MoverRow) trendDirection() string {
	switch {
	case r.TrendDirection != "":
		return r.TrendDirection
	case r.TrendDirectionCamel != "":
		return r.TrendDirectionCamel
	default:
		return "flat"
	}
}

func (r MoverRow) trendStreak() int {
	if r.TrendStreak != nil {
		return *r.TrendStreak
	}
	if r.TrendStreakCamel != nil {
		return *r.TrendStreakCamel
	}
	return 0
}

func (r MoverRow) trendScore() float64 {
	return firstSet(r.TrendScore, r.TrendScoreCamel)
}

func firstSet(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
