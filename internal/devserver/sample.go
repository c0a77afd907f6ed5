package devserver

import (
	"math"
	"sort"

	"github.com/cbmooners/dashboard/internal/model"
)

type seed struct {
	symbol string
	price  float64
	change float64 // 3-minute percentage
}

var seeds = []seed{
	{"BTC-USD", 97250.12, 1.42},
	{"ETH-USD", 3412.55, 2.87},
	{"SOL-USD", 187.31, 6.12},
	{"DOGE-USD", 0.3871, -3.54},
	{"ADA-USD", 1.0412, -1.21},
	{"AVAX-USD", 42.18, 4.05},
	{"LINK-USD", 24.66, -5.73},
	{"XRP-USD", 2.3114, 0.84},
	{"DOT-USD", 8.912, -0.47},
	{"PEPE-USD", 0.00002113, 9.31},
}

// rows returns the sample table at tick. Prices and changes drift a
// little per tick so repeated polls are distinguishable.
func rows(tick int64) []model.MoverRow {
	out := make([]model.MoverRow, 0, len(seeds))
	for i, s := range seeds {
		drift := math.Sin(float64(tick+int64(i))) * 0.25
		c3 := round2(s.change + drift)
		c1 := round2(c3 / 2)
		c1h := round2(c3 * 3)
		streak := 1 + (int(tick)+i)%4
		dir := "flat"
		switch {
		case c3 > 0:
			dir = "up"
		case c3 < 0:
			dir = "down"
		}
		score := round2(float64(streak) * math.Abs(c3) / 2)

		out = append(out, model.MoverRow{
			Symbol:         s.symbol,
			CurrentPrice:   s.price * (1 + c3/100),
			InitialPrice:   s.price,
			Change1Min:     &c1,
			Change3Min:     &c3,
			Change1h:       &c1h,
			TrendDirection: dir,
			TrendStreak:    &streak,
			TrendScore:     &score,
		})
	}
	return out
}

func gainers(tick int64, window model.Window) []model.MoverRow {
	rs := rows(tick)
	sort.SliceStable(rs, func(i, j int) bool {
		return changeOf(rs[i], window) > changeOf(rs[j], window)
	})
	return ranked(rs)
}

func losers(tick int64, window model.Window) []model.MoverRow {
	rs := rows(tick)
	sort.SliceStable(rs, func(i, j int) bool {
		return changeOf(rs[i], window) < changeOf(rs[j], window)
	})
	return ranked(rs)
}

func ranked(rs []model.MoverRow) []model.MoverRow {
	for i := range rs {
		rs[i].Rank = i + 1
	}
	return rs
}

func changeOf(r model.MoverRow, window model.Window) float64 {
	var p *float64
	switch window {
	case model.Window1Min:
		p = r.Change1Min
	case model.Window1h:
		p = r.Change1h
	default:
		p = r.Change3Min
	}
	if p == nil {
		return 0
	}
	return *p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
