package model

import "time"

// -----------------------------------------------------------------------------
// Backend rows
// -----------------------------------------------------------------------------

// MoverRow is one row of a component feed as the backend sends it.
type MoverRow struct {
	Rank   int    `json:"rank,omitempty"`
	Symbol string `json:"symbol"`

	CurrentPrice float64 `json:"current_price,omitempty"`
	Price        float64 `json:"price,omitempty"`
	InitialPrice float64 `json:"initial_price,omitempty"`

	// Window-specific percentage changes
	Change1Min *float64 `json:"price_change_percentage_1min,omitempty"`
	Change3Min *float64 `json:"price_change_percentage_3min,omitempty"`
	Change1h   *float64 `json:"price_change_1h,omitempty"`
	Change     *float64 `json:"change,omitempty"`

	Peaks     []float64 `json:"peaks,omitempty"`
	PeakLevel int       `json:"peakLevel,omitempty"`

	// Trend fields come in snake_case from newer backends, camelCase from older ones
	TrendDirection      string   `json:"trend_direction,omitempty"`
	TrendDirectionCamel string   `json:"trendDirection,omitempty"`
	TrendStreak         *int     `json:"trend_streak,omitempty"`
	TrendStreakCamel    *int     `json:"trendStreak,omitempty"`
	TrendScore          *float64 `json:"trend_score,omitempty"`
	TrendScoreCamel     *float64 `json:"trendScore,omitempty"`
}

// MoversResponse is the `{ "data": [...] }` envelope of component endpoints.
type MoversResponse struct {
	Data []MoverRow `json:"data"`
}

// -----------------------------------------------------------------------------
// Normalized values
// -----------------------------------------------------------------------------

// Window selects which percentage change a feed ranks by.
type Window string

const (
	Window1Min Window = "1min"
	Window3Min Window = "3min"
	Window1h   Window = "1h"
)

// Badge classifies the magnitude of a move.
type Badge string

const (
	BadgeModerate   Badge = "MODERATE"
	BadgeStrong     Badge = "STRONG"
	BadgeStrongHigh Badge = "STRONG HIGH"
)

// Mover is a normalized, ranked row ready for rendering or storage.
type Mover struct {
	Rank           int
	Symbol         string // without the -USD quote suffix
	Price          float64
	Change         float64 // percentage over Window
	Window         Window
	Badge          Badge
	Peaks          []float64
	PeakLevel      int
	TrendDirection string // "up", "down" or "flat"
	TrendStreak    int
	TrendScore     float64
}

// Snapshot is one poll of one component feed.
type Snapshot struct {
	Endpoint  string // logical endpoint name
	URL       string // literal URL that was fetched
	Window    Window
	Movers    []Mover
	FetchedAt time.Time
	Err       error // set when the fetch failed; Movers is empty
}
