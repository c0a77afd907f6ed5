package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmooners/dashboard/internal/model"
)

func TestRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, func() string { return "connected" })

	err := r.HandleSnapshot(model.Snapshot{
		Endpoint:  "gainers-table",
		Window:    model.Window3Min,
		FetchedAt: time.Now(),
		Movers: []model.Mover{
			{Rank: 1, Symbol: "BTC", Price: 97250.12, Change: 2.5, Badge: model.BadgeStrong, TrendDirection: "up", TrendStreak: 3},
			{Rank: 2, Symbol: "VERYLONGSYMBOL", Price: 0.5, Change: -0.25, Badge: model.BadgeModerate},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "== gainers-table (3min)")
	assert.Contains(t, lines[0], "[connected]")
	assert.Contains(t, lines[1], "BTC")
	assert.Contains(t, lines[1], "$97,250.12")
	assert.Contains(t, lines[1], "+2.50%")
	assert.Contains(t, lines[1], "up x3")
	assert.Contains(t, lines[2], "VERYLONG..")
	assert.Contains(t, lines[2], "$0.5000")
	assert.Contains(t, lines[2], "-0.25%")
}

func TestRendererFailedSnapshot(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, nil)

	require.NoError(t, r.HandleSnapshot(model.Snapshot{
		Endpoint: "losers-table",
		Window:   model.Window3Min,
		Err:      errors.New("connection refused"),
	}))
	assert.Contains(t, buf.String(), "unavailable: connection refused")
	assert.NotContains(t, buf.String(), "[")
}

func TestRendererEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(&buf, nil).HandleSnapshot(model.Snapshot{Endpoint: "crypto"}))
	assert.Contains(t, buf.String(), "no data")
}
