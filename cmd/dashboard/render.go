package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cbmooners/dashboard/internal/format"
	"github.com/cbmooners/dashboard/internal/model"
)

const symbolWidth = 10

// renderer prints each snapshot as a plain-text table.
type renderer struct {
	w      io.Writer
	status func() string // realtime status shown in headers; nil hides it

	mu sync.Mutex
}

func newRenderer(w io.Writer, status func() string) *renderer {
	return &renderer{w: w, status: status}
}

func (r *renderer) HandleSnapshot(s model.Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "== %s (%s) %s", s.Endpoint, s.Window, s.FetchedAt.Local().Format(time.TimeOnly))
	if r.status != nil {
		fmt.Fprintf(&b, " [%s]", r.status())
	}
	b.WriteByte('\n')

	switch {
	case s.Err != nil:
		fmt.Fprintf(&b, "   unavailable: %v\n", s.Err)
	case len(s.Movers) == 0:
		b.WriteString("   no data\n")
	default:
		for _, m := range s.Movers {
			writeMover(&b, m)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := io.WriteString(r.w, b.String())
	return err
}

func writeMover(b *strings.Builder, m model.Mover) {
	fmt.Fprintf(b, "%4d  %-*s %14s %9s  %-11s",
		m.Rank,
		symbolWidth, format.TruncateSymbol(m.Symbol, symbolWidth),
		format.Price(m.Price),
		format.Percentage(m.Change),
		m.Badge,
	)
	if m.TrendDirection != "" && m.TrendStreak > 0 {
		fmt.Fprintf(b, " %s x%d", m.TrendDirection, m.TrendStreak)
	}
	b.WriteByte('\n')
}
