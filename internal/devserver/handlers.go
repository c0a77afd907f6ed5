package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cbmooners/dashboard/internal/model"
)

// component feeds served under /api/component/:name.
var components = map[string]func(tick int64) []model.MoverRow{
	"gainers-table":        func(t int64) []model.MoverRow { return gainers(t, model.Window3Min) },
	"gainers-table-1min":   func(t int64) []model.MoverRow { return gainers(t, model.Window1Min) },
	"losers-table":         func(t int64) []model.MoverRow { return losers(t, model.Window3Min) },
	"top-banner-scroll":    func(t int64) []model.MoverRow { return gainers(t, model.Window1h) },
	"bottom-banner-scroll": func(t int64) []model.MoverRow { return losers(t, model.Window1h) },
	"top-movers-bar":       func(t int64) []model.MoverRow { return gainers(t, model.Window3Min)[:5] },
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) serverInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "running",
		"version":        serverVersion(),
		"port":           s.currentPort(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"clients":        s.hub.count(),
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) component(c echo.Context) error {
	feed, ok := components[c.Param("name")]
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "unknown component " + c.Param("name")})
	}
	return c.JSON(http.StatusOK, model.MoversResponse{Data: feed(s.tick.Load())})
}

func (s *Server) crypto(c echo.Context) error {
	tick := s.tick.Load()
	return c.JSON(http.StatusOK, map[string]any{
		"gainers": gainers(tick, model.Window3Min),
		"losers":  losers(tick, model.Window3Min),
	})
}

type alert struct {
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Change    float64 `json:"change"`
	Timestamp string  `json:"timestamp"`
}

func (s *Server) alerts() []alert {
	now := time.Now().UTC()
	var out []alert
	for i, r := range gainers(s.tick.Load(), model.Window3Min) {
		ch := changeOf(r, model.Window3Min)
		if model.BadgeFor(ch) == model.BadgeModerate {
			continue
		}
		kind := "moonshot"
		if ch < 0 {
			kind = "crater"
		}
		out = append(out, alert{
			Symbol:    r.Symbol,
			Type:      kind,
			Message:   model.DisplaySymbol(r.Symbol) + " moved " + string(model.BadgeFor(ch)),
			Change:    ch,
			Timestamp: now.Add(-time.Duration(i) * time.Minute).Format(time.RFC3339),
		})
	}
	return out
}

func (s *Server) recentAlerts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"alerts": s.alerts()})
}

func (s *Server) marketOverview(c echo.Context) error {
	rs := rows(s.tick.Load())
	var up, down int
	for _, r := range rs {
		switch ch := changeOf(r, model.Window3Min); {
		case ch > 0:
			up++
		case ch < 0:
			down++
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":     len(rs),
		"advancing": up,
		"declining": down,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) watchlistInsights(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"insights": s.alerts()})
}

func (s *Server) watchlistInsightsLog(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"log": s.alerts()})
}

func (s *Server) watchlistInsightsPrice(c echo.Context) error {
	prices := map[string]float64{}
	for _, r := range rows(s.tick.Load()) {
		prices[model.DisplaySymbol(r.Symbol)] = r.CurrentPrice
	}
	return c.JSON(http.StatusOK, map[string]any{"prices": prices})
}

type latestRequest struct {
	Symbols []string `json:"symbols"`
}

func (s *Server) latestAlerts(c echo.Context) error {
	var req latestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}

	bySymbol := map[string]alert{}
	for _, a := range s.alerts() {
		bySymbol[model.DisplaySymbol(a.Symbol)] = a
	}

	latest := map[string]alert{}
	for _, sym := range req.Symbols {
		if a, ok := bySymbol[strings.ToUpper(sym)]; ok {
			latest[sym] = a
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"latest": latest})
}

func (s *Server) technicalAnalysis(c echo.Context) error {
	sym := strings.ToUpper(c.Param("symbol"))
	r, ok := s.lookup(sym)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "unknown symbol " + sym})
	}
	ch := changeOf(r, model.Window1h)
	signal := "hold"
	switch {
	case ch >= 2:
		signal = "buy"
	case ch <= -2:
		signal = "sell"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"symbol": sym,
		"price":  r.CurrentPrice,
		"rsi":    round2(50 + ch*2),
		"signal": signal,
	})
}

func (s *Server) news(c echo.Context) error {
	sym := strings.ToUpper(c.Param("symbol"))
	return c.JSON(http.StatusOK, map[string]any{
		"symbol": sym,
		"articles": []map[string]string{
			{"title": sym + " volume picks up", "source": "mock"},
		},
	})
}

func (s *Server) socialSentiment(c echo.Context) error {
	sym := strings.ToUpper(c.Param("symbol"))
	r, ok := s.lookup(sym)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "unknown symbol " + sym})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"symbol":    sym,
		"sentiment": round2(changeOf(r, model.Window3Min) / 10),
	})
}

func (s *Server) lookup(symbol string) (model.MoverRow, bool) {
	for _, r := range rows(s.tick.Load()) {
		if model.DisplaySymbol(r.Symbol) == symbol {
			return r, true
		}
	}
	return model.MoverRow{}, false
}
