package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cbmooners/dashboard/internal/model"
	"github.com/cbmooners/dashboard/internal/version"
)

const (
	// DefaultBroadcastInterval is how often "movers" is pushed to sockets.
	DefaultBroadcastInterval = 5 * time.Second

	shutdownTimeout = 5 * time.Second
)

// Server is the mock backend.
type Server struct {
	echo     *echo.Echo
	hub      *hub
	logger   *slog.Logger
	interval time.Duration
	started  time.Time

	tick atomic.Int64

	mu   sync.Mutex
	port int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBroadcastInterval sets the "movers" push interval.
func WithBroadcastInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a mock backend with its routes registered.
func New(opts ...Option) *Server {
	s := &Server{
		echo:     echo.New(),
		logger:   slog.Default(),
		interval: DefaultBroadcastInterval,
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = newHub(s.logger)
	s.setupRoutes()
	return s
}

// ServeHTTP lets the server be mounted on httptest or any mux.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr, broadcasts movers on every interval and shuts down
// gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		s.mu.Lock()
		s.port = tcp.Port
		s.mu.Unlock()
	}
	s.echo.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock backend listening", "addr", ln.Addr().String())
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go s.broadcastLoop(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down mock backend")
	s.hub.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Broadcast pushes the current movers table to every socket and advances
// the sample data by one tick.
func (s *Server) Broadcast() {
	tick := s.tick.Add(1)
	s.hub.broadcast(moversEvent, map[string]any{
		"data": gainers(tick, model.Window3Min),
	})
}

// Clients returns the number of open sockets.
func (s *Server) Clients() int {
	return s.hub.count()
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Broadcast()
		}
	}
}

func (s *Server) setupRoutes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger)

	api := e.Group("/api")
	api.GET("/server-info", s.serverInfo)
	api.GET("/health", s.health)
	api.GET("/component/:name", s.component)
	api.GET("/crypto", s.crypto)
	api.GET("/alerts/recent", s.recentAlerts)
	api.GET("/market-overview", s.marketOverview)
	api.GET("/watchlist/insights", s.watchlistInsights)
	api.GET("/watchlist/insights/log", s.watchlistInsightsLog)
	api.GET("/watchlist/insights/price", s.watchlistInsightsPrice)
	api.POST("/watchlist/insights/latest", s.latestAlerts)
	api.GET("/technical-analysis/:symbol", s.technicalAnalysis)
	api.GET("/news/:symbol", s.news)
	api.GET("/social-sentiment/:symbol", s.socialSentiment)

	e.GET("/ws", s.handleWS)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("request",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"status", c.Response().Status,
			"duration", time.Since(start),
		)
		return nil
	}
}

func (s *Server) currentPort() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func serverVersion() string {
	return version.Version
}
