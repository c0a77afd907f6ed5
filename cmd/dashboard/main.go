// Command dashboard is the terminal client for the market movers backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cbmooners/dashboard/internal/api"
	"github.com/cbmooners/dashboard/internal/config"
	"github.com/cbmooners/dashboard/internal/connection"
	"github.com/cbmooners/dashboard/internal/logging"
)

// CLI defines the command-line interface structure.
var CLI struct {
	// Global flags
	Config    string `help:"Path to config file" short:"c" env:"DASHBOARD_CONFIG" type:"path"`
	LogLevel  string `help:"Override log level (debug, info, warn, error)" name:"log-level"`
	LogFormat string `help:"Override log format (text, json, logfmt)" name:"log-format"`

	// Commands
	Watch       WatchCmd       `cmd:"" help:"Poll the component feeds and print them"`
	Fetch       FetchCmd       `cmd:"" help:"Fetch one endpoint and print its JSON"`
	Watchlist   WatchlistCmd   `cmd:"" help:"Manage the local watchlist"`
	WSURL       WSURLCmd       `cmd:"" name:"ws-url" help:"Print the resolved realtime endpoint"`
	WSSmoke     WSSmokeCmd     `cmd:"" name:"ws-smoke" help:"Check that the realtime endpoint accepts connections"`
	MockBackend MockBackendCmd `cmd:"" name:"mock-backend" help:"Serve a mock backend for local development"`
	Version     VersionCmd     `cmd:"" help:"Print version information"`
}

// Context holds shared CLI context.
type Context struct {
	Config *config.DashboardConfig
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func (c *Context) apiClient() *api.Client {
	a := c.Config.API
	opts := []api.ClientOption{
		api.WithLogger(c.Logger),
		api.WithTimeout(a.Timeout),
		api.WithProbeTimeout(a.ProbeTimeout),
		api.WithCacheWindow(a.CacheWindow),
		api.WithPageOrigin(a.PageOrigin),
	}
	if a.Candidates != nil {
		opts = append(opts, api.WithCandidates(a.Candidates))
	}
	return api.NewClient(a.URL, opts...)
}

func (c *Context) managerConfig(url string) connection.ManagerConfig {
	cc := c.Config.Connection
	cfg := connection.DefaultManagerConfig()
	cfg.URL = url
	cfg.ReconnectBaseWait = cc.ReconnectBaseDelay
	cfg.ReconnectMaxWait = cc.ReconnectMaxDelay
	cfg.Client.PingInterval = cc.PingInterval
	cfg.Client.PingTimeout = cc.PingTimeout
	cfg.Client.WriteTimeout = cc.WriteTimeout
	return cfg
}

// realtimeConfig follows the client's active base so a fallback switch
// also moves the realtime dial target.
func (c *Context) realtimeConfig(client *api.Client) connection.ManagerConfig {
	override := c.Config.API.WSURL
	cfg := c.managerConfig(client.WebSocketURL(override))
	cfg.URLFunc = func() string { return client.WebSocketURL(override) }
	return cfg
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("dashboard"),
		kong.Description("Terminal client for the crypto movers dashboard backend"),
		kong.UsageOnError(),
	)

	cfg, err := config.LoadAndValidate(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Log.Format = CLI.LogFormat
	}

	logger, err := logging.New(os.Stderr, logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "configure logging:", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(&Context{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		Err:    os.Stderr,
	})
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
