package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cbmooners/dashboard/internal/api"
	"github.com/cbmooners/dashboard/internal/connection"
)

// WSURLCmd prints the realtime endpoint the client would connect to.
type WSURLCmd struct{}

func (c *WSURLCmd) Run(cli *Context) error {
	_, err := fmt.Fprintln(cli.Out, cli.apiClient().WebSocketURL(cli.Config.API.WSURL))
	return err
}

// WSSmokeCmd connects once and reports the outcome. Failures exit with
// status 2.
type WSSmokeCmd struct {
	URL     string        `arg:"" optional:"" help:"Realtime endpoint (default: WS_URL, the configured ws_url, or the local backend)"`
	Timeout time.Duration `help:"Give up after this long" default:"10s"`
}

func (c *WSSmokeCmd) target(cli *Context) string {
	if c.URL != "" {
		return c.URL
	}
	if v := strings.TrimSpace(os.Getenv("WS_URL")); v != "" {
		return v
	}
	if cli.Config.API.WSURL != "" {
		return cli.Config.API.WSURL
	}
	return api.WebSocketURL(fmt.Sprintf("http://localhost:%d", cli.Config.Dev.BackendPort), "/ws")
}

func (c *WSSmokeCmd) Run(cli *Context, ctx context.Context) error {
	url := c.target(cli)
	fmt.Fprintln(cli.Out, "Attempting websocket connect to", url)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cfg := cli.managerConfig(url).Client
	cfg.URL = url
	cfg.HandshakeTimeout = c.Timeout
	client := connection.NewClient(cfg, cli.Logger)

	if err := client.Connect(ctx); err != nil {
		fmt.Fprintln(cli.Err, "connect failed:", err)
		return &exitError{code: 2, err: err}
	}
	defer client.Close()

	fmt.Fprintln(cli.Out, "Connected to", url)
	return nil
}
