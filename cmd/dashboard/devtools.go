package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cbmooners/dashboard/internal/devserver"
	"github.com/cbmooners/dashboard/internal/version"
)

// MockBackendCmd serves canned data on the backend port.
type MockBackendCmd struct {
	Port      int           `help:"Listen port (default: dev.backend_port)"`
	Broadcast time.Duration `help:"Interval between realtime movers broadcasts" default:"5s"`
}

func (c *MockBackendCmd) Run(cli *Context, ctx context.Context) error {
	port := cli.Config.Dev.BackendPort
	if c.Port > 0 {
		port = c.Port
	}

	srv := devserver.New(
		devserver.WithLogger(cli.Logger),
		devserver.WithBroadcastInterval(c.Broadcast),
	)
	return srv.Run(ctx, fmt.Sprintf(":%d", port))
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *Context) error {
	_, err := fmt.Fprintln(cli.Out, "dashboard", version.String())
	return err
}
