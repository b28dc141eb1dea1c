package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/ascend/internal/mcp"
	"github.com/claude/ascend/internal/server"
)

// shutdownTimeout bounds how long in-flight dashboard requests may finish.
const shutdownTimeout = 10 * time.Second

type ServeCmd struct {
	Host      string `help:"Listen host. Overrides dashboard.host."`
	Port      int    `help:"Listen port. Overrides dashboard.port."`
	Tailscale bool   `help:"Serve on the tailnet with tsnet instead of a local port."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	cfg := ctx.Config.Dashboard
	if c.Host != "" {
		cfg.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	if c.Tailscale {
		cfg.Tailscale.Enabled = true
	}

	srv := server.New(ctx.API, ctx.Sessions, ctx.Log)

	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
			UserLogf: func(format string, args ...any) {
				ctx.Log.Info(fmt.Sprintf(format, args...))
			},
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		ctx.Log.Info("tsnet dashboard starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		var err error
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		ctx.Log.Info("dashboard starting", "addr", "http://"+listener.Addr().String())
	}

	return serveUntilDone(ctx, &http.Server{Handler: srv}, listener)
}

// serveUntilDone serves until ctx.Ctx is cancelled, then shuts down gracefully.
func serveUntilDone(ctx *Context, httpSrv *http.Server, listener net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("dashboard server: %w", err)
		}
		return nil
	case <-ctx.Ctx.Done():
	}
	ctx.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		ctx.Log.Error("shutdown error", "error", err)
	}
	ctx.Log.Info("dashboard stopped")
	return nil
}

type MCPCmd struct {
	Remote string `help:"Read data from a running ascend dashboard at this URL instead of the backend."`
}

func (c *MCPCmd) Run(ctx *Context) error {
	var ds mcp.DataSource
	if c.Remote != "" {
		ds = mcp.NewHTTPClient(c.Remote)
		ctx.Log.Info("mcp reading from dashboard", "url", c.Remote)
	} else {
		ds = mcp.NewSessionSource(ctx.API, ctx.Sessions)
	}
	s := mcp.New(ds, ctx.Version, ctx.Log)
	ctx.Log.Info("mcp server starting on stdio", "version", ctx.Version)
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
