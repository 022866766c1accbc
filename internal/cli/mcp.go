package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/autopilot"
	"github.com/aretw0/autopilot/pkg/adapters/mcp"
	"golang.org/x/sync/errgroup"
)

// MCPOptions configures the mcp command.
type MCPOptions struct {
	// Transport is "stdio" or "sse".
	Transport string
	Addr      string
	BaseURL   string
}

// ServeMCP exposes the engine as MCP tools while the scheduler loop runs alongside.
func ServeMCP(ctx context.Context, stack *Stack, opts MCPOptions) error {
	srv := mcp.NewServer(stack.Engine, autopilot.Version, mcp.WithLogger(stack.Logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stack.Engine.Run(gctx) })

	switch opts.Transport {
	case "stdio":
		g.Go(func() error {
			err := srv.ServeStdio()
			// Stdin closed; end the scheduler loop too.
			_ = stack.Engine.Close()
			return err
		})
	case "sse":
		g.Go(func() error { return srv.ServeSSE(gctx, opts.Addr, opts.BaseURL) })
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", opts.Transport)
	}

	err := g.Wait()
	if stack.Engine.Running() {
		_ = stack.Engine.Stop(context.Background())
	}
	return err
}
