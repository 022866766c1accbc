package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/autopilot"
	httpAdapter "github.com/aretw0/autopilot/internal/adapters/http"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures the serve command.
type ServeOptions struct {
	Addr string
	// Task is opened before serving when set.
	Task string
	// AutoStart starts Task once the server is up.
	AutoStart bool
}

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP control API, the event hub and the scheduler loop under one group.
// It returns when ctx is cancelled or any of them fails.
func Serve(ctx context.Context, stack *Stack, opts ServeOptions) error {
	eng := stack.Engine
	if opts.Task != "" {
		if _, err := eng.Open(ctx, opts.Task); err != nil {
			return err
		}
		if opts.AutoStart {
			if err := eng.Start(ctx); err != nil {
				return err
			}
		}
	}

	handler := httpAdapter.NewHandler(eng,
		httpAdapter.WithLogger(stack.Logger),
		httpAdapter.WithEvents(stack.Hub),
		httpAdapter.WithMetrics(stack.Registry),
		httpAdapter.WithVersion(autopilot.Version),
	)
	srv := &http.Server{Addr: opts.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return stack.Hub.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error {
		stack.Logger.Info("HTTP server listening", "address", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if eng.Running() {
		_ = eng.Stop(context.Background())
	}
	return err
}
