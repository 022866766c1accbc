package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/autopilot/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Task string
	// Duration bounds the run. Zero runs until ctx is cancelled.
	Duration time.Duration
	Quiet    bool
	Out      io.Writer
}

// Run opens the task, starts it and drives the scheduler until ctx is done or the duration
// elapses. The task is stopped before returning.
func Run(ctx context.Context, stack *Stack, opts RunOptions) error {
	eng := stack.Engine
	task, err := eng.Open(ctx, opts.Task)
	if err != nil {
		return err
	}
	if len(task.RunAtStart()) == 0 {
		return fmt.Errorf("task %s has no node marked run_at_start", task.Name)
	}

	runCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}
	if !opts.Quiet {
		printSystemMessage(opts.Out, "Running '%s' (run %s). Press Ctrl+C to stop.", task.Name, eng.Status().RunID)
	}

	runErr := eng.Run(runCtx)

	if err := eng.Stop(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return err
	}
	if !opts.Quiet {
		printSystemMessage(opts.Out, "Stopped '%s' with %d report(s).", task.Name, len(eng.Reports()))
	}
	return runErr
}
