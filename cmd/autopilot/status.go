package main

import (
	"context"
	"fmt"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/aretw0/autopilot/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <task>",
	Short: "Show a task and whether it can be opened",
	Long:  `Opens the task without starting it and prints the scheduler status line and its targets.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.Open(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tui.StatusLine(stack.Engine.Status()))
			fmt.Fprintf(out, "%d node(s), %d run at start\n", task.Len(), len(task.RunAtStart()))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
