package main

import (
	"context"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Run a task until interrupted",
	Long: `Opens the task, launches every node marked run_at_start and keeps the scheduler running
until Ctrl+C or the --for duration elapses.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("for")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			return cli.Run(ctx, stack, cli.RunOptions{
				Task:     args[0],
				Duration: duration,
				Quiet:    quiet,
				Out:      cmd.OutOrStdout(),
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Duration("for", 0, "Stop the task after this long (0 runs until interrupted)")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print start and stop messages")
}
