package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <task>",
	Short: "Check a task for consistency",
	Long: `Reports dangling edge targets, negative delays and bad logic settings as errors, and
nodes that nothing reaches or that re-enter themselves as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.LoadTask(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if names := schema.Unreachable(task); len(names) > 0 {
				fmt.Fprintf(out, "warning: never started: %s\n", strings.Join(names, ", "))
			}
			if names := schema.SelfLoops(task); len(names) > 0 {
				fmt.Fprintf(out, "warning: edges back to themselves: %s\n", strings.Join(names, ", "))
			}

			if err := schema.Validate(task); err != nil {
				for _, e := range schema.ValidationErrors(err) {
					fmt.Fprintf(out, "error: %v\n", e)
				}
				return errors.New("validation failed")
			}
			fmt.Fprintln(out, "Task is valid! ✅")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
