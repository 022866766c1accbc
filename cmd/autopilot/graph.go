package main

import (
	"context"
	"fmt"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/aretw0/autopilot/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <task>",
	Short: "Export the task graph visualization",
	Long:  `Loads the task and outputs a Mermaid diagram (graph TD) of its nodes and delayed edges.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.LoadTask(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(task, nil))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
