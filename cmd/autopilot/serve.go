package main

import (
	"context"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Starts the engine behind a JSON API for editing and running tasks, with a WebSocket
event stream at /events and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		task, _ := cmd.Flags().GetString("task")
		start, _ := cmd.Flags().GetBool("start")

		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			if addr == "" {
				addr = stack.Config.HTTP.Addr
			}
			return cli.Serve(ctx, stack, cli.ServeOptions{Addr: addr, Task: task, AutoStart: start})
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to http.addr from config)")
	serveCmd.Flags().String("task", "", "Task to open before serving")
	serveCmd.Flags().Bool("start", false, "Start --task once the server is up")
}
