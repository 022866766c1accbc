package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/aretw0/autopilot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "Autopilot drives a desktop or browser through a graph of UI actions",
	Long: `Autopilot runs tasks: graphs of Action nodes (move, click, type) and Logic nodes
(read a screen region, compare, branch). It stays out of the way while you use the keyboard or mouse.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultPath, "Path to the configuration file")
	flags.String("store", "", "Task store driver: file, redis or memory (overrides config)")
	flags.String("backend", "", "Capability backend: dryrun, desktop or browser (overrides config)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Driver = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend.Driver = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, cfg.Validate()
}

// withStack builds the application stack for the duration of fn.
// The context passed to fn is cancelled on SIGINT or SIGTERM.
func withStack(cmd *cobra.Command, fn func(ctx context.Context, stack *cli.Stack) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	stack, err := cli.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn("shutdown incomplete", "err", err)
		}
	}()

	err = fn(ctx, stack)
	if sig := ctx.Signal(); sig != nil {
		logger.Info("stopped by signal", "signal", sig.String())
	}
	return err
}
