package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/aretw0/autopilot/internal/cli"
	"github.com/aretw0/autopilot/internal/presentation/tui"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/dsl"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Manage stored tasks",
	Long:    `Create, inspect, edit, export and remove the tasks held by the configured store.`,
}

var taskLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			names, err := stack.Engine.ListTasks(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			fmt.Fprintln(out, "Tasks:")
			for _, n := range names {
				fmt.Fprintln(out, "- "+n)
			}
			return nil
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task>",
	Short: "Render a task as a table of nodes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.LoadTask(ctx, args[0])
			if err != nil {
				return err
			}
			rendered, err := tui.NewRenderer()(tui.TaskMarkdown(task))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		})
	},
}

var taskNewCmd = &cobra.Command{
	Use:   "new <task>",
	Short: "Create an empty task",
	Long:  `Creates an empty task, or with --sample a small watch-and-click task to start editing from.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, _ := cmd.Flags().GetBool("sample")
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			if sample {
				return createSample(ctx, cmd.OutOrStdout(), stack, args[0])
			}
			if _, err := stack.Engine.CreateTask(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task '%s'\n", args[0])
			return nil
		})
	},
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task>...",
	Short: "Remove one or more tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			var errs []error
			for _, name := range args {
				if err := stack.Engine.DeleteTask(ctx, name); err != nil {
					errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task '%s'\n", name)
			}
			return errors.Join(errs...)
		})
	},
}

var taskExportCmd = &cobra.Command{
	Use:   "export <task>",
	Short: "Print the records of a task as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asYAML, _ := cmd.Flags().GetBool("yaml")
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.LoadTask(ctx, args[0])
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), schema.TaskRecords(task), asYAML)
		})
	},
}

var taskImportCmd = &cobra.Command{
	Use:   "import <task> <file>",
	Short: "Replace a task with records read from a JSON or YAML file",
	Long:  `Reads a list of node records ("-" for stdin), validates them and saves them under the task name.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			task, err := stack.Engine.ImportTask(ctx, args[0], records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported '%s' (%d nodes)\n", task.Name, task.Len())
			return nil
		})
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <task> <action|logic> <node>",
	Short: "Add a node to a task",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		geometry, _ := cmd.Flags().GetString("geometry")
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			if _, err := stack.Engine.Open(ctx, args[0]); err != nil {
				return err
			}
			node, err := stack.Engine.AddNode(domain.Kind(args[1]), args[2], geometry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s node '%s' at %s\n", node.Kind, node.Name, node.Geometry)
			return nil
		})
	},
}

var taskSetCmd = &cobra.Command{
	Use:   "set <task> <node> <key> <value>",
	Short: "Change one field of a node",
	Long: `Sets a record field such as next_event, next_event_delay, repeat or logic_value.
Numbers and booleans are parsed; anything else is stored as text.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			if _, err := stack.Engine.Open(ctx, args[0]); err != nil {
				return err
			}
			node, err := stack.Engine.UpdateField(args[1], args[2], parseValue(args[3]))
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), []schema.Record{schema.Encode(node)}, true)
		})
	},
}

var taskDelCmd = &cobra.Command{
	Use:   "del <task> <node>",
	Short: "Delete a node from a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStack(cmd, func(ctx context.Context, stack *cli.Stack) error {
			if _, err := stack.Engine.Open(ctx, args[0]); err != nil {
				return err
			}
			if err := stack.Engine.DeleteNode(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted node '%s'\n", args[1])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskLsCmd, taskShowCmd, taskNewCmd, taskRmCmd, taskExportCmd, taskImportCmd,
		taskAddCmd, taskSetCmd, taskDelCmd)

	taskNewCmd.Flags().Bool("sample", false, "Seed the task with a sample watch-and-click graph")
	taskExportCmd.Flags().Bool("yaml", false, "Write YAML instead of JSON")
	taskAddCmd.Flags().String("geometry", "", "Region as WxH+X+Y (default "+domain.DefaultGeometry+")")
}

// createSample seeds a task that watches a region for "OK" every five seconds and clicks a
// button when it appears.
func createSample(ctx context.Context, w io.Writer, stack *cli.Stack, name string) error {
	names, err := stack.Engine.ListTasks(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return fmt.Errorf("%w: %s", domain.ErrTaskExists, name)
	}

	b := dsl.New(name)
	b.Logic("watch").
		At("200x40+100+100").
		OnStart().
		Every(5).
		Text(domain.OpEqual, "OK").
		Success("click", 1)
	b.Action("click").
		At("120x40+140+160").
		Exact()

	records, err := b.Records()
	if err != nil {
		return err
	}
	task, err := stack.Engine.ImportTask(ctx, name, records)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Created task '%s' with %d sample nodes\n", task.Name, task.Len())
	return nil
}

func writeRecords(w io.Writer, records []schema.Record, asYAML bool) error {
	if records == nil {
		records = []schema.Record{}
	}
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(records)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// readRecords accepts JSON or YAML; JSON is a subset of YAML.
func readRecords(stdin io.Reader, path string) ([]schema.Record, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var records []schema.Record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func parseValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch s {
	case "true", "false":
		b, _ := strconv.ParseBool(s)
		return b
	}
	return s
}
