package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rebeliceyang/assetq/internal/presets"
	"github.com/spf13/cobra"
)

// PresetsOptions holds flags shared by the presets subcommands.
type PresetsOptions struct {
	*RootOptions
	Org  string
	User string
}

func (o *PresetsOptions) manager() (*presets.Manager, error) {
	return presets.NewManager(o.Config.Presets.Path, o.Config.Presets.MaxPerUser)
}

// NewPresetsCommand creates the presets command and its subcommands.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PresetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved filter presets",
	}

	cmd.PersistentFlags().StringVar(&opts.Org, "org", "", "organization ID (required)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", "", "preset owner (required)")
	_ = cmd.MarkPersistentFlagRequired("org")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(newPresetsAddCommand(opts))
	cmd.AddCommand(newPresetsListCommand(opts))
	cmd.AddCommand(newPresetsShowCommand(opts))
	cmd.AddCommand(newPresetsRenameCommand(opts))
	cmd.AddCommand(newPresetsRemoveCommand(opts))

	return cmd
}

func newPresetsAddCommand(opts *PresetsOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a filter string under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager()
			if err != nil {
				return err
			}
			p, err := m.Create(opts.Org, opts.User, args[0], query)
			if err != nil {
				return err
			}
			opts.Logger.Info("saved preset", "id", p.ID, "name", p.Name)
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "filter string to save")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func newPresetsListCommand(opts *PresetsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager()
			if err != nil {
				return err
			}
			list := m.List(opts.Org, opts.User)

			out := cmd.OutOrStdout()
			if opts.Format == "json" {
				return writeJSON(out, list)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSED\tQUERY")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.UsageCount, p.Query)
			}
			return tw.Flush()
		},
	}
}

func newPresetsShowCommand(opts *PresetsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Describe a preset in plain words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager()
			if err != nil {
				return err
			}
			p, err := m.Find(opts.Org, opts.User, args[0])
			if err != nil {
				return err
			}
			if err := m.RecordUsage(p.ID); err != nil {
				opts.Logger.Warn("failed to record preset usage", "error", err)
			}

			out := cmd.OutOrStdout()
			lines := presets.Summary(p.Query)
			if opts.Format == "json" {
				return writeJSON(out, map[string]interface{}{"preset": p, "summary": lines})
			}
			fmt.Fprintf(out, "%s\n%s\n", p.Name, p.Query)
			if len(lines) > 0 {
				fmt.Fprintf(out, "  %s\n", strings.Join(lines, "\n  "))
			}
			return nil
		},
	}
}

func newPresetsRenameCommand(opts *PresetsOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager()
			if err != nil {
				return err
			}
			p, err := m.Rename(args[0], opts.Org, opts.User, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.ID, p.Name)
			return nil
		},
	}
}

func newPresetsRemoveCommand(opts *PresetsOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a preset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.manager()
			if err != nil {
				return err
			}
			if err := m.Delete(args[0], opts.Org, opts.User); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
