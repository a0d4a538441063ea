package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rebeliceyang/assetq/internal/history"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/spf13/cobra"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Org   string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent select-all resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Org, "org", "", "only this organization")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of entries")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	store, err := history.NewStore(opts.Config.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var entries []models.Resolution
	if opts.Org != "" {
		entries, err = store.ForOrganization(opts.Org, opts.Limit)
	} else {
		entries, err = store.GetRecent(opts.Limit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, entries)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOLVED\tORGANIZATION\tMODE\tCOUNT\tDURATION\tRESULT")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ResolvedAt.Format(time.RFC3339), e.OrganizationID, e.Mode, e.Count, e.Duration.Round(time.Millisecond), result)
	}
	return tw.Flush()
}
