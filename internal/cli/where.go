package cli

import (
	"fmt"

	"github.com/rebeliceyang/assetq/internal/db/query"
	"github.com/spf13/cobra"
)

// WhereOptions holds flags for the where command.
type WhereOptions struct {
	*RootOptions
	scopeFlags
	Filters         string
	AssetIDs        []string
	AvailableToBook bool
}

// NewWhereCommand creates the where command.
func NewWhereCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WhereOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "where",
		Short: "Print the WHERE clause compiled from a filter string",
		Long: `Compile an asset index filter string into a parameterized WHERE clause.

Example:
  assetq where --org org-1 --filters 'status=is:AVAILABLE&cf_Serial=contains:AB' --columns columns.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhere(opts, cmd)
		},
	}

	opts.scopeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Filters, "filters", "", "filter string (k=op:v&...)")
	cmd.Flags().StringSliceVar(&opts.AssetIDs, "asset-ids", nil, "restrict to these asset IDs")
	cmd.Flags().BoolVar(&opts.AvailableToBook, "available-to-book", false, "only assets available to book")

	return cmd
}

func runWhere(opts *WhereOptions, cmd *cobra.Command) error {
	settings, err := opts.settings(cmd.Context(), nil)
	if err != nil {
		return err
	}

	q := query.Prepare(query.Request{
		OrganizationID:      opts.Org,
		Filters:             opts.Filters,
		Columns:             settings.Columns,
		AssetIDs:            opts.AssetIDs,
		AvailableToBookOnly: opts.AvailableToBook,
	}, opts.Logger)

	sql, args, err := q.WhereSQL()
	if err != nil {
		return fmt.Errorf("failed to render where clause: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, map[string]interface{}{"sql": sql, "args": args})
	}

	fmt.Fprintf(out, "WHERE %s\n", sql)
	if len(args) > 0 {
		fmt.Fprintln(out, formatArgs(args))
	}
	return nil
}
