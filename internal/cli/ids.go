package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rebeliceyang/assetq/internal/bulk"
	"github.com/rebeliceyang/assetq/internal/export"
	"github.com/rebeliceyang/assetq/internal/history"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/spf13/cobra"
)

// IDsOptions holds flags for the ids command.
type IDsOptions struct {
	*RootOptions
	scopeFlags
	Filters         string
	Mode            string
	All             bool
	IDs             []string
	Out             string
	AvailableToBook bool
}

// NewIDsCommand creates the ids command.
func NewIDsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IDsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Resolve a bulk selection to asset IDs",
		Long: `Resolve the assets a bulk action applies to.

Without --all the given IDs are returned as is. With --all every asset
matching the filter string is selected; the index mode decides how the
filters are read. The mode comes from --mode, else from the stored
settings of --user, else SIMPLE.

Example:
  assetq ids --org org-1 --all --filters 'status=is:AVAILABLE' --mode ADVANCED --out ids.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIDs(opts, cmd)
		},
	}

	opts.scopeFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Filters, "filters", "", "filter string active when the selection was made")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "index mode (SIMPLE|ADVANCED)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "select every asset matching the filters")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "explicitly selected asset IDs")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the IDs to a .csv or .json file")
	cmd.Flags().BoolVar(&opts.AvailableToBook, "available-to-book", false, "only assets available to book")

	return cmd
}

func (o *IDsOptions) target() models.BulkTarget {
	ids := append([]string(nil), o.IDs...)
	if o.All {
		ids = append(ids, models.AllSelectedKey)
	}
	return models.BulkTarget{IDs: ids}
}

func runIDs(opts *IDsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	target := opts.target()

	var ids []string
	mode := models.ParseMode(opts.Mode)

	if target.SelectAll() {
		pool, err := opts.openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		db := pool.DB()
		defer func() { _ = db.Close() }()

		settings, err := opts.settings(ctx, db)
		if err != nil {
			return err
		}
		if strings.TrimSpace(opts.Mode) == "" {
			mode = settings.Mode
		}

		resolverOpts := []bulk.Option{bulk.WithLogger(opts.Logger)}
		if opts.Config.History.Enabled {
			store, err := history.NewStore(opts.Config.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			resolverOpts = append(resolverOpts, bulk.WithHistory(store))
		}

		ids, err = bulk.NewResolver(opts.newExecutor(db), resolverOpts...).Resolve(ctx, bulk.Request{
			Target:              target,
			OrganizationID:      opts.Org,
			Filters:             opts.Filters,
			Mode:                mode,
			Columns:             settings.Columns,
			AvailableToBookOnly: opts.AvailableToBook,
		})
		if err != nil {
			return err
		}
	} else {
		ids = target.IDs
	}

	return writeSelection(opts, cmd, export.Selection{
		OrganizationID: opts.Org,
		Mode:           mode,
		Filters:        opts.Filters,
		ResolvedAt:     time.Now(),
		IDs:            ids,
	})
}

func writeSelection(opts *IDsOptions, cmd *cobra.Command, sel export.Selection) error {
	out := cmd.OutOrStdout()

	if opts.Out != "" {
		if err := export.Export(sel, opts.Out); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %d ids to %s\n", len(sel.IDs), opts.Out)
		return nil
	}

	if opts.Format == "json" {
		if sel.IDs == nil {
			sel.IDs = []string{}
		}
		return writeJSON(out, sel)
	}
	for _, id := range sel.IDs {
		fmt.Fprintln(out, id)
	}
	return nil
}
