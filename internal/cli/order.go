package cli

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/db/metadata"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/rebeliceyang/assetq/internal/ordering"
	"github.com/spf13/cobra"
)

// OrderOptions holds flags for the order command.
type OrderOptions struct {
	*RootOptions
	Sorts       []string
	ColumnsFile string
}

type projectionOutput struct {
	CustomField string `json:"customField"`
	Alias       string `json:"alias"`
	Type        string `json:"type,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the ORDER BY clause compiled from sort directives",
		Long: `Compile field:direction[:customFieldType] directives into an ORDER BY clause
and the custom field projections it references.

Example:
  assetq order --sort name:asc --sort cf_Serial:desc:TEXT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sorts, "sort", nil, "sort directive, repeatable")
	cmd.Flags().StringVar(&opts.ColumnsFile, "columns", "", "YAML column registry file")

	return cmd
}

func runOrder(opts *OrderOptions, cmd *cobra.Command) error {
	var columns models.Columns
	if opts.ColumnsFile != "" {
		cols, err := metadata.ReadColumnsFile(opts.ColumnsFile)
		if err != nil {
			return err
		}
		columns = cols
	}

	res := ordering.Compile(models.ParseSortSpecs(opts.Sorts), columns, opts.Logger)

	projections := make([]projectionOutput, 0, len(res.Projections))
	for _, p := range res.Projections {
		projections = append(projections, projectionOutput{
			CustomField: p.CustomFieldName,
			Alias:       p.Alias,
			Type:        string(p.CustomFieldType),
		})
	}

	// render escaped placeholders the way PostgreSQL receives them
	orderBy, err := sq.Dollar.ReplacePlaceholders(res.OrderBy)
	if err != nil {
		return fmt.Errorf("failed to render order by: %w", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, map[string]interface{}{"orderBy": orderBy, "projections": projections})
	}

	fmt.Fprintln(out, "ORDER BY "+orderBy)
	for _, p := range projections {
		fmt.Fprintf(out, "projection %s AS %s\n", p.CustomField, p.Alias)
	}
	return nil
}
