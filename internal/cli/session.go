package cli

import (
	"context"

	"github.com/rebeliceyang/assetq/internal/db/connection"
	"github.com/rebeliceyang/assetq/internal/db/metadata"
	"github.com/rebeliceyang/assetq/internal/db/query"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/spf13/cobra"
)

// scopeFlags name the organization and the user whose index settings apply
type scopeFlags struct {
	Org         string
	User        string
	ColumnsFile string
}

func (f *scopeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Org, "org", "", "organization ID (required)")
	cmd.Flags().StringVar(&f.User, "user", "", "user whose stored index settings supply the columns and mode")
	cmd.Flags().StringVar(&f.ColumnsFile, "columns", "", "YAML column registry file, overrides stored settings")
	_ = cmd.MarkFlagRequired("org")
}

// settings resolves the column registry and index mode. A columns file wins
// over stored settings; with neither, the registry is empty and the mode SIMPLE.
func (f *scopeFlags) settings(ctx context.Context, db metadata.Querier) (*metadata.IndexSettings, error) {
	if f.ColumnsFile != "" {
		cols, err := metadata.ReadColumnsFile(f.ColumnsFile)
		if err != nil {
			return nil, err
		}
		return &metadata.IndexSettings{Mode: models.ModeAdvanced, Columns: cols, Found: true}, nil
	}
	if f.User != "" && db != nil {
		return metadata.LoadIndexSettings(ctx, db, f.Org, f.User)
	}
	return &metadata.IndexSettings{Mode: models.ModeSimple}, nil
}

func (o *RootOptions) openPool(ctx context.Context) (*connection.Pool, error) {
	o.Logger.Debug("connecting", "database", o.Config.Database.String())
	return connection.NewPool(ctx, o.Config.Database)
}

func (o *RootOptions) newExecutor(db query.Querier) *query.Executor {
	return query.NewExecutor(db,
		query.WithTimeout(o.Config.Engine.QueryTimeout()),
		query.WithPageSize(o.Config.Engine.DefaultPerPage, o.Config.Engine.MaxPerPage),
		query.WithLogger(o.Logger),
	)
}
