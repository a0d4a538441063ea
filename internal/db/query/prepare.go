package query

import (
	"log/slog"

	"github.com/rebeliceyang/assetq/internal/filter"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/rebeliceyang/assetq/internal/ordering"
)

// Request describes one asset index query in advanced mode
type Request struct {
	OrganizationID string
	// Filters is the raw filter string, search and sortBy included
	Filters             string
	Columns             models.Columns
	Sorts               []models.SortSpec
	AssetIDs            []string
	AvailableToBookOnly bool
}

// Scope returns the error context of the request
func (r Request) Scope() Scope {
	return Scope{OrganizationID: r.OrganizationID, Filters: r.Filters, Mode: models.ModeAdvanced}
}

// Prepare compiles a request. Sorts fall back to the sortBy parameters of
// the filter string when the request carries none.
func Prepare(req Request, logger *slog.Logger) models.CompiledQuery {
	if logger == nil {
		logger = slog.Default()
	}

	filters := filter.Parse(req.Filters, req.Columns)

	var search *string
	if s := filter.ParseSearch(req.Filters); s != "" {
		search = &s
	}

	opts := []filter.Option{filter.WithLogger(logger)}
	if len(req.AssetIDs) > 0 {
		opts = append(opts, filter.WithAssetIDs(req.AssetIDs))
	}
	if req.AvailableToBookOnly {
		opts = append(opts, filter.WithAvailableToBookOnly())
	}

	sorts := req.Sorts
	if len(sorts) == 0 {
		sorts = filter.ParseSorts(req.Filters)
	}
	order := ordering.Compile(sorts, req.Columns, logger)

	return models.CompiledQuery{
		Where:      filter.Compile(req.OrganizationID, search, filters, opts...),
		OrderBy:    order.OrderBy,
		AuxSelect:  order.Projections.Select(),
		AuxColumns: order.Projections.Columns(),
	}
}
