package bulk

import (
	"context"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/db/query"
	"github.com/rebeliceyang/assetq/internal/filter"
	"github.com/rebeliceyang/assetq/internal/models"
)

// IDSource runs a predicate and returns the matching asset IDs.
// *query.Executor implements it.
type IDSource interface {
	IDs(ctx context.Context, scope query.Scope, where sq.Sqlizer) ([]string, error)
}

// Recorder keeps a log of select-all resolutions
type Recorder interface {
	Record(r models.Resolution) error
}

// Request is one bulk selection to resolve
type Request struct {
	Target         models.BulkTarget
	OrganizationID string
	// Filters is the filter string active when the selection was made
	Filters string
	// Mode comes from the user's persisted settings, never from Filters
	Mode                models.Mode
	Columns             models.Columns
	AvailableToBookOnly bool
}

// Resolver turns bulk targets into concrete asset ID lists
type Resolver struct {
	ids     IDSource
	history Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Resolver
type Option func(*Resolver)

// WithHistory records every select-all resolution
func WithHistory(rec Recorder) Option {
	return func(r *Resolver) {
		r.history = rec
	}
}

// WithLogger sets the resolver's logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over an ID source
func NewResolver(ids IDSource, opts ...Option) *Resolver {
	r := &Resolver{
		ids:    ids,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the asset IDs a bulk action applies to. A target without
// the select-all sentinel is returned unchanged without touching the store.
// Otherwise the mode alone picks the predicate: advanced mode with a filter
// string compiles the filters, anything else uses the simple predicate.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]string, error) {
	if !req.Target.SelectAll() {
		return req.Target.IDs, nil
	}

	mode := models.ParseMode(string(req.Mode))
	scope := query.Scope{OrganizationID: req.OrganizationID, Filters: req.Filters, Mode: mode}

	var where sq.Sqlizer
	if mode == models.ModeAdvanced && strings.TrimSpace(req.Filters) != "" {
		where = r.advancedWhere(req)
	} else {
		where = SimpleWhere(req.OrganizationID, req.Filters)
	}

	start := r.now()
	ids, err := r.ids.IDs(ctx, scope, where)
	elapsed := r.now().Sub(start)

	r.record(scope, len(ids), elapsed, err)

	if err != nil {
		return nil, err
	}

	r.logger.Info("resolved bulk selection",
		"organization", req.OrganizationID, "mode", mode, "count", len(ids), "duration", elapsed)
	return ids, nil
}

func (r *Resolver) advancedWhere(req Request) sq.Sqlizer {
	var search *string
	if s := filter.ParseSearch(req.Filters); s != "" {
		search = &s
	}

	opts := []filter.Option{filter.WithLogger(r.logger)}
	if req.AvailableToBookOnly {
		opts = append(opts, filter.WithAvailableToBookOnly())
	}

	return filter.Compile(req.OrganizationID, search, filter.Parse(req.Filters, req.Columns), opts...)
}

func (r *Resolver) record(scope query.Scope, count int, elapsed time.Duration, err error) {
	if r.history == nil {
		return
	}

	res := models.Resolution{
		OrganizationID: scope.OrganizationID,
		Mode:           scope.Mode,
		Filters:        scope.Filters,
		SelectAll:      true,
		Count:          count,
		Duration:       elapsed,
		Success:        err == nil,
		ResolvedAt:     r.now(),
	}
	if err != nil {
		res.Error = err.Error()
	}

	if recErr := r.history.Record(res); recErr != nil {
		r.logger.Warn("failed to record bulk resolution", "error", recErr)
	}
}
