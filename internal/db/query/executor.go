package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rebeliceyang/assetq/internal/filter"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/rebeliceyang/assetq/internal/ordering"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Querier is the part of *sql.DB the executor needs
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Executor runs compiled queries against the asset schema
type Executor struct {
	db             Querier
	timeout        time.Duration
	defaultPerPage int
	maxPerPage     int
	logger         *slog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithTimeout bounds every store call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithPageSize sets the page size used when none is requested and the
// largest one accepted
func WithPageSize(defaultPerPage, maxPerPage int) Option {
	return func(e *Executor) {
		if defaultPerPage > 0 {
			e.defaultPerPage = defaultPerPage
		}
		if maxPerPage > 0 {
			e.maxPerPage = maxPerPage
		}
	}
}

// WithLogger sets the logger store failures are reported to
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor over db
func NewExecutor(db Querier, opts ...Option) *Executor {
	e := &Executor{
		db:             db,
		timeout:        DefaultTimeout,
		defaultPerPage: DefaultPerPage,
		maxPerPage:     MaxPerPage,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.defaultPerPage > e.maxPerPage {
		e.defaultPerPage = e.maxPerPage
	}
	return e
}

// Asset is one row of the asset index page
type Asset struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	SequentialID    *string   `json:"sequentialId,omitempty"`
	Status          string    `json:"status"`
	Value           *float64  `json:"valuation,omitempty"`
	AvailableToBook bool      `json:"availableToBook"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	QrID            *string   `json:"qrId,omitempty"`
	KitName         *string   `json:"kit,omitempty"`
	CategoryName    *string   `json:"category,omitempty"`
	LocationName    *string   `json:"location,omitempty"`
	Custodian       *string   `json:"custodian,omitempty"`

	// Barcodes maps barcode type to the first value of that type
	Barcodes map[string]string `json:"barcodes,omitempty"`

	// CustomFields maps projection alias to value
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// AssetPage is one page of assets plus the size of the whole result
type AssetPage struct {
	Assets     []Asset `json:"assets"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

// pageColumns is the fixed part of the page SELECT list. The ORDER BY
// compiler refers to these aliases.
var pageColumns = []string{
	`a.id AS "assetId"`,
	`a.title AS "assetTitle"`,
	`a.description AS "assetDescription"`,
	`a."sequentialId" AS "assetSequentialId"`,
	`a.status AS "assetStatus"`,
	`a.value AS "assetValue"`,
	`a."availableToBook" AS "assetAvailableToBook"`,
	`a."createdAt" AS "assetCreatedAt"`,
	`a."updatedAt" AS "assetUpdatedAt"`,
	`(SELECT q.id FROM public."Qr" q WHERE q."assetId" = a.id ORDER BY q."createdAt" LIMIT 1) AS "qrId"`,
	`k.name AS "kitName"`,
	`c.name AS "categoryName"`,
	`l.name AS "locationName"`,
	`CASE WHEN cu.id IS NULL THEN NULL ELSE jsonb_build_object('name', ` +
		`COALESCE(NULLIF(TRIM(CONCAT(u."firstName", ' ', u."lastName")), ''), tm.name)) END AS custody`,
}

func barcodeColumn(barcodeType string) sq.Sqlizer {
	alias := pgx.Identifier{models.BarcodePrefix + barcodeType}.Sanitize()
	return sq.Expr(`(SELECT b.value FROM public."Barcode" b WHERE b."assetId" = a.id AND b.type::text = ? `+
		`ORDER BY b."createdAt" LIMIT 1) AS `+alias, barcodeType)
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func idsQuery(where sq.Sqlizer) sq.SelectBuilder {
	return sq.Select("DISTINCT a.id").
		From(filter.BaseFrom).
		Where(where).
		OrderBy("a.id").
		PlaceholderFormat(sq.Dollar)
}

func countQuery(where sq.Sqlizer) sq.SelectBuilder {
	return sq.Select("COUNT(DISTINCT a.id)").
		From(filter.BaseFrom).
		Where(where).
		PlaceholderFormat(sq.Dollar)
}

func pageQuery(q models.CompiledQuery, limit, offset int) sq.SelectBuilder {
	inner := sq.Select(pageColumns...).Options("DISTINCT ON (a.id)")
	for _, t := range models.BarcodeTypes {
		inner = inner.Column(barcodeColumn(t))
	}
	for _, col := range q.AuxColumns {
		inner = inner.Column(col)
	}
	inner = inner.From(filter.BaseFrom).Where(q.Where)

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = ordering.DefaultOrderBy
	}

	return sq.Select("*").
		FromSelect(inner, "aq").
		OrderBy(orderBy).
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar)
}

// IDs returns the distinct IDs of the assets matching where
func (e *Executor) IDs(ctx context.Context, scope Scope, where sq.Sqlizer) ([]string, error) {
	query, args, err := idsQuery(where).ToSql()
	if err != nil {
		return nil, scope.Wrap("build id query", err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		e.logger.Error("id query failed", "organization", scope.OrganizationID, "mode", scope.Mode, "error", err)
		return nil, scope.Wrap("select ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, scope.Wrap("scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, scope.Wrap("select ids", err)
	}

	return ids, nil
}

// Count returns the number of distinct assets matching where
func (e *Executor) Count(ctx context.Context, scope Scope, where sq.Sqlizer) (int, error) {
	query, args, err := countQuery(where).ToSql()
	if err != nil {
		return 0, scope.Wrap("build count query", err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var total int
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		e.logger.Error("count query failed", "organization", scope.OrganizationID, "error", err)
		return 0, scope.Wrap("count assets", err)
	}
	return total, nil
}

// ListAssets returns one page of the compiled query. Page numbers start
// at 1; out of range sizes are clamped.
func (e *Executor) ListAssets(ctx context.Context, scope Scope, q models.CompiledQuery, page, perPage int) (*AssetPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = e.defaultPerPage
	}
	if perPage > e.maxPerPage {
		perPage = e.maxPerPage
	}

	total, err := e.Count(ctx, scope, q.Where)
	if err != nil {
		return nil, err
	}

	result := &AssetPage{
		Assets:     []Asset{},
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: (total + perPage - 1) / perPage,
	}
	if total == 0 {
		return result, nil
	}

	query, args, err := pageQuery(q, perPage, (page-1)*perPage).ToSql()
	if err != nil {
		return nil, scope.Wrap("build page query", err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		e.logger.Error("page query failed", "organization", scope.OrganizationID, "error", err)
		return nil, scope.Wrap("list assets", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, scope.Wrap("list assets", err)
	}
	if len(columns) < len(pageColumns)+len(models.BarcodeTypes) {
		return nil, scope.Wrap("list assets", fmt.Errorf("unexpected column count %d", len(columns)))
	}
	auxNames := columns[len(pageColumns)+len(models.BarcodeTypes):]

	for rows.Next() {
		asset, err := scanAsset(rows, auxNames)
		if err != nil {
			return nil, scope.Wrap("scan asset", err)
		}
		result.Assets = append(result.Assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, scope.Wrap("list assets", err)
	}

	return result, nil
}

func scanAsset(rows *sql.Rows, auxNames []string) (Asset, error) {
	var (
		a       Asset
		custody []byte
	)
	barcodes := make([]*string, len(models.BarcodeTypes))
	aux := make([]*string, len(auxNames))

	dest := []interface{}{
		&a.ID, &a.Title, &a.Description, &a.SequentialID, &a.Status, &a.Value,
		&a.AvailableToBook, &a.CreatedAt, &a.UpdatedAt, &a.QrID,
		&a.KitName, &a.CategoryName, &a.LocationName, &custody,
	}
	for i := range barcodes {
		dest = append(dest, &barcodes[i])
	}
	for i := range aux {
		dest = append(dest, &aux[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return Asset{}, err
	}

	if len(custody) > 0 {
		var c struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(custody, &c); err != nil {
			return Asset{}, fmt.Errorf("failed to decode custody: %w", err)
		}
		a.Custodian = &c.Name
	}

	a.Barcodes = make(map[string]string)
	for i, t := range models.BarcodeTypes {
		if barcodes[i] != nil {
			a.Barcodes[t] = *barcodes[i]
		}
	}

	a.CustomFields = make(map[string]string)
	for i, name := range auxNames {
		if aux[i] != nil {
			a.CustomFields[name] = *aux[i]
		}
	}

	return a, nil
}
