package filter

import (
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
)

// BaseFrom is the join set every compiled predicate is evaluated against.
// Search reads c, l, t, tm and u; custody reads cu.
const BaseFrom = `public."Asset" a
LEFT JOIN public."Kit" k ON a."kitId" = k.id
LEFT JOIN public."Category" c ON a."categoryId" = c.id
LEFT JOIN public."Location" l ON a."locationId" = l.id
LEFT JOIN public."_AssetToTag" att ON a.id = att."A"
LEFT JOIN public."Tag" t ON att."B" = t.id
LEFT JOIN public."Custody" cu ON cu."assetId" = a.id
LEFT JOIN public."TeamMember" tm ON cu."teamMemberId" = tm.id
LEFT JOIN public."User" u ON tm."userId" = u.id`

// assetColumns are the asset columns string, number, boolean and date
// filters may reference
var assetColumns = map[string]string{
	"id":              `a."id"`,
	"title":           `a."title"`,
	"sequentialId":    `a."sequentialId"`,
	"description":     `a."description"`,
	"value":           `a."value"`,
	"availableToBook": `a."availableToBook"`,
	"createdAt":       `a."createdAt"`,
	"updatedAt":       `a."updatedAt"`,
}

const upcomingBookingSQL = `EXISTS (SELECT 1 FROM public."_AssetToBooking" atb2 ` +
	`JOIN public."Booking" bk ON atb2."B" = bk.id ` +
	`WHERE atb2."A" = a.id AND %s ` +
	`AND bk.status IN ('DRAFT', 'RESERVED', 'ONGOING', 'OVERDUE'))`

// Builder generates WHERE predicates from parsed filters
type Builder struct {
	assetIDs            []string
	availableToBookOnly bool
	logger              *slog.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithAssetIDs restricts the predicate to the given assets
func WithAssetIDs(ids []string) Option {
	return func(b *Builder) {
		b.assetIDs = ids
	}
}

// WithAvailableToBookOnly keeps only bookable assets
func WithAvailableToBookOnly() Option {
	return func(b *Builder) {
		b.availableToBookOnly = true
	}
}

// WithLogger sets the logger used to report filters that compile to nothing
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a new filter builder
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Compile builds the predicate for one request
func Compile(organizationID string, search *string, filters []models.Filter, opts ...Option) sq.And {
	return NewBuilder(opts...).BuildWhere(organizationID, search, filters)
}

// BuildWhere folds the organization scope, the search term and the filters
// into one AND predicate. The organization term is always first.
func (b *Builder) BuildWhere(organizationID string, search *string, filters []models.Filter) sq.And {
	where := sq.And{sq.Expr(`a."organizationId" = ?`, organizationID)}

	if b.availableToBookOnly {
		where = append(where, sq.Expr(`a."availableToBook" = true`))
	}

	if len(b.assetIDs) > 0 {
		where = append(where, sq.Expr("a.id = ANY(?::text[])", b.assetIDs))
	}

	if search != nil {
		if cond := searchCondition(*search); cond != nil {
			where = append(where, cond)
		}
	}

	for _, f := range filters {
		cond := b.buildCondition(f)
		if cond == nil {
			b.logger.Debug("filter compiles to no condition",
				"name", f.Name, "kind", f.Kind, "operator", f.Operator)
			continue
		}
		where = append(where, cond)
	}

	return where
}

// buildCondition dispatches one filter by kind. nil means the filter adds
// nothing to the predicate.
func (b *Builder) buildCondition(f models.Filter) sq.Sqlizer {
	if !f.Allowed() {
		return nil
	}

	switch f.Kind {
	case models.KindString, models.KindText:
		if f.Name == "qrId" {
			return qrCondition(f)
		}
		if barcodeType, ok := models.BarcodeType(f.Name); ok {
			return barcodeCondition(barcodeType, f)
		}
		if col, ok := assetColumns[f.Name]; ok {
			return stringCondition(column(col), f.Operator, f.Value)
		}
	case models.KindNumber:
		if col, ok := assetColumns[f.Name]; ok {
			return numberCondition(column(col), f.Operator, f.Value)
		}
	case models.KindBoolean:
		if col, ok := assetColumns[f.Name]; ok {
			return booleanCondition(column(col), f.Operator, f.Value)
		}
	case models.KindDate:
		if col, ok := assetColumns[f.Name]; ok {
			return dateCondition(column(col), f.Operator, f.Value)
		}
	case models.KindEnum:
		return enumCondition(f)
	case models.KindArray:
		if f.Name == "tags" {
			return tagCondition(f)
		}
	case models.KindCustomField:
		return customFieldCondition(f)
	}

	return nil
}

func enumCondition(f models.Filter) sq.Sqlizer {
	switch f.Name {
	case "status":
		return statusCondition(f)
	case "custody":
		return relationCondition(custodyRelation{}, CustodySentinels, f.Operator, f.Value)
	case "category":
		return relationCondition(categoryRelation, CategorySentinels, f.Operator, f.Value)
	case "location":
		return relationCondition(locationRelation, LocationSentinels, f.Operator, f.Value)
	case "kit":
		return relationCondition(kitRelation, KitSentinels, f.Operator, f.Value)
	case "upcomingBookings":
		return upcomingBookingCondition(f)
	}
	return nil
}

// statusCondition compares the asset status. Custody sentinels never collide
// with status values, so they are answered by the custody relation.
func statusCondition(f models.Filter) sq.Sqlizer {
	custody := custodyRelation{}

	switch f.Operator {
	case models.OpIs, models.OpIsNot:
		status := strings.TrimSpace(f.Value.Text)
		if CustodySentinels.Contains(status) {
			return relationCondition(custody, CustodySentinels, f.Operator, f.Value)
		}
		if status == "" {
			return nil
		}
		if f.Operator == models.OpIs {
			return sq.Expr(`a.status = ?::public."AssetStatus"`, status)
		}
		return sq.Expr(`a.status != ?::public."AssetStatus"`, status)

	case models.OpContainsAny:
		var sentinels, statuses []string
		for _, v := range f.Value.List() {
			if CustodySentinels.Contains(v) {
				sentinels = append(sentinels, v)
			} else {
				statuses = append(statuses, v)
			}
		}

		var byStatus sq.Sqlizer
		if len(statuses) > 0 {
			byStatus = sq.Expr(`a.status = ANY(?::public."AssetStatus"[])`, statuses)
		}
		if len(sentinels) == 0 {
			return byStatus
		}

		byCustody := relationCondition(custody, CustodySentinels, models.OpContainsAny,
			models.StringValue(strings.Join(sentinels, ",")))
		if byCustody == nil {
			return nil
		}
		if byStatus == nil {
			return byCustody
		}
		return sq.Or{byStatus, byCustody}
	}

	return nil
}

func upcomingBookingCondition(f models.Filter) sq.Sqlizer {
	switch f.Operator {
	case models.OpIs, models.OpIsNot:
		id := strings.TrimSpace(f.Value.Text)
		if id == "" {
			return nil
		}
		cond := sq.Expr(fmt.Sprintf(upcomingBookingSQL, "bk.id = ?"), id)
		if f.Operator == models.OpIsNot {
			return sq.Expr("NOT ?", cond)
		}
		return cond
	case models.OpContainsAny:
		ids := f.Value.List()
		if len(ids) == 0 {
			return nil
		}
		return sq.Expr(fmt.Sprintf(upcomingBookingSQL, "bk.id = ANY(?::text[])"), ids)
	}
	return nil
}

// qrCondition matches against the QR codes linked to the asset
func qrCondition(f models.Filter) sq.Sqlizer {
	return linkedValueCondition(
		`SELECT 1 FROM public."Qr" q2 WHERE q2."assetId" = a.id AND ?`,
		nil, column("q2.id"), f.Operator, f.Value)
}

// barcodeCondition matches barcodes of one type. Barcodes are stored upper-cased.
func barcodeCondition(barcodeType string, f models.Filter) sq.Sqlizer {
	value := f.Value
	value.Text = strings.ToUpper(value.Text)
	return linkedValueCondition(
		`SELECT 1 FROM public."Barcode" b2 WHERE b2."assetId" = a.id AND b2.type::text = ? AND ?`,
		[]interface{}{barcodeType}, column("b2.value"), f.Operator, value)
}

// linkedValueCondition wraps a string comparison on a child row into EXISTS.
// isNot becomes NOT EXISTS of the equality so assets without rows match.
func linkedValueCondition(subquery string, args []interface{}, target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	matchOp := op
	if op == models.OpIsNot {
		matchOp = models.OpIs
	}
	match := stringCondition(target, matchOp, value)
	if match == nil {
		return nil
	}

	exists := sq.Expr("EXISTS ("+subquery+")", append(append([]interface{}{}, args...), match)...)
	if op == models.OpIsNot {
		return sq.Expr("NOT ?", exists)
	}
	return exists
}
