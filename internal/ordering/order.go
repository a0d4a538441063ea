package ordering

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rebeliceyang/assetq/internal/jsonb"
	"github.com/rebeliceyang/assetq/internal/models"
)

// DefaultOrderBy is used when no sort directive resolves
const DefaultOrderBy = `"assetCreatedAt" DESC, "assetId" ASC`

// directFields maps logical sort names to the asset page aliases
var directFields = map[string]string{
	"id":              "assetId",
	"sequentialId":    "assetSequentialId",
	"name":            "assetTitle",
	"valuation":       "assetValue",
	"status":          "assetStatus",
	"description":     "assetDescription",
	"createdAt":       "assetCreatedAt",
	"updatedAt":       "assetUpdatedAt",
	"availableToBook": "assetAvailableToBook",
}

// naturalFields are direct fields holding free text
var naturalFields = map[string]bool{
	"name":        true,
	"description": true,
}

// relationFields map to names projected by the joins of the base query
var relationFields = map[string]string{
	"qrId":     `"qrId"`,
	"kit":      `"kitName"`,
	"category": `"categoryName"`,
	"location": `"locationName"`,
	"custody":  `custody->>'name'`,
}

var whitespace = regexp.MustCompile(`\s+`)

// Result is the compiled ORDER BY and the projections it depends on.
// OrderBy is squirrel SQL text: a ? inside an alias is escaped as ??.
type Result struct {
	OrderBy     string
	Projections Projections
}

// Clause returns the full ORDER BY clause
func (r Result) Clause() string {
	return "ORDER BY " + r.OrderBy
}

// Projections are the custom field values the ORDER BY references by alias
type Projections []models.CustomFieldSortProjection

// Columns returns one SELECT column per projection
func (p Projections) Columns() []sq.Sqlizer {
	cols := make([]sq.Sqlizer, 0, len(p))
	for _, proj := range p {
		cols = append(cols, projectionColumn(proj))
	}
	return cols
}

// Select returns the projections as a SELECT list fragment with a leading
// comma, or an empty fragment when there are none
func (p Projections) Select() sq.Sqlizer {
	if len(p) == 0 {
		return sq.Expr("")
	}
	placeholders := make([]string, len(p))
	args := make([]interface{}, len(p))
	for i, col := range p.Columns() {
		placeholders[i] = "?"
		args[i] = col
	}
	return sq.Expr(", "+strings.Join(placeholders, ", "), args...)
}

func projectionColumn(p models.CustomFieldSortProjection) sq.Sqlizer {
	value := jsonb.ValuePath(p.CustomFieldType).Text("acfv.value")
	switch p.CustomFieldType {
	case models.CustomFieldDate:
		value = "(" + value + ")::timestamp"
	case models.CustomFieldBoolean:
		value = "(" + value + ")::boolean"
	}
	return sq.Expr(fmt.Sprintf(`(SELECT %s FROM public."AssetCustomFieldValue" acfv `+
		`JOIN public."CustomField" cf ON acfv."customFieldId" = cf.id `+
		`WHERE acfv."assetId" = a.id AND cf.name = ?) AS %s`, value, aliasIdent(p.Alias)), p.CustomFieldName)
}

// Alias derives the projection alias of a custom field
func Alias(customFieldName string) string {
	return models.CustomFieldPrefix + whitespace.ReplaceAllString(customFieldName, "_")
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// aliasIdent quotes a projection alias for use inside squirrel SQL text,
// where a literal ? must be written as ??
func aliasIdent(alias string) string {
	return strings.ReplaceAll(quote(alias), "?", "??")
}

// Compile turns sort directives into ORDER BY terms. Directives that do
// not resolve are logged and skipped; later directives break ties of
// earlier ones. Custom field sorts are checked against columns when it is
// not nil, and take their type from it when the directive omits one.
func Compile(specs []models.SortSpec, columns models.Columns, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}

	var parts []string
	var projections Projections
	byName := make(map[string]int)
	aliases := make(map[string]bool)

	for _, spec := range specs {
		dir := spec.Direction.SQL()
		if dir == "" {
			logger.Warn("invalid sort direction", "field", spec.Field, "direction", spec.Direction)
			continue
		}

		switch {
		case spec.Field == "sequentialId":
			parts = append(parts, sequentialIDSort(quote(directFields[spec.Field]), dir))

		case directFields[spec.Field] != "":
			col := quote(directFields[spec.Field])
			if naturalFields[spec.Field] {
				parts = append(parts, NaturalSort(col, dir))
			} else {
				parts = append(parts, col+" "+dir)
			}

		case relationFields[spec.Field] != "":
			parts = append(parts, NaturalSort(relationFields[spec.Field], dir))

		case strings.HasPrefix(spec.Field, models.BarcodePrefix):
			if _, ok := models.BarcodeType(spec.Field); !ok {
				logger.Warn("unknown barcode sort field", "field", spec.Field)
				continue
			}
			parts = append(parts, NaturalSort(quote(spec.Field), dir))

		case strings.HasPrefix(spec.Field, models.CustomFieldPrefix):
			proj, ok := customFieldProjection(spec, columns)
			if !ok {
				logger.Warn("unknown custom field sort", "field", spec.Field)
				continue
			}
			if i, ok := byName[proj.CustomFieldName]; ok {
				proj = projections[i]
			} else {
				proj.Alias = uniqueAlias(proj.Alias, aliases)
				byName[proj.CustomFieldName] = len(projections)
				projections = append(projections, proj)
			}
			parts = append(parts, customFieldSort(proj, dir))

		default:
			logger.Warn("unknown sort field", "field", spec.Field)
		}
	}

	if len(parts) == 0 {
		return Result{OrderBy: DefaultOrderBy, Projections: projections}
	}

	return Result{OrderBy: strings.Join(parts, ", "), Projections: projections}
}

func customFieldProjection(spec models.SortSpec, columns models.Columns) (models.CustomFieldSortProjection, bool) {
	cfType := spec.CustomFieldType
	if columns != nil {
		col, ok := columns.Find(spec.Field)
		if !ok {
			return models.CustomFieldSortProjection{}, false
		}
		if cfType == "" && col.CustomFieldType != nil {
			cfType = *col.CustomFieldType
		}
	}
	if cfType == "" {
		cfType = models.CustomFieldText
	}

	name := strings.TrimPrefix(spec.Field, models.CustomFieldPrefix)
	if strings.TrimSpace(name) == "" {
		return models.CustomFieldSortProjection{}, false
	}

	return models.CustomFieldSortProjection{
		CustomFieldName: name,
		Alias:           Alias(name),
		CustomFieldType: cfType,
	}, true
}

// uniqueAlias suffixes alias with _2, _3, ... until it is not taken
func uniqueAlias(alias string, taken map[string]bool) string {
	candidate := alias
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", alias, n)
	}
	taken[candidate] = true
	return candidate
}

func customFieldSort(p models.CustomFieldSortProjection, dir string) string {
	alias := aliasIdent(p.Alias)
	switch p.CustomFieldType {
	case models.CustomFieldDate, models.CustomFieldBoolean:
		return alias + " " + dir
	case models.CustomFieldNumber, models.CustomFieldAmount:
		return alias + "::numeric " + dir
	default:
		return NaturalSort(alias, dir)
	}
}

// sequentialIDSort keeps NULLs last and orders PREFIX-123 ids by number
func sequentialIDSort(col, dir string) string {
	return fmt.Sprintf(`CASE WHEN %[1]s IS NULL THEN 1 ELSE 0 END ASC, `+
		`CASE WHEN %[1]s ~ '^[A-Z]+-[0-9]+$' THEN LPAD(SPLIT_PART(%[1]s, '-', 2), 12, '0') ELSE %[1]s END %[2]s, `+
		`%[1]s %[2]s`, col, dir)
}
