package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rebeliceyang/assetq/internal/models"
)

// reservedKeys are query parameters that travel with the filter string but
// are not filters
var reservedKeys = map[string]bool{
	"s":              true,
	"page":           true,
	"per_page":       true,
	"sortBy":         true,
	"orderBy":        true,
	"orderDirection": true,
	"scanId":         true,
	"redirectTo":     true,
	"getAll":         true,
	"index":          true,
}

type field struct {
	kind   models.Kind
	column string
}

// fixedFields maps filter keys to their kind and the name the compiler
// resolves against the asset schema
var fixedFields = map[string]field{
	"id":               {models.KindString, "id"},
	"name":             {models.KindString, "title"},
	"title":            {models.KindString, "title"},
	"sequentialId":     {models.KindString, "sequentialId"},
	"qrId":             {models.KindString, "qrId"},
	"description":      {models.KindText, "description"},
	"valuation":        {models.KindNumber, "value"},
	"availableToBook":  {models.KindBoolean, "availableToBook"},
	"createdAt":        {models.KindDate, "createdAt"},
	"updatedAt":        {models.KindDate, "updatedAt"},
	"status":           {models.KindEnum, "status"},
	"category":         {models.KindEnum, "category"},
	"location":         {models.KindEnum, "location"},
	"kit":              {models.KindEnum, "kit"},
	"custody":          {models.KindEnum, "custody"},
	"upcomingBookings": {models.KindEnum, "upcomingBookings"},
	"tags":             {models.KindArray, "tags"},
}

// IsReservedKey reports whether key is a non-filter query parameter
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Parse turns a "key=operator:value&..." filter string into typed filters.
// Keys that do not resolve are dropped. The result is sorted by key and
// then by raw value so the same string always compiles the same way.
func Parse(raw string, columns models.Columns) []models.Filter {
	params := parseQuery(raw)

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var filters []models.Filter
	for _, key := range keys {
		if reservedKeys[key] {
			continue
		}

		values := append([]string(nil), params[key]...)
		sort.Strings(values)

		for _, v := range values {
			f, ok := parseOne(key, v, columns)
			if !ok {
				continue
			}
			filters = append(filters, f)
		}
	}

	return filters
}

// ParseSearch returns the trimmed free-text search term of a filter string
func ParseSearch(raw string) string {
	return strings.TrimSpace(parseQuery(raw).Get("s"))
}

// ParseSorts returns the sort directives carried by a filter string
func ParseSorts(raw string) []models.SortSpec {
	return models.ParseSortSpecs(parseQuery(raw)["sortBy"])
}

func parseQuery(raw string) url.Values {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	// ParseQuery keeps every pair it could decode and reports the first bad one
	params, _ := url.ParseQuery(raw)
	return params
}

func parseOne(key, raw string, columns models.Columns) (models.Filter, bool) {
	op, value := splitOperator(raw)

	if strings.HasPrefix(key, models.CustomFieldPrefix) {
		col, ok := columns.Find(key)
		if !ok || col.CustomFieldType == nil {
			return models.Filter{}, false
		}
		cfType := *col.CustomFieldType
		return models.Filter{
			Name:            key,
			Kind:            models.KindCustomField,
			Operator:        op,
			Value:           coerceCustomField(cfType, op, value),
			CustomFieldType: cfType,
		}, true
	}

	if _, ok := models.BarcodeType(key); ok {
		return models.Filter{
			Name:     key,
			Kind:     models.KindString,
			Operator: op,
			Value:    models.StringValue(value),
		}, true
	}

	fd, ok := fixedFields[key]
	if !ok {
		return models.Filter{}, false
	}

	return models.Filter{
		Name:     fd.column,
		Kind:     fd.kind,
		Operator: op,
		Value:    coerce(fd.kind, op, value),
	}, true
}

// splitOperator splits on the first colon only, so ISO timestamps survive
func splitOperator(raw string) (models.Operator, string) {
	op, value, found := strings.Cut(raw, ":")
	if !found {
		return models.Operator(strings.TrimSpace(raw)), ""
	}
	return models.Operator(strings.TrimSpace(op)), value
}

func coerce(kind models.Kind, op models.Operator, value string) models.Value {
	switch kind {
	case models.KindNumber:
		return coerceNumber(op, value)
	case models.KindBoolean:
		return models.BoolValue(strings.EqualFold(strings.TrimSpace(value), "true"))
	case models.KindDate:
		return coerceDate(op, value)
	default:
		return models.StringValue(value)
	}
}

func coerceCustomField(t models.CustomFieldType, op models.Operator, value string) models.Value {
	switch t {
	case models.CustomFieldBoolean:
		return coerce(models.KindBoolean, op, value)
	case models.CustomFieldDate:
		return coerce(models.KindDate, op, value)
	case models.CustomFieldNumber, models.CustomFieldAmount:
		return coerce(models.KindNumber, op, value)
	default:
		return models.StringValue(value)
	}
}

func coerceNumber(op models.Operator, value string) models.Value {
	if op == models.OpBetween {
		lo, hi, _ := strings.Cut(value, ",")
		return models.NumberRangeValue(parseNumber(lo), parseNumber(hi))
	}
	return models.NumberValue(parseNumber(value))
}

func coerceDate(op models.Operator, value string) models.Value {
	if op == models.OpBetween {
		start, end, _ := strings.Cut(value, ",")
		return models.DateRangeValue(strings.TrimSpace(start), strings.TrimSpace(end))
	}
	return models.StringValue(strings.TrimSpace(value))
}

// parseNumber is best effort: anything unparsable is 0
func parseNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}
