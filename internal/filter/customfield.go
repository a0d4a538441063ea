package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/jsonb"
	"github.com/rebeliceyang/assetq/internal/models"
)

// CustomFieldName strips the custom field prefix from a filter or column name
func CustomFieldName(name string) string {
	return strings.TrimPrefix(name, models.CustomFieldPrefix)
}

// customFieldValue is the correlated subquery reading one custom field of
// the current asset
func customFieldValue(name string, t models.CustomFieldType) sq.Sqlizer {
	return sq.Expr(fmt.Sprintf(`(SELECT %s FROM public."AssetCustomFieldValue" acfv `+
		`JOIN public."CustomField" cf ON acfv."customFieldId" = cf.id `+
		`WHERE acfv."assetId" = a.id AND cf.name = ?)`, jsonb.ValuePath(t).Text("acfv.value")), name)
}

func customFieldCondition(f models.Filter) sq.Sqlizer {
	value := customFieldValue(CustomFieldName(f.Name), f.CustomFieldType)

	switch f.CustomFieldType {
	case models.CustomFieldText, models.CustomFieldMultilineText:
		return stringCondition(value, f.Operator, f.Value)
	case models.CustomFieldDate:
		return dateCondition(value, f.Operator, f.Value)
	case models.CustomFieldBoolean:
		return booleanCondition(sq.Expr("?::boolean", value), f.Operator, f.Value)
	case models.CustomFieldNumber, models.CustomFieldAmount:
		return numberCondition(sq.Expr("?::float", value), f.Operator, f.Value)
	case models.CustomFieldOption:
		return optionCondition(value, f.Operator, f.Value)
	}
	return nil
}

// optionCondition accepts the option list as JSON or as a comma string
func optionCondition(target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	switch op {
	case models.OpIs, models.OpIsNot:
		return stringCondition(target, op, value)
	case models.OpContainsAny:
		options := jsonb.DecodeList(value.Text)
		if len(options) == 0 {
			return nil
		}
		return sq.Expr("? = ANY(?::text[])", target, options)
	}
	return nil
}
