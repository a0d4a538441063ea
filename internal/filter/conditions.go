package filter

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
)

// EscapeLikePattern escapes special characters for LIKE pattern matching.
func EscapeLikePattern(s string) string {
	// Escape backslash first, then % and _
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func ilike(target sq.Sqlizer, term string) sq.Sqlizer {
	return sq.Expr("? ILIKE ?", target, "%"+EscapeLikePattern(term)+"%")
}

func column(name string) sq.Sqlizer {
	return sq.Expr(name)
}

// stringCondition covers string and text fields. target may be a plain
// column or a scalar subquery.
func stringCondition(target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	switch op {
	case models.OpIs:
		return sq.Expr("? = ?", target, value.Text)
	case models.OpIsNot:
		return sq.Expr("? != ?", target, value.Text)
	case models.OpContains:
		return ilike(target, value.Text)
	case models.OpMatchesAny:
		values := value.List()
		if len(values) == 0 {
			return nil
		}
		return sq.Expr("? = ANY(?::text[])", target, values)
	case models.OpContainsAny:
		return anyILike(target, value.List())
	}
	return nil
}

func anyILike(target sq.Sqlizer, terms []string) sq.Sqlizer {
	if len(terms) == 0 {
		return nil
	}
	or := make(sq.Or, 0, len(terms))
	for _, term := range terms {
		or = append(or, ilike(target, term))
	}
	return or
}

var numberComparisons = map[models.Operator]string{
	models.OpIs:          "=",
	models.OpIsNot:       "!=",
	models.OpGreaterThan: ">",
	models.OpLessThan:    "<",
	models.OpGreaterOrEq: ">=",
	models.OpLessOrEq:    "<=",
}

func numberCondition(target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	if op == models.OpBetween {
		if value.Shape != models.ShapeNumberRange {
			return nil
		}
		return sq.Expr("? BETWEEN ? AND ?", target, value.Range[0], value.Range[1])
	}
	cmp, ok := numberComparisons[op]
	if !ok || value.Shape != models.ShapeNumber {
		return nil
	}
	return sq.Expr("? "+cmp+" ?", target, value.Number)
}

func booleanCondition(target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	if op != models.OpIs || value.Shape != models.ShapeBool {
		return nil
	}
	return sq.Expr("? = ?", target, value.Bool)
}

// dateCondition compares on the date part only
func dateCondition(target sq.Sqlizer, op models.Operator, value models.Value) sq.Sqlizer {
	day := sq.Expr("?::date", target)

	switch op {
	case models.OpBetween:
		if value.Shape != models.ShapeDateRange || value.Dates[0] == "" || value.Dates[1] == "" {
			return nil
		}
		return sq.Expr("? BETWEEN ?::date AND ?::date", day, value.Dates[0], value.Dates[1])
	case models.OpInDates:
		dates := value.List()
		if len(dates) == 0 {
			return nil
		}
		return sq.Expr("? = ANY(?::date[])", day, dates)
	}

	cmp := map[models.Operator]string{
		models.OpIs:     "=",
		models.OpIsNot:  "!=",
		models.OpBefore: "<",
		models.OpAfter:  ">",
	}[op]
	if cmp == "" || value.Shape != models.ShapeString || strings.TrimSpace(value.Text) == "" {
		return nil
	}
	return sq.Expr("? "+cmp+" ?::date", day, strings.TrimSpace(value.Text))
}
