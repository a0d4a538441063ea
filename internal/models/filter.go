package models

import "strings"

// Operator represents a filter comparison operator as it appears in filter strings
type Operator string

const (
	OpIs          Operator = "is"
	OpIsNot       Operator = "isNot"
	OpContains    Operator = "contains"
	OpMatchesAny  Operator = "matchesAny"
	OpContainsAny Operator = "containsAny"
	OpContainsAll Operator = "containsAll"
	OpExcludeAny  Operator = "excludeAny"
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
	OpGreaterOrEq Operator = "gte"
	OpLessOrEq    Operator = "lte"
	OpBetween     Operator = "between"
	OpBefore      Operator = "before"
	OpAfter       Operator = "after"
	OpInDates     Operator = "inDates"
)

var allOperators = []Operator{
	OpIs, OpIsNot, OpContains, OpMatchesAny, OpContainsAny, OpContainsAll, OpExcludeAny,
	OpGreaterThan, OpLessThan, OpGreaterOrEq, OpLessOrEq, OpBetween, OpBefore, OpAfter, OpInDates,
}

// Valid reports whether op belongs to the closed operator set
func (op Operator) Valid() bool {
	for _, o := range allOperators {
		if o == op {
			return true
		}
	}
	return false
}

// Kind is the semantic kind of a filterable field
type Kind string

const (
	KindString      Kind = "string"
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindBoolean     Kind = "boolean"
	KindDate        Kind = "date"
	KindEnum        Kind = "enum"
	KindArray       Kind = "array"
	KindCustomField Kind = "customField"
)

var (
	stringOperators = []Operator{OpIs, OpIsNot, OpContains, OpMatchesAny, OpContainsAny}
	numberOperators = []Operator{OpIs, OpIsNot, OpGreaterThan, OpLessThan, OpGreaterOrEq, OpLessOrEq, OpBetween}
	dateOperators   = []Operator{OpIs, OpIsNot, OpBefore, OpAfter, OpBetween, OpInDates}
	boolOperators   = []Operator{OpIs}
	enumOperators   = []Operator{OpIs, OpIsNot, OpContainsAny}
	arrayOperators  = []Operator{OpContains, OpContainsAll, OpContainsAny, OpExcludeAny}
)

// OperatorsFor returns the operators accepted for a kind. Custom fields
// depend on their value type, so cfType is only consulted for KindCustomField.
func OperatorsFor(kind Kind, cfType CustomFieldType) []Operator {
	switch kind {
	case KindString, KindText:
		return stringOperators
	case KindNumber:
		return numberOperators
	case KindBoolean:
		return boolOperators
	case KindDate:
		return dateOperators
	case KindEnum:
		return enumOperators
	case KindArray:
		return arrayOperators
	case KindCustomField:
		switch cfType {
		case CustomFieldText, CustomFieldMultilineText:
			return stringOperators
		case CustomFieldDate:
			return dateOperators
		case CustomFieldBoolean:
			return boolOperators
		case CustomFieldOption:
			return enumOperators
		case CustomFieldNumber, CustomFieldAmount:
			return numberOperators
		}
	}
	return nil
}

// ValueShape identifies which member of Value carries data
type ValueShape int

const (
	ShapeString ValueShape = iota
	ShapeNumber
	ShapeNumberRange
	ShapeBool
	ShapeDateRange
)

// Value is the typed value of a filter after coercion
type Value struct {
	Shape  ValueShape
	Text   string
	Number float64
	Range  [2]float64
	Bool   bool
	Dates  [2]string
}

// StringValue wraps a raw string (also used for comma lists and single dates)
func StringValue(s string) Value { return Value{Shape: ShapeString, Text: s} }

// NumberValue wraps a single number
func NumberValue(n float64) Value { return Value{Shape: ShapeNumber, Number: n} }

// NumberRangeValue wraps an inclusive numeric range
func NumberRangeValue(lo, hi float64) Value {
	return Value{Shape: ShapeNumberRange, Range: [2]float64{lo, hi}}
}

// BoolValue wraps a boolean
func BoolValue(b bool) Value { return Value{Shape: ShapeBool, Bool: b} }

// DateRangeValue wraps an inclusive date range
func DateRangeValue(start, end string) Value {
	return Value{Shape: ShapeDateRange, Dates: [2]string{start, end}}
}

// List splits the raw text on commas, trimming blanks and dropping empty items
func (v Value) List() []string {
	if v.Text == "" {
		return nil
	}
	parts := strings.Split(v.Text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Filter represents one active filter after parsing
type Filter struct {
	Name            string
	Kind            Kind
	Operator        Operator
	Value           Value
	CustomFieldType CustomFieldType // only set for KindCustomField
}

// Allowed reports whether the operator is valid for the filter's kind
func (f Filter) Allowed() bool {
	for _, op := range OperatorsFor(f.Kind, f.CustomFieldType) {
		if op == f.Operator {
			return true
		}
	}
	return false
}
