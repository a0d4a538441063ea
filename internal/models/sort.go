package models

import "strings"

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is one "field:direction[:customFieldType]" sort directive
type SortSpec struct {
	Field           string
	Direction       Direction
	CustomFieldType CustomFieldType
}

// ParseSortSpec parses a sort directive. The direction is lower-cased; an
// unknown direction is kept as-is so the ORDER BY compiler can report it.
func ParseSortSpec(s string) (SortSpec, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || parts[0] == "" {
		return SortSpec{}, false
	}
	spec := SortSpec{
		Field:     parts[0],
		Direction: Direction(strings.ToLower(parts[1])),
	}
	if len(parts) > 2 {
		if t, ok := ParseCustomFieldType(parts[2]); ok {
			spec.CustomFieldType = t
		}
	}
	return spec, true
}

// ParseSortSpecs parses a list of sort directives, skipping malformed entries
func ParseSortSpecs(raw []string) []SortSpec {
	specs := make([]SortSpec, 0, len(raw))
	for _, r := range raw {
		if spec, ok := ParseSortSpec(r); ok {
			specs = append(specs, spec)
		}
	}
	return specs
}

// SQL returns the direction as an SQL keyword, or "" if it is not asc/desc
func (d Direction) SQL() string {
	switch d {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	}
	return ""
}

// CustomFieldSortProjection is an auxiliary computed column that exists only
// so ORDER BY can reference a custom field value
type CustomFieldSortProjection struct {
	CustomFieldName string
	Alias           string
	CustomFieldType CustomFieldType
}
