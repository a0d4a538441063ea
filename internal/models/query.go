package models

import (
	sq "github.com/Masterminds/squirrel"
)

// CompiledQuery is the engine output for one request. It is built fresh
// per request and not mutated afterwards.
type CompiledQuery struct {
	Where   sq.Sqlizer
	OrderBy string

	// AuxSelect is the projection list as a fragment with a leading comma,
	// for callers splicing it after their own SELECT list
	AuxSelect sq.Sqlizer
	// AuxColumns holds the same projections one column each
	AuxColumns []sq.Sqlizer
}

// WhereSQL renders the predicate with $n placeholders
func (q CompiledQuery) WhereSQL() (string, []interface{}, error) {
	if q.Where == nil {
		return "", nil, nil
	}
	sql, args, err := q.Where.ToSql()
	if err != nil {
		return "", nil, err
	}
	sql, err = sq.Dollar.ReplacePlaceholders(sql)
	if err != nil {
		return "", nil, err
	}
	return sql, args, nil
}
