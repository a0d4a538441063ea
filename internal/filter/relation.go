package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
)

// SelectorKind distinguishes concrete IDs from the sentinel literals
type SelectorKind int

const (
	Concrete SelectorKind = iota
	Present
	Absent
)

// Selector is one value of a relation filter after sentinel resolution
type Selector struct {
	Kind SelectorKind
	ID   string
}

// Sentinels holds the reserved literals of one relation. Present may be
// empty when the relation has no "has a value" literal.
type Sentinels struct {
	Present string
	Absent  string
}

var (
	LocationSentinels = Sentinels{Present: "in-location", Absent: "without-location"}
	KitSentinels      = Sentinels{Present: "in-kit", Absent: "without-kit"}
	CategorySentinels = Sentinels{Absent: "uncategorized"}
	CustodySentinels  = Sentinels{Present: "in-custody", Absent: "without-custody"}
)

// Select resolves a raw value against the sentinels
func (s Sentinels) Select(v string) Selector {
	v = strings.TrimSpace(v)
	switch {
	case s.Present != "" && v == s.Present:
		return Selector{Kind: Present}
	case s.Absent != "" && v == s.Absent:
		return Selector{Kind: Absent}
	default:
		return Selector{Kind: Concrete, ID: v}
	}
}

// Contains reports whether v is one of the sentinel literals
func (s Sentinels) Contains(v string) bool {
	return s.Select(v).Kind != Concrete
}

// relation builds the conditions one enum relation is made of
type relation interface {
	present() sq.Sqlizer
	absent() sq.Sqlizer
	matches(ids []string) sq.Sqlizer
	excludes(id string) sq.Sqlizer
}

// relationCondition applies the sentinel rules shared by every relation:
// a sentinel collapses to a presence check, a positive sentinel subsumes
// any IDs listed with it, both sentinels together match everything, and
// the negative sentinel is OR-ed with the listed IDs.
func relationCondition(rel relation, sentinels Sentinels, op models.Operator, value models.Value) sq.Sqlizer {
	switch op {
	case models.OpIs:
		sel := sentinels.Select(value.Text)
		switch sel.Kind {
		case Present:
			return rel.present()
		case Absent:
			return rel.absent()
		}
		if sel.ID == "" {
			return nil
		}
		return rel.matches([]string{sel.ID})

	case models.OpIsNot:
		sel := sentinels.Select(value.Text)
		switch sel.Kind {
		case Present:
			return rel.absent()
		case Absent:
			return rel.present()
		}
		if sel.ID == "" {
			return nil
		}
		return rel.excludes(sel.ID)

	case models.OpContainsAny:
		var hasPresent, hasAbsent bool
		var ids []string
		for _, v := range value.List() {
			sel := sentinels.Select(v)
			switch sel.Kind {
			case Present:
				hasPresent = true
			case Absent:
				hasAbsent = true
			default:
				ids = append(ids, sel.ID)
			}
		}

		switch {
		case hasPresent && hasAbsent:
			return nil
		case hasPresent:
			return rel.present()
		case hasAbsent && len(ids) > 0:
			return sq.Or{rel.absent(), rel.matches(ids)}
		case hasAbsent:
			return rel.absent()
		case len(ids) > 0:
			return rel.matches(ids)
		}
	}

	return nil
}

// fkRelation is a relation held by a nullable foreign key on the asset row.
// Concrete IDs are checked against the related table so dangling keys never match.
type fkRelation struct {
	fk    string
	table string
}

var (
	locationRelation = fkRelation{fk: `a."locationId"`, table: `public."Location"`}
	kitRelation      = fkRelation{fk: `a."kitId"`, table: `public."Kit"`}
	categoryRelation = fkRelation{fk: `a."categoryId"`, table: `public."Category"`}
)

func (r fkRelation) present() sq.Sqlizer {
	return sq.Expr(r.fk + " IS NOT NULL")
}

func (r fkRelation) absent() sq.Sqlizer {
	return sq.Expr(r.fk + " IS NULL")
}

func (r fkRelation) exists(cond string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE id = %s AND %s)", r.table, r.fk, cond)
}

func (r fkRelation) matches(ids []string) sq.Sqlizer {
	if len(ids) == 1 {
		return sq.Expr(r.exists("id = ?"), ids[0])
	}
	return sq.Expr(r.exists("id = ANY(?::text[])"), ids)
}

func (r fkRelation) excludes(id string) sq.Sqlizer {
	return sq.Expr("(NOT "+r.exists("id = ?")+" OR "+r.fk+" IS NULL)", id)
}
