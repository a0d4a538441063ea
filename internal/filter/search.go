package filter

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/jsonb"
)

// searchColumns are matched by substring against every search term. The
// relation aliases come from BaseFrom.
var searchColumns = []string{
	"a.title",
	"a.description",
	`a."sequentialId"`,
	"c.name",
	"l.name",
	"t.name",
	"tm.name",
	`u."firstName"`,
	`u."lastName"`,
}

// SearchTerms splits a search string on commas, dropping blanks
func SearchTerms(search string) []string {
	var terms []string
	for _, term := range strings.Split(strings.TrimSpace(search), ",") {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// searchCondition ORs one substring group per term. Nil when there is
// nothing to search for.
func searchCondition(search string) sq.Sqlizer {
	terms := SearchTerms(search)
	if len(terms) == 0 {
		return nil
	}

	groups := make(sq.Or, 0, len(terms))
	for _, term := range terms {
		groups = append(groups, searchTermCondition(term))
	}
	return groups
}

func searchTermCondition(term string) sq.Sqlizer {
	pattern := "%" + EscapeLikePattern(term) + "%"

	or := make(sq.Or, 0, len(searchColumns)+3)
	for _, col := range searchColumns {
		or = append(or, sq.Expr(col+" ILIKE ?", pattern))
	}

	or = append(or,
		sq.Expr(`EXISTS (SELECT 1 FROM public."Qr" q2 WHERE q2."assetId" = a.id AND q2.id ILIKE ?)`, pattern),
		sq.Expr(`EXISTS (SELECT 1 FROM public."Barcode" b2 WHERE b2."assetId" = a.id AND b2.value ILIKE ?)`, pattern),
	)

	paths := make(sq.Or, 0, len(jsonb.SearchPaths))
	for _, p := range jsonb.SearchPaths {
		paths = append(paths, sq.Expr(p.Text("acfv2.value")+" ILIKE ?", pattern))
	}
	or = append(or, sq.Expr(`EXISTS (SELECT 1 FROM public."AssetCustomFieldValue" acfv2 WHERE acfv2."assetId" = a.id AND ?)`, paths))

	return or
}
