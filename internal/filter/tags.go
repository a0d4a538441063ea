package filter

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
)

// UntaggedKey stands for "the asset has no tags" in tag filters
const UntaggedKey = "untagged"

const assetTagsSQL = `SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id`

func untagged() sq.Sqlizer { return sq.Expr("NOT EXISTS (" + assetTagsSQL + ")") }

func tagged() sq.Sqlizer { return sq.Expr("EXISTS (" + assetTagsSQL + ")") }

func anyTag(ids []string) sq.Sqlizer {
	return sq.Expr("EXISTS ("+assetTagsSQL+` AND att2."B" = ANY(?::text[]))`, ids)
}

func splitUntagged(values []string) (bool, []string) {
	var hasUntagged bool
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if v == UntaggedKey {
			hasUntagged = true
			continue
		}
		ids = append(ids, v)
	}
	return hasUntagged, ids
}

// tagCondition handles the tags array. excludeAny with the untagged token
// asserts the asset has at least one tag.
func tagCondition(f models.Filter) sq.Sqlizer {
	values := f.Value.List()
	hasUntagged, ids := splitUntagged(values)

	switch f.Operator {
	case models.OpContains:
		if hasUntagged {
			return untagged()
		}
		if len(ids) == 0 {
			return nil
		}
		return sq.Expr("EXISTS ("+assetTagsSQL+` AND att2."B" = ?)`, ids[0])

	case models.OpContainsAll:
		if hasUntagged {
			return untagged()
		}
		if len(ids) == 0 {
			return nil
		}
		return sq.Expr(`NOT EXISTS (SELECT unnest(?::text[]) EXCEPT `+
			`SELECT att2."B" FROM public."_AssetToTag" att2 WHERE att2."A" = a.id)`, ids)

	case models.OpContainsAny:
		switch {
		case hasUntagged && len(ids) > 0:
			return sq.Or{untagged(), anyTag(ids)}
		case hasUntagged:
			return untagged()
		case len(ids) > 0:
			return anyTag(ids)
		}

	case models.OpExcludeAny:
		if hasUntagged {
			return tagged()
		}
		if len(ids) == 0 {
			return nil
		}
		return sq.Expr("NOT ?", anyTag(ids))
	}

	return nil
}
