package bulk

import (
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/filter"
	"github.com/rebeliceyang/assetq/internal/models"
)

// allStatuses is the status value meaning "no status filter"
const allStatuses = "ALL"

// SimpleWhere builds the predicate of the simple asset index. It reads
// only the s, status, category, tag, location and teamMember parameters;
// values written in the advanced operator:value form are skipped so a
// stale advanced link widens the result instead of failing.
func SimpleWhere(organizationID, filters string) sq.And {
	where := sq.And{sq.Expr(`a."organizationId" = ?`, organizationID)}

	raw := strings.TrimPrefix(strings.TrimSpace(filters), "?")
	if raw == "" {
		return where
	}
	params, _ := url.ParseQuery(raw)

	if search := strings.ToLower(strings.TrimSpace(params.Get("s"))); search != "" && !advanced(search) {
		where = append(where, sq.Expr("a.title ILIKE ?", "%"+filter.EscapeLikePattern(search)+"%"))
	}

	if status := strings.TrimSpace(params.Get("status")); status != "" && status != allStatuses && !advanced(status) {
		where = append(where, sq.Expr(`a.status = ?::public."AssetStatus"`, status))
	}

	if ids, without := simpleValues(params["category"], filter.CategorySentinels.Absent); len(ids) > 0 || without {
		where = append(where, nullableIn(`a."categoryId"`, ids, without))
	}

	if ids, untagged := simpleValues(params["tag"], filter.UntaggedKey); len(ids) > 0 || untagged {
		where = append(where, tagCondition(ids, untagged))
	}

	if ids, without := simpleValues(params["location"], filter.LocationSentinels.Absent); len(ids) > 0 || without {
		where = append(where, nullableIn(`a."locationId"`, ids, without))
	}

	if ids, without := simpleValues(params["teamMember"], filter.CustodySentinels.Absent); len(ids) > 0 || without {
		where = append(where, custodianCondition(ids, without))
	}

	return where
}

// advanced reports whether v is written as operator:value
func advanced(v string) bool {
	op, _, found := strings.Cut(v, ":")
	return found && models.Operator(op).Valid()
}

// simpleValues drops blanks and advanced-form values and separates the
// sentinel from the IDs
func simpleValues(values []string, sentinel string) (ids []string, hasSentinel bool) {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			switch {
			case part == "" || advanced(part):
			case part == sentinel:
				hasSentinel = true
			default:
				ids = append(ids, part)
			}
		}
	}
	return ids, hasSentinel
}

func nullableIn(col string, ids []string, orNull bool) sq.Sqlizer {
	if len(ids) == 0 {
		return sq.Expr(col + " IS NULL")
	}
	in := sq.Expr(col+" = ANY(?::text[])", ids)
	if !orNull {
		return in
	}
	return sq.Or{in, sq.Expr(col + " IS NULL")}
}

func tagCondition(ids []string, untagged bool) sq.Sqlizer {
	none := sq.Expr(`NOT EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id)`)
	if len(ids) == 0 {
		return none
	}
	some := sq.Expr(`EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id AND att2."B" = ANY(?::text[]))`, ids)
	if !untagged {
		return some
	}
	return sq.Or{some, none}
}

// custodianCondition matches direct custody and any booking naming the
// custodian, as a team member or as a user
func custodianCondition(ids []string, withoutCustody bool) sq.Sqlizer {
	var or sq.Or
	if len(ids) > 0 {
		or = append(or,
			sq.Expr(`cu."teamMemberId" = ANY(?::text[])`, ids),
			sq.Expr(`tm."userId" = ANY(?::text[])`, ids),
			sq.Expr(`EXISTS (SELECT 1 FROM public."Booking" bk JOIN public."_AssetToBooking" atb2 ON bk.id = atb2."B" `+
				`WHERE atb2."A" = a.id AND (bk."custodianTeamMemberId" = ANY(?::text[]) OR bk."custodianUserId" = ANY(?::text[])))`,
				ids, ids),
		)
	}
	if withoutCustody {
		or = append(or, sq.Expr("cu.id IS NULL"))
	}
	return or
}
