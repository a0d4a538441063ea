package filter

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	checkedOut = `a.status = 'CHECKED_OUT'`

	activeBookingSQL = `EXISTS (SELECT 1 FROM public."Booking" bk ` +
		`JOIN public."_AssetToBooking" atb2 ON bk.id = atb2."B" AND a.id = atb2."A" ` +
		`WHERE bk.status IN ('ONGOING', 'OVERDUE')`
)

// custodyRelation covers direct custody records and custody derived from an
// active booking. Booking custody only counts while the asset is checked out.
type custodyRelation struct{}

func bookingCustody(cond string, args ...interface{}) sq.Sqlizer {
	sql := activeBookingSQL + ")"
	if cond != "" {
		sql = activeBookingSQL + " AND " + cond + ")"
	}
	return sq.And{sq.Expr(checkedOut), sq.Expr(sql, args...)}
}

func (custodyRelation) present() sq.Sqlizer {
	return sq.Or{sq.Expr("cu.id IS NOT NULL"), bookingCustody("")}
}

func (custodyRelation) absent() sq.Sqlizer {
	return sq.And{sq.Expr("cu.id IS NULL"), sq.Expr("NOT ?", bookingCustody(""))}
}

func (custodyRelation) matches(ids []string) sq.Sqlizer {
	if len(ids) == 1 {
		id := ids[0]
		return sq.Or{
			sq.Expr(`EXISTS (SELECT 1 FROM public."Custody" cu2 WHERE cu2."assetId" = a.id AND cu2."teamMemberId" = ?)`, id),
			bookingCustody(`(bk."custodianTeamMemberId" = ? OR bk."custodianUserId" = `+
				`(SELECT tm2."userId" FROM public."TeamMember" tm2 WHERE tm2.id = ?))`, id, id),
		}
	}
	return sq.Or{
		sq.Expr(`EXISTS (SELECT 1 FROM public."Custody" cu2 WHERE cu2."assetId" = a.id AND cu2."teamMemberId" = ANY(?::text[]))`, ids),
		bookingCustody(`(bk."custodianTeamMemberId" = ANY(?::text[]) OR bk."custodianUserId" IN `+
			`(SELECT tm2."userId" FROM public."TeamMember" tm2 WHERE tm2.id = ANY(?::text[])))`, ids, ids),
	}
}

func (r custodyRelation) excludes(id string) sq.Sqlizer {
	return sq.Expr("NOT ?", r.matches([]string{id}))
}
