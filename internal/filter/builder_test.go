package filter

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const activeBookingExists = `EXISTS (SELECT 1 FROM public."Booking" bk ` +
	`JOIN public."_AssetToBooking" atb2 ON bk.id = atb2."B" AND a.id = atb2."A" ` +
	`WHERE bk.status IN ('ONGOING', 'OVERDUE'))`

func render(t *testing.T, s sq.Sqlizer) (string, []interface{}) {
	t.Helper()
	sql, args, err := s.ToSql()
	require.NoError(t, err)
	return sql, args
}

// compileOne compiles a single filter and returns the condition it appended
func compileOne(t *testing.T, f models.Filter) (string, []interface{}, bool) {
	t.Helper()
	where := Compile("org-1", nil, []models.Filter{f})
	if len(where) == 1 {
		return "", nil, false
	}
	require.Len(t, where, 2)
	sql, args := render(t, where[1])
	return sql, args, true
}

func enumFilter(name string, op models.Operator, value string) models.Filter {
	return models.Filter{Name: name, Kind: models.KindEnum, Operator: op, Value: models.StringValue(value)}
}

func TestOrganizationScopeIsFirst(t *testing.T) {
	search := "drill"
	cases := [][]models.Filter{
		nil,
		{enumFilter("location", models.OpIs, "loc-1")},
		{enumFilter("custody", models.OpContainsAny, "in-custody,without-custody")},
		{{Name: "tags", Kind: models.KindArray, Operator: models.OpExcludeAny, Value: models.StringValue("untagged")}},
	}

	for _, filters := range cases {
		where := Compile("org-1", &search, filters, WithAvailableToBookOnly(), WithAssetIDs([]string{"a1"}))
		require.NotEmpty(t, where)

		sql, args := render(t, where[0])
		assert.Equal(t, `a."organizationId" = ?`, sql)
		assert.Equal(t, []interface{}{"org-1"}, args)

		full, fullArgs := render(t, where)
		assert.Contains(t, full, `(a."organizationId" = ? AND a."availableToBook" = true AND a.id = ANY(?::text[])`)
		assert.Equal(t, "org-1", fullArgs[0])
	}
}

func TestCompileWithoutFilters(t *testing.T) {
	sql, args := render(t, Compile("org-1", nil, nil))
	assert.Equal(t, `(a."organizationId" = ?)`, sql)
	assert.Equal(t, []interface{}{"org-1"}, args)

	blank := " , "
	assert.Len(t, Compile("org-1", &blank, nil), 1)
}

func TestSentinelSubsumption(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		sentinel string
	}{
		{"custody", "custody", "in-custody"},
		{"location", "location", "in-location"},
		{"kit", "kit", "in-kit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withID, withIDArgs, ok := compileOne(t, enumFilter(tt.field, models.OpContainsAny, tt.sentinel+",specific-id"))
			require.True(t, ok)
			alone, aloneArgs, ok := compileOne(t, enumFilter(tt.field, models.OpContainsAny, tt.sentinel))
			require.True(t, ok)

			assert.Equal(t, alone, withID)
			assert.Equal(t, aloneArgs, withIDArgs)
			assert.NotContains(t, withIDArgs, "specific-id")
		})
	}
}

func TestSentinelTotality(t *testing.T) {
	base, baseArgs := render(t, Compile("org-1", nil, nil))

	for _, f := range []models.Filter{
		enumFilter("custody", models.OpContainsAny, "in-custody,without-custody"),
		enumFilter("location", models.OpContainsAny, "without-location,loc-1,in-location"),
		enumFilter("kit", models.OpContainsAny, "in-kit,without-kit"),
		enumFilter("status", models.OpContainsAny, "in-custody,without-custody"),
	} {
		sql, args := render(t, Compile("org-1", nil, []models.Filter{f}))
		assert.Equal(t, base, sql, f.Name)
		assert.Equal(t, baseArgs, args, f.Name)
	}
}

func TestNegativeSentinelWithIDs(t *testing.T) {
	sql, args, ok := compileOne(t, enumFilter("location", models.OpContainsAny, "without-location, loc-1,loc-2"))
	require.True(t, ok)
	assert.Equal(t, `(a."locationId" IS NULL OR EXISTS (SELECT 1 FROM public."Location" `+
		`WHERE id = a."locationId" AND id = ANY(?::text[])))`, sql)
	assert.Equal(t, []interface{}{[]string{"loc-1", "loc-2"}}, args)

	sql, args, ok = compileOne(t, enumFilter("category", models.OpContainsAny, "uncategorized,cat-1"))
	require.True(t, ok)
	assert.Equal(t, `(a."categoryId" IS NULL OR EXISTS (SELECT 1 FROM public."Category" `+
		`WHERE id = a."categoryId" AND id = ?))`, sql)
	assert.Equal(t, []interface{}{"cat-1"}, args)
}

func TestRelationIsAndIsNot(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "positive sentinel",
			filter:  enumFilter("kit", models.OpIs, "in-kit"),
			wantSQL: `a."kitId" IS NOT NULL`,
		},
		{
			name:    "negated negative sentinel",
			filter:  enumFilter("location", models.OpIsNot, "without-location"),
			wantSQL: `a."locationId" IS NOT NULL`,
		},
		{
			name:    "uncategorized",
			filter:  enumFilter("category", models.OpIs, "uncategorized"),
			wantSQL: `a."categoryId" IS NULL`,
		},
		{
			name:     "concrete id checks the related table",
			filter:   enumFilter("kit", models.OpIs, "kit-1"),
			wantSQL:  `EXISTS (SELECT 1 FROM public."Kit" WHERE id = a."kitId" AND id = ?)`,
			wantArgs: []interface{}{"kit-1"},
		},
		{
			name:     "excluded id keeps assets without the relation",
			filter:   enumFilter("category", models.OpIsNot, "cat-1"),
			wantSQL:  `(NOT EXISTS (SELECT 1 FROM public."Category" WHERE id = a."categoryId" AND id = ?) OR a."categoryId" IS NULL)`,
			wantArgs: []interface{}{"cat-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, ok := compileOne(t, tt.filter)
			require.True(t, ok)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestCustodyIsConcreteCustodianIsBookingGated(t *testing.T) {
	sql, args, ok := compileOne(t, enumFilter("custody", models.OpIs, "tm-1"))
	require.True(t, ok)

	assert.Contains(t, sql, `EXISTS (SELECT 1 FROM public."Custody" cu2 WHERE cu2."assetId" = a.id AND cu2."teamMemberId" = ?)`)
	assert.Contains(t, sql, `(a.status = 'CHECKED_OUT' AND EXISTS (SELECT 1 FROM public."Booking" bk`)
	assert.Contains(t, sql, `WHERE bk.status IN ('ONGOING', 'OVERDUE') AND (bk."custodianTeamMemberId" = ?`)
	assert.Contains(t, sql, `bk."custodianUserId" = (SELECT tm2."userId" FROM public."TeamMember" tm2 WHERE tm2.id = ?)`)
	assert.Equal(t, []interface{}{"tm-1", "tm-1", "tm-1"}, args)
}

func TestCustodySentinels(t *testing.T) {
	present := `(cu.id IS NOT NULL OR (a.status = 'CHECKED_OUT' AND ` + activeBookingExists + `))`
	absent := `(cu.id IS NULL AND NOT (a.status = 'CHECKED_OUT' AND ` + activeBookingExists + `))`

	sql, _, ok := compileOne(t, enumFilter("custody", models.OpIs, "in-custody"))
	require.True(t, ok)
	assert.Equal(t, present, sql)

	sql, _, ok = compileOne(t, enumFilter("custody", models.OpIsNot, "in-custody"))
	require.True(t, ok)
	assert.Equal(t, absent, sql)

	// custody sentinels on the status field are answered by custody
	sql, args, ok := compileOne(t, enumFilter("status", models.OpIsNot, "without-custody"))
	require.True(t, ok)
	assert.Equal(t, present, sql)
	assert.Contains(t, sql, "cu.id IS NOT NULL")
	assert.NotContains(t, sql, "AssetStatus")
	assert.Empty(t, args)
}

func TestCustodyContainsAnyWithoutCustodyAndIDs(t *testing.T) {
	sql, args, ok := compileOne(t, enumFilter("custody", models.OpContainsAny, "without-custody,tm-1,tm-2"))
	require.True(t, ok)
	assert.Contains(t, sql, `((cu.id IS NULL AND NOT (a.status = 'CHECKED_OUT'`)
	assert.Contains(t, sql, `cu2."teamMemberId" = ANY(?::text[])`)
	assert.Contains(t, sql, `bk."custodianUserId" IN (SELECT tm2."userId"`)
	ids := []string{"tm-1", "tm-2"}
	assert.Equal(t, []interface{}{ids, ids, ids}, args)
}

func TestStatus(t *testing.T) {
	sql, args, ok := compileOne(t, enumFilter("status", models.OpIs, " AVAILABLE "))
	require.True(t, ok)
	assert.Equal(t, `a.status = ?::public."AssetStatus"`, sql)
	assert.Equal(t, []interface{}{"AVAILABLE"}, args)

	sql, args, ok = compileOne(t, enumFilter("status", models.OpContainsAny, "AVAILABLE,IN_CUSTODY"))
	require.True(t, ok)
	assert.Equal(t, `a.status = ANY(?::public."AssetStatus"[])`, sql)
	assert.Equal(t, []interface{}{[]string{"AVAILABLE", "IN_CUSTODY"}}, args)

	sql, _, ok = compileOne(t, enumFilter("status", models.OpContainsAny, "AVAILABLE,in-custody"))
	require.True(t, ok)
	assert.Contains(t, sql, `(a.status = ANY(?::public."AssetStatus"[]) OR (cu.id IS NOT NULL`)
}

func TestTags(t *testing.T) {
	tags := func(op models.Operator, v string) models.Filter {
		return models.Filter{Name: "tags", Kind: models.KindArray, Operator: op, Value: models.StringValue(v)}
	}

	sql, args, ok := compileOne(t, tags(models.OpExcludeAny, "untagged"))
	require.True(t, ok)
	assert.Equal(t, `EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id)`, sql)
	assert.Empty(t, args)

	sql, _, ok = compileOne(t, tags(models.OpContains, "untagged"))
	require.True(t, ok)
	assert.Equal(t, `NOT EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id)`, sql)

	sql, args, ok = compileOne(t, tags(models.OpContainsAll, "t1,t2"))
	require.True(t, ok)
	assert.Equal(t, `NOT EXISTS (SELECT unnest(?::text[]) EXCEPT SELECT att2."B" FROM public."_AssetToTag" att2 WHERE att2."A" = a.id)`, sql)
	assert.Equal(t, []interface{}{[]string{"t1", "t2"}}, args)

	sql, args, ok = compileOne(t, tags(models.OpContainsAny, "untagged,t1"))
	require.True(t, ok)
	assert.Equal(t, `(NOT EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id) OR `+
		`EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id AND att2."B" = ANY(?::text[])))`, sql)
	assert.Equal(t, []interface{}{[]string{"t1"}}, args)

	sql, _, ok = compileOne(t, tags(models.OpExcludeAny, "t1"))
	require.True(t, ok)
	assert.Equal(t, `NOT EXISTS (SELECT 1 FROM public."_AssetToTag" att2 WHERE att2."A" = a.id AND att2."B" = ANY(?::text[]))`, sql)

	_, _, ok = compileOne(t, tags(models.OpContainsAny, " , "))
	assert.False(t, ok)
}

func TestScalarFields(t *testing.T) {
	tests := []struct {
		name     string
		filter   models.Filter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "string is",
			filter:   models.Filter{Name: "title", Kind: models.KindString, Operator: models.OpIs, Value: models.StringValue("Drill")},
			wantSQL:  `a."title" = ?`,
			wantArgs: []interface{}{"Drill"},
		},
		{
			name:     "text contains escapes like metacharacters",
			filter:   models.Filter{Name: "description", Kind: models.KindText, Operator: models.OpContains, Value: models.StringValue("50%_off")},
			wantSQL:  `a."description" ILIKE ?`,
			wantArgs: []interface{}{`%50\%\_off%`},
		},
		{
			name:     "string matches any",
			filter:   models.Filter{Name: "sequentialId", Kind: models.KindString, Operator: models.OpMatchesAny, Value: models.StringValue("SAM-1, SAM-2")},
			wantSQL:  `a."sequentialId" = ANY(?::text[])`,
			wantArgs: []interface{}{[]string{"SAM-1", "SAM-2"}},
		},
		{
			name:     "string contains any",
			filter:   models.Filter{Name: "title", Kind: models.KindString, Operator: models.OpContainsAny, Value: models.StringValue("a,b")},
			wantSQL:  `(a."title" ILIKE ? OR a."title" ILIKE ?)`,
			wantArgs: []interface{}{"%a%", "%b%"},
		},
		{
			name:     "number between",
			filter:   models.Filter{Name: "value", Kind: models.KindNumber, Operator: models.OpBetween, Value: models.NumberRangeValue(10, 20)},
			wantSQL:  `a."value" BETWEEN ? AND ?`,
			wantArgs: []interface{}{10.0, 20.0},
		},
		{
			name:     "number lte",
			filter:   models.Filter{Name: "value", Kind: models.KindNumber, Operator: models.OpLessOrEq, Value: models.NumberValue(5)},
			wantSQL:  `a."value" <= ?`,
			wantArgs: []interface{}{5.0},
		},
		{
			name:     "boolean",
			filter:   models.Filter{Name: "availableToBook", Kind: models.KindBoolean, Operator: models.OpIs, Value: models.BoolValue(true)},
			wantSQL:  `a."availableToBook" = ?`,
			wantArgs: []interface{}{true},
		},
		{
			name:     "date is truncated",
			filter:   models.Filter{Name: "createdAt", Kind: models.KindDate, Operator: models.OpIs, Value: models.StringValue("2024-03-01")},
			wantSQL:  `a."createdAt"::date = ?::date`,
			wantArgs: []interface{}{"2024-03-01"},
		},
		{
			name:     "date between is inclusive",
			filter:   models.Filter{Name: "updatedAt", Kind: models.KindDate, Operator: models.OpBetween, Value: models.DateRangeValue("2024-01-01", "2024-01-31")},
			wantSQL:  `a."updatedAt"::date BETWEEN ?::date AND ?::date`,
			wantArgs: []interface{}{"2024-01-01", "2024-01-31"},
		},
		{
			name:     "date in set",
			filter:   models.Filter{Name: "createdAt", Kind: models.KindDate, Operator: models.OpInDates, Value: models.StringValue("2024-01-01,2024-01-05")},
			wantSQL:  `a."createdAt"::date = ANY(?::date[])`,
			wantArgs: []interface{}{[]string{"2024-01-01", "2024-01-05"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, ok := compileOne(t, tt.filter)
			require.True(t, ok)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFailOpen(t *testing.T) {
	noops := []models.Filter{
		{Name: "value", Kind: models.KindNumber, Operator: models.OpContains, Value: models.StringValue("x")},
		{Name: "title", Kind: models.KindString, Operator: models.OpBetween, Value: models.StringValue("a,b")},
		{Name: "availableToBook", Kind: models.KindBoolean, Operator: models.OpIsNot, Value: models.BoolValue(true)},
		{Name: "createdAt", Kind: models.KindDate, Operator: models.OpBetween, Value: models.DateRangeValue("2024-01-01", "")},
		{Name: "title", Kind: models.KindString, Operator: "startsWith", Value: models.StringValue("x")},
		{Name: "password", Kind: models.KindString, Operator: models.OpIs, Value: models.StringValue("x")},
		enumFilter("location", models.OpIs, ""),
		enumFilter("kit", models.OpContainsAny, ""),
	}

	for _, f := range noops {
		where := Compile("org-1", nil, []models.Filter{f})
		assert.Len(t, where, 1, "%s %s", f.Name, f.Operator)
	}
}

func TestCustomFields(t *testing.T) {
	cf := func(name string, typ models.CustomFieldType, op models.Operator, v models.Value) models.Filter {
		return models.Filter{Name: name, Kind: models.KindCustomField, Operator: op, Value: v, CustomFieldType: typ}
	}
	subquery := func(key string) string {
		return `(SELECT acfv.value->>'` + key + `' FROM public."AssetCustomFieldValue" acfv ` +
			`JOIN public."CustomField" cf ON acfv."customFieldId" = cf.id ` +
			`WHERE acfv."assetId" = a.id AND cf.name = ?)`
	}

	sql, args, ok := compileOne(t, cf("cf_Serial Number", models.CustomFieldText, models.OpIs, models.StringValue("SN-1")))
	require.True(t, ok)
	assert.Equal(t, subquery("raw")+" = ?", sql)
	assert.Equal(t, []interface{}{"Serial Number", "SN-1"}, args)

	sql, args, ok = compileOne(t, cf("cf_Price", models.CustomFieldAmount, models.OpGreaterThan, models.NumberValue(100)))
	require.True(t, ok)
	assert.Equal(t, subquery("raw")+"::float > ?", sql)
	assert.Equal(t, []interface{}{"Price", 100.0}, args)

	sql, _, ok = compileOne(t, cf("cf_Purchased", models.CustomFieldDate, models.OpBefore, models.StringValue("2024-01-01")))
	require.True(t, ok)
	assert.Equal(t, subquery("valueDate")+"::date < ?::date", sql)

	sql, args, ok = compileOne(t, cf("cf_Warranty", models.CustomFieldBoolean, models.OpIs, models.BoolValue(false)))
	require.True(t, ok)
	assert.Equal(t, subquery("valueBoolean")+"::boolean = ?", sql)
	assert.Equal(t, []interface{}{"Warranty", false}, args)

	for _, raw := range []string{`["Red","Blue"]`, "Red, Blue"} {
		sql, args, ok = compileOne(t, cf("cf_Color", models.CustomFieldOption, models.OpContainsAny, models.StringValue(raw)))
		require.True(t, ok)
		assert.Equal(t, subquery("valueOption")+" = ANY(?::text[])", sql)
		assert.Equal(t, []interface{}{"Color", []string{"Red", "Blue"}}, args)
	}

	_, _, ok = compileOne(t, cf("cf_Color", models.CustomFieldOption, models.OpContains, models.StringValue("Red")))
	assert.False(t, ok)
}

func TestLinkedValues(t *testing.T) {
	sql, args, ok := compileOne(t, models.Filter{Name: "qrId", Kind: models.KindString, Operator: models.OpIsNot, Value: models.StringValue("qr-1")})
	require.True(t, ok)
	assert.Equal(t, `NOT EXISTS (SELECT 1 FROM public."Qr" q2 WHERE q2."assetId" = a.id AND q2.id = ?)`, sql)
	assert.Equal(t, []interface{}{"qr-1"}, args)

	sql, args, ok = compileOne(t, models.Filter{Name: "barcode_Code128", Kind: models.KindString, Operator: models.OpMatchesAny, Value: models.StringValue("abc,def")})
	require.True(t, ok)
	assert.Equal(t, `EXISTS (SELECT 1 FROM public."Barcode" b2 WHERE b2."assetId" = a.id AND b2.type::text = ? AND b2.value = ANY(?::text[]))`, sql)
	assert.Equal(t, []interface{}{"Code128", []string{"ABC", "DEF"}}, args)

	sql, args, ok = compileOne(t, enumFilter("upcomingBookings", models.OpIs, "bk-1"))
	require.True(t, ok)
	assert.Contains(t, sql, `bk.id = ? AND bk.status IN ('DRAFT', 'RESERVED', 'ONGOING', 'OVERDUE')`)
	assert.Equal(t, []interface{}{"bk-1"}, args)
}

func TestSearch(t *testing.T) {
	search := "drill, 50%"
	where := Compile("org-1", &search, nil)
	require.Len(t, where, 2)

	sql, args := render(t, where[1])
	assert.Contains(t, sql, "a.title ILIKE ?")
	assert.Contains(t, sql, `u."lastName" ILIKE ?`)
	assert.Contains(t, sql, `EXISTS (SELECT 1 FROM public."Qr" q2 WHERE q2."assetId" = a.id AND q2.id ILIKE ?)`)
	assert.Contains(t, sql, `acfv2.value->>'valueOption' ILIKE ?`)
	assert.Contains(t, sql, ") OR (")

	perTerm := len(searchColumns) + 2 + 6
	require.Len(t, args, 2*perTerm)
	assert.Equal(t, "%drill%", args[0])
	assert.Equal(t, `%50\%%`, args[perTerm])
}

func TestCompileIsDeterministic(t *testing.T) {
	search := "drill,saw"
	filters := Parse("custody=containsAny:without-custody,tm-1&tags=containsAll:t1,t2&valuation=between:1,9&cf_Color=containsAny:Red", testColumns)

	a, aArgs := render(t, Compile("org-1", &search, filters))
	b, bArgs := render(t, Compile("org-1", &search, filters))
	assert.Equal(t, a, b)
	assert.Equal(t, aArgs, bArgs)

	sql, _, err := models.CompiledQuery{Where: Compile("org-1", nil, filters)}.WhereSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `a."organizationId" = $1`)
	assert.NotContains(t, sql, "?")
}
