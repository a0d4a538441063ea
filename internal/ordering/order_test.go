package ordering

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/rebeliceyang/assetq/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestNaturalKeyOrdering(t *testing.T) {
	names := []string{"Item 10", "Item 2", "item 1"}
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
	assert.Equal(t, []string{"item 1", "Item 2", "Item 10"}, names)

	lexical := []string{"Item 10", "Item 2", "item 1"}
	sort.Strings(lexical)
	assert.NotEqual(t, names, lexical)
}

func TestNaturalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Item 2", "item 000000000002"},
		{"Item 007", "item 000000000007"},
		{"A0", "a000000000000"},
		{"Rack 3 Shelf 12", "rack 000000000003 shelf 000000000012"},
		{"1234567890123", "1234567890123"},
		{"no digits", "no digits"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NaturalKey(tt.in), tt.in)
	}
}

func TestNaturalSortSQL(t *testing.T) {
	assert.Equal(t,
		`LOWER(regexp_replace(regexp_replace("assetTitle", '([0-9]+)', '000000000000\1', 'g'), '0*([0-9]{12})', '\1', 'g')) ASC, "assetTitle" ASC`,
		NaturalSort(`"assetTitle"`, "ASC"))
}

func TestCompileDirectAndRelationFields(t *testing.T) {
	logger, buf := testLogger()
	res := Compile(models.ParseSortSpecs([]string{"status:desc", "name:asc", "location:desc", "custody:asc"}), nil, logger)

	parts := []string{
		`"assetStatus" DESC`,
		NaturalSort(`"assetTitle"`, "ASC"),
		NaturalSort(`"locationName"`, "DESC"),
		NaturalSort(`custody->>'name'`, "ASC"),
	}
	assert.Equal(t, strings.Join(parts, ", "), res.OrderBy)
	assert.Empty(t, res.Projections)
	assert.Empty(t, buf.String())
	assert.True(t, strings.HasPrefix(res.Clause(), `ORDER BY "assetStatus" DESC`))
}

func TestCompileSequentialID(t *testing.T) {
	res := Compile([]models.SortSpec{{Field: "sequentialId", Direction: models.Desc}}, nil, nil)
	assert.Equal(t, `CASE WHEN "assetSequentialId" IS NULL THEN 1 ELSE 0 END ASC, `+
		`CASE WHEN "assetSequentialId" ~ '^[A-Z]+-[0-9]+$' THEN LPAD(SPLIT_PART("assetSequentialId", '-', 2), 12, '0') ELSE "assetSequentialId" END DESC, `+
		`"assetSequentialId" DESC`, res.OrderBy)
}

func TestCompileSkipsUnknownFields(t *testing.T) {
	logger, buf := testLogger()
	res := Compile(models.ParseSortSpecs([]string{
		"password:asc",
		"barcode_Bogus:asc",
		"name:sideways",
		"cf_Missing:asc:TEXT",
	}), models.Columns{}, logger)

	assert.Equal(t, DefaultOrderBy, res.OrderBy)
	assert.Empty(t, res.Projections)
	out := buf.String()
	assert.Contains(t, out, "unknown sort field")
	assert.Contains(t, out, "unknown barcode sort field")
	assert.Contains(t, out, "invalid sort direction")
	assert.Contains(t, out, "unknown custom field sort")
}

func TestCompileDefault(t *testing.T) {
	res := Compile(nil, nil, nil)
	assert.Equal(t, `ORDER BY "assetCreatedAt" DESC, "assetId" ASC`, res.Clause())
	sql, args, err := res.Projections.Select().ToSql()
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestCompileCustomFields(t *testing.T) {
	date := models.CustomFieldDate
	columns := models.Columns{
		{Name: "cf_Serial Number"},
		{Name: "cf_Purchased", CustomFieldType: &date},
		{Name: "cf_Price"},
	}

	res := Compile(models.ParseSortSpecs([]string{
		"cf_Serial Number:asc:TEXT",
		"cf_Purchased:desc",
		"cf_Price:asc:AMOUNT",
		"barcode_Code128:desc",
	}), columns, nil)

	assert.Equal(t, strings.Join([]string{
		NaturalSort(`"cf_Serial_Number"`, "ASC"),
		`"cf_Purchased" DESC`,
		`"cf_Price"::numeric ASC`,
		NaturalSort(`"barcode_Code128"`, "DESC"),
	}, ", "), res.OrderBy)

	require.Len(t, res.Projections, 3)
	assert.Equal(t, models.CustomFieldSortProjection{
		CustomFieldName: "Serial Number",
		Alias:           "cf_Serial_Number",
		CustomFieldType: models.CustomFieldText,
	}, res.Projections[0])
	assert.Equal(t, models.CustomFieldDate, res.Projections[1].CustomFieldType)

	sql, args, err := res.Projections.Select().ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, ", (SELECT acfv.value->>'raw' FROM"))
	assert.Contains(t, sql, `AS "cf_Serial_Number"`)
	assert.Contains(t, sql, `(SELECT (acfv.value->>'valueDate')::timestamp FROM`)
	assert.Equal(t, []interface{}{"Serial Number", "Purchased", "Price"}, args)
}

func TestAliasIsQuotedSafely(t *testing.T) {
	res := Compile([]models.SortSpec{{Field: `cf_Evil"; DROP TABLE x; --`, Direction: models.Asc}}, nil, nil)
	require.Len(t, res.Projections, 1)
	assert.Contains(t, res.OrderBy, `"cf_Evil"";_DROP_TABLE_x;_--"`)
	assert.Equal(t, `cf_Evil";_DROP_TABLE_x;_--`, res.Projections[0].Alias)
}

func TestNaturalSortSQLMatchesNaturalKeyWidth(t *testing.T) {
	sql := NaturalSort("x", "ASC")
	assert.Contains(t, sql, "'"+strings.Repeat("0", NaturalWidth)+`\1'`)
	assert.Contains(t, sql, fmt.Sprintf("'0*([0-9]{%d})'", NaturalWidth))

	assert.Len(t, NaturalKey("7"), NaturalWidth)
	assert.Len(t, NaturalKey("0000000000000007"), NaturalWidth)
}

func TestCompileCustomFieldAliasEscapesPlaceholders(t *testing.T) {
	res := Compile([]models.SortSpec{{Field: "cf_Warranty?", Direction: models.Desc}}, nil, nil)

	require.Len(t, res.Projections, 1)
	assert.Equal(t, "cf_Warranty?", res.Projections[0].Alias)
	assert.Equal(t, NaturalSort(`"cf_Warranty??"`, "DESC"), res.OrderBy)

	orderBy, err := sq.Dollar.ReplacePlaceholders(res.OrderBy)
	require.NoError(t, err)
	assert.Equal(t, NaturalSort(`"cf_Warranty?"`, "DESC"), orderBy)

	sql, args, err := sq.Select("a.id").Column(res.Projections.Columns()[0]).PlaceholderFormat(sq.Dollar).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, `cf.name = $1) AS "cf_Warranty?"`)
	assert.NotContains(t, sql, "$2")
	assert.Equal(t, []interface{}{"Warranty?"}, args)
}

func TestCompileCollidingCustomFieldAliases(t *testing.T) {
	res := Compile(models.ParseSortSpecs([]string{
		"cf_Serial Number:asc:TEXT",
		"cf_Serial_Number:desc:NUMBER",
		"cf_Serial Number:desc",
	}), nil, nil)

	require.Len(t, res.Projections, 2)
	assert.Equal(t, "Serial Number", res.Projections[0].CustomFieldName)
	assert.Equal(t, "cf_Serial_Number", res.Projections[0].Alias)
	assert.Equal(t, "Serial_Number", res.Projections[1].CustomFieldName)
	assert.Equal(t, "cf_Serial_Number_2", res.Projections[1].Alias)

	assert.Equal(t, strings.Join([]string{
		NaturalSort(`"cf_Serial_Number"`, "ASC"),
		`"cf_Serial_Number_2"::numeric DESC`,
		NaturalSort(`"cf_Serial_Number"`, "DESC"),
	}, ", "), res.OrderBy)
}
