package presets

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rebeliceyang/assetq/internal/filter"
	"github.com/rebeliceyang/assetq/internal/models"
)

var operatorLabels = map[models.Operator]string{
	models.OpIs:          "is",
	models.OpIsNot:       "is not",
	models.OpContains:    "contains",
	models.OpMatchesAny:  "matches any of",
	models.OpContainsAny: "contains any of",
	models.OpContainsAll: "contains all of",
	models.OpExcludeAny:  "excludes",
	models.OpGreaterThan: ">",
	models.OpLessThan:    "<",
	models.OpGreaterOrEq: ">=",
	models.OpLessOrEq:    "<=",
	models.OpBetween:     "between",
	models.OpBefore:      "before",
	models.OpAfter:       "after",
	models.OpInDates:     "in",
}

// Summary describes a preset query one line per part: the search term,
// then each filter in key order, then the sort order
func Summary(query string) []string {
	query = strings.TrimPrefix(strings.TrimSpace(query), "?")
	params, _ := url.ParseQuery(query)

	var lines []string
	if s := filter.ParseSearch(query); s != "" {
		lines = append(lines, fmt.Sprintf("search %q", s))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if !filter.IsReservedKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range params[k] {
			lines = append(lines, describe(k, v))
		}
	}

	if sorts := filter.ParseSorts(query); len(sorts) > 0 {
		parts := make([]string, len(sorts))
		for i, s := range sorts {
			parts[i] = fmt.Sprintf("%s %s", s.Field, s.Direction)
		}
		lines = append(lines, "sorted by "+strings.Join(parts, ", "))
	}

	return lines
}

func describe(key, raw string) string {
	opText, value, found := strings.Cut(raw, ":")
	op := models.Operator(opText)
	label, known := operatorLabels[op]
	if !found || !known {
		return fmt.Sprintf("%s is %s", key, raw)
	}

	switch op {
	case models.OpBetween:
		if lo, hi, ok := strings.Cut(value, ","); ok {
			return fmt.Sprintf("%s between %s and %s", key, strings.TrimSpace(lo), strings.TrimSpace(hi))
		}
	case models.OpMatchesAny, models.OpContainsAny, models.OpContainsAll, models.OpExcludeAny, models.OpInDates:
		return fmt.Sprintf("%s %s %s", key, label, strings.Join(models.StringValue(value).List(), ", "))
	}
	return fmt.Sprintf("%s %s %s", key, label, value)
}
