package ordering

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NaturalWidth is the width digit runs are padded to
const NaturalWidth = 12

// naturalSortSQL prefixes every digit run with NaturalWidth zeros and then
// keeps the last NaturalWidth digits of each padded run, which strips
// leading zeros and left-pads to a fixed width in one pass each.
var naturalSortSQL = fmt.Sprintf(
	`LOWER(regexp_replace(regexp_replace(%%[1]s, '([0-9]+)', '%s\1', 'g'), '0*([0-9]{%d})', '\1', 'g')) %%[2]s, %%[1]s %%[2]s`,
	strings.Repeat("0", NaturalWidth), NaturalWidth)

// NaturalSort returns ORDER BY terms sorting expr naturally, with the raw
// value as tie-breaker
func NaturalSort(expr, dir string) string {
	return fmt.Sprintf(naturalSortSQL, expr, dir)
}

var lower = cases.Lower(language.Und)

// NaturalKey is the Go equivalent of the SQL natural sort transform
func NaturalKey(s string) string {
	s = lower.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}

		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		run := strings.TrimLeft(s[i:j], "0")
		if run == "" {
			run = "0"
		}
		if len(run) < NaturalWidth {
			b.WriteString(strings.Repeat("0", NaturalWidth-len(run)))
		}
		b.WriteString(run)
		i = j
	}
	return b.String()
}

// NaturalLess orders a before b naturally, falling back to the raw strings
func NaturalLess(a, b string) bool {
	ka, kb := NaturalKey(a), NaturalKey(b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
