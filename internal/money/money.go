// Package money parses and renders the dollar amounts that negotiation
// messages carry in free text.
package money

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Amount is a non-negative dollar value. Amounts are only ever produced by
// parsing text or by arithmetic on other amounts, never typed directly.
type Amount float64

var amountPattern = regexp.MustCompile(`\$([0-9,]+(?:\.[0-9]+)?)`)

// Extract returns the first dollar amount found in text. Only the first
// "$"-prefixed number is considered; later amounts in the same message (for
// example inside an appended annotation) are ignored. A malformed first
// candidate yields no amount rather than an error.
func Extract(text string) (Amount, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return Amount(v), true
}

// Round rounds to the nearest whole dollar, halves away from zero.
func Round(a Amount) Amount {
	return Amount(math.Round(float64(a)))
}

// Format renders an amount with a dollar sign, thousands separators and no
// decimal digits, e.g. Format(9000) == "$9,000".
func Format(a Amount) string {
	return "$" + humanize.Comma(int64(Round(a)))
}

// Rewrite replaces every dollar amount embedded in text with the formatted
// value of a. Used when a chosen phrasing must be forced onto a known price.
func Rewrite(text string, a Amount) string {
	return amountPattern.ReplaceAllLiteralString(text, Format(a))
}
