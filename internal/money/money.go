// Package money normalizes loosely formatted currency text into float values.
//
// The grammar is a contract, not an implementation detail: the geometric
// extraction engine uses ParseAmount to decide whether a token is numeric at
// all, so a false negative here directly loses extraction candidates.
package money

import (
	"regexp"
	"strconv"
	"strings"
)

// amountPattern accepts an optional run of non-digit, non-minus characters
// (currency symbols, spaces) followed by either a comma-grouped number in
// exact 3-digit clusters or a plain integer/decimal.
//
// Matches:   "₹1,234.56"  "  -1,000"  "$123"  "1,000"  "1000"  "-123.45"
// Rejects:   "1,23,456"  "12,34"  "123abc"  "--123"  "1 000"  "1,000.00.00"
var amountPattern = regexp.MustCompile(`^[^\d\-]*(-?\d{1,3}(?:,\d{3})*(?:\.\d+)?|\d+(?:\.\d+)?)$`)

// ParseAmount extracts a float from text that may carry currency symbols or
// leading garbage. The second return value reports whether the text parsed
// as a number at all.
func ParseAmount(text string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsAmount reports whether text normalizes to a number under the grammar.
func IsAmount(text string) bool {
	_, ok := ParseAmount(text)
	return ok
}
