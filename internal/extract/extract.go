// Package extract locates field values inside a page layout by visual
// proximity rather than syntactic structure.
package extract

import (
	"math"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/layout"
	"github.com/ledgerscan/ledgerscan/internal/money"
)

// Direction constrains where a numeric candidate may sit relative to the
// keyword match.
type Direction string

const (
	Right Direction = "RIGHT"
	Left  Direction = "LEFT"
	Above Direction = "ABOVE"
	Below Direction = "BELOW"
)

// Tolerances for direction checks, in layout units. Same-row matching is
// tight, same-column matching loose: statement rows sit on one baseline while
// column values drift horizontally with cell padding.
const (
	SameLineTolerance   = 5.0
	SameColumnTolerance = 30.0
)

// ValidDirection reports whether d is one of the four supported directions.
func ValidDirection(d Direction) bool {
	switch d {
	case Right, Left, Above, Below:
		return true
	}
	return false
}

// Between returns, for each page whose text contains start, the substring
// from the first occurrence of start to the first occurrence of end at or
// after it (to end of page if end is empty or absent), trimmed. Pages without
// start contribute nothing; an empty result list means the marker was never
// found and is not an error.
func Between(pageTexts []string, start, end string) []string {
	var results []string
	for _, text := range pageTexts {
		startIdx := strings.Index(text, start)
		if startIdx == -1 {
			continue
		}

		chunk := text[startIdx:]
		if end != "" {
			if endIdx := strings.Index(chunk, end); endIdx != -1 {
				chunk = chunk[:endIdx]
			}
		}
		results = append(results, strings.TrimSpace(chunk))
	}
	return results
}

// FloatNearKeyword finds a multi-token keyword on a page and returns the
// numeric token geometrically nearest its center, constrained by direction.
// Keyword matching is case-insensitive and token-exact: a contiguous run of
// page tokens must equal the keyword's whitespace-separated parts in order.
//
// Pages are scanned in order and the first page producing a match wins, even
// if a later page would score a closer candidate. Statements place running
// totals on a predictable page, so cross-page best-match is deliberately not
// attempted.
//
// The boolean result is false when no page yields a match; that is an absent
// value, not an error.
func FloatNearKeyword(pages []layout.Page, keyword string, dir Direction) (float64, bool) {
	parts := strings.Fields(strings.ToLower(keyword))
	if len(parts) == 0 {
		return 0, false
	}

	for _, page := range pages {
		if v, ok := floatNearKeywordOnPage(page.Tokens, parts, dir); ok {
			return v, true
		}
	}
	return 0, false
}

func floatNearKeywordOnPage(tokens []layout.Token, parts []string, dir Direction) (float64, bool) {
	for i := 0; i+len(parts) <= len(tokens); i++ {
		if !matchesKeyword(tokens[i:i+len(parts)], parts) {
			continue
		}
		run := tokens[i : i+len(parts)]

		kwX0 := run[0].X0
		kwX1 := run[len(run)-1].X1
		kwTop, kwBottom := run[0].Top, run[0].Bottom
		for _, tok := range run[1:] {
			kwTop = math.Min(kwTop, tok.Top)
			kwBottom = math.Max(kwBottom, tok.Bottom)
		}
		kwCX := (kwX0 + kwX1) / 2
		kwCY := (kwTop + kwBottom) / 2

		bestDist := math.Inf(1)
		var bestValue float64
		found := false
		for _, tok := range tokens {
			v, ok := money.ParseAmount(tok.Text)
			if !ok {
				continue
			}
			cx, cy := tok.CenterX(), tok.CenterY()

			valid := false
			switch dir {
			case Right:
				valid = cx > kwX1 && math.Abs(cy-kwCY) <= SameLineTolerance
			case Left:
				valid = cx < kwX0 && math.Abs(cy-kwCY) <= SameLineTolerance
			case Below:
				valid = cy > kwBottom && math.Abs(cx-kwCX) <= SameColumnTolerance
			case Above:
				valid = cy < kwTop && math.Abs(cx-kwCX) <= SameColumnTolerance
			}
			if !valid {
				continue
			}

			dist := math.Hypot(cx-kwCX, cy-kwCY)
			if dist < bestDist {
				bestDist = dist
				bestValue = v
				found = true
			}
		}
		if found {
			return bestValue, true
		}
	}
	return 0, false
}

// matchesKeyword reports whether the token run equals the lowercased keyword
// parts, token for token. No substring matching within a token.
func matchesKeyword(run []layout.Token, parts []string) bool {
	for j, part := range parts {
		if strings.ToLower(run[j].Text) != part {
			return false
		}
	}
	return true
}
