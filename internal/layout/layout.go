// Package layout models a page-based document as positioned tokens plus
// reflowed text. It is the boundary to the document source: the extraction
// engine and the alignment scorer consume these types and never touch the
// underlying PDF library.
package layout

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnreadable marks a document that could not be opened or decoded.
// It is fatal for that document only.
var ErrUnreadable = errors.New("document unreadable")

// Token is one positioned unit of text on a page. Coordinates grow right and
// down, in layout units. Immutable once produced.
type Token struct {
	Text   string
	X0     float64
	X1     float64
	Top    float64
	Bottom float64
}

// CenterX returns the horizontal center of the token.
func (t Token) CenterX() float64 { return (t.X0 + t.X1) / 2 }

// CenterY returns the vertical center of the token.
func (t Token) CenterY() float64 { return (t.Top + t.Bottom) / 2 }

// Page is one physical page: its tokens in reading order plus the reflowed
// text derived from them.
type Page struct {
	Number int
	Tokens []Token
	Text   string
}

// Document is an ordered sequence of pages.
type Document struct {
	Pages []Page
}

// PageTexts returns each page's reflowed text, page order preserved.
func (d *Document) PageTexts() []string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return texts
}

// Lines returns every non-empty trimmed text line across all pages, in page
// order. This is the line pool the alignment scorer searches.
func (d *Document) Lines() []string {
	var lines []string
	for _, p := range d.Pages {
		for _, line := range strings.Split(p.Text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

// lineTolerance is the maximum vertical-center distance, in layout units,
// for two tokens to be considered part of the same text line during reflow.
const lineTolerance = 3.0

// Reflow groups tokens into lines by vertical position and joins each line's
// tokens left to right, producing text in reading order. Tokens whose
// vertical centers are within lineTolerance share a line.
func Reflow(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}

	sorted := make([]Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY() < sorted[j].CenterY()
	})

	var lines [][]Token
	current := []Token{sorted[0]}
	for _, tok := range sorted[1:] {
		if tok.CenterY()-current[len(current)-1].CenterY() <= lineTolerance {
			current = append(current, tok)
			continue
		}
		lines = append(lines, current)
		current = []Token{tok}
	}
	lines = append(lines, current)

	var b strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, b int) bool { return line[a].X0 < line[b].X0 })
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, tok := range line {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// NewPage builds a page from tokens, deriving its reflowed text.
func NewPage(number int, tokens []Token) Page {
	return Page{Number: number, Tokens: tokens, Text: Reflow(tokens)}
}
