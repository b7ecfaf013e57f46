package layout

import (
	"fmt"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// defaultPageHeight is used to flip PDF coordinates (origin bottom-left)
// into layout coordinates (origin top-left) when the page carries no usable
// MediaBox. US Letter height in points.
const defaultPageHeight = 792.0

// gapTolerance is the maximum horizontal gap, in layout units, between two
// adjacent text runs that still belong to the same token.
const gapTolerance = 1.5

// OpenPDF reads a PDF from disk and converts every page into positioned
// tokens plus reflowed text. Failures wrap ErrUnreadable: a document that
// cannot be decoded is fatal for that document only.
func OpenPDF(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: open pdf %q: %w: %v", path, ErrUnreadable, err)
	}
	defer f.Close()

	doc := &Document{}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		tokens := tokensFromRuns(content.Text, pageHeight(page))
		doc.Pages = append(doc.Pages, NewPage(i, tokens))
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("layout: pdf %q has no readable pages: %w", path, ErrUnreadable)
	}
	return doc, nil
}

// pageHeight reads the page's MediaBox height, falling back to US Letter.
func pageHeight(page pdflib.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdflib.Array || box.Len() != 4 {
		return defaultPageHeight
	}
	y0 := box.Index(1).Float64()
	y1 := box.Index(3).Float64()
	if y1 > y0 {
		return y1 - y0
	}
	return defaultPageHeight
}

// tokensFromRuns converts the library's per-run text fragments into word
// tokens. Runs on the same baseline are merged when they nearly touch, and
// runs containing whitespace are split into separate words with widths
// allocated proportionally to character count.
func tokensFromRuns(runs []pdflib.Text, height float64) []Token {
	sorted := make([]pdflib.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			// PDF Y grows upward; read top lines first.
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var tokens []Token
	var cur strings.Builder
	var curX0, curX1, curY, curSize float64

	flush := func() {
		text := cur.String()
		cur.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		size := curSize
		if size <= 0 {
			size = 10
		}
		tokens = append(tokens, Token{
			Text:   text,
			X0:     curX0,
			X1:     curX1,
			Top:    height - curY - size,
			Bottom: height - curY,
		})
	}

	for _, run := range sorted {
		if run.S == "" {
			continue
		}
		sameLine := cur.Len() > 0 && run.Y == curY
		adjacent := sameLine && run.X-curX1 <= gapTolerance
		if !adjacent {
			flush()
			curX0, curY, curSize = run.X, run.Y, run.FontSize
		}

		// Split the run on whitespace, assigning each fragment a
		// proportional share of the run's width.
		perChar := 0.0
		if n := len([]rune(run.S)); n > 0 {
			perChar = run.W / float64(n)
		}
		x := run.X
		for _, r := range run.S {
			w := perChar
			if r == ' ' || r == '\t' || r == '\n' {
				flush()
				x += w
				curX0 = x
				curY, curSize = run.Y, run.FontSize
				continue
			}
			if cur.Len() == 0 {
				curX0 = x
				curY, curSize = run.Y, run.FontSize
			}
			cur.WriteRune(r)
			x += w
			curX1 = x
		}
	}
	flush()

	return tokens
}
