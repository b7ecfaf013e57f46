// Package align scores LLM-produced transactions against the raw source
// text they were extracted from. The score is the audit trail: it is the only
// defense against the model fabricating rows, so scoring runs over every
// page's reflowed text, not just the chunk the processor saw.
package align

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// Annotation is the scorer's output for one transaction, kept separate from
// the transaction itself so the scorer never mutates processor output.
// Score is nil when the document yielded no text lines; "no lines" is a
// distinct state from "zero similarity".
type Annotation struct {
	Score         *float64
	BestMatchLine string
}

// ScoreTransactions finds, for each transaction, the most similar line among
// lines and returns one annotation per transaction, index-aligned. Lines are
// expected to be non-empty and trimmed (layout.Document.Lines provides
// exactly that). With no lines at all, every annotation is left unset.
func ScoreTransactions(lines []string, txns []statement.Transaction) []Annotation {
	annotations := make([]Annotation, len(txns))
	if len(lines) == 0 {
		return annotations
	}

	normLines := make([]string, len(lines))
	for i, line := range lines {
		normLines[i] = normalizeText(line)
	}

	for i, txn := range txns {
		repr := normalizeText(canonical(txn))

		bestScore := 0.0
		bestLine := ""
		for j, norm := range normLines {
			score := similarity(norm, repr)
			if score > bestScore {
				bestScore = score
				bestLine = lines[j]
			}
		}

		rounded := math.Round(bestScore*10000) / 10000
		annotations[i] = Annotation{Score: &rounded, BestMatchLine: bestLine}
	}
	return annotations
}

// Apply merges annotations back onto the transactions. Annotations and
// transactions must be index-aligned, as produced by ScoreTransactions.
func Apply(txns []statement.Transaction, annotations []Annotation) {
	for i := range txns {
		if i >= len(annotations) {
			return
		}
		txns[i].AlignmentScore = annotations[i].Score
		txns[i].BestMatchLine = annotations[i].BestMatchLine
	}
}

// canonical builds the transaction's flat representation used for matching.
func canonical(t statement.Transaction) string {
	return fmt.Sprintf("%s %s %v %s", t.Date, t.Note, t.Amount, t.Type)
}

// normalizeText lowercases and strips everything that is not alphanumeric
// or whitespace.
func normalizeText(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// similarity is the Ratcliff/Obershelp ratio: twice the number of matching
// characters over the total length, with matches found by recursively
// splitting around the longest common substring.
func similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b string) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b string) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1].
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			cur := lengths[j]
			if a[i-1] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}
