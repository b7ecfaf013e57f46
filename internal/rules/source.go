package rules

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// Source loads the ordered rule rows once per run. Implementations exist for
// CSV files, Google Sheets and BigQuery; the engine does not care which.
type Source interface {
	LoadRules(ctx context.Context) ([]Rule, error)
}

// ruleFromRecord builds a Rule from a column-name → cell map. The expected
// columns are priority, txn_type, account_id_contains, note_contains,
// regex_note, min_amount, max_amount and category. Empty cells mean
// "predicate not declared".
func ruleFromRecord(rec map[string]string) (Rule, error) {
	var r Rule

	priority := strings.TrimSpace(rec["priority"])
	p, err := strconv.Atoi(priority)
	if err != nil {
		return Rule{}, fmt.Errorf("rule row: invalid priority %q: %w", priority, err)
	}
	r.Priority = p

	if v := strings.TrimSpace(rec["txn_type"]); v != "" {
		r.TxnType = statement.TransactionType(strings.ToUpper(v))
	}
	r.AccountIDContains = strings.TrimSpace(rec["account_id_contains"])
	r.NoteContains = strings.TrimSpace(rec["note_contains"])
	r.RegexNote = strings.TrimSpace(rec["regex_note"])

	if v := strings.TrimSpace(rec["min_amount"]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Rule{}, fmt.Errorf("rule row: invalid min_amount %q: %w", v, err)
		}
		r.MinAmount = &f
	}
	if v := strings.TrimSpace(rec["max_amount"]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Rule{}, fmt.Errorf("rule row: invalid max_amount %q: %w", v, err)
		}
		r.MaxAmount = &f
	}

	category := statement.Category(strings.ToUpper(strings.TrimSpace(rec["category"])))
	if !statement.ValidCategory(category) {
		return Rule{}, fmt.Errorf("rule row: unknown category %q", rec["category"])
	}
	r.Category = category

	return r, nil
}

// CSVSource reads rule rows from a CSV stream with a header row.
type CSVSource struct {
	Reader io.Reader
}

// LoadRules implements Source.
func (s *CSVSource) LoadRules(ctx context.Context) ([]Rule, error) {
	cr := csv.NewReader(s.Reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv rules: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var ruleset []Rule
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv rules: read row: %w", err)
		}

		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		rule, err := ruleFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("csv rules: %w", err)
		}
		ruleset = append(ruleset, rule)
	}
	return ruleset, nil
}
