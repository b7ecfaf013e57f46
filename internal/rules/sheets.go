package rules

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// SheetSource reads rule rows from a Google Sheets range. The first row of
// the range must be the header (the rule column names, any order).
type SheetSource struct {
	SpreadsheetID string
	ReadRange     string // e.g. "category_rules!A1:H"
}

// LoadRules implements Source. Credentials come from Application Default
// Credentials, same as the storage and BigQuery clients.
func (s *SheetSource) LoadRules(ctx context.Context) ([]Rule, error) {
	svc, err := sheets.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheet rules: create sheets service: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(s.SpreadsheetID, s.ReadRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheet rules: read range %q: %w", s.ReadRange, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("sheet rules: range %q is empty", s.ReadRange)
	}

	header := make([]string, len(resp.Values[0]))
	for i, cell := range resp.Values[0] {
		header[i] = strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))
	}

	var ruleset []Rule
	for rowIdx, row := range resp.Values[1:] {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = fmt.Sprint(row[i])
			}
		}
		rule, err := ruleFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("sheet rules: row %d: %w", rowIdx+2, err)
		}
		ruleset = append(ruleset, rule)
	}
	return ruleset, nil
}
