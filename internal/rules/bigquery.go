package rules

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// ruleRow is the category_rules table schema.
type ruleRow struct {
	Priority          int64                `bigquery:"priority"`
	TxnType           bigquery.NullString  `bigquery:"txn_type"`
	AccountIDContains bigquery.NullString  `bigquery:"account_id_contains"`
	NoteContains      bigquery.NullString  `bigquery:"note_contains"`
	RegexNote         bigquery.NullString  `bigquery:"regex_note"`
	MinAmount         bigquery.NullFloat64 `bigquery:"min_amount"`
	MaxAmount         bigquery.NullFloat64 `bigquery:"max_amount"`
	Category          string               `bigquery:"category"`
}

// BigQuerySource reads rule rows from a BigQuery table.
type BigQuerySource struct {
	ProjectID string
	Dataset   string
	Table     string
}

// LoadRules implements Source.
func (s *BigQuerySource) LoadRules(ctx context.Context) ([]Rule, error) {
	client, err := bigquery.NewClient(ctx, s.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery rules: create client: %w", err)
	}
	defer client.Close()

	q := client.Query(fmt.Sprintf(`
		SELECT
		  priority,
		  txn_type,
		  account_id_contains,
		  note_contains,
		  regex_note,
		  min_amount,
		  max_amount,
		  category
		FROM %s.%s
		ORDER BY priority
	`, s.Dataset, s.Table))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("bigquery rules: query read: %w", err)
	}

	var ruleset []Rule
	for {
		var row ruleRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bigquery rules: iter next: %w", err)
		}

		rule, err := ruleFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("bigquery rules: %w", err)
		}
		ruleset = append(ruleset, rule)
	}
	return ruleset, nil
}

// ruleFromRow converts one table row to a Rule. String predicates are
// normalized the same way the CSV and Sheets sources normalize them.
func ruleFromRow(row ruleRow) (Rule, error) {
	rule := Rule{
		Priority: int(row.Priority),
		Category: statement.Category(strings.ToUpper(row.Category)),
	}
	if !statement.ValidCategory(rule.Category) {
		return Rule{}, fmt.Errorf("unknown category %q", row.Category)
	}
	if row.TxnType.Valid {
		rule.TxnType = statement.TransactionType(strings.ToUpper(row.TxnType.StringVal))
	}
	if row.AccountIDContains.Valid {
		rule.AccountIDContains = row.AccountIDContains.StringVal
	}
	if row.NoteContains.Valid {
		rule.NoteContains = row.NoteContains.StringVal
	}
	if row.RegexNote.Valid {
		rule.RegexNote = row.RegexNote.StringVal
	}
	if row.MinAmount.Valid {
		v := row.MinAmount.Float64
		rule.MinAmount = &v
	}
	if row.MaxAmount.Valid {
		v := row.MaxAmount.Float64
		rule.MaxAmount = &v
	}
	return rule, nil
}
