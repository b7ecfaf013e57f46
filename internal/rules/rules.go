// Package rules assigns categories to transactions via ordered first-match
// evaluation of declarative predicate rules.
package rules

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/statement"
	"github.com/rs/zerolog"
)

// Rule maps predicates to a category. Lower Priority wins. Predicates left
// at their zero value are vacuously satisfied.
type Rule struct {
	Priority          int
	TxnType           statement.TransactionType
	AccountIDContains string
	NoteContains      string
	RegexNote         string
	MinAmount         *float64
	MaxAmount         *float64
	Category          statement.Category
}

// Matches reports whether all declared predicates hold for the transaction
// and its parent statement. A malformed RegexNote makes the rule never
// match; it does not fail.
func (r Rule) Matches(txn statement.Transaction, stmt *statement.ParsedStatement) bool {
	if r.TxnType != "" && r.TxnType != txn.Type {
		return false
	}
	if r.AccountIDContains != "" &&
		!strings.Contains(strings.ToLower(stmt.AccountID), strings.ToLower(r.AccountIDContains)) {
		return false
	}
	if r.NoteContains != "" &&
		!strings.Contains(strings.ToLower(txn.Note), strings.ToLower(r.NoteContains)) {
		return false
	}
	if r.RegexNote != "" {
		re, err := regexp.Compile("(?i)" + r.RegexNote)
		if err != nil {
			return false
		}
		if !re.MatchString(txn.Note) {
			return false
		}
	}
	if r.MinAmount != nil && txn.Amount < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && txn.Amount > *r.MaxAmount {
		return false
	}
	return true
}

// Engine evaluates rules in ascending priority order.
type Engine struct {
	rules []Rule
}

// NewEngine sorts the rules by priority and warns about any rule whose
// regex does not compile. Such a rule is kept but can never match,
// preserving the declared priority order for every other rule.
func NewEngine(log zerolog.Logger, ruleset []Rule) *Engine {
	sorted := make([]Rule, len(ruleset))
	copy(sorted, ruleset)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	for _, r := range sorted {
		if r.RegexNote == "" {
			continue
		}
		if _, err := regexp.Compile("(?i)" + r.RegexNote); err != nil {
			log.Warn().
				Int("priority", r.Priority).
				Str("regex_note", r.RegexNote).
				Err(err).
				Msg("category rule has malformed regex and will never match")
		}
	}

	return &Engine{rules: sorted}
}

// Categorize returns the category of the first matching rule, or MISC when
// no rule matches.
func (e *Engine) Categorize(txn statement.Transaction, stmt *statement.ParsedStatement) statement.Category {
	for _, r := range e.rules {
		if r.Matches(txn, stmt) {
			return r.Category
		}
	}
	return statement.CategoryMisc
}

// Apply assigns a category to every transaction of every successful,
// transaction-bearing statement. Failed or empty statements pass through
// unmodified.
func (e *Engine) Apply(stmts []*statement.ParsedStatement) {
	for _, stmt := range stmts {
		if stmt.Status != statement.StatusSuccess || len(stmt.Transactions) == 0 {
			continue
		}
		for i := range stmt.Transactions {
			stmt.Transactions[i].Category = e.Categorize(stmt.Transactions[i], stmt)
		}
	}
}
