package statement

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TypeCredit TransactionType = "CREDIT"
	TypeDebit  TransactionType = "DEBIT"
)

// Category is one of the fixed spending categories. Transactions start as
// MISC and are reassigned by the rule engine.
type Category string

const (
	CategoryRevenue    Category = "REVENUE"
	CategoryLiving     Category = "LIVING"
	CategoryTravel     Category = "TRAVEL"
	CategoryFun        Category = "FUN"
	CategoryShopping   Category = "SHOPPING"
	CategoryInvestment Category = "INVESTMENT"
	CategorySelf       Category = "SELF"
	CategoryMisc       Category = "MISC"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryRevenue,
	CategoryLiving,
	CategoryTravel,
	CategoryFun,
	CategoryShopping,
	CategoryInvestment,
	CategorySelf,
	CategoryMisc,
}

// ValidCategory reports whether c is one of the fixed categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Transaction is one extracted transaction. Date, Amount, Note, Type and
// Reason come from the processing strategy and are never modified afterwards.
// Category is assigned by the rule engine; AlignmentScore and BestMatchLine
// are merged in from the alignment scorer's annotations.
type Transaction struct {
	Date   string          `json:"date"` // YYYY-MM-DD
	Amount float64         `json:"amount"`
	Note   string          `json:"note"`
	Type   TransactionType `json:"txn_type"`
	Reason string          `json:"reason,omitempty"`

	Category Category `json:"category"`

	// AlignmentScore is nil when the source document yielded no text lines;
	// that is a distinct state from a score of zero.
	AlignmentScore *float64 `json:"alignment_score,omitempty"`
	BestMatchLine  string   `json:"best_match_line,omitempty"`
}

// Status values for a parsed statement.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ParsedStatement is the per-document aggregate produced at the end of the
// field-parser dispatch loop. A failed statement carries the error text in
// Diagnostics and no field outputs.
type ParsedStatement struct {
	ExecutionID string `json:"execution_id"`
	DocumentID  string `json:"document_id"`
	Date        string `json:"statement_date"` // YYYY-MM-DD
	AccountID   string `json:"account_id"`

	Transactions []Transaction       `json:"transactions,omitempty"`
	Totals       map[string]float64  `json:"totals,omitempty"`
	Texts        map[string][]string `json:"texts,omitempty"`

	Status      string `json:"status"`
	Diagnostics string `json:"diagnostics,omitempty"`
}
