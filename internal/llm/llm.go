// Package llm is the boundary to the external model service that turns raw
// extracted statement text into transaction candidates. The core treats the
// service's output as untrusted: everything it returns goes through schema
// decoding here and alignment scoring downstream.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// DefaultModel is used when a processor config does not name a model.
const DefaultModel = "gemini-2.5-flash"

// ErrResponseParse marks a model response that is not valid JSON matching
// the expected schema. Fatal for the document; never retried here.
var ErrResponseParse = errors.New("llm response does not match expected schema")

// Capability is the external model service: given a model id and a prompt,
// it returns the raw response text.
type Capability interface {
	Classify(ctx context.Context, model, prompt string) (string, error)
}

// Response is the decoded model output: transaction candidates plus a
// document-level confidence in [0,1].
type Response struct {
	Transactions []Candidate `json:"transactions"`
	Confidence   float64     `json:"confidence"`
}

// Candidate is one transaction as the model reported it.
type Candidate struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
	Type   string  `json:"txn_type"`
	Reason string  `json:"reason"`
}

// DecodeResponse parses raw model output against the fixed schema
// (transactions array + confidence). Markdown fences around the JSON are
// tolerated; anything that does not decode, or a candidate with an unknown
// txn_type or empty date, fails with ErrResponseParse.
func DecodeResponse(raw string) (*Response, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("decode response: empty model output: %w", ErrResponseParse)
	}

	var resp Response
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %v: %w", err, ErrResponseParse)
	}

	for i, c := range resp.Transactions {
		if c.Date == "" {
			return nil, fmt.Errorf("decode response: transaction %d has no date: %w", i, ErrResponseParse)
		}
		switch statement.TransactionType(c.Type) {
		case statement.TypeCredit, statement.TypeDebit:
		default:
			return nil, fmt.Errorf("decode response: transaction %d has txn_type %q: %w", i, c.Type, ErrResponseParse)
		}
	}
	return &resp, nil
}

// ToTransactions converts decoded candidates into domain transactions with
// the default category. Alignment and categorization happen later.
func (r *Response) ToTransactions() []statement.Transaction {
	txns := make([]statement.Transaction, 0, len(r.Transactions))
	for _, c := range r.Transactions {
		txns = append(txns, statement.Transaction{
			Date:     c.Date,
			Amount:   c.Amount,
			Note:     c.Note,
			Type:     statement.TransactionType(c.Type),
			Reason:   c.Reason,
			Category: statement.CategoryMisc,
		})
	}
	return txns
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' if junk remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
