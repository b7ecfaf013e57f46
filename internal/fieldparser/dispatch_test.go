package fieldparser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ledgerscan/ledgerscan/internal/layout"
	"github.com/ledgerscan/ledgerscan/internal/llm"
	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// MockCapability is a mock implementation of llm.Capability for testing.
type MockCapability struct {
	ClassifyFunc func(ctx context.Context, model, prompt string) (string, error)
}

func (m *MockCapability) Classify(ctx context.Context, model, prompt string) (string, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, model, prompt)
	}
	return `{"transactions": [], "confidence": 1}`, nil
}

func tok(text string, x0, x1, top, bottom float64) layout.Token {
	return layout.Token{Text: text, X0: x0, X1: x1, Top: top, Bottom: bottom}
}

// testDocument is a two-page statement: page 1 carries the statement period,
// page 2 a transaction row and a "Total Due" figure.
func testDocument() *layout.Document {
	page1 := layout.NewPage(1, []layout.Token{
		tok("Statement", 10, 60, 50, 60),
		tok("Period:", 65, 100, 50, 60),
		tok("Jan", 105, 125, 50, 60),
		tok("2024", 130, 155, 50, 60),
	})
	page2 := layout.NewPage(2, []layout.Token{
		tok("2024-01-15", 10, 60, 50, 60),
		tok("AMAZON", 65, 105, 50, 60),
		tok("RETAIL", 110, 145, 50, 60),
		tok("499.50", 150, 185, 50, 60),
		tok("Total", 10, 35, 100, 110),
		tok("Due", 40, 55, 100, 110),
		tok("2,500.00", 70, 115, 100, 110),
	})
	return &layout.Document{Pages: []layout.Page{page1, page2}}
}

func meta() DocumentMeta {
	return DocumentMeta{ExecutionID: "exec-1", DocumentID: "doc-1", Date: "2024-02-01"}
}

func TestParseDocument_Success(t *testing.T) {
	capability := &MockCapability{
		ClassifyFunc: func(ctx context.Context, model, prompt string) (string, error) {
			if !strings.Contains(prompt, "AMAZON") {
				t.Errorf("prompt does not contain the extracted chunk: %q", prompt)
			}
			return `{"transactions": [{"date": "2024-01-15", "amount": 499.5, "note": "AMAZON RETAIL", "txn_type": "DEBIT", "reason": "table row"}], "confidence": 0.9}`, nil
		},
	}
	d := NewDispatcher(capability)

	cfg := AccountConfig{
		ID:  "hdfc-card",
		Run: true,
		FieldParsers: []FieldConfig{
			{
				Field:     "statement_period",
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorBetween, Start: "Statement Period"},
				Processor: ProcessorConfig{Type: ProcessorNoop},
			},
			{
				Field:     "total_amount_due",
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "Total Due", Location: "RIGHT"},
				Processor: ProcessorConfig{Type: ProcessorNoop},
			},
			{
				Field:     TransactionsField,
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorBetween, Start: "2024-01-15"},
				Processor: ProcessorConfig{Type: ProcessorLLM, Model: "gemini-2.5-flash"},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())

	if stmt.Status != statement.StatusSuccess {
		t.Fatalf("status = %q (%s), want success", stmt.Status, stmt.Diagnostics)
	}
	if stmt.AccountID != "hdfc-card" || stmt.DocumentID != "doc-1" {
		t.Errorf("identity not carried: %+v", stmt)
	}

	texts := stmt.Texts["statement_period"]
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "Statement Period: Jan 2024") {
		t.Errorf("statement_period = %v, want chunk starting at the marker", texts)
	}

	if got := stmt.Totals["total_amount_due"]; got != 2500.00 {
		t.Errorf("total_amount_due = %v, want 2500.00", got)
	}

	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	tx := stmt.Transactions[0]
	if tx.AlignmentScore == nil {
		t.Fatal("alignment score unset on a document with text lines")
	}
	if *tx.AlignmentScore <= 0.5 {
		t.Errorf("alignment score = %v, want a high score against the source row", *tx.AlignmentScore)
	}
	if !strings.Contains(tx.BestMatchLine, "AMAZON RETAIL") {
		t.Errorf("best match line = %q, want the source transaction row", tx.BestMatchLine)
	}
}

func TestParseDocument_UnsupportedFieldSource(t *testing.T) {
	d := NewDispatcher(&MockCapability{})
	cfg := AccountConfig{
		ID: "acct",
		FieldParsers: []FieldConfig{
			{
				Field:     "transactions",
				Source:    "email_body",
				Extractor: ExtractorConfig{Type: ExtractorBetween, Start: "x"},
				Processor: ProcessorConfig{Type: ProcessorNoop},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())
	if stmt.Status != statement.StatusFailed {
		t.Fatalf("status = %q, want failed", stmt.Status)
	}
	if !strings.Contains(stmt.Diagnostics, "unsupported source kind") {
		t.Errorf("diagnostics = %q, want unsupported source kind", stmt.Diagnostics)
	}
}

func TestParseDocument_LLMOnNonTransactionsFieldFails(t *testing.T) {
	d := NewDispatcher(&MockCapability{})
	cfg := AccountConfig{
		ID: "acct",
		FieldParsers: []FieldConfig{
			{
				Field:     "total_amount_due",
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "Total Due", Location: "RIGHT"},
				Processor: ProcessorConfig{Type: ProcessorLLM},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())
	if stmt.Status != statement.StatusFailed {
		t.Fatalf("status = %q, want failed", stmt.Status)
	}
	if !strings.Contains(stmt.Diagnostics, "only supports") {
		t.Errorf("diagnostics = %q, want llm processor field restriction", stmt.Diagnostics)
	}
}

func TestParseDocument_BadModelResponseFailsDocument(t *testing.T) {
	capability := &MockCapability{
		ClassifyFunc: func(ctx context.Context, model, prompt string) (string, error) {
			return "sorry, I could not parse this statement", nil
		},
	}
	d := NewDispatcher(capability)
	cfg := AccountConfig{
		ID: "acct",
		FieldParsers: []FieldConfig{
			{
				Field:     TransactionsField,
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorBetween, Start: "2024-01-15"},
				Processor: ProcessorConfig{Type: ProcessorLLM},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())
	if stmt.Status != statement.StatusFailed {
		t.Fatalf("status = %q, want failed", stmt.Status)
	}
	if !strings.Contains(stmt.Diagnostics, "schema") {
		t.Errorf("diagnostics = %q, want schema parse failure text", stmt.Diagnostics)
	}
}

func TestParseDocument_FirstFailureAbortsRemainingFields(t *testing.T) {
	calls := 0
	capability := &MockCapability{
		ClassifyFunc: func(ctx context.Context, model, prompt string) (string, error) {
			calls++
			return "", errors.New("model unavailable")
		},
	}
	d := NewDispatcher(capability)
	cfg := AccountConfig{
		ID: "acct",
		FieldParsers: []FieldConfig{
			{
				Field:     TransactionsField,
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorBetween, Start: "2024-01-15"},
				Processor: ProcessorConfig{Type: ProcessorLLM},
			},
			{
				Field:     "total_amount_due",
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "Total Due", Location: "RIGHT"},
				Processor: ProcessorConfig{Type: ProcessorNoop},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())
	if stmt.Status != statement.StatusFailed {
		t.Fatalf("status = %q, want failed", stmt.Status)
	}
	if calls != 1 {
		t.Errorf("capability called %d times, want 1", calls)
	}
	if len(stmt.Totals) != 0 {
		t.Errorf("failed statement carries partial outputs: %v", stmt.Totals)
	}
}

func TestParseDocument_AbsentFloatIsNotAnError(t *testing.T) {
	d := NewDispatcher(&MockCapability{})
	cfg := AccountConfig{
		ID: "acct",
		FieldParsers: []FieldConfig{
			{
				Field:     "closing_balance",
				Source:    FieldSourcePDF,
				Extractor: ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "No Such Keyword", Location: "RIGHT"},
				Processor: ProcessorConfig{Type: ProcessorNoop},
			},
		},
	}

	stmt := d.ParseDocument(context.Background(), cfg, testDocument(), meta())
	if stmt.Status != statement.StatusSuccess {
		t.Fatalf("status = %q, want success: absent value is not an error", stmt.Status)
	}
	if _, ok := stmt.Totals["closing_balance"]; ok {
		t.Error("absent float produced a total; field should have no output")
	}
}

func TestProcessingError_Unwrap(t *testing.T) {
	inner := llm.ErrResponseParse
	err := &ProcessingError{Field: "transactions", Err: inner}
	if !errors.Is(err, llm.ErrResponseParse) {
		t.Error("ProcessingError does not unwrap to llm.ErrResponseParse")
	}
}

func TestLoadAccountConfigs(t *testing.T) {
	raw := `{
		"accounts": [
			{
				"id": "z-account",
				"run": true,
				"field_parsers": [
					{
						"field": "transactions",
						"type": "pdf_attachment",
						"pdf_extractor": {"type": "between", "start": "Date"},
						"processor": {"type": "llm", "model": "gemini-2.5-flash"}
					}
				]
			},
			{"id": "disabled", "run": false, "field_parsers": []},
			{"id": "a-account", "run": true, "field_parsers": []}
		]
	}`

	configs, err := LoadAccountConfigs(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("LoadAccountConfigs failed: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configs, want 2 (run=false filtered)", len(configs))
	}
	if configs[0].ID != "a-account" || configs[1].ID != "z-account" {
		t.Errorf("configs not sorted by id: %s, %s", configs[0].ID, configs[1].ID)
	}
	fp := configs[1].FieldParsers[0]
	if fp.Extractor.Type != ExtractorBetween || fp.Processor.Model != "gemini-2.5-flash" {
		t.Errorf("field parser decoded wrong: %+v", fp)
	}
}

func TestExtractorConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ExtractorConfig
		wantErr bool
	}{
		{"between ok", ExtractorConfig{Type: ExtractorBetween, Start: "x"}, false},
		{"between missing start", ExtractorConfig{Type: ExtractorBetween}, true},
		{"float ok", ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "Total", Location: "RIGHT"}, false},
		{"float missing keyword", ExtractorConfig{Type: ExtractorFloatNearKeyword, Location: "RIGHT"}, true},
		{"float bad direction", ExtractorConfig{Type: ExtractorFloatNearKeyword, Keyword: "x", Location: "DIAGONAL"}, true},
		{"unknown type", ExtractorConfig{Type: "tables"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
