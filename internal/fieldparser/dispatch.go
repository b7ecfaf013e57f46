package fieldparser

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/align"
	"github.com/ledgerscan/ledgerscan/internal/extract"
	"github.com/ledgerscan/ledgerscan/internal/layout"
	"github.com/ledgerscan/ledgerscan/internal/llm"
	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// TransactionsField is the field name that triggers LLM processing and
// alignment post-validation.
const TransactionsField = "transactions"

// Dispatcher runs a document's declared fields through extraction,
// processing and post-validation.
type Dispatcher struct {
	Capability llm.Capability
}

// NewDispatcher creates a dispatcher backed by the given model capability.
func NewDispatcher(capability llm.Capability) *Dispatcher {
	return &Dispatcher{Capability: capability}
}

// DocumentMeta identifies the document being parsed.
type DocumentMeta struct {
	ExecutionID string
	DocumentID  string
	Date        string // YYYY-MM-DD
}

// extractorFunc is one extraction strategy: config + document in, raw
// extracted content out.
type extractorFunc func(ExtractorConfig, *layout.Document) (any, error)

// extractorDispatch is the single table mapping extractor variant tags to
// behavior. Adding a variant means adding exactly one entry here.
var extractorDispatch = map[ExtractorKind]extractorFunc{
	ExtractorBetween:          extractBetween,
	ExtractorFloatNearKeyword: extractFloatNearKeyword,
}

func extractBetween(cfg ExtractorConfig, doc *layout.Document) (any, error) {
	return extract.Between(doc.PageTexts(), cfg.Start, cfg.End), nil
}

func extractFloatNearKeyword(cfg ExtractorConfig, doc *layout.Document) (any, error) {
	v, ok := extract.FloatNearKeyword(doc.Pages, cfg.Keyword, cfg.Location)
	if !ok {
		// Absent value, not an error.
		return (*float64)(nil), nil
	}
	return &v, nil
}

// processorFunc is one processing strategy: it turns raw extracted content
// into a typed field value plus a human-readable message.
type processorFunc func(ctx context.Context, d *Dispatcher, cfg ProcessorConfig, field string, extracted any) (any, string, error)

// processorDispatch maps processor variant tags to behavior.
var processorDispatch = map[ProcessorKind]processorFunc{
	ProcessorNoop: processNoop,
	ProcessorLLM:  processTransactionsLLM,
}

func processNoop(_ context.Context, _ *Dispatcher, _ ProcessorConfig, _ string, extracted any) (any, string, error) {
	return extracted, "nothing to be done here", nil
}

func processTransactionsLLM(ctx context.Context, d *Dispatcher, cfg ProcessorConfig, field string, extracted any) (any, string, error) {
	if field != TransactionsField {
		return nil, "", fmt.Errorf("llm processor only supports the %q field, got %q", TransactionsField, field)
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel
	}

	raw, err := d.Capability.Classify(ctx, model, llm.BuildPrompt(stringifyExtracted(extracted)))
	if err != nil {
		return nil, "", fmt.Errorf("classify with model %s: %w", model, err)
	}

	resp, err := llm.DecodeResponse(raw)
	if err != nil {
		return nil, "", err
	}

	msg := fmt.Sprintf("extracted %d transactions via %s, confidence %.2f",
		len(resp.Transactions), model, resp.Confidence)
	return resp.ToTransactions(), msg, nil
}

// stringifyExtracted renders any extractor output as LLM input text.
func stringifyExtracted(extracted any) string {
	switch v := extracted.(type) {
	case []string:
		return strings.Join(v, "\n\n")
	case *float64:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", *v)
	default:
		return fmt.Sprint(v)
	}
}

// ParseDocument runs every declared field of the account config against the
// document. The result is all-or-nothing: the first field failure aborts the
// remaining fields and yields a failed statement carrying the error text;
// per-field partial success within one document is not supported.
func (d *Dispatcher) ParseDocument(ctx context.Context, cfg AccountConfig, doc *layout.Document, meta DocumentMeta) *statement.ParsedStatement {
	stmt := &statement.ParsedStatement{
		ExecutionID: meta.ExecutionID,
		DocumentID:  meta.DocumentID,
		Date:        meta.Date,
		AccountID:   cfg.ID,
	}

	fail := func(err error) *statement.ParsedStatement {
		// Drop any partial field outputs; the document result is
		// all-or-nothing.
		return &statement.ParsedStatement{
			ExecutionID: meta.ExecutionID,
			DocumentID:  meta.DocumentID,
			Date:        meta.Date,
			AccountID:   cfg.ID,
			Status:      statement.StatusFailed,
			Diagnostics: err.Error(),
		}
	}

	var messages []string
	for _, fc := range cfg.FieldParsers {
		if fc.Source != FieldSourcePDF {
			return fail(&UnsupportedFieldSourceError{Field: fc.Field, Source: fc.Source})
		}
		if err := fc.Extractor.Validate(); err != nil {
			return fail(fmt.Errorf("field %q: %w", fc.Field, err))
		}
		if err := fc.Processor.Validate(); err != nil {
			return fail(fmt.Errorf("field %q: %w", fc.Field, err))
		}

		extracted, err := extractorDispatch[fc.Extractor.Type](fc.Extractor, doc)
		if err != nil {
			return fail(fmt.Errorf("field %q: extraction: %w", fc.Field, err))
		}

		result, msg, err := processorDispatch[fc.Processor.Type](ctx, d, fc.Processor, fc.Field, extracted)
		if err != nil {
			return fail(&ProcessingError{Field: fc.Field, Err: err})
		}

		if fc.Field == TransactionsField {
			if txns, ok := result.([]statement.Transaction); ok {
				annotations := align.ScoreTransactions(doc.Lines(), txns)
				align.Apply(txns, annotations)
			}
		}

		assignField(stmt, fc.Field, result)
		messages = append(messages, fmt.Sprintf("field %s: %s", fc.Field, msg))
	}

	stmt.Status = statement.StatusSuccess
	stmt.Diagnostics = strings.Join(messages, "\n")
	return stmt
}

// assignField stores a processed field value on the statement by its
// concrete type. A nil float means the value was absent and leaves no
// output for the field.
func assignField(stmt *statement.ParsedStatement, field string, result any) {
	switch v := result.(type) {
	case []statement.Transaction:
		stmt.Transactions = v
	case *float64:
		if v == nil {
			return
		}
		if stmt.Totals == nil {
			stmt.Totals = make(map[string]float64)
		}
		stmt.Totals[field] = *v
	case []string:
		if len(v) == 0 {
			return
		}
		if stmt.Texts == nil {
			stmt.Texts = make(map[string][]string)
		}
		stmt.Texts[field] = v
	}
}
