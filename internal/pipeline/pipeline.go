// Package pipeline orchestrates the per-document parsing pass: load the
// page layout, dispatch the declared fields, then categorize. Each document
// owns all of its state; documents never share anything mutable.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ledgerscan/ledgerscan/internal/fieldparser"
	"github.com/ledgerscan/ledgerscan/internal/layout"
	"github.com/ledgerscan/ledgerscan/internal/logger"
	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// Job names one document to parse.
type Job struct {
	DocumentID string
	Date       string // YYYY-MM-DD, statement date
	PDFPath    string
	Config     fieldparser.AccountConfig
}

// State is the shared state across all pipeline steps for one document.
type State struct {
	ExecutionID string
	Job         Job
	Document    *layout.Document
	Statement   *statement.ParsedStatement
}

// Step is a single step in the per-document pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// LoadDocumentStep reads the PDF into pages of positioned tokens.
type LoadDocumentStep struct{}

func (s *LoadDocumentStep) Execute(ctx context.Context, state *State) error {
	doc, err := layout.OpenPDF(state.Job.PDFPath)
	if err != nil {
		return err
	}
	state.Document = doc
	return nil
}

// ParseFieldsStep dispatches the account's declared fields against the
// document. Field failures do not surface as step errors: the dispatcher
// already folds them into a failed statement.
type ParseFieldsStep struct {
	Dispatcher *fieldparser.Dispatcher
}

func (s *ParseFieldsStep) Execute(ctx context.Context, state *State) error {
	meta := fieldparser.DocumentMeta{
		ExecutionID: state.ExecutionID,
		DocumentID:  state.Job.DocumentID,
		Date:        state.Job.Date,
	}
	state.Statement = s.Dispatcher.ParseDocument(ctx, state.Job.Config, state.Document, meta)
	return nil
}

// NewStatementPipeline builds the standard two-step per-document pipeline.
// Categorization runs over the collected results afterwards, once, the same
// way for sequential and concurrent runs.
func NewStatementPipeline(dispatcher *fieldparser.Dispatcher) *Pipeline {
	return NewPipeline(
		&LoadDocumentStep{},
		&ParseFieldsStep{Dispatcher: dispatcher},
	)
}

// Processor runs whole documents through the pipeline and is the unit the
// runner parallelizes over.
type Processor struct {
	ExecutionID string
	Pipeline    *Pipeline
}

// Process parses one document. Any failure is converted at this boundary
// into a failed statement carrying the error text; a document can never
// abort the rest of the run.
func (p *Processor) Process(ctx context.Context, job Job) *statement.ParsedStatement {
	state := &State{ExecutionID: p.ExecutionID, Job: job}

	if err := p.Pipeline.Execute(ctx, state); err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Str("document_id", job.DocumentID).
			Err(err).
			Msg("document parsing failed")
		return &statement.ParsedStatement{
			ExecutionID: p.ExecutionID,
			DocumentID:  job.DocumentID,
			Date:        job.Date,
			AccountID:   job.Config.ID,
			Status:      statement.StatusFailed,
			Diagnostics: err.Error(),
		}
	}
	return state.Statement
}
