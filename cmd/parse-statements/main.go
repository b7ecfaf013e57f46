package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ledgerscan/ledgerscan/internal/fieldparser"
	"github.com/ledgerscan/ledgerscan/internal/gcs"
	"github.com/ledgerscan/ledgerscan/internal/llm"
	"github.com/ledgerscan/ledgerscan/internal/logger"
	"github.com/ledgerscan/ledgerscan/internal/pipeline"
	"github.com/ledgerscan/ledgerscan/internal/rules"
	"github.com/ledgerscan/ledgerscan/internal/runner"
	"github.com/ledgerscan/ledgerscan/internal/statement"
)

// manifest is the on-disk list of statements to parse. PDF may be a local
// path or a gs:// URI.
type manifest struct {
	Documents []manifestEntry `json:"documents"`
}

type manifestEntry struct {
	DocumentID string `json:"document_id"`
	AccountID  string `json:"account_id"`
	Date       string `json:"date"`
	PDF        string `json:"pdf"`
}

func main() {
	// Fine if missing; real deployments set env directly.
	_ = godotenv.Load()

	log := logger.New()

	accountsPath := flag.String("accounts", "accounts.json", "Path to the accounts config JSON")
	manifestPath := flag.String("documents", "documents.json", "Path to the documents manifest JSON")
	outPath := flag.String("out", "", "Write results JSON here instead of stdout")
	workers := flag.Int("workers", runner.DefaultWorkers, "Number of documents parsed concurrently")

	rulesCSV := flag.String("rules-csv", "", "Path to a categorization rules CSV")
	rulesSheet := flag.String("rules-sheet", "", "Google Sheets spreadsheet id holding categorization rules")
	rulesRange := flag.String("rules-range", "Rules!A:H", "Sheet range for -rules-sheet")
	rulesBQ := flag.String("rules-bq", "", "BigQuery rules table as project.dataset.table")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	if err := run(ctx, log, options{
		accountsPath: *accountsPath,
		manifestPath: *manifestPath,
		outPath:      *outPath,
		workers:      *workers,
		rulesCSV:     *rulesCSV,
		rulesSheet:   *rulesSheet,
		rulesRange:   *rulesRange,
		rulesBQ:      *rulesBQ,
	}); err != nil {
		log.Fatal().Err(err).Msg("Run failed")
	}
}

type options struct {
	accountsPath string
	manifestPath string
	outPath      string
	workers      int
	rulesCSV     string
	rulesSheet   string
	rulesRange   string
	rulesBQ      string
}

func run(ctx context.Context, log zerolog.Logger, opts options) error {
	executionID := uuid.NewString()
	log.Info().Str("execution_id", executionID).Msg("Starting statement parsing run")

	configs, err := loadAccounts(opts.accountsPath)
	if err != nil {
		return err
	}
	byAccount := make(map[string]fieldparser.AccountConfig, len(configs))
	for _, cfg := range configs {
		byAccount[cfg.ID] = cfg
	}

	jobs, cleanup, err := buildJobs(ctx, opts.manifestPath, byAccount)
	if err != nil {
		return err
	}
	defer cleanup()
	log.Info().Int("documents", len(jobs)).Int("accounts", len(configs)).Msg("Loaded inputs")

	dispatcher := fieldparser.NewDispatcher(llm.NewGemini())
	proc := &pipeline.Processor{
		ExecutionID: executionID,
		Pipeline:    pipeline.NewStatementPipeline(dispatcher),
	}

	results := (&runner.Runner{Workers: opts.workers}).Run(ctx, proc, jobs)

	engine, err := loadRuleEngine(ctx, log, opts)
	if err != nil {
		return err
	}
	if engine != nil {
		engine.Apply(results)
	}

	for _, res := range results {
		if res.Status == statement.StatusFailed {
			log.Warn().
				Str("document_id", res.DocumentID).
				Str("diagnostics", res.Diagnostics).
				Msg("Document failed")
		}
	}

	if err := writeResults(opts.outPath, results); err != nil {
		return err
	}

	log.Info().Str("execution_id", executionID).Msg("Run completed")
	return nil
}

func loadAccounts(path string) ([]fieldparser.AccountConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts config: %w", err)
	}
	defer f.Close()
	return fieldparser.LoadAccountConfigs(f)
}

// buildJobs resolves each manifest entry against the account configs.
// gs:// statements are downloaded to a temp dir that cleanup removes.
func buildJobs(ctx context.Context, path string, byAccount map[string]fieldparser.AccountConfig) ([]pipeline.Job, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open documents manifest: %w", err)
	}
	defer f.Close()

	var m manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, nil, fmt.Errorf("decode documents manifest: %w", err)
	}

	tempDir := ""
	cleanup := func() {
		if tempDir != "" {
			os.RemoveAll(tempDir)
		}
	}

	var jobs []pipeline.Job
	for _, entry := range m.Documents {
		cfg, ok := byAccount[entry.AccountID]
		if !ok {
			// Accounts with run=false are filtered at load; skip their
			// documents rather than failing the whole run.
			continue
		}

		pdfPath := entry.PDF
		if strings.HasPrefix(entry.PDF, "gs://") {
			data, err := gcs.Fetch(ctx, entry.PDF)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("fetch %s: %w", entry.PDF, err)
			}
			if tempDir == "" {
				tempDir, err = os.MkdirTemp("", "ledgerscan-*")
				if err != nil {
					return nil, nil, fmt.Errorf("create temp dir: %w", err)
				}
			}
			pdfPath = filepath.Join(tempDir, gcs.Filename(entry.PDF))
			if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("write %s: %w", pdfPath, err)
			}
		}

		jobs = append(jobs, pipeline.Job{
			DocumentID: entry.DocumentID,
			Date:       entry.Date,
			PDFPath:    pdfPath,
			Config:     cfg,
		})
	}
	return jobs, cleanup, nil
}

// loadRuleEngine picks the rule source from the flags. With no source
// configured, categorization is skipped entirely.
func loadRuleEngine(ctx context.Context, log zerolog.Logger, opts options) (*rules.Engine, error) {
	var source rules.Source
	switch {
	case opts.rulesCSV != "":
		f, err := os.Open(opts.rulesCSV)
		if err != nil {
			return nil, fmt.Errorf("open rules CSV: %w", err)
		}
		defer f.Close()
		source = &rules.CSVSource{Reader: f}
	case opts.rulesSheet != "":
		source = &rules.SheetSource{SpreadsheetID: opts.rulesSheet, ReadRange: opts.rulesRange}
	case opts.rulesBQ != "":
		parts := strings.Split(opts.rulesBQ, ".")
		if len(parts) != 3 {
			return nil, fmt.Errorf("-rules-bq must be project.dataset.table, got %q", opts.rulesBQ)
		}
		source = &rules.BigQuerySource{ProjectID: parts[0], Dataset: parts[1], Table: parts[2]}
	default:
		log.Info().Msg("No rule source configured, skipping categorization")
		return nil, nil
	}

	ruleset, err := source.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	log.Info().Int("rules", len(ruleset)).Msg("Loaded categorization rules")
	return rules.NewEngine(log, ruleset), nil
}

func writeResults(outPath string, results []*statement.ParsedStatement) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
