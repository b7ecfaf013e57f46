// Package fieldparser routes a named document field through its declared
// extraction and processing strategies. Strategy variants form a closed set
// dispatched through a single table; nothing outside this package inspects a
// strategy's concrete identity.
package fieldparser

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledgerscan/ledgerscan/internal/extract"
)

// FieldSourceKind is the kind of raw input a field is parsed from.
type FieldSourceKind string

// FieldSourcePDF is the only supported source kind: a PDF statement
// attachment. Configs declaring any other kind fail with
// UnsupportedFieldSourceError at dispatch time.
const FieldSourcePDF FieldSourceKind = "pdf_attachment"

// ExtractorKind discriminates extraction strategy variants.
type ExtractorKind string

const (
	ExtractorBetween          ExtractorKind = "between"
	ExtractorFloatNearKeyword ExtractorKind = "float_near_keyword"
)

// ExtractorConfig is the closed tagged variant for extraction strategies.
// The populated fields depend on Type.
type ExtractorConfig struct {
	Type ExtractorKind `json:"type"`

	// between
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// float_near_keyword
	Keyword  string            `json:"keyword,omitempty"`
	Location extract.Direction `json:"location,omitempty"`
}

// Validate checks the variant tag and its required fields.
func (c ExtractorConfig) Validate() error {
	switch c.Type {
	case ExtractorBetween:
		if c.Start == "" {
			return fmt.Errorf("extractor %q: start marker is required", c.Type)
		}
	case ExtractorFloatNearKeyword:
		if strings.TrimSpace(c.Keyword) == "" {
			return fmt.Errorf("extractor %q: keyword is required", c.Type)
		}
		if !extract.ValidDirection(c.Location) {
			return fmt.Errorf("extractor %q: invalid location %q", c.Type, c.Location)
		}
	default:
		return fmt.Errorf("unsupported extractor type %q", c.Type)
	}
	return nil
}

// ProcessorKind discriminates processing strategy variants.
type ProcessorKind string

const (
	ProcessorNoop ProcessorKind = "noop"
	ProcessorLLM  ProcessorKind = "llm"
)

// ProcessorConfig is the closed tagged variant for processing strategies.
type ProcessorConfig struct {
	Type  ProcessorKind `json:"type"`
	Model string        `json:"model,omitempty"` // llm only
}

// Validate checks the variant tag.
func (c ProcessorConfig) Validate() error {
	switch c.Type {
	case ProcessorNoop, ProcessorLLM:
		return nil
	default:
		return fmt.Errorf("unsupported processor type %q", c.Type)
	}
}

// FieldConfig declares how one named field is parsed.
type FieldConfig struct {
	Field     string          `json:"field"`
	Source    FieldSourceKind `json:"type"`
	Extractor ExtractorConfig `json:"pdf_extractor"`
	Processor ProcessorConfig `json:"processor"`
}

// AccountConfig declares the fields parsed for one account's statements.
type AccountConfig struct {
	ID           string        `json:"id"`
	Run          bool          `json:"run"`
	FieldParsers []FieldConfig `json:"field_parsers"`
}

// accountsFile is the on-disk shape of the accounts config.
type accountsFile struct {
	Accounts []AccountConfig `json:"accounts"`
}

// LoadAccountConfigs decodes the accounts JSON, keeps only configs with the
// run flag set, and returns them sorted by id. Field order within an account
// is the declaration order and is preserved.
func LoadAccountConfigs(r io.Reader) ([]AccountConfig, error) {
	var file accountsFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("load account configs: %w", err)
	}

	var configs []AccountConfig
	for _, cfg := range file.Accounts {
		if !cfg.Run {
			continue
		}
		if cfg.ID == "" {
			return nil, fmt.Errorf("load account configs: account with empty id")
		}
		for _, fc := range cfg.FieldParsers {
			if fc.Field == "" {
				return nil, fmt.Errorf("load account configs: account %q has a field parser with no field name", cfg.ID)
			}
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs, nil
}
