package fieldparser

import "fmt"

// UnsupportedFieldSourceError is a configuration error: a field declared a
// source kind with no extraction strategy. Fatal for the document.
type UnsupportedFieldSourceError struct {
	Field  string
	Source FieldSourceKind
}

func (e *UnsupportedFieldSourceError) Error() string {
	return fmt.Sprintf("field %q: unsupported source kind %q", e.Field, e.Source)
}

// ProcessingError wraps a processor failure for a field, including the LLM
// path's response-parse failures. Fatal for the document; never retried.
type ProcessingError struct {
	Field string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("field %q: processing failed: %v", e.Field, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
