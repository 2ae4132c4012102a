package ast

import (
	"errors"
	"fmt"
)

// ErrLanguageNotSupported is returned when no extractor is registered for a language.
var ErrLanguageNotSupported = errors.New("language not supported")

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticKind classifies what went wrong.
type DiagnosticKind string

const (
	// KindLanguageNotSupported: no extractor for the file's language; the file was skipped.
	KindLanguageNotSupported DiagnosticKind = "language_not_supported"
	// KindOntologyViolation: an emitted symbol or relation was outside the ontology and dropped.
	KindOntologyViolation DiagnosticKind = "ontology_violation"
	// KindDegradedExtraction: the pattern strategy ran instead of the grammar.
	KindDegradedExtraction DiagnosticKind = "degraded_extraction"
	// KindMalformedInput: no structure recognised.
	KindMalformedInput DiagnosticKind = "malformed_input"
	// KindSyntaxError: the grammar reported errors; extraction is partial.
	KindSyntaxError DiagnosticKind = "syntax_error"
	// KindCanceled: extraction stopped because the context ended.
	KindCanceled DiagnosticKind = "canceled"
	// KindExtractorFailed: the extractor panicked or returned nothing; the file contributes no graph.
	KindExtractorFailed DiagnosticKind = "extractor_failed"
)

// Diagnostic reports a non-fatal problem found while extracting or enriching.
type Diagnostic struct {
	Severity Severity       `json:"severity" yaml:"severity"`
	Kind     DiagnosticKind `json:"kind" yaml:"kind"`
	Message  string         `json:"message" yaml:"message"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("%s: %s: %s (%s)", d.Path, d.Severity, d.Message, d.Kind)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Kind)
}

// Warning builds a warning diagnostic.
func Warning(kind DiagnosticKind, path, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Error builds an error diagnostic.
func Error(kind DiagnosticKind, path, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Path: path, Message: fmt.Sprintf(format, args...)}
}

// HasDiagnostic reports whether diags contains one of the given kind.
func HasDiagnostic(diags []Diagnostic, kind DiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
