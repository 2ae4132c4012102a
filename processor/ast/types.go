// Package ast defines the extraction contract shared by the per-language
// extractors: symbols, relations, diagnostics and the registry that maps
// languages to extractors.
package ast

import (
	"strings"

	"github.com/c360studio/semgraph/ontology"
)

// ScopeAnchor separates a file path from the scope-qualified name in a symbol ID.
const ScopeAnchor = "#"

// Symbol is a named code entity.
type Symbol struct {
	// ID is unique across a run: <path>#<scope-qualified name>.
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	Kind      ontology.NodeKind `json:"kind" yaml:"kind"`
	Language  ontology.Language `json:"language" yaml:"language"`
	Path      string            `json:"path" yaml:"path"`
	ScopePath []string          `json:"scope_path,omitempty" yaml:"scope_path,omitempty"`
	StartLine int               `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   int               `json:"end_line,omitempty" yaml:"end_line,omitempty"`
}

// Relation is a directed, typed edge. TargetID is either a symbol ID or, when
// the target was not found among extracted symbols, its textual name.
type Relation struct {
	SourceID string                `json:"source_id" yaml:"source_id"`
	TargetID string                `json:"target_id" yaml:"target_id"`
	Type     ontology.RelationKind `json:"type" yaml:"type"`
	Language ontology.Language     `json:"language" yaml:"language"`
}

// ParseResult is the output of one extraction.
type ParseResult struct {
	Language    ontology.Language `json:"language" yaml:"language"`
	Path        string            `json:"path" yaml:"path"`
	Strategy    Strategy          `json:"strategy" yaml:"strategy"`
	Symbols     []Symbol          `json:"symbols" yaml:"symbols"`
	Relations   []Relation        `json:"relations" yaml:"relations"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Empty reports whether nothing was extracted.
func (r *ParseResult) Empty() bool {
	return len(r.Symbols) == 0 && len(r.Relations) == 0
}

// SymbolID builds the ID of a symbol named name inside scope, in file path.
// A nil scope and empty name yield the ID of the file's module symbol.
func SymbolID(path, sep string, scope []string, name string) string {
	parts := make([]string, 0, len(scope)+1)
	parts = append(parts, scope...)
	if name != "" {
		parts = append(parts, name)
	}
	return path + ScopeAnchor + strings.Join(parts, sep)
}

// ModuleID returns the ID of the module symbol of path.
func ModuleID(path string) string {
	return path + ScopeAnchor
}

// ScopeDepth counts the scope boundaries in id. Only the part after the
// anchor is considered when the anchor is present.
func ScopeDepth(id, sep string) int {
	if sep == "" {
		return 0
	}
	if i := strings.Index(id, ScopeAnchor); i >= 0 {
		id = id[i+len(ScopeAnchor):]
	}
	return strings.Count(id, sep)
}
