package ast

import (
	"context"

	"github.com/c360studio/semgraph/ontology"
)

// Strategy is how an extractor reads source text.
type Strategy string

const (
	// StrategyGrammar walks a tree-sitter syntax tree.
	StrategyGrammar Strategy = "grammar"
	// StrategyPattern matches line-oriented regular expressions. Always reported
	// through a degraded-extraction warning.
	StrategyPattern Strategy = "pattern"
)

// Extractor turns the source of one file into symbols and relations.
//
// Parse never fails: every problem is reported as a diagnostic on the result,
// and every relation in the result belongs to the extractor's ontology.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Language() ontology.Language
	Ontology() ontology.Ontology
	Strategy() Strategy
	Parse(ctx context.Context, content []byte, path string) *ParseResult
}

// DefaultPath stands in for the path of content that did not come from a file.
const DefaultPath = "<memory>"
