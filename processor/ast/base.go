package ast

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

// WalkFunc extracts from a syntax tree.
type WalkFunc func(b *Builder, root *sitter.Node, src []byte)

// PatternFunc extracts from raw text.
type PatternFunc func(b *Builder, src []byte)

// Base carries what every extractor shares: its ontology and the strategy
// chosen at construction. Extractors embed it.
type Base struct {
	ont      ontology.Ontology
	strategy Strategy
	lang     *sitter.Language
}

// NewBase picks the grammar strategy when grammars offers the named grammar
// and the pattern strategy otherwise.
func NewBase(ont ontology.Ontology, grammars grammar.Provider, name string) Base {
	b := Base{ont: ont, strategy: StrategyPattern}
	if grammars == nil {
		return b
	}
	if l, ok := grammars.Lookup(name); ok {
		b.lang = l
		b.strategy = StrategyGrammar
	}
	return b
}

func (b Base) Language() ontology.Language { return b.ont.Language }
func (b Base) Ontology() ontology.Ontology { return b.ont }
func (b Base) Strategy() Strategy          { return b.strategy }

// Grammar returns the resolved grammar, nil under the pattern strategy.
func (b Base) Grammar() *sitter.Language { return b.lang }

// Run extracts content with the resolved strategy.
func (b Base) Run(ctx context.Context, content []byte, path string, walk WalkFunc, pattern PatternFunc) *ParseResult {
	return b.RunWith(ctx, b.lang, content, path, walk, pattern)
}

// RunWith extracts content with lang instead of the resolved grammar. A nil
// lang or a grammar failure runs pattern.
func (b Base) RunWith(ctx context.Context, lang *sitter.Language, content []byte, path string, walk WalkFunc, pattern PatternFunc) *ParseResult {
	if err := ctx.Err(); err != nil {
		return Canceled(b.ont, path, b.strategy, err)
	}

	if b.strategy == StrategyPattern || lang == nil {
		bld := NewBuilder(b.ont, path, StrategyPattern)
		pattern(bld, content)
		return bld.Result()
	}

	tree, err := grammar.Parse(ctx, lang, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Canceled(b.ont, path, b.strategy, ctxErr)
		}
		bld := NewBuilder(b.ont, path, StrategyPattern)
		bld.Warn(KindSyntaxError, "grammar parse failed: %v", err)
		pattern(bld, content)
		return bld.Result()
	}
	defer tree.Close()

	root := tree.RootNode()
	bld := NewBuilder(b.ont, path, StrategyGrammar)
	if line, ok := grammar.FirstError(root); ok {
		bld.Warn(KindSyntaxError, "syntax error near line %d; extraction is partial", line)
	}
	walk(bld, root, content)
	return bld.Result()
}

// Canceled returns an empty result for an extraction stopped by its context.
func Canceled(ont ontology.Ontology, path string, strategy Strategy, err error) *ParseResult {
	if path == "" {
		path = DefaultPath
	}
	return &ParseResult{
		Language:    ont.Language,
		Path:        path,
		Strategy:    strategy,
		Symbols:     []Symbol{},
		Relations:   []Relation{},
		Diagnostics: []Diagnostic{Warning(KindCanceled, path, "extraction canceled: %v", err)},
	}
}
