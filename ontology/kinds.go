// Package ontology defines the closed vocabularies of node kinds and relation kinds
// that each supported language may emit, and a registry to look them up.
package ontology

// Language identifies a source language handled by an extractor.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageRust       Language = "rust"
	LanguageC          Language = "c"
	LanguageBash       Language = "bash"
	LanguagePHP        Language = "php"
	LanguageVue        Language = "vue"

	// LanguageFilesystem is not a source language. It carries the folder/file
	// containment tree built around extracted files.
	LanguageFilesystem Language = "filesystem"
)

// SourceLanguages returns the languages that have an extractor, in a stable order.
func SourceLanguages() []Language {
	return []Language{
		LanguagePython,
		LanguageJavaScript,
		LanguageRust,
		LanguageC,
		LanguageBash,
		LanguagePHP,
		LanguageVue,
	}
}

// ParseLanguage maps a language name to its Language value.
func ParseLanguage(name string) (Language, bool) {
	for _, l := range append(SourceLanguages(), LanguageFilesystem) {
		if string(l) == name {
			return l, true
		}
	}
	return "", false
}

// NodeKind classifies a symbol.
type NodeKind string

const (
	KindModule    NodeKind = "module"
	KindClass     NodeKind = "class"
	KindFunction  NodeKind = "function"
	KindMethod    NodeKind = "method"
	KindVariable  NodeKind = "variable"
	KindMod       NodeKind = "mod" // rust inline module
	KindStruct    NodeKind = "struct"
	KindUnion     NodeKind = "union"
	KindEnum      NodeKind = "enum"
	KindTrait     NodeKind = "trait"
	KindTypedef   NodeKind = "typedef"
	KindMacro     NodeKind = "macro"
	KindFile      NodeKind = "file"
	KindScript    NodeKind = "script"
	KindNamespace NodeKind = "namespace"
	KindInterface NodeKind = "interface"
	KindComponent NodeKind = "component"
	KindFolder    NodeKind = "folder"
)

// RelationKind classifies a directed edge between two symbols.
type RelationKind string

const (
	// Structure
	RelContains RelationKind = "CONTAINS"
	RelDefines  RelationKind = "DEFINES"

	// Dependencies
	RelImports  RelationKind = "IMPORTS"
	RelRequires RelationKind = "REQUIRES"
	RelIncludes RelationKind = "INCLUDES"
	RelSources  RelationKind = "SOURCES"
	RelUses     RelationKind = "USES"

	// Type hierarchy
	RelExtends    RelationKind = "EXTENDS"
	RelImplements RelationKind = "IMPLEMENTS"
	RelOverrides  RelationKind = "OVERRIDES"
	RelDecorates  RelationKind = "DECORATES"

	// Execution
	RelCalls        RelationKind = "CALLS"
	RelAsyncAwaits  RelationKind = "ASYNC_AWAITS"
	RelYields       RelationKind = "YIELDS"
	RelReturns      RelationKind = "RETURNS"
	RelInstantiates RelationKind = "INSTANTIATES"
	RelRaises       RelationKind = "RAISES"
	RelCatches      RelationKind = "CATCHES"
	RelWithContext  RelationKind = "WITH_CONTEXT"

	// Data flow
	RelReads  RelationKind = "READS"
	RelWrites RelationKind = "WRITES"

	// Components
	RelChildComponent RelationKind = "CHILD_COMPONENT"
)

// UnknownFunctionalWeight is the functional importance of a relation kind
// that an ontology does not rate.
const UnknownFunctionalWeight = 0.5

// DefaultFunctionalWeights rates how much each relation kind matters at runtime.
// Execution edges rate highest, declarative dependency edges lowest.
var DefaultFunctionalWeights = map[RelationKind]float64{
	RelCalls:          1.0,
	RelAsyncAwaits:    1.0,
	RelYields:         1.0,
	RelReturns:        1.0,
	RelRaises:         0.95,
	RelCatches:        0.95,
	RelDefines:        0.8,
	RelWrites:         0.8,
	RelInstantiates:   0.8,
	RelUses:           0.7,
	RelReads:          0.7,
	RelWithContext:    0.65,
	RelChildComponent: 0.6,
	RelOverrides:      0.5,
	RelDecorates:      0.5,
	RelContains:       0.3,
	RelSources:        0.3,
	RelExtends:        0.2,
	RelImplements:     0.2,
	RelImports:        0.2,
	RelRequires:       0.2,
	RelIncludes:       0.2,
}
