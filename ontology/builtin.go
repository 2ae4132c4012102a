package ontology

// Builtin returns fresh copies of the built-in ontologies.
func Builtin() []Ontology {
	return []Ontology{
		Python(),
		JavaScript(),
		Rust(),
		C(),
		Bash(),
		PHP(),
		Vue(),
		Filesystem(),
	}
}

func Python() Ontology {
	return New(LanguagePython, ".",
		[]NodeKind{KindModule, KindClass, KindFunction, KindMethod, KindVariable},
		[]RelationKind{
			RelContains, RelImports, RelCalls, RelExtends, RelDecorates,
			RelInstantiates, RelRaises, RelCatches, RelAsyncAwaits,
			RelWithContext, RelYields,
		}).
		Describe("Python modules, classes and functions with decorator, exception, async and context-manager flow")
}

func javaScriptRelations() []RelationKind {
	return []RelationKind{
		RelContains, RelImports, RelRequires, RelCalls, RelExtends,
		RelInstantiates, RelAsyncAwaits, RelRaises,
	}
}

func JavaScript() Ontology {
	return New(LanguageJavaScript, ".",
		[]NodeKind{KindModule, KindClass, KindFunction, KindMethod, KindVariable},
		javaScriptRelations()).
		Describe("JavaScript and TypeScript modules with ES imports, CommonJS requires, classes and async calls")
}

func Rust() Ontology {
	return New(LanguageRust, "::",
		[]NodeKind{KindModule, KindMod, KindStruct, KindEnum, KindTrait, KindFunction, KindMethod},
		[]RelationKind{RelContains, RelImports, RelCalls, RelImplements}).
		Describe("Rust crates, modules, types and traits with use imports and trait implementations")
}

func C() Ontology {
	return New(LanguageC, "::",
		[]NodeKind{KindFile, KindFunction, KindStruct, KindUnion, KindEnum, KindTypedef, KindMacro},
		[]RelationKind{RelContains, RelIncludes, RelCalls}).
		Describe("C translation units with includes, macros, aggregate types and calls")
}

func Bash() Ontology {
	return New(LanguageBash, "::",
		[]NodeKind{KindScript, KindFunction, KindVariable},
		[]RelationKind{RelContains, RelSources, RelCalls}).
		Describe("Shell scripts with sourced files, functions and global variables")
}

func PHP() Ontology {
	return New(LanguagePHP, "::",
		[]NodeKind{KindFile, KindNamespace, KindClass, KindInterface, KindTrait, KindFunction, KindMethod},
		[]RelationKind{
			RelContains, RelIncludes, RelUses, RelCalls, RelExtends,
			RelImplements, RelInstantiates,
		}).
		Describe("PHP files with namespaces, OOP types, includes and namespace imports")
}

// Vue accepts everything a script block may produce plus component composition.
func Vue() Ontology {
	return New(LanguageVue, ".",
		[]NodeKind{KindComponent, KindModule, KindClass, KindFunction, KindMethod, KindVariable},
		append(javaScriptRelations(), RelChildComponent)).
		Describe("Vue single-file components: script symbols plus child component composition")
}

// Filesystem describes the folder/file containment tree. Folder IDs are
// slash-terminated paths, so the separator measures nesting.
func Filesystem() Ontology {
	return New(LanguageFilesystem, "/",
		[]NodeKind{KindFolder},
		[]RelationKind{RelContains}).
		Describe("Folder and file containment tree of the indexed repository")
}
