package enrichment

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
)

// folderID returns the ID of the folder dir: the slash-terminated path.
func folderID(dir string) string {
	return strings.TrimSuffix(dir, "/") + "/"
}

// fileTree builds folder symbols for every directory above an extracted file
// and CONTAINS edges folder → subfolder and folder → module symbol. Files at
// the root and files without a module symbol contribute nothing.
func fileTree(results []*ast.ParseResult) ([]ast.Symbol, []ast.Relation) {
	folders := make(map[string]ast.Symbol)
	edges := make(map[ast.Relation]struct{})
	contains := func(source, target string) {
		edges[ast.Relation{
			SourceID: source,
			TargetID: target,
			Type:     ontology.RelContains,
			Language: ontology.LanguageFilesystem,
		}] = struct{}{}
	}

	for _, r := range results {
		if r == nil || !hasModule(r) {
			continue
		}
		p := path.Clean(filepath.ToSlash(r.Path))
		dir := path.Dir(p)
		if dir == "." || dir == "/" {
			continue
		}
		contains(folderID(dir), ast.ModuleID(r.Path))

		for dir != "." && dir != "/" {
			id := folderID(dir)
			if _, seen := folders[id]; seen {
				break
			}
			folders[id] = ast.Symbol{
				ID:       id,
				Name:     path.Base(dir),
				Kind:     ontology.KindFolder,
				Language: ontology.LanguageFilesystem,
				Path:     id,
			}
			parent := path.Dir(dir)
			if parent != "." && parent != "/" {
				contains(folderID(parent), id)
			}
			dir = parent
		}
	}

	symbols := make([]ast.Symbol, 0, len(folders))
	for _, s := range folders {
		symbols = append(symbols, s)
	}
	slices.SortFunc(symbols, func(a, b ast.Symbol) int { return strings.Compare(a.ID, b.ID) })

	relations := make([]ast.Relation, 0, len(edges))
	for e := range edges {
		relations = append(relations, e)
	}
	slices.SortFunc(relations, func(a, b ast.Relation) int {
		if c := strings.Compare(a.SourceID, b.SourceID); c != 0 {
			return c
		}
		return strings.Compare(a.TargetID, b.TargetID)
	})
	return symbols, relations
}

func hasModule(r *ast.ParseResult) bool {
	id := ast.ModuleID(r.Path)
	for _, s := range r.Symbols {
		if s.ID == id {
			return true
		}
	}
	return false
}
