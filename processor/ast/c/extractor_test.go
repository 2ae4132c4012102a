package c

import (
	"context"
	"testing"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

const listSource = `#include <stdio.h>
#include "list.h"

#define MAX_ITEMS 64
#define SQUARE(x) ((x) * (x))

/* int ghost(void) { return 0; } */

struct node {
    int value;
    struct node *next;
};

union number {
    int i;
    float f;
};

enum color { RED, GREEN };

typedef struct node node_t;

static node_t *make_node(int value) {
    node_t *n = malloc(sizeof(node_t));
    n->value = SQUARE(value);
    return n;
}

int main(void) {
    node_t *head = make_node(1);
    if (head) {
        printf("%d\n", head->value);
    }
    return 0;
}
`

func findSymbol(r *ast.ParseResult, id string) *ast.Symbol {
	for i := range r.Symbols {
		if r.Symbols[i].ID == id {
			return &r.Symbols[i]
		}
	}
	return nil
}

func hasRelation(r *ast.ParseResult, kind ontology.RelationKind, source, target string) bool {
	for _, rel := range r.Relations {
		if rel.Type == kind && rel.SourceID == source && rel.TargetID == target {
			return true
		}
	}
	return false
}

var wantSymbols = map[string]ontology.NodeKind{
	"list.c#":          ontology.KindFile,
	"list.c#MAX_ITEMS": ontology.KindMacro,
	"list.c#SQUARE":    ontology.KindMacro,
	"list.c#node":      ontology.KindStruct,
	"list.c#number":    ontology.KindUnion,
	"list.c#color":     ontology.KindEnum,
	"list.c#node_t":    ontology.KindTypedef,
	"list.c#make_node": ontology.KindFunction,
	"list.c#main":      ontology.KindFunction,
}

func checkSymbols(t *testing.T, r *ast.ParseResult) {
	t.Helper()
	for id, kind := range wantSymbols {
		s := findSymbol(r, id)
		if s == nil {
			t.Errorf("symbol %s not found", id)
			continue
		}
		if s.Kind != kind {
			t.Errorf("symbol %s kind = %q, want %q", id, s.Kind, kind)
		}
	}
	if findSymbol(r, "list.c#ghost") != nil {
		t.Error("symbol fabricated from a comment")
	}
	for _, target := range []string{"stdio.h", "list.h"} {
		if !hasRelation(r, ontology.RelIncludes, "list.c#", target) {
			t.Errorf("missing INCLUDES %s", target)
		}
	}
}

func TestParse_Grammar(t *testing.T) {
	e := New(grammar.Builtin())
	if e.Strategy() != ast.StrategyGrammar {
		t.Fatalf("Strategy = %q, want grammar", e.Strategy())
	}
	r := e.Parse(context.Background(), []byte(listSource), "list.c")
	for _, d := range r.Diagnostics {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	checkSymbols(t, r)

	for _, want := range []struct {
		source, target string
	}{
		{"list.c#main", "list.c#make_node"},
		{"list.c#main", "printf"},
		{"list.c#make_node", "malloc"},
	} {
		if !hasRelation(r, ontology.RelCalls, want.source, want.target) {
			t.Errorf("missing CALLS %s -> %s", want.source, want.target)
		}
	}
	if hasRelation(r, ontology.RelCalls, "list.c#make_node", "sizeof") {
		t.Error("sizeof reported as a call")
	}
}

func TestParse_PatternFallback(t *testing.T) {
	e := New(grammar.Without(grammar.Builtin(), grammar.C))
	if e.Strategy() != ast.StrategyPattern {
		t.Fatalf("Strategy = %q, want pattern", e.Strategy())
	}
	r := e.Parse(context.Background(), []byte(listSource), "list.c")
	if !ast.HasDiagnostic(r.Diagnostics, ast.KindDegradedExtraction) {
		t.Error("expected degraded-extraction warning")
	}
	checkSymbols(t, r)
	for _, rel := range r.Relations {
		if rel.Type == ontology.RelCalls {
			t.Errorf("pattern strategy emitted call %v", rel)
		}
	}
}

func TestParse_TypedefBlock(t *testing.T) {
	src := "typedef struct {\n    int x;\n    int y;\n} point_t;\n"
	for name, p := range map[string]grammar.Provider{"grammar": grammar.Builtin(), "pattern": grammar.None()} {
		t.Run(name, func(t *testing.T) {
			r := New(p).Parse(context.Background(), []byte(src), "geom.h")
			s := findSymbol(r, "geom.h#point_t")
			if s == nil || s.Kind != ontology.KindTypedef {
				t.Errorf("typedef point_t not found, got %v", r.Symbols)
			}
		})
	}
}
