package php

import (
	"context"
	"testing"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

const userSource = `<?php
namespace App\Models;

use Illuminate\Support\Str;
use App\Contracts\Arrayable as ArrayContract;

require_once 'bootstrap.php';

interface HasName
{
    public function name(): string;
}

trait Greets
{
    public function greet()
    {
        return 'hi';
    }
}

/* class Ghost {} */

final class User extends Model implements HasName, \JsonSerializable
{
    public function name(): string
    {
        return Str::upper($this->format());
    }

    private function format()
    {
        return helper(new Formatter());
    }
}

function helper($x)
{
    return $x;
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

const ns = `User.php#App\Models`

func checkCommon(t *testing.T, r *ast.ParseResult) {
	t.Helper()
	for id, kind := range map[string]ontology.NodeKind{
		"User.php#":            ontology.KindFile,
		ns:                     ontology.KindNamespace,
		ns + "::HasName":       ontology.KindInterface,
		ns + "::Greets":        ontology.KindTrait,
		ns + "::Greets::greet": ontology.KindMethod,
		ns + "::User":          ontology.KindClass,
		ns + "::User::name":    ontology.KindMethod,
		ns + "::User::format":  ontology.KindMethod,
		ns + "::helper":        ontology.KindFunction,
	} {
		s := findSymbol(r, id)
		if s == nil {
			t.Errorf("symbol %s not found", id)
			continue
		}
		if s.Kind != kind {
			t.Errorf("symbol %s kind = %q, want %q", id, s.Kind, kind)
		}
	}
	if findSymbol(r, ns+"::Ghost") != nil {
		t.Error("symbol fabricated from a comment")
	}

	relations := []struct {
		kind           ontology.RelationKind
		source, target string
	}{
		{ontology.RelUses, ns, `Illuminate\Support\Str`},
		{ontology.RelUses, ns, `App\Contracts\Arrayable`},
		{ontology.RelIncludes, "User.php#", "bootstrap.php"},
		{ontology.RelExtends, ns + "::User", "Model"},
		{ontology.RelImplements, ns + "::User", ns + "::HasName"},
		{ontology.RelImplements, ns + "::User", "JsonSerializable"},
	}
	for _, want := range relations {
		if !hasRelation(r, want.kind, want.source, want.target) {
			t.Errorf("missing %s %s -> %s", want.kind, want.source, want.target)
		}
	}
}

func TestParse_Grammar(t *testing.T) {
	e := New(grammar.Builtin())
	if e.Strategy() != ast.StrategyGrammar {
		t.Fatalf("Strategy = %q, want grammar", e.Strategy())
	}
	r := e.Parse(context.Background(), []byte(userSource), "User.php")
	for _, d := range r.Diagnostics {
		t.Errorf("unexpected diagnostic: %s", d)
	}
	checkCommon(t, r)

	relations := []struct {
		kind           ontology.RelationKind
		source, target string
	}{
		{ontology.RelCalls, ns + "::User::name", `Str::upper`},
		{ontology.RelCalls, ns + "::User::name", ns + "::User::format"},
		{ontology.RelCalls, ns + "::User::format", ns + "::helper"},
		{ontology.RelInstantiates, ns + "::User::format", "Formatter"},
	}
	for _, want := range relations {
		if !hasRelation(r, want.kind, want.source, want.target) {
			t.Errorf("missing %s %s -> %s", want.kind, want.source, want.target)
		}
	}
}

func TestParse_PatternFallback(t *testing.T) {
	r := New(grammar.None()).Parse(context.Background(), []byte(userSource), "User.php")
	if r.Strategy != ast.StrategyPattern {
		t.Fatalf("Strategy = %q, want pattern", r.Strategy)
	}
	if !ast.HasDiagnostic(r.Diagnostics, ast.KindDegradedExtraction) {
		t.Error("expected degraded-extraction warning")
	}
	checkCommon(t, r)
}

func TestIncludeTarget(t *testing.T) {
	tests := map[string]string{
		`'config.php'`:   "config.php",
		`("lib/db.php")`: "lib/db.php",
		` 'spaced.php' `: "spaced.php",
	}
	for in, want := range tests {
		if got := includeTarget(in); got != want {
			t.Errorf("includeTarget(%q) = %q, want %q", in, got, want)
		}
	}
}
