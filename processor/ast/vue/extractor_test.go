package vue

import (
	"context"
	"testing"

	"github.com/c360studio/semgraph/ontology"
	"github.com/c360studio/semgraph/processor/ast"
	"github.com/c360studio/semgraph/processor/ast/grammar"
)

const cardSource = `<template>
  <div class="card">
    <UserAvatar :src="user.avatar" />
    <user-badge :level="level"></user-badge>
    <router-link to="/home">Home</router-link>
    <template v-if="open">
      <DetailPanel />
    </template>
    <transition><span>hi</span></transition>
  </div>
</template>

<script>
import UserAvatar from './UserAvatar.vue';
import { formatName } from '../util/format';

export default {
  name: 'ProfileCard',
  components: { UserAvatar, 'user-badge': UserBadge },
  methods: {
    display(user) {
      return formatName(user);
    },
  },
};
</script>

<style scoped>
.card { color: red; }
</style>
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

func TestParse_Component(t *testing.T) {
	for name, p := range map[string]grammar.Provider{
		"grammar": grammar.Builtin(),
		"pattern": grammar.Without(grammar.Builtin(), grammar.JavaScript),
	} {
		t.Run(name, func(t *testing.T) {
			r := New(p).Parse(context.Background(), []byte(cardSource), "src/ProfileCard.vue")

			if r.Language != ontology.LanguageVue {
				t.Errorf("Language = %q, want vue", r.Language)
			}
			comp := findSymbol(r, "src/ProfileCard.vue#")
			if comp == nil {
				t.Fatal("component symbol not found")
			}
			if comp.Kind != ontology.KindComponent || comp.Name != "ProfileCard" {
				t.Errorf("component = %+v", comp)
			}
			for _, s := range r.Symbols {
				if s.Language != ontology.LanguageVue {
					t.Errorf("symbol %s language = %q, want vue", s.ID, s.Language)
				}
				if s.Path != "src/ProfileCard.vue" {
					t.Errorf("symbol %s path = %q", s.ID, s.Path)
				}
			}

			for _, child := range []string{"UserAvatar", "UserBadge", "DetailPanel"} {
				if !hasRelation(r, ontology.RelChildComponent, "src/ProfileCard.vue#", child) {
					t.Errorf("missing CHILD_COMPONENT %s", child)
				}
			}
			for _, rel := range r.Relations {
				if rel.Type != ontology.RelChildComponent {
					continue
				}
				switch rel.TargetID {
				case "RouterLink", "router-link", "Transition", "div", "span", "Template":
					t.Errorf("unexpected CHILD_COMPONENT %s", rel.TargetID)
				}
			}
			if !hasRelation(r, ontology.RelImports, "src/ProfileCard.vue#", "./UserAvatar.vue") {
				t.Error("missing script import")
			}
			wantStrategy := ast.StrategyGrammar
			if name == "pattern" {
				wantStrategy = ast.StrategyPattern
			}
			if r.Strategy != wantStrategy {
				t.Errorf("Strategy = %q, want %q", r.Strategy, wantStrategy)
			}
		})
	}
}

func TestParse_ScriptLineOffset(t *testing.T) {
	src := "<template>\n  <div/>\n</template>\n<script setup lang=\"ts\">\nfunction greet(name: string) {\n  return name\n}\n</script>\n"
	r := New(grammar.Builtin()).Parse(context.Background(), []byte(src), "Hello.vue")

	s := findSymbol(r, "Hello.vue#greet")
	if s == nil {
		t.Fatalf("greet not found in %v", r.Symbols)
	}
	if s.StartLine != 5 {
		t.Errorf("greet StartLine = %d, want 5", s.StartLine)
	}
	if s.Kind != ontology.KindFunction {
		t.Errorf("greet kind = %q", s.Kind)
	}
	if c := findSymbol(r, "Hello.vue#"); c == nil || c.Name != "Hello" {
		t.Errorf("component named from file stem, got %+v", c)
	}
}

func TestParse_Malformed(t *testing.T) {
	r := New(grammar.Builtin()).Parse(context.Background(), []byte("just some text"), "Empty.vue")
	if len(r.Symbols) != 0 || len(r.Relations) != 0 {
		t.Errorf("expected empty result, got %d symbols %d relations", len(r.Symbols), len(r.Relations))
	}
	if !ast.HasDiagnostic(r.Diagnostics, ast.KindMalformedInput) {
		t.Error("expected malformed-input warning")
	}
}

func TestPascalCase(t *testing.T) {
	tests := map[string]string{
		"user-badge": "UserBadge",
		"UserAvatar": "UserAvatar",
		"x-y-z":      "XYZ",
		"my--double": "MyDouble",
	}
	for in, want := range tests {
		if got := pascalCase(in); got != want {
			t.Errorf("pascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsComponentTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"UserCard", true},
		{"user-card", true},
		{"div", false},
		{"keep-alive", false},
		{"router-view", false},
		{"Transition", false},
		{"clipPath", false},
	}
	for _, tt := range tests {
		if got := isComponentTag(tt.tag); got != tt.want {
			t.Errorf("isComponentTag(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}
