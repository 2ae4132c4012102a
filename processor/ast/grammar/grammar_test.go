package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltin_AllGrammarsProbe(t *testing.T) {
	table := Builtin()

	for _, name := range []string{Python, JavaScript, TypeScript, Rust, C, Bash, PHP} {
		lang, ok := table.Lookup(name)
		assert.True(t, ok, "grammar %s should be available", name)
		assert.NotNil(t, lang)
	}
	assert.Len(t, table.Names(), 7)
}

func TestWithout(t *testing.T) {
	p := Without(Builtin(), Rust, Bash)

	_, ok := p.Lookup(Rust)
	assert.False(t, ok)
	_, ok = p.Lookup(Bash)
	assert.False(t, ok)
	_, ok = p.Lookup(Python)
	assert.True(t, ok)
}

func TestNone(t *testing.T) {
	_, ok := None().Lookup(Python)
	assert.False(t, ok)

	_, ok = Without(nil, Python).Lookup(C)
	assert.False(t, ok)
}
