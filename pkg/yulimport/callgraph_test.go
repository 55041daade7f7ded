package yulimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUniverse(t *testing.T, defs map[string]string) *funcSet {
	t.Helper()
	s := newFuncSet()
	for name, body := range defs {
		require.NoError(t, s.add(&YulFunction{
			Name:      name,
			Signature: "function " + name + "()",
			Body:      body,
			FullText:  "function " + name + "() {\n" + body + "\n}",
		}))
	}
	return s
}

func TestCalledNamesRestrictsToUniverse(t *testing.T) {
	universe := buildUniverse(t, map[string]string{
		"helper": "",
		"other":  "",
	})
	body := "helper() unrelated() other()"
	called := CalledNames(body, universe)

	assert.True(t, called["helper"])
	assert.True(t, called["other"])
	assert.False(t, called["unrelated"])
}

func TestClosureTransitive(t *testing.T) {
	universe := buildUniverse(t, map[string]string{
		"top":    "mid()",
		"mid":    "bottom()",
		"bottom": "",
		"unused": "",
	})

	closure := Closure("top", universe)

	assert.True(t, closure.contains("top"))
	assert.True(t, closure.contains("mid"))
	assert.True(t, closure.contains("bottom"))
	assert.False(t, closure.contains("unused"))
	assert.Equal(t, 3, closure.len())
}

func TestClosureHandlesCycles(t *testing.T) {
	universe := buildUniverse(t, map[string]string{
		"a": "b()",
		"b": "a()",
	})

	closure := Closure("a", universe)
	assert.Equal(t, 2, closure.len())
	assert.True(t, closure.contains("a"))
	assert.True(t, closure.contains("b"))
}

func TestClosureUnknownNameIsEmpty(t *testing.T) {
	universe := buildUniverse(t, map[string]string{"a": ""})
	closure := Closure("missing", universe)
	assert.Equal(t, 0, closure.len())
}

func TestClosureDeterministicOrder(t *testing.T) {
	universe := buildUniverse(t, map[string]string{
		"top":    "a() b()",
		"a":      "",
		"b":      "",
	})

	first := Closure("top", universe).names()
	second := Closure("top", universe).names()
	assert.Equal(t, first, second)
}
