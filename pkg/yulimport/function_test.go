package yulimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFunctionsBasic(t *testing.T) {
	block := `
function add(a, b) -> c {
    c := add(a, b)
}
function mul(a, b) -> c {
    c := mul(a, b)
}
`
	funcs := ExtractFunctions(block, "a.presl")
	require.Equal(t, 2, funcs.len())
	assert.Equal(t, []string{"add", "mul"}, funcs.names())

	add, ok := funcs.get("add")
	require.True(t, ok)
	assert.Equal(t, "a.presl", add.SourceFile)
	assert.Contains(t, add.FullText, "function add(a, b) -> c {")
	assert.Contains(t, add.Body, "c := add(a, b)")
}

func TestExtractFunctionsMultilineSignature(t *testing.T) {
	block := `
function complexFn(
    a,
    b
) -> c {
    c := a
}
`
	funcs := ExtractFunctions(block, "a.presl")
	require.Equal(t, 1, funcs.len())
	fn, _ := funcs.get("complexFn")
	assert.Contains(t, fn.Signature, "complexFn")
}

func TestExtractFunctionsDuplicateNameLastWins(t *testing.T) {
	block := `
function f() -> x {
    x := 1
}
function f() -> x {
    x := 2
}
`
	funcs := ExtractFunctions(block, "a.presl")
	require.Equal(t, 1, funcs.len())
	fn, _ := funcs.get("f")
	assert.Contains(t, fn.Body, "x := 2")
}

func TestExtractFunctionsSlitherAnnotations(t *testing.T) {
	block := `
// slither-disable-start reentrancy
function risky() {
    sstore(0, 1)
}
// slither-disable-end reentrancy
function safe() {
    sstore(0, 2)
}
`
	funcs := ExtractFunctions(block, "a.presl")
	require.Equal(t, 2, funcs.len())

	risky, _ := funcs.get("risky")
	assert.Contains(t, risky.PreAnnotations, "slither-disable-start")
	assert.Contains(t, risky.PostAnnotations, "slither-disable-end")

	safe, _ := funcs.get("safe")
	assert.Empty(t, safe.PreAnnotations)
}

func TestFuncSetAddSignatureConflict(t *testing.T) {
	s := newFuncSet()
	a := &YulFunction{Name: "f", Signature: "function f() -> x"}
	b := &YulFunction{Name: "f", Signature: "function f(y) -> x"}

	require.NoError(t, s.add(a))
	err := s.add(b)
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrSignatureConflict, rerr.Kind)
}

func TestFuncSetMergePreservesOrder(t *testing.T) {
	a := newFuncSet()
	require.NoError(t, a.add(&YulFunction{Name: "first", Signature: "sig1"}))

	b := newFuncSet()
	require.NoError(t, b.add(&YulFunction{Name: "second", Signature: "sig2"}))
	require.NoError(t, b.add(&YulFunction{Name: "first", Signature: "sig1"}))

	require.NoError(t, a.merge(b))
	assert.Equal(t, []string{"first", "second"}, a.names())
}
