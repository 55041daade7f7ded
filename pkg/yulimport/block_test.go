package yulimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAssemblyBlocksSingle(t *testing.T) {
	src := `contract C {
    function f() internal {
        assembly {
            let x := 1
        }
    }
}`
	blocks := FindAssemblyBlocks(src)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Inner, "let x := 1")
}

func TestFindAssemblyBlocksNested(t *testing.T) {
	src := `assembly {
    if eq(a, b) {
        let x := 1
    }
    for { let i := 0 } lt(i, 10) { i := add(i, 1) } {
        mstore(i, 0)
    }
}`
	blocks := FindAssemblyBlocks(src)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0].Inner, "mstore(i, 0)")
	assert.Contains(t, blocks[0].Inner, "if eq(a, b)")
}

func TestFindAssemblyBlocksMultiplePerFile(t *testing.T) {
	src := `
function a() internal {
    assembly { let x := 1 }
}
function b() internal {
    assembly { let y := 2 }
}
`
	blocks := FindAssemblyBlocks(src)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0].Inner, "let x := 1")
	assert.Contains(t, blocks[1].Inner, "let y := 2")
}

func TestFindAssemblyBlocksNoMatch(t *testing.T) {
	src := `contract C { function f() public {} }`
	blocks := FindAssemblyBlocks(src)
	assert.Empty(t, blocks)
}

func TestFindAssemblyBlocksOffsetsRoundTrip(t *testing.T) {
	src := `prefix assembly { inner } suffix`
	blocks := FindAssemblyBlocks(src)
	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.True(t, b.Start >= 0 && b.End <= len(src))
	assert.Equal(t, "assembly { inner }", src[b.Start:b.End])
}
