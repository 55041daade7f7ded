package yulimport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// S1 — basic import: main.presl imports add5 from utils.presl. The output
// block contains add5 exactly once, the directive line is gone, and the
// expansion is sentinel-wrapped.
func TestScenarioS1BasicImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "utils.presl", `contract Utils {
    function entry() {
        assembly {
            function add5(x) -> result {
                result := add(x, 5)
            }
        }
    }
}
`)
	main := writeFile(t, dir, "main.presl", `contract Main {
    function useIt() internal {
        assembly {
            // import add5 from utils.presl
            let z := add5(10)
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, countOccurrences(out, "function add5(x) -> result"))
	assert.NotContains(t, out, "import add5 from utils.presl")
	assert.Contains(t, out, "exclude_coverage_start_add5")
	assert.Contains(t, out, "exclude_coverage_stop_add5")
}

// S2 — deduplication: a file imports the same name (square) both directly
// and transitively, through another imported function that calls it.
// Expectation: exactly one function square(...) in the output.
func TestScenarioS2Deduplication(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.presl", `contract Lib {
    function entry() {
        assembly {
            function square(x) -> y {
                y := mul(x, x)
            }
            function sumOfSquares(a, b) -> total {
                total := add(square(a), square(b))
            }
        }
    }
}
`)
	main := writeFile(t, dir, "main.presl", `contract Main {
    function useIt() internal {
        assembly {
            // import square from lib.presl
            // import sumOfSquares from lib.presl
            let a := square(2)
            let b := sumOfSquares(2, 3)
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, countOccurrences(out, "function square(x) -> y"))
}

// S3 — self-import with external deps: a file defines compute in block 1
// (which calls add_one and double_value, imported from helper.presl) and
// imports compute from self in block 2. Block 2 ends up with compute,
// add_one, and double_value, all sentinel-wrapped — compute because it
// originates in a different block of the same file, the other two because
// they originate in another file entirely.
func TestScenarioS3SelfImportWithExternalDeps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "helper.presl", `contract Helper {
    function entry() {
        assembly {
            function add_one(x) -> y {
                y := add(x, 1)
            }
            function double_value(x) -> y {
                y := mul(x, 2)
            }
        }
    }
}
`)
	main := writeFile(t, dir, "main.presl", `contract Main {
    function blockOne() internal {
        assembly {
            // import add_one from helper.presl
            // import double_value from helper.presl
            function compute(x) -> result {
                result := add_one(double_value(x))
            }
        }
    }

    function blockTwo() internal {
        assembly {
            // import compute from self
            let z := compute(5)
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "function compute(x) -> result")
	assert.Contains(t, out, "function add_one(x) -> y")
	assert.Contains(t, out, "function double_value(x) -> y")
	assert.Contains(t, out, "exclude_coverage_start_compute")
	assert.Contains(t, out, "exclude_coverage_start_add_one")
	assert.Contains(t, out, "exclude_coverage_start_double_value")
}

// S4 — cycle pair: a.presl imports funcB from b.presl; b.presl imports
// funcA from a.presl. Output a contains both funcA (unwrapped, truly
// local) and funcB (sentinel-wrapped); output b is symmetric. A third
// file, c.presl, importing funcB from b.presl ends up with funcA, funcB,
// and its own local funcC.
func TestScenarioS4CyclePairAndThirdFileImport(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.presl", `contract A {
    function entry() {
        assembly {
            // import funcB from b.presl
            function funcA() -> x {
                x := funcB()
            }
        }
    }
}
`)
	writeFile(t, dir, "b.presl", `contract B {
    function entry() {
        assembly {
            // import funcA from a.presl
            function funcB() -> y {
                y := funcA()
            }
        }
    }
}
`)
	c := writeFile(t, dir, "c.presl", `contract C {
    function entry() {
        assembly {
            // import funcB from b.presl
            function funcC() -> z {
                z := funcB()
            }
        }
    }
}
`)

	r := New(dir)

	outA, err := r.ProcessFile(a, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, outA, "function funcA() -> x")
	assert.Contains(t, outA, "function funcB() -> y")
	assert.NotContains(t, outA, "exclude_coverage_start_funcA")
	assert.Contains(t, outA, "exclude_coverage_start_funcB")

	outC, err := r.ProcessFile(c, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, outC, "function funcA() -> x")
	assert.Contains(t, outC, "function funcB() -> y")
	assert.Contains(t, outC, "function funcC() -> z")
}

// S5 — unused excluded: utils.presl defines foo (calls bar), bar, baz, and
// unrelated; main.presl imports only baz. Output contains baz and the
// local host-level mainFunc wrapper, but none of foo, bar, or unrelated.
func TestScenarioS5UnusedExcluded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "utils.presl", `contract Utils {
    function entry() {
        assembly {
            function foo() -> x {
                x := bar()
            }
            function bar() -> y {
                y := 1
            }
            function baz() -> z {
                z := 2
            }
            function unrelated() -> w {
                w := 3
            }
        }
    }
}
`)
	main := writeFile(t, dir, "main.presl", `contract Main {
    function mainFunc() internal {
        assembly {
            // import baz from utils.presl
            let z := baz()
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, out, "function mainFunc")
	assert.Contains(t, out, "function baz() -> z")
	assert.NotContains(t, out, "function foo() -> x")
	assert.NotContains(t, out, "function bar() -> y")
	assert.NotContains(t, out, "function unrelated() -> w")
}

// S6 — signature conflict: two files caught in the same import cycle each
// define shared with a different parameter list. Unifying the cycle's
// local definitions must fail with a signature-conflict error quoting
// both signatures, not silently prefer one.
func TestScenarioS6SignatureConflictInCycle(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.presl", `contract A {
    function entry() {
        assembly {
            // import funcB from b.presl
            function shared(x) -> y {
                y := x
            }
        }
    }
}
`)
	writeFile(t, dir, "b.presl", `contract B {
    function entry() {
        assembly {
            // import shared from a.presl
            function shared(x, y) -> z {
                z := x
            }
            function funcB() -> w {
                w := 1
            }
        }
    }
}
`)

	r := New(dir)
	_, err := r.ProcessFile(a, nil, nil)
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrSignatureConflict, rerr.Kind)
	assert.Contains(t, rerr.Error(), "function shared(x) -> y")
	assert.Contains(t, rerr.Error(), "function shared(x, y) -> z")
}

// Auxiliary: "truly local" is scoped to the block doing the importing, not
// the whole file. A self-import of a subroutine defined in the very same
// block is unwrapped...
func TestTrulyLocalSelfImportWithinSameBlockIsUnwrapped(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.presl", `contract A {
    function outer() internal {
        assembly {
            // import helper from self
            function helper() -> x {
                x := 1
            }
            let z := helper()
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(a, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "function helper() -> x")
	assert.NotContains(t, out, "exclude_coverage_start_helper")
}

// ...while a self-import of a subroutine defined in a *different* block of
// the same file is still sentinel-wrapped.
func TestSelfImportAcrossBlocksIsSentinelWrapped(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.presl", `contract A {
    function outer() internal {
        assembly {
            // import helper from self
            let z := helper()
        }
    }

    function helper() internal pure {
        assembly {
            function helper() -> x {
                x := 1
            }
        }
    }
}
`)

	r := New(dir)
	out, err := r.ProcessFile(a, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "function helper() -> x")
	assert.Contains(t, out, "exclude_coverage_start_helper")
}

// Auxiliary: a host-language import of a .presl file is rewritten to
// .post.sol, independent of whatever assembly-block rewriting also
// happens in the same file.
func TestHostImportSuffixRewrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.presl", `contract Lib {}
`)
	main := writeFile(t, dir, "main.presl", `import "./lib.presl";
import {Thing} from "./lib.presl";

contract Main {}
`)

	r := New(dir)
	out, err := r.ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, out, `import "./lib.post.sol";`)
	assert.Contains(t, out, `import {Thing} from "./lib.post.sol";`)
	assert.NotContains(t, out, ".presl")
}

// Auxiliary: processing the same file twice through independent resolver
// instances produces byte-identical output.
func TestIdempotentAcrossResolverInstances(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.presl", `contract Lib {
    function entry() {
        assembly {
            function helper() -> x {
                x := 1
            }
        }
    }
}
`)
	main := writeFile(t, dir, "main.presl", `contract Main {
    function useIt() internal {
        assembly {
            // import helper from lib.presl
            let a := helper()
        }
    }
}
`)

	first, err := New(dir).ProcessFile(main, nil, nil)
	require.NoError(t, err)
	second, err := New(dir).ProcessFile(main, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}
