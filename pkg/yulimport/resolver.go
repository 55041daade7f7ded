package yulimport

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// preslSuffix is the conventional suffix for preprocessable input files.
const preslSuffix = ".presl"

// postSuffix is the suffix import-rewriting produces for host-language
// import statements that used to reference a .presl path.
const postSuffix = ".post.sol"

// cycleGroup is a strongly connected component of the file-level import
// graph: a set of member paths sharing one canonical, deduplicated
// subroutine set.
type cycleGroup struct {
	key     string
	members map[string]bool
	funcs   *funcSet
}

func (g *cycleGroup) contains(path string) bool { return g.members[path] }

// cycleKey canonicalizes a set of paths into a map key: sorted, joined.
// Frozen-set semantics (order-independent identity) are what spec.md
// calls for; a sorted join gives that cheaply without a custom type.
func cycleKey(paths map[string]bool) string {
	names := make([]string, 0, len(paths))
	for p := range paths {
		names = append(names, p)
	}
	sort.Strings(names)
	return strings.Join(names, "\x00")
}

// Resolver is one instance of the import resolver. It owns the file cache
// and cycle-group table that make cyclic imports terminate (spec.md §5);
// an instance is not safe for concurrent use by multiple callers, and two
// independent Resolver instances never share state.
type Resolver struct {
	// RootDir is where an absolute import location is rooted.
	RootDir string

	cache       map[string]string
	cycleGroups map[string]*cycleGroup

	logger *zap.SugaredLogger

	// diskCache, if set, is consulted before falling back to a full parse
	// of an unchanged file across process invocations. It is purely an
	// optimization: the in-memory cache above is what makes recursion
	// over cyclic imports terminate, and correctness never depends on
	// diskCache being present or populated.
	diskCache *DiskCache
}

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithLogger attaches a structured logger. A nil logger (the default) is
// equivalent to silence: every log call on the resolver is nil-checked.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithDiskCache attaches an optional on-disk content-hash cache.
func WithDiskCache(c *DiskCache) Option {
	return func(r *Resolver) { r.diskCache = c }
}

// New creates a Resolver rooted at root for resolving absolute import
// locations.
func New(root string, opts ...Option) *Resolver {
	r := &Resolver{
		RootDir:     root,
		cache:       make(map[string]string),
		cycleGroups: make(map[string]*cycleGroup),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Resolver) log() *zap.SugaredLogger {
	if r.logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.logger
}

// resolveLocation turns the text after "from" in a directive into an
// absolute path, per spec.md §4.4's location syntax: absolute paths root
// against the resolver's configured root, relative paths root against the
// importing file's directory.
func (r *Resolver) resolveLocation(location, currentFile string) string {
	if filepath.IsAbs(location) {
		return filepath.Clean(filepath.Join(r.RootDir, strings.TrimPrefix(location, string(filepath.Separator))))
	}
	return filepath.Clean(filepath.Join(filepath.Dir(currentFile), location))
}

func isSelf(location string) bool {
	return strings.EqualFold(strings.TrimSpace(location), "self")
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", newReadError(path, err)
	}
	return string(data), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isPreslFile(path string) bool {
	return strings.HasSuffix(path, preslSuffix)
}

// extractAllBlockFunctions extracts every subroutine defined in every
// assembly block of content, merging them in block/scan order.
func extractAllBlockFunctions(content, sourceFile string) (*funcSet, error) {
	all := newFuncSet()
	for _, block := range FindAssemblyBlocks(content) {
		blockFuncs := ExtractFunctions(block.Inner, sourceFile)
		if err := all.merge(blockFuncs); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// newStackWith returns a copy of stack with path appended, never aliasing
// the caller's backing array (sibling recursive calls must not see each
// other's pushes).
func newStackWith(stack []string, path string) []string {
	next := make([]string, len(stack), len(stack)+1)
	copy(next, stack)
	return append(next, path)
}

func stackIndexOf(stack []string, path string) int {
	for i, p := range stack {
		if p == path {
			return i
		}
	}
	return -1
}
