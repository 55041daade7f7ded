// Package walk implements the directory driver: it finds .presl files
// under a root, applies the skip-marker check, drives the resolver over
// each one, and writes .post.sol output. Concurrency is bounded with
// golang.org/x/sync/errgroup over independent per-file units of work.
package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MadAppGang/yulimport/pkg/config"
	"github.com/MadAppGang/yulimport/pkg/yulimport"
)

// Result is the outcome of preprocessing one file.
type Result struct {
	InputPath     string
	OutputPath    string
	Skipped       bool
	Err           error
	SentinelCount int // exclude_coverage_start_ markers written to OutputPath
}

// Walker drives the resolver over a directory tree.
type Walker struct {
	Root   string
	Config *config.Config

	// NewResolver constructs one Resolver per input file. Each file's
	// resolver is used by one goroutine only: spec.md §5 makes a Resolver
	// unsafe for concurrent use by multiple callers, so the walker never
	// shares one resolver instance across goroutines. Splitting work this
	// way means a file imported by several inputs is reprocessed once per
	// importing input, but never produces an incorrect result: each
	// resolver always reads fresh from disk on a cache miss.
	NewResolver func() *yulimport.Resolver
}

// New creates a Walker rooted at root, building one resolver per input
// file via newResolver.
func New(root string, cfg *config.Config, newResolver func() *yulimport.Resolver) *Walker {
	return &Walker{Root: root, Config: cfg, NewResolver: newResolver}
}

// Run walks w.Root for input-suffix files, preprocesses each one not
// excluded by a skip marker, and writes output-suffix files alongside
// them. It always attempts every file (best-effort batch); the returned
// error is non-nil iff at least one non-skipped file failed, matching
// the Python original's directory exit-code contract.
func (w *Walker) Run(ctx context.Context) ([]Result, error) {
	files, err := w.discover()
	if err != nil {
		return nil, fmt.Errorf("discovering input files under %s: %w", w.Root, err)
	}

	concurrency := w.Config.Walk.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(files))
	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = Result{InputPath: file, Err: ctx.Err()}
			default:
				results[i] = w.processOne(file)
			}
			return nil
		})
	}
	g.Wait()

	var failed []string
	for _, r := range results {
		if !r.Skipped && r.Err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", r.InputPath, r.Err))
		}
	}
	if len(failed) > 0 {
		return results, fmt.Errorf("%d file(s) failed:\n  %s", len(failed), strings.Join(failed, "\n  "))
	}
	return results, nil
}

func (w *Walker) processOne(inputPath string) Result {
	outputPath := w.outputPath(inputPath)
	result := Result{InputPath: inputPath, OutputPath: outputPath}

	content, err := os.ReadFile(inputPath)
	if err != nil {
		result.Err = fmt.Errorf("reading %s: %w", inputPath, err)
		return result
	}

	if shouldSkip(content, w.Config.Walk.SkipMarkers) {
		result.Skipped = true
		return result
	}

	resolver := w.NewResolver()
	processed, err := resolver.ProcessFile(inputPath, nil, nil)
	if err != nil {
		result.Err = err
		return result
	}

	if err := os.WriteFile(outputPath, []byte(processed), 0o644); err != nil {
		result.Err = fmt.Errorf("writing %s: %w", outputPath, err)
		return result
	}

	result.SentinelCount = strings.Count(processed, "exclude_coverage_start_")
	return result
}

func (w *Walker) outputPath(inputPath string) string {
	in := w.Config.Walk.InputSuffix
	out := w.Config.Walk.OutputSuffix
	if strings.HasSuffix(inputPath, in) {
		return strings.TrimSuffix(inputPath, in) + out
	}
	return inputPath + out
}

func (w *Walker) discover() ([]string, error) {
	var files []string
	suffix := w.Config.Walk.InputSuffix
	err := filepath.WalkDir(w.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// shouldSkip reports whether content's first 10 lines, whitespace-
// collapsed and lowercased, contain any of markers. Ported from the
// Python original's should_skip_file.
func shouldSkip(content []byte, markers []string) bool {
	lines := strings.Split(string(content), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	header := strings.ToLower(strings.Join(lines, " "))
	header = strings.Join(strings.Fields(header), " ")

	for _, marker := range markers {
		if strings.Contains(header, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
