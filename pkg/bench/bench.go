// Package bench times Resolver.ProcessFile over a directory tree and
// reports p50/p90/max latency, grounded on the shape of
// original_source/crates/proof-of-sql-benches/scripts/run_benchmarks.py
// (run N iterations, collect durations, print a results table) without
// that script's domain-specific data-download and CSV machinery, which
// has no equivalent in a text preprocessor.
package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/MadAppGang/yulimport/pkg/yulimport"
)

// Sample is one timed ProcessFile invocation.
type Sample struct {
	Path     string
	Duration time.Duration
	Err      error
}

// Report summarizes a benchmark run.
type Report struct {
	Samples []Sample
	P50     time.Duration
	P90     time.Duration
	Max     time.Duration
	Failed  int
}

// Run times one fresh Resolver.ProcessFile call per .presl file under
// root, iterations times each, using a new resolver per iteration so
// later iterations don't benefit from the prior iteration's warm cache —
// each sample reflects a cold-cache, single-file run.
func Run(root string, iterations int, newResolver func() *yulimport.Resolver) (*Report, error) {
	if iterations <= 0 {
		iterations = 1
	}

	files, err := discoverPresl(root)
	if err != nil {
		return nil, fmt.Errorf("discovering .presl files under %s: %w", root, err)
	}

	var samples []Sample
	for i := 0; i < iterations; i++ {
		for _, path := range files {
			r := newResolver()
			start := time.Now()
			_, err := r.ProcessFile(path, nil, nil)
			elapsed := time.Since(start)
			samples = append(samples, Sample{Path: path, Duration: elapsed, Err: err})
		}
	}

	return summarize(samples), nil
}

func discoverPresl(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".presl" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func summarize(samples []Sample) *Report {
	report := &Report{Samples: samples}

	var durations []time.Duration
	for _, s := range samples {
		if s.Err != nil {
			report.Failed++
			continue
		}
		durations = append(durations, s.Duration)
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	if len(durations) == 0 {
		return report
	}

	report.P50 = percentile(durations, 0.50)
	report.P90 = percentile(durations, 0.90)
	report.Max = durations[len(durations)-1]
	return report
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// Table renders the report as rows suitable for ui.Table.
func (r *Report) Table() [][]string {
	return [][]string{
		{"samples", fmt.Sprintf("%d", len(r.Samples))},
		{"failed", fmt.Sprintf("%d", r.Failed)},
		{"p50", r.P50.String()},
		{"p90", r.P90.String()},
		{"max", r.Max.String()},
	}
}
