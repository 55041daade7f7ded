// Package ui renders yulimport's CLI output with
// github.com/charmbracelet/lipgloss. Every method is driven by a concrete
// domain type from pkg/walk, pkg/format, pkg/bench, or pkg/hiddenchar
// rather than a generic step/status abstraction: the shape of the output
// is the shape of yulimport's own data (per-path sentinel counts, skipped
// files, formatter warnings, benchmark percentiles).
package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MadAppGang/yulimport/pkg/bench"
	"github.com/MadAppGang/yulimport/pkg/format"
	"github.com/MadAppGang/yulimport/pkg/hiddenchar"
	"github.com/MadAppGang/yulimport/pkg/walk"
)

var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorOK      = lipgloss.Color("#5AF78E")
	colorWarn    = lipgloss.Color("#F7DC6F")
	colorFail    = lipgloss.Color("#FF6B9D")
	colorMuted   = lipgloss.Color("#6C7086")
	colorPath    = lipgloss.Color("#56C3F4")

	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleOK     = lipgloss.NewStyle().Foreground(colorOK)
	styleWarn   = lipgloss.NewStyle().Foreground(colorWarn)
	styleFail   = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	stylePath   = lipgloss.NewStyle().Foreground(colorPath)
	styleBadge  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

// Reporter accumulates nothing across calls except a start time for the
// final elapsed-time line; every other figure it prints is recomputed
// from the slice or value passed to it, so callers are free to print a
// partial Summary mid-run (e.g. before a watch-mode rebuild).
type Reporter struct {
	start time.Time
}

// NewReporter starts the clock used for the elapsed time in Summary.
func NewReporter() *Reporter {
	return &Reporter{start: time.Now()}
}

// Header prints the program banner.
func (r *Reporter) Header(version string) {
	fmt.Println(styleTitle.Render(fmt.Sprintf("yulimport %s", version)))
	fmt.Println(styleMuted.Render("inline Yul import preprocessor"))
	fmt.Println()
}

// Plan prints how many .presl files the walk found.
func (r *Reporter) Plan(fileCount int) {
	fmt.Println(styleMuted.Render(fmt.Sprintf("found %d .presl file(s)", fileCount)))
}

// FileResult prints one line per walked file. errDetail, when non-empty,
// is a pre-rendered diagnostic (pkg/diagnostics output) shown beneath a
// failed file instead of the bare error string.
func (r *Reporter) FileResult(res walk.Result, errDetail string) {
	switch {
	case res.Skipped:
		fmt.Printf("  %s %s\n", styleMuted.Render("skip"), stylePath.Render(res.InputPath))
	case res.Err != nil:
		fmt.Printf("  %s %s\n", styleFail.Render("fail"), stylePath.Render(res.InputPath))
		detail := errDetail
		if detail == "" {
			detail = res.Err.Error()
		}
		for _, line := range strings.Split(strings.TrimRight(detail, "\n"), "\n") {
			fmt.Println(styleMuted.Render("    " + line))
		}
	default:
		badge := ""
		if res.SentinelCount > 0 {
			badge = " " + styleBadge.Render(fmt.Sprintf("[%d excluded]", res.SentinelCount))
		}
		fmt.Printf("  %s %s -> %s%s\n", styleOK.Render("ok"), stylePath.Render(res.InputPath), res.OutputPath, badge)
	}
}

// Warning prints a formatter warning beneath the file it applies to.
func (r *Reporter) Warning(w format.Warning) {
	fmt.Printf("  %s %s\n", styleWarn.Render("warn"), styleMuted.Render(w.Message))
}

// Summary prints the run's aggregate counts: succeeded/skipped/failed
// files, total sentinel-wrapped functions across every output, and the
// overall outcome. runErr is the walk's returned error, if any.
func (r *Reporter) Summary(results []walk.Result, runErr error) {
	var succeeded, skipped, failed, sentinels int
	for _, res := range results {
		switch {
		case res.Skipped:
			skipped++
		case res.Err != nil:
			failed++
		default:
			succeeded++
			sentinels += res.SentinelCount
		}
	}

	fmt.Println()
	elapsed := time.Since(r.start)
	line := fmt.Sprintf("%d ok, %d skipped, %d failed, %d function(s) excluded from coverage (%s)",
		succeeded, skipped, failed, sentinels, formatDuration(elapsed))

	if runErr != nil {
		fmt.Println(styleFail.Render("build failed: " + line))
		return
	}
	fmt.Println(styleOK.Render("build complete: " + line))
}

// Info prints a neutral status line, used for watch-mode change events.
func (r *Reporter) Info(msg string) {
	fmt.Println(styleMuted.Render(msg))
}

// Error prints a standalone error line, used for watch-mode rebuild
// failures that don't go through Summary.
func (r *Reporter) Error(msg string) {
	fmt.Println(styleFail.Render(msg))
}

// BenchTable renders a benchmark report as an aligned plain-text table
// keyed by the rows bench.Report.Table() produces, plus the five slowest
// individual samples, slowest first.
func BenchTable(report *bench.Report) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("benchmark summary") + "\n")
	for _, row := range report.Table() {
		fmt.Fprintf(&b, "  %-10s %s\n", row[0], row[1])
	}

	if len(report.Samples) == 0 {
		return b.String()
	}

	sorted := append([]bench.Sample(nil), report.Samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Duration > sorted[j].Duration })

	b.WriteString("\n" + styleMuted.Render("slowest files") + "\n")
	limit := 5
	if len(sorted) < limit {
		limit = len(sorted)
	}
	for _, s := range sorted[:limit] {
		status := styleOK.Render("ok")
		if s.Err != nil {
			status = styleFail.Render("fail")
		}
		fmt.Fprintf(&b, "  %s %-8s %s\n", status, s.Duration, s.Path)
	}
	return b.String()
}

// HiddenCharReport renders scan-hidden findings grouped by path, each
// path's hits counted in its header line.
func HiddenCharReport(findings []hiddenchar.Finding) string {
	if len(findings) == 0 {
		return styleOK.Render("no hidden characters found") + "\n"
	}

	byPath := make(map[string][]hiddenchar.Finding)
	var paths []string
	for _, f := range findings {
		if _, ok := byPath[f.Path]; !ok {
			paths = append(paths, f.Path)
		}
		byPath[f.Path] = append(byPath[f.Path], f)
	}
	sort.Strings(paths)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styleFail.Render(fmt.Sprintf("%d hidden character(s) across %d file(s)", len(findings), len(paths))))
	for _, path := range paths {
		hits := byPath[path]
		fmt.Fprintf(&b, "  %s %s\n", stylePath.Render(path), styleMuted.Render(fmt.Sprintf("(%d)", len(hits))))
		for _, f := range hits {
			fmt.Fprintf(&b, "    %d:%d U+%04X %s\n", f.Line, f.Column, f.Codepoint, f.Name)
		}
	}
	return b.String()
}

// VersionInfo prints the version banner for the version subcommand.
func VersionInfo(version string) {
	fmt.Println(styleTitle.Render(fmt.Sprintf("yulimport %s", version)))
}

// Help prints the root command's usage summary.
func Help(version string) {
	fmt.Println(styleTitle.Render(fmt.Sprintf("yulimport %s", version)))
	fmt.Println(styleMuted.Render("inline Yul import preprocessor for .presl files"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  yulimport build <directory>       Preprocess a directory of .presl files")
	fmt.Println("  yulimport scan-hidden <path>       Scan for hidden/control characters")
	fmt.Println("  yulimport bench <directory>        Benchmark the resolver over a directory")
	fmt.Println("  yulimport version                  Print the version number")
	fmt.Println()
	fmt.Println("Run 'yulimport <command> --help' for flags specific to a command.")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
