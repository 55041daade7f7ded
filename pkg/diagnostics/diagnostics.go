// Package diagnostics renders rustc-style, source-snippet error messages
// for resolver failures. yulimport's errors are line-oriented rather than
// AST-based: they carry a file and a subroutine name, not a token
// position, so the snippet locator falls back to a regex scan for the
// subroutine's definition line.
package diagnostics

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/MadAppGang/yulimport/pkg/yulimport"
)

// sourceCacheLimit bounds the LRU source-line cache, matching the
// teacher's rationale: long-running processes (a --watch build loop)
// must not accumulate one entry per file forever.
const sourceCacheLimit = 100

var (
	sourceCacheMu   sync.RWMutex
	sourceCache     = make(map[string][]string)
	sourceCacheKeys = make([]string, 0, sourceCacheLimit)
)

// Report is a formatted diagnostic ready to print to a terminal.
type Report struct {
	Message     string
	Filename    string
	Line        int // 1-indexed, 0 if unknown
	SourceLines []string
	Highlight   int // index into SourceLines, -1 if unknown
}

// Render builds a Report from a resolver error, attempting to locate the
// offending subroutine's definition line by scanning the source file for
// "function <name>". When the name or file can't be found the report
// falls back to a header-only message.
func Render(err *yulimport.Error, logger *zap.SugaredLogger) *Report {
	if err == nil {
		return nil
	}

	report := &Report{
		Message:  err.Error(),
		Filename: err.File,
		Highlight: -1,
	}

	if err.File == "" {
		return report
	}

	lines, readErr := sourceLines(err.File)
	if readErr != nil {
		logIfPresent(logger, "diagnostics: could not read source for snippet", err.File, readErr)
		return report
	}

	lineIdx := findDefinitionLine(lines, err.Name)
	if lineIdx < 0 {
		return report
	}

	report.Line = lineIdx + 1
	start := max0(lineIdx - 2)
	end := min(len(lines), lineIdx+3)
	report.SourceLines = lines[start:end]
	report.Highlight = lineIdx - start
	return report
}

// Format renders report in a compact, rustc-influenced layout: a header
// line, then a source snippet with the offending line marked by "›".
func (r *Report) Format() string {
	var b strings.Builder

	if r.Line > 0 {
		fmt.Fprintf(&b, "error: %s\n  --> %s:%d\n\n", r.Message, r.Filename, r.Line)
	} else if r.Filename != "" {
		fmt.Fprintf(&b, "error: %s\n  --> %s\n\n", r.Message, r.Filename)
	} else {
		fmt.Fprintf(&b, "error: %s\n\n", r.Message)
	}

	if len(r.SourceLines) == 0 {
		return b.String()
	}

	startLine := r.Line - r.Highlight
	for i, line := range r.SourceLines {
		marker := " "
		if i == r.Highlight {
			marker = "›"
		}
		fmt.Fprintf(&b, "%s %4d | %s\n", marker, startLine+i, line)
	}
	b.WriteString("\n")
	return b.String()
}

var functionDefPattern = regexp.MustCompile(`^\s*function\s+`)

// findDefinitionLine returns the 0-indexed line where "function name"
// appears, or -1.
func findDefinitionLine(lines []string, name string) int {
	if name == "" {
		return -1
	}
	needle := regexp.MustCompile(`\bfunction\s+` + regexp.QuoteMeta(name) + `\b`)
	for i, line := range lines {
		if functionDefPattern.MatchString(line) && needle.MatchString(line) {
			return i
		}
	}
	return -1
}

func sourceLines(filename string) ([]string, error) {
	sourceCacheMu.Lock()
	lines, ok := sourceCache[filename]
	if ok {
		addToCache(filename, lines) // a hit marks the file most recently used
	}
	sourceCacheMu.Unlock()
	if ok {
		return lines, nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("file is not valid UTF-8: %s", filename)
	}

	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines = strings.Split(normalized, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	sourceCacheMu.Lock()
	addToCache(filename, lines)
	sourceCacheMu.Unlock()

	return lines, nil
}

// addToCache must be called with sourceCacheMu held.
func addToCache(filename string, lines []string) {
	for i, key := range sourceCacheKeys {
		if key == filename {
			sourceCacheKeys = append(sourceCacheKeys[:i], sourceCacheKeys[i+1:]...)
			sourceCacheKeys = append(sourceCacheKeys, filename)
			sourceCache[filename] = lines
			return
		}
	}
	if len(sourceCacheKeys) >= sourceCacheLimit {
		oldest := sourceCacheKeys[0]
		delete(sourceCache, oldest)
		sourceCacheKeys = sourceCacheKeys[1:]
	}
	sourceCacheKeys = append(sourceCacheKeys, filename)
	sourceCache[filename] = lines
}

// ClearCache drops every cached file's source lines.
func ClearCache() {
	sourceCacheMu.Lock()
	defer sourceCacheMu.Unlock()
	sourceCache = make(map[string][]string)
	sourceCacheKeys = make([]string, 0, sourceCacheLimit)
}

func logIfPresent(logger *zap.SugaredLogger, msg, file string, err error) {
	if logger == nil {
		return
	}
	logger.Debugw(msg, "file", file, "error", err)
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
