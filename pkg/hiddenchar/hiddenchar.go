// Package hiddenchar scans files for hidden Unicode control and
// bidirectional-formatting characters, grounded on
// original_source/tools/find_unicode_controls.py and unicode_scan.py.
//
// The Python original classifies characters by Unicode bidirectional
// category via unicodedata.bidirectional(); no example in the retrieval
// pack carries a bidi-classification library, so this port hardcodes the
// original's explicit codepoint set and ranges instead of reproducing
// the general bidi-class lookup.
package hiddenchar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// controlPoints are individually-flagged codepoints.
var controlPoints = map[rune]string{
	0x200E: "LEFT-TO-RIGHT MARK",
	0x200F: "RIGHT-TO-LEFT MARK",
	0x061C: "ARABIC LETTER MARK",
}

// controlRanges are inclusive codepoint ranges of bidi-formatting
// characters (embeddings, overrides, isolates).
var controlRanges = []struct{ lo, hi rune }{
	{0x202A, 0x202E}, // LRE..RLO, PDF
	{0x2066, 0x2069}, // LRI..PDI
}

var binarySuffixes = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".pdf": true, ".webp": true, ".ico": true, ".svgz": true,
}

// Finding is one hidden-character occurrence.
type Finding struct {
	Path       string
	Line       int // 1-indexed
	Column     int // 1-indexed, rune offset within the line
	Codepoint  rune
	Name       string
}

// Format renders a Finding the way the Python original prints one.
func (f Finding) Format() string {
	return fmt.Sprintf("%s:%d:%d U+%04X %s", f.Path, f.Line, f.Column, f.Codepoint, f.Name)
}

func isControl(r rune) bool {
	if name, ok := controlPoints[r]; ok {
		_ = name
		return true
	}
	for _, rg := range controlRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

func nameOf(r rune) string {
	if name, ok := controlPoints[r]; ok {
		return name
	}
	for _, rg := range controlRanges {
		if r >= rg.lo && r <= rg.hi {
			return "BIDI FORMATTING CHARACTER"
		}
	}
	return "UNKNOWN"
}

func isBinary(path string) bool {
	return binarySuffixes[strings.ToLower(filepath.Ext(path))]
}

// ScanFile scans one file for hidden characters. A binary-suffixed path
// is skipped outright, matching the Python original.
func ScanFile(path string) ([]Finding, error) {
	if isBinary(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for lineNo, line := range strings.Split(string(content), "\n") {
		col := 0
		for _, r := range line {
			col++
			if isControl(r) {
				findings = append(findings, Finding{
					Path:      path,
					Line:      lineNo + 1,
					Column:    col,
					Codepoint: r,
					Name:      nameOf(r),
				})
			}
		}
	}
	return findings, nil
}

// ScanTree scans every regular file under root.
func ScanTree(root string) ([]Finding, error) {
	var all []Finding
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		findings, err := ScanFile(path)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		all = append(all, findings...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
