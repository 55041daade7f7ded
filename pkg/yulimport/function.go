// Package yulimport implements the dependency resolver and assembly-block
// rewriter for inline Yul subroutine imports embedded in .presl source
// files. See pkg/yulimport/resolver.go for the entry point.
package yulimport

import (
	"regexp"
	"strings"
)

// YulFunction is one parsed subroutine definition from an assembly block.
//
// Two subroutines are equal iff their signatures are equal; the dedup key
// used everywhere else in this package is Name.
type YulFunction struct {
	Name            string
	Signature       string
	Body            string
	FullText        string
	PreAnnotations  string
	PostAnnotations string
	SourceFile      string
}

// SameSignature reports whether two definitions of the same name agree.
func (f *YulFunction) SameSignature(other *YulFunction) bool {
	return f.Signature == other.Signature
}

var functionNamePattern = regexp.MustCompile(`function\s+(\w+)`)

// funcSet is an insertion-ordered, name-keyed collection of subroutines.
// Ordering is load-bearing: the rewriter's output must be deterministic
// across runs on identical inputs, so every place that builds up a set of
// subroutines threads insertion order through a funcSet rather than a bare
// map.
type funcSet struct {
	order []string
	byKey map[string]*YulFunction
}

func newFuncSet() *funcSet {
	return &funcSet{byKey: make(map[string]*YulFunction)}
}

func (s *funcSet) len() int { return len(s.order) }

func (s *funcSet) get(name string) (*YulFunction, bool) {
	f, ok := s.byKey[name]
	return f, ok
}

func (s *funcSet) contains(name string) bool {
	_, ok := s.byKey[name]
	return ok
}

// add inserts f, or verifies an existing entry with the same name has an
// identical signature. A mismatch is a fatal signature conflict.
func (s *funcSet) add(f *YulFunction) error {
	if existing, ok := s.byKey[f.Name]; ok {
		if !existing.SameSignature(f) {
			return newSignatureConflictError(f.Name, existing.Signature, f.Signature)
		}
		return nil
	}
	s.byKey[f.Name] = f
	s.order = append(s.order, f.Name)
	return nil
}

// merge inserts every entry of other that isn't already present, preserving
// other's relative order, appended after s's existing entries.
func (s *funcSet) merge(other *funcSet) error {
	for _, name := range other.order {
		if err := s.add(other.byKey[name]); err != nil {
			return err
		}
	}
	return nil
}

func (s *funcSet) names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *funcSet) clone() *funcSet {
	c := newFuncSet()
	c.order = append(c.order, s.order...)
	for k, v := range s.byKey {
		c.byKey[k] = v
	}
	return c
}

func (s *funcSet) sortedNames() []string {
	names := s.names()
	sortStrings(names)
	return names
}

// ExtractFunctions parses every subroutine definition out of one assembly
// block's inner text. The scan is line-oriented: a line whose first
// non-whitespace token is "function" opens a definition. Leading
// "slither-disable-start"/"slither-disable-next-line" annotation comments
// are captured as pre-annotations; a trailing "slither-disable-end" is
// captured as the post-annotation. Within a single block, a later
// definition of the same name silently overwrites an earlier one.
func ExtractFunctions(blockText, sourceFile string) *funcSet {
	funcs := newFuncSet()
	lines := strings.Split(blockText, "\n")

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(strings.TrimSpace(line), "function") {
			i++
			continue
		}

		preCommentLines := collectPreAnnotations(lines, i-1)

		match := functionNamePattern.FindStringSubmatch(line)
		if match == nil {
			i++
			continue
		}
		name := match[1]

		sigLines := []string{line}
		for i < len(lines) && !strings.Contains(lines[i], "{") {
			i++
			if i < len(lines) {
				sigLines = append(sigLines, lines[i])
			}
		}
		if i >= len(lines) {
			break
		}

		signatureText := strings.Join(sigLines, " ")
		bracePos := strings.Index(signatureText, "{")
		if bracePos == -1 {
			i++
			continue
		}
		signature := normalizeWhitespace(strings.TrimSpace(signatureText[:bracePos]))

		braceCount := strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
		funcLines := append([]string{}, sigLines...)
		i++
		for i < len(lines) && braceCount > 0 {
			funcLines = append(funcLines, lines[i])
			braceCount += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
			i++
		}

		postCommentLines, advanced := collectPostAnnotations(lines, i, preCommentLines)
		i = advanced

		fullText := strings.Join(funcLines, "\n")
		body := strings.Join(funcLines[len(sigLines):], "\n")

		fn := &YulFunction{
			Name:            name,
			Signature:       signature,
			Body:            body,
			FullText:        fullText,
			PreAnnotations:  strings.Join(preCommentLines, "\n"),
			PostAnnotations: strings.Join(postCommentLines, "\n"),
			SourceFile:      sourceFile,
		}
		funcs.byKey[name] = fn
		found := false
		for _, n := range funcs.order {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			funcs.order = append(funcs.order, name)
		}
	}

	return funcs
}

// collectPreAnnotations walks upward from the line before a "function"
// line, collecting contiguous "slither-disable-start"/"-next-line"
// comments. A "slither-disable-end" comment belongs to the previous
// subroutine and stops the walk.
func collectPreAnnotations(lines []string, from int) []string {
	var pre []string
	j := from
	for j >= 0 {
		prev := strings.TrimSpace(lines[j])
		switch {
		case strings.Contains(prev, "slither-disable") && strings.HasPrefix(prev, "//"):
			if !strings.Contains(prev, "slither-disable-end") {
				pre = append([]string{lines[j]}, pre...)
				j--
			} else {
				return pre
			}
		case prev == "":
			j--
		default:
			return pre
		}
	}
	return pre
}

// collectPostAnnotations looks forward from index i (the line after a
// subroutine body ends) for a matching "slither-disable-end" comment. The
// lookahead window is widened when the subroutine opened a "-start" region,
// mirroring the need to find the matching end further away.
func collectPostAnnotations(lines []string, i int, preCommentLines []string) ([]string, int) {
	hasDisableStart := false
	for _, l := range preCommentLines {
		if strings.Contains(l, "slither-disable-start") {
			hasDisableStart = true
			break
		}
	}

	maxLookahead := 5
	if hasDisableStart {
		maxLookahead = 20
	}

	var post []string
	tempI := i
	for tempI < len(lines) && (tempI-i) < maxLookahead {
		next := strings.TrimSpace(lines[tempI])
		switch {
		case strings.Contains(next, "slither-disable-end") && strings.HasPrefix(next, "//"):
			post = append(post, lines[tempI])
			return post, tempI + 1
		case next == "" || hasDisableStart:
			tempI++
		default:
			return post, i
		}
	}
	return post, i
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}
