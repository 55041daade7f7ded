package yulimport

import (
	"regexp"
	"sort"
	"strings"
)

// importDirective matches "// import name[, name...] from location".
var importDirective = regexp.MustCompile(`//\s*import\s+([\w\s,]+)\s+from\s+(\S+)`)

// directive is one parsed import directive line.
type directive struct {
	names    []string
	location string
}

// parseDirective parses a directive line, or returns ok=false if line is
// not a directive.
func parseDirective(line string) (directive, bool) {
	m := importDirective.FindStringSubmatch(line)
	if m == nil {
		return directive{}, false
	}
	var names []string
	for _, n := range strings.Split(m[1], ",") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}
	return directive{names: names, location: m[2]}, true
}

// resolveImport resolves one directive name to the concrete set of
// subroutines it pulls in (itself plus its transitive dependencies),
// implementing C4 (spec.md §4.4).
func (r *Resolver) resolveImport(
	name, location, currentFile string,
	stack []string,
	active *cycleGroup,
) (*funcSet, error) {
	if isSelf(location) {
		return r.resolveSelfImport(name, currentFile, stack, active)
	}

	target := r.resolveLocation(location, currentFile)

	// Case: target is a member of the cycle group currently active for
	// this resolution.
	if active != nil && active.contains(target) {
		if !active.funcs.contains(name) {
			return nil, newFunctionNotFoundError(name, "circular dependency group", active.funcs)
		}
		return Closure(name, active.funcs), nil
	}

	var processedContent string
	var err error
	if isPreslFile(target) {
		processedContent, err = r.ProcessFile(target, stack, active)
	} else {
		if !fileExists(target) {
			return nil, newFileNotFoundError(target)
		}
		processedContent, err = readFile(target)
	}
	if err != nil {
		return nil, err
	}

	// Case: target turned out to already be a (newly or previously)
	// recorded cycle group member. Cycle membership may have been created
	// as a side effect of the recursive ProcessFile call above, so this
	// check always runs after recursing, never before.
	if group := r.findCycleGroupContaining(target); group != nil {
		if !group.funcs.contains(name) {
			return nil, newFunctionNotFoundError(name, "circular dependency group", group.funcs)
		}
		return group.funcs.clone(), nil
	}

	universe, err := extractAllBlockFunctions(processedContent, target)
	if err != nil {
		return nil, err
	}
	if !universe.contains(name) {
		return nil, newFunctionNotFoundError(name, target, universe)
	}
	return Closure(name, universe), nil
}

// resolveSelfImport handles `from self`: the universe is every subroutine
// defined across all of the current file's own blocks, plus the
// transitive external dependencies those blocks' own directives pull in.
func (r *Resolver) resolveSelfImport(
	name, currentFile string,
	stack []string,
	active *cycleGroup,
) (*funcSet, error) {
	if !fileExists(currentFile) {
		return nil, newFileNotFoundError(currentFile)
	}
	content, err := readFile(currentFile)
	if err != nil {
		return nil, err
	}

	local := newFuncSet()
	external := newFuncSet()

	for _, block := range FindAssemblyBlocks(content) {
		blockFuncs := ExtractFunctions(block.Inner, currentFile)
		if err := local.merge(blockFuncs); err != nil {
			return nil, err
		}

		for _, line := range strings.Split(block.Inner, "\n") {
			d, ok := parseDirective(line)
			if !ok || isSelf(d.location) {
				continue
			}
			for _, depName := range d.names {
				deps, err := r.resolveImport(depName, d.location, currentFile, stack, active)
				if err != nil {
					// A directive unresolvable during self-import collection
					// may still resolve in a later, better-scoped pass; it
					// is not fatal here.
					r.log().Debugw("suppressed error while collecting self-import external dependencies",
						"file", currentFile, "name", depName, "location", d.location, "error", err)
					continue
				}
				if err := external.merge(deps); err != nil {
					return nil, err
				}
			}
		}
	}

	if !local.contains(name) {
		return nil, newFunctionNotFoundError(name, currentFile, local)
	}

	universe := local.clone()
	if err := universe.merge(external); err != nil {
		return nil, err
	}
	return Closure(name, universe), nil
}

// findCycleGroupContaining returns the cached cycle group that has target
// as a member, or nil.
func (r *Resolver) findCycleGroupContaining(target string) *cycleGroup {
	for _, g := range r.cycleGroups {
		if g.contains(target) {
			return g
		}
	}
	return nil
}

// unifyCycle computes the canonical subroutine set for a newly discovered
// cycle of member files, per spec.md §4.4.1:
//  1. union of every member's local definitions, signature-checked;
//  2. transitive external dependencies (directives targeting files
//     outside the cycle), with resolution failures suppressed — an
//     external directive may still resolve in a later pass.
func (r *Resolver) unifyCycle(members map[string]bool, stack []string) (*cycleGroup, error) {
	memberNames := make([]string, 0, len(members))
	for m := range members {
		memberNames = append(memberNames, m)
	}
	sort.Strings(memberNames)

	local := newFuncSet()
	for _, member := range memberNames {
		if !fileExists(member) {
			continue
		}
		content, err := readFile(member)
		if err != nil {
			continue
		}
		for _, block := range FindAssemblyBlocks(content) {
			blockFuncs := ExtractFunctions(block.Inner, member)
			if err := local.merge(blockFuncs); err != nil {
				return nil, err
			}
		}
	}

	external := newFuncSet()
	for _, member := range memberNames {
		if !fileExists(member) {
			continue
		}
		content, err := readFile(member)
		if err != nil {
			continue
		}
		for _, block := range FindAssemblyBlocks(content) {
			for _, line := range strings.Split(block.Inner, "\n") {
				d, ok := parseDirective(line)
				if !ok || isSelf(d.location) {
					continue
				}
				target := r.resolveLocation(d.location, member)
				if members[target] {
					continue // internal to the cycle, already unified above
				}
				for _, depName := range d.names {
					deps, err := r.resolveImport(depName, d.location, member, stack, nil)
					if err != nil {
						r.log().Debugw("suppressed error collecting external cycle dependency",
							"file", member, "name", depName, "location", d.location, "error", err)
						continue
					}
					if err := external.merge(deps); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	unified := local.clone()
	if err := unified.merge(external); err != nil {
		return nil, err
	}

	return &cycleGroup{
		key:     cycleKey(members),
		members: members,
		funcs:   unified,
	}, nil
}
