package resolver

import (
	"github.com/kingrea/waypoint/internal/catalog"
)

// Catalog looks up the process registered for a target. Both catalog.Index
// and *catalog.Registry satisfy it.
type Catalog interface {
	Lookup(target catalog.Target) (*catalog.Process, bool)
}

// Closure returns selected plus every target reachable through dependency
// lists, each exactly once, in discovery order: the selection first, then
// each breadth-first layer. Unknown targets stay in the result because the
// caller selected them; they simply contribute no dependencies.
func Closure(cat Catalog, selected []catalog.Target) []catalog.Target {
	seen := make(map[catalog.Target]struct{}, len(selected))
	ordered := make([]catalog.Target, 0, len(selected))
	add := func(target catalog.Target) bool {
		if target == "" {
			return false
		}
		if _, ok := seen[target]; ok {
			return false
		}
		seen[target] = struct{}{}
		ordered = append(ordered, target)
		return true
	}
	for _, target := range selected {
		add(target)
	}
	frontier := append([]catalog.Target(nil), ordered...)
	for len(frontier) > 0 {
		var next []catalog.Target
		for _, target := range frontier {
			proc, ok := lookup(cat, target)
			if !ok {
				continue
			}
			for _, dep := range proc.Depends {
				if add(dep) {
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}
	return ordered
}

// ResolveDependencies returns the process for every target in the closure of
// selected. Targets without a catalog entry are omitted.
func ResolveDependencies(cat Catalog, selected []catalog.Target) []*catalog.Process {
	targets := Closure(cat, selected)
	out := make([]*catalog.Process, 0, len(targets))
	for _, target := range targets {
		if proc, ok := lookup(cat, target); ok {
			out = append(out, proc)
		}
	}
	return out
}

// Implied returns the targets the closure added beyond the selection.
func Implied(cat Catalog, selected []catalog.Target) []catalog.Target {
	chosen := make(map[catalog.Target]struct{}, len(selected))
	for _, target := range selected {
		chosen[target] = struct{}{}
	}
	var out []catalog.Target
	for _, target := range Closure(cat, selected) {
		if _, ok := chosen[target]; ok {
			continue
		}
		if _, ok := lookup(cat, target); ok {
			out = append(out, target)
		}
	}
	return out
}

// FilingOrder orders procs so each process follows the processes it depends
// on. Only dependencies present in procs are considered. A cycle is broken at
// the process reached first in input order, which then files last among its
// cycle.
func FilingOrder(procs []*catalog.Process) []*catalog.Process {
	byTarget := make(map[catalog.Target]*catalog.Process, len(procs))
	for _, proc := range procs {
		if proc != nil {
			byTarget[proc.Target] = proc
		}
	}
	visited := make(map[catalog.Target]bool, len(procs))
	ordered := make([]*catalog.Process, 0, len(procs))
	var visit func(*catalog.Process)
	visit = func(proc *catalog.Process) {
		if visited[proc.Target] {
			return
		}
		visited[proc.Target] = true
		for _, dep := range proc.Depends {
			if next, ok := byTarget[dep]; ok {
				visit(next)
			}
		}
		ordered = append(ordered, proc)
	}
	for _, proc := range procs {
		if proc != nil {
			visit(proc)
		}
	}
	return ordered
}

func lookup(cat Catalog, target catalog.Target) (*catalog.Process, bool) {
	if cat == nil {
		return nil, false
	}
	proc, ok := cat.Lookup(target)
	if !ok || proc == nil {
		return nil, false
	}
	return proc, true
}
