package resolver

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/processes"
)

func proc(target string, deps ...string) *catalog.Process {
	p := &catalog.Process{Target: catalog.Target(target), Title: target}
	for _, dep := range deps {
		p.Depends = append(p.Depends, catalog.Target(dep))
	}
	return p
}

func index(procs ...*catalog.Process) catalog.Index {
	out := catalog.Index{}
	for _, p := range procs {
		out[p.Target] = p
	}
	return out
}

func targetsOf(procs []*catalog.Process) []string {
	out := make([]string, 0, len(procs))
	for _, p := range procs {
		out = append(out, string(p.Target))
	}
	return out
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func targets(values ...string) []catalog.Target {
	out := make([]catalog.Target, 0, len(values))
	for _, v := range values {
		out = append(out, catalog.Target(v))
	}
	return out
}

func TestResolveFollowsDependencies(t *testing.T) {
	cat := index(proc("A", "B"), proc("B"), proc("C"))
	got := targetsOf(ResolveDependencies(cat, targets("A")))
	if diff := cmp.Diff([]string{"A", "B"}, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
}

func TestResolveToleratesCycles(t *testing.T) {
	cat := index(proc("A", "B"), proc("B", "A"))
	got := targetsOf(ResolveDependencies(cat, targets("A")))
	if diff := cmp.Diff([]string{"A", "B"}, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
}

func TestResolveDropsUnknownTargets(t *testing.T) {
	cat := index(proc("A", "ghost"), proc("B"))
	cat["nil-entry"] = nil
	got := targetsOf(ResolveDependencies(cat, targets("missing", "A", "nil-entry")))
	if diff := cmp.Diff([]string{"A"}, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
	closure := Closure(cat, targets("missing", "A"))
	if diff := cmp.Diff(targets("missing", "A", "ghost"), closure); diff != "" {
		t.Fatalf("closure should keep selected targets (-want +got):\n%s", diff)
	}
}

func TestResolveDeduplicatesSelection(t *testing.T) {
	cat := index(proc("A", "B"), proc("B"))
	got := targetsOf(ResolveDependencies(cat, targets("B", "A", "B", "")))
	if diff := cmp.Diff([]string{"B", "A"}, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
}

func TestResolveNilCatalog(t *testing.T) {
	if got := ResolveDependencies(nil, targets("A")); len(got) != 0 {
		t.Fatalf("expected no processes, got %v", targetsOf(got))
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	cat := index(proc("A", "B", "C"), proc("B", "D"), proc("C", "A"), proc("D"))
	first := sorted(targetsOf(ResolveDependencies(cat, targets("A"))))
	second := sorted(targetsOf(ResolveDependencies(cat, targets("A"))))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("resolution changed between calls (-first +second):\n%s", diff)
	}
}

func TestResolveMatchesReachabilityOnRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		size := 1 + rng.Intn(12)
		names := make([]string, size)
		for i := range names {
			names[i] = fmt.Sprintf("t%d", i)
		}
		cat := catalog.Index{}
		edges := map[string][]string{}
		for _, name := range names {
			var deps []string
			for _, other := range names {
				if rng.Intn(5) == 0 {
					deps = append(deps, other)
				}
			}
			edges[name] = deps
			if rng.Intn(8) == 0 {
				continue // target referenced but not in the catalog
			}
			cat[catalog.Target(name)] = proc(name, deps...)
		}
		selected := []string{names[rng.Intn(size)]}

		want := reachable(cat, edges, selected)
		got := sorted(targetsOf(ResolveDependencies(cat, targets(selected...))))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round %d: closure mismatch (-want +got):\n%s", round, diff)
		}
		seen := map[string]bool{}
		for _, name := range got {
			if seen[name] {
				t.Fatalf("round %d: %s resolved twice", round, name)
			}
			seen[name] = true
		}
	}
}

// reachable is a reference depth-first search over the catalog entries.
func reachable(cat catalog.Index, edges map[string][]string, start []string) []string {
	seen := map[string]bool{}
	var walk func(string)
	walk = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if _, ok := cat[catalog.Target(name)]; !ok {
			return
		}
		for _, dep := range edges[name] {
			walk(dep)
		}
	}
	for _, name := range start {
		walk(name)
	}
	var out []string
	for name := range seen {
		if _, ok := cat[catalog.Target(name)]; ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func TestImpliedListsAddedTargets(t *testing.T) {
	cat := index(proc("A", "B"), proc("B", "C"), proc("C"))
	got := Implied(cat, targets("A"))
	if diff := cmp.Diff(targets("B", "C"), got); diff != "" {
		t.Fatalf("unexpected implied targets (-want +got):\n%s", diff)
	}
}

func TestFilingOrderPlacesDependenciesFirst(t *testing.T) {
	cat := index(proc("deploy", "build"), proc("build", "plan"), proc("plan"))
	resolved := ResolveDependencies(cat, targets("deploy"))
	got := targetsOf(FilingOrder(resolved))
	if diff := cmp.Diff([]string{"plan", "build", "deploy"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestFilingOrderBreaksCycles(t *testing.T) {
	cat := index(proc("A", "B"), proc("B", "A"), proc("C", "A"))
	got := targetsOf(FilingOrder(ResolveDependencies(cat, targets("C"))))
	if diff := cmp.Diff([]string{"B", "A", "C"}, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestBuiltinCatalogPullsFingerprintsWithNameChange(t *testing.T) {
	reg := processes.Default()
	got := sorted(targetsOf(ResolveDependencies(reg, targets(string(catalog.TargetNameChange)))))
	want := sorted([]string{string(catalog.TargetNameChange), string(catalog.TargetFingerprints)})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}

	got = targetsOf(ResolveDependencies(reg, targets(string(catalog.TargetSocialSecurity))))
	want = []string{string(catalog.TargetSocialSecurity), string(catalog.TargetStateID)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected closure (-want +got):\n%s", diff)
	}
}
