package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/waypoint/internal/applicant"
)

func testProcess(target Target, deps ...Target) *Process {
	return &Process{Target: target, Title: string(target), Depends: deps}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(testProcess("a")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(testProcess("a")); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if got := reg.Targets(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected targets %v", got)
	}
}

func TestRegisterValidatesProcess(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Process{Target: "a"}); err == nil {
		t.Fatalf("expected missing title to fail")
	}
	proc := testProcess("b")
	proc.Documents = []Document{{ID: "x", Name: "X", Fills: []Formfill{Answer("f", "p")}}}
	if err := reg.Register(proc); err == nil || !strings.Contains(err.Error(), "no template") {
		t.Fatalf("expected fills without template to fail, got %v", err)
	}
	proc.Documents = []Document{{ID: "x", Name: "X"}, {ID: "x", Name: "Y"}}
	if err := reg.Register(proc); err == nil || !strings.Contains(err.Error(), "duplicate document") {
		t.Fatalf("expected duplicate document id to fail, got %v", err)
	}
}

func TestProcessUnknownTarget(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Process("ghost"); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
}

func TestParseTargetsReportsUnknown(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testProcess("name-change"))
	reg.MustRegister(testProcess("passport"))

	got, err := reg.ParseTargets([]string{" Name-Change ", "", "passport"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != "name-change" || got[1] != "passport" {
		t.Fatalf("unexpected targets %v", got)
	}

	got, err = reg.ParseTargets([]string{"passport", "moon", "mars"})
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("expected ErrUnknownTarget, got %v", err)
	}
	if !strings.Contains(err.Error(), "moon, mars") {
		t.Fatalf("expected unknown targets listed, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected known targets kept, got %v", got)
	}
}

func TestValidateFlagsBrokenReferences(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testProcess("a", "a"))
	reg.MustRegister(testProcess("b", "ghost"))
	withGuide := testProcess("c")
	withGuide.Documents = []Document{{ID: "d", Name: "D", Guide: "missing"}}
	reg.MustRegister(withGuide)
	reg.MustRegisterField(Field{Name: "one", Path: "shared", Title: "One", Kind: KindText})
	reg.MustRegisterField(Field{Name: "two", Path: "shared", Title: "Two", Kind: KindText})

	err := reg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"depends on itself", "unknown target ghost", "missing guide", "share path shared"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidateAllowsCycles(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(testProcess("a", "b"))
	reg.MustRegister(testProcess("b", "a"))
	if err := reg.Validate(); err != nil {
		t.Fatalf("expected cycle to validate, got %v", err)
	}
}

func TestIndexIgnoresNilEntries(t *testing.T) {
	idx := Index{"a": nil, "b": testProcess("b")}
	if _, ok := idx.Lookup("a"); ok {
		t.Fatalf("nil entry should be absent")
	}
	if _, ok := idx.Lookup("b"); !ok {
		t.Fatalf("expected b")
	}
}

func TestFieldValidate(t *testing.T) {
	cases := []struct {
		name  string
		field Field
		ok    bool
	}{
		{"text", Field{Name: "a", Path: "a", Title: "A", Kind: KindText}, true},
		{"no path", Field{Name: "a", Title: "A", Kind: KindText}, false},
		{"select without options", Field{Name: "a", Path: "a", Title: "A", Kind: KindSelect}, false},
		{"unknown kind", Field{Name: "a", Path: "a", Title: "A", Kind: "slider"}, false},
	}
	for _, tc := range cases {
		err := tc.field.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestFieldReadsCoveredPaths(t *testing.T) {
	f := Field{Name: "birthdate", Path: applicant.PathBirthdate, Covers: []string{applicant.PathAge}}
	if !f.Reads(applicant.PathBirthdate) || !f.Reads(applicant.PathAge) {
		t.Fatalf("expected birthdate to satisfy its own and covered paths")
	}
	if f.Reads(applicant.PathMinor) {
		t.Fatalf("minor is not covered")
	}
	if f.IsVisible(applicant.New()) {
		t.Fatalf("fields without a predicate are never forced visible")
	}
}

func TestPredicates(t *testing.T) {
	p := applicant.New()
	p.Set(applicant.PathAge, 17)
	p.Set(applicant.PathBirthState, "mi")
	if !Minor(p) {
		t.Fatalf("17 should be a minor")
	}
	if AgeAtLeast(18)(p) {
		t.Fatalf("17 is not at least 18")
	}
	if !Equals(applicant.PathBirthState, "MI")(p) {
		t.Fatalf("Equals should ignore case")
	}
	if Minor(applicant.New()) {
		t.Fatalf("unknown age counts as adult")
	}

	calls := 0
	counted := func(result bool) Predicate {
		return func(applicant.Reader) bool {
			calls++
			return result
		}
	}
	if All(counted(false), counted(true))(p) {
		t.Fatalf("All should fail")
	}
	if calls != 1 {
		t.Fatalf("All should stop at the first false, made %d calls", calls)
	}
	calls = 0
	if !Any(counted(true), counted(false))(p) {
		t.Fatalf("Any should pass")
	}
	if calls != 1 {
		t.Fatalf("Any should stop at the first true, made %d calls", calls)
	}
}

func TestDocumentAppliesAndIncludes(t *testing.T) {
	proc := testProcess("a")
	proc.Documents = []Document{
		{ID: "always", Name: "Always"},
		{ID: "never", Name: "Never", Include: func(applicant.Reader) bool { return false }},
	}
	got := proc.Includes(applicant.New())
	if len(got) != 1 || got[0].ID != "always" {
		t.Fatalf("unexpected documents %+v", got)
	}
}
