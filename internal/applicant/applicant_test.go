package applicant

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSetAndLookupNestedPaths(t *testing.T) {
	p := New()
	p.Set("name:first", "Ada")
	p.Set("name:last", "Lovelace")
	p.Set("county", "Wayne")

	if got := p.String("name:first"); got != "Ada" {
		t.Fatalf("expected Ada, got %q", got)
	}
	if got := p.Sub("name").String("last"); got != "Lovelace" {
		t.Fatalf("expected nested last name, got %q", got)
	}
	if _, ok := p.Lookup("name:middle"); ok {
		t.Fatalf("expected missing middle name")
	}
	want := []string{"county", "name:first", "name:last"}
	if diff := cmp.Diff(want, p.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeExpandsColonKeys(t *testing.T) {
	p := FromMap(map[string]any{
		"name":       map[string]any{"first": "Sam"},
		"name:last":  "Okafor",
		"passport":   map[string]any{"has": "yes"},
		"birthdate":  "2010-06-01",
		"unrelated:": "ignored-trailing-separator",
	})
	if got := p.String("name:last"); got != "Okafor" {
		t.Fatalf("expected merged last name, got %q", got)
	}
	if got := p.String("name:first"); got != "Sam" {
		t.Fatalf("nested merge lost first name, got %q", got)
	}
	if !p.Bool("passport:has") {
		t.Fatalf("expected yes to read as true")
	}
	if got := p.String("unrelated"); got != "ignored-trailing-separator" {
		t.Fatalf("expected trailing separator to be trimmed, got %q", got)
	}
}

func TestFinalizeComputesDerivedAnswers(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	p := FromMap(map[string]any{
		"birthdate": "2010-06-01",
		"name":      map[string]any{"first": "Sam", "last": "Okafor"},
		"new-name":  map[string]any{"first": "Sasha", "middle": "", "last": "Okafor"},
	})
	p.Finalize(now)

	if age, ok := p.Int(PathAge); !ok || age != 13 {
		t.Fatalf("expected age 13, got %d (%v)", age, ok)
	}
	if !p.Bool(PathMinor) {
		t.Fatalf("expected minor")
	}
	if got := p.String(PathFullName); got != "Sam Okafor" {
		t.Fatalf("unexpected full name %q", got)
	}
	if got := p.String(PathNewFullName); got != "Sasha Okafor" {
		t.Fatalf("unexpected new full name %q", got)
	}

	p.Delete(PathBirthdate)
	p.Finalize(now)
	if _, ok := p.Lookup(PathAge); ok {
		t.Fatalf("age must be cleared when birthdate is removed")
	}
}

func TestAgeOnBirthdayBoundary(t *testing.T) {
	birth := time.Date(2006, time.May, 10, 0, 0, 0, 0, time.UTC)
	if got := AgeOn(birth, time.Date(2024, time.May, 9, 0, 0, 0, 0, time.UTC)); got != 17 {
		t.Fatalf("expected 17 the day before, got %d", got)
	}
	if got := AgeOn(birth, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)); got != 18 {
		t.Fatalf("expected 18 on the birthday, got %d", got)
	}
}

func TestJSONRoundTripKeepsNesting(t *testing.T) {
	p := Sample()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Person
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := decoded.String("address:zip"); got != "48933" {
		t.Fatalf("expected zip to survive, got %q", got)
	}
	if !decoded.Bool("passport:has") {
		t.Fatalf("expected passport flag to survive")
	}
}

func TestOverlayPrefersOther(t *testing.T) {
	base := Sample()
	answers := FromMap(map[string]any{"name:first": "Robin", "passport:has": false})
	merged := base.Overlay(answers)
	if got := merged.String("name:first"); got != "Robin" {
		t.Fatalf("expected overlay to win, got %q", got)
	}
	if merged.Bool("passport:has") {
		t.Fatalf("expected overlay false to win")
	}
	if got := merged.String("name:last"); got != "Rivera" {
		t.Fatalf("expected base value kept, got %q", got)
	}
	if got := base.String("name:first"); got != "Alex" {
		t.Fatalf("overlay must not mutate base, got %q", got)
	}
}

func TestObserverRecordsReadsOnce(t *testing.T) {
	obs := Observe(Sample())
	_ = obs.String("county")
	_ = obs.Sub("name").String("first")
	_ = obs.String("county")
	_, _ = obs.Int("missing:value")

	want := []string{"county", "name", "name:first", "missing:value"}
	if diff := cmp.Diff(want, obs.Accessed()); diff != "" {
		t.Fatalf("accessed mismatch (-want +got):\n%s", diff)
	}
}

func TestObserverRecordsGatedAgeRead(t *testing.T) {
	include := func(p Reader) bool {
		age, ok := p.Int("age")
		return ok && age < AdultAge
	}
	obs := Observe(Sample())
	if include(obs) {
		t.Fatalf("sample applicant is an adult")
	}
	found := false
	for _, path := range obs.Accessed() {
		if path == "age" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected age to be recorded, got %v", obs.Accessed())
	}
}
