package processes

import (
	"io/fs"
	"testing"

	"github.com/kingrea/waypoint/internal/catalog"
)

func TestDefaultRegistryValidates(t *testing.T) {
	reg := Default()
	if err := reg.Validate(); err != nil {
		t.Fatalf("built-in catalog is inconsistent: %v", err)
	}
	want := []catalog.Target{
		catalog.TargetNameChange,
		catalog.TargetFingerprints,
		catalog.TargetStateID,
		catalog.TargetBirthCertificate,
		catalog.TargetPassport,
		catalog.TargetSocialSecurity,
	}
	got := reg.Targets()
	if len(got) != len(want) {
		t.Fatalf("expected %d targets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("target %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestEveryTemplateHasManifest(t *testing.T) {
	templates := Templates()
	for _, proc := range Default().Processes() {
		for _, doc := range proc.Documents {
			if doc.Template == "" {
				if doc.Guide == "" {
					t.Fatalf("%s/%s has neither template nor guide", proc.Target, doc.ID)
				}
				continue
			}
			if _, err := fs.Stat(templates, doc.Template+".yaml"); err != nil {
				t.Fatalf("%s/%s: template %s: %v", proc.Target, doc.ID, doc.Template, err)
			}
		}
	}
}

func TestGuidesAreNotEmpty(t *testing.T) {
	reg := Default()
	for _, proc := range reg.Processes() {
		for _, doc := range proc.Documents {
			if doc.Guide == "" {
				continue
			}
			text, ok := reg.Guide(doc.Guide)
			if !ok || len(text) == 0 {
				t.Fatalf("%s/%s: guide %s is empty", proc.Target, doc.ID, doc.Guide)
			}
		}
	}
}

func TestFieldsAreUniqueAndValid(t *testing.T) {
	names := map[string]bool{}
	for _, field := range Fields() {
		if err := field.Validate(); err != nil {
			t.Fatalf("field %s: %v", field.Name, err)
		}
		if names[field.Name] {
			t.Fatalf("field %s declared twice", field.Name)
		}
		names[field.Name] = true
	}
}
