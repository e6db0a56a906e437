package packet

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/waypoint/internal/catalog"
)

var (
	// ErrTemplateNotFound is returned when a source has no manifest for an id.
	ErrTemplateNotFound = errors.New("packet: template not found")
	// ErrUnknownField indicates a fill names a field its template lacks.
	ErrUnknownField = errors.New("packet: unknown template field")
)

// FieldKind is how a template field is drawn.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldCheck  FieldKind = "check"
	FieldChoice FieldKind = "choice"
)

const (
	defaultFieldWidth = 468
	maxManifestBytes  = 256 << 10
)

// Template is a form manifest: the page size plus the boxes fills are drawn
// into, addressed by field name. Coordinates are points from the top-left.
type Template struct {
	ID     string                   `yaml:"id"`
	Title  string                   `yaml:"title"`
	Size   string                   `yaml:"size"`
	Pages  int                      `yaml:"pages"`
	Fields map[string]TemplateField `yaml:"fields"`
}

// TemplateField is one named box on a template page.
type TemplateField struct {
	Label string    `yaml:"label"`
	Page  int       `yaml:"page"`
	X     float64   `yaml:"x"`
	Y     float64   `yaml:"y"`
	Width float64   `yaml:"width"`
	Kind  FieldKind `yaml:"kind,omitempty"`
}

// ParseTemplate decodes and validates a YAML manifest.
func ParseTemplate(data []byte) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("packet: parse template: %w", err)
	}
	tpl.applyDefaults()
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (t *Template) applyDefaults() {
	t.ID = strings.TrimSpace(t.ID)
	t.Size = strings.ToLower(strings.TrimSpace(t.Size))
	if t.Size == "" {
		t.Size = "letter"
	}
	if t.Pages <= 0 {
		t.Pages = 1
	}
	if t.Title == "" {
		t.Title = t.ID
	}
	for name, field := range t.Fields {
		if field.Page == 0 {
			field.Page = 1
		}
		if field.Width <= 0 {
			field.Width = defaultFieldWidth
		}
		field.Kind = FieldKind(strings.ToLower(strings.TrimSpace(string(field.Kind))))
		if field.Kind == "" {
			field.Kind = FieldText
		}
		t.Fields[name] = field
	}
}

// Validate ensures the manifest is well-formed.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("packet: template id is required")
	}
	if _, ok := pageSizes[t.Size]; !ok {
		return fmt.Errorf("packet: template %s: unknown size %q", t.ID, t.Size)
	}
	for _, name := range t.FieldNames() {
		field := t.Fields[name]
		if field.Page < 1 || field.Page > t.Pages {
			return fmt.Errorf("packet: template %s field %s: page %d outside 1..%d", t.ID, name, field.Page, t.Pages)
		}
		if field.X < 0 || field.Y < 0 {
			return fmt.Errorf("packet: template %s field %s: negative position", t.ID, name)
		}
		switch field.Kind {
		case FieldText, FieldCheck, FieldChoice:
		default:
			return fmt.Errorf("packet: template %s field %s: unknown kind %q", t.ID, name, field.Kind)
		}
	}
	return nil
}

// Field returns the named field.
func (t *Template) Field(name string) (TemplateField, bool) {
	if t == nil {
		return TemplateField{}, false
	}
	field, ok := t.Fields[name]
	return field, ok
}

// FieldNames lists field names in sorted order.
func (t *Template) FieldNames() []string {
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckDocument verifies every fill of doc lands on a field of a compatible
// kind, or on a page the template has.
func (t *Template) CheckDocument(doc catalog.Document) error {
	var errs []error
	for _, fill := range doc.Fills {
		at := fill.Location()
		if !at.Named() {
			if at.Page < 1 || at.Page > t.Pages {
				errs = append(errs, fmt.Errorf("packet: %s fill %s: page outside template %s", doc.ID, at, t.ID))
			}
			continue
		}
		field, ok := t.Field(at.Field)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s fills %s on %s", ErrUnknownField, doc.ID, at.Field, t.ID))
			continue
		}
		if want := kindFor(fill); !compatible(want, field.Kind) {
			errs = append(errs, fmt.Errorf("packet: %s fill %s is a %s but %s declares %s", doc.ID, at.Field, want, t.ID, field.Kind))
		}
	}
	return errors.Join(errs...)
}

func kindFor(fill catalog.Formfill) FieldKind {
	switch fill.(type) {
	case catalog.CheckFill:
		return FieldCheck
	case catalog.SelectFill:
		return FieldChoice
	default:
		return FieldText
	}
}

func compatible(fill, field FieldKind) bool {
	if fill == field {
		return true
	}
	// a choice may be written into a plain text box
	return fill == FieldChoice && field == FieldText
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
