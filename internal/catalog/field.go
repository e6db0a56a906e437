package catalog

import (
	"fmt"
	"strings"

	"github.com/kingrea/waypoint/internal/applicant"
)

// InputKind is the kind of input a Field renders as.
type InputKind string

const (
	KindText     InputKind = "text"
	KindTextarea InputKind = "textarea"
	KindDate     InputKind = "date"
	KindSelect   InputKind = "select"
	KindCheckbox InputKind = "checkbox"
	KindEmail    InputKind = "email"
	KindPhone    InputKind = "phone"
)

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one applicant-facing input. Name is the stable catalog key;
// Path is where the answer lives on the applicant record.
type Field struct {
	Name    string
	Path    string
	Title   string
	Help    string
	Kind    InputKind
	Default any
	Options []Option
	// Visible, when set, forces the field into the form whenever it reports
	// true for the in-progress answers.
	Visible Predicate
	// Covers lists derived paths computed from this field's answer.
	Covers []string
	// Rules is a validator tag applied to non-empty answers.
	Rules string
}

// Reads reports whether an access to path is satisfied by this field.
func (f Field) Reads(path string) bool {
	if path == f.Path {
		return true
	}
	for _, covered := range f.Covers {
		if covered == path {
			return true
		}
	}
	return false
}

// OptionValues lists the option values in declaration order.
func (f Field) OptionValues() []string {
	out := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		out = append(out, opt.Value)
	}
	return out
}

// IsVisible evaluates the visibility predicate. Fields without one are never
// forced visible.
func (f Field) IsVisible(r applicant.Reader) bool {
	return f.Visible != nil && f.Visible(r)
}

// Validate ensures the field definition is well-formed.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("catalog: field name is required")
	}
	if strings.TrimSpace(f.Path) == "" {
		return fmt.Errorf("catalog: field %s: path is required", f.Name)
	}
	if f.Title == "" {
		return fmt.Errorf("catalog: field %s: title is required", f.Name)
	}
	switch f.Kind {
	case KindText, KindTextarea, KindDate, KindCheckbox, KindEmail, KindPhone:
	case KindSelect:
		if len(f.Options) == 0 {
			return fmt.Errorf("catalog: field %s: select needs options", f.Name)
		}
	default:
		return fmt.Errorf("catalog: field %s: unknown kind %q", f.Name, f.Kind)
	}
	return nil
}
