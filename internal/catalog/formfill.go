package catalog

import (
	"fmt"

	"github.com/kingrea/waypoint/internal/applicant"
)

// Placement locates a fill on a template, either by a named template field or
// by fixed page coordinates (points from the top-left of the page).
type Placement struct {
	Field string
	Page  int
	X     float64
	Y     float64
}

// Named reports whether the placement targets a named template field.
func (p Placement) Named() bool {
	return p.Field != ""
}

// At places a fill on the named template field.
func At(field string) Placement {
	return Placement{Field: field}
}

// AtPoint places a fill at fixed coordinates on a 1-based page.
func AtPoint(page int, x, y float64) Placement {
	return Placement{Page: page, X: x, Y: y}
}

func (p Placement) String() string {
	if p.Named() {
		return p.Field
	}
	return fmt.Sprintf("p%d@%.0f,%.0f", p.Page, p.X, p.Y)
}

// Formfill maps applicant data onto one template location. The set of
// implementations is closed: TextFill, CheckFill and SelectFill.
type Formfill interface {
	Location() Placement
	formfill()
}

// TextFill writes produced text.
type TextFill struct {
	At   Placement
	Text func(applicant.Reader) string
}

// CheckFill marks a checkbox when Check reports true.
type CheckFill struct {
	At    Placement
	Check func(applicant.Reader) bool
}

// SelectFill picks one of Options.
type SelectFill struct {
	At      Placement
	Options []string
	Select  func(applicant.Reader) string
}

func (f TextFill) Location() Placement   { return f.At }
func (f CheckFill) Location() Placement  { return f.At }
func (f SelectFill) Location() Placement { return f.At }

func (TextFill) formfill()   {}
func (CheckFill) formfill()  {}
func (SelectFill) formfill() {}

// Text is shorthand for a TextFill on a named field.
func Text(field string, fn func(applicant.Reader) string) TextFill {
	return TextFill{At: At(field), Text: fn}
}

// Answer copies the answer at path verbatim onto a named field.
func Answer(field, path string) TextFill {
	return Text(field, func(r applicant.Reader) string { return r.String(path) })
}

// Check is shorthand for a CheckFill on a named field.
func Check(field string, fn func(applicant.Reader) bool) CheckFill {
	return CheckFill{At: At(field), Check: fn}
}

// Choose is shorthand for a SelectFill on a named field.
func Choose(field string, options []string, fn func(applicant.Reader) string) SelectFill {
	return SelectFill{At: At(field), Options: options, Select: fn}
}

func validateFill(fill Formfill) error {
	loc := fill.Location()
	if !loc.Named() && loc.Page < 1 {
		return fmt.Errorf("placement needs a field name or a page >= 1")
	}
	switch f := fill.(type) {
	case TextFill:
		if f.Text == nil {
			return fmt.Errorf("text fill %s has no producer", loc)
		}
	case CheckFill:
		if f.Check == nil {
			return fmt.Errorf("check fill %s has no predicate", loc)
		}
	case SelectFill:
		if f.Select == nil {
			return fmt.Errorf("select fill %s has no selector", loc)
		}
		if len(f.Options) == 0 {
			return fmt.Errorf("select fill %s has no options", loc)
		}
	default:
		return fmt.Errorf("unsupported fill %T", fill)
	}
	return nil
}
