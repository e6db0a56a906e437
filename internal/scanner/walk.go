package scanner

import (
	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
)

type walker struct {
	reader applicant.Reader
}

func (w walker) walk(value any) {
	switch v := value.(type) {
	case nil:
	case []*catalog.Process:
		for _, proc := range v {
			w.walk(proc)
		}
	case []catalog.Process:
		for i := range v {
			w.walk(&v[i])
		}
	case *catalog.Process:
		if v != nil {
			w.walk(v.Documents)
		}
	case catalog.Process:
		w.walk(v.Documents)
	case []catalog.Document:
		for _, doc := range v {
			w.document(doc)
		}
	case []*catalog.Document:
		for _, doc := range v {
			w.walk(doc)
		}
	case *catalog.Document:
		if v != nil {
			w.document(*v)
		}
	case catalog.Document:
		w.document(v)
	case []catalog.Formfill:
		for _, fill := range v {
			w.fill(fill)
		}
	case catalog.Formfill:
		w.fill(v)
	case catalog.Predicate:
		w.predicate(v)
	case func(applicant.Reader) bool:
		w.predicate(v)
	case []any:
		for _, item := range v {
			w.walk(item)
		}
	}
}

// document replays the inclusion predicate and then every fill, whatever the
// predicate decided.
func (w walker) document(doc catalog.Document) {
	if doc.Include != nil {
		w.predicate(doc.Include)
	}
	w.walk(doc.Fills)
}

func (w walker) fill(fill catalog.Formfill) {
	switch f := fill.(type) {
	case catalog.TextFill:
		if f.Text != nil {
			guard(func() { f.Text(w.reader) })
		}
	case catalog.CheckFill:
		if f.Check != nil {
			w.predicate(f.Check)
		}
	case catalog.SelectFill:
		if f.Select != nil {
			guard(func() { f.Select(w.reader) })
		}
	}
}

func (w walker) predicate(p catalog.Predicate) bool {
	if p == nil {
		return false
	}
	var result bool
	guard(func() { result = p(w.reader) })
	return result
}

// guard runs a catalog hook, absorbing a panic. The reads made before the
// panic are already on the access log.
func guard(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
