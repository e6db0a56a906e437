// Package scanner works out which applicant fields a set of processes needs
// by replaying the catalog hooks against an observing applicant record and
// collecting every path they read.
//
// Replaying a hook only follows the branch the record takes, so a path read
// behind a branch the record does not reach goes unreported. The scan uses a
// representative sample overlaid with the person's own answers, which keeps
// the common branches covered while still tracking the person's choices.
package scanner

import (
	"time"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/processes"
)

// Scanner discovers field usage against a fixed field catalog and sample.
type Scanner struct {
	fields []catalog.Field
	sample *applicant.Person
	now    func() time.Time
}

// Option customizes a Scanner during construction.
type Option func(*Scanner)

// WithSample replaces the representative record hooks are replayed against.
func WithSample(sample *applicant.Person) Option {
	return func(s *Scanner) {
		if sample != nil {
			s.sample = sample.Clone()
		}
	}
}

// WithClock overrides the clock used to finalize derived answers.
func WithClock(clock func() time.Time) Option {
	return func(s *Scanner) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New builds a scanner over the provided field catalog.
func New(fields []catalog.Field, opts ...Option) *Scanner {
	s := &Scanner{
		fields: append([]catalog.Field(nil), fields...),
		sample: applicant.Sample(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var defaultFields = processes.Fields()

// DiscoverAccesses replays every hook reachable from value against the
// built-in sample record and appends newly read paths to accessed.
func DiscoverAccesses(value any, accessed []string) []string {
	return New(defaultFields).DiscoverAccesses(value, accessed)
}

// NeededFieldNames reports the built-in catalog fields the processes need for
// person.
func NeededFieldNames(procs []*catalog.Process, person *applicant.Person) []string {
	return New(defaultFields).NeededFieldNames(procs, person)
}

// DiscoverAccesses replays every hook reachable from value against the sample
// record. Accepted values are processes (Process, *Process, []Process,
// []*Process), documents (Document, *Document, []Document, []*Document),
// fills (Formfill, []Formfill), bare predicates and []any mixing any of
// these; anything else contributes nothing. Paths are appended to accessed in
// first-read order, skipping ones already present. Every document is walked
// whether or not it would be included.
func (s *Scanner) DiscoverAccesses(value any, accessed []string) []string {
	obs := applicant.Observe(s.sample)
	w := walker{reader: obs}
	w.walk(value)
	return appendNew(accessed, obs.Accessed())
}

// NeededFieldNames lists the names of the catalog fields read by the hooks of
// procs, followed by any field whose visibility predicate passes for person.
// Every document of every process is walked, including ones person's answers
// currently exclude. The result is recomputed from scratch on every call.
func (s *Scanner) NeededFieldNames(procs []*catalog.Process, person *applicant.Person) []string {
	fields := s.NeededFields(procs, person)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}

// NeededFields is NeededFieldNames returning the field definitions.
func (s *Scanner) NeededFields(procs []*catalog.Process, person *applicant.Person) []catalog.Field {
	live := person.Clone()
	live.Finalize(s.now())
	base := s.sample.Overlay(person)
	base.Finalize(s.now())

	obs := applicant.Observe(base)
	w := walker{reader: obs}
	w.walk(procs)

	out := make([]catalog.Field, 0, len(s.fields))
	seen := make(map[string]struct{}, len(s.fields))
	add := func(f catalog.Field) {
		if _, ok := seen[f.Name]; ok {
			return
		}
		seen[f.Name] = struct{}{}
		out = append(out, f)
	}
	for _, path := range obs.Accessed() {
		for _, f := range s.fields {
			if f.Reads(path) {
				add(f)
			}
		}
	}
	for _, f := range s.fields {
		if f.IsVisible(live) {
			add(f)
		}
	}
	return out
}

func appendNew(dst, paths []string) []string {
	present := make(map[string]struct{}, len(dst))
	for _, path := range dst {
		present[path] = struct{}{}
	}
	for _, path := range paths {
		if _, ok := present[path]; ok {
			continue
		}
		present[path] = struct{}{}
		dst = append(dst, path)
	}
	return dst
}
