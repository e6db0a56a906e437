// Package wizard holds the state of one guided session: the targets a person
// chose, the processes those imply, the answers given so far, and the step
// the person is on. Every mutation goes through a State method; nothing is
// shared between sessions.
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/logbook"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/resolver"
	"github.com/kingrea/waypoint/internal/scanner"
)

// Step names a screen of the wizard.
type Step string

const (
	StepSelect  Step = "select"
	StepDetails Step = "details"
	StepReview  Step = "review"
	StepCompile Step = "compile"
	StepDone    Step = "done"
)

var stepOrder = []Step{StepSelect, StepDetails, StepReview, StepCompile, StepDone}

// ErrNoSelection is returned when leaving the select step with nothing chosen.
var ErrNoSelection = errors.New("wizard: no targets selected")

const defaultPageSize = 6

// Catalog is the knowledge base a session draws from. *catalog.Registry
// satisfies it.
type Catalog interface {
	resolver.Catalog
	Targets() []catalog.Target
	Fields() []catalog.Field
}

// State is one wizard session.
type State struct {
	id        string
	cat       Catalog
	scan      *scanner.Scanner
	fields    map[string]catalog.Field
	selected  []catalog.Target
	processes []*catalog.Process
	person    *applicant.Person
	step      Step
	page      int
	pageSize  int
	now       func() time.Time
	journal   *logbook.Logbook
	metrics   *metrics.Metrics
}

// Option customizes a State during construction.
type Option func(*State)

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(s *State) {
		if strings.TrimSpace(id) != "" {
			s.id = strings.TrimSpace(id)
		}
	}
}

// WithClock overrides the clock used to derive answers such as age.
func WithClock(clock func() time.Time) Option {
	return func(s *State) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogbook records wizard progress in the journey log.
func WithLogbook(book *logbook.Logbook) Option {
	return func(s *State) {
		s.journal = book
	}
}

// WithMetrics records resolutions and scans.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *State) {
		s.metrics = m
	}
}

// WithPageSize sets how many fields the details step shows at once.
func WithPageSize(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New starts a session at the select step.
func New(cat Catalog, opts ...Option) *State {
	s := &State{
		id:       uuid.NewString(),
		cat:      cat,
		person:   applicant.New(),
		step:     StepSelect,
		pageSize: defaultPageSize,
		now:      time.Now,
		fields:   map[string]catalog.Field{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	fields := cat.Fields()
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	s.scan = scanner.New(fields, scanner.WithClock(s.now))
	s.journal.Step(s.id, string(s.step), "session started")
	return s
}

// ID returns the session id.
func (s *State) ID() string { return s.id }

// Step returns the current step.
func (s *State) Step() Step { return s.step }

// Selected returns the chosen targets in selection order.
func (s *State) Selected() []catalog.Target {
	return append([]catalog.Target(nil), s.selected...)
}

// IsSelected reports whether target was chosen.
func (s *State) IsSelected(target catalog.Target) bool {
	for _, t := range s.selected {
		if t == target {
			return true
		}
	}
	return false
}

// Processes returns the resolved closure of the selection.
func (s *State) Processes() []*catalog.Process {
	return append([]*catalog.Process(nil), s.processes...)
}

// Implied returns the targets pulled in by dependencies alone.
func (s *State) Implied() []catalog.Target {
	return resolver.Implied(s.cat, s.selected)
}

// Person returns a copy of the answers given so far.
func (s *State) Person() *applicant.Person {
	return s.person.Clone()
}

// Toggle adds target to the selection, or removes it when already chosen.
func (s *State) Toggle(target catalog.Target) error {
	if _, ok := s.cat.Lookup(target); !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownTarget, target)
	}
	next := make([]catalog.Target, 0, len(s.selected)+1)
	removed := false
	for _, t := range s.selected {
		if t == target {
			removed = true
			continue
		}
		next = append(next, t)
	}
	if !removed {
		next = append(next, target)
	}
	s.setSelection(next)
	return nil
}

// Select replaces the selection. Unknown targets are rejected together.
func (s *State) Select(targets ...catalog.Target) error {
	var unknown []string
	next := make([]catalog.Target, 0, len(targets))
	seen := map[catalog.Target]struct{}{}
	for _, t := range targets {
		if _, ok := s.cat.Lookup(t); !ok {
			unknown = append(unknown, string(t))
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		next = append(next, t)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownTarget, strings.Join(unknown, ", "))
	}
	s.setSelection(next)
	return nil
}

func (s *State) setSelection(targets []catalog.Target) {
	s.selected = targets
	s.processes = resolver.ResolveDependencies(s.cat, targets)
	s.metrics.ObserveResolution("wizard", len(s.processes))
	s.page = 0
}

// NeededFields returns the fields the current processes need, recomputed
// from the answers given so far.
func (s *State) NeededFields() []catalog.Field {
	fields := s.scan.NeededFields(s.processes, s.person)
	s.metrics.ObserveScan(len(fields))
	return fields
}

// Page returns the fields of the current details page along with the page
// index and page count.
func (s *State) Page() ([]catalog.Field, int, int) {
	fields := s.NeededFields()
	total := (len(fields) + s.pageSize - 1) / s.pageSize
	if total == 0 {
		return nil, 0, 0
	}
	page := s.page
	if page >= total {
		page = total - 1
	}
	start := page * s.pageSize
	end := start + s.pageSize
	if end > len(fields) {
		end = len(fields)
	}
	return fields[start:end], page, total
}

// Submit validates values keyed by field name and merges the accepted ones
// into the answers. Every rejected value is reported; nothing is merged when
// any value is rejected.
func (s *State) Submit(values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed := make(map[string]any, len(values))
	var errs []error
	for _, name := range names {
		field, ok := s.fields[name]
		if !ok {
			errs = append(errs, &FieldError{Field: name, Reason: "unknown field"})
			continue
		}
		value, err := ParseAnswer(field, values[name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed[name] = value
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, name := range names {
		field := s.fields[name]
		if parsed[name] == nil {
			s.person.Delete(field.Path)
			continue
		}
		s.person.Set(field.Path, parsed[name])
	}
	s.journal.Step(s.id, string(s.step), "answered %d fields", len(names))
	return nil
}

// Answer returns the current answer for a field as form text.
func (s *State) Answer(name string) string {
	field, ok := s.fields[name]
	if !ok {
		return ""
	}
	value, ok := s.person.Lookup(field.Path)
	if !ok {
		if field.Default == nil {
			return ""
		}
		value = field.Default
	}
	if b, isBool := value.(bool); isBool {
		if b {
			return "yes"
		}
		return "no"
	}
	if !ok {
		return fmt.Sprint(value)
	}
	return s.person.String(field.Path)
}

// Next advances to the following step or details page.
func (s *State) Next() error {
	switch s.step {
	case StepSelect:
		if len(s.selected) == 0 {
			return ErrNoSelection
		}
		s.page = 0
	case StepDetails:
		if _, page, total := s.Page(); page+1 < total {
			s.page = page + 1
			s.journal.Step(s.id, string(s.step), "page %d of %d", s.page+1, total)
			return nil
		}
	case StepDone:
		return nil
	}
	s.moveTo(1)
	return nil
}

// Back returns to the previous step or details page.
func (s *State) Back() {
	switch s.step {
	case StepSelect:
		return
	case StepDetails:
		if _, page, _ := s.Page(); page > 0 {
			s.page = page - 1
			return
		}
	case StepReview:
		if _, _, total := s.Page(); total > 0 {
			s.page = total - 1
		}
	}
	s.moveTo(-1)
}

func (s *State) moveTo(delta int) {
	for i, step := range stepOrder {
		if step != s.step {
			continue
		}
		next := i + delta
		if next < 0 || next >= len(stepOrder) {
			return
		}
		s.step = stepOrder[next]
		s.journal.Step(s.id, string(s.step), "entered step")
		return
	}
}

// Finalize returns a copy of the answers with derived values computed.
func (s *State) Finalize() *applicant.Person {
	person := s.person.Clone()
	person.Finalize(s.now())
	return person
}

// Targets returns the selection as plain strings.
func (s *State) Targets() []string {
	out := make([]string, 0, len(s.selected))
	for _, t := range s.selected {
		out = append(out, string(t))
	}
	return out
}

type snapshot struct {
	ID      string            `json:"id"`
	Step    Step              `json:"step"`
	Page    int               `json:"page"`
	Targets []string          `json:"targets"`
	Answers *applicant.Person `json:"answers"`
}

// Snapshot serializes the session for later resumption.
func (s *State) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		ID:      s.id,
		Step:    s.step,
		Page:    s.page,
		Targets: s.Targets(),
		Answers: s.person,
	})
	if err != nil {
		return nil, fmt.Errorf("wizard: snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the session with a snapshot. A session resumed after
// compiling starts again at review.
func (s *State) Restore(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("wizard: restore: %w", err)
	}
	targets := make([]catalog.Target, 0, len(snap.Targets))
	for _, t := range snap.Targets {
		targets = append(targets, catalog.Target(t))
	}
	if err := s.Select(targets...); err != nil {
		return fmt.Errorf("wizard: restore: %w", err)
	}
	if snap.ID != "" {
		s.id = snap.ID
	}
	s.person = snap.Answers
	if s.person == nil {
		s.person = applicant.New()
	}
	switch snap.Step {
	case StepSelect, StepDetails, StepReview:
		s.step = snap.Step
	case StepCompile, StepDone:
		s.step = StepReview
	default:
		s.step = StepSelect
	}
	if snap.Page > 0 {
		s.page = snap.Page
	}
	s.journal.Step(s.id, string(s.step), "session restored")
	return nil
}
