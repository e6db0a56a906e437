// Package packet compiles the documents a person's processes call for into a
// single printable PDF: fetched template manifests, filled answers, and the
// guides explaining how to file each form.
package packet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/metrics"
)

// Guides resolves guide text by id. *catalog.Registry satisfies it.
type Guides interface {
	Guide(id string) (string, bool)
}

// Value is one fill resolved against the person and its template.
type Value struct {
	Field   string
	Label   string
	Kind    FieldKind
	Page    int
	X       float64
	Y       float64
	Width   float64
	Text    string
	Checked bool
}

// Entry is one included document of the packet.
type Entry struct {
	Target       catalog.Target
	ProcessTitle string
	DocumentID   string
	DocumentName string
	Template     *Template
	Guide        string
	Values       []Value
}

// Packet is the compiled output.
type Packet struct {
	ID      string
	Created time.Time
	Entries []Entry
	PDF     []byte
}

// Compiler turns resolved processes into a Packet.
type Compiler struct {
	source  Source
	guides  Guides
	logger  *logging.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// Option customizes a Compiler during construction.
type Option func(*Compiler)

// WithGuides supplies guide text appended after each document.
func WithGuides(g Guides) Option {
	return func(c *Compiler) {
		c.guides = g
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// WithMetrics records compile and template fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// WithClock overrides the clock used for derived answers and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Compiler) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithIDs overrides packet id generation.
func WithIDs(newID func() string) Option {
	return func(c *Compiler) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewCompiler builds a compiler fetching templates from source.
func NewCompiler(source Source, opts ...Option) *Compiler {
	c := &Compiler{
		source: source,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compile selects every document of procs whose inclusion predicate passes
// for person, fetches their templates concurrently, applies the fills and
// renders the packet. Any failed fetch fails the whole compile.
func (c *Compiler) Compile(ctx context.Context, procs []*catalog.Process, person *applicant.Person) (_ *Packet, err error) {
	if c.source == nil {
		return nil, fmt.Errorf("packet: compiler has no template source")
	}
	start := c.now()
	defer func() {
		c.metrics.ObserveCompile(c.now().Sub(start), err)
	}()

	reader := person.Clone()
	reader.Finalize(start)

	pkt := &Packet{ID: c.newID(), Created: start.UTC()}
	var docs []catalog.Document
	var ids []string
	seen := map[string]struct{}{}
	for _, proc := range procs {
		if proc == nil {
			continue
		}
		for _, doc := range proc.Includes(reader) {
			entry := Entry{
				Target:       proc.Target,
				ProcessTitle: proc.Title,
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
			}
			if doc.Guide != "" && c.guides != nil {
				if text, ok := c.guides.Guide(doc.Guide); ok {
					entry.Guide = text
				}
			}
			pkt.Entries = append(pkt.Entries, entry)
			docs = append(docs, doc)
			if doc.Template == "" {
				continue
			}
			if _, ok := seen[doc.Template]; !ok {
				seen[doc.Template] = struct{}{}
				ids = append(ids, doc.Template)
			}
		}
	}

	templates, err := c.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, doc := range docs {
		if doc.Template == "" {
			continue
		}
		tpl := templates[doc.Template]
		values, err := applyFills(tpl, doc, reader)
		if err != nil {
			return nil, err
		}
		pkt.Entries[i].Template = tpl
		pkt.Entries[i].Values = values
	}

	pdf, err := Render(pkt)
	if err != nil {
		return nil, err
	}
	pkt.PDF = pdf
	c.logger.Info("packet compiled",
		zap.String("packet", pkt.ID),
		zap.Int("documents", len(pkt.Entries)),
		zap.Int("templates", len(ids)),
		zap.Int("bytes", len(pdf)),
	)
	return pkt, nil
}

func (c *Compiler) fetch(ctx context.Context, ids []string) (map[string]*Template, error) {
	results := make([]*Template, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			tpl, err := c.source.Template(gctx, id)
			c.metrics.ObserveTemplateFetch(c.source.Name(), err)
			if err != nil {
				c.logger.Warn("template fetch failed", zap.String("template", id), zap.Error(err))
				return err
			}
			results[i] = tpl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[string]*Template, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out, nil
}

func applyFills(tpl *Template, doc catalog.Document, r applicant.Reader) ([]Value, error) {
	values := make([]Value, 0, len(doc.Fills))
	for _, fill := range doc.Fills {
		value, err := place(tpl, doc, fill)
		if err != nil {
			return nil, err
		}
		switch f := fill.(type) {
		case catalog.TextFill:
			if f.Text != nil {
				value.Text = strings.TrimSpace(f.Text(r))
			}
		case catalog.CheckFill:
			if f.Check != nil {
				value.Checked = f.Check(r)
			}
		case catalog.SelectFill:
			if f.Select != nil {
				value.Text = pickOption(f.Options, f.Select(r))
			}
		}
		values = append(values, value)
	}
	return values, nil
}

func place(tpl *Template, doc catalog.Document, fill catalog.Formfill) (Value, error) {
	at := fill.Location()
	kind := kindFor(fill)
	if !at.Named() {
		if at.Page < 1 || at.Page > tpl.Pages {
			return Value{}, fmt.Errorf("packet: %s fill %s: page outside template %s", doc.ID, at, tpl.ID)
		}
		return Value{Field: at.String(), Kind: kind, Page: at.Page, X: at.X, Y: at.Y, Width: defaultFieldWidth}, nil
	}
	field, ok := tpl.Field(at.Field)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s fills %s on %s", ErrUnknownField, doc.ID, at.Field, tpl.ID)
	}
	if field.Kind == FieldCheck {
		kind = FieldCheck
	}
	return Value{
		Field: at.Field,
		Label: field.Label,
		Kind:  kind,
		Page:  field.Page,
		X:     field.X,
		Y:     field.Y,
		Width: field.Width,
	}, nil
}

// pickOption returns the option matching selected, ignoring case. A selection
// outside a non-empty option list is left blank.
func pickOption(options []string, selected string) string {
	selected = strings.TrimSpace(selected)
	if len(options) == 0 || selected == "" {
		return selected
	}
	for _, opt := range options {
		if strings.EqualFold(opt, selected) {
			return opt
		}
	}
	return ""
}

// CheckCatalog fetches the template of every templated document in procs and
// verifies the document's fills against it.
func CheckCatalog(ctx context.Context, source Source, procs []*catalog.Process) error {
	var errs []error
	cache := map[string]*Template{}
	for _, proc := range procs {
		if proc == nil {
			continue
		}
		for _, doc := range proc.Documents {
			if doc.Template == "" {
				continue
			}
			tpl, ok := cache[doc.Template]
			if !ok {
				fetched, err := source.Template(ctx, doc.Template)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s/%s: %w", proc.Target, doc.ID, err))
					continue
				}
				tpl = fetched
				cache[doc.Template] = tpl
			}
			if err := tpl.CheckDocument(doc); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", proc.Target, doc.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}
