package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownTarget is returned when a caller names a target the registry does
// not know about.
var ErrUnknownTarget = errors.New("catalog: unknown target")

// Registry maintains the known processes, fields and guides in declaration
// order.
type Registry struct {
	mu        sync.RWMutex
	processes map[Target]*Process
	order     []Target
	fields    []Field
	fieldIdx  map[string]int
	guides    map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		processes: map[Target]*Process{},
		fieldIdx:  map[string]int{},
		guides:    map[string]string{},
	}
}

// Register installs a process. Returns an error if the target already exists.
func (r *Registry) Register(proc *Process) error {
	if err := proc.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.processes[proc.Target]; exists {
		return fmt.Errorf("catalog: %s already registered", proc.Target)
	}
	r.processes[proc.Target] = proc
	r.order = append(r.order, proc.Target)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(proc *Process) {
	if err := r.Register(proc); err != nil {
		panic(err)
	}
}

// RegisterField installs an applicant field.
func (r *Registry) RegisterField(field Field) error {
	if err := field.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.fieldIdx[field.Name]; exists {
		return fmt.Errorf("catalog: field %s already registered", field.Name)
	}
	r.fieldIdx[field.Name] = len(r.fields)
	r.fields = append(r.fields, field)
	return nil
}

// MustRegisterField panics if field registration fails.
func (r *Registry) MustRegisterField(field Field) {
	if err := r.RegisterField(field); err != nil {
		panic(err)
	}
}

// RegisterGuide stores guide text under id, replacing any previous text.
func (r *Registry) RegisterGuide(id, text string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guides[id] = text
}

// Lookup returns the process registered for target.
func (r *Registry) Lookup(target Target) (*Process, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	proc, ok := r.processes[target]
	return proc, ok
}

// Process is Lookup with an error for unknown targets.
func (r *Registry) Process(target Target) (*Process, error) {
	proc, ok := r.Lookup(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return proc, nil
}

// Targets returns the registered targets in declaration order.
func (r *Registry) Targets() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Target(nil), r.order...)
}

// Processes returns the registered processes in declaration order.
func (r *Registry) Processes() []*Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Process, 0, len(r.order))
	for _, target := range r.order {
		out = append(out, r.processes[target])
	}
	return out
}

// Fields returns the field catalog in declaration order.
func (r *Registry) Fields() []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Field(nil), r.fields...)
}

// Field returns the field registered under name.
func (r *Registry) Field(name string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.fieldIdx[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[idx], true
}

// Guide returns the guide text stored under id.
func (r *Registry) Guide(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	text, ok := r.guides[id]
	return text, ok
}

// Index returns a map snapshot of the registered processes.
func (r *Registry) Index() Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(Index, len(r.processes))
	for target, proc := range r.processes {
		out[target] = proc
	}
	return out
}

// ParseTargets converts raw identifiers into targets known to the registry.
// Unknown identifiers are reported together.
func (r *Registry) ParseTargets(raw []string) ([]Target, error) {
	out := make([]Target, 0, len(raw))
	var unknown []string
	for _, value := range raw {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		target := Target(value)
		if _, ok := r.Lookup(target); !ok {
			unknown = append(unknown, value)
			continue
		}
		out = append(out, target)
	}
	if len(unknown) > 0 {
		return out, fmt.Errorf("%w: %s", ErrUnknownTarget, strings.Join(unknown, ", "))
	}
	return out, nil
}

// Validate checks cross-entry consistency: every dependency and guide
// reference resolves and no two fields share an answer path. Cyclic
// dependencies are allowed; they mean the processes are filed together.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for _, target := range r.order {
		proc := r.processes[target]
		for _, dep := range proc.Depends {
			if dep == target {
				errs = append(errs, fmt.Errorf("catalog: %s depends on itself", target))
				continue
			}
			if _, ok := r.processes[dep]; !ok {
				errs = append(errs, fmt.Errorf("catalog: %s depends on unknown target %s", target, dep))
			}
		}
		for _, doc := range proc.Documents {
			if doc.Guide == "" {
				continue
			}
			if _, ok := r.guides[doc.Guide]; !ok {
				errs = append(errs, fmt.Errorf("catalog: %s document %s references missing guide %s", target, doc.ID, doc.Guide))
			}
		}
	}
	paths := map[string]string{}
	for _, field := range r.fields {
		if other, dup := paths[field.Path]; dup {
			errs = append(errs, fmt.Errorf("catalog: fields %s and %s share path %s", other, field.Name, field.Path))
			continue
		}
		paths[field.Path] = field.Name
	}
	return errors.Join(errs...)
}
