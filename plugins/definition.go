package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/catalog"
)

// GuidePrefix namespaces guide ids registered for plugin documents.
const GuidePrefix = "plugin/"

// ProcessDefinition describes a locally defined process loaded from YAML.
//
// The struct mirrors the on-disk schema under .waypoint/processes/*.yaml.
// Conditions and fills name answer paths; Build turns them into the same
// hooks built-in processes use.
type ProcessDefinition struct {
	Target       string               `json:"target" yaml:"target"`
	Title        string               `json:"title" yaml:"title"`
	Summary      string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Jurisdiction string               `json:"jurisdiction,omitempty" yaml:"jurisdiction,omitempty"`
	Depends      []string             `json:"depends,omitempty" yaml:"depends,omitempty"`
	Documents    []DocumentDefinition `json:"documents" yaml:"documents"`
}

// DocumentDefinition declares one document of a plugin process. Guide holds
// inline markdown rather than a guide id.
type DocumentDefinition struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Template string           `json:"template,omitempty" yaml:"template,omitempty"`
	Guide    string           `json:"guide,omitempty" yaml:"guide,omitempty"`
	When     *Condition       `json:"when,omitempty" yaml:"when,omitempty"`
	Fills    []FillDefinition `json:"fills,omitempty" yaml:"fills,omitempty"`
}

// Condition is a declarative predicate. Exactly one form must be set.
type Condition struct {
	Set    string      `json:"set,omitempty" yaml:"set,omitempty"`
	Path   string      `json:"path,omitempty" yaml:"path,omitempty"`
	Equals string      `json:"equals,omitempty" yaml:"equals,omitempty"`
	Minor  bool        `json:"minor,omitempty" yaml:"minor,omitempty"`
	Not    *Condition  `json:"not,omitempty" yaml:"not,omitempty"`
	All    []Condition `json:"all,omitempty" yaml:"all,omitempty"`
	Any    []Condition `json:"any,omitempty" yaml:"any,omitempty"`
}

// FillDefinition maps one template field. Set exactly one of Answer, Check or
// Choose.
type FillDefinition struct {
	Field   string     `json:"field" yaml:"field"`
	Answer  string     `json:"answer,omitempty" yaml:"answer,omitempty"`
	Check   *Condition `json:"check,omitempty" yaml:"check,omitempty"`
	Choose  string     `json:"choose,omitempty" yaml:"choose,omitempty"`
	Options []string   `json:"options,omitempty" yaml:"options,omitempty"`
}

// Normalized returns a trimmed copy with targets lower-cased.
func (def ProcessDefinition) Normalized() ProcessDefinition {
	clone := ProcessDefinition{
		Target:       normalizeTarget(def.Target),
		Title:        strings.TrimSpace(def.Title),
		Summary:      strings.TrimSpace(def.Summary),
		Jurisdiction: strings.ToUpper(strings.TrimSpace(def.Jurisdiction)),
	}
	for _, dep := range def.Depends {
		if trimmed := normalizeTarget(dep); trimmed != "" {
			clone.Depends = append(clone.Depends, trimmed)
		}
	}
	if len(def.Documents) > 0 {
		clone.Documents = make([]DocumentDefinition, len(def.Documents))
		for i, doc := range def.Documents {
			clone.Documents[i] = doc.normalized()
		}
	}
	return clone
}

func (doc DocumentDefinition) normalized() DocumentDefinition {
	clone := DocumentDefinition{
		ID:       strings.TrimSpace(doc.ID),
		Name:     strings.TrimSpace(doc.Name),
		Template: strings.TrimSpace(doc.Template),
		Guide:    strings.TrimSpace(doc.Guide),
		When:     doc.When,
	}
	if len(doc.Fills) > 0 {
		clone.Fills = make([]FillDefinition, len(doc.Fills))
		for i, fill := range doc.Fills {
			clone.Fills[i] = FillDefinition{
				Field:   strings.TrimSpace(fill.Field),
				Answer:  strings.TrimSpace(fill.Answer),
				Check:   fill.Check,
				Choose:  strings.TrimSpace(fill.Choose),
				Options: fill.Options,
			}
		}
	}
	return clone
}

// Validate ensures the definition can be turned into a catalog process.
func (def ProcessDefinition) Validate() error {
	normalized := def.Normalized()
	if normalized.Target == "" {
		return fmt.Errorf("plugin: target is required")
	}
	if normalized.Title == "" {
		return fmt.Errorf("plugin %s: title is required", normalized.Target)
	}
	if len(normalized.Documents) == 0 {
		return fmt.Errorf("plugin %s: at least one document is required", normalized.Target)
	}
	for _, dep := range normalized.Depends {
		if dep == normalized.Target {
			return fmt.Errorf("plugin %s: depends on itself", normalized.Target)
		}
	}
	for idx, doc := range normalized.Documents {
		if err := doc.validate(); err != nil {
			return fmt.Errorf("plugin %s: documents[%d]: %w", normalized.Target, idx, err)
		}
	}
	return nil
}

func (doc DocumentDefinition) validate() error {
	if doc.ID == "" {
		return fmt.Errorf("id is required")
	}
	if doc.Name == "" {
		return fmt.Errorf("name is required for %s", doc.ID)
	}
	if doc.When != nil {
		if err := doc.When.Validate(); err != nil {
			return fmt.Errorf("%s when: %w", doc.ID, err)
		}
	}
	if len(doc.Fills) > 0 && doc.Template == "" {
		return fmt.Errorf("%s has fills but no template", doc.ID)
	}
	for idx, fill := range doc.Fills {
		if err := fill.validate(); err != nil {
			return fmt.Errorf("%s fills[%d]: %w", doc.ID, idx, err)
		}
	}
	return nil
}

func (fill FillDefinition) validate() error {
	if fill.Field == "" {
		return fmt.Errorf("field is required")
	}
	set := 0
	if fill.Answer != "" {
		set++
	}
	if fill.Check != nil {
		set++
		if err := fill.Check.Validate(); err != nil {
			return fmt.Errorf("%s check: %w", fill.Field, err)
		}
	}
	if fill.Choose != "" {
		set++
		if len(fill.Options) == 0 {
			return fmt.Errorf("%s choose needs options", fill.Field)
		}
	}
	if set != 1 {
		return fmt.Errorf("%s must set exactly one of answer, check or choose", fill.Field)
	}
	return nil
}

// Validate ensures exactly one condition form is set, recursively.
func (c *Condition) Validate() error {
	if c == nil {
		return fmt.Errorf("condition is empty")
	}
	set := 0
	if strings.TrimSpace(c.Set) != "" {
		set++
	}
	if strings.TrimSpace(c.Path) != "" {
		set++
	}
	if c.Minor {
		set++
	}
	if c.Not != nil {
		set++
		if err := c.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	}
	if len(c.All) > 0 {
		set++
		for i := range c.All {
			if err := c.All[i].Validate(); err != nil {
				return fmt.Errorf("all[%d]: %w", i, err)
			}
		}
	}
	if len(c.Any) > 0 {
		set++
		for i := range c.Any {
			if err := c.Any[i].Validate(); err != nil {
				return fmt.Errorf("any[%d]: %w", i, err)
			}
		}
	}
	if set != 1 {
		return fmt.Errorf("set exactly one of set, path, minor, not, all or any")
	}
	return nil
}

// Predicate builds the catalog predicate for the condition.
func (c *Condition) Predicate() catalog.Predicate {
	switch {
	case c == nil:
		return nil
	case strings.TrimSpace(c.Set) != "":
		return catalog.IsTrue(strings.TrimSpace(c.Set))
	case strings.TrimSpace(c.Path) != "":
		return catalog.Equals(strings.TrimSpace(c.Path), strings.TrimSpace(c.Equals))
	case c.Minor:
		return catalog.Minor
	case c.Not != nil:
		return catalog.Not(c.Not.Predicate())
	case len(c.All) > 0:
		return catalog.All(predicates(c.All)...)
	default:
		return catalog.Any(predicates(c.Any)...)
	}
}

func predicates(conds []Condition) []catalog.Predicate {
	out := make([]catalog.Predicate, 0, len(conds))
	for i := range conds {
		out = append(out, conds[i].Predicate())
	}
	return out
}

// paths lists every answer path the condition reads.
func (c *Condition) paths() []string {
	if c == nil {
		return nil
	}
	var out []string
	if p := strings.TrimSpace(c.Set); p != "" {
		out = append(out, p)
	}
	if p := strings.TrimSpace(c.Path); p != "" {
		out = append(out, p)
	}
	if c.Minor {
		out = append(out, applicant.PathAge)
	}
	out = append(out, c.Not.paths()...)
	for i := range c.All {
		out = append(out, c.All[i].paths()...)
	}
	for i := range c.Any {
		out = append(out, c.Any[i].paths()...)
	}
	return out
}

// Paths lists every answer path the definition reads, in declaration order
// and possibly repeated.
func (def ProcessDefinition) Paths() []string {
	var out []string
	for _, doc := range def.Normalized().Documents {
		out = append(out, doc.When.paths()...)
		for _, fill := range doc.Fills {
			switch {
			case fill.Answer != "":
				out = append(out, fill.Answer)
			case fill.Choose != "":
				out = append(out, fill.Choose)
			default:
				out = append(out, fill.Check.paths()...)
			}
		}
	}
	return out
}

// Build converts the definition into a catalog process plus the inline guide
// texts keyed by the guide ids the process references.
func (def ProcessDefinition) Build() (*catalog.Process, map[string]string, error) {
	if err := def.Validate(); err != nil {
		return nil, nil, err
	}
	normalized := def.Normalized()
	proc := &catalog.Process{
		Target:       catalog.Target(normalized.Target),
		Jurisdiction: catalog.Jurisdiction(normalized.Jurisdiction),
		Title:        normalized.Title,
		Summary:      normalized.Summary,
	}
	for _, dep := range normalized.Depends {
		proc.Depends = append(proc.Depends, catalog.Target(dep))
	}
	guides := map[string]string{}
	for _, doc := range normalized.Documents {
		built := catalog.Document{
			ID:       doc.ID,
			Name:     doc.Name,
			Template: doc.Template,
			Include:  doc.When.Predicate(),
		}
		if doc.Guide != "" {
			built.Guide = GuidePrefix + normalized.Target + "/" + doc.ID
			guides[built.Guide] = doc.Guide
		}
		for _, fill := range doc.Fills {
			built.Fills = append(built.Fills, fill.build())
		}
		proc.Documents = append(proc.Documents, built)
	}
	if err := proc.Validate(); err != nil {
		return nil, nil, err
	}
	return proc, guides, nil
}

func (fill FillDefinition) build() catalog.Formfill {
	switch {
	case fill.Answer != "":
		return catalog.Answer(fill.Field, fill.Answer)
	case fill.Choose != "":
		path := fill.Choose
		return catalog.Choose(fill.Field, fill.Options, func(r applicant.Reader) string {
			return r.String(path)
		})
	default:
		return catalog.Check(fill.Field, fill.Check.Predicate())
	}
}

func normalizeTarget(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
