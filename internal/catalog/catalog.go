// Package catalog defines the jurisdiction knowledge base: the legal targets a
// person can pursue, the processes that satisfy them, the documents each
// process files, and the applicant fields those documents consume.
//
// Catalog entries are immutable once registered. Hooks (inclusion predicates
// and form fills) are plain functions over an applicant.Reader so the scanner
// can replay them against an observing wrapper.
package catalog

import (
	"fmt"

	"github.com/kingrea/waypoint/internal/applicant"
)

// Target names a legal or administrative objective.
type Target string

const (
	TargetNameChange       Target = "name-change"
	TargetFingerprints     Target = "fingerprints"
	TargetStateID          Target = "state-id"
	TargetBirthCertificate Target = "birth-certificate"
	TargetPassport         Target = "passport"
	TargetSocialSecurity   Target = "social-security"
)

// Jurisdiction tags the authority a process is filed with.
type Jurisdiction string

const (
	JurisdictionNone     Jurisdiction = ""
	JurisdictionMichigan Jurisdiction = "MI"
	JurisdictionFederal  Jurisdiction = "US"
)

// Predicate decides something about an applicant.
type Predicate func(applicant.Reader) bool

// Process is the filing procedure for one Target.
type Process struct {
	Target       Target
	Jurisdiction Jurisdiction
	Title        string
	Summary      string
	Depends      []Target
	Documents    []Document
}

// Validate ensures the process is self-consistent. Depends entries are not
// checked here; the registry does that once every process is known.
func (p *Process) Validate() error {
	if p == nil {
		return fmt.Errorf("catalog: process is nil")
	}
	if p.Target == "" {
		return fmt.Errorf("catalog: process target is required")
	}
	if p.Title == "" {
		return fmt.Errorf("catalog: title is required for %s", p.Target)
	}
	seen := map[string]struct{}{}
	for idx, doc := range p.Documents {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("catalog: %s document[%d]: %w", p.Target, idx, err)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("catalog: %s: duplicate document id %s", p.Target, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return nil
}

// Includes reports the documents whose inclusion predicate passes for r.
func (p *Process) Includes(r applicant.Reader) []Document {
	if p == nil {
		return nil
	}
	out := make([]Document, 0, len(p.Documents))
	for _, doc := range p.Documents {
		if doc.Applies(r) {
			out = append(out, doc)
		}
	}
	return out
}

// Document is one form or guide filed as part of a Process.
type Document struct {
	ID       string
	Name     string
	Template string
	Guide    string
	Include  Predicate
	Fills    []Formfill
}

// Applies reports whether the document belongs in the packet for r. A nil
// Include means the document always applies.
func (d Document) Applies(r applicant.Reader) bool {
	if d.Include == nil {
		return true
	}
	return d.Include(r)
}

// Validate ensures the document is well-formed.
func (d Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("document name is required for %s", d.ID)
	}
	if len(d.Fills) > 0 && d.Template == "" {
		return fmt.Errorf("document %s has fills but no template", d.ID)
	}
	for idx, fill := range d.Fills {
		if fill == nil {
			return fmt.Errorf("document %s fill[%d] is nil", d.ID, idx)
		}
		if err := validateFill(fill); err != nil {
			return fmt.Errorf("document %s fill[%d]: %w", d.ID, idx, err)
		}
	}
	return nil
}

// Index is a plain map-backed catalog. Entries may be nil.
type Index map[Target]*Process

// Lookup returns the process registered for target.
func (i Index) Lookup(target Target) (*Process, bool) {
	proc, ok := i[target]
	if !ok || proc == nil {
		return nil, false
	}
	return proc, true
}
