// Package artifact defines the files a wizard session leaves behind. Each
// artifact has a stable identifier, kind, and a resolver that maps to the
// actual path within the project's .waypoint/sessions tree.

package artifact

import (
	"fmt"
	"path/filepath"
	"time"
)

// Kind captures the storage shape and serialization format for an artifact.
type Kind string

const (
	// KindDocument represents a markdown document with YAML frontmatter.
	KindDocument Kind = "document"
	// KindJSON represents a JSON document enriched with a _waypoint metadata block.
	KindJSON Kind = "json"
	// KindBinary represents opaque bytes such as a rendered PDF.
	KindBinary Kind = "binary"
)

// Session locates one wizard session on disk.
type Session struct {
	Root string
	ID   string
}

// Dir returns the session directory.
func (s Session) Dir() string {
	if s.Root == "" || s.ID == "" {
		return ""
	}
	return filepath.Join(s.Root, s.ID)
}

// PathResolver returns the fully-qualified path to an artifact for a session.
type PathResolver func(Session) string

// ArtifactRef declares a stable identifier and metadata for an artifact.
type ArtifactRef struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	Optional    bool
	path        PathResolver
}

// Path resolves the artifact path for the provided session.
func (r ArtifactRef) Path(s Session) string {
	if s.Dir() == "" || r.path == nil {
		return ""
	}
	return filepath.Clean(r.path(s))
}

// Validate ensures the reference is well-formed.
func (r ArtifactRef) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("artifact: id is required")
	}
	if r.Kind == "" {
		return fmt.Errorf("artifact: kind is required for %s", r.ID)
	}
	if r.path == nil {
		return fmt.Errorf("artifact: path resolver missing for %s", r.ID)
	}
	return nil
}

// Metadata captures provenance stored inside artifact frontmatter or metadata blocks.
type Metadata struct {
	ArtifactID string
	SessionID  string
	Version    string
	Targets    []string
	CreatedAt  time.Time
	// Packet is set on artifacts written for a compiled packet.
	Packet *PacketRecord
}

// PacketRecord identifies the compiled packet an artifact belongs to.
type PacketRecord struct {
	ID string `yaml:"id" json:"id"`
	// Checksum is the hex sha256 of the packet PDF.
	Checksum  string   `yaml:"checksum,omitempty" json:"checksum,omitempty"`
	Documents []string `yaml:"documents,omitempty" json:"documents,omitempty"`
}

func (p *PacketRecord) clone() *PacketRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.Documents = append([]string(nil), p.Documents...)
	return &out
}

// WithDefaults ensures metadata carries the artifact ID and timestamps.
func (m Metadata) WithDefaults(ref ArtifactRef, now time.Time) Metadata {
	clone := m
	if clone.ArtifactID == "" {
		clone.ArtifactID = ref.ID
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = now.UTC()
	} else {
		clone.CreatedAt = clone.CreatedAt.UTC()
	}
	return clone
}

// ValidateFor ensures metadata matches the artifact contract.
func (m Metadata) ValidateFor(ref ArtifactRef) error {
	if m.ArtifactID != ref.ID {
		return fmt.Errorf("artifact: metadata id %s does not match ref %s", m.ArtifactID, ref.ID)
	}
	if m.SessionID == "" {
		return fmt.Errorf("artifact: session id is required for %s", ref.ID)
	}
	if m.Version == "" {
		return fmt.Errorf("artifact: version is required for %s", ref.ID)
	}
	return nil
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult captures Store.Check results.
type CheckResult struct {
	Ref      ArtifactRef
	Path     string
	State    State
	Metadata *Metadata
	Err      error
}

// helper to register global references
func register(ref ArtifactRef) ArtifactRef {
	if refs == nil {
		refs = map[string]ArtifactRef{}
	}
	refs[ref.ID] = ref
	return ref
}

var refs map[string]ArtifactRef

// Lookup returns a registered artifact reference by ID.
func Lookup(id string) (ArtifactRef, bool) {
	ref, ok := refs[id]
	return ref, ok
}

func inSession(name string) PathResolver {
	return func(s Session) string { return filepath.Join(s.Dir(), name) }
}

// Canonical artifact references for a wizard session.
var (
	AnswersJSON = register(ArtifactRef{
		ID:          "answers",
		Name:        "Answers",
		Description: "answers.json holding the selected targets and applicant answers",
		Kind:        KindJSON,
		path:        inSession("answers.json"),
	})
	PacketSummary = register(ArtifactRef{
		ID:          "packet-summary",
		Name:        "Packet Summary",
		Description: "packet.md listing the compiled documents and blank fields",
		Kind:        KindDocument,
		Optional:    true,
		path:        inSession("packet.md"),
	})
	PacketPDF = register(ArtifactRef{
		ID:          "packet-pdf",
		Name:        "Packet PDF",
		Description: "packet.pdf with every filled form and guide",
		Kind:        KindBinary,
		Optional:    true,
		path:        inSession("packet.pdf"),
	})
)
