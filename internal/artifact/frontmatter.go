package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// A document artifact opens with a fenced YAML block keyed by "waypoint":
//
//	---
//	waypoint:
//	  artifact: packet-summary
//	  session: 5f0c...
//	  version: "1"
//	  created: "2024-06-01T12:00:00Z"
//	  targets:
//	    - state-id
//	  packet:
//	    id: pkt-9
//	    checksum: 9a1e...
//	    documents:
//	      - sex-designation
//	---
//
// JSON artifacts embed the same header under metadataKey.

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("artifact: missing frontmatter")
	// ErrMalformedFrontMatter indicates the YAML block was unterminated or
	// lacked the waypoint header.
	ErrMalformedFrontMatter = errors.New("artifact: malformed frontmatter")
)

const timeLayout = time.RFC3339

var (
	openFence  = []byte("---\n")
	closeFence = []byte("\n---\n")
)

// header is the on-disk form of Metadata, shared by both encodings.
type header struct {
	Artifact string        `yaml:"artifact" json:"artifact"`
	Session  string        `yaml:"session" json:"session"`
	Version  string        `yaml:"version" json:"version"`
	Created  string        `yaml:"created" json:"created"`
	Targets  []string      `yaml:"targets,omitempty" json:"targets,omitempty"`
	Packet   *PacketRecord `yaml:"packet,omitempty" json:"packet,omitempty"`
}

func newHeader(meta Metadata) header {
	return header{
		Artifact: meta.ArtifactID,
		Session:  meta.SessionID,
		Version:  meta.Version,
		Created:  meta.CreatedAt.UTC().Format(timeLayout),
		Targets:  append([]string(nil), meta.Targets...),
		Packet:   meta.Packet.clone(),
	}
}

func (h header) metadata() (Metadata, error) {
	if h.Artifact == "" || h.Session == "" || h.Version == "" {
		return Metadata{}, fmt.Errorf("artifact: incomplete metadata for %q", h.Artifact)
	}
	if h.Created == "" {
		return Metadata{}, fmt.Errorf("artifact: %s metadata missing created timestamp", h.Artifact)
	}
	created, err := time.Parse(timeLayout, h.Created)
	if err != nil {
		return Metadata{}, fmt.Errorf("artifact: parse created timestamp: %w", err)
	}
	return Metadata{
		ArtifactID: h.Artifact,
		SessionID:  h.Session,
		Version:    h.Version,
		Targets:    h.Targets,
		CreatedAt:  created.UTC(),
		Packet:     h.Packet,
	}, nil
}

// ParseFrontMatter splits a document artifact into its metadata and body.
func ParseFrontMatter(content []byte) (Metadata, []byte, error) {
	block, body, err := splitFrontMatter(content)
	if err != nil {
		return Metadata{}, nil, err
	}
	var doc struct {
		Waypoint *header `yaml:"waypoint"`
	}
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return Metadata{}, nil, fmt.Errorf("artifact: parse frontmatter: %w", err)
	}
	if doc.Waypoint == nil {
		return Metadata{}, nil, ErrMalformedFrontMatter
	}
	meta, err := doc.Waypoint.metadata()
	if err != nil {
		return Metadata{}, nil, err
	}
	return meta, body, nil
}

// WriteFrontMatter renders meta as the waypoint header followed by a blank
// line and body.
func WriteFrontMatter(meta Metadata, body []byte) ([]byte, error) {
	if meta.ArtifactID == "" {
		return nil, fmt.Errorf("artifact: metadata missing artifact id")
	}
	doc := struct {
		Waypoint header `yaml:"waypoint"`
	}{Waypoint: newHeader(meta)}
	var encoded bytes.Buffer
	enc := yaml.NewEncoder(&encoded)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("artifact: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("artifact: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.Write(openFence)
	buf.Write(bytes.TrimRight(encoded.Bytes(), "\n"))
	buf.Write(closeFence)
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}

func splitFrontMatter(content []byte) (block, body []byte, err error) {
	text := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	rest, ok := bytes.CutPrefix(text, openFence)
	if !ok {
		return nil, nil, ErrMissingFrontMatter
	}
	block, body, ok = bytes.Cut(rest, closeFence)
	if !ok {
		return nil, nil, ErrMalformedFrontMatter
	}
	return block, body, nil
}
