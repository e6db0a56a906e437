package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const metadataKey = "_waypoint"

// Store manages session artifact IO rooted at .waypoint/sessions.
type Store struct {
	root string
	now  func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store for the sessions directory.
func NewStore(root string, opts ...StoreOption) *Store {
	store := &Store{
		root: root,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Session returns the handle for a session id.
func (s *Store) Session(id string) Session {
	return Session{Root: s.root, ID: id}
}

// Sessions lists saved session ids, most recently modified first.
func (s *Store) Sessions() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("artifact: list sessions: %w", err)
	}
	type saved struct {
		id  string
		mod time.Time
	}
	var found []saved
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(AnswersJSON.Path(s.Session(entry.Name())))
		if err != nil {
			continue
		}
		found = append(found, saved{id: entry.Name(), mod: info.ModTime()})
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].mod.Equal(found[j].mod) {
			return found[i].id < found[j].id
		}
		return found[i].mod.After(found[j].mod)
	})
	out := make([]string, 0, len(found))
	for _, item := range found {
		out = append(out, item.id)
	}
	return out, nil
}

// Check inspects the artifact on disk and returns its status and metadata.
func (s *Store) Check(session Session, ref ArtifactRef) (CheckResult, error) {
	path := ref.Path(session)
	if path == "" {
		err := fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}, nil
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}, err
	}
	if info.IsDir() {
		return invalidResult(ref, path, fmt.Errorf("artifact: expected file got directory"))
	}
	switch ref.Kind {
	case KindBinary:
		if info.Size() == 0 {
			return invalidResult(ref, path, fmt.Errorf("artifact: %s is empty", ref.ID))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady}, nil
	default:
		_, meta, err := s.Read(session, ref)
		if err != nil {
			return invalidResult(ref, path, err)
		}
		if meta.ArtifactID != ref.ID {
			return invalidResult(ref, path, fmt.Errorf("artifact: metadata id %s does not match %s", meta.ArtifactID, ref.ID))
		}
		return CheckResult{Ref: ref, Path: path, State: StateReady, Metadata: &meta}, nil
	}
}

// Read returns the artifact body with its metadata stripped. Binary artifacts
// carry no metadata.
func (s *Store) Read(session Session, ref ArtifactRef) ([]byte, Metadata, error) {
	path := ref.Path(session)
	if path == "" {
		return nil, Metadata{}, fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Metadata{}, err
	}
	switch ref.Kind {
	case KindBinary:
		return data, Metadata{}, nil
	case KindJSON:
		return splitJSON(data)
	default:
		meta, body, err := ParseFrontMatter(data)
		if err != nil {
			return nil, Metadata{}, err
		}
		return bytes.TrimLeft(body, "\n"), meta, nil
	}
}

// Write persists the artifact contents and metadata based on its kind.
func (s *Store) Write(session Session, ref ArtifactRef, body []byte, meta Metadata) error {
	path := ref.Path(session)
	if path == "" {
		return fmt.Errorf("artifact: %s path could not be resolved", ref.ID)
	}
	switch ref.Kind {
	case KindBinary:
		return writeFile(path, body)
	case KindJSON:
		return s.writeJSON(path, ref, body, meta)
	default:
		return s.writeDocument(path, ref, body, meta)
	}
}

// Checksum returns the hex sha256 of data, as recorded in metadata.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) writeDocument(path string, ref ArtifactRef, body []byte, meta Metadata) error {
	if body == nil {
		body = []byte{}
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	content, err := WriteFrontMatter(prepared, body)
	if err != nil {
		return err
	}
	return writeFile(path, content)
}

func (s *Store) writeJSON(path string, ref ArtifactRef, body []byte, meta Metadata) error {
	if body == nil {
		body = []byte("{}")
	}
	prepared := meta.WithDefaults(ref, s.now())
	if err := prepared.ValidateFor(ref); err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("artifact: invalid json body for %s: %w", ref.ID, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload[metadataKey] = newHeader(prepared)
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: encode json for %s: %w", ref.ID, err)
	}
	return writeFile(path, encoded)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func invalidResult(ref ArtifactRef, path string, err error) (CheckResult, error) {
	return CheckResult{Ref: ref, Path: path, State: StateInvalid, Err: err}, err
}

func splitJSON(data []byte) ([]byte, Metadata, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, Metadata{}, fmt.Errorf("artifact: parse json metadata: %w", err)
	}
	raw, ok := payload[metadataKey]
	if !ok {
		return nil, Metadata{}, fmt.Errorf("artifact: missing %s metadata", metadataKey)
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, Metadata{}, fmt.Errorf("artifact: invalid %s metadata structure: %w", metadataKey, err)
	}
	meta, err := h.metadata()
	if err != nil {
		return nil, Metadata{}, err
	}
	delete(payload, metadataKey)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("artifact: re-encode json: %w", err)
	}
	return body, meta, nil
}
