// Package session persists wizard sessions under .waypoint/sessions so a
// person can leave and resume, and files compiled packets next to them.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kingrea/waypoint/internal/artifact"
	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/wizard"
)

// Version is the schema version stamped on every session artifact.
const Version = "1"

// ErrNoSession is returned when no saved session exists.
var ErrNoSession = errors.New("session: no saved session")

// Result reports where a compiled packet was written.
type Result struct {
	SessionDir  string
	SummaryPath string
	PDFPath     string
	OutputPath  string
}

// Store saves and loads wizard sessions.
type Store struct {
	artifacts *artifact.Store
	outputDir string
	logger    *logging.Logger
}

// Option customizes a Store during construction.
type Option func(*Store)

// WithLogger records saves in the structured log.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithOutputDir also copies every compiled PDF into dir.
func WithOutputDir(dir string) Option {
	return func(s *Store) {
		s.outputDir = dir
	}
}

// New wraps an artifact store.
func New(artifacts *artifact.Store, opts ...Option) *Store {
	s := &Store{artifacts: artifacts}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) metadata(state *wizard.State) artifact.Metadata {
	return artifact.Metadata{
		SessionID: state.ID(),
		Version:   Version,
		Targets:   state.Targets(),
	}
}

// SaveAnswers writes the session snapshot to answers.json.
func (s *Store) SaveAnswers(state *wizard.State) error {
	body, err := state.Snapshot()
	if err != nil {
		return err
	}
	session := s.artifacts.Session(state.ID())
	if err := s.artifacts.Write(session, artifact.AnswersJSON, body, s.metadata(state)); err != nil {
		return fmt.Errorf("session: save answers: %w", err)
	}
	s.logger.Debug("answers saved", zap.String("session", state.ID()))
	return nil
}

// Load restores the saved session id into state.
func (s *Store) Load(id string, state *wizard.State) error {
	session := s.artifacts.Session(id)
	result, err := s.artifacts.Check(session, artifact.AnswersJSON)
	if err != nil {
		return fmt.Errorf("session: load %s: %w", id, err)
	}
	if result.State == artifact.StateMissing {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	body, _, err := s.artifacts.Read(session, artifact.AnswersJSON)
	if err != nil {
		return fmt.Errorf("session: load %s: %w", id, err)
	}
	if err := state.Restore(body); err != nil {
		return fmt.Errorf("session: load %s: %w", id, err)
	}
	return nil
}

// List returns saved session ids, most recent first.
func (s *Store) List() ([]string, error) {
	return s.artifacts.Sessions()
}

// Latest returns the most recently saved session id.
func (s *Store) Latest() (string, error) {
	ids, err := s.List()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", ErrNoSession
	}
	return ids[0], nil
}

// SavePacket writes the packet summary and PDF into the session, refreshes
// answers.json, and copies the PDF into the output directory when one is set.
func (s *Store) SavePacket(state *wizard.State, pkt *packet.Packet) (Result, error) {
	if pkt == nil {
		return Result{}, fmt.Errorf("session: packet is nil")
	}
	if err := s.SaveAnswers(state); err != nil {
		return Result{}, err
	}
	session := s.artifacts.Session(state.ID())
	meta := s.metadata(state)
	meta.Packet = &artifact.PacketRecord{
		ID:       pkt.ID,
		Checksum: artifact.Checksum(pkt.PDF),
	}
	for _, entry := range pkt.Entries {
		meta.Packet.Documents = append(meta.Packet.Documents, entry.DocumentID)
	}
	if err := s.artifacts.Write(session, artifact.PacketSummary, []byte(pkt.Summary()), meta); err != nil {
		return Result{}, fmt.Errorf("session: save summary: %w", err)
	}
	if err := s.artifacts.Write(session, artifact.PacketPDF, pkt.PDF, meta); err != nil {
		return Result{}, fmt.Errorf("session: save pdf: %w", err)
	}
	result := Result{
		SessionDir:  session.Dir(),
		SummaryPath: artifact.PacketSummary.Path(session),
		PDFPath:     artifact.PacketPDF.Path(session),
	}
	if s.outputDir != "" {
		out := filepath.Join(s.outputDir, "waypoint-"+state.ID()+".pdf")
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return result, fmt.Errorf("session: output dir: %w", err)
		}
		if err := os.WriteFile(out, pkt.PDF, 0o644); err != nil {
			return result, fmt.Errorf("session: copy pdf: %w", err)
		}
		result.OutputPath = out
	}
	s.logger.Info("packet saved",
		zap.String("session", state.ID()),
		zap.String("packet", pkt.ID),
		zap.Int("documents", len(pkt.Entries)),
		zap.String("pdf", result.PDFPath),
	)
	return result, nil
}

// Remove deletes a saved session directory.
func (s *Store) Remove(id string) error {
	dir := s.artifacts.Session(id).Dir()
	if dir == "" {
		return fmt.Errorf("session: id is required")
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", id, err)
	}
	return nil
}
