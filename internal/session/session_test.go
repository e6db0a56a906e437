package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/waypoint/internal/applicant"
	"github.com/kingrea/waypoint/internal/artifact"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/processes"
	"github.com/kingrea/waypoint/internal/wizard"
)

func fixedClock() time.Time {
	return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
}

func newStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "sessions")
	return New(artifact.NewStore(root, artifact.WithClock(fixedClock)), opts...), root
}

func TestSaveAndLoadAnswers(t *testing.T) {
	store, _ := newStore(t)
	reg := processes.Default()
	state := wizard.New(reg, wizard.WithID("s-1"), wizard.WithClock(fixedClock))
	require.NoError(t, state.Select(catalog.TargetPassport))
	require.NoError(t, state.Submit(map[string]string{"first-name": "Alex", "has-passport": "yes"}))
	require.NoError(t, state.Next())
	require.NoError(t, store.SaveAnswers(state))

	latest, err := store.Latest()
	require.NoError(t, err)
	require.Equal(t, "s-1", latest)

	resumed := wizard.New(reg, wizard.WithClock(fixedClock))
	require.NoError(t, store.Load("s-1", resumed))
	require.Equal(t, "s-1", resumed.ID())
	require.Equal(t, wizard.StepDetails, resumed.Step())
	require.Equal(t, []string{"passport"}, resumed.Targets())
	require.Equal(t, "Alex", resumed.Person().String(applicant.PathNameFirst))
	require.True(t, resumed.Person().Bool(applicant.PathPassportHas))
}

func TestLoadMissingSession(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Latest()
	require.True(t, errors.Is(err, ErrNoSession))
	err = store.Load("ghost", wizard.New(processes.Default()))
	require.True(t, errors.Is(err, ErrNoSession))
}

func TestSavePacketWritesArtifacts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "packets")
	store, root := newStore(t, WithOutputDir(out))
	reg := processes.Default()
	state := wizard.New(reg, wizard.WithID("s-2"), wizard.WithClock(fixedClock))
	require.NoError(t, state.Select(catalog.TargetStateID))
	require.NoError(t, state.Submit(map[string]string{"first-name": "Alex", "last-name": "Rivera"}))

	compiler := packet.NewCompiler(packet.NewFSSource("embedded", processes.Templates()),
		packet.WithGuides(reg),
		packet.WithClock(fixedClock),
		packet.WithIDs(func() string { return "pkt-9" }),
	)
	pkt, err := compiler.Compile(context.Background(), state.Processes(), state.Person())
	require.NoError(t, err)

	result, err := store.SavePacket(state, pkt)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "s-2"), result.SessionDir)
	require.Equal(t, filepath.Join(out, "waypoint-s-2.pdf"), result.OutputPath)

	pdf, err := os.ReadFile(result.PDFPath)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	copied, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	require.Equal(t, pdf, copied)

	summary, err := os.ReadFile(result.SummaryPath)
	require.NoError(t, err)
	meta, body, err := artifact.ParseFrontMatter(summary)
	require.NoError(t, err)
	require.NotNil(t, meta.Packet)
	require.Equal(t, "pkt-9", meta.Packet.ID)
	require.Equal(t, artifact.Checksum(pdf), meta.Packet.Checksum)
	require.Len(t, meta.Packet.Documents, len(pkt.Entries))
	for i, entry := range pkt.Entries {
		require.Equal(t, entry.DocumentID, meta.Packet.Documents[i])
	}
	require.Equal(t, []string{"state-id"}, meta.Targets)
	require.True(t, strings.Contains(string(body), "# Document packet"))

	require.NoError(t, store.Remove("s-2"))
	_, err = os.Stat(result.SessionDir)
	require.True(t, os.IsNotExist(err))
}

func TestSavePacketRejectsNil(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.SavePacket(wizard.New(processes.Default()), nil)
	require.Error(t, err)
}
