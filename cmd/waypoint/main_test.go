package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "-w", dir))
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveListsRequiredProcesses(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "resolve", "social-security")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, out)
	require.Contains(t, lines[1], "state-id")
	require.Contains(t, lines[1], "required")
	require.Contains(t, lines[2], "social-security")
	require.Contains(t, lines[2], "selected")

	_, err = os.Stat(filepath.Join(dir, config.WaypointDir, "config.yaml"))
	require.NoError(t, err, "load should initialise .waypoint")
}

func TestResolveJSON(t *testing.T) {
	out, err := run(t, t.TempDir(), "resolve", "--json", "name-change")
	require.NoError(t, err)
	var rows []struct {
		Target  string `json:"target"`
		Implied bool   `json:"implied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	got := map[string]bool{}
	for _, row := range rows {
		got[row.Target] = row.Implied
	}
	require.Equal(t, map[string]bool{"name-change": false, "fingerprints": true}, got)
}

func TestResolveRejectsUnknownTarget(t *testing.T) {
	_, err := run(t, t.TempDir(), "resolve", "drivers-license")
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrUnknownTarget), "got %v", err)
}

func TestFieldsShowsAnswersFromFile(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "me.yaml")
	require.NoError(t, os.WriteFile(answers, []byte("first-name: Robin\nbirthdate: 1991-02-03\nhas-passport: false\n"), 0o644))

	out, err := run(t, dir, "fields", "state-id", "--answers", answers)
	require.NoError(t, err)
	require.Contains(t, out, "first-name")
	require.Contains(t, out, "Robin")
	require.Contains(t, out, "1991-02-03")
}

func TestFieldsRejectsInvalidAnswers(t *testing.T) {
	dir := t.TempDir()
	answers := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(answers, []byte(`{"zip": "abc"}`), 0o644))

	_, err := run(t, dir, "fields", "state-id", "-a", answers)
	require.Error(t, err)
	require.Contains(t, err.Error(), "zip")
}

func TestCompileSavesSessionAndSessionsCommands(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "compile", "state-id")
	require.NoError(t, err)
	require.Contains(t, out, "PDF: ")
	require.Contains(t, out, "Copy: ")

	var pdfPath string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "PDF: ") {
			pdfPath = strings.TrimPrefix(line, "PDF: ")
		}
	}
	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	out, err = run(t, dir, "sessions")
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 3, out)
	id := fields[0]
	require.Contains(t, out, "state-id")

	_, err = run(t, dir, "compile", "--session", id)
	require.NoError(t, err)

	_, err = run(t, dir, "sessions", "rm", id)
	require.NoError(t, err)
	out, err = run(t, dir, "sessions")
	require.NoError(t, err)
	require.Contains(t, out, "No saved sessions.")
}

func TestCompileNeedsTargetsOrSession(t *testing.T) {
	_, err := run(t, t.TempDir(), "compile")
	require.Error(t, err)
}

func TestCatalogCheckPasses(t *testing.T) {
	out, err := run(t, t.TempDir(), "catalog", "check")
	require.NoError(t, err)
	require.Contains(t, out, "catalog ok: 6 processes")
	require.Contains(t, out, "templates from embedded")
}

func TestTemplatesUsePersistsSource(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "templates", "use", "http")
	require.Error(t, err)

	templates := filepath.Join(dir, "forms")
	require.NoError(t, os.MkdirAll(templates, 0o755))
	_, err = run(t, dir, "templates", "use", "dir", templates)
	require.NoError(t, err)

	cfg, err := config.NewConfig(dir)
	require.NoError(t, err)
	require.Equal(t, config.TemplateSourceDir, cfg.Project.Templates.Source)
	require.Equal(t, templates, cfg.Project.Templates.Path)

	_, err = run(t, dir, "templates", "use", "carrier-pigeon")
	require.Error(t, err)
}

func TestProcessPluginsJoinTheCatalog(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "catalog", "check")
	require.NoError(t, err)

	plugin := `target: court-copies
title: Certified copies of the order
depends: [name-change]
documents:
  - id: copies
    name: Copy request
    guide: Ask the clerk for three certified copies.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.WaypointDir, "processes", "copies.yaml"), []byte(plugin), 0o644))

	out, err := run(t, dir, "resolve", "court-copies")
	require.NoError(t, err)
	require.Contains(t, out, "court-copies")
	require.Contains(t, out, "name-change")
	require.Contains(t, out, "fingerprints")

	out, err = run(t, dir, "catalog", "check")
	require.NoError(t, err)
	require.Contains(t, out, "7 processes")
}
