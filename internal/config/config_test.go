package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProjectConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	waypointDir := filepath.Join(projectDir, ".waypoint")
	if err := os.MkdirAll(waypointDir, 0o755); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WaypointProjectDir: waypointDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Jurisdiction() != defaultJurisdiction {
		t.Fatalf("expected default jurisdiction %q, got %q", defaultJurisdiction, c.Jurisdiction())
	}
	if c.OutputDir() != filepath.Join(projectDir, defaultOutputDir) {
		t.Fatalf("expected output dir under project, got %s", c.OutputDir())
	}
}

func TestInitWaypointDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitWaypointDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, dir := range []string{"logs", "processes", "sessions"} {
		if info, err := os.Stat(filepath.Join(projectDir, WaypointDir, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", dir, err)
		}
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("load default config: %v", err)
	}
	if cfg.Project.Templates.Source != TemplateSourceEmbedded {
		t.Fatalf("expected embedded templates, got %s", cfg.Project.Templates.Source)
	}
	if cfg.Project.Server.Port != 8765 {
		t.Fatalf("expected port 8765 from default yaml, got %d", cfg.Project.Server.Port)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	waypointDir := filepath.Join(projectDir, ".waypoint")
	if err := os.MkdirAll(waypointDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
jurisdiction: mi
output_dir: out/packets
templates:
  source: DIR
  path: forms
  cache_size: 4
server:
  enabled: false
  port: 9000
log:
  level: DEBUG
`)
	if err := os.WriteFile(filepath.Join(waypointDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WaypointProjectDir: waypointDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err != nil {
		t.Fatalf("loadProjectConfig returned error: %v", err)
	}
	if c.Jurisdiction() != "MI" {
		t.Fatalf("expected jurisdiction upper-cased, got %s", c.Jurisdiction())
	}
	if c.Project.Templates.Source != TemplateSourceDir {
		t.Fatalf("expected dir source, got %s", c.Project.Templates.Source)
	}
	if !strings.HasPrefix(c.Project.Templates.Path, projectDir) {
		t.Fatalf("expected template path to be resolved, got %s", c.Project.Templates.Path)
	}
	if c.Project.Server.Enabled == nil || *c.Project.Server.Enabled {
		t.Fatalf("expected server disabled")
	}
	if c.LogLevel() != "debug" {
		t.Fatalf("expected debug level, got %s", c.LogLevel())
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	projectDir := t.TempDir()
	waypointDir := filepath.Join(projectDir, ".waypoint")
	if err := os.MkdirAll(waypointDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
templates:
  source: http
  url: ftp://forms.example.org
`)
	if err := os.WriteFile(filepath.Join(waypointDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &Config{ProjectDir: projectDir, WaypointProjectDir: waypointDir, Project: defaultProjectConfig()}
	if err := c.loadProjectConfig(); err == nil {
		t.Fatalf("expected validation error but got none")
	}
}

func TestNewConfigHonorsEnv(t *testing.T) {
	t.Setenv("WAYPOINT_TEMPLATE_SOURCE", "http")
	t.Setenv("WAYPOINT_TEMPLATE_URL", "https://forms.example.org/manifests/")
	t.Setenv("WAYPOINT_LOG_LEVEL", "warn")
	cfg, err := NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Project.Templates.Source != TemplateSourceHTTP {
		t.Fatalf("expected http source, got %s", cfg.Project.Templates.Source)
	}
	if cfg.Project.Templates.URL != "https://forms.example.org/manifests" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.Project.Templates.URL)
	}
	if cfg.LogLevel() != "warn" {
		t.Fatalf("expected warn level, got %s", cfg.LogLevel())
	}
}

func TestSetTemplateSourcePersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitWaypointDir(projectDir); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetTemplateSource("dir", "forms"); err != nil {
		t.Fatalf("set source: %v", err)
	}
	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Project.Templates.Path != filepath.Join(projectDir, "forms") {
		t.Fatalf("expected persisted path, got %s", reloaded.Project.Templates.Path)
	}
	if err := cfg.SetTemplateSource("ftp", ""); err == nil {
		t.Fatalf("expected invalid source to fail")
	}
}
