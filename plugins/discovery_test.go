package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
	"github.com/kingrea/waypoint/internal/processes"
	"github.com/kingrea/waypoint/internal/resolver"
)

func TestRegisterProcessPlugins(t *testing.T) {
	cfg := initTestConfig(t)
	writePlugin(t, cfg, "county.yaml", sampleDefinition)
	reg := processes.Default()

	targets, err := RegisterProcessPlugins(reg, cfg)
	if err != nil {
		t.Fatalf("register plugins: %v", err)
	}
	if len(targets) != 1 || targets[0] != "county-notice" {
		t.Fatalf("targets = %v", targets)
	}
	closure := resolver.Closure(reg, []catalog.Target{"county-notice"})
	if len(closure) < 2 || closure[1] != catalog.TargetNameChange {
		t.Fatalf("closure = %v", closure)
	}
	if err := reg.Validate(); err != nil {
		t.Fatalf("registry should stay valid: %v", err)
	}
}

func TestRegisterProcessPluginsRejectsUnknownPaths(t *testing.T) {
	cfg := initTestConfig(t)
	writePlugin(t, cfg, "bad.yaml", strings.Replace(sampleDefinition, "answer: name:full", "answer: shoe:size", 1))
	reg := processes.Default()
	before := len(reg.Targets())

	_, err := RegisterProcessPlugins(reg, cfg)
	if err == nil || !strings.Contains(err.Error(), "shoe:size") {
		t.Fatalf("expected unknown path error, got %v", err)
	}
	if len(reg.Targets()) != before {
		t.Fatalf("failed plugins must not be registered")
	}
}

func TestRegisterProcessPluginsRejectsBuiltInTargets(t *testing.T) {
	cfg := initTestConfig(t)
	writePlugin(t, cfg, "clash.yaml", strings.Replace(sampleDefinition, "target: county-notice", "target: passport", 1))
	if _, err := RegisterProcessPlugins(processes.Default(), cfg); err == nil {
		t.Fatalf("expected clash with built-in target")
	}
}

func TestRegisterProcessPluginsUnknownDependency(t *testing.T) {
	cfg := initTestConfig(t)
	writePlugin(t, cfg, "dep.yaml", strings.Replace(sampleDefinition, "depends: [name-change]", "depends: [drivers-license]", 1))
	if _, err := RegisterProcessPlugins(processes.Default(), cfg); err == nil {
		t.Fatalf("expected unknown dependency error")
	}
}

func writePlugin(t *testing.T, cfg *config.Config, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(cfg.ProcessesDir(), name), []byte(body), 0o644); err != nil {
		t.Fatalf("write plugin: %v", err)
	}
}

func initTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	if err := config.InitWaypointDir(root); err != nil {
		t.Fatalf("init waypoint: %v", err)
	}
	return &config.Config{
		ProjectDir:         root,
		WaypointProjectDir: filepath.Join(root, config.WaypointDir),
	}
}
