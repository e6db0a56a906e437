package plugins

import (
	"errors"
	"fmt"

	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
)

// RegisterProcessPlugins discovers YAML and Go process definitions under
// .waypoint/processes and registers them with reg. Every definition is
// checked before any is registered, so a bad plugin leaves reg untouched.
func RegisterProcessPlugins(reg *catalog.Registry, cfg *config.Config) ([]catalog.Target, error) {
	if reg == nil || cfg == nil {
		return nil, nil
	}
	defs, err := loadAllDefinitionFiles(cfg.ProcessesDir())
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	type built struct {
		proc   *catalog.Process
		guides map[string]string
	}
	pending := make([]built, 0, len(defs))
	seen := make(map[catalog.Target]string, len(defs))
	var errs []error
	for _, file := range defs {
		proc, guides, err := file.Definition.Build()
		if err != nil {
			errs = append(errs, fmt.Errorf("plugin: %s: %w", file.Path, err))
			continue
		}
		if existing, ok := seen[proc.Target]; ok {
			errs = append(errs, fmt.Errorf("plugin: duplicate target %s (%s and %s)", proc.Target, existing, file.Path))
			continue
		}
		if _, ok := reg.Lookup(proc.Target); ok {
			errs = append(errs, fmt.Errorf("plugin: %s: target %s is built in", file.Path, proc.Target))
			continue
		}
		seen[proc.Target] = file.Path
		for _, path := range file.Definition.Paths() {
			if !readable(reg, path) {
				errs = append(errs, fmt.Errorf("plugin: %s: no field answers %s", file.Path, path))
			}
		}
		pending = append(pending, built{proc: proc, guides: guides})
	}
	for _, item := range pending {
		for _, dep := range item.proc.Depends {
			if _, ok := seen[dep]; ok {
				continue
			}
			if _, ok := reg.Lookup(dep); !ok {
				errs = append(errs, fmt.Errorf("plugin: %s depends on unknown target %s", item.proc.Target, dep))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	targets := make([]catalog.Target, 0, len(pending))
	for _, item := range pending {
		if err := reg.Register(item.proc); err != nil {
			return targets, err
		}
		for id, text := range item.guides {
			reg.RegisterGuide(id, text)
		}
		targets = append(targets, item.proc.Target)
	}
	return targets, nil
}

func readable(reg *catalog.Registry, path string) bool {
	for _, field := range reg.Fields() {
		if field.Reads(path) {
			return true
		}
	}
	return false
}

func loadAllDefinitionFiles(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlDefs, goDefs...), nil
}
