// internal/config/config.go
//
// This package handles configuration and the .waypoint directory structure.
// Every project directory that runs waypoint gets a .waypoint/ folder holding
// the config file, logs and saved sessions.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// WaypointDir is the name of the directory we create in each project
	WaypointDir = ".waypoint"

	defaultJurisdiction = "MI"
	defaultOutputDir    = "packets"
	defaultCacheSize    = 32
	defaultLogLevel     = "info"

	// TemplateSourceEmbedded serves the manifests compiled into the binary.
	TemplateSourceEmbedded = "embedded"
	// TemplateSourceDir reads manifests from a local directory.
	TemplateSourceDir = "dir"
	// TemplateSourceHTTP fetches manifests from a base URL.
	TemplateSourceHTTP = "http"
)

const defaultProjectConfigYAML = `# waypoint project configuration
version: 1

# Jurisdiction whose state processes are offered first.
jurisdiction: MI

# Compiled packets are written here, relative to the project directory.
output_dir: packets

# Where form template manifests come from: embedded, dir or http.
templates:
  source: embedded
  # source: dir
  # path: ./forms
  # source: http
  # url: https://forms.example.org/manifests
  cache_size: 32

# Local HTTP API used by "waypoint serve".
server:
  enabled: true
  host: 127.0.0.1
  port: 8765

log:
  level: info
`

// TemplateConfig selects the form template source.
type TemplateConfig struct {
	Source    string `yaml:"source"`
	Path      string `yaml:"path,omitempty"`
	URL       string `yaml:"url,omitempty"`
	CacheSize int    `yaml:"cache_size,omitempty"`
}

// ServerConfig captures the HTTP API settings stored in config.yaml.
type ServerConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
	// MaxBodyKB limits API request bodies.
	MaxBodyKB int `yaml:"max_body_kb,omitempty"`
}

// LogConfig controls the structured log.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig models .waypoint/config.yaml.
type ProjectConfig struct {
	Version      int            `yaml:"version"`
	Jurisdiction string         `yaml:"jurisdiction"`
	OutputDir    string         `yaml:"output_dir"`
	Templates    TemplateConfig `yaml:"templates"`
	Server       ServerConfig   `yaml:"server"`
	Log          LogConfig      `yaml:"log"`
}

// Config holds the runtime configuration for waypoint.
type Config struct {
	// ProjectDir is the directory where the user ran `waypoint` from
	ProjectDir string

	// WaypointProjectDir is ProjectDir/.waypoint
	WaypointProjectDir string

	Project ProjectConfig
}

// InitWaypointDir creates the .waypoint directory structure in the given
// project directory and writes a default config.yaml on first run.
//
// Structure created:
// .waypoint/
// ├── config.yaml
// ├── logs/       <- waypoint.log and the journey logbook
// ├── processes/  <- local process plugins (*.yaml, *.go)
// └── sessions/   <- one folder per wizard session
func InitWaypointDir(projectDir string) error {
	waypointDir := filepath.Join(projectDir, WaypointDir)
	dirs := []string{
		filepath.Join(waypointDir, "logs"),
		filepath.Join(waypointDir, "processes"),
		filepath.Join(waypointDir, "sessions"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(waypointDir, "config.yaml"))
}

// NewConfig creates a Config populated with project settings and WAYPOINT_*
// environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		WaypointProjectDir: filepath.Join(projectDir, WaypointDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize(projectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.WaypointProjectDir, "logs")
}

// LogPath returns the structured log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "waypoint.log")
}

// JourneyPath returns the human-readable wizard logbook.
func (c *Config) JourneyPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// SessionsDir returns the directory holding saved sessions.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.WaypointProjectDir, "sessions")
}

// ProcessesDir returns the directory scanned for process plugins.
func (c *Config) ProcessesDir() string {
	return filepath.Join(c.WaypointProjectDir, "processes")
}

// OutputDir returns the absolute directory compiled packets are copied to.
func (c *Config) OutputDir() string {
	return c.Project.OutputDir
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.WaypointProjectDir, "config.yaml")
}

// Jurisdiction returns the configured home jurisdiction.
func (c *Config) Jurisdiction() string {
	return c.Project.Jurisdiction
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// SetTemplateSource updates the template source and persists the value back
// to .waypoint/config.yaml.
func (c *Config) SetTemplateSource(source, location string) error {
	source = normalizeSource(source)
	location = strings.TrimSpace(location)
	next := TemplateConfig{Source: source, CacheSize: c.Project.Templates.CacheSize}
	switch source {
	case TemplateSourceDir:
		next.Path = location
	case TemplateSourceHTTP:
		next.URL = location
	}
	c.Project.Templates = next
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version:      1,
		Jurisdiction: defaultJurisdiction,
		OutputDir:    defaultOutputDir,
		Templates: TemplateConfig{
			Source:    TemplateSourceEmbedded,
			CacheSize: defaultCacheSize,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Jurisdiction) == "" {
		pc.Jurisdiction = defaultJurisdiction
	}
	if strings.TrimSpace(pc.OutputDir) == "" {
		pc.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(pc.Templates.Source) == "" {
		pc.Templates.Source = TemplateSourceEmbedded
	}
	if pc.Templates.CacheSize <= 0 {
		pc.Templates.CacheSize = defaultCacheSize
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_JURISDICTION")); value != "" {
		pc.Jurisdiction = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_OUTPUT_DIR")); value != "" {
		pc.OutputDir = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_TEMPLATE_SOURCE")); value != "" {
		pc.Templates.Source = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_TEMPLATE_PATH")); value != "" {
		pc.Templates.Path = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_TEMPLATE_URL")); value != "" {
		pc.Templates.URL = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_TEMPLATE_CACHE")); value != "" {
		if size, err := strconv.Atoi(value); err == nil && size > 0 {
			pc.Templates.CacheSize = size
		}
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_SERVER_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			pc.Server.Enabled = &enabled
		}
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_SERVER_HOST")); value != "" {
		pc.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_SERVER_PORT")); value != "" {
		if port, err := strconv.Atoi(value); err == nil {
			pc.Server.Port = port
		}
	}
	if value := strings.TrimSpace(os.Getenv("WAYPOINT_LOG_LEVEL")); value != "" {
		pc.Log.Level = value
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Jurisdiction = strings.ToUpper(strings.TrimSpace(pc.Jurisdiction))
	pc.OutputDir = resolvePath(base, pc.OutputDir)
	pc.Templates.Source = normalizeSource(pc.Templates.Source)
	pc.Templates.Path = resolvePath(base, pc.Templates.Path)
	pc.Templates.URL = strings.TrimRight(strings.TrimSpace(pc.Templates.URL), "/")
	pc.Server.Host = strings.TrimSpace(pc.Server.Host)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Jurisdiction == "" {
		return fmt.Errorf("jurisdiction is required")
	}
	if err := pc.Templates.validate(); err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	if pc.Server.Port < 0 || pc.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535")
	}
	if pc.Server.MaxBodyKB < 0 {
		return fmt.Errorf("server.max_body_kb must not be negative")
	}
	switch pc.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

func (tc TemplateConfig) validate() error {
	switch tc.Source {
	case TemplateSourceEmbedded:
		return nil
	case TemplateSourceDir:
		if tc.Path == "" {
			return fmt.Errorf("path is required for dir templates")
		}
		return nil
	case TemplateSourceHTTP:
		if !strings.HasPrefix(tc.URL, "http://") && !strings.HasPrefix(tc.URL, "https://") {
			return fmt.Errorf("url must be http(s) for http templates")
		}
		return nil
	default:
		return fmt.Errorf("source must be 'embedded', 'dir' or 'http'")
	}
}

func normalizeSource(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize(c.ProjectDir)
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.WaypointProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure waypoint dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
