package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kingrea/waypoint/internal/config"
)

const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 8765
	DefaultMaxBodyBytes int64 = 1 << 20
	DefaultReadTimeout        = 15 * time.Second
	// DefaultWriteTimeout covers packet rendering, the slowest handler.
	DefaultWriteTimeout = 60 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
)

// Settings is the runtime configuration of the HTTP API.
type Settings struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host" validate:"required,hostname_rfc1123|ip"`
	Port         int           `json:"port" validate:"min=0,max=65535"`
	MaxBodyBytes int64         `json:"max_body_bytes" validate:"min=1"`
	ReadTimeout  time.Duration `json:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `json:"idle_timeout" validate:"gt=0"`
}

// DefaultSettings serves on loopback with the default limits.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		Host:         DefaultHost,
		Port:         DefaultPort,
		MaxBodyBytes: DefaultMaxBodyBytes,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
}

// SettingsFromConfig overlays the server section of config.yaml on
// DefaultSettings. WAYPOINT_SERVER_* overrides are already folded into cfg by
// config.NewConfig.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := DefaultSettings()
	if cfg == nil {
		return settings
	}
	raw := cfg.Project.Server
	if raw.Enabled != nil {
		settings.Enabled = *raw.Enabled
	}
	if raw.Host != "" {
		settings.Host = raw.Host
	}
	if raw.Port > 0 {
		settings.Port = raw.Port
	}
	if raw.MaxBodyKB > 0 {
		settings.MaxBodyBytes = int64(raw.MaxBodyKB) << 10
	}
	return settings
}

// Validate reports settings the server cannot run with.
func (s Settings) Validate() error {
	if err := requestValidate.Struct(s); err != nil {
		return fmt.Errorf("server: settings: %w", err)
	}
	return nil
}

// Address is the bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL is the HTTP base URL for Address.
func (s Settings) URL() string {
	return "http://" + s.Address()
}
