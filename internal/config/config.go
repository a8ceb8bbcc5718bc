// Package config loads the INI-style startup configuration: a hand-rolled
// scanner produces a raw string map (grounded on the original config
// grammar), which is decoded into a typed, validated Config struct via
// mitchellh/mapstructure and go-playground/validator.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/omnifs/omnifs/internal/bytesize"
)

// FilesystemConfig configures the container's physical layout.
type FilesystemConfig struct {
	TotalSize         bytesize.ByteSize `mapstructure:"total_size" validate:"required"`
	HeaderSize        bytesize.ByteSize `mapstructure:"header_size" validate:"required"`
	BlockSize         bytesize.ByteSize `mapstructure:"block_size" validate:"required"`
	MaxFiles          uint32            `mapstructure:"max_files"`
	MaxFilenameLength uint32            `mapstructure:"max_filename_length"`
}

// SecurityConfig configures authentication and the bootstrap admin.
type SecurityConfig struct {
	MaxUsers      uint32 `mapstructure:"max_users" validate:"required"`
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	RequireAuth   bool   `mapstructure:"require_auth"`
}

// ServerConfig configures the TCP listener and worker queue.
type ServerConfig struct {
	Port           uint16 `mapstructure:"port" validate:"required"`
	MaxConnections uint32 `mapstructure:"max_connections" validate:"omitempty,gte=1"`
	QueueTimeout   uint32 `mapstructure:"queue_timeout"`
}

// LoggingConfig is an ambient section the distilled spec omits; absent
// entirely, it defaults to INFO/text/stdout.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the optional Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    uint16 `mapstructure:"port"`
}

// Config is the fully decoded, validated startup configuration.
type Config struct {
	Filesystem FilesystemConfig `mapstructure:"filesystem" validate:"required"`
	Security   SecurityConfig   `mapstructure:"security" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`

	// ConfigHash is the lowercase hex SHA-256 digest of the raw config text.
	ConfigHash string
	// ConfigTimestamp is the config file's mtime in seconds.
	ConfigTimestamp uint64
}

var validate = validator.New()

const truthyRequireAuth = "true|1|yes"

func normalizeBool(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, truthy := range strings.Split(truthyRequireAuth, "|") {
		if raw == truthy {
			return "true"
		}
	}
	return "false"
}

// Load reads, parses, decodes, and validates a config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	return Parse(string(raw), uint64(info.ModTime().Unix()))
}

// Parse decodes and validates config text already in memory, given its
// mtime. Exposed separately from Load so tests don't need a temp file.
func Parse(text string, mtime uint64) (*Config, error) {
	sections, err := parseINI(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}

	if v, ok := sections["security"]["require_auth"]; ok {
		sections["security"]["require_auth"] = normalizeBool(v)
	}
	if v, ok := sections["metrics"]["enabled"]; ok {
		sections["metrics"]["enabled"] = normalizeBool(v)
	}

	raw := make(map[string]interface{}, len(sections))
	for section, kv := range sections {
		m := make(map[string]interface{}, len(kv))
		for k, v := range kv {
			m[k] = v
		}
		raw[section] = m
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Filesystem.BlockSize > cfg.Filesystem.TotalSize {
		return nil, fmt.Errorf("invalid config: block_size exceeds total_size")
	}

	hash := sha256.Sum256([]byte(text))
	cfg.ConfigHash = hex.EncodeToString(hash[:])
	cfg.ConfigTimestamp = mtime

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 100
	}
}
