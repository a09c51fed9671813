package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. MTFIELD_LOG__LEVEL=debug.
// A double underscore separates nested keys.
const EnvPrefix = "MTFIELD_"

type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
)

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// HostConfig describes capabilities of the hosting profile framework.
type HostConfig struct {
	// FieldTypeRegistry is false on hosts without a pluggable field type registry;
	// the member type field is then not registered, but read-time value filters still run.
	FieldTypeRegistry bool `koanf:"field_type_registry"`

	// ProfileSearch enables the profile-search compatibility aliases.
	ProfileSearch bool `koanf:"profile_search"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Config is the service configuration.
type Config struct {
	Port           int            `koanf:"port"`
	StorageBackend StorageBackend `koanf:"storage_backend"`
	DatabaseURL    string         `koanf:"database_url"`

	// SeedFile optionally points to a YAML list of member types registered at startup.
	SeedFile string `koanf:"seed_file"`

	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`

	Log     LogConfig     `koanf:"log"`
	Host    HostConfig    `koanf:"host"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// Load merges, in increasing precedence: defaults, the YAML file at path (if
// set and present), a .env file in the working directory (if present), and
// MTFIELD_* environment variables.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if !k.Exists("host.field_type_registry") {
		cfg.Host.FieldTypeRegistry = true
	}
	if !k.Exists("metrics.enabled") {
		cfg.Metrics.Enabled = true
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = StorageMemory
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func (c Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when storage_backend=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("storage_backend must be %q or %q, got %q", StorageMemory, StoragePostgres, c.StorageBackend)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}
