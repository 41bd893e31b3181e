package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.tidesync/tidesync.yaml"
)

// DefaultTables is the replicated table set of the DrivaMotors system; the
// config's tables list is authoritative and `tidesync config init` seeds it
// with this set.
var DefaultTables = []string{
	"veiculos", "estados", "cidades", "concessionarias",
	"vendedores", "clientes", "vendas",
}

// Config is the top-level configuration.
type Config struct {
	Version     int               `yaml:"version"`
	Source      SourceConfig      `yaml:"source"`
	Destination DestinationConfig `yaml:"destination"`
	Tables      []string          `yaml:"tables"`
	Logging     LogConfig         `yaml:"logging,omitempty"`
}

// SourceConfig defines the operational source database connection.
type SourceConfig struct {
	Type     string `yaml:"type"` // postgresql or oracle
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl,omitempty"`
}

// DestinationConfig defines the analytical destination store.
type DestinationConfig struct {
	Type string `yaml:"type"` // postgresql, sqlite or mongodb

	// postgresql fields
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSL      bool   `yaml:"ssl,omitempty"`

	// sqlite field
	Path string `yaml:"path,omitempty"`

	// mongodb field; Database above names the target database
	ConnectionString string `yaml:"connection_string,omitempty"`

	// Transactional wraps each table's insert batch in one destination
	// transaction (all-or-nothing per table). Off by default: the plain
	// row-at-a-time mode has at-least-once semantics under partial
	// failure. Not supported by the mongodb destination.
	Transactional bool `yaml:"transactional,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty"`     // debug, info, warn, error
	Directory string `yaml:"directory,omitempty"` // default ~/.tidesync/logs/
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks the parts of the config every command needs.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case "postgresql", "oracle":
	default:
		return fmt.Errorf("unsupported source type %q", c.Source.Type)
	}
	switch c.Destination.Type {
	case "postgresql", "sqlite", "mongodb":
	default:
		return fmt.Errorf("unsupported destination type %q", c.Destination.Type)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("no tables configured")
	}
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		if t == "" {
			return fmt.Errorf("empty table name in tables list")
		}
		if seen[t] {
			return fmt.Errorf("table %q listed twice", t)
		}
		seen[t] = true
	}
	if c.Destination.Type == "mongodb" && c.Destination.Transactional {
		return fmt.Errorf("mongodb destination does not support transactional inserts")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.tidesync/logs/")
	}
	if c.Source.Type == "postgresql" && c.Source.Schema == "" {
		c.Source.Schema = "public"
	}
	if c.Destination.Type == "postgresql" && c.Destination.Schema == "" {
		c.Destination.Schema = "public"
	}
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Source.Password, err = ResolveValue(c.Source.Password)
	if err != nil {
		return fmt.Errorf("source password: %w", err)
	}
	c.Destination.Password, err = ResolveValue(c.Destination.Password)
	if err != nil {
		return fmt.Errorf("destination password: %w", err)
	}
	c.Destination.ConnectionString, err = ResolveValue(c.Destination.ConnectionString)
	if err != nil {
		return fmt.Errorf("destination connection string: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ConnString builds the pgx DSN for a postgresql source.
func (s SourceConfig) ConnString() string {
	ssl := "disable"
	if s.SSL {
		ssl = "require"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		s.Host, s.Port, s.Database, s.Username, s.Password, ssl)
}

// ConnString builds the pgx DSN for a postgresql destination.
func (d DestinationConfig) ConnString() string {
	ssl := "disable"
	if d.SSL {
		ssl = "require"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Database, d.Username, d.Password, ssl)
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
