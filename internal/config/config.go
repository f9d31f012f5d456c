// Package config loads agent-brain settings from a YAML file, .env files
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/agent-brain/internal/embedding"
)

// Backend names.
const (
	BackendRemote = "remote"
	BackendLocal  = "local"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBudget  = 4000
)

// ErrNotConfigured is returned by Validate when a required setting is
// missing for the selected backend.
var ErrNotConfigured = errors.New("agent-brain is not configured")

// Config is the resolved configuration.
type Config struct {
	Backend       string           `yaml:"backend"`
	URL           string           `yaml:"url"`
	APIKey        string           `yaml:"api_key"`
	DBPath        string           `yaml:"db"`
	Timeout       time.Duration    `yaml:"timeout"`
	DefaultBudget int              `yaml:"default_budget"`
	Embedding     embedding.Config `yaml:"embedding"`
}

// Dir returns the agent-brain home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent-brain"
	}
	return filepath.Join(home, ".agent-brain")
}

// DefaultPath returns the config file path: $AGENT_BRAIN_CONFIG if set,
// otherwise ~/.agent-brain/config.yaml.
func DefaultPath() string {
	if p := os.Getenv("AGENT_BRAIN_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty). A missing
// file is not an error. .env files in the working directory and the
// agent-brain home are loaded first but never override variables that are
// already set.
func Load(path string) (*Config, error) {
	loadDotEnv()

	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func loadDotEnv() {
	for _, p := range []string{".env", filepath.Join(Dir(), ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) applyEnv() error {
	setString(&c.Backend, "AGENT_BRAIN_BACKEND")
	setString(&c.URL, "AGENT_BRAIN_URL")
	setString(&c.APIKey, "AGENT_BRAIN_API_KEY")
	setString(&c.DBPath, "AGENT_BRAIN_DB")
	setString(&c.Embedding.Provider, "AGENT_BRAIN_EMBED_PROVIDER")
	setString(&c.Embedding.Model, "AGENT_BRAIN_EMBED_MODEL")
	setString(&c.Embedding.URL, "AGENT_BRAIN_EMBED_URL")
	if c.Embedding.APIKey == "" {
		setString(&c.Embedding.APIKey, "OPENAI_API_KEY")
	}

	if v := os.Getenv("AGENT_BRAIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AGENT_BRAIN_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("AGENT_BRAIN_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGENT_BRAIN_BUDGET: %w", err)
		}
		c.DefaultBudget = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendRemote
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(Dir(), "brain.db")
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.DefaultBudget <= 0 {
		c.DefaultBudget = defaultBudget
	}
}

// Validate reports whether the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRemote:
		if c.URL == "" {
			return fmt.Errorf("%w: missing url (set AGENT_BRAIN_URL)", ErrNotConfigured)
		}
		if c.APIKey == "" {
			return fmt.Errorf("%w: missing api_key (set AGENT_BRAIN_API_KEY)", ErrNotConfigured)
		}
	case BackendLocal:
		if c.DBPath == "" {
			return fmt.Errorf("%w: missing db path", ErrNotConfigured)
		}
	default:
		return fmt.Errorf("unknown backend %q (valid: remote, local)", c.Backend)
	}
	return nil
}
