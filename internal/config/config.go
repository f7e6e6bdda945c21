package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/jywlabs/skillhub/internal/template"
	"gopkg.in/yaml.v3"
)

// Link modes accepted by linkMode.
const (
	LinkAuto = "auto"
	LinkOnly = "link"
	CopyOnly = "copy"
)

// Environment variables that override config.yaml.
const (
	EnvHome     = "SKILLHUB_HOME"
	EnvDatabase = "SKILLHUB_DATABASE"
	EnvLogLevel = "SKILLHUB_LOG_LEVEL"
	EnvToken    = "GITHUB_TOKEN"
)

// GitConfig controls remote repository access.
type GitConfig struct {
	Timeout    time.Duration
	Depth      int
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	Token      string // never read from YAML
}

// Config is the resolved skillhub configuration.
type Config struct {
	HubDir     string
	Home       string // base directory for tool skill folders
	CentralDir string
	Database   string
	LogLevel   string
	LinkMode   string
	Ignore     []string
	Git        GitConfig
}

// rawGitConfig distinguishes missing keys from explicit zero values.
type rawGitConfig struct {
	Timeout    *string `yaml:"timeout"`
	Depth      *int    `yaml:"depth"`
	MaxRetries *int    `yaml:"maxRetries"`
	RetryDelay *string `yaml:"retryDelay"`
	CacheTTL   *string `yaml:"cacheTTL"`
}

// rawConfig mirrors config.yaml.
type rawConfig struct {
	Home       *string      `yaml:"home"`
	CentralDir *string      `yaml:"centralDir"`
	Database   *string      `yaml:"database"`
	LogLevel   *string      `yaml:"logLevel"`
	LinkMode   *string      `yaml:"linkMode"`
	Ignore     []string     `yaml:"ignore"`
	Git        rawGitConfig `yaml:"git"`
}

// Default returns the configuration used when config.yaml is absent.
func Default(hubDir, home string) Config {
	return Config{
		HubDir:     hubDir,
		Home:       home,
		CentralDir: filepath.Join(hubDir, template.SkillsDir),
		Database:   filepath.Join(hubDir, template.DBFile),
		LogLevel:   "info",
		LinkMode:   LinkAuto,
		Ignore:     []string{".git/**", ".DS_Store", "node_modules/**"},
		Git: GitConfig{
			Timeout:    2 * time.Minute,
			Depth:      1,
			MaxRetries: 2,
			RetryDelay: 2 * time.Second,
			CacheTTL:   5 * time.Minute,
		},
	}
}

// Validate checks that the Config fields are valid.
func (c *Config) Validate() error {
	if c.CentralDir == "" {
		return fmt.Errorf("centralDir must not be empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	switch c.LinkMode {
	case LinkAuto, LinkOnly, CopyOnly:
	default:
		return fmt.Errorf("linkMode must be one of auto, link, copy (got %q)", c.LinkMode)
	}
	for _, p := range c.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("ignore pattern %q is invalid", p)
		}
	}
	if c.Git.Timeout <= 0 {
		return fmt.Errorf("git.timeout must be greater than 0")
	}
	if c.Git.Depth < 0 {
		return fmt.Errorf("git.depth must not be negative")
	}
	if c.Git.MaxRetries < 0 {
		return fmt.Errorf("git.maxRetries must not be negative")
	}
	return nil
}

// HubDir returns the skillhub home directory: $SKILLHUB_HOME or ~/.skillhub.
func HubDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return ExpandPath(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, template.HubDir), nil
}

// LoadEnv loads .env files from the hub directory and the working directory.
// Variables already set in the process environment win.
func LoadEnv(hubDir string) {
	for _, path := range []string{filepath.Join(hubDir, template.EnvFile), template.EnvFile} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// Load reads config.yaml from hubDir, merges it over the defaults, applies
// environment overrides and validates the result.
// A missing config file is not an error.
func Load(hubDir string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg := Default(hubDir, home)

	data, err := os.ReadFile(filepath.Join(hubDir, template.ConfigFile))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		var raw rawConfig
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.merge(&raw); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge applies only the keys that were set in YAML.
func (c *Config) merge(raw *rawConfig) error {
	if raw.Home != nil {
		c.Home = ExpandPath(*raw.Home)
	}
	if raw.CentralDir != nil {
		c.CentralDir = ExpandPath(*raw.CentralDir)
	}
	if raw.Database != nil {
		c.Database = expandDatabase(*raw.Database)
	}
	if raw.LogLevel != nil {
		c.LogLevel = strings.ToLower(*raw.LogLevel)
	}
	if raw.LinkMode != nil {
		c.LinkMode = strings.ToLower(*raw.LinkMode)
	}
	if raw.Ignore != nil {
		c.Ignore = raw.Ignore
	}

	durations := []struct {
		key string
		src *string
		dst *time.Duration
	}{
		{"git.timeout", raw.Git.Timeout, &c.Git.Timeout},
		{"git.retryDelay", raw.Git.RetryDelay, &c.Git.RetryDelay},
		{"git.cacheTTL", raw.Git.CacheTTL, &c.Git.CacheTTL},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if raw.Git.Depth != nil {
		c.Git.Depth = *raw.Git.Depth
	}
	if raw.Git.MaxRetries != nil {
		c.Git.MaxRetries = *raw.Git.MaxRetries
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = expandDatabase(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Git.Token = v
	}
}

// ExpandPath expands a leading ~ and $VAR / ${VAR} references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// IsRemoteDatabase reports whether dsn points at a libSQL server rather than a file.
func IsRemoteDatabase(dsn string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

func expandDatabase(dsn string) string {
	if IsRemoteDatabase(dsn) {
		return dsn
	}
	return ExpandPath(dsn)
}
