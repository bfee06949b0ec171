// Package config loads tasktree settings from a YAML or TOML file, with
// environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vitorsm/construction-management-client/pkg/task"
)

// Environment variables read by Load.
const (
	EnvConfig  = "TASKTREE_CONFIG"
	EnvToken   = "TASKTREE_TOKEN"
	EnvAPIURL  = "TASKTREE_API_URL"
	EnvProject = "TASKTREE_PROJECT"
	EnvFile    = "TASKTREE_FILE"
)

// DefaultTimeout bounds a single task fetch when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// ErrUnsupportedFormat is returned for config files that are neither YAML
// nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// candidate file names, in lookup order, inside the config directory
var configNames = []string{"config.yaml", "config.yml", "config.toml"}

type Config struct {
	Source Source `yaml:"source" toml:"source"`
	Costs  Costs  `yaml:"costs" toml:"costs"`
	Filter Filter `yaml:"filter" toml:"filter"`
	Log    Log    `yaml:"log" toml:"log"`

	// Path is the file the config was read from, empty when defaults.
	Path string `yaml:"-" toml:"-"`
}

// Source says where tasks come from. APIURL wins over File when both are set.
type Source struct {
	File      string `yaml:"file" toml:"file"`
	APIURL    string `yaml:"api_url" toml:"api_url"`
	ProjectID string `yaml:"project_id" toml:"project_id"`
	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env" toml:"token_env"`
	Timeout  string `yaml:"timeout" toml:"timeout"`
}

type Costs struct {
	// Rollup shows each parent's cost as its own plus its descendants'.
	Rollup bool `yaml:"rollup" toml:"rollup"`
}

// Filter is the initial filter applied when a view opens.
type Filter struct {
	Statuses []string `yaml:"statuses" toml:"statuses"`
	DateMode string   `yaml:"date_mode" toml:"date_mode"`
}

type Log struct {
	Level string `yaml:"level" toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Source: Source{TokenEnv: EnvToken},
		Filter: Filter{DateMode: string(task.DateOverlap)},
		Log:    Log{Level: "info"},
	}
}

// Load reads the config file at path. With an empty path it uses
// $TASKTREE_CONFIG, then the first config file found in DefaultConfigDir.
// A missing default file yields Default(); a missing explicit file is an
// error. Environment overrides are applied last. The result is not
// validated, callers apply their own overrides and then call Validate.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfig); env != "" {
			path, explicit = env, true
		}
	}
	if !explicit {
		path = findConfig(DefaultConfigDir())
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func findConfig(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	c.Path = path
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Source.APIURL = v
	}
	if v := os.Getenv(EnvProject); v != "" {
		c.Source.ProjectID = v
	}
	if v := os.Getenv(EnvFile); v != "" {
		c.Source.File = v
	}
	if c.Source.TokenEnv == "" {
		c.Source.TokenEnv = EnvToken
	}
}

// Validate checks the values that are parsed later.
func (c *Config) Validate() error {
	if _, err := c.Criteria(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.Source.APIURL != "" && c.Source.ProjectID == "" {
		return errors.New("config: source.project_id is required with source.api_url")
	}
	return nil
}

// Token returns the bearer token from the configured environment variable.
func (c *Config) Token() string {
	name := c.Source.TokenEnv
	if name == "" {
		name = EnvToken
	}
	return strings.TrimSpace(os.Getenv(name))
}

// Timeout returns the per-fetch timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Source.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Source.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid source.timeout %q", c.Source.Timeout)
	}
	return d, nil
}

// Criteria returns the initial filter described by the config.
func (c *Config) Criteria() (task.Criteria, error) {
	mode, err := task.ParseDateMode(c.Filter.DateMode)
	if err != nil {
		return task.Criteria{}, fmt.Errorf("config: %w", err)
	}

	crit := task.Criteria{DateMode: mode}
	for _, raw := range c.Filter.Statuses {
		s, ok := task.ParseStatus(raw)
		if !ok {
			return task.Criteria{}, fmt.Errorf("config: unknown status %q in filter.statuses", raw)
		}
		if !crit.HasStatus(s) {
			crit = crit.ToggleStatus(s)
		}
	}
	return crit, nil
}
