package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. LABTASK_LOG_LEVEL
const EnvPrefix = "LABTASK"

// Config is the application configuration
type Config struct {
	// DataDir holds the workspace databases and the log file
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// Workspace selects the workspace database
	Workspace string `yaml:"workspace" mapstructure:"workspace"`

	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	GitLab GitLabConfig `yaml:"gitlab" mapstructure:"gitlab"`
}

// LogConfig configures the log file
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File defaults to labtask.log inside the data directory
	File string `yaml:"file" mapstructure:"file"`
}

// HTTPConfig configures requests to the tracker
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GitLabConfig configures the GitLab API
type GitLabConfig struct {
	APIPath string `yaml:"api_path" mapstructure:"api_path"`
	PerPage int    `yaml:"per_page" mapstructure:"per_page"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Workspace: "default",
		Log: LogConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Timeout: 5 * time.Second,
		},
		GitLab: GitLabConfig{
			APIPath: "/api/v4",
			PerPage: 100,
		},
	}
}

// Load reads the configuration file at path on top of the defaults and
// applies LABTASK_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "labtask.log")
	}
	return cfg, cfg.Validate()
}

// setDefaults registers every key so that environment overrides apply
// even when the file does not mention them
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("workspace", cfg.Workspace)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("gitlab.api_path", cfg.GitLab.APIPath)
	v.SetDefault("gitlab.per_page", cfg.GitLab.PerPage)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive (got %s)", c.HTTP.Timeout)
	}
	if c.GitLab.PerPage <= 0 || c.GitLab.PerPage > 100 {
		return fmt.Errorf("gitlab.per_page must be between 1 and 100 (got %d)", c.GitLab.PerPage)
	}
	if c.Workspace == "" || strings.ContainsAny(c.Workspace, `/\`) {
		return fmt.Errorf("invalid workspace name %q", c.Workspace)
	}
	return nil
}

// YAML renders the configuration
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Path returns the default configuration file path
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "labtask", "config.yaml")
}

func defaultDataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "labtask"), nil
}
