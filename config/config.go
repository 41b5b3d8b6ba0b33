package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/scout/internal/constants"
	"github.com/spiffcs/scout/internal/model"
)

// Backend names accepted by the backend key.
const (
	BackendAPI    = "api"
	BackendGitHub = "github"
)

// Environment variables read at load time.
const (
	EnvAPIURL      = "SCOUT_API_URL"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvFile        = ".env"
)

// DefaultListen is the address scout serve binds when none is configured.
const DefaultListen = "127.0.0.1:8080"

// Config represents the application configuration
type Config struct {
	DefaultFormat   string `yaml:"default_format,omitempty"`
	Backend         string `yaml:"backend,omitempty"`
	APIURL          string `yaml:"api_url,omitempty"`
	DefaultFilter   string `yaml:"default_filter,omitempty"`
	DefaultLanguage string `yaml:"default_language,omitempty"`
	Sort            string `yaml:"sort,omitempty"`
	Listen          string `yaml:"listen,omitempty"`

	// Pointers so an explicit false or zero in a local file overrides the
	// global file.
	DedupRetryAfterFailure *bool    `yaml:"dedup_retry_after_failure,omitempty"`
	RequestsPerSecond      *float64 `yaml:"requests_per_second,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".scout"
	}
	return filepath.Join(configDir, "scout")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".scout.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .scout.yaml config on top (local values take precedence).
// A .env file in the working directory is loaded into the environment
// first; variables already set are left alone.
func Load() (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at globalPath and localPath.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	cfg := &Config{}

	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	if global != nil {
		cfg = global
	}

	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}
	if local != nil {
		cfg = mergeConfig(cfg, local)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DefaultFormat == "" {
		c.DefaultFormat = "table"
	}
	if c.Backend == "" {
		c.Backend = BackendAPI
	}
	if c.Sort == "" {
		c.Sort = string(model.SortRelevance)
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = model.FilterGoodFirstIssue.Short()
	}
}

// Validate checks enumerated keys.
func (c *Config) Validate() error {
	switch c.DefaultFormat {
	case "table", "json", "markdown":
	default:
		return fmt.Errorf("invalid default_format %q: use table, json, or markdown", c.DefaultFormat)
	}
	switch c.Backend {
	case BackendAPI, BackendGitHub:
	default:
		return fmt.Errorf("invalid backend %q: use %s or %s", c.Backend, BackendAPI, BackendGitHub)
	}
	if _, ok := model.ParseSortOrder(c.Sort); !ok {
		return fmt.Errorf("invalid sort %q: use relevance or stars", c.Sort)
	}
	if _, err := model.ParseFilterKind(c.DefaultFilter); err != nil {
		return fmt.Errorf("invalid default_filter: %w", err)
	}
	if c.RequestsPerSecond != nil && *c.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid requests_per_second %v: must be positive", *c.RequestsPerSecond)
	}
	return nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.Backend != "" {
		result.Backend = local.Backend
	}
	if local.APIURL != "" {
		result.APIURL = local.APIURL
	}
	if local.DefaultFilter != "" {
		result.DefaultFilter = local.DefaultFilter
	}
	if local.DefaultLanguage != "" {
		result.DefaultLanguage = local.DefaultLanguage
	}
	if local.Sort != "" {
		result.Sort = local.Sort
	}
	if local.Listen != "" {
		result.Listen = local.Listen
	}
	if local.DedupRetryAfterFailure != nil {
		result.DedupRetryAfterFailure = local.DedupRetryAfterFailure
	}
	if local.RequestsPerSecond != nil {
		result.RequestsPerSecond = local.RequestsPerSecond
	}

	return &result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	return c.SaveAs(ConfigPath())
}

// SaveAs writes the configuration to path.
func (c *Config) SaveAs(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(path, string(data))
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Tokens are only read from the environment and never written to config files.
func (c *Config) GetGitHubToken() string {
	return os.Getenv(EnvGitHubToken)
}

// GetAPIURL returns the dashboard API base URL: SCOUT_API_URL, then the
// api_url key, then the built-in default.
func (c *Config) GetAPIURL() string {
	if v := os.Getenv(EnvAPIURL); v != "" {
		return v
	}
	if c.APIURL != "" {
		return c.APIURL
	}
	return constants.DefaultAPIURL
}

// GetFilter returns the configured default filter kind.
func (c *Config) GetFilter() model.FilterKind {
	k, err := model.ParseFilterKind(c.DefaultFilter)
	if err != nil {
		return model.FilterGoodFirstIssue
	}
	return k
}

// GetSort returns the configured result order.
func (c *Config) GetSort() model.SortOrder {
	s, ok := model.ParseSortOrder(c.Sort)
	if !ok {
		return model.SortRelevance
	}
	return s
}

// RetryAfterFailure reports whether a failed search may be retried with
// the identical query. Defaults to true.
func (c *Config) RetryAfterFailure() bool {
	if c.DedupRetryAfterFailure == nil {
		return true
	}
	return *c.DedupRetryAfterFailure
}

// GetRequestsPerSecond returns the upstream pacing rate.
func (c *Config) GetRequestsPerSecond() float64 {
	if c.RequestsPerSecond == nil {
		return constants.DefaultRequestsPerSecond
	}
	return *c.RequestsPerSecond
}

// GetListen returns the address scout serve binds.
func (c *Config) GetListen() string {
	if c.Listen != "" {
		return c.Listen
	}
	return DefaultListen
}

// Keys lists the keys accepted by Set in display order.
func Keys() []string {
	return []string{
		"default_format", "backend", "api_url", "default_filter",
		"default_language", "sort", "listen",
		"dedup_retry_after_failure", "requests_per_second",
	}
}

// Set assigns a single key from its string form and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "default_format":
		next.DefaultFormat = value
	case "backend":
		next.Backend = value
	case "api_url":
		next.APIURL = value
	case "default_filter":
		next.DefaultFilter = value
	case "default_language":
		next.DefaultLanguage = value
	case "sort":
		next.Sort = value
	case "listen":
		next.Listen = value
	case "dedup_retry_after_failure":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		next.DedupRetryAfterFailure = &b
	case "requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		next.RequestsPerSecond = &f
	default:
		return fmt.Errorf("unknown key %q: valid keys are %s", key, strings.Join(Keys(), ", "))
	}
	check := next
	check.applyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// UpdateFile sets one key in the config file at path and writes it back.
// Keys the file does not mention stay unset so they keep falling through
// to the other config layers.
func UpdateFile(path, key, value string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return cfg.SaveAs(path)
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	retry := true
	rps := float64(constants.DefaultRequestsPerSecond)
	return &Config{
		DefaultFormat:          "table",
		Backend:                BackendAPI,
		APIURL:                 constants.DefaultAPIURL,
		DefaultFilter:          model.FilterGoodFirstIssue.Short(),
		Sort:                   string(model.SortRelevance),
		Listen:                 DefaultListen,
		DedupRetryAfterFailure: &retry,
		RequestsPerSecond:      &rps,
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# Scout configuration file
# See: scout config defaults  (for all available options)

# Output format: table, json, or markdown
default_format: table

# Where searches go: api (the dashboard API) or github (GitHub directly)
backend: api

# Dashboard API base URL; SCOUT_API_URL overrides it
# api_url: http://localhost:3000/api

# Filter used when none is given: good-first, bounty, or major
# default_filter: good-first

# Result order: relevance or stars
# sort: relevance

# Let an identical search through again right after it failed
# dedup_retry_after_failure: true

# GITHUB_TOKEN is read from the environment or .env, never from this file
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
