package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Theme   ThemeConfig   `yaml:"theme,omitempty"`
	Publish PublishConfig `yaml:"publish,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
}

// SiteConfig carries site-wide metadata rendered into every page.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Author      string `yaml:"author,omitempty"` // fallback for posts without an author field
	Language    string `yaml:"language,omitempty"`
}

// ContentConfig locates the content tree.
type ContentConfig struct {
	Root string `yaml:"root"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory     string `yaml:"directory"`
	BaseDirectory string `yaml:"base_directory,omitempty"` // optional parent for Directory
}

// ThemeConfig selects templates for rendering.
type ThemeConfig struct {
	Directory     string `yaml:"directory,omitempty"` // overrides embedded defaults when set
	IncludeDrafts bool   `yaml:"include_drafts,omitempty"`
}

// PublishConfig describes the hosting repository and branch.
type PublishConfig struct {
	URL            string      `yaml:"url,omitempty"` // hosting repository; empty disables publishing
	Branch         string      `yaml:"branch,omitempty"`
	Remote         string      `yaml:"remote,omitempty"`
	CommitterName  string      `yaml:"committer_name,omitempty"`
	CommitterEmail string      `yaml:"committer_email,omitempty"`
	Auth           *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Type     string `yaml:"type"` // "none", "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// HistoryConfig locates the local build/publish history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables history recording
}

// DaemonConfig configures continuous operation. Durations are strings in
// time.ParseDuration syntax ("2s", "15m") so the file stays hand-editable.
type DaemonConfig struct {
	Listen   string     `yaml:"listen,omitempty"`
	Debounce string     `yaml:"debounce,omitempty"` // quiet window after a change
	Interval string     `yaml:"interval,omitempty"` // periodic rebuild; empty disables
	NATS     NATSConfig `yaml:"nats,omitempty"`
	Metrics  bool       `yaml:"metrics,omitempty"`
}

// DebounceDuration returns the parsed debounce window. Validation guarantees
// the configured value parses; anything else falls back to the default.
func (d DaemonConfig) DebounceDuration() time.Duration {
	dur, err := time.ParseDuration(d.Debounce)
	if err != nil || dur <= 0 {
		return 2 * time.Second
	}
	return dur
}

// IntervalDuration returns the parsed republish interval, zero when disabled.
func (d DaemonConfig) IntervalDuration() time.Duration {
	if d.Interval == "" {
		return 0
	}
	dur, err := time.ParseDuration(d.Interval)
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

// NATSConfig wires remote publish triggers and completion notifications.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"` // empty disables NATS
	Subject       string `yaml:"subject,omitempty"`
	NotifySubject string `yaml:"notify_subject,omitempty"`
}

// OutputPath returns the effective output directory, resolving the optional
// base directory.
func (c *Config) OutputPath() string {
	if c.Output.BaseDirectory != "" {
		return filepath.Join(c.Output.BaseDirectory, c.Output.Directory)
	}
	return c.Output.Directory
}

// DataDir returns the directory blogpress keeps local state in: the hosting
// checkout and, when enabled, the history database.
func (c *Config) DataDir() string {
	if c.History.Path != "" {
		return filepath.Dir(c.History.Path)
	}
	return ".blogpress"
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if present; missing files are fine.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Title:       "My Blog",
			Description: "Notes on things worth writing down",
			BaseURL:     "https://blog.example.com",
			Author:      "Jane Doe",
			Language:    "en",
		},
		Content: ContentConfig{
			Root: "./content",
		},
		Output: OutputConfig{
			Directory: "./public",
		},
		Publish: PublishConfig{
			URL:            "git@github.com:example/blog-hosting.git",
			Branch:         "gh-pages",
			CommitterName:  "blogpress",
			CommitterEmail: "blogpress@localhost",
			Auth: &AuthConfig{
				Type:    "ssh",
				KeyPath: "~/.ssh/id_ed25519",
			},
		},
		History: HistoryConfig{
			Path: ".blogpress/history.db",
		},
		Daemon: DaemonConfig{
			Listen:   ":8080",
			Debounce: "2s",
			Metrics:  true,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
