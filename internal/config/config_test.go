package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blogpress.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
site:
  title: Test Blog
content:
  root: ./content
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Output.Directory != DefaultOutputDirectory {
		t.Errorf("output directory = %q, want %q", cfg.Output.Directory, DefaultOutputDirectory)
	}
	if cfg.Publish.Branch != DefaultPublishBranch {
		t.Errorf("publish branch = %q, want %q", cfg.Publish.Branch, DefaultPublishBranch)
	}
	if cfg.Daemon.Debounce != DefaultDebounce {
		t.Errorf("daemon debounce = %v, want %v", cfg.Daemon.Debounce, DefaultDebounce)
	}
	if cfg.Site.Language != "en" {
		t.Errorf("site language = %q, want en", cfg.Site.Language)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BLOG_TOKEN", "sekrit")

	path := writeConfig(t, `
site:
  title: Test Blog
publish:
  url: https://git.example.com/blog-hosting.git
  auth:
    type: token
    token: ${BLOG_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Publish.Auth == nil || cfg.Publish.Auth.Token != "sekrit" {
		t.Fatalf("expected token expanded from environment, got %+v", cfg.Publish.Auth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfigRejectsBadAuth(t *testing.T) {
	tests := []struct {
		name string
		auth *AuthConfig
	}{
		{"unknown type", &AuthConfig{Type: "kerberos"}},
		{"token without token", &AuthConfig{Type: AuthTypeToken}},
		{"basic without password", &AuthConfig{Type: AuthTypeBasic, Username: "u"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := &Config{
				Content: ContentConfig{Root: "./content"},
				Output:  OutputConfig{Directory: "./public"},
				Publish: PublishConfig{URL: "https://git.example.com/x.git", Branch: "gh-pages", Auth: test.auth},
			}
			if err := ValidateConfig(cfg); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidateConfigAllowsDisabledPublish(t *testing.T) {
	cfg := &Config{
		Content: ContentConfig{Root: "./content"},
		Output:  OutputConfig{Directory: "./public"},
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("unexpected error with publishing disabled: %v", err)
	}
}

func TestValidateConfigRejectsBadDebounce(t *testing.T) {
	for _, bad := range []string{"-1s", "soon"} {
		cfg := &Config{
			Content: ContentConfig{Root: "./content"},
			Output:  OutputConfig{Directory: "./public"},
			Daemon:  DaemonConfig{Debounce: bad},
		}
		if err := ValidateConfig(cfg); err == nil {
			t.Fatalf("expected validation error for debounce %q", bad)
		}
	}
}

func TestDurationAccessors(t *testing.T) {
	d := DaemonConfig{Debounce: "150ms", Interval: "15m"}
	if d.DebounceDuration() != 150*time.Millisecond {
		t.Errorf("debounce = %v, want 150ms", d.DebounceDuration())
	}
	if d.IntervalDuration() != 15*time.Minute {
		t.Errorf("interval = %v, want 15m", d.IntervalDuration())
	}

	// An absent interval disables periodic rebuilds.
	if (DaemonConfig{}).IntervalDuration() != 0 {
		t.Error("empty interval should parse to zero")
	}
	// An absent debounce still yields a usable quiet window.
	if (DaemonConfig{}).DebounceDuration() <= 0 {
		t.Error("empty debounce should fall back to a positive default")
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blogpress.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Generated config must round-trip through Load.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load generated config: %v", err)
	}
	if cfg.Site.Title == "" {
		t.Error("generated config should carry a site title")
	}

	// Second init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("init with force: %v", err)
	}
}
