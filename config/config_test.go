package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvertml/visionchat"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("parses provider blocks", func(t *testing.T) {
		path := writeConfig(t, `
ai_provider: claude
claude:
  api_key: literal-key
  model: claude-test
  max_tokens: 1000
  temperature: 0.5
`)
		f, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.AIProvider != "claude" {
			t.Errorf("expected provider claude, got %q", f.AIProvider)
		}
		want := &Provider{APIKey: "literal-key", Model: "claude-test", MaxTokens: 1000, Temperature: 0.5}
		if diff := cmp.Diff(want, f.Claude); diff != "" {
			t.Errorf("claude block mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		path := writeConfig(t, "ai_provider: [broken")
		if _, err := Load(path); err == nil {
			t.Fatal("expected error for invalid yaml")
		}
	})

	t.Run("missing ai_provider fails with ConfigurationErr", func(t *testing.T) {
		path := writeConfig(t, "claude:\n  api_key: k\n")
		_, err := Load(path)
		var cfgErr visionchat.ConfigurationErr
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationErr, got %v", err)
		}
	})
}

func TestFileDriver(t *testing.T) {
	t.Run("resolves the selected block", func(t *testing.T) {
		f := &File{
			AIProvider: visionchat.ProviderGrok,
			Grok: &Provider{
				APIKey:      "k",
				TextModel:   "grok-text",
				VisionModel: "grok-vision",
				MaxTokens:   512,
			},
		}
		name, cfg, err := f.Driver()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != visionchat.ProviderGrok {
			t.Errorf("expected provider grok, got %q", name)
		}
		want := visionchat.DriverConfig{APIKey: "k", TextModel: "grok-text", VisionModel: "grok-vision", MaxTokens: 512}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("driver config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("env reference resolves against the environment", func(t *testing.T) {
		t.Setenv("TEST_CLAUDE_KEY", "from-env")
		f := &File{
			AIProvider: visionchat.ProviderClaude,
			Claude:     &Provider{APIKey: "${TEST_CLAUDE_KEY}"},
		}
		_, cfg, err := f.Driver()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIKey != "from-env" {
			t.Errorf("expected api key from environment, got %q", cfg.APIKey)
		}
	})

	t.Run("unknown provider fails with UnsupportedProviderErr", func(t *testing.T) {
		f := &File{AIProvider: "cohere"}
		_, _, err := f.Driver()
		var provErr visionchat.UnsupportedProviderErr
		if !errors.As(err, &provErr) {
			t.Fatalf("expected UnsupportedProviderErr, got %v", err)
		}
	})

	t.Run("missing block for selected provider fails", func(t *testing.T) {
		f := &File{AIProvider: visionchat.ProviderGemini}
		_, _, err := f.Driver()
		var cfgErr visionchat.ConfigurationErr
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationErr, got %v", err)
		}
	})
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("TEST_REF", "value")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"literal passes through", "sk-abc", "sk-abc"},
		{"reference resolves", "${TEST_REF}", "value"},
		{"unset reference resolves empty", "${TEST_UNSET_REF}", ""},
		{"partial reference is literal", "prefix-${TEST_REF}", "prefix-${TEST_REF}"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveEnvRef(tt.in); got != tt.want {
				t.Errorf("resolveEnvRef(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
