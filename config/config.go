// Package config loads the application configuration: a config.yaml picking
// the active AI provider, with per-provider credential and generation
// settings. API keys are written as ${ENV_VAR} references and resolved from
// the environment, with .env.local and .env loaded first.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/calvertml/visionchat"
)

// Provider is one per-provider configuration block.
type Provider struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	TextModel   string  `yaml:"text_model"`
	VisionModel string  `yaml:"vision_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// File is the parsed config.yaml. The provider keys mirror the closed driver
// registry; a block for a provider that is never selected is ignored.
type File struct {
	AIProvider string    `yaml:"ai_provider"`
	Claude     *Provider `yaml:"claude"`
	OpenAI     *Provider `yaml:"openai"`
	Grok       *Provider `yaml:"grok"`
	Gemini     *Provider `yaml:"gemini"`
}

var envRefPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// Load reads and parses the configuration file at path. It loads .env.local
// and then .env beforehand, so ${VAR} references can resolve against them;
// missing env files are not an error.
func Load(path string) (*File, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if f.AIProvider == "" {
		return nil, visionchat.ConfigurationErr("ai_provider is not set")
	}
	log.Debug().Str("ai_provider", f.AIProvider).Msg("configuration loaded")
	return &f, nil
}

// Driver returns the selected provider name and its DriverConfig, with the
// api_key's ${VAR} reference resolved from the environment. A provider block
// is mandatory for the selected provider; a missing or unresolvable API key
// is left empty for the driver's Initialize to reject.
func (f *File) Driver() (string, visionchat.DriverConfig, error) {
	var block *Provider
	switch f.AIProvider {
	case visionchat.ProviderClaude:
		block = f.Claude
	case visionchat.ProviderOpenAI:
		block = f.OpenAI
	case visionchat.ProviderGrok:
		block = f.Grok
	case visionchat.ProviderGemini:
		block = f.Gemini
	default:
		return "", visionchat.DriverConfig{}, visionchat.UnsupportedProviderErr(f.AIProvider)
	}
	if block == nil {
		return "", visionchat.DriverConfig{}, visionchat.ConfigurationErr(
			fmt.Sprintf("no configuration block for provider %q", f.AIProvider))
	}

	return f.AIProvider, visionchat.DriverConfig{
		APIKey:      resolveEnvRef(block.APIKey),
		Model:       block.Model,
		TextModel:   block.TextModel,
		VisionModel: block.VisionModel,
		MaxTokens:   block.MaxTokens,
		Temperature: block.Temperature,
	}, nil
}

// resolveEnvRef resolves a ${VAR} reference against the environment. Literal
// values pass through untouched.
func resolveEnvRef(s string) string {
	m := envRefPattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return os.Getenv(m[1])
}
