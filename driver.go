package visionchat

import (
	"context"
	"io"
)

// DriverConfig carries the credentials and generation parameters for one
// driver. It is constructed once from external configuration and is not
// mutated after Initialize. Zero values mean "use the driver's default".
type DriverConfig struct {
	// APIKey authenticates against the vendor API. Mandatory.
	APIKey string
	// Model overrides the driver's default model.
	Model string
	// TextModel and VisionModel override the split models of drivers that
	// switch between a text and a vision model per call.
	TextModel   string
	VisionModel string
	// MaxTokens caps the generated output length.
	MaxTokens int
	// Temperature is the sampling temperature, in [0, 2].
	Temperature float64
}

// Driver is the contract every provider adapter satisfies. A Driver is bound
// to a single conversation at a time: GenerateResponse must not be called
// concurrently on one instance.
type Driver interface {
	// Initialize binds credentials and generation parameters, applying the
	// driver's documented defaults for any field not supplied. It returns
	// ConfigurationErr if a mandatory field is absent or invalid.
	Initialize(cfg DriverConfig) error

	// GenerateResponse translates msgs into the vendor's wire shape, invokes
	// the vendor transport in streaming mode, forwards each decoded text
	// fragment to sink in arrival order, and returns the ordered
	// concatenation of all fragments once the stream terminates.
	//
	// It returns ErrEmptyRequest if the translated message set is empty, and
	// a *ProviderErr wrapping any transport-level failure.
	GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error)

	// DefaultMaxTokens returns the driver's default output token budget. It
	// is pure and may be called before Initialize.
	DefaultMaxTokens() int
}

// VisionFormatter is the optional vision capability. Drivers that can embed
// images in a request implement it; use FormatVisionMessage to probe a Driver
// whose concrete type is not known.
type VisionFormatter interface {
	// FormatVisionMessage builds a single user message carrying text plus one
	// embedded image, shaped so the driver's translation produces the
	// vendor's image encoding.
	FormatVisionMessage(text string, img ImageData) (Message, error)
}

// FormatVisionMessage builds a vision message using d's VisionFormatter
// capability. It returns UnsupportedCapabilityErr if d is text-only.
func FormatVisionMessage(d Driver, text string, img ImageData) (Message, error) {
	vf, ok := d.(VisionFormatter)
	if !ok {
		return Message{}, UnsupportedCapabilityErr("driver does not support vision input")
	}
	return vf.FormatVisionMessage(text, img)
}

// Factory constructs an uninitialized driver for one provider.
type Factory func() Driver

// Provider names accepted by Resolve.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderGrok   = "grok"
	ProviderGemini = "gemini"
)

// Resolve maps a configuration-supplied provider name to a driver factory.
// It returns UnsupportedProviderErr for names outside the registered set.
func Resolve(name string) (Factory, error) {
	switch name {
	case ProviderClaude:
		return func() Driver { return &ClaudeDriver{} }, nil
	case ProviderOpenAI:
		return func() Driver { return &OpenAIDriver{} }, nil
	case ProviderGrok:
		return func() Driver { return &GrokDriver{} }, nil
	case ProviderGemini:
		return func() Driver { return &GeminiDriver{} }, nil
	default:
		return nil, UnsupportedProviderErr(name)
	}
}

// Providers returns the registered provider names, in the order drivers were
// added to the registry.
func Providers() []string {
	return []string{ProviderClaude, ProviderOpenAI, ProviderGrok, ProviderGemini}
}

func validateConfig(provider string, cfg DriverConfig) error {
	if cfg.APIKey == "" {
		return ConfigurationErr(provider + ": api_key is required")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return ConfigurationErr(provider + ": temperature must be in [0, 2]")
	}
	if cfg.MaxTokens < 0 {
		return ConfigurationErr(provider + ": max_tokens must be positive")
	}
	return nil
}
