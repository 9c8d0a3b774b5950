package visionchat

import (
	"context"
	"io"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog/log"
)

// Grok driver defaults, applied by Initialize for any field not supplied.
const (
	grokBaseURL = "https://api.x.ai/v1"

	grokDefaultTextModel   = "grok-2-latest"
	grokDefaultVisionModel = "grok-2-vision-1212"
	grokDefaultMaxTokens   = 4096
	grokDefaultTemperature = 0.7
)

// GrokDriver implements the Driver interface against the xAI API, which
// speaks the OpenAI chat-completion protocol. It holds separate text and
// vision models and picks one per call by inspecting the translated message
// list for image content.
type GrokDriver struct {
	client      OpenAICompletionService
	textModel   string
	visionModel string
	maxTokens   int
	temperature float64
}

var (
	_ Driver          = (*GrokDriver)(nil)
	_ VisionFormatter = (*GrokDriver)(nil)
)

// Initialize implements Driver. The TextModel and VisionModel config fields
// select the per-capability models; the generic Model field is not used.
func (d *GrokDriver) Initialize(cfg DriverConfig) error {
	if err := validateConfig(ProviderGrok, cfg); err != nil {
		return err
	}
	if d.client == nil {
		client := oai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(grokBaseURL),
		)
		d.client = &client.Chat.Completions
	}
	d.textModel = cfg.TextModel
	if d.textModel == "" {
		d.textModel = grokDefaultTextModel
	}
	d.visionModel = cfg.VisionModel
	if d.visionModel == "" {
		d.visionModel = grokDefaultVisionModel
	}
	d.maxTokens = cfg.MaxTokens
	if d.maxTokens == 0 {
		d.maxTokens = grokDefaultMaxTokens
	}
	d.temperature = cfg.Temperature
	if d.temperature == 0 {
		d.temperature = grokDefaultTemperature
	}
	log.Info().
		Str("text_model", d.textModel).
		Str("vision_model", d.visionModel).
		Int("max_tokens", d.maxTokens).
		Float64("temperature", d.temperature).
		Msg("grok driver initialized")
	return nil
}

// DefaultMaxTokens implements Driver.
func (d *GrokDriver) DefaultMaxTokens() int {
	return grokDefaultMaxTokens
}

// FormatVisionMessage implements VisionFormatter. Translation encodes the
// image as an image_url data URI with detail=high.
func (d *GrokDriver) FormatVisionMessage(text string, img ImageData) (Message, error) {
	return Message{
		Role:  RoleUser,
		Parts: []Part{TextPart(text), ImagePart(img)},
	}, nil
}

// GenerateResponse implements Driver.
func (d *GrokDriver) GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error) {
	if d.client == nil {
		return "", ConfigurationErr("grok: driver not initialized")
	}

	messages, err := toOpenAIMessages(msgs, "high")
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", ErrEmptyRequest
	}

	// The vision model handles the whole call if any translated message
	// carries image content, not just the newest turn.
	model := d.textModel
	if hasImageContent(messages) {
		model = d.visionModel
	}

	params := oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(model),
		Messages:    messages,
		MaxTokens:   oai.Int(int64(d.maxTokens)),
		Temperature: oai.Float(d.temperature),
	}

	log.Info().Str("model", model).Msg("generating grok response")
	stream := d.client.NewStreaming(ctx, params)
	return collectStream(sink, completionFragments(ProviderGrok, stream))
}

// hasImageContent reports whether any translated message carries an image
// part.
func hasImageContent(messages []oai.ChatCompletionMessageParamUnion) bool {
	for _, msg := range messages {
		user := msg.OfUser
		if user == nil {
			continue
		}
		for _, part := range user.Content.OfArrayOfContentParts {
			if part.OfImageURL != nil {
				return true
			}
		}
	}
	return false
}
