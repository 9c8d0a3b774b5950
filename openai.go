package visionchat

import (
	"context"
	"fmt"
	"io"
	"iter"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	oaissestream "github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/rs/zerolog/log"
)

// OpenAI driver defaults, applied by Initialize for any field not supplied.
const (
	openAIDefaultModel       = "chatgpt-4o-latest"
	openAIDefaultMaxTokens   = 4096
	openAIDefaultTemperature = 0.7
)

// OpenAICompletionService is the subset of the OpenAI chat completion service
// used by the chat-completion drivers. It exists so tests can substitute a
// fake stream source.
type OpenAICompletionService interface {
	// NewStreaming generates a new streaming chat completion using the OpenAI API
	NewStreaming(ctx context.Context, body oai.ChatCompletionNewParams, opts ...option.RequestOption) *oaissestream.Stream[oai.ChatCompletionChunk]
}

// OpenAIDriver implements the Driver interface using the OpenAI
// chat-completion API via the official SDK's streaming transport.
type OpenAIDriver struct {
	client      OpenAICompletionService
	model       string
	maxTokens   int
	temperature float64
}

var (
	_ Driver          = (*OpenAIDriver)(nil)
	_ VisionFormatter = (*OpenAIDriver)(nil)
)

// Initialize implements Driver.
func (d *OpenAIDriver) Initialize(cfg DriverConfig) error {
	if err := validateConfig(ProviderOpenAI, cfg); err != nil {
		return err
	}
	if d.client == nil {
		client := oai.NewClient(option.WithAPIKey(cfg.APIKey))
		d.client = &client.Chat.Completions
	}
	d.model = cfg.Model
	if d.model == "" {
		d.model = openAIDefaultModel
	}
	d.maxTokens = cfg.MaxTokens
	if d.maxTokens == 0 {
		d.maxTokens = openAIDefaultMaxTokens
	}
	d.temperature = cfg.Temperature
	if d.temperature == 0 {
		d.temperature = openAIDefaultTemperature
	}
	log.Info().
		Str("model", d.model).
		Int("max_tokens", d.maxTokens).
		Float64("temperature", d.temperature).
		Msg("openai driver initialized")
	return nil
}

// DefaultMaxTokens implements Driver.
func (d *OpenAIDriver) DefaultMaxTokens() int {
	return openAIDefaultMaxTokens
}

// FormatVisionMessage implements VisionFormatter. The image is carried as a
// base64 part, which translation encodes as an image_url data URI.
func (d *OpenAIDriver) FormatVisionMessage(text string, img ImageData) (Message, error) {
	return Message{
		Role:  RoleUser,
		Parts: []Part{TextPart(text), ImagePart(img)},
	}, nil
}

// GenerateResponse implements Driver.
func (d *OpenAIDriver) GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error) {
	if d.client == nil {
		return "", ConfigurationErr("openai: driver not initialized")
	}

	messages, err := toOpenAIMessages(msgs, "")
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", ErrEmptyRequest
	}

	params := oai.ChatCompletionNewParams{
		Model:       oai.ChatModel(d.model),
		Messages:    messages,
		MaxTokens:   oai.Int(int64(d.maxTokens)),
		Temperature: oai.Float(d.temperature),
	}

	log.Info().Str("model", d.model).Msg("generating openai response")
	stream := d.client.NewStreaming(ctx, params)
	return collectStream(sink, completionFragments(ProviderOpenAI, stream))
}

// toOpenAIMessages converts messages to OpenAI chat-completion params. The
// system role is first-class in this protocol, so system messages pass
// through unchanged. imageDetail, when non-empty, is set on every image part
// (Grok's vision API wants "high").
func toOpenAIMessages(msgs []Message, imageDetail string) ([]oai.ChatCompletionMessageParamUnion, error) {
	var messages []oai.ChatCompletionMessageParamUnion
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, oai.SystemMessage(msg.Text()))
		case RoleAssistant:
			messages = append(messages, oai.AssistantMessage(msg.Text()))
		case RoleUser:
			if !msg.HasImage() {
				messages = append(messages, oai.UserMessage(msg.Text()))
				continue
			}
			var parts []oai.ChatCompletionContentPartUnionParam
			for _, p := range msg.Parts {
				if p.Image == nil {
					parts = append(parts, oai.TextContentPart(p.Text))
					continue
				}
				if p.Image.MIMEType == "" {
					return nil, fmt.Errorf("image part missing mime type")
				}
				parts = append(parts, oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
					URL:    fmt.Sprintf("data:%s;base64,%s", p.Image.MIMEType, p.Image.Data),
					Detail: imageDetail,
				}))
			}
			messages = append(messages, oai.UserMessage(parts))
		default:
			return nil, fmt.Errorf("unsupported role: %v", msg.Role)
		}
	}
	return messages, nil
}

// completionFragments drains an OpenAI chat-completion stream, yielding one
// text delta per chunk until the stream ends.
func completionFragments(provider string, stream *oaissestream.Stream[oai.ChatCompletionChunk]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", &ProviderErr{Provider: provider, Cause: err})
		}
	}
}
