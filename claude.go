package visionchat

import (
	"context"
	"fmt"
	"io"
	"iter"

	a "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rs/zerolog/log"
)

// Claude driver defaults, applied by Initialize for any field not supplied.
const (
	claudeDefaultModel       = "claude-3-5-sonnet-latest"
	claudeDefaultMaxTokens   = 32768
	claudeDefaultTemperature = 0.7
)

// AnthropicSvc is the subset of the Anthropic message service used by
// ClaudeDriver. It exists so tests can substitute a fake stream source.
type AnthropicSvc interface {
	// NewStreaming generates a new streaming message using the Anthropic API
	NewStreaming(ctx context.Context, body a.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[a.MessageStreamEventUnion]
}

// ClaudeDriver implements the Driver interface using the Anthropic API via
// the official SDK's streaming transport.
type ClaudeDriver struct {
	client      AnthropicSvc
	model       string
	maxTokens   int
	temperature float64
}

var (
	_ Driver          = (*ClaudeDriver)(nil)
	_ VisionFormatter = (*ClaudeDriver)(nil)
)

// Initialize implements Driver. It binds credentials and applies the Claude
// defaults for any generation parameter left at its zero value.
func (d *ClaudeDriver) Initialize(cfg DriverConfig) error {
	if err := validateConfig(ProviderClaude, cfg); err != nil {
		return err
	}
	if d.client == nil {
		client := a.NewClient(option.WithAPIKey(cfg.APIKey))
		d.client = &client.Messages
	}
	d.model = cfg.Model
	if d.model == "" {
		d.model = claudeDefaultModel
	}
	d.maxTokens = cfg.MaxTokens
	if d.maxTokens == 0 {
		d.maxTokens = claudeDefaultMaxTokens
	}
	d.temperature = cfg.Temperature
	if d.temperature == 0 {
		d.temperature = claudeDefaultTemperature
	}
	log.Info().
		Str("model", d.model).
		Int("max_tokens", d.maxTokens).
		Float64("temperature", d.temperature).
		Msg("claude driver initialized")
	return nil
}

// DefaultMaxTokens implements Driver.
func (d *ClaudeDriver) DefaultMaxTokens() int {
	return claudeDefaultMaxTokens
}

// FormatVisionMessage implements VisionFormatter. The image is carried as a
// base64 source block, which translation encodes in Anthropic's
// {"type":"image","source":{"type":"base64",...}} shape.
func (d *ClaudeDriver) FormatVisionMessage(text string, img ImageData) (Message, error) {
	return Message{
		Role:  RoleUser,
		Parts: []Part{TextPart(text), ImagePart(img)},
	}, nil
}

// toClaudeMessage converts a Message to an Anthropic message param. System
// messages are not handled here; the Anthropic protocol carries them in the
// request-level system field instead.
func toClaudeMessage(msg Message) (a.MessageParam, error) {
	var parts []a.ContentBlockParamUnion
	for _, p := range msg.Parts {
		if p.Image != nil {
			if p.Image.MIMEType == "" {
				return a.MessageParam{}, fmt.Errorf("image part missing mime type")
			}
			parts = append(parts, a.NewImageBlockBase64(p.Image.MIMEType, p.Image.Data))
			continue
		}
		parts = append(parts, a.NewTextBlock(p.Text))
	}

	role := a.MessageParamRoleUser
	if msg.Role == RoleAssistant {
		role = a.MessageParamRoleAssistant
	}
	return a.MessageParam{Role: role, Content: parts}, nil
}

// GenerateResponse implements Driver.
func (d *ClaudeDriver) GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error) {
	if d.client == nil {
		return "", ConfigurationErr("claude: driver not initialized")
	}

	// Pull system messages into the request-level system field; everything
	// else converts to an ordered message param.
	var system string
	var messages []a.MessageParam
	for _, msg := range msgs {
		if msg.Role == RoleSystem {
			if system == "" {
				system = msg.Text()
			}
			continue
		}
		claudeMsg, err := toClaudeMessage(msg)
		if err != nil {
			return "", fmt.Errorf("failed to convert message: %w", err)
		}
		messages = append(messages, claudeMsg)
	}
	if len(messages) == 0 {
		return "", ErrEmptyRequest
	}

	params := a.MessageNewParams{
		Model:       a.Model(d.model),
		MaxTokens:   int64(d.maxTokens),
		Temperature: a.Float(d.temperature),
		Messages:    messages,
	}
	if system != "" {
		params.System = []a.TextBlockParam{{Text: system}}
	}

	log.Info().Str("model", d.model).Msg("generating claude response")
	return collectStream(sink, d.fragments(ctx, params))
}

// fragments drains the Anthropic event stream, yielding one text delta per
// content_block_delta event until the message_stop terminal event.
func (d *ClaudeDriver) fragments(ctx context.Context, params a.MessageNewParams) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := d.client.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			switch event := chunk.AsAny().(type) {
			case a.ContentBlockDeltaEvent:
				switch delta := event.Delta.AsAny().(type) {
				case a.TextDelta:
					if !yield(delta.Text, nil) {
						return
					}
				}
			case a.MessageStopEvent:
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", &ProviderErr{Provider: ProviderClaude, Cause: err})
		}
	}
}
