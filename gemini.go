package visionchat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Gemini driver defaults, applied by Initialize for any field not supplied.
const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	geminiDefaultModel       = "gemini-2.5-pro"
	geminiDefaultMaxTokens   = 8192
	geminiDefaultTemperature = 0.7

	geminiRequestTimeout = 60 * time.Second

	// Returned in place of an empty aggregate so a dry stream never surfaces
	// an empty string to the caller.
	geminiEmptyResponseFallback = "I apologize, but I couldn't generate a response. Please try again."
)

// GeminiDriver implements the Driver interface against the Gemini REST API,
// parsing the server-sent event stream by hand. It is text-only: vision
// requests fail with UnsupportedCapabilityErr.
type GeminiDriver struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

var _ Driver = (*GeminiDriver)(nil)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	CandidateCount  int     `json:"candidateCount"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiStreamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Initialize implements Driver.
func (d *GeminiDriver) Initialize(cfg DriverConfig) error {
	if err := validateConfig(ProviderGemini, cfg); err != nil {
		return err
	}
	if d.client == nil {
		d.client = &http.Client{Timeout: geminiRequestTimeout}
	}
	if d.baseURL == "" {
		d.baseURL = geminiBaseURL
	}
	d.apiKey = cfg.APIKey
	d.model = cfg.Model
	if d.model == "" {
		d.model = geminiDefaultModel
	}
	d.maxTokens = cfg.MaxTokens
	if d.maxTokens == 0 {
		d.maxTokens = geminiDefaultMaxTokens
	}
	d.temperature = cfg.Temperature
	if d.temperature == 0 {
		d.temperature = geminiDefaultTemperature
	}
	log.Info().
		Str("model", d.model).
		Int("max_tokens", d.maxTokens).
		Float64("temperature", d.temperature).
		Msg("gemini driver initialized")
	return nil
}

// DefaultMaxTokens implements Driver.
func (d *GeminiDriver) DefaultMaxTokens() int {
	return geminiDefaultMaxTokens
}

// toGeminiContents converts messages to the Gemini contents shape. The
// protocol has no system role, so system content is prepended to the first
// user turn, exactly once, and the separate system entry is discarded. The
// assistant role maps to "model".
func toGeminiContents(msgs []Message) ([]geminiContent, error) {
	var system string
	for _, msg := range msgs {
		if msg.Role == RoleSystem {
			system = msg.Text()
			break
		}
	}

	var contents []geminiContent
	for _, msg := range msgs {
		if msg.HasImage() {
			return nil, UnsupportedCapabilityErr("gemini driver does not support image input")
		}
		switch msg.Role {
		case RoleUser:
			text := msg.Text()
			if system != "" {
				text = system + "\n\n" + text
				system = ""
			}
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: text}},
			})
		case RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Text()}},
			})
		}
	}
	return contents, nil
}

// GenerateResponse implements Driver.
func (d *GeminiDriver) GenerateResponse(ctx context.Context, msgs []Message, sink io.Writer) (string, error) {
	if d.client == nil {
		return "", ConfigurationErr("gemini: driver not initialized")
	}

	contents, err := toGeminiContents(msgs)
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", ErrEmptyRequest
	}

	body, err := json.Marshal(geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     d.temperature,
			MaxOutputTokens: d.maxTokens,
			CandidateCount:  1,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:streamGenerateContent", strings.TrimRight(d.baseURL, "/"), d.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.URL.RawQuery = url.Values{
		"key": {d.apiKey},
		"alt": {"sse"},
	}.Encode()

	log.Info().Str("model", d.model).Msg("generating gemini response")
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", &ProviderErr{Provider: ProviderGemini, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &ProviderErr{
			Provider:   ProviderGemini,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	full, err := collectStream(sink, sseFragments(resp.Body))
	if err != nil {
		return "", err
	}
	full = strings.TrimSpace(full)
	if full == "" {
		return geminiEmptyResponseFallback, nil
	}
	return full, nil
}

// sseFragments drains a Gemini SSE response body, yielding the text of every
// candidate part in arrival order. Lines without a "data: " prefix, the
// [DONE] sentinel, and malformed JSON payloads carry no data and are skipped.
func sseFragments(body io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			chunk, ok := parseSSELine(scanner.Text())
			if !ok {
				continue
			}
			for _, candidate := range chunk.Candidates {
				for _, part := range candidate.Content.Parts {
					if !yield(part.Text, nil) {
						return
					}
				}
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", &ProviderErr{Provider: ProviderGemini, Cause: err})
		}
	}
}

// parseSSELine parses one server-sent-events line. The second return value is
// false for anything that is not a well-formed data payload.
func parseSSELine(line string) (geminiStreamChunk, bool) {
	line = strings.TrimSpace(line)
	data, found := strings.CutPrefix(line, "data: ")
	if !found || data == "" || data == "[DONE]" {
		return geminiStreamChunk{}, false
	}
	var chunk geminiStreamChunk
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return geminiStreamChunk{}, false
	}
	return chunk, true
}
