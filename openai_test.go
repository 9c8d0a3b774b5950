package visionchat

import (
	"context"
	"errors"
	"strings"
	"testing"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	oaissestream "github.com/openai/openai-go/v3/packages/ssestream"
)

// fakeChunkDecoder replays canned SSE events to an OpenAI completion stream.
type fakeChunkDecoder struct {
	events []oaissestream.Event
	idx    int
	err    error
}

func (d *fakeChunkDecoder) Event() oaissestream.Event {
	return d.events[d.idx-1]
}

func (d *fakeChunkDecoder) Next() bool {
	if d.idx >= len(d.events) {
		return false
	}
	d.idx++
	return true
}

func (d *fakeChunkDecoder) Close() error { return nil }
func (d *fakeChunkDecoder) Err() error   { return d.err }

type fakeCompletionSvc struct {
	events     []oaissestream.Event
	err        error
	lastParams oai.ChatCompletionNewParams
}

func (s *fakeCompletionSvc) NewStreaming(ctx context.Context, body oai.ChatCompletionNewParams, opts ...option.RequestOption) *oaissestream.Stream[oai.ChatCompletionChunk] {
	s.lastParams = body
	return oaissestream.NewStream[oai.ChatCompletionChunk](&fakeChunkDecoder{events: s.events, err: s.err}, nil)
}

func completionChunk(text string) oaissestream.Event {
	return oaissestream.Event{
		Data: []byte(`{"choices":[{"delta":{"content":"` + text + `"}}]}`),
	}
}

func newOpenAITestDriver(t *testing.T, svc *fakeCompletionSvc) *OpenAIDriver {
	t.Helper()
	d := &OpenAIDriver{client: svc}
	if err := d.Initialize(DriverConfig{APIKey: "test-key"}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	return d
}

func TestOpenAIGenerateResponse(t *testing.T) {
	t.Run("aggregates deltas and forwards them to the sink", func(t *testing.T) {
		svc := &fakeCompletionSvc{events: []oaissestream.Event{
			completionChunk("Hel"),
			completionChunk("lo"),
		}}
		d := newOpenAITestDriver(t, svc)

		var sink strings.Builder
		got, err := d.GenerateResponse(context.Background(), []Message{Text(RoleUser, "hi")}, &sink)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "Hello" {
			t.Errorf("expected %q, got %q", "Hello", got)
		}
		if sink.String() != got {
			t.Errorf("sink saw %q but call returned %q", sink.String(), got)
		}
	})

	t.Run("chunks without choices are skipped", func(t *testing.T) {
		svc := &fakeCompletionSvc{events: []oaissestream.Event{
			{Data: []byte(`{"choices":[]}`)},
			completionChunk("ok"),
		}}
		d := newOpenAITestDriver(t, svc)

		got, err := d.GenerateResponse(context.Background(), []Message{Text(RoleUser, "hi")}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "ok" {
			t.Errorf("expected %q, got %q", "ok", got)
		}
	})

	t.Run("empty message list fails with ErrEmptyRequest", func(t *testing.T) {
		d := newOpenAITestDriver(t, &fakeCompletionSvc{})
		if _, err := d.GenerateResponse(context.Background(), nil, nil); !errors.Is(err, ErrEmptyRequest) {
			t.Fatalf("expected ErrEmptyRequest, got %v", err)
		}
	})

	t.Run("generation parameters reach the request", func(t *testing.T) {
		svc := &fakeCompletionSvc{}
		d := &OpenAIDriver{client: svc}
		err := d.Initialize(DriverConfig{APIKey: "k", Model: "gpt-test", MaxTokens: 64, Temperature: 0.3})
		if err != nil {
			t.Fatalf("initialize failed: %v", err)
		}
		if _, err := d.GenerateResponse(context.Background(), []Message{Text(RoleUser, "hi")}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if svc.lastParams.Model != "gpt-test" {
			t.Errorf("expected model gpt-test, got %v", svc.lastParams.Model)
		}
		if svc.lastParams.MaxTokens.Value != 64 {
			t.Errorf("expected max tokens 64, got %d", svc.lastParams.MaxTokens.Value)
		}
		if svc.lastParams.Temperature.Value != 0.3 {
			t.Errorf("expected temperature 0.3, got %v", svc.lastParams.Temperature.Value)
		}
	})

	t.Run("repeated calls with the same input produce the same request", func(t *testing.T) {
		svc := &fakeCompletionSvc{events: []oaissestream.Event{completionChunk("hi")}}
		d := newOpenAITestDriver(t, svc)

		msgs := []Message{Text(RoleSystem, "be terse"), Text(RoleUser, "hi")}
		if _, err := d.GenerateResponse(context.Background(), msgs, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		first := svc.lastParams
		svc.events = []oaissestream.Event{completionChunk("hi")}
		if _, err := d.GenerateResponse(context.Background(), msgs, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.Messages) != len(svc.lastParams.Messages) {
			t.Errorf("request shape changed between identical calls")
		}
	})
}

func TestToOpenAIMessages(t *testing.T) {
	t.Run("system and assistant roles pass through", func(t *testing.T) {
		msgs, err := toOpenAIMessages([]Message{
			Text(RoleSystem, "be terse"),
			Text(RoleUser, "hi"),
			Text(RoleAssistant, "hello"),
		}, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(msgs))
		}
		if msgs[0].OfSystem == nil {
			t.Errorf("expected system message first, got %+v", msgs[0])
		}
		if msgs[1].OfUser == nil {
			t.Errorf("expected user message second, got %+v", msgs[1])
		}
		if msgs[2].OfAssistant == nil {
			t.Errorf("expected assistant message third, got %+v", msgs[2])
		}
	})

	t.Run("image parts become data-uri image_url parts", func(t *testing.T) {
		msgs, err := toOpenAIMessages([]Message{{
			Role: RoleUser,
			Parts: []Part{
				TextPart("what is this"),
				ImagePart(ImageData{MIMEType: "image/jpeg", Data: "aGVsbG8="}),
			},
		}}, "high")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 || msgs[0].OfUser == nil {
			t.Fatalf("expected a single user message, got %+v", msgs)
		}
		parts := msgs[0].OfUser.Content.OfArrayOfContentParts
		if len(parts) != 2 {
			t.Fatalf("expected 2 content parts, got %d", len(parts))
		}
		if parts[0].OfText == nil || parts[0].OfText.Text != "what is this" {
			t.Errorf("expected text part, got %+v", parts[0])
		}
		img := parts[1].OfImageURL
		if img == nil {
			t.Fatalf("expected image_url part, got %+v", parts[1])
		}
		wantURL := "data:image/jpeg;base64,aGVsbG8="
		if img.ImageURL.URL != wantURL {
			t.Errorf("expected url %q, got %q", wantURL, img.ImageURL.URL)
		}
		if img.ImageURL.Detail != "high" {
			t.Errorf("expected detail high, got %q", img.ImageURL.Detail)
		}
	})

	t.Run("image part without mime type is rejected", func(t *testing.T) {
		_, err := toOpenAIMessages([]Message{{
			Role:  RoleUser,
			Parts: []Part{ImagePart(ImageData{Data: "aGVsbG8="})},
		}}, "")
		if err == nil {
			t.Fatal("expected error for missing mime type")
		}
	})
}

func TestOpenAIInitialize(t *testing.T) {
	t.Run("missing api key fails with ConfigurationErr", func(t *testing.T) {
		d := &OpenAIDriver{}
		var cfgErr ConfigurationErr
		if err := d.Initialize(DriverConfig{}); !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigurationErr, got %v", err)
		}
	})

	t.Run("defaults applied for omitted fields", func(t *testing.T) {
		d := &OpenAIDriver{client: &fakeCompletionSvc{}}
		if err := d.Initialize(DriverConfig{APIKey: "k"}); err != nil {
			t.Fatalf("initialize failed: %v", err)
		}
		if d.model != openAIDefaultModel {
			t.Errorf("expected default model %q, got %q", openAIDefaultModel, d.model)
		}
		if d.maxTokens != openAIDefaultMaxTokens {
			t.Errorf("expected default max tokens %d, got %d", openAIDefaultMaxTokens, d.maxTokens)
		}
		if d.temperature != openAIDefaultTemperature {
			t.Errorf("expected default temperature %v, got %v", openAIDefaultTemperature, d.temperature)
		}
	})
}
