// Package openai implements llm.Provider against the OpenAI chat completions
// API. With WithBaseURL it also serves any OpenAI-compatible gateway, which
// is how OpenRouter models are reached.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"

	"github.com/klambros/orthoglossa/pkg/provider/llm"
)

// Provider implements llm.Provider using the OpenAI SDK client.
type Provider struct {
	model  string
	client oai.Client
}

type options struct {
	baseURL     string
	org         string
	httpTimeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*options)

// WithBaseURL points the client at an OpenAI-compatible gateway instead of
// api.openai.com, e.g. "https://openrouter.ai/api/v1".
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithOrganization sets the OpenAI organization ID on all requests.
func WithOrganization(org string) Option {
	return func(o *options) { o.org = org }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.httpTimeout = d }
}

// New constructs a Provider for the given key and model.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	switch {
	case apiKey == "":
		return nil, fmt.Errorf("openai: api key is required")
	case model == "":
		return nil, fmt.Errorf("openai: model is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return &Provider{model: model, client: oai.NewClient(clientOptions(apiKey, o)...)}, nil
}

func clientOptions(apiKey string, o options) []option.RequestOption {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.org != "" {
		reqOpts = append(reqOpts, option.WithOrganization(o.org))
	}
	if o.httpTimeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: o.httpTimeout}))
	}
	return reqOpts
}

// StreamCompletion implements llm.Provider.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	params, err := p.requestParams(req)
	if err != nil {
		return nil, err
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai: start stream: %w", err)
	}

	out := make(chan llm.Chunk, 32)
	go forward(ctx, stream, out)
	return out, nil
}

// forward drains the SDK stream into out, closing out when the stream ends.
// A stream error surfaces as a final chunk with FinishReason "error".
func forward(ctx context.Context, stream *ssestream.Stream[oai.ChatCompletionChunk], out chan<- llm.Chunk) {
	defer close(out)
	defer stream.Close()

	emit := func(c llm.Chunk) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for stream.Next() {
		cur := stream.Current()
		if len(cur.Choices) == 0 {
			continue
		}
		delta := cur.Choices[0]
		if !emit(llm.Chunk{Text: delta.Delta.Content, FinishReason: delta.FinishReason}) {
			return
		}
	}
	if err := stream.Err(); err != nil {
		emit(llm.Chunk{FinishReason: "error", Text: err.Error()})
	}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.requestParams(req)
	if err != nil {
		return nil, err
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	usage := llm.Usage{
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:      int(completion.Usage.TotalTokens),
	}
	return &llm.CompletionResponse{Content: completion.Choices[0].Message.Content, Usage: usage}, nil
}

// CountTokens implements llm.Provider with the rough GPT-series estimate of
// four characters per token plus a per-message overhead.
// TODO: use tiktoken-go for exact per-model counts once context trimming
// needs them.
func (p *Provider) CountTokens(messages []llm.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += (len(m.Content)+3)/4 + 4
	}
	return n, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	return modelCapabilities(p.model)
}

var knownModels = []struct {
	prefix string
	caps   llm.ModelCapabilities
}{
	{"gpt-4o-mini", llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsVision: true, SupportsStreaming: true}},
	{"gpt-4o", llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsVision: true, SupportsStreaming: true}},
	{"gpt-4-turbo", llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsVision: true, SupportsStreaming: true}},
	{"gpt-4", llm.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096, SupportsStreaming: true}},
	{"gpt-3.5-turbo", llm.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsStreaming: true}},
	{"o1-mini", llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536, SupportsStreaming: true}},
	{"o1", llm.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsVision: true, SupportsStreaming: true}},
	{"o3", llm.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsVision: true, SupportsStreaming: true}},
}

// modelCapabilities resolves capabilities for known OpenAI model names by
// longest-known prefix; unknown models get conservative defaults.
func modelCapabilities(model string) llm.ModelCapabilities {
	name := strings.ToLower(model)
	for _, km := range knownModels {
		if strings.HasPrefix(name, km.prefix) {
			return km.caps
		}
	}
	return llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsStreaming: true}
}

// requestParams converts a CompletionRequest into OpenAI SDK params. A
// SystemPrompt becomes a leading system message.
func (p *Provider) requestParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	msgs := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		u, err := sdkMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		msgs = append(msgs, u)
	}

	params := oai.ChatCompletionNewParams{Model: shared.ChatModel(p.model), Messages: msgs}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	return params, nil
}

// sdkMessage maps an llm.Message onto the SDK's role-specific params.
func sdkMessage(m llm.Message) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		var a oai.ChatCompletionAssistantMessageParam
		if m.Content != "" {
			a.Content.OfString = oai.String(m.Content)
		}
		if m.Name != "" {
			a.Name = oai.String(m.Name)
		}
		return oai.ChatCompletionMessageParamUnion{OfAssistant: &a}, nil
	}
	return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unknown message role %q", m.Role)
}
