// Package anyllm adapts github.com/mozilla-ai/any-llm-go to the llm.Provider
// interface, giving one constructor for the OpenAI, Anthropic, Gemini,
// Ollama, DeepSeek, Mistral, Groq, llama.cpp, and llamafile backends.
//
//	p, err := anyllm.New("openai", "gpt-4o-mini", anyllmlib.WithAPIKey("sk-..."))
//	p, err := anyllm.NewOllama("qwen3:8b")
package anyllm

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/klambros/orthoglossa/pkg/provider/llm"
)

// asProvider adapts a constructor returning a concrete backend type to one
// returning the anyllmlib.Provider interface.
func asProvider[T anyllmlib.Provider](ctor func(...anyllmlib.Option) (T, error)) func(...anyllmlib.Option) (anyllmlib.Provider, error) {
	return func(opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
		p, err := ctor(opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// backends maps a lowercase provider name to its any-llm-go constructor.
var backends = map[string]func(...anyllmlib.Option) (anyllmlib.Provider, error){
	"openai":    asProvider(anyllmoai.New),
	"anthropic": asProvider(anthropic.New),
	"gemini":    asProvider(gemini.New),
	"ollama":    asProvider(ollama.New),
	"deepseek":  asProvider(deepseek.New),
	"mistral":   asProvider(mistral.New),
	"groq":      asProvider(groq.New),
	"llamacpp":  asProvider(llamacpp.New),
	"llamafile": asProvider(llamafile.New),
}

// Provider implements llm.Provider on top of an any-llm-go backend.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider for the named backend (see the keys of the supported
// set in the error below) and model. opts are passed through to any-llm-go;
// without an explicit key option the backend reads its usual environment
// variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, and so on).
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	switch {
	case providerName == "":
		return nil, fmt.Errorf("anyllm: provider name is required")
	case model == "":
		return nil, fmt.Errorf("anyllm: model is required")
	}

	ctor := backends[strings.ToLower(providerName)]
	if ctor == nil {
		supported := slices.Sorted(maps.Keys(backends))
		return nil, fmt.Errorf("anyllm: unsupported provider %q (supported: %s)", providerName, strings.Join(supported, ", "))
	}
	backend, err := ctor(opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}

	return &Provider{backend: backend, model: model}, nil
}

// Per-backend constructors, for callers that know the backend at compile time.

// NewOpenAI targets OpenAI; the key defaults to OPENAI_API_KEY.
func NewOpenAI(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("openai", model, opts...)
}

// NewAnthropic targets Anthropic; the key defaults to ANTHROPIC_API_KEY.
func NewAnthropic(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("anthropic", model, opts...)
}

// NewGemini targets Google Gemini; the key defaults to GEMINI_API_KEY or
// GOOGLE_API_KEY.
func NewGemini(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("gemini", model, opts...)
}

// NewOllama targets a local Ollama server, http://localhost:11434 by default.
func NewOllama(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("ollama", model, opts...)
}

// NewDeepSeek targets DeepSeek; the key defaults to DEEPSEEK_API_KEY.
func NewDeepSeek(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("deepseek", model, opts...)
}

// NewMistral targets Mistral AI; the key defaults to MISTRAL_API_KEY.
func NewMistral(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("mistral", model, opts...)
}

// NewGroq targets Groq; the key defaults to GROQ_API_KEY.
func NewGroq(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("groq", model, opts...)
}

// NewLlamaCpp targets a running llama.cpp server, http://127.0.0.1:8080/v1 by
// default.
func NewLlamaCpp(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("llamacpp", model, opts...)
}

// NewLlamaFile targets a running llamafile server at its default address.
func NewLlamaFile(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("llamafile", model, opts...)
}

// StreamCompletion implements llm.Provider.
func (p *Provider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	chunks, errs := p.backend.CompletionStream(ctx, p.completionParams(req))

	out := make(chan llm.Chunk, 32)
	go func() {
		defer close(out)

		emit := func(c llm.Chunk) bool {
			select {
			case out <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for c := range chunks {
			if len(c.Choices) == 0 {
				continue
			}
			delta := c.Choices[0]
			if !emit(llm.Chunk{Text: delta.Delta.Content, FinishReason: delta.FinishReason}) {
				return
			}
		}

		// The error channel resolves only after the chunk stream is drained.
		if err := <-errs; err != nil {
			emit(llm.Chunk{FinishReason: "error", Text: err.Error()})
		}
	}()

	return out, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	completion, err := p.backend.Completion(ctx, p.completionParams(req))
	if err != nil {
		return nil, fmt.Errorf("anyllm: completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: response contained no choices")
	}

	resp := &llm.CompletionResponse{Content: completion.Choices[0].Message.ContentString()}
	if u := completion.Usage; u != nil {
		resp.Usage = llm.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return resp, nil
}

// CountTokens implements llm.Provider with a character-based estimate of
// roughly four characters per token plus a fixed per-message overhead.
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

// completionParams converts a CompletionRequest into any-llm-go
// CompletionParams. A SystemPrompt becomes a leading system-role message.
func (p *Provider) completionParams(req llm.CompletionRequest) anyllmlib.CompletionParams {
	msgs := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, anyllmlib.Message{Role: anyllmlib.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, anyllmlib.Message{Role: m.Role, Content: m.Content, Name: m.Name})
	}

	params := anyllmlib.CompletionParams{Model: p.model, Messages: msgs}
	if t := req.Temperature; t != 0 {
		params.Temperature = &t
	}
	if n := req.MaxTokens; n > 0 {
		params.MaxTokens = &n
	}
	return params
}

// capabilityRule assigns capabilities to models whose lowercase name matches
// the prefix or contains the substring. First matching rule wins.
type capabilityRule struct {
	prefix, contains string
	caps             llm.ModelCapabilities
}

var capabilityRules = []capabilityRule{
	{prefix: "gpt-4o-mini", caps: llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "gpt-4o", caps: llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 16_384, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "gpt-4-turbo", caps: llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "gpt-4", caps: llm.ModelCapabilities{ContextWindow: 8_192, MaxOutputTokens: 4_096, SupportsStreaming: true}},
	{prefix: "gpt-3.5-turbo", caps: llm.ModelCapabilities{ContextWindow: 16_385, MaxOutputTokens: 4_096, SupportsStreaming: true}},
	{prefix: "o1-mini", caps: llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 65_536, SupportsStreaming: true}},
	{prefix: "o1", caps: llm.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "o3", caps: llm.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 100_000, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "claude", caps: llm.ModelCapabilities{ContextWindow: 200_000, MaxOutputTokens: 8_192, SupportsVision: true, SupportsStreaming: true}},
	{contains: "gemini-1.5-pro", caps: llm.ModelCapabilities{ContextWindow: 2_097_152, MaxOutputTokens: 8_192, SupportsVision: true, SupportsStreaming: true}},
	{prefix: "gemini", caps: llm.ModelCapabilities{ContextWindow: 1_048_576, MaxOutputTokens: 8_192, SupportsVision: true, SupportsStreaming: true}},
	{contains: "qwen3", caps: llm.ModelCapabilities{ContextWindow: 32_768, MaxOutputTokens: 8_192, SupportsStreaming: true}},
	{contains: "qwen/", caps: llm.ModelCapabilities{ContextWindow: 32_768, MaxOutputTokens: 8_192, SupportsStreaming: true}},
	{contains: "llama-3.3", caps: llm.ModelCapabilities{ContextWindow: 131_072, MaxOutputTokens: 4_096, SupportsStreaming: true}},
	{contains: "llama3", caps: llm.ModelCapabilities{ContextWindow: 131_072, MaxOutputTokens: 4_096, SupportsStreaming: true}},
}

// modelCapabilities resolves capabilities for the known OpenAI, Anthropic,
// Gemini, and open-weight families routed through OpenRouter. Unknown models
// get conservative defaults.
func modelCapabilities(model string) llm.ModelCapabilities {
	name := strings.ToLower(model)
	for _, r := range capabilityRules {
		if r.prefix != "" && strings.HasPrefix(name, r.prefix) {
			return r.caps
		}
		if r.contains != "" && strings.Contains(name, r.contains) {
			return r.caps
		}
	}
	return llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsStreaming: true}
}
