package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/klambros/orthoglossa/pkg/provider/llm"
)

func TestCompletionParams_SystemPromptPrepended(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	params := p.completionParams(llm.CompletionRequest{
		SystemPrompt: "You are helpful.",
		Messages:     []llm.Message{{Role: "user", Content: "Hello!"}},
	})

	if len(params.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(params.Messages))
	}
	if params.Messages[0].Role != string(anyllmlib.RoleSystem) {
		t.Errorf("first message role = %q, want system", params.Messages[0].Role)
	}
	if params.Messages[1].Content != "Hello!" {
		t.Errorf("user content = %q, want Hello!", params.Messages[1].Content)
	}
}

func TestCompletionParams_Sampling(t *testing.T) {
	p := &Provider{model: "gpt-4o"}

	set := p.completionParams(llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: "Hi"}},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if set.Temperature == nil || *set.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", set.Temperature)
	}
	if set.MaxTokens == nil || *set.MaxTokens != 2000 {
		t.Errorf("max tokens = %v, want 2000", set.MaxTokens)
	}

	// Zero values must stay nil so backend defaults apply.
	unset := p.completionParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "Hi"}},
	})
	if unset.Temperature != nil {
		t.Errorf("temperature = %v, want nil", *unset.Temperature)
	}
	if unset.MaxTokens != nil {
		t.Errorf("max tokens = %v, want nil", *unset.MaxTokens)
	}
}

func TestModelCapabilities(t *testing.T) {
	tests := []struct {
		model      string
		wantWindow int
		wantVision bool
	}{
		{"gpt-4o-mini", 128_000, true},
		{"claude-future-model", 200_000, true},
		{"gemini-1.5-pro", 2_097_152, true},
		{"qwen/qwen3-8b:free", 32_768, false},
		{"meta-llama/llama-3.3-70b-instruct:free", 131_072, false},
	}
	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			caps := modelCapabilities(tc.model)
			if caps.ContextWindow != tc.wantWindow {
				t.Errorf("context window = %d, want %d", caps.ContextWindow, tc.wantWindow)
			}
			if caps.SupportsVision != tc.wantVision {
				t.Errorf("vision = %v, want %v", caps.SupportsVision, tc.wantVision)
			}
			if caps.MaxOutputTokens <= 0 {
				t.Error("MaxOutputTokens should be positive")
			}
		})
	}
}

func TestModelCapabilities_UnknownModel(t *testing.T) {
	caps := modelCapabilities("my-custom-model")
	if caps.ContextWindow <= 0 || caps.MaxOutputTokens <= 0 {
		t.Errorf("unknown model should get positive defaults, got %+v", caps)
	}
	if !caps.SupportsStreaming {
		t.Error("unknown model should default to streaming support")
	}
}

func TestModelCapabilities_CaseInsensitive(t *testing.T) {
	lower := modelCapabilities("gpt-4o")
	upper := modelCapabilities("GPT-4O")
	if lower.ContextWindow != upper.ContextWindow {
		t.Errorf("case should not matter: got %d vs %d", lower.ContextWindow, upper.ContextWindow)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty provider name")
	}
	if _, err := New("openai", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("fakecloud", "some-model", anyllmlib.WithAPIKey("dummy")); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNew_OpenAI(t *testing.T) {
	p, err := New("openai", "gpt-4o", anyllmlib.WithAPIKey("sk-test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", p.model)
	}
}

func TestNew_OpenAI_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New("openai", "gpt-4o"); err == nil {
		t.Fatal("expected error when no API key is available")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*Provider, error)
	}{
		{"NewOpenAI", func() (*Provider, error) { return NewOpenAI("gpt-4o", anyllmlib.WithAPIKey("sk-test")) }},
		{"NewAnthropic", func() (*Provider, error) {
			return NewAnthropic("claude-3-5-sonnet-latest", anyllmlib.WithAPIKey("sk-ant-test"))
		}},
		{"NewOllama", func() (*Provider, error) { return NewOllama("llama3") }},
		{"NewLlamaCpp", func() (*Provider, error) { return NewLlamaCpp("llama3") }},
		{"NewLlamaFile", func() (*Provider, error) { return NewLlamaFile("llama3") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.fn()
			if err != nil {
				t.Fatalf("constructor: %v", err)
			}
			if p == nil {
				t.Fatal("constructor returned nil provider")
			}
		})
	}
}

func TestCountTokens(t *testing.T) {
	p := &Provider{model: "gpt-4o"}

	count, err := p.CountTokens([]llm.Message{{Role: "user", Content: "Hello world"}})
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if count <= 0 {
		t.Errorf("count = %d, want positive", count)
	}

	empty, err := p.CountTokens(nil)
	if err != nil || empty != 0 {
		t.Errorf("CountTokens(nil) = %d, %v; want 0, nil", empty, err)
	}
}

func TestCapabilities_DelegatesToModel(t *testing.T) {
	p := &Provider{model: "gpt-4o"}
	got := p.Capabilities()
	want := modelCapabilities("gpt-4o")
	if got != want {
		t.Errorf("Capabilities() = %+v, want %+v", got, want)
	}
}
