package config_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/klambros/orthoglossa/internal/config"
)

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_TemperatureOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
chat:
  temperature: 3.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for out-of-range temperature, got nil")
	}
	if !strings.Contains(err.Error(), "temperature") {
		t.Errorf("error should mention temperature, got: %v", err)
	}
}

func TestValidate_NegativeMaxTokens(t *testing.T) {
	t.Parallel()
	yaml := `
chat:
  max_tokens: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative max_tokens, got nil")
	}
}

func TestValidate_MinScoreOutOfRange(t *testing.T) {
	t.Parallel()
	yaml := `
dictionary:
  min_score: 150
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for min_score > 100, got nil")
	}
	if !strings.Contains(err.Error(), "min_score") {
		t.Errorf("error should mention min_score, got: %v", err)
	}
}

func TestValidate_AllZeroWeights(t *testing.T) {
	t.Parallel()
	yaml := `
dictionary:
  weights:
    token_set: 0
    token_sort: 0
    partial: 0
    ratio: 0
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for all-zero weights, got nil")
	}
	if !strings.Contains(err.Error(), "weights") {
		t.Errorf("error should mention weights, got: %v", err)
	}
}

func TestValidate_NegativeWeight(t *testing.T) {
	t.Parallel()
	yaml := `
dictionary:
  weights:
    token_set: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative weight, got nil")
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	t.Parallel()
	yaml := `
scripture:
  timeout_seconds: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative timeout, got nil")
	}
}

func TestValidate_MultipleErrorsJoined(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: loud
chat:
  temperature: 9
dictionary:
  min_score: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	for _, want := range []string{"log_level", "temperature", "min_score"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("joined error should mention %s, got: %v", want, err)
		}
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	llm := config.ValidProviderNames["llm"]
	for _, want := range []string{"openai", "openrouter", "ollama"} {
		if !slices.Contains(llm, want) {
			t.Errorf("llm provider list is missing %q: %v", want, llm)
		}
	}
}
