package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames holds the recognised provider names per provider kind,
// consulted by [Validate] when warning about likely typos.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "openrouter", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads, decodes, and validates the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes and validates a YAML config from r. Unknown YAML
// keys are rejected so misspelled settings fail loudly instead of being
// silently dropped.
func LoadFromReader(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; the chat loop will not be able to generate responses")
	}

	// Chat
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature %.2f is out of range [0, 2]", cfg.Chat.Temperature))
	}
	if cfg.Chat.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("chat.max_tokens %d must not be negative", cfg.Chat.MaxTokens))
	}

	// Dictionary
	if cfg.Dictionary.MinScore < 0 || cfg.Dictionary.MinScore > 100 {
		errs = append(errs, fmt.Errorf("dictionary.min_score %.2f is out of range [0, 100]", cfg.Dictionary.MinScore))
	}
	if w := cfg.Dictionary.Weights; w != nil {
		if w.TokenSet < 0 || w.TokenSort < 0 || w.Partial < 0 || w.Ratio < 0 {
			errs = append(errs, errors.New("dictionary.weights must not be negative"))
		}
		if w.TokenSet == 0 && w.TokenSort == 0 && w.Partial == 0 && w.Ratio == 0 {
			errs = append(errs, errors.New("dictionary.weights must not all be zero; omit the block to use the default scorer"))
		}
	}
	if cfg.Dictionary.Dir == "" {
		slog.Warn("dictionary.dir is empty; terminology matching will be unavailable")
	}

	// Scripture
	if cfg.Scripture.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("scripture.timeout_seconds %d must not be negative", cfg.Scripture.TimeoutSeconds))
	}
	if cfg.Chat.OrthodoxMode && cfg.Scripture.TargetLang == "" {
		slog.Warn("chat.orthodox_mode is enabled but scripture.target_lang is not set; defaulting to hk")
	}

	return errors.Join(errs...)
}

// validateProviderName warns when name is set but not in the
// [ValidProviderNames] list for kind. Unknown names are not an error since
// third-party providers exist.
func validateProviderName(kind, name string) {
	known := ValidProviderNames[kind]
	if name == "" || len(known) == 0 || slices.Contains(known, name) {
		return
	}
	slog.Warn("unrecognised provider name, possibly a typo", "kind", kind, "name", name, "known", known)
}
