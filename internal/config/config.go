// Package config provides the configuration schema, loader, and provider
// registry for the Orthoglossa translation assistant.
package config

// LogLevel controls log verbosity for the Orthoglossa process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Orthoglossa.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Chat       ChatConfig       `yaml:"chat"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Scripture  ScriptureConfig  `yaml:"scripture"`
}

// ServerConfig holds logging and observability settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus /metrics endpoint listens
	// on (e.g., ":9090"). Leave empty to disable the metrics listener.
	MetricsAddr string `yaml:"metrics_addr"`
}

// ProvidersConfig declares which provider implementation backs the chat model.
// The entry selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`
}

// ProviderEntry is the configuration block for a single provider.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "ollama").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o",
	// "qwen/qwen3-8b:free").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// ChatConfig holds settings for the conversation loop and prompt construction.
type ChatConfig struct {
	// OrthodoxMode enables the Orthodox translation pipeline: the bare
	// "translate" command uses the terminology dictionary and fetches cited
	// Bible passages in both languages. When false, "translate" performs a
	// plain dictionary-assisted translation.
	OrthodoxMode bool `yaml:"orthodox_mode"`

	// Temperature is the sampling temperature passed to the model.
	// Zero means the built-in default of 0.7.
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the model's completion length.
	// Zero means the built-in default of 2000.
	MaxTokens int `yaml:"max_tokens"`

	// SystemPrompt is an optional persona prepended to every conversation.
	SystemPrompt string `yaml:"system_prompt"`
}

// DictionaryConfig holds settings for the terminology dictionary.
type DictionaryConfig struct {
	// Dir is the directory containing the *.jsonl term stores.
	Dir string `yaml:"dir"`

	// MinScore is the fuzzy-match threshold in [0, 100]. Terms scoring below
	// it are excluded from the prompt. Zero means the built-in default of 65.
	// This value is hot-reloadable; edits to the config file take effect on
	// the next message.
	MinScore float64 `yaml:"min_score"`

	// Weights tunes the composite similarity scorer. When nil, the scorer
	// uses token-set ratio only, matching the original matching behaviour.
	Weights *WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the relative weights of the four similarity
// sub-algorithms. They are normalised to sum 1 at scorer construction, so
// only their ratios matter.
type WeightsConfig struct {
	TokenSet  float64 `yaml:"token_set"`
	TokenSort float64 `yaml:"token_sort"`
	Partial   float64 `yaml:"partial"`
	Ratio     float64 `yaml:"ratio"`
}

// ScriptureConfig holds settings for the Bible passage service client.
type ScriptureConfig struct {
	// Endpoint is the passage service URL. Leave empty to use the built-in
	// default endpoint.
	Endpoint string `yaml:"endpoint"`

	// SourceLang is the language code for footnote and source-side passage
	// lookups (default "en").
	SourceLang string `yaml:"source_lang"`

	// TargetLang is the language code for target-side passage lookups in
	// Orthodox translation mode (default "hk").
	TargetLang string `yaml:"target_lang"`

	// TimeoutSeconds is the per-request timeout for passage fetches.
	// Zero means the built-in default of 60 seconds.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}
