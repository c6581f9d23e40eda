package config_test

import (
	"testing"

	"github.com/klambros/orthoglossa/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server:     config.ServerConfig{LogLevel: config.LogInfo},
		Chat:       config.ChatConfig{OrthodoxMode: true},
		Dictionary: config.DictionaryConfig{Dir: "./stores", MinScore: 65},
	}
	d := config.Diff(cfg, cfg)
	if d.Changed() {
		t.Errorf("expected no changes for identical configs, got %+v", d)
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q, want %q", d.NewLogLevel, config.LogDebug)
	}
}

func TestDiff_MinScoreChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Dictionary: config.DictionaryConfig{MinScore: 65}}
	new := &config.Config{Dictionary: config.DictionaryConfig{MinScore: 80}}

	d := config.Diff(old, new)
	if !d.MinScoreChanged {
		t.Fatal("expected MinScoreChanged=true")
	}
	if d.NewMinScore != 80 {
		t.Errorf("NewMinScore: got %v, want 80", d.NewMinScore)
	}
}

func TestDiff_OrthodoxModeChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Chat: config.ChatConfig{OrthodoxMode: false}}
	new := &config.Config{Chat: config.ChatConfig{OrthodoxMode: true}}

	d := config.Diff(old, new)
	if !d.OrthodoxModeChanged {
		t.Fatal("expected OrthodoxModeChanged=true")
	}
	if !d.NewOrthodoxMode {
		t.Error("NewOrthodoxMode: got false, want true")
	}
}

func TestDiff_DictionaryDirChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Dictionary: config.DictionaryConfig{Dir: "./stores"}}
	new := &config.Config{Dictionary: config.DictionaryConfig{Dir: "./other"}}

	d := config.Diff(old, new)
	if !d.DictionaryDirChanged {
		t.Fatal("expected DictionaryDirChanged=true")
	}
}

func TestDiff_UntrackedFieldsIgnored(t *testing.T) {
	t.Parallel()
	old := &config.Config{Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Model: "gpt-4o"}}}
	new := &config.Config{Providers: config.ProvidersConfig{LLM: config.ProviderEntry{Model: "gpt-4o-mini"}}}

	d := config.Diff(old, new)
	if d.Changed() {
		t.Errorf("provider model changes need a restart, not a diff flag: %+v", d)
	}
}
