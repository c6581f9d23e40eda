package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klambros/orthoglossa/internal/config"
)

const watcherValidYAML = `
server:
  log_level: info
providers:
  llm:
    name: openai
dictionary:
  dir: ./stores
  min_score: 65
`

const watcherUpdatedYAML = `
server:
  log_level: debug
providers:
  llm:
    name: openai
dictionary:
  dir: ./stores
  min_score: 80
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

// startWatcher writes content to a fresh config file and starts a
// fast-polling watcher over it, returning both.
func startWatcher(t *testing.T, content string, onChange func(old, new *config.Config)) (*config.Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	rewrite(t, path, content)

	w, err := config.NewWatcher(path, onChange, config.WithInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, path
}

func rewrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	w, _ := startWatcher(t, watcherValidYAML, nil)

	cfg := w.Current()
	if cfg == nil {
		t.Fatal("Current() returned nil after initial load")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Dictionary.MinScore != 65 {
		t.Errorf("min_score = %v, want 65", cfg.Dictionary.MinScore)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	type change struct{ old, new *config.Config }
	changes := make(chan change, 1)

	w, path := startWatcher(t, watcherValidYAML, func(old, new *config.Config) {
		select {
		case changes <- change{old, new}:
		default:
		}
	})

	time.Sleep(100 * time.Millisecond)
	rewrite(t, path, watcherUpdatedYAML)

	var got change
	select {
	case got = <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("change callback not invoked within timeout")
	}

	if got.old.Dictionary.MinScore != 65 {
		t.Errorf("old min_score = %v, want 65", got.old.Dictionary.MinScore)
	}
	if got.new.Dictionary.MinScore != 80 {
		t.Errorf("new min_score = %v, want 80", got.new.Dictionary.MinScore)
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogDebug {
		t.Errorf("Current() log_level = %q, want %q", cur.Server.LogLevel, config.LogDebug)
	}
}

func TestWatcher_InvalidFileKeepsOldConfig(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	w, path := startWatcher(t, watcherValidYAML, func(_, _ *config.Config) {
		calls.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	rewrite(t, path, watcherInvalidYAML)
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback fired %d times for an invalid config, want 0", n)
	}
	if cur := w.Current(); cur.Server.LogLevel != config.LogInfo {
		t.Errorf("Current() log_level = %q, want the pre-change %q", cur.Server.LogLevel, config.LogInfo)
	}
}

func TestWatcher_InitialLoadFails(t *testing.T) {
	t.Parallel()

	if _, err := config.NewWatcher("/nonexistent/path.yaml", nil); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	w, _ := startWatcher(t, watcherValidYAML, nil)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}

func TestWatcher_TouchWithoutContentChange(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, path := startWatcher(t, watcherValidYAML, func(_, _ *config.Config) {
		calls.Add(1)
	})

	time.Sleep(100 * time.Millisecond)
	now := time.Now().Add(time.Second)
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("touch: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback fired %d times for a touch-only change, want 0", n)
	}
}
