// Command orthoglossa is an interactive Orthodox translation assistant. It
// reads chat turns from stdin, augments translation and annotation commands
// with terminology and scripture context, and prints the model's answers.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/klambros/orthoglossa/internal/chat"
	"github.com/klambros/orthoglossa/internal/command"
	"github.com/klambros/orthoglossa/internal/config"
	"github.com/klambros/orthoglossa/internal/dictionary"
	"github.com/klambros/orthoglossa/internal/health"
	"github.com/klambros/orthoglossa/internal/observe"
	"github.com/klambros/orthoglossa/internal/scripture"
	"github.com/klambros/orthoglossa/internal/similarity"
	"github.com/klambros/orthoglossa/pkg/provider/llm"
	"github.com/klambros/orthoglossa/pkg/provider/llm/anyllm"
	"github.com/klambros/orthoglossa/pkg/provider/llm/openai"
)

// openRouterBaseURL is the default endpoint for the "openrouter" provider.
const openRouterBaseURL = "https://openrouter.ai/api/v1"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	debug := flag.Bool("debug", false, "echo the processed prompt when it differs from the input")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "orthoglossa: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "orthoglossa: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := cfg.Server.LogLevel
	if *debug {
		level = config.LogDebug
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(level))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("orthoglossa starting",
		"config", *configPath,
		"log_level", level,
		"orthodox_mode", cfg.Chat.OrthodoxMode,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownOtel, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "orthoglossa",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── LLM provider ──────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	if cfg.Providers.LLM.Name == "" {
		fmt.Fprintln(os.Stderr, "orthoglossa: providers.llm is not configured")
		return 1
	}
	provider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to create LLM provider",
			"name", cfg.Providers.LLM.Name, "err", err)
		return 1
	}
	slog.Info("provider created",
		"name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)

	// ── Dictionary ────────────────────────────────────────────────────────────
	var dictOpts []dictionary.Option
	if w := cfg.Dictionary.Weights; w != nil {
		dictOpts = append(dictOpts, dictionary.WithScorer(
			similarity.New(similarity.WithWeights(w.TokenSet, w.TokenSort, w.Partial, w.Ratio)),
		))
	}

	// ── Passage client ────────────────────────────────────────────────────────
	var clientOpts []scripture.ClientOption
	if cfg.Scripture.Endpoint != "" {
		clientOpts = append(clientOpts, scripture.WithEndpoint(cfg.Scripture.Endpoint))
	}
	if cfg.Scripture.TimeoutSeconds > 0 {
		clientOpts = append(clientOpts, scripture.WithTimeout(time.Duration(cfg.Scripture.TimeoutSeconds)*time.Second))
	}
	clientOpts = append(clientOpts, scripture.WithMetrics(metrics))
	passages := scripture.NewClient(clientOpts...)

	// ── Command processor ─────────────────────────────────────────────────────
	procOpts := []command.Option{
		command.WithOrthodoxMode(cfg.Chat.OrthodoxMode),
		command.WithMetrics(metrics),
	}
	if cfg.Scripture.SourceLang != "" || cfg.Scripture.TargetLang != "" {
		source, target := cfg.Scripture.SourceLang, cfg.Scripture.TargetLang
		if source == "" {
			source = "en"
		}
		if target == "" {
			target = "hk"
		}
		procOpts = append(procOpts, command.WithLanguages(source, target))
	}
	if cfg.Dictionary.MinScore > 0 {
		procOpts = append(procOpts, command.WithMinScore(cfg.Dictionary.MinScore))
	}
	proc := command.NewProcessor(dictionary.Load(cfg.Dictionary.Dir, dictOpts...), passages, procOpts...)

	// Hot reload of the terminology stores.
	if cfg.Dictionary.Dir != "" {
		dw, err := dictionary.Watch(cfg.Dictionary.Dir, func(d *dictionary.Dictionary) {
			proc.SetDictionary(d)
			metrics.DictionaryReloads.Add(ctx, 1)
			metrics.DictionaryTerms.Record(ctx, int64(d.Len()))
			slog.Info("dictionary loaded", "dir", cfg.Dictionary.Dir, "terms", d.Len())
		}, dictOpts...)
		if err != nil {
			slog.Error("failed to watch dictionary directory",
				"dir", cfg.Dictionary.Dir, "err", err)
			return 1
		}
		defer dw.Close()
	}

	// Hot reload of runtime-tunable config: threshold, mode, log level.
	cw, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.MinScoreChanged {
			proc.SetMinScore(d.NewMinScore)
			slog.Info("fuzzy-match threshold updated", "min_score", d.NewMinScore)
		}
		if d.OrthodoxModeChanged {
			proc.SetOrthodoxMode(d.NewOrthodoxMode)
			slog.Info("orthodox mode updated", "enabled", d.NewOrthodoxMode)
		}
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.DictionaryDirChanged {
			slog.Warn("dictionary.dir changed — restart to watch the new directory")
		}
	})
	if err != nil {
		slog.Error("failed to watch config file", "err", err)
		return 1
	}
	defer cw.Stop()

	// ── Metrics / health listener ─────────────────────────────────────────────
	if cfg.Server.MetricsAddr != "" {
		srv := newMetricsServer(cfg.Server.MetricsAddr, metrics, proc)
		go func() {
			slog.Info("metrics listener started", "addr", cfg.Server.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics listener error", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("metrics listener shutdown error", "err", err)
			}
		}()
	}

	// ── Chat session ──────────────────────────────────────────────────────────
	session := chat.NewSession(provider, proc,
		chat.WithTemperature(cfg.Chat.Temperature),
		chat.WithMaxTokens(cfg.Chat.MaxTokens),
		chat.WithSystemPrompt(cfg.Chat.SystemPrompt),
		chat.WithMetrics(metrics),
	)

	// ── REPL ──────────────────────────────────────────────────────────────────
	printBanner(cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, session, *debug)
	}()

	select {
	case <-ctx.Done():
		fmt.Println()
		slog.Info("shutdown signal received, stopping…")
	case <-done:
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in LLM provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// openrouter goes through the OpenAI-compatible client with the OpenRouter
	// gateway as its base URL.
	reg.RegisterLLM("openrouter", func(entry config.ProviderEntry) (llm.Provider, error) {
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}
		return openai.New(entry.APIKey, entry.Model, openai.WithBaseURL(baseURL))
	})
}

// ── Metrics / health listener ─────────────────────────────────────────────────

// newMetricsServer builds the HTTP server exposing /metrics, /healthz, and
// /readyz, wrapped in the tracing middleware.
func newMetricsServer(addr string, metrics *observe.Metrics, proc *command.Processor) *http.Server {
	checks := health.New(health.Checker{
		Name: "dictionary",
		Check: func(context.Context) error {
			if proc.Dictionary().Len() == 0 {
				return errors.New("no terminology entries loaded")
			}
			return nil
		},
	})

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	checks.Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── REPL ──────────────────────────────────────────────────────────────────────

func printBanner(cfg *config.Config) {
	mode := "standard"
	if cfg.Chat.OrthodoxMode {
		mode = "orthodox"
	}
	fmt.Printf("orthoglossa — %s / %s (%s translation mode)\n",
		cfg.Providers.LLM.Name, cfg.Providers.LLM.Model, mode)
	fmt.Println(`Try "translate: …", "annotate: …", or "add footnotes: …". /reset clears the chat, Ctrl+D exits.`)
}

// runREPL reads turns from stdin until EOF or context cancellation.
func runREPL(ctx context.Context, session *chat.Session, debug bool) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/reset" {
			session.Reset()
			fmt.Println("conversation cleared")
			continue
		}

		// Tokens print as they arrive; the turn footer follows the answer.
		reply, err := session.Stream(ctx, line, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v — the message was not recorded, try again\n", err)
			continue
		}
		fmt.Println()

		if reply.Result.Kind != command.Normal {
			fmt.Printf("[%s]\n", reply.Result.Kind)
		}
		if debug && reply.Result.Prompt != line {
			fmt.Println("--- processed prompt ---")
			fmt.Println(reply.Result.Prompt)
			fmt.Println("------------------------")
		}
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
