// Package chat holds the conversation state of the translation assistant.
//
// A [Session] threads the user's turns through the command processor and the
// configured LLM provider. The model sees the processed prompt (dictionary
// blocks, annotation instructions, footnoted text), while the stored history
// keeps the user's original message so later turns read naturally.
package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/klambros/orthoglossa/internal/command"
	"github.com/klambros/orthoglossa/internal/observe"
	"github.com/klambros/orthoglossa/pkg/provider/llm"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Reply is the outcome of a single conversation turn.
type Reply struct {
	// Result carries the command classification and the processed prompt
	// that was sent to the model.
	Result command.Result

	// Content is the model's answer.
	Content string

	// Usage reports token consumption for the turn, when the provider
	// supplies it.
	Usage llm.Usage
}

// Option is a functional option for configuring a [Session].
type Option func(*Session)

// WithTemperature sets the sampling temperature. Defaults to 0.7.
func WithTemperature(t float64) Option {
	return func(s *Session) {
		if t > 0 {
			s.temperature = t
		}
	}
}

// WithMaxTokens caps the completion length. Defaults to 2000.
func WithMaxTokens(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithSystemPrompt sets a persona prepended to every completion request.
func WithSystemPrompt(prompt string) Option {
	return func(s *Session) {
		s.systemPrompt = prompt
	}
}

// WithMetrics sets the metrics instance used for instrumentation. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is a single ordered conversation with the model.
// It is safe for concurrent use; turns are serialised so the history stays a
// strict alternation of user and assistant messages.
type Session struct {
	provider llm.Provider
	proc     *command.Processor
	metrics  *observe.Metrics

	temperature  float64
	maxTokens    int
	systemPrompt string

	mu      sync.Mutex
	history []llm.Message
}

// NewSession creates a conversation bound to the given provider and command
// processor.
func NewSession(provider llm.Provider, proc *command.Processor, opts ...Option) *Session {
	s := &Session{
		provider:    provider,
		proc:        proc,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Ask runs one conversation turn: the message is classified and expanded by
// the command processor, the processed prompt is sent to the model together
// with the prior history, and on success both the original message and the
// answer are appended to the history.
//
// A failed model call leaves the history unchanged, so the user can simply
// retry the same message.
func (s *Session) Ask(ctx context.Context, message string) (*Reply, error) {
	res := s.proc.Process(ctx, message)

	s.mu.Lock()
	msgs := make([]llm.Message, len(s.history), len(s.history)+1)
	copy(msgs, s.history)
	s.mu.Unlock()
	msgs = append(msgs, llm.Message{Role: "user", Content: res.Prompt})

	ctx, span := observe.StartSpan(ctx, "chat.Ask",
		trace.WithAttributes(observe.Attr("command", res.Kind.String())),
	)
	defer span.End()

	start := time.Now()
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Messages:     msgs,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
		SystemPrompt: s.systemPrompt,
	})
	s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		s.metrics.RecordProviderError(ctx, "llm", "complete")
		observe.Logger(ctx).Error("model completion failed",
			"command", res.Kind.String(), "err", err)
		return nil, fmt.Errorf("chat: completion: %w", err)
	}
	if resp == nil {
		s.metrics.RecordProviderError(ctx, "llm", "empty")
		return nil, fmt.Errorf("chat: provider returned no response")
	}

	s.mu.Lock()
	s.history = append(s.history,
		llm.Message{Role: "user", Content: message},
		llm.Message{Role: "assistant", Content: resp.Content},
	)
	s.mu.Unlock()

	return &Reply{Result: res, Content: resp.Content, Usage: resp.Usage}, nil
}

// Stream runs one conversation turn like [Ask], but writes the model's answer
// to w incrementally as tokens arrive. Providers without streaming support
// fall back to a single completion whose answer is written in one piece; in
// that case Usage is populated, otherwise it is zero.
//
// The history is only extended once the full answer has arrived, so a failed
// or cancelled stream leaves it unchanged even when partial output reached w.
func (s *Session) Stream(ctx context.Context, message string, w io.Writer) (*Reply, error) {
	if !s.provider.Capabilities().SupportsStreaming {
		reply, err := s.Ask(ctx, message)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, reply.Content); err != nil {
			return nil, fmt.Errorf("chat: write answer: %w", err)
		}
		return reply, nil
	}

	res := s.proc.Process(ctx, message)

	s.mu.Lock()
	msgs := make([]llm.Message, len(s.history), len(s.history)+1)
	copy(msgs, s.history)
	s.mu.Unlock()
	msgs = append(msgs, llm.Message{Role: "user", Content: res.Prompt})

	ctx, span := observe.StartSpan(ctx, "chat.Stream",
		trace.WithAttributes(observe.Attr("command", res.Kind.String())),
	)
	defer span.End()

	start := time.Now()
	chunks, err := s.provider.StreamCompletion(ctx, llm.CompletionRequest{
		Messages:     msgs,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
		SystemPrompt: s.systemPrompt,
	})
	if err != nil {
		s.metrics.RecordProviderError(ctx, "llm", "stream")
		observe.Logger(ctx).Error("model stream failed",
			"command", res.Kind.String(), "err", err)
		return nil, fmt.Errorf("chat: stream: %w", err)
	}

	var answer strings.Builder
	for chunk := range chunks {
		// Both providers surface a mid-stream failure as a final chunk
		// carrying the error text.
		if chunk.FinishReason == "error" {
			s.metrics.RecordProviderError(ctx, "llm", "stream")
			return nil, fmt.Errorf("chat: stream: %s", chunk.Text)
		}
		if chunk.Text == "" {
			continue
		}
		answer.WriteString(chunk.Text)
		if _, err := io.WriteString(w, chunk.Text); err != nil {
			return nil, fmt.Errorf("chat: write answer: %w", err)
		}
	}
	s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("chat: stream: %w", err)
	}

	s.mu.Lock()
	s.history = append(s.history,
		llm.Message{Role: "user", Content: message},
		llm.Message{Role: "assistant", Content: answer.String()},
	)
	s.mu.Unlock()

	return &Reply{Result: res, Content: answer.String()}, nil
}

// History returns a copy of the conversation so far, in order.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of stored messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Reset discards the conversation history.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
