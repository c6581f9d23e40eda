package command

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/klambros/orthoglossa/internal/dictionary"
	"github.com/klambros/orthoglossa/internal/footnote"
	"github.com/klambros/orthoglossa/internal/observe"
	"github.com/klambros/orthoglossa/internal/scripture"
)

// quoteRuneLimit bounds the length of an injected scripture quote. Longer
// quotes are truncated with an ellipsis to keep the prompt size in check.
const quoteRuneLimit = 150

// quoteFetchLimit bounds concurrent passage lookups during quote injection.
const quoteFetchLimit = 4

// Result is the outcome of processing one user message: the classification
// tag and the fully assembled prompt to send as the user turn. For
// [AddFootnotes] the resolved footnotes are carried alongside the rendered
// prompt.
type Result struct {
	Kind      Kind
	Prompt    string
	Footnotes []footnote.Footnote
}

// Processor assembles prompts from classified user messages. The dictionary,
// the fuzzy-match threshold, and the Orthodox-mode flag are swappable at
// runtime (last writer wins); everything else is fixed at construction.
type Processor struct {
	fetcher  footnote.Fetcher
	notes    *footnote.Processor
	metrics  *observe.Metrics
	orthodox atomic.Bool

	sourceLang string
	targetLang string

	dict     atomic.Pointer[dictionary.Dictionary]
	minScore atomic.Uint64 // float64 bits
}

// Option is a functional option for configuring a [Processor].
type Option func(*Processor)

// WithOrthodoxMode toggles the Orthodox translation context. Default off.
func WithOrthodoxMode(on bool) Option {
	return func(p *Processor) {
		p.orthodox.Store(on)
	}
}

// WithLanguages sets the passage languages fetched during quote injection:
// source for the term side, target for the translation side. Defaults "en"
// and "hk".
func WithLanguages(source, target string) Option {
	return func(p *Processor) {
		p.sourceLang = source
		p.targetLang = target
	}
}

// WithMinScore sets the initial fuzzy-match acceptance threshold. Default
// [dictionary.DefaultMinScore].
func WithMinScore(score float64) Option {
	return func(p *Processor) {
		p.minScore.Store(math.Float64bits(score))
	}
}

// WithMetrics sets the metrics instance used for instrumentation. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor creates a command processor over the given dictionary and
// passage fetcher.
func NewProcessor(dict *dictionary.Dictionary, fetcher footnote.Fetcher, opts ...Option) *Processor {
	p := &Processor{
		fetcher:    fetcher,
		sourceLang: "en",
		targetLang: "hk",
	}
	p.dict.Store(dict)
	p.minScore.Store(math.Float64bits(dictionary.DefaultMinScore))
	for _, o := range opts {
		o(p)
	}
	p.notes = footnote.NewProcessor(fetcher, footnote.WithLanguage(p.sourceLang))
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// SetDictionary swaps the terminology dictionary. Used as the reload hook of
// [dictionary.Watch].
func (p *Processor) SetDictionary(d *dictionary.Dictionary) {
	p.dict.Store(d)
}

// Dictionary returns the currently installed terminology dictionary.
func (p *Processor) Dictionary() *dictionary.Dictionary {
	return p.dict.Load()
}

// SetMinScore updates the fuzzy-match acceptance threshold for subsequent
// calls. Last writer wins.
func (p *Processor) SetMinScore(score float64) {
	p.minScore.Store(math.Float64bits(score))
}

// MinScore returns the current fuzzy-match acceptance threshold.
func (p *Processor) MinScore() float64 {
	return math.Float64frombits(p.minScore.Load())
}

// SetOrthodoxMode toggles the Orthodox translation context for subsequent
// calls. Last writer wins.
func (p *Processor) SetOrthodoxMode(on bool) {
	p.orthodox.Store(on)
}

// OrthodoxMode reports whether the Orthodox translation context is active.
func (p *Processor) OrthodoxMode() bool {
	return p.orthodox.Load()
}

// Process classifies message and assembles the prompt for its command kind.
// Augmentation is best-effort: lookup failures degrade to a less enriched
// prompt, never to an error. The returned prompt is never empty for a
// non-empty message.
func (p *Processor) Process(ctx context.Context, message string) Result {
	ctx, span := observe.StartSpan(ctx, "command.Process")
	defer span.End()

	kind, payload := Classify(message, p.orthodox.Load())
	p.metrics.RecordCommand(ctx, kind.String())

	switch kind {
	case Annotate:
		return p.annotate(payload)
	case AddFootnotes:
		return p.addFootnotes(ctx, payload)
	case TranslateOrthodox:
		return p.translateOrthodox(ctx, payload)
	case TranslateStandard:
		return p.translateStandard(ctx, message, payload)
	}
	return Result{Kind: Normal, Prompt: message}
}

func (p *Processor) annotate(payload string) Result {
	if payload == "" {
		return Result{Kind: Annotate, Prompt: bibleAnnotationInstruction + "\n\n" + annotateClarification}
	}
	return Result{Kind: Annotate, Prompt: bibleAnnotationInstruction + "\n\n" + payload}
}

func (p *Processor) addFootnotes(ctx context.Context, payload string) Result {
	if payload == "" {
		return Result{Kind: AddFootnotes, Prompt: footnotesClarification}
	}
	annotated, notes, err := p.notes.Process(ctx, payload)
	if err != nil {
		observe.Logger(ctx).Warn("footnote processing aborted", "err", err)
		return Result{Kind: AddFootnotes, Prompt: footnotesFailureInstruction}
	}
	return Result{
		Kind:      AddFootnotes,
		Prompt:    annotated + footnote.Render(notes),
		Footnotes: notes,
	}
}

func (p *Processor) translateOrthodox(ctx context.Context, payload string) Result {
	if payload == "" {
		return Result{Kind: TranslateOrthodox, Prompt: orthodoxTranslationInstruction + translateClarification}
	}

	matches := p.findMatches(ctx, payload)
	matches = append(matches, p.resolveQuotes(ctx, payload)...)
	dictBlock := dictionary.BuildPrompt(matches)

	return Result{
		Kind:   TranslateOrthodox,
		Prompt: orthodoxTranslationInstruction + dictBlock + "\n\n" + translatePayloadLead + "\n\n" + payload,
	}
}

func (p *Processor) translateStandard(ctx context.Context, message, payload string) Result {
	if payload == "" {
		return Result{Kind: TranslateStandard, Prompt: standardTranslationInstruction + "\n\n" + translateClarification}
	}

	matches := p.findMatches(ctx, payload)
	if len(matches) == 0 {
		// No specialised terms found; the message goes through untouched.
		return Result{Kind: TranslateStandard, Prompt: message}
	}
	return Result{
		Kind:   TranslateStandard,
		Prompt: standardTranslationInstruction + dictionary.BuildPrompt(matches) + "\n\n" + payload,
	}
}

func (p *Processor) findMatches(ctx context.Context, payload string) []dictionary.Match {
	matches := p.dict.Load().FindMatches(payload, p.MinScore())
	if n := len(matches); n > 0 {
		p.metrics.DictionaryMatches.Add(ctx, int64(n))
	}
	return matches
}

// resolveQuotes fetches source- and target-language renderings for each
// citation in payload and returns them as authoritative dictionary entries.
// A citation is dropped unless both renderings resolve.
func (p *Processor) resolveQuotes(ctx context.Context, payload string) []dictionary.Match {
	citations := scripture.ExtractReferences(payload)
	if len(citations) == 0 {
		return nil
	}

	type quotePair struct {
		source, target string
		ok             bool
	}
	pairs := make([]quotePair, len(citations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteFetchLimit)
	for i, cit := range citations {
		g.Go(func() error {
			ref, ok := scripture.Parse(cit.Reference)
			if !ok {
				return nil
			}
			source, err := p.fetcher.Fetch(gctx, ref, p.sourceLang)
			if err != nil {
				return nil
			}
			target, err := p.fetcher.Fetch(gctx, ref, p.targetLang)
			if err != nil {
				return nil
			}
			pairs[i] = quotePair{
				source: truncateQuote(source),
				target: truncateQuote(target),
				ok:     true,
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []dictionary.Match
	for i := range pairs {
		if pairs[i].ok {
			out = append(out, dictionary.Match{
				Term:         pairs[i].source,
				Translations: []string{pairs[i].target},
				Score:        100,
			})
		}
	}
	return out
}

// truncateQuote caps a quote at quoteRuneLimit runes, appending an ellipsis
// when cut.
func truncateQuote(quote string) string {
	runes := []rune(quote)
	if len(runes) <= quoteRuneLimit {
		return quote
	}
	return string(runes[:quoteRuneLimit]) + "…"
}
