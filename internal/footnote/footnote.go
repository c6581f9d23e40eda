// Package footnote turns parenthesised Bible citations in annotated text into
// numbered inline markers backed by resolved passage text.
package footnote

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/klambros/orthoglossa/internal/observe"
	"github.com/klambros/orthoglossa/internal/scripture"
)

// Fetcher resolves a parsed reference to passage text. *scripture.Client
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, ref scripture.Reference, lang string) (string, error)
}

// Footnote is one resolved citation. Index is the 1-based inline marker
// number.
type Footnote struct {
	Index     int
	Reference string
	Text      string
}

// fetchLimit bounds concurrent passage lookups per Process call.
const fetchLimit = 4

// Processor annotates text with footnote markers for every resolvable Bible
// citation.
type Processor struct {
	fetcher Fetcher
	lang    string
}

// Option is a functional option for configuring a [Processor].
type Option func(*Processor)

// WithLanguage sets the passage language fetched for footnotes. Default "en".
func WithLanguage(lang string) Option {
	return func(p *Processor) {
		p.lang = lang
	}
}

// NewProcessor creates a footnote processor backed by the given fetcher.
func NewProcessor(f Fetcher, opts ...Option) *Processor {
	p := &Processor{fetcher: f, lang: "en"}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process scans text for parenthesised citations, resolves each, and inserts
// a bracketed marker after the citation's first textual occurrence. Markers
// are numbered by position among the citations that resolved successfully:
// a citation that fails to parse or fetch gets no marker, no footnote entry,
// and does not consume an index.
//
// Passage lookups run concurrently; marker numbering and footnote ordering
// follow source order regardless of completion order. The only error returned
// is context cancellation; per-citation failures degrade to skips.
func (p *Processor) Process(ctx context.Context, text string) (string, []Footnote, error) {
	citations := scripture.ExtractReferences(text)
	if len(citations) == 0 {
		return text, nil, nil
	}

	texts := make([]string, len(citations))
	resolved := make([]bool, len(citations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, cit := range citations {
		g.Go(func() error {
			ref, ok := scripture.Parse(cit.Reference)
			if !ok {
				observe.Logger(gctx).Debug("skipping unparseable citation", "citation", cit.Reference)
				return nil
			}
			passage, err := p.fetcher.Fetch(gctx, ref, p.lang)
			if err != nil {
				// Already logged by the fetcher; the citation is skipped.
				return nil
			}
			texts[i] = passage
			resolved[i] = true
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return text, nil, err
	}

	processed := text
	var notes []Footnote
	for i, cit := range citations {
		if !resolved[i] {
			continue
		}
		marker := fmt.Sprintf("[%d]", len(notes)+1)
		processed = strings.Replace(processed, cit.Full, cit.Full+marker, 1)
		notes = append(notes, Footnote{
			Index:     len(notes) + 1,
			Reference: cit.Reference,
			Text:      texts[i],
		})
	}
	return processed, notes, nil
}

// Render formats footnotes as a block for appending below annotated text.
// Empty input renders to the empty string.
func Render(notes []Footnote) string {
	if len(notes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nFootnotes:\n")
	for _, n := range notes {
		fmt.Fprintf(&b, "[%d] %s: %s\n", n.Index, n.Reference, n.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
