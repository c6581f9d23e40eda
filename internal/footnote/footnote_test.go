package footnote_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/klambros/orthoglossa/internal/footnote"
	"github.com/klambros/orthoglossa/internal/scripture"
)

// fakeFetcher resolves passages from a fixed book-key table. Keys absent from
// the table fail with an error.
type fakeFetcher struct {
	passages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, ref scripture.Reference, _ string) (string, error) {
	if text, ok := f.passages[ref.BookKey]; ok {
		return text, nil
	}
	return "", errors.New("no such passage")
}

func TestProcess_TwoCitations(t *testing.T) {
	t.Parallel()

	p := footnote.NewProcessor(&fakeFetcher{passages: map[string]string{
		"1cor": "Charity suffereth long, and is kind.",
		"luke": "A certain man had two sons.",
	}})

	text := "Love is patient (1 Cor 13:4). The prodigal returned (Luke 15:11-32)."
	annotated, notes, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(notes) != 2 {
		t.Fatalf("got %d footnotes, want 2: %+v", len(notes), notes)
	}
	if notes[0].Index != 1 || notes[0].Reference != "1 Cor 13:4" {
		t.Errorf("first footnote = %+v", notes[0])
	}
	if notes[1].Index != 2 || notes[1].Reference != "Luke 15:11-32" {
		t.Errorf("second footnote = %+v", notes[1])
	}

	// Markers appear in source order, attached to their citations.
	first := strings.Index(annotated, "(1 Cor 13:4)[1]")
	second := strings.Index(annotated, "(Luke 15:11-32)[2]")
	if first < 0 || second < 0 || second < first {
		t.Errorf("markers missing or out of order in %q", annotated)
	}
}

func TestProcess_FailedFetchSkippedSilently(t *testing.T) {
	t.Parallel()

	// Only Luke resolves; the 1 Cor citation must not consume an index.
	p := footnote.NewProcessor(&fakeFetcher{passages: map[string]string{
		"luke": "A certain man had two sons.",
	}})

	text := "Love is patient (1 Cor 13:4). The prodigal returned (Luke 15:11-32)."
	annotated, notes, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(notes) != 1 {
		t.Fatalf("got %d footnotes, want 1: %+v", len(notes), notes)
	}
	if notes[0].Index != 1 || notes[0].Reference != "Luke 15:11-32" {
		t.Errorf("footnote = %+v, want Luke at index 1", notes[0])
	}
	if strings.Contains(annotated, "(1 Cor 13:4)[") {
		t.Errorf("failed citation received a marker: %q", annotated)
	}
	if !strings.Contains(annotated, "(Luke 15:11-32)[1]") {
		t.Errorf("resolved citation missing marker [1]: %q", annotated)
	}
}

func TestProcess_UnknownBookSkipped(t *testing.T) {
	t.Parallel()

	p := footnote.NewProcessor(&fakeFetcher{passages: map[string]string{
		"john": "For God so loved the world.",
	}})

	// The unknown book degrades to a fallback key the fetcher rejects, while
	// the real citation resolves normally.
	text := "As written (John 3:16), not as misquoted (Nowhere 0:0)."
	annotated, notes, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d footnotes, want 1", len(notes))
	}
	if !strings.Contains(annotated, "(John 3:16)[1]") {
		t.Errorf("annotated = %q", annotated)
	}
}

func TestProcess_NoCitations(t *testing.T) {
	t.Parallel()

	p := footnote.NewProcessor(&fakeFetcher{})
	text := "No citations here at all."
	annotated, notes, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if annotated != text {
		t.Errorf("text altered without citations: %q", annotated)
	}
	if notes != nil {
		t.Errorf("footnotes = %+v, want none", notes)
	}
}

func TestProcess_DuplicateCitationMarksFirstOccurrence(t *testing.T) {
	t.Parallel()

	p := footnote.NewProcessor(&fakeFetcher{passages: map[string]string{
		"john": "For God so loved the world.",
	}})

	text := "First (John 3:16) and again (John 3:16)."
	annotated, notes, err := p.Process(context.Background(), text)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// Both occurrences are distinct citations and both resolve.
	if len(notes) != 2 {
		t.Fatalf("got %d footnotes, want 2", len(notes))
	}
	// Marker insertion always targets the first textual occurrence.
	if !strings.HasPrefix(annotated, "First (John 3:16)[") {
		t.Errorf("first occurrence unmarked: %q", annotated)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	t.Parallel()

	p := footnote.NewProcessor(&fakeFetcher{passages: map[string]string{
		"john": "For God so loved the world.",
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := p.Process(ctx, "As written (John 3:16)."); err == nil {
		t.Fatal("Process succeeded with cancelled context, want error")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	if got := footnote.Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}

	out := footnote.Render([]footnote.Footnote{
		{Index: 1, Reference: "John 3:16", Text: "For God so loved the world."},
		{Index: 2, Reference: "1 Cor 13:4", Text: "Charity suffereth long."},
	})
	for _, want := range []string{"Footnotes:", "[1] John 3:16:", "[2] 1 Cor 13:4:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render output missing %q:\n%s", want, out)
		}
	}
}
