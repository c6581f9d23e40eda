// Package dictionary loads the Orthodox terminology store and matches free
// text against it.
//
// The store is a directory of UTF-8 .jsonl files where every non-empty line is
// a single-key JSON object mapping a source-language term to one target
// translation:
//
//	{"Theotokos": "上帝之母"}
//
// Repeated terms across lines or files accumulate a deduplicated translation
// list. Malformed lines are skipped, an unreadable store yields an empty
// dictionary; loading is never fatal (augmentation is best-effort).
//
// [Dictionary.FindMatches] runs three strategies per input sentence, in
// priority order: direct substring (score 100), word-set (score 90, multi-word
// terms only), and fuzzy token-set similarity against a caller-supplied
// threshold. A term is reported at most once per query with the best score it
// achieved anywhere.
package dictionary

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klambros/orthoglossa/internal/similarity"
)

const (
	directMatchScore  = 100
	wordSetMatchScore = 90
)

// DefaultMinScore is the fuzzy-match acceptance threshold used when the
// caller has no configured value.
const DefaultMinScore = 65

// Entry is one loaded term with its translations. Translations preserve
// insertion order and contain no duplicates; a loaded entry always has at
// least one translation.
type Entry struct {
	Term         string
	Translations []string
}

// Match is a single term found in a query text.
type Match struct {
	Term         string
	Translations []string
	Score        float64
}

// Option is a functional option for configuring a [Dictionary].
type Option func(*Dictionary)

// WithScorer sets the similarity scorer used by the fuzzy strategy. The
// default scorer weights the token-set ratio alone, which is the best fit for
// finding a short term inside a longer sentence; callers with tuned
// per-algorithm weights pass their own scorer here.
func WithScorer(s *similarity.Scorer) Option {
	return func(d *Dictionary) {
		d.scorer = s
	}
}

// Dictionary is the in-memory terminology table. It is read-only after
// [Load] and safe for concurrent use.
type Dictionary struct {
	scorer  *similarity.Scorer
	entries []Entry
	index   map[string]int // lowercased term → position in entries
}

// Load reads every *.jsonl file in dir and builds a [Dictionary]. Files are
// read in lexical order so that translation ordering is deterministic.
//
// Load never fails: an unreadable directory or file is logged and skipped,
// and the returned dictionary simply holds whatever could be read (possibly
// nothing).
func Load(dir string, opts ...Option) *Dictionary {
	d := &Dictionary{
		scorer: similarity.New(similarity.WithWeights(1, 0, 0, 0)),
		index:  make(map[string]int),
	}
	for _, o := range opts {
		o(d)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		slog.Warn("dictionary: cannot scan store directory", "dir", dir, "err", err)
		return d
	}
	if len(files) == 0 {
		slog.Warn("dictionary: no .jsonl files found in store directory", "dir", dir)
		return d
	}
	sort.Strings(files)

	for _, file := range files {
		n, err := d.loadFile(file)
		if err != nil {
			slog.Warn("dictionary: skipping unreadable store file", "file", file, "err", err)
			continue
		}
		slog.Debug("dictionary: loaded store file", "file", file, "records", n)
	}

	slog.Info("dictionary loaded", "terms", len(d.entries), "files", len(files))
	return d
}

// loadFile reads one .jsonl store file into the dictionary and returns the
// number of records ingested.
func (d *Dictionary) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	records := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var record map[string]string
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			// Malformed lines are skipped, not fatal.
			continue
		}
		for term, translation := range record {
			d.add(strings.TrimSpace(term), strings.TrimSpace(translation))
			records++
		}
	}
	return records, sc.Err()
}

// add inserts or extends a term. Duplicate translations are suppressed; the
// first spelling of a term wins as the display key.
func (d *Dictionary) add(term, translation string) {
	if term == "" || translation == "" {
		return
	}
	key := strings.ToLower(term)
	if i, ok := d.index[key]; ok {
		for _, t := range d.entries[i].Translations {
			if t == translation {
				return
			}
		}
		d.entries[i].Translations = append(d.entries[i].Translations, translation)
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Term: term, Translations: []string{translation}})
}

// Len returns the number of distinct terms.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Entries returns the loaded entries in insertion order. The returned slice
// must not be modified.
func (d *Dictionary) Entries() []Entry {
	return d.entries
}

// Lookup returns the translations for term, matched case-insensitively.
func (d *Dictionary) Lookup(term string) ([]string, bool) {
	i, ok := d.index[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return nil, false
	}
	return d.entries[i].Translations, true
}

// FindMatches scans text for dictionary terms and returns every term found,
// sorted by descending score (insertion order breaks ties). minScore is the
// fuzzy-strategy acceptance threshold in [0,100]; callers thread their current
// configured value through explicitly.
//
// The text is split into sentences on `.!?`; each sentence is scanned with all
// three strategies. A term appears at most once in the result, carrying the
// highest score it achieved across all sentences and strategies.
func (d *Dictionary) FindMatches(text string, minScore float64) []Match {
	if len(d.entries) == 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	best := make(map[string]float64) // lowercased term → best score
	for _, sentence := range splitSentences(text) {
		d.scanSentence(sentence, minScore, best)
	}
	if len(best) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(best))
	for _, e := range d.entries {
		score, ok := best[strings.ToLower(e.Term)]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Term:         e.Term,
			Translations: e.Translations,
			Score:        score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// scanSentence applies the three matching strategies to one sentence,
// recording per-term scores into best (keeping the maximum seen).
func (d *Dictionary) scanSentence(sentence string, minScore float64, best map[string]float64) {
	sentenceLower := strings.ToLower(sentence)
	sentenceWords := wordSet(sentence)

	matched := make(map[string]struct{}, 4) // terms matched in this sentence

	// Strategy 1: direct substring match.
	for _, e := range d.entries {
		key := strings.ToLower(e.Term)
		if strings.Contains(sentenceLower, key) {
			matched[key] = struct{}{}
			record(best, key, directMatchScore)
		}
	}

	// Strategy 2: word-set match — every word of a multi-word term appears
	// somewhere in the sentence, in any order.
	for _, e := range d.entries {
		key := strings.ToLower(e.Term)
		if _, done := matched[key]; done {
			continue
		}
		termWords := strings.Fields(similarity.Normalize(e.Term))
		if len(termWords) < 2 {
			continue
		}
		if containsAll(sentenceWords, termWords) {
			matched[key] = struct{}{}
			record(best, key, wordSetMatchScore)
		}
	}

	// Strategy 3: fuzzy similarity against the threshold.
	for _, e := range d.entries {
		key := strings.ToLower(e.Term)
		if _, done := matched[key]; done {
			continue
		}
		if score := d.scorer.Score(e.Term, sentence); score >= minScore {
			record(best, key, score)
		}
	}
}

// record keeps the maximum score per term.
func record(best map[string]float64, key string, score float64) {
	if prev, ok := best[key]; !ok || score > prev {
		best[key] = score
	}
}

// splitSentences splits text on sentence-ending punctuation, trimming and
// discarding empty fragments.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// wordSet returns the set of normalised words in s.
func wordSet(s string) map[string]struct{} {
	words := strings.Fields(similarity.Normalize(s))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// containsAll reports whether every word in words is present in set.
func containsAll(set map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
