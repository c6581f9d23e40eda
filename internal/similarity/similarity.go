// Package similarity implements the composite string-similarity scorer used by
// the terminology dictionary. A [Scorer] combines four sub-algorithms into one
// score in [0,100]:
//
//  1. Token-set ratio — order- and duplicate-insensitive word overlap.
//  2. Token-sort ratio — similarity after sorting the words of both strings.
//  3. Partial ratio — best alignment of the shorter string inside the longer
//     one (handles fragments).
//  4. Plain ratio — full-string, edit-distance based similarity.
//
// The per-algorithm weights are normalised to sum to 1 at construction, so a
// weight of 0 disables an algorithm entirely. Before scoring, both inputs are
// normalised: honorific abbreviations common in liturgical texts (St., Fr.,
// Ven., …) are expanded, the text is case-folded, and every non-alphanumeric
// rune becomes a word boundary.
//
// Edit distances come from [matchr.Levenshtein]. A Scorer is read-only after
// construction and safe for concurrent use.
package similarity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// Default sub-algorithm weights, matching the dictionary's tuning: the two
// token-based ratios dominate because terminology rarely appears verbatim.
const (
	defaultTokenSetWeight  = 0.3
	defaultTokenSortWeight = 0.3
	defaultPartialWeight   = 0.2
	defaultRatioWeight     = 0.2
)

// honorifics maps abbreviated honorifics to their expanded forms. Applied
// case-insensitively before scoring so that "St. Basil" and "Saint Basil"
// compare as equal.
var honorifics = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bSt\.`), "Saint"},
	{regexp.MustCompile(`(?i)\bBl\.`), "Blessed"},
	{regexp.MustCompile(`(?i)\bVen\.`), "Venerable"},
	{regexp.MustCompile(`(?i)\bFr\.`), "Father"},
	{regexp.MustCompile(`(?i)\bMt\.`), "Mount"},
	{regexp.MustCompile(`(?i)\bMgr\.`), "Monsignor"},
}

// nonAlnum matches every run of characters that is neither a letter nor a
// digit. Used to turn punctuation into word boundaries during normalisation.
var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Option is a functional option for configuring a [Scorer].
type Option func(*Scorer)

// WithWeights sets the four sub-algorithm weights. All weights must be
// non-negative; they are normalised to sum to 1 by [New]. When every weight is
// zero the defaults are kept.
func WithWeights(tokenSet, tokenSort, partial, ratio float64) Option {
	return func(s *Scorer) {
		s.tokenSetWeight = tokenSet
		s.tokenSortWeight = tokenSort
		s.partialWeight = partial
		s.ratioWeight = ratio
	}
}

// Scorer computes composite similarity scores. All methods are safe for
// concurrent use — the Scorer is read-only after construction.
type Scorer struct {
	tokenSetWeight  float64
	tokenSortWeight float64
	partialWeight   float64
	ratioWeight     float64
}

// New returns a [Scorer] configured with the supplied options. Weights are
// normalised so their sum is 1.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		tokenSetWeight:  defaultTokenSetWeight,
		tokenSortWeight: defaultTokenSortWeight,
		partialWeight:   defaultPartialWeight,
		ratioWeight:     defaultRatioWeight,
	}
	for _, o := range opts {
		o(s)
	}

	total := s.tokenSetWeight + s.tokenSortWeight + s.partialWeight + s.ratioWeight
	if total <= 0 {
		s.tokenSetWeight = defaultTokenSetWeight
		s.tokenSortWeight = defaultTokenSortWeight
		s.partialWeight = defaultPartialWeight
		s.ratioWeight = defaultRatioWeight
		total = 1
	}
	s.tokenSetWeight /= total
	s.tokenSortWeight /= total
	s.partialWeight /= total
	s.ratioWeight /= total

	return s
}

// Score returns the weighted composite similarity of term and text in [0,100].
func (s *Scorer) Score(term, text string) float64 {
	termClean := Normalize(term)
	textClean := Normalize(text)

	return TokenSetRatio(termClean, textClean)*s.tokenSetWeight +
		TokenSortRatio(termClean, textClean)*s.tokenSortWeight +
		PartialRatio(termClean, textClean)*s.partialWeight +
		Ratio(termClean, textClean)*s.ratioWeight
}

// Normalize prepares a string for comparison: honorific abbreviations are
// expanded, the result is lowercased, and runs of non-alphanumeric characters
// collapse into single spaces.
func Normalize(text string) string {
	for _, h := range honorifics {
		text = h.pattern.ReplaceAllString(text, h.replacement)
	}
	text = strings.ToLower(text)
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Ratio is the plain edit-distance similarity of a and b in [0,100]:
// 100 * (1 - distance/maxLen). Two empty strings score 0, never a division
// fault.
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	dist := matchr.Levenshtein(a, b)
	return 100 * (1 - float64(dist)/float64(maxLen))
}

// PartialRatio slides the shorter string across the longer one and returns the
// best windowed [Ratio]. It handles the case where one string is a fragment of
// the other: PartialRatio("liturgy", "the divine liturgy began") is high even
// though the full-string ratio is low.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == len(longer) {
		return Ratio(string(shorter), string(longer))
	}

	best := 0.0
	window := len(shorter)
	for i := 0; i+window <= len(longer); i++ {
		score := Ratio(string(shorter), string(longer[i:i+window]))
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// TokenSortRatio compares the two strings after alphabetically sorting their
// whitespace-separated tokens, making it insensitive to word order.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the two strings on their token sets. The shared
// tokens form a common prefix for both comparison strings, so strings that
// differ only by extra words still score high; identical token sets score 100
// regardless of order and duplicates.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	sectJoined := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(sectJoined + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sectJoined + " " + strings.Join(onlyB, " "))

	best := Ratio(combinedA, combinedB)
	if sectJoined != "" {
		if s := Ratio(sectJoined, combinedA); s > best {
			best = s
		}
		if s := Ratio(sectJoined, combinedB); s > best {
			best = s
		}
	}
	return best
}

// sortedTokens returns the whitespace-separated tokens of s, sorted and
// re-joined with single spaces.
func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSet returns the set of distinct whitespace-separated tokens in s.
func tokenSet(s string) map[string]struct{} {
	tokens := strings.Fields(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
