// Package scripture parses Bible citations and fetches passage text from a
// pericope service.
//
// Citations use the common "Book C:V" or "Book C:V-V" notation, optionally
// wrapped in parentheses. Book names are normalised through an abbreviation
// table covering ordinal books in both Arabic ("1 Cor") and Roman
// ("I Corinthians") styles; unknown books degrade to a lowercased,
// space-stripped key so the passage service gets a chance to resolve them.
package scripture

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Reference is a parsed Bible citation.
type Reference struct {
	// Raw is the citation text as parsed, without surrounding parentheses.
	Raw string

	// BookKey is the passage-service book identifier, e.g. "1cor".
	BookKey string

	Chapter    int
	VerseStart int

	// VerseEnd equals VerseStart for single-verse citations.
	VerseEnd int
}

// WhereExpr renders the verse selection clause the passage service expects.
func (r Reference) WhereExpr() string {
	return fmt.Sprintf("chapter=%d AND verse>=%d AND verse<=%d", r.Chapter, r.VerseStart, r.VerseEnd)
}

func (r Reference) String() string {
	return r.Raw
}

// bookKeys maps lowercased book names and abbreviations to passage-service
// book identifiers. Ordinal books carry all three notational styles.
var bookKeys = map[string]string{
	"1 corinthians": "1cor", "1 cor": "1cor", "i cor": "1cor", "i corinthians": "1cor",
	"2 corinthians": "2cor", "2 cor": "2cor", "ii cor": "2cor", "ii corinthians": "2cor",
	"1 thessalonians": "1thess", "1 thess": "1thess", "i thess": "1thess", "i thessalonians": "1thess",
	"2 thessalonians": "2thess", "2 thess": "2thess", "ii thess": "2thess", "ii thessalonians": "2thess",
	"1 timothy": "1tim", "1 tim": "1tim", "i tim": "1tim", "i timothy": "1tim",
	"2 timothy": "2tim", "2 tim": "2tim", "ii tim": "2tim", "ii timothy": "2tim",
	"1 peter": "1pet", "1 pet": "1pet", "i pet": "1pet", "i peter": "1pet",
	"2 peter": "2pet", "2 pet": "2pet", "ii pet": "2pet", "ii peter": "2pet",
	"1 john": "1john", "1 jn": "1john", "i jn": "1john", "i john": "1john",
	"2 john": "2john", "2 jn": "2john", "ii jn": "2john", "ii john": "2john",
	"3 john": "3john", "3 jn": "3john", "iii jn": "3john", "iii john": "3john",
	"1 kings": "1kings", "1 kgs": "1kings", "i kgs": "1kings", "i kings": "1kings",
	"2 kings": "2kings", "2 kgs": "2kings", "ii kgs": "2kings", "ii kings": "2kings",
	"1 samuel": "1sam", "1 sam": "1sam", "i sam": "1sam", "i samuel": "1sam",
	"2 samuel": "2sam", "2 sam": "2sam", "ii sam": "2sam", "ii samuel": "2sam",
	"1 chronicles": "1chron", "1 chron": "1chron", "i chron": "1chron", "i chronicles": "1chron",
	"2 chronicles": "2chron", "2 chron": "2chron", "ii chron": "2chron", "ii chronicles": "2chron",
	"matthew": "matthew", "mark": "mark", "luke": "luke", "john": "john",
	"acts": "acts", "romans": "rom", "galatians": "gal", "ephesians": "eph",
	"philippians": "phil", "colossians": "col", "titus": "titus", "philemon": "philem",
	"hebrews": "heb", "james": "james", "jude": "jude", "revelation": "rev",
	"genesis": "gen", "exodus": "exod", "leviticus": "lev", "numbers": "num",
	"deuteronomy": "deut", "joshua": "josh", "judges": "judg", "ruth": "ruth",
	"ezra": "ezra", "nehemiah": "neh", "esther": "esth", "job": "job",
	"psalms": "ps", "psalm": "ps", "proverbs": "prov", "ecclesiastes": "eccl",
	"song of solomon": "song", "isaiah": "isa", "jeremiah": "jer", "lamentations": "lam",
	"ezekiel": "ezek", "daniel": "dan", "hosea": "hos", "joel": "joel",
	"amos": "amos", "obadiah": "obad", "jonah": "jonah", "micah": "mic",
	"nahum": "nah", "habakkuk": "hab", "zephaniah": "zeph", "haggai": "hag",
	"zechariah": "zech", "malachi": "mal",
}

// refPattern matches "Book C:V" with an optional "-V" range, tolerating
// variable whitespace around the separators. Anchored at the start so that
// leading garbage fails the parse instead of being swallowed into the book
// name.
var refPattern = regexp.MustCompile(`^([\w\s]+?)\s+(\d+)\s*:\s*(\d+)(?:\s*-\s*(\d+))?`)

// Parse parses a Bible citation such as "John 1:2-5" or "(1 Cor 13:4)".
// Surrounding parentheses are stripped before matching. Returns false when
// the text does not follow the "Book chapter:verse" shape.
func Parse(citation string) (Reference, bool) {
	raw := strings.TrimSpace(citation)
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
	}

	m := refPattern.FindStringSubmatch(raw)
	if m == nil {
		return Reference{}, false
	}

	book := strings.ToLower(strings.TrimSpace(m[1]))
	key, ok := bookKeys[book]
	if !ok {
		// Unknown books pass through space-stripped; the passage service is
		// the authority on what exists.
		key = strings.ReplaceAll(book, " ", "")
	}

	chapter, _ := strconv.Atoi(m[2])
	start, _ := strconv.Atoi(m[3])
	end := start
	if m[4] != "" {
		end, _ = strconv.Atoi(m[4])
	}

	return Reference{
		Raw:        raw,
		BookKey:    key,
		Chapter:    chapter,
		VerseStart: start,
		VerseEnd:   end,
	}, true
}

// Citation is one parenthesised Bible reference located in a larger text.
type Citation struct {
	// Reference is the citation text without parentheses, e.g. "1 Cor 13:4".
	Reference string

	// Full is the matched text including parentheses. Footnote processing
	// uses it to anchor marker insertion.
	Full string
}

// citationPattern matches parenthesised citations such as "(John 3:16)" or
// "(1 Cor 13 : 4 - 7)" embedded in running text.
var citationPattern = regexp.MustCompile(`\(([\w\s]+?\s+\d+\s*:\s*\d+(?:\s*-\s*\d+)?)\)`)

// ExtractReferences returns every parenthesised Bible citation in text, in
// order of appearance. The citations are located, not validated; callers pass
// each through [Parse].
func ExtractReferences(text string) []Citation {
	var refs []Citation
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		refs = append(refs, Citation{Reference: m[1], Full: m[0]})
	}
	return refs
}
