package scripture_test

import (
	"testing"

	"github.com/klambros/orthoglossa/internal/scripture"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want scripture.Reference
	}{
		{
			in: "John 1:2-5",
			want: scripture.Reference{
				Raw: "John 1:2-5", BookKey: "john", Chapter: 1, VerseStart: 2, VerseEnd: 5,
			},
		},
		{
			in: "Matthew 7:21",
			want: scripture.Reference{
				Raw: "Matthew 7:21", BookKey: "matthew", Chapter: 7, VerseStart: 21, VerseEnd: 21,
			},
		},
		{
			in: "1 Corinthians 13:4",
			want: scripture.Reference{
				Raw: "1 Corinthians 13:4", BookKey: "1cor", Chapter: 13, VerseStart: 4, VerseEnd: 4,
			},
		},
		{
			in: "I Corinthians 13:4-7",
			want: scripture.Reference{
				Raw: "I Corinthians 13:4-7", BookKey: "1cor", Chapter: 13, VerseStart: 4, VerseEnd: 7,
			},
		},
		{
			in: "1 Cor 13:4",
			want: scripture.Reference{
				Raw: "1 Cor 13:4", BookKey: "1cor", Chapter: 13, VerseStart: 4, VerseEnd: 4,
			},
		},
		{
			// Parentheses are stripped before matching.
			in: "(Psalm 23:1)",
			want: scripture.Reference{
				Raw: "Psalm 23:1", BookKey: "ps", Chapter: 23, VerseStart: 1, VerseEnd: 1,
			},
		},
		{
			// Variable whitespace around the separators.
			in: "Luke 15 : 11 - 32",
			want: scripture.Reference{
				Raw: "Luke 15 : 11 - 32", BookKey: "luke", Chapter: 15, VerseStart: 11, VerseEnd: 32,
			},
		},
		{
			// Unknown books degrade to a space-stripped key.
			in: "Some Writing 3:2",
			want: scripture.Reference{
				Raw: "Some Writing 3:2", BookKey: "somewriting", Chapter: 3, VerseStart: 2, VerseEnd: 2,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := scripture.Parse(tc.in)
			if !ok {
				t.Fatalf("Parse(%q) failed, want %+v", tc.in, tc.want)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"NotABook",
		"John",
		"3:16",
		"",
		"   ",
	} {
		if ref, ok := scripture.Parse(in); ok {
			t.Errorf("Parse(%q) = %+v, want no match", in, ref)
		}
	}
}

func TestReference_WhereExpr(t *testing.T) {
	t.Parallel()

	ref, ok := scripture.Parse("John 1:2-5")
	if !ok {
		t.Fatal("Parse failed")
	}
	if got, want := ref.WhereExpr(), "chapter=1 AND verse>=2 AND verse<=5"; got != want {
		t.Errorf("WhereExpr() = %q, want %q", got, want)
	}

	single, ok := scripture.Parse("John 3:16")
	if !ok {
		t.Fatal("Parse failed")
	}
	if got, want := single.WhereExpr(), "chapter=3 AND verse>=16 AND verse<=16"; got != want {
		t.Errorf("WhereExpr() = %q, want %q", got, want)
	}
}

func TestExtractReferences(t *testing.T) {
	t.Parallel()

	text := "Love is patient (1 Cor 13:4). As the prodigal returned (Luke 15:11-32), so do we."
	refs := scripture.ExtractReferences(text)
	if len(refs) != 2 {
		t.Fatalf("ExtractReferences returned %d citations, want 2: %+v", len(refs), refs)
	}
	if refs[0].Reference != "1 Cor 13:4" || refs[0].Full != "(1 Cor 13:4)" {
		t.Errorf("first citation = %+v", refs[0])
	}
	if refs[1].Reference != "Luke 15:11-32" || refs[1].Full != "(Luke 15:11-32)" {
		t.Errorf("second citation = %+v", refs[1])
	}
}

func TestExtractReferences_IgnoresPlainParentheses(t *testing.T) {
	t.Parallel()

	refs := scripture.ExtractReferences("An aside (not a citation) and a year (1054).")
	if len(refs) != 0 {
		t.Errorf("ExtractReferences = %+v, want none", refs)
	}
}
