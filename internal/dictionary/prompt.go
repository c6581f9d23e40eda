package dictionary

import (
	"fmt"
	"strings"
)

const (
	promptHeader = "When translating the text, you MUST use the following dictionary of specialised Orthodox Christian terms:"

	promptFooter = "These translations for specialised Orthodox terms are authoritative and must be used exactly as provided."
)

// BuildPrompt renders the matched terms as an instruction block for the
// model. Terms with a single translation are rendered as fixed mappings; terms
// with several are rendered as an alternatives list with an instruction to
// choose by context. An empty match list renders to the empty string — the
// block is omitted entirely, not stubbed.
//
// The output is a pure function of matches: rendering the same sequence twice
// yields byte-identical text.
func BuildPrompt(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(promptHeader)
	b.WriteString("\n\n")

	for _, m := range matches {
		if len(m.Translations) == 1 {
			fmt.Fprintf(&b, "- %q: %q\n", m.Term, m.Translations[0])
			continue
		}
		quoted := make([]string, len(m.Translations))
		for i, t := range m.Translations {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		fmt.Fprintf(&b, "- %q: one of %s (choose the translation that best fits the context)\n",
			m.Term, strings.Join(quoted, " / "))
	}

	b.WriteString("\n")
	b.WriteString(promptFooter)
	b.WriteString("\n")
	return b.String()
}
