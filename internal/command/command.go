// Package command classifies user messages and assembles the final prompt
// sent to the model: command parsing, terminology dictionary injection,
// scripture quote resolution, and footnote processing.
package command

import "strings"

// Kind classifies a user message by its leading command keyword.
type Kind int

const (
	// Normal is a message with no recognised command; it passes through
	// unmodified.
	Normal Kind = iota

	// TranslateOrthodox is a translate command with Orthodox mode enabled.
	TranslateOrthodox

	// TranslateStandard is a translate command with Orthodox mode disabled.
	TranslateStandard

	// Annotate asks the model to mark Bible quotes with citations.
	Annotate

	// AddFootnotes resolves cited passages into numbered footnotes locally,
	// without involving the model.
	AddFootnotes
)

// String returns the stable classification tag for k.
func (k Kind) String() string {
	switch k {
	case TranslateOrthodox:
		return "translate_orthodox"
	case TranslateStandard:
		return "translate_standard"
	case Annotate:
		return "annotate"
	case AddFootnotes:
		return "add_footnotes"
	default:
		return "normal"
	}
}

// separators are the characters that may terminate the command phrase before
// the payload begins.
const separators = ":.,;-"

// Classify determines the command kind of message and extracts its payload.
// Keywords are recognised case-insensitively and only at the start of the
// message. For [Normal] messages the payload is the trimmed message itself.
//
// A separator from `: . , - ;` or a newline directly after the keyword is
// consumed before the payload, so "translate: Hello" and "translate Hello"
// both yield payload "Hello". Separators further into the message belong to
// the payload; citations like "(1 Cor 13:4)" survive intact.
func Classify(message string, orthodoxMode bool) (Kind, string) {
	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)

	switch {
	case strings.HasPrefix(lower, "add footnotes"):
		return AddFootnotes, extractPayload(msg, len("add footnotes"))
	case strings.HasPrefix(lower, "annotate"):
		return Annotate, extractPayload(msg, len("annotate"))
	case strings.HasPrefix(lower, "translate"):
		if orthodoxMode {
			return TranslateOrthodox, extractPayload(msg, len("translate"))
		}
		return TranslateStandard, extractPayload(msg, len("translate"))
	}
	return Normal, msg
}

// extractPayload returns the payload text following a command keyword of the
// given length, consuming one adjacent separator when present.
func extractPayload(msg string, keywordLen int) string {
	rest := strings.TrimLeft(msg[keywordLen:], " \t")
	if rest != "" && (strings.ContainsRune(separators, rune(rest[0])) || rest[0] == '\n') {
		rest = rest[1:]
	}
	return strings.TrimSpace(rest)
}
