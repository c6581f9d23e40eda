package command

// orthodoxTranslationInstruction frames a translate command when Orthodox
// mode is on. The trailing blank line separates it from the dictionary block
// or payload that follows.
const orthodoxTranslationInstruction = `You are an Orthodox Christian translator from English to Chinese that uses traditional Chinese characters. You have deep knowledge of Orthodox Christian theology, liturgy, and terminology. When translating Orthodox Christian texts, please:

1. Use traditional Chinese characters (繁體中文)
2. Maintain the theological accuracy and reverence of Orthodox Christian concepts
3. Use appropriate Chinese Orthodox Christian terminology when available
4. Preserve the liturgical and spiritual tone of the original text

`

// bibleAnnotationInstruction frames an annotate command.
const bibleAnnotationInstruction = `You are an Orthodox Christian expert in theology and Bible studies.
Identify and annotate any possible quotes from the Bible in the text below.
Modify the original text so that after each identified quote, there will be a reference (in parenthesis) to the corresponding location of Bible from which the quote was taken in the standard form. e.g. John 1:2-5 refers to Gospel of John, chapter 1, verses 2-5.
After processing text return the text with Bible references (if found any). IMPORTANT: If no quotes were found in the entire text, just return the original text.
Text to analyze:`

// standardTranslationInstruction frames a translate command when Orthodox
// mode is off but dictionary terms were still found.
const standardTranslationInstruction = "Please translate the following text from English to Traditional Chinese."

// translatePayloadLead introduces the payload in an Orthodox translation
// prompt.
const translatePayloadLead = "Please translate the following text:"

// Clarification requests returned when a recognised command carries no
// payload. A classified command always yields a non-empty prompt.
const (
	annotateClarification       = "(Please provide the text you would like me to analyze for Bible quotes.)"
	translateClarification      = "(Please provide the English text you would like me to translate to traditional Chinese.)"
	footnotesClarification      = "(Please provide the annotated text you would like me to add footnotes to.)"
	footnotesFailureInstruction = "(Footnote processing was interrupted before completion. Please try again.)"
)
