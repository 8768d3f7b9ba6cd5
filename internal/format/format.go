// Package format turns Codic word breakdowns into display strings.
package format

import (
	"strings"

	"github.com/joelklabo/codic-slack/internal/codic"
)

// NoTranslation is shown for words Codic could not translate.
const NoTranslation = "(no translated text)"

// Word is a source word with its candidates flattened for display.
type Word struct {
	Text       string
	Candidates string
}

// Words formats each word in order. The candidate matching the word's
// translated text is wrapped in Slack bold markers.
func Words(words []codic.Word) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		out = append(out, Word{Text: w.Text, Candidates: summary(w)})
	}
	return out
}

func summary(w codic.Word) string {
	if !w.Successful {
		return NoTranslation
	}
	parts := make([]string, 0, len(w.Candidates))
	for _, c := range w.Candidates {
		if c.Text == nil {
			continue
		}
		if *c.Text == w.TranslatedText {
			parts = append(parts, "*"+*c.Text+"* ")
			continue
		}
		parts = append(parts, *c.Text)
	}
	return strings.Join(parts, ", ")
}
