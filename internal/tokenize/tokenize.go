// Package tokenize provides the generic fallback word-boundary
// tokenizer for the (explicitly external) tokenisation collaborator
// named in the core's data-flow: raw text in, a vector of word-form
// spans out, ready to be wrapped into feature.Token values and handed
// to the engine. This is a Unicode-segmentation default, not a
// replacement for a model-specific tokenizer a caller may supply
// instead.
package tokenize

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"

	"github.com/screenager/nertag/internal/feature"
)

// Tokenizer splits raw text into word forms using Unicode UAX #29
// word-boundary rules. The zero value is ready to use.
type Tokenizer struct{}

// New returns a fresh Tokenizer. The engine does not construct one;
// callers (cmd/nertag, inspect, watchtag) call New themselves.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Forms splits text into word-boundary segments and returns only the
// ones classifiable as words (punctuation and whitespace runs between
// them are dropped).
func (t *Tokenizer) Forms(text string) []string {
	var out []string
	seg := words.NewSegmenter([]byte(text))
	for seg.Next() {
		tok := seg.Value()
		if !isWordlike(tok) {
			continue
		}
		out = append(out, string(tok))
	}
	return out
}

// Tokens splits text into word forms and wraps each as a feature.Token
// with only Form populated. Callers with a real morphological tagger
// should tag the forms themselves instead of using this directly; this
// exists so a model with no tagger configured can still run end to end.
func (t *Tokenizer) Tokens(text string) []feature.Token {
	forms := t.Forms(text)
	out := make([]feature.Token, len(forms))
	for i, f := range forms {
		out[i] = feature.Token{Form: f, RawLemma: f}
	}
	return out
}

// isWordlike reports whether a UAX #29 word segment should be kept as
// a token rather than discarded as inter-word punctuation/space. uax29
// yields every run between boundaries, including pure-whitespace and
// pure-punctuation runs; a segment counts as wordlike if it contains at
// least one letter or number.
func isWordlike(tok []byte) bool {
	for _, r := range string(tok) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
