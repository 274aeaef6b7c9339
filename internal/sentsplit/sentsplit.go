// Package sentsplit splits a raw prose blob into sentence-like spans
// for callers that hand the engine whole documents rather than
// already-one-sentence-per-line text. It makes a single forward pass
// and closes a sentence at every newline and at every '.', '!' or '?'
// that is followed by whitespace or the end of the text; there is no
// byte budget and no fallback to weaker break points.
package sentsplit

import "strings"

// terminators are the runes that usually end a sentence. '\n' ends one
// too (Split handles it separately), so one-sentence-per-line text
// yields one sentence per line.
const terminators = ".!?"

// Split breaks text into trimmed, non-empty sentence spans. A run of
// text ending in '.', '!' or '?' followed by whitespace (or the end of
// the text) closes a sentence; a bare newline also closes one, so
// already-segmented text (one sentence per line) round-trips as-is.
func Split(text string) []string {
	var out []string
	start := 0
	n := len(text)

	flush := func(end int) {
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			out = append(out, s)
		}
	}

	for i := 0; i < n; i++ {
		switch text[i] {
		case '\n':
			flush(i)
			start = i + 1
		case '.', '!', '?':
			if closesSentence(text, i) {
				flush(i + 1)
				start = i + 1
			}
		}
	}
	flush(n)
	return out
}

// closesSentence reports whether the terminator at i is followed by
// whitespace or end-of-text, so a decimal point as in "3.14" does not
// split. An abbreviation followed by a space, as in "Mr. Smith", does
// split: this is a heuristic, not a full sentence boundary detector.
func closesSentence(text string, i int) bool {
	if i+1 >= len(text) {
		return true
	}
	next := text[i+1]
	return next == ' ' || next == '\t' || next == '\n' || next == '\r'
}
