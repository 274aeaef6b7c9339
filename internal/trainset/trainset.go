// Package trainset parses the labelled training-data text format and
// converts its B-/I-/O label chains into BILOU outcomes. Full training
// (the SGD loop that turns converted sentences into a classifier.Network)
// is out of scope; this package only owns the text format and the label
// conversion (admitting new entity types into the entity map) a trainer
// would build on top of.
package trainset

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/screenager/nertag/internal/bilou"
)

// LabeledToken is one parsed training-data line: a word form plus its
// raw B-/I-/O label, before BILOU conversion.
type LabeledToken struct {
	Form  string
	Label string // "O", "_", "B-TYPE" or "I-TYPE"
}

// Sentence is one converted training sentence: forms alongside the
// BILOU outcome each one converts to.
type Sentence struct {
	Forms    []string
	Outcomes []bilou.Outcome
}

// ParseError reports a malformed training-data line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trainset: line %d: %s", e.Line, e.Msg)
}

// Read parses the full labelled-text stream into raw (form, label)
// sentences, split on blank lines. Malformed lines (wrong column
// count) are reported as a *ParseError.
func Read(r io.Reader) ([][]LabeledToken, error) {
	var sentences [][]LabeledToken
	var current []LabeledToken

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				sentences = append(sentences, current)
				current = nil
			}
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != 2 {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected form<TAB>label, got %d columns", len(cols))}
		}
		current = append(current, LabeledToken{Form: cols[0], Label: cols[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trainset: reading: %w", err)
	}
	if len(current) > 0 {
		sentences = append(sentences, current)
	}
	return sentences, nil
}

// ToBILOU converts one raw (form, label) sentence into a Sentence of
// BILOU outcomes, admitting new entity types into entities as they are
// encountered. Conversion rules (spec §6):
//   - a lone B-T (no following I-T of the same type) becomes U(T);
//   - a B-T followed by a same-type I-T chain becomes B(T) I … I L;
//   - an interior I-T with a same-type predecessor and a same-type
//     successor becomes I;
//   - an interior I-T with a same-type predecessor but no same-type
//     successor becomes L.
func ToBILOU(sentence []LabeledToken, entities *bilou.EntityMap) (Sentence, error) {
	n := len(sentence)
	out := Sentence{Forms: make([]string, n), Outcomes: make([]bilou.Outcome, n)}
	for i, tok := range sentence {
		out.Forms[i] = tok.Form
	}

	types := make([]string, n) // "" for O/_, else the entity type
	kinds := make([]byte, n)   // 'O', 'B', 'I'
	for i, tok := range sentence {
		switch {
		case tok.Label == "O" || tok.Label == "_":
			kinds[i] = 'O'
		case strings.HasPrefix(tok.Label, "B-"):
			kinds[i] = 'B'
			types[i] = tok.Label[2:]
		case strings.HasPrefix(tok.Label, "I-"):
			kinds[i] = 'I'
			types[i] = tok.Label[2:]
		default:
			return Sentence{}, fmt.Errorf("trainset: unrecognised label %q", tok.Label)
		}
	}

	for i := 0; i < n; i++ {
		switch kinds[i] {
		case 'O':
			out.Outcomes[i] = bilou.FromBilouEntity(bilou.TagO, bilou.EntityUnknown)
		case 'B':
			entity := entities.Parse(types[i], true)
			if sameTypeFollows(kinds, types, i) {
				out.Outcomes[i] = bilou.FromBilouEntity(bilou.TagB, entity)
			} else {
				out.Outcomes[i] = bilou.FromBilouEntity(bilou.TagU, entity)
			}
		case 'I':
			entity := entities.Parse(types[i], true)
			if sameTypeFollows(kinds, types, i) {
				out.Outcomes[i] = bilou.FromBilouEntity(bilou.TagI, entity)
			} else {
				out.Outcomes[i] = bilou.FromBilouEntity(bilou.TagL, entity)
			}
		}
	}
	return out, nil
}

// sameTypeFollows reports whether position i+1 continues the same
// entity-type chain as an I-tagged token (i.e. whether i is not the
// last token of its span).
func sameTypeFollows(kinds []byte, types []string, i int) bool {
	if i+1 >= len(kinds) {
		return false
	}
	return kinds[i+1] == 'I' && types[i+1] == types[i]
}
