package feature

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("Form", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "Form", km: newKeyMap(w), field: func(t Token) string { return t.Form }}, nil
	})
	Register("FormCaseNormalized", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "FormCaseNormalized", km: newKeyMap(w), field: func(t Token) string { return t.Form }, normalize: true}, nil
	})
	Register("RawLemma", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "RawLemma", km: newKeyMap(w), field: func(t Token) string { return t.RawLemma }}, nil
	})
	Register("RawLemmaCaseNormalized", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "RawLemmaCaseNormalized", km: newKeyMap(w), field: func(t Token) string { return t.RawLemma }, normalize: true}, nil
	})
	Register("Lemma", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "Lemma", km: newKeyMap(w), field: func(t Token) string { return strconv.FormatUint(uint64(t.LemmaID), 10) }}, nil
	})
	Register("Tag", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &windowedProc{name: "Tag", km: newKeyMap(w), field: func(t Token) string { return t.Tag }}, nil
	})
}

// caseNormalize lowercases every codepoint after the first, leaving the
// first codepoint untouched. This preserves a sentence-initial/proper
// capital while still merging e.g. "Prague"/"PRAGUE" variants seen
// mid-sentence.
func caseNormalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// windowedProc is the shared implementation for every simple
// field-keyed, windowed sentence-feature processor: Form,
// FormCaseNormalized, RawLemma, RawLemmaCaseNormalized, Lemma, Tag.
type windowedProc struct {
	name      string
	km        *keyMap
	field     func(Token) string
	normalize bool
}

func (p *windowedProc) Name() string { return p.name }

func (p *windowedProc) ProcessSentence(s *Sentence, adding *uint32) {
	if emptyBase, ok := p.km.lookup("", adding); ok {
		s.ApplyOuterWordsInWindow(p.km.window, emptyBase)
	}
	for i := 0; i < s.Size; i++ {
		key := p.field(s.Words[i])
		if p.normalize {
			key = caseNormalize(key)
		}
		if key == "" {
			continue
		}
		if base, ok := p.km.lookup(key, adding); ok {
			s.ApplyInWindow(i, p.km.window, base)
		}
	}
}

func (p *windowedProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *windowedProc) Load(d *codec.Decoder) error {
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *windowedProc) Save(e *codec.Encoder) {
	p.km.save(e)
}

// FormCapitalization, RawLemmaCapitalization.

func init() {
	Register("FormCapitalization", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &capitalizationProc{name: "FormCapitalization", km: newKeyMap(w), field: func(t Token) string { return t.Form }}, nil
	})
	Register("RawLemmaCapitalization", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &capitalizationProc{name: "RawLemmaCapitalization", km: newKeyMap(w), field: func(t Token) string { return t.RawLemma }}, nil
	})
}

// capitalizationProc emits one of three fixed keys per token: "f"
// (first letter capitalised, rest lower), "a" (all-caps), "m" (mixed —
// anything else involving a capital that isn't f or a).
type capitalizationProc struct {
	name  string
	km    *keyMap
	field func(Token) string
}

func (p *capitalizationProc) Name() string { return p.name }

func capitalizationKey(s string) (string, bool) {
	runes := []rune(s)
	hasUpper, hasLower := false, false
	for _, r := range runes {
		if unicode.IsUpper(r) {
			hasUpper = true
		} else if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if !hasUpper {
		return "", false
	}
	if !hasLower {
		return "a", true
	}
	if unicode.IsUpper(runes[0]) {
		restLower := true
		for _, r := range runes[1:] {
			if unicode.IsUpper(r) {
				restLower = false
				break
			}
		}
		if restLower {
			return "f", true
		}
	}
	return "m", true
}

func (p *capitalizationProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		key, ok := capitalizationKey(p.field(s.Words[i]))
		if !ok {
			continue
		}
		if base, ok := p.km.lookup(key, adding); ok {
			s.ApplyInWindow(i, p.km.window, base)
		}
	}
}

func (p *capitalizationProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *capitalizationProc) Load(d *codec.Decoder) error {
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *capitalizationProc) Save(e *codec.Encoder) { p.km.save(e) }

// Suffix family: FormSuffix, FormCaseNormalizedSuffix, RawLemmaSuffix,
// RawLemmaCaseNormalizedSuffix. Args: "shortest longest".

func init() {
	Register("FormSuffix", suffixFactory("FormSuffix", func(t Token) string { return t.Form }, false))
	Register("FormCaseNormalizedSuffix", suffixFactory("FormCaseNormalizedSuffix", func(t Token) string { return t.Form }, true))
	Register("RawLemmaSuffix", suffixFactory("RawLemmaSuffix", func(t Token) string { return t.RawLemma }, false))
	Register("RawLemmaCaseNormalizedSuffix", suffixFactory("RawLemmaCaseNormalizedSuffix", func(t Token) string { return t.RawLemma }, true))

	// suffixFactory rejects args=nil (it wants exactly 2), which is what
	// Set.Load would otherwise call it with; these empty constructors
	// let Load build a bare instance for Processor.Load to populate.
	RegisterEmpty("FormSuffix", func() Processor {
		return &suffixProc{name: "FormSuffix", field: func(t Token) string { return t.Form }}
	})
	RegisterEmpty("FormCaseNormalizedSuffix", func() Processor {
		return &suffixProc{name: "FormCaseNormalizedSuffix", field: func(t Token) string { return t.Form }, normalize: true}
	})
	RegisterEmpty("RawLemmaSuffix", func() Processor {
		return &suffixProc{name: "RawLemmaSuffix", field: func(t Token) string { return t.RawLemma }}
	})
	RegisterEmpty("RawLemmaCaseNormalizedSuffix", func() Processor {
		return &suffixProc{name: "RawLemmaCaseNormalizedSuffix", field: func(t Token) string { return t.RawLemma }, normalize: true}
	})
}

func suffixFactory(name string, field func(Token) string, normalize bool) Factory {
	return func(w int, args []string, _ *bilou.EntityMap) (Processor, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 args (shortest longest), got %d", name, len(args))
		}
		shortest, err := strconv.Atoi(args[0])
		if err != nil || shortest < 1 {
			return nil, fmt.Errorf("%s: invalid shortest length %q", name, args[0])
		}
		longest, err := strconv.Atoi(args[1])
		if err != nil || longest < shortest {
			return nil, fmt.Errorf("%s: invalid longest length %q", name, args[1])
		}
		return &suffixProc{
			name: name, km: newKeyMap(w), field: field, normalize: normalize,
			shortest: shortest, longest: longest,
		}, nil
	}
}

type suffixProc struct {
	name               string
	km                 *keyMap
	field              func(Token) string
	normalize          bool
	shortest, longest  int
}

func (p *suffixProc) Name() string { return p.name }

func (p *suffixProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		text := p.field(s.Words[i])
		if p.normalize {
			text = caseNormalize(text)
		}
		runes := []rune(text)
		maxLen := p.longest
		if len(runes) < maxLen {
			maxLen = len(runes)
		}
		for length := p.shortest; length <= maxLen; length++ {
			suffix := string(runes[len(runes)-length:])
			key := strconv.Itoa(length) + ":" + suffix
			if base, ok := p.km.lookup(key, adding); ok {
				s.ApplyInWindow(i, p.km.window, base)
			}
		}
	}
}

func (p *suffixProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *suffixProc) Load(d *codec.Decoder) error {
	p.shortest = int(d.Next1B())
	p.longest = int(d.Next1B())
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *suffixProc) Save(e *codec.Encoder) {
	e.Add1B(uint8(p.shortest))
	e.Add1B(uint8(p.longest))
	p.km.save(e)
}

// CzechLemmaTerm: for every "_;X" substring in lemma_comments, key is
// the single character X.

func init() {
	Register("CzechLemmaTerm", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &czechLemmaTermProc{km: newKeyMap(w)}, nil
	})
}

type czechLemmaTermProc struct {
	km *keyMap
}

func (p *czechLemmaTermProc) Name() string { return "CzechLemmaTerm" }

func (p *czechLemmaTermProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		comments := s.Words[i].LemmaComments
		idx := 0
		for {
			rel := strings.Index(comments[idx:], "_;")
			if rel < 0 {
				break
			}
			pos := idx + rel + 2
			if pos >= len(comments) {
				break
			}
			key := string(comments[pos])
			if base, ok := p.km.lookup(key, adding); ok {
				s.ApplyInWindow(i, p.km.window, base)
			}
			idx = pos + 1
		}
	}
}

func (p *czechLemmaTermProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *czechLemmaTermProc) Load(d *codec.Decoder) error {
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *czechLemmaTermProc) Save(e *codec.Encoder) { p.km.save(e) }
