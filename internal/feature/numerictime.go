package feature

import (
	"strconv"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("NumericTimeValue", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &numericTimeProc{km: newKeyMap(w)}, nil
	})
}

// numericTimeProc classifies a token's digit content into fixed digit
// buckets: hour (<24), minute (<60), day (1-31), month (1-12),
// year (1000-2200), and a generic time value (<60, used for either a
// standalone hour/minute in an H:MM or H.MM context). A token may fire
// more than one bucket (e.g. "12" is plausibly an hour, a day and a
// month at once); all that apply are emitted.
type numericTimeProc struct {
	km *keyMap
}

func (p *numericTimeProc) Name() string { return "NumericTimeValue" }

func numericTimeBuckets(form string) []string {
	n, err := strconv.Atoi(form)
	if err != nil || n < 0 {
		return nil
	}
	var keys []string
	if n < 24 {
		keys = append(keys, "H")
	}
	if n < 60 {
		keys = append(keys, "M", "t")
	}
	if n >= 1 && n <= 31 {
		keys = append(keys, "d")
	}
	if n >= 1 && n <= 12 {
		keys = append(keys, "m")
	}
	if n >= 1000 && n <= 2200 {
		keys = append(keys, "y")
	}
	return keys
}

func (p *numericTimeProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		for _, key := range numericTimeBuckets(s.Words[i].Form) {
			if base, ok := p.km.lookup(key, adding); ok {
				s.ApplyInWindow(i, p.km.window, base)
			}
		}
	}
}

func (p *numericTimeProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *numericTimeProc) Load(d *codec.Decoder) error {
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *numericTimeProc) Save(e *codec.Encoder) { p.km.save(e) }
