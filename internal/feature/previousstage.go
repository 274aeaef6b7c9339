package feature

import (
	"strconv"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("PreviousStage", func(w int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		if w < 1 {
			w = 1
		}
		return &previousStageProc{km: newKeyMap(w)}, nil
	})
}

// previousStageProc feeds the decoded (tag, entity) pair a prior stage
// produced for token i forward as a feature of tokens [i+1, i+window]
// — one-directional, since a later stage may only look back at what an
// earlier stage has already committed to, never sideways or ahead.
type previousStageProc struct {
	km *keyMap
}

func (p *previousStageProc) Name() string { return "PreviousStage" }

func encodePrevStage(ps PrevStage) string {
	return strconv.Itoa(int(ps.Tag)) + " " + strconv.FormatUint(uint64(ps.Entity), 10)
}

func (p *previousStageProc) ProcessSentence(s *Sentence, adding *uint32) {
	for i := 0; i < s.Size; i++ {
		ps := s.PrevStage[i]
		if ps.Tag == bilou.TagUnknown {
			continue
		}
		key := encodePrevStage(ps)
		base, ok := p.km.lookupOneDirectional(key, adding)
		if !ok {
			continue
		}
		for offset := 0; offset < p.km.window; offset++ {
			s.AppendFeature(i+1+offset, base+uint32(offset))
		}
	}
}

func (p *previousStageProc) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *previousStageProc) Load(d *codec.Decoder) error {
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *previousStageProc) Save(e *codec.Encoder) { p.km.save(e) }
