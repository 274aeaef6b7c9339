package feature

import (
	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("Gazetteers", func(w int, _ []string, entities *bilou.EntityMap) (Processor, error) {
		// Single-position emission, same as GazetteersEnhanced: one id
		// per key, no window spread, so window is fixed at 1.
		return &legacyGazetteers{trie: NewTrie(), km: newKeyMap(1), entities: entities}, nil
	})
}

// legacyGazetteers is the deprecated, Soft-only, Form-matching
// predecessor of GazetteersEnhanced, kept for template files written
// against it. New template files should prefer GazetteersEnhanced.
type legacyGazetteers struct {
	trie     *Trie
	km       *keyMap
	entities *bilou.EntityMap
}

func (p *legacyGazetteers) Name() string { return "Gazetteers" }

func (p *legacyGazetteers) AddEntry(tokens []string, entity uint32) {
	p.trie.Insert(tokens, true, GazSoft, entity)
}

func (p *legacyGazetteers) ProcessSentence(s *Sentence, adding *uint32) {
	field := matchField(matchForm)
	for i := 0; i < s.Size; i++ {
		for _, m := range p.trie.walk(s, i, field) {
			for k := m.start; k <= m.end; k++ {
				if base, ok := p.km.lookupOneDirectional(keyStr(m.node, "plain"), adding); ok {
					s.AppendFeature(k, base)
				}
				if base, ok := p.km.lookupOneDirectional(keyStr(m.node, gazRole(k, m.start, m.end)), adding); ok {
					s.AppendFeature(k, base)
				}
			}
		}
	}
}

func (p *legacyGazetteers) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *legacyGazetteers) Load(d *codec.Decoder) error {
	p.trie = loadTrie(d)
	p.km = newKeyMap(0)
	p.km.load(d)
	return d.Err()
}

func (p *legacyGazetteers) Save(e *codec.Encoder) {
	saveTrie(e, p.trie)
	p.km.save(e)
}
