package feature

import (
	"fmt"
	"regexp"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

var (
	urlPattern   = regexp.MustCompile(`^(?:https?|ftp)://[^\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func init() {
	Register("URLEmailDetector", func(_ int, args []string, entities *bilou.EntityMap) (Processor, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("URLEmailDetector: expected 1 arg (entity name), got %d", len(args))
		}
		p := &urlEmailDetector{entityName: args[0], entities: entities}
		if entities != nil {
			p.Resolve(entities)
		}
		return p, nil
	})

	// The Factory above rejects args=nil (it wants exactly 1 entity
	// name); Set.Load needs a bare instance to populate via
	// Processor.Load instead.
	RegisterEmpty("URLEmailDetector", func() Processor {
		return &urlEmailDetector{}
	})
}

// urlEmailDetector bypasses the classifier entirely for tokens whose
// form matches a URL or email shape: it locks local probabilities to a
// one-hot unit span at the configured entity before any classifier
// runs, per the "local_filled" early-override mechanism shared with
// gazetteer HardPre matches.
type urlEmailDetector struct {
	entityName string
	entityID   uint32
	entities   *bilou.EntityMap
}

func (p *urlEmailDetector) Name() string { return "URLEmailDetector" }

func (p *urlEmailDetector) ProcessSentence(s *Sentence, _ *uint32) {
	for i := 0; i < s.Size; i++ {
		if s.State[i].LocalFilled {
			continue
		}
		form := s.Words[i].Form
		if urlPattern.MatchString(form) || emailPattern.MatchString(form) {
			var local LocalProbs
			local[bilou.TagU] = ProbInfo{Prob: 1.0, Entity: p.entityID}
			s.State[i].Local = local
			s.State[i].LocalFilled = true
		}
	}
}

func (p *urlEmailDetector) ProcessEntities(_ *Sentence, _ []Entity, buffer []Entity) []Entity {
	return buffer
}

func (p *urlEmailDetector) Load(d *codec.Decoder) error {
	p.entityName = d.NextStr()
	p.entityID = d.Next4B()
	return d.Err()
}

func (p *urlEmailDetector) Save(e *codec.Encoder) {
	e.AddStr(p.entityName)
	e.Add4B(p.entityID)
}

// Resolve sets entityID to the id entities assigns to entityName,
// admitting the name if it is new. The template factory calls it; a
// loaded detector uses the entityID stored in the model instead.
func (p *urlEmailDetector) Resolve(entities *bilou.EntityMap) {
	p.entityID = entities.Parse(p.entityName, true)
}
