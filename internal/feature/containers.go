package feature

import (
	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

func init() {
	Register("CzechAddContainers", func(_ int, _ []string, _ *bilou.EntityMap) (Processor, error) {
		return &czechAddContainers{}, nil
	})
}

// czechAddContainers composes container entities out of contiguous runs
// of primitive entity types: one or more "pf" (person first name)
// followed by one or more "ps" (person surname) becomes a single "P"
// container spanning both; "td tm [ty]" or "tm ty" (day [month] /
// month year) becomes a "T" container. Contiguity is measured by
// token ranges: entity j is contiguous with j-1 iff
// ent[j].start == ent[j-1].start + ent[j-1].length.
type czechAddContainers struct{}

func (p *czechAddContainers) Name() string { return "CzechAddContainers" }

func (p *czechAddContainers) ProcessSentence(_ *Sentence, _ *uint32) {}

func contiguous(a, b Entity) bool {
	return b.Start == a.Start+a.Length
}

func (p *czechAddContainers) ProcessEntities(_ *Sentence, entities []Entity, buffer []Entity) []Entity {
	n := len(entities)
	for i := 0; i < n; {
		// P: pf+ ps+
		j := i
		for j < n && entities[j].Type == "pf" && (j == i || contiguous(entities[j-1], entities[j])) {
			j++
		}
		pfEnd := j
		if pfEnd > i {
			k := pfEnd
			for k < n && entities[k].Type == "ps" && contiguous(entities[k-1], entities[k]) {
				k++
			}
			if k > pfEnd {
				buffer = append(buffer, Entity{
					Start:  entities[i].Start,
					Length: entities[k-1].Start + entities[k-1].Length - entities[i].Start,
					Type:   "P",
				})
				i = k
				continue
			}
		}

		// T: td tm [ty]  or  tm ty
		if entities[i].Type == "td" && i+1 < n && entities[i+1].Type == "tm" && contiguous(entities[i], entities[i+1]) {
			end := i + 1
			if i+2 < n && entities[i+2].Type == "ty" && contiguous(entities[i+1], entities[i+2]) {
				end = i + 2
			}
			buffer = append(buffer, Entity{
				Start:  entities[i].Start,
				Length: entities[end].Start + entities[end].Length - entities[i].Start,
				Type:   "T",
			})
			i++
			continue
		}
		if entities[i].Type == "tm" && i+1 < n && entities[i+1].Type == "ty" && contiguous(entities[i], entities[i+1]) {
			buffer = append(buffer, Entity{
				Start:  entities[i].Start,
				Length: entities[i+1].Start + entities[i+1].Length - entities[i].Start,
				Type:   "T",
			})
			i++
			continue
		}

		i++
	}
	return buffer
}

func (p *czechAddContainers) Load(_ *codec.Decoder) error { return nil }
func (p *czechAddContainers) Save(_ *codec.Encoder)       {}
