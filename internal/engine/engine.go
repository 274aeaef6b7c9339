// Package engine ties the feature-template registry, the per-stage
// network classifiers and the BILOU global decoder into the public
// inference surface: load a model once, then recognize named entities
// in many tagged sentences, each call acquiring a pooled scratch cache
// for the duration of the call.
package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/classifier"
	"github.com/screenager/nertag/internal/codec"
	"github.com/screenager/nertag/internal/decode"
	"github.com/screenager/nertag/internal/feature"
)

// Variant is the model-id byte identifying which trained pipeline a
// model artifact carries.
type Variant uint8

const (
	VariantCzech Variant = iota
	VariantEnglish
	VariantGeneric
)

func (v Variant) String() string {
	switch v {
	case VariantCzech:
		return "czech"
	case VariantEnglish:
		return "english"
	case VariantGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Engine is a fully loaded, read-only inference pipeline: the loaded
// model (entity map, feature-template set, ordered stages) may be
// shared by any number of goroutines calling Recognize concurrently
// without synchronisation; only the per-call cache is mutable.
type Engine struct {
	Variant     Variant
	taggerBytes []byte // opaque; the tagger itself is an external collaborator
	Entities    *bilou.EntityMap
	Templates   *feature.Set
	Stages      []*classifier.Network

	caches sync.Pool
}

type cache struct {
	sentence   feature.Sentence
	globals    []feature.GlobalProbs
	outcomeBuf []float64
}

// New wires a freshly loaded model's components into an Engine ready
// to serve Recognize calls.
func New(variant Variant, taggerBytes []byte, entities *bilou.EntityMap, templates *feature.Set, stages []*classifier.Network) *Engine {
	e := &Engine{Variant: variant, taggerBytes: taggerBytes, Entities: entities, Templates: templates, Stages: stages}
	e.caches.New = func() any { return &cache{} }
	return e
}

// EntityTypes enumerates the entity map.
func (e *Engine) EntityTypes() []string {
	return e.Entities.Names()
}

// Recognize runs the full stage-chained pipeline over a sentence of
// already-tagged tokens and returns its decoded entities sorted by
// (start ascending, length descending). An empty input returns an
// empty slice with no error, per §7's empty-input policy.
func (e *Engine) Recognize(words []feature.Token) []feature.Entity {
	if len(words) == 0 {
		return nil
	}

	c := e.caches.Get().(*cache)
	defer e.caches.Put(c)

	s := &c.sentence
	s.Reset(words)
	s.ClearPreviousStage()

	if cap(c.globals) < s.Size {
		c.globals = make([]feature.GlobalProbs, s.Size)
	}
	globals := c.globals[:s.Size]

	var tags []bilou.Tag
	for _, stage := range e.Stages {
		s.ClearStageState()
		e.Templates.ProcessSentence(s, false)

		for i := 0; i < s.Size; i++ {
			st := &s.State[i]
			if !st.LocalFilled {
				out := stage.Classify(st.Features, c.outcomeBuf)
				c.outcomeBuf = out
				st.Local = localFromOutcomes(out)
				st.LocalFilled = true
			}
			if i == 0 {
				globals[0] = decode.Init(st.Local)
			} else {
				globals[i] = decode.Update(globals[i-1], st.Local)
			}
		}

		tags = decode.BestPath(globals)
		for i, tag := range tags {
			s.PrevStage[i] = feature.PrevStage{Tag: tag, Entity: globals[i].Local[tag].Entity}
		}
	}

	entities := decode.ExtractSpans(tags, globals, e.Entities)
	sortEntities(entities)
	entities = e.Templates.ProcessEntities(s, entities)
	sortEntities(entities)
	return entities
}

// localFromOutcomes converts a classifier's outcome distribution into
// LocalProbs: for I, L, O the single corresponding outcome's
// probability is taken directly; for B and U the maximum over all
// entities is taken, along with the entity that achieves it.
func localFromOutcomes(out []float64) feature.LocalProbs {
	var lp feature.LocalProbs
	lp[bilou.TagI] = feature.ProbInfo{Prob: valueAt(out, 0), Entity: bilou.EntityUnknown}
	lp[bilou.TagL] = feature.ProbInfo{Prob: valueAt(out, 1), Entity: bilou.EntityUnknown}
	lp[bilou.TagO] = feature.ProbInfo{Prob: valueAt(out, 2), Entity: bilou.EntityUnknown}

	entities := (len(out) - 3) / 2
	var bestB, bestU feature.ProbInfo
	for ent := 0; ent < entities; ent++ {
		bProb := valueAt(out, 3+2*ent)
		uProb := valueAt(out, 4+2*ent)
		if ent == 0 || bProb > bestB.Prob {
			bestB = feature.ProbInfo{Prob: bProb, Entity: uint32(ent)}
		}
		if ent == 0 || uProb > bestU.Prob {
			bestU = feature.ProbInfo{Prob: uProb, Entity: uint32(ent)}
		}
	}
	lp[bilou.TagB] = bestB
	lp[bilou.TagU] = bestU
	return lp
}

func valueAt(out []float64, i int) float64 {
	if i >= len(out) {
		return 0
	}
	return out[i]
}

func sortEntities(entities []feature.Entity) {
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].Length > entities[j].Length
	})
}

// Load reads a complete model artifact: one byte model-variant tag, a
// compressed tagger block (opaque to this package), the entity map,
// the feature-template set, one byte stage count, then that many
// serialised network classifiers — each of the entity map, template
// set and tagger block arriving as its own CRC-checked compressed
// block per §6.
func Load(raw []byte) (*Engine, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: empty model", codec.ErrTruncated)
	}
	variant := Variant(raw[0])
	pos := 1

	taggerBytes, n, err := codec.DecompressBlock(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("engine: tagger block: %w", err)
	}
	pos += n

	entityBytes, n, err := codec.DecompressBlock(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("engine: entity map block: %w", err)
	}
	pos += n
	entities := bilou.NewEntityMap()
	if err := entities.Load(codec.NewDecoder(entityBytes)); err != nil {
		return nil, fmt.Errorf("engine: entity map: %w", err)
	}

	templateBytes, n, err := codec.DecompressBlock(raw[pos:])
	if err != nil {
		return nil, fmt.Errorf("engine: template block: %w", err)
	}
	pos += n
	templates := feature.NewSet()
	if err := templates.Load(codec.NewDecoder(templateBytes), entities); err != nil {
		return nil, fmt.Errorf("engine: templates: %w", err)
	}

	if pos >= len(raw) {
		return nil, fmt.Errorf("%w: missing stage count", codec.ErrTruncated)
	}
	stageCount := int(raw[pos])
	pos++
	if stageCount < 1 || stageCount >= 256 {
		return nil, fmt.Errorf("%w: invalid stage count %d", codec.ErrTruncated, stageCount)
	}

	stages := make([]*classifier.Network, stageCount)
	for i := 0; i < stageCount; i++ {
		stageBytes, n, err := codec.DecompressBlock(raw[pos:])
		if err != nil {
			return nil, fmt.Errorf("engine: stage %d: %w", i, err)
		}
		pos += n
		net := &classifier.Network{}
		if err := net.Load(codec.NewDecoder(stageBytes)); err != nil {
			return nil, fmt.Errorf("engine: stage %d: %w", i, err)
		}
		stages[i] = net
	}

	return New(variant, taggerBytes, entities, templates, stages), nil
}

// Save writes the Engine back into the artifact format Load expects.
func (e *Engine) Save() []byte {
	out := []byte{byte(e.Variant)}

	taggerBlock, _ := codec.CompressBlock(e.taggerBytes)
	out = append(out, taggerBlock...)

	entEnc := codec.NewEncoder()
	e.Entities.Save(entEnc)
	entBlock, _ := codec.CompressBlock(entEnc.Bytes())
	out = append(out, entBlock...)

	tmplEnc := codec.NewEncoder()
	e.Templates.Save(tmplEnc)
	tmplBlock, _ := codec.CompressBlock(tmplEnc.Bytes())
	out = append(out, tmplBlock...)

	out = append(out, byte(len(e.Stages)))
	for _, stage := range e.Stages {
		enc := codec.NewEncoder()
		stage.Save(enc)
		block, _ := codec.CompressBlock(enc.Bytes())
		out = append(out, block...)
	}
	return out
}
