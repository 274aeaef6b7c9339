package decode

import (
	"testing"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/feature"
)

func lp(b, i, l, o, u float64, entity uint32) feature.LocalProbs {
	var p feature.LocalProbs
	p[bilou.TagB] = feature.ProbInfo{Prob: b, Entity: entity}
	p[bilou.TagI] = feature.ProbInfo{Prob: i}
	p[bilou.TagL] = feature.ProbInfo{Prob: l}
	p[bilou.TagO] = feature.ProbInfo{Prob: o}
	p[bilou.TagU] = feature.ProbInfo{Prob: u, Entity: entity}
	return p
}

func runSentence(locals []feature.LocalProbs) []feature.GlobalProbs {
	globals := make([]feature.GlobalProbs, len(locals))
	globals[0] = Init(locals[0])
	for i := 1; i < len(locals); i++ {
		globals[i] = Update(globals[i-1], locals[i])
	}
	return globals
}

func TestScenario1DecoderSanity(t *testing.T) {
	locals := []feature.LocalProbs{
		lp(0.9, 0, 0, 0.05, 0.05, 7),
		lp(0.025, 0.8, 0.1, 0.05, 0.025, 0),
		lp(0.025, 0.025, 0.8, 0.1, 0.05, 0),
	}
	globals := runSentence(locals)
	tags := BestPath(globals)
	want := []bilou.Tag{bilou.TagB, bilou.TagI, bilou.TagL}
	for i, tag := range want {
		if tags[i] != tag {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}

	entities := bilou.NewEntityMap()
	for i := 0; i < 8; i++ {
		entities.Parse("type"+string(rune('0'+i)), true)
	}
	spans := ExtractSpans(tags, globals, entities)
	if len(spans) != 1 {
		t.Fatalf("expected exactly one span, got %+v", spans)
	}
	if spans[0].Start != 0 || spans[0].Length != 3 || spans[0].Type != entities.Name(7) {
		t.Errorf("span = %+v, want (0, 3, %s)", spans[0], entities.Name(7))
	}
}

func TestScenario2EndOfSentenceClosure(t *testing.T) {
	locals := []feature.LocalProbs{
		lp(0.9, 0, 0, 0.05, 0.05, 3),
		lp(0.0, 0.9, 0.05, 0.05, 0.0, 0),
	}
	globals := runSentence(locals)
	tags := BestPath(globals)
	if tags[1] != bilou.TagL {
		t.Fatalf("terminal tag = %v, want L (forced out of {B,I})", tags[1])
	}

	entities := bilou.NewEntityMap()
	for i := 0; i < 4; i++ {
		entities.Parse("type"+string(rune('0'+i)), true)
	}
	spans := ExtractSpans(tags, globals, entities)
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].Length != 2 {
		t.Fatalf("spans = %+v, want one (0, 2)", spans)
	}
}

func TestOneTokenSentenceBoundary(t *testing.T) {
	// Only O and U are considered at initialisation; I and L forced to 0.
	g := Init(lp(0, 0.9, 0.9, 0.05, 0.05, 9))
	if g.Local[bilou.TagI].Prob != 0 || g.Local[bilou.TagL].Prob != 0 {
		t.Fatalf("I/L must be forced to zero at init, got I=%v L=%v", g.Local[bilou.TagI].Prob, g.Local[bilou.TagL].Prob)
	}
	tags := BestPath([]feature.GlobalProbs{g})
	if tags[0] != bilou.TagU && tags[0] != bilou.TagO {
		t.Fatalf("single-token decode must pick O or U, got %v", tags[0])
	}
}

func TestAllOSentenceProducesNoSpans(t *testing.T) {
	locals := []feature.LocalProbs{
		lp(0, 0, 0, 0.9, 0.1, 0),
		lp(0, 0, 0, 0.9, 0.1, 0),
	}
	globals := runSentence(locals)
	tags := BestPath(globals)
	entities := bilou.NewEntityMap()
	spans := ExtractSpans(tags, globals, entities)
	if len(spans) != 0 {
		t.Fatalf("expected no spans for an all-O sentence, got %+v", spans)
	}
}
