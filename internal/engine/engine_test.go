package engine

import (
	"testing"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/classifier"
	"github.com/screenager/nertag/internal/feature"
)

func TestRecognizeEmptyInputReturnsNil(t *testing.T) {
	e := New(VariantGeneric, nil, bilou.NewEntityMap(), feature.NewSet(), nil)
	if got := e.Recognize(nil); got != nil {
		t.Errorf("Recognize(nil) = %v, want nil", got)
	}
}

// fixedOutcomeNetwork builds a *classifier.Network whose only direct
// connection is on feature id 0 (the omnipresent feature every token
// fires regardless of the template set), weighted so that `winner`
// dominates the softmax for every token.
func fixedOutcomeNetwork(outputSize, winner int) *classifier.Network {
	ids := make([]uint32, outputSize)
	weights := make([]float32, outputSize)
	for i := range ids {
		ids[i] = uint32(i)
	}
	weights[winner] = 20
	return &classifier.Network{
		Indices:       [][]uint32{ids},
		Weights:       [][]float32{weights},
		MissingWeight: 0,
		OutputSize:    outputSize,
	}
}

func TestRecognizeSingleUnitEntity(t *testing.T) {
	entities := bilou.NewEntityMap()
	entities.Parse("PER", true)
	total := bilou.TotalOutcomes(entities.Size()) // I=0,L=1,O=2,B0=3,U0=4

	words := []feature.Token{{Form: "Alice"}}
	e := New(VariantGeneric, nil, entities, feature.NewSet(), []*classifier.Network{
		fixedOutcomeNetwork(total, 4), // U(PER)
	})
	spans := e.Recognize(words)
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].Length != 1 || spans[0].Type != "PER" {
		t.Fatalf("spans = %+v, want one (0,1,PER)", spans)
	}
}

func TestRecognizeTwoTokenSpan(t *testing.T) {
	entities := bilou.NewEntityMap()
	entities.Parse("PER", true)
	entities.Parse("LOC", true)
	total := bilou.TotalOutcomes(entities.Size()) // I=0,L=1,O=2,B0=3,U0=4,B1=5,U1=6

	// Every token's classifier output is identical (the stub has no
	// per-position feature): B(PER) dominates every token's local
	// distribution. At position 1 the decoder carries position 0's B
	// mass into I and L, and the terminal tag is restricted to
	// {L, O, U}, so the best path is B at pos 0 and L at pos 1.
	words := []feature.Token{{Form: "New"}, {Form: "York"}}
	e := New(VariantGeneric, nil, entities, feature.NewSet(), []*classifier.Network{
		fixedOutcomeNetwork(total, 3), // B(PER) dominates every token's local distribution
	})
	spans := e.Recognize(words)
	if len(spans) != 1 || spans[0].Start != 0 || spans[0].Length != 2 || spans[0].Type != "PER" {
		t.Fatalf("spans = %+v, want one (0,2,PER)", spans)
	}
}

func TestEntityTypesReflectsLoadedMap(t *testing.T) {
	entities := bilou.NewEntityMap()
	entities.Parse("PER", true)
	entities.Parse("ORG", true)
	e := New(VariantCzech, nil, entities, feature.NewSet(), nil)
	got := e.EntityTypes()
	if len(got) != 2 || got[0] != "PER" || got[1] != "ORG" {
		t.Fatalf("EntityTypes() = %v, want [PER ORG]", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	entities := bilou.NewEntityMap()
	entities.Parse("PER", true)
	total := bilou.TotalOutcomes(entities.Size())

	orig := New(VariantEnglish, []byte("opaque-tagger-state"), entities, feature.NewSet(), []*classifier.Network{
		fixedOutcomeNetwork(total, 4),
	})
	raw := orig.Save()

	loaded, err := Load(raw)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Variant != VariantEnglish {
		t.Errorf("Variant = %v, want english", loaded.Variant)
	}
	if got := loaded.EntityTypes(); len(got) != 1 || got[0] != "PER" {
		t.Errorf("EntityTypes = %v, want [PER]", got)
	}
	if len(loaded.Stages) != 1 {
		t.Fatalf("Stages = %d, want 1", len(loaded.Stages))
	}

	spans := loaded.Recognize([]feature.Token{{Form: "Alice"}})
	if len(spans) != 1 || spans[0].Type != "PER" {
		t.Fatalf("spans after reload = %+v, want one PER span", spans)
	}
}
