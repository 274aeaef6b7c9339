package trainset

import (
	"strings"
	"testing"

	"github.com/screenager/nertag/internal/bilou"
)

func TestReadSplitsOnBlankLines(t *testing.T) {
	input := "John\tB-PER\nSmith\tI-PER\n\nParis\tB-LOC\n"
	sentences, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sentences) != 2 {
		t.Fatalf("got %d sentences, want 2", len(sentences))
	}
	if len(sentences[0]) != 2 || len(sentences[1]) != 1 {
		t.Fatalf("sentence lengths = %d, %d", len(sentences[0]), len(sentences[1]))
	}
}

func TestReadRejectsWrongColumnCount(t *testing.T) {
	_, err := Read(strings.NewReader("John\tB-PER\textra\n"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestToBILOULoneBBecomesUnit(t *testing.T) {
	entities := bilou.NewEntityMap()
	sent := []LabeledToken{{Form: "Paris", Label: "B-LOC"}}
	out, err := ToBILOU(sent, entities)
	if err != nil {
		t.Fatalf("ToBILOU: %v", err)
	}
	tag := bilou.GetBilou(out.Outcomes[0])
	if tag != bilou.TagU {
		t.Errorf("tag = %v, want U", tag)
	}
}

func TestToBILOUChainBecomesBeginInsideLast(t *testing.T) {
	entities := bilou.NewEntityMap()
	sent := []LabeledToken{
		{Form: "New", Label: "B-LOC"},
		{Form: "York", Label: "I-LOC"},
		{Form: "City", Label: "I-LOC"},
	}
	out, err := ToBILOU(sent, entities)
	if err != nil {
		t.Fatalf("ToBILOU: %v", err)
	}
	want := []bilou.Tag{bilou.TagB, bilou.TagI, bilou.TagL}
	for i, tag := range want {
		if got := bilou.GetBilou(out.Outcomes[i]); got != tag {
			t.Errorf("tag[%d] = %v, want %v", i, got, tag)
		}
	}
}

func TestToBILOUInteriorWithoutSuccessorBecomesLast(t *testing.T) {
	entities := bilou.NewEntityMap()
	sent := []LabeledToken{
		{Form: "New", Label: "B-LOC"},
		{Form: "York", Label: "I-LOC"},
	}
	out, err := ToBILOU(sent, entities)
	if err != nil {
		t.Fatalf("ToBILOU: %v", err)
	}
	if bilou.GetBilou(out.Outcomes[1]) != bilou.TagL {
		t.Errorf("second tag = %v, want L", bilou.GetBilou(out.Outcomes[1]))
	}
}

func TestToBILOURejectsUnrecognisedLabel(t *testing.T) {
	entities := bilou.NewEntityMap()
	_, err := ToBILOU([]LabeledToken{{Form: "x", Label: "X-WEIRD"}}, entities)
	if err == nil {
		t.Fatal("expected an error for an unrecognised label")
	}
}
