package feature

import "testing"

func newTestSentence(forms ...string) *Sentence {
	s := &Sentence{}
	words := make([]Token, len(forms))
	for i, f := range forms {
		words[i] = Token{Form: f}
	}
	s.Reset(words)
	return s
}

func TestOmnipresentFeatureAlwaysPresent(t *testing.T) {
	set := NewSet()
	set.Processors = append(set.Processors, &windowedProc{name: "Form", km: newKeyMap(0), field: func(t Token) string { return t.Form }})
	s := newTestSentence("Praha", "je", "hlavni", "mesto")
	set.ProcessSentence(s, true)
	for i := 0; i < s.Size; i++ {
		if s.State[i].Features[0] != 0 {
			t.Errorf("token %d: feature id 0 must be first/present, got %v", i, s.State[i].Features)
		}
	}
}

func TestFormWindowEmission(t *testing.T) {
	p := &windowedProc{name: "Form", km: newKeyMap(1), field: func(t Token) string { return t.Form }}
	s := newTestSentence("a", "b", "c")
	var total uint32 = 1
	p.ProcessSentence(s, &total)

	// "b" at position 1 should contribute to positions 0, 1, 2 (window=1).
	baseB, ok := p.km.ids["b"]
	if !ok {
		t.Fatalf("expected key \"b\" to be registered")
	}
	for pos, offset := range map[int]int{0: -1, 1: 0, 2: 1} {
		want := uint32(int(baseB) + offset)
		found := false
		for _, f := range s.State[pos].Features {
			if f == want {
				found = true
			}
		}
		if !found {
			t.Errorf("token %d: expected feature %d (from \"b\" at offset %d) in %v", pos, want, offset, s.State[pos].Features)
		}
	}
}

func TestAllocationRuleClaimsTwoWindowPlusOneIds(t *testing.T) {
	km := newKeyMap(2)
	var total uint32 = 5
	base, ok := km.lookup("x", &total)
	if !ok {
		t.Fatalf("lookup should succeed while adding")
	}
	if base != 5+2 {
		t.Errorf("base = %d, want %d (total+window)", base, 7)
	}
	if total != 5+uint32(2*2+1) {
		t.Errorf("total after claim = %d, want %d", total, 10)
	}
}

func TestInferenceDropsUnknownKeys(t *testing.T) {
	p := &windowedProc{name: "Form", km: newKeyMap(0), field: func(t Token) string { return t.Form }}
	s := newTestSentence("unseen")
	p.ProcessSentence(s, nil) // adding == nil: inference mode
	if len(s.State[0].Features) != 0 {
		t.Errorf("expected no features for an unseen key at inference, got %v", s.State[0].Features)
	}
}
