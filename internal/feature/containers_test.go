package feature

import "testing"

func TestCzechAddContainersScenario4(t *testing.T) {
	entities := []Entity{
		{Start: 0, Length: 1, Type: "pf"},
		{Start: 1, Length: 1, Type: "pf"},
		{Start: 2, Length: 1, Type: "ps"},
		{Start: 3, Length: 1, Type: "ps"},
	}
	p := &czechAddContainers{}
	buffer := append([]Entity(nil), entities...)
	got := p.ProcessEntities(nil, entities, buffer)

	if len(got) != len(entities)+1 {
		t.Fatalf("expected primitives preserved plus one container, got %d entities: %+v", len(got), got)
	}
	var container *Entity
	for i := range got {
		if got[i].Type == "P" {
			container = &got[i]
		}
	}
	if container == nil {
		t.Fatalf("expected a P container entity, got %+v", got)
	}
	if container.Start != 0 || container.Length != 4 {
		t.Errorf("container = %+v, want start=0 length=4", *container)
	}
}

func TestCzechAddContainersNonContiguousDoesNotMerge(t *testing.T) {
	entities := []Entity{
		{Start: 0, Length: 1, Type: "pf"},
		{Start: 5, Length: 1, Type: "ps"}, // not contiguous
	}
	p := &czechAddContainers{}
	got := p.ProcessEntities(nil, entities, append([]Entity(nil), entities...))
	if len(got) != len(entities) {
		t.Fatalf("expected no container merge across a gap, got %+v", got)
	}
}
