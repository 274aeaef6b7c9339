package bilou

import "testing"

func TestOutcomeRoundTrip(t *testing.T) {
	const entities = 5
	total := TotalOutcomes(entities)
	if total != 3+2*entities {
		t.Fatalf("TotalOutcomes(%d) = %d, want %d", entities, total, 3+2*entities)
	}
	for x := 0; x < total; x++ {
		tag := GetBilou(Outcome(x))
		ent := GetEntity(Outcome(x))
		got := FromBilouEntity(tag, ent)
		if got != Outcome(x) {
			t.Errorf("round trip broke at outcome %d: tag=%v entity=%d -> %d", x, tag, ent, got)
		}
	}
}

func TestScenario5Encoding(t *testing.T) {
	// |entities| = 2, total outcomes = 7.
	if got := TotalOutcomes(2); got != 7 {
		t.Fatalf("TotalOutcomes(2) = %d, want 7", got)
	}
	cases := []struct {
		tag    Tag
		entity uint32
		want   Outcome
	}{
		{TagI, EntityUnknown, 0},
		{TagL, EntityUnknown, 1},
		{TagO, EntityUnknown, 2},
		{TagB, 0, 3},
		{TagU, 0, 4},
		{TagB, 1, 5},
		{TagU, 1, 6},
	}
	for _, c := range cases {
		if got := FromBilouEntity(c.tag, c.entity); got != c.want {
			t.Errorf("FromBilouEntity(%v, %d) = %d, want %d", c.tag, c.entity, got, c.want)
		}
	}
	if got := GetBilou(5); got != TagB {
		t.Errorf("GetBilou(5) = %v, want B", got)
	}
	if got := GetEntity(5); got != 1 {
		t.Errorf("GetEntity(5) = %d, want 1", got)
	}
}
