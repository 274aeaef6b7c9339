package classifier

import (
	"math"
	"testing"

	"github.com/screenager/nertag/internal/codec"
)

func TestClassifyDirectConnectionOnly(t *testing.T) {
	n := &Network{
		Indices:       [][]uint32{{0, 1}, {1, 2}},
		Weights:       [][]float32{{2.0, 0.5}, {1.0, 3.0}},
		MissingWeight: 0.1,
		OutputSize:    3,
	}
	out := n.Classify([]uint32{0, 1}, nil)
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("softmax output should sum to 1, got %v (%v)", sum, out)
	}
}

func TestBestOutcomeTiesToLowestIndex(t *testing.T) {
	out := []float64{0.3, 0.3, 0.3}
	if got := BestOutcome(out); got != 0 {
		t.Errorf("BestOutcome on a tie = %d, want 0", got)
	}
	out = []float64{0.1, 0.5, 0.4}
	if got := BestOutcome(out); got != 1 {
		t.Errorf("BestOutcome = %d, want 1", got)
	}
}

func TestOutOfRangeFeatureDropped(t *testing.T) {
	n := &Network{
		Indices:       [][]uint32{{0}},
		Weights:       [][]float32{{5.0}},
		MissingWeight: 0,
		OutputSize:    2,
	}
	// Feature id 7 is out of range (only 1 row of indices) and must
	// contribute nothing rather than panicking.
	out := n.Classify([]uint32{0, 7}, nil)
	if len(out) != 2 {
		t.Fatalf("unexpected output size %d", len(out))
	}
}

func TestHiddenLayerContributes(t *testing.T) {
	n := &Network{
		Indices:       [][]uint32{{0}},
		Weights:       [][]float32{{0}},
		MissingWeight: 0,
		HiddenSize:    2,
		HiddenW0:      [][]float32{{1.0, -1.0}},
		HiddenW1:      [][]float32{{1.0, 0.0}, {0.0, 1.0}},
		OutputSize:    2,
	}
	out := n.Classify([]uint32{0}, nil)
	if out[0] == out[1] {
		t.Errorf("hidden layer should break symmetry between outcomes, got %v", out)
	}
}

func TestLoadRejectsUnsortedIndices(t *testing.T) {
	e := codec.NewEncoder()
	e.Add4B(1)       // one row
	e.Add2B(2)       // two entries
	e.Add4B(5)       // out of order: 5 then 3
	e.Add4B(3)
	e.AddDouble(0)   // missing_weight
	e.Add4B(1)       // weights: one row
	e.Add2B(2)
	e.AddFloat(1)
	e.AddFloat(1)
	e.Add2B(0) // hidden_size
	e.Add2B(3) // output_size

	n := &Network{}
	if err := n.Load(codec.NewDecoder(e.Bytes())); err == nil {
		t.Fatalf("expected unsorted indices row to be rejected")
	}
}
