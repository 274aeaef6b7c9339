// Package classifier implements the network classifier: a
// direct-connection log-linear (maximum-entropy) layer with an
// optional single-hidden-layer MLP on top, producing a softmax
// distribution over BILOU×entity outcomes for one token's feature
// vector.
package classifier

import (
	"fmt"
	"math"

	"github.com/screenager/nertag/internal/codec"
)

// Network is one stage's trained classifier.
type Network struct {
	// Direct connections: Indices[f] is the sorted, unique list of
	// outcome ids feature f can fire; Weights[f] is parallel to it.
	Indices [][]uint32
	Weights [][]float32

	MissingWeight float64

	// Hidden layer, optional (HiddenSize == 0 disables it).
	HiddenSize int
	HiddenW0   [][]float32 // [feature][hidden]
	HiddenW1   [][]float32 // [hidden][outcome]

	OutputSize int
}

// Classify runs propagate followed by an in-place softmax and returns
// the outcome distribution. buffer is reused across calls if it has
// sufficient capacity (the caller's pooled scratch); pass nil to
// allocate fresh.
func (n *Network) Classify(features []uint32, buffer []float64) []float64 {
	out := n.propagate(features, buffer)
	softmaxNoShift(out)
	return out
}

func (n *Network) propagate(features []uint32, out []float64) []float64 {
	if cap(out) < n.OutputSize {
		out = make([]float64, n.OutputSize)
	}
	out = out[:n.OutputSize]

	baseline := float64(len(features)) * n.MissingWeight
	for o := range out {
		out[o] = baseline
	}

	for _, f := range features {
		if int(f) >= len(n.Indices) {
			continue // out-of-range feature id: defensively dropped
		}
		indices := n.Indices[f]
		weights := n.Weights[f]
		for k, o := range indices {
			out[o] += float64(weights[k]) - n.MissingWeight
		}
	}

	if n.HiddenSize > 0 {
		hidden := make([]float64, n.HiddenSize)
		for _, f := range features {
			if int(f) >= len(n.HiddenW0) {
				continue
			}
			row := n.HiddenW0[f]
			for k := 0; k < n.HiddenSize && k < len(row); k++ {
				hidden[k] += float64(row[k])
			}
		}
		for k := range hidden {
			hidden[k] = logisticSigmoid(hidden[k])
		}
		for k, h := range hidden {
			if k >= len(n.HiddenW1) {
				break
			}
			row := n.HiddenW1[k]
			for o := 0; o < n.OutputSize && o < len(row); o++ {
				out[o] += h * float64(row[o])
			}
		}
	}

	return out
}

func logisticSigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// softmaxNoShift computes softmax without the usual max-subtraction
// stabilisation, matching the source exactly: exponentials are taken
// directly, then the reciprocal sum is multiplied through. Trained
// models keep logits bounded so this does not overflow in practice;
// a degenerate (e.g. adversarially crafted) model could produce NaN
// here, which is why BestOutcome treats NaN defensively.
func softmaxNoShift(out []float64) {
	sum := 0.0
	for i, v := range out {
		e := math.Exp(v)
		out[i] = e
		sum += e
	}
	if sum == 0 || math.IsNaN(sum) {
		return // leave out as-is; BestOutcome is defensive against this
	}
	inv := 1.0 / sum
	for i := range out {
		out[i] *= inv
	}
}

// BestOutcome returns the arg-max outcome id. Ties (and NaN, which
// never compares greater than anything) resolve to the lowest index.
func BestOutcome(out []float64) uint32 {
	best := 0
	for i := 1; i < len(out); i++ {
		if out[i] > out[best] {
			best = i
		}
	}
	return uint32(best)
}

// Load reads a classifier from the model stream: indices (4-byte row
// count, then per row a 2-byte length + that many 4-byte ids),
// missing_weight (8-byte double), weights (same shape as indices, but
// 4-byte floats), hidden_size (2-byte), optional hidden matrices, and
// output_size (2-byte).
func (n *Network) Load(d *codec.Decoder) error {
	n.Indices = loadU32Matrix(d)
	n.MissingWeight = d.NextDouble()
	n.Weights = loadF32Matrix(d)
	if len(n.Indices) != len(n.Weights) {
		return fmt.Errorf("%w: indices/weights row count mismatch", codec.ErrTruncated)
	}
	for i := range n.Indices {
		if len(n.Indices[i]) != len(n.Weights[i]) {
			return fmt.Errorf("%w: indices/weights row %d length mismatch", codec.ErrTruncated, i)
		}
		if !sortedUnique(n.Indices[i]) {
			return fmt.Errorf("%w: indices row %d is not sorted/unique", codec.ErrTruncated, i)
		}
	}

	n.HiddenSize = int(d.Next2B())
	if n.HiddenSize > 0 {
		n.HiddenW0 = loadF32Matrix(d)
		n.HiddenW1 = loadF32Matrix(d)
	}
	n.OutputSize = int(d.Next2B())
	return d.Err()
}

// Save writes a classifier in the format Load expects.
func (n *Network) Save(e *codec.Encoder) {
	saveU32Matrix(e, n.Indices)
	e.AddDouble(n.MissingWeight)
	saveF32Matrix(e, n.Weights)
	e.Add2B(uint16(n.HiddenSize))
	if n.HiddenSize > 0 {
		saveF32Matrix(e, n.HiddenW0)
		saveF32Matrix(e, n.HiddenW1)
	}
	e.Add2B(uint16(n.OutputSize))
}

func sortedUnique(ids []uint32) bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return false
		}
	}
	return true
}

func loadU32Matrix(d *codec.Decoder) [][]uint32 {
	rows := d.Next4B()
	m := make([][]uint32, rows)
	for i := range m {
		n := int(d.Next2B())
		row := make([]uint32, n)
		for j := range row {
			row[j] = d.Next4B()
		}
		m[i] = row
	}
	return m
}

func saveU32Matrix(e *codec.Encoder, m [][]uint32) {
	e.Add4B(uint32(len(m)))
	for _, row := range m {
		e.Add2B(uint16(len(row)))
		for _, v := range row {
			e.Add4B(v)
		}
	}
}

func loadF32Matrix(d *codec.Decoder) [][]float32 {
	rows := d.Next4B()
	m := make([][]float32, rows)
	for i := range m {
		n := int(d.Next2B())
		row := make([]float32, n)
		for j := range row {
			row[j] = d.NextFloat()
		}
		m[i] = row
	}
	return m
}

func saveF32Matrix(e *codec.Encoder, m [][]float32) {
	e.Add4B(uint32(len(m)))
	for _, row := range m {
		e.Add2B(uint16(len(row)))
		for _, v := range row {
			e.AddFloat(v)
		}
	}
}
