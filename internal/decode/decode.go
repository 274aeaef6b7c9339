// Package decode implements the per-sentence BILOU global decoder: a
// restricted first-order dynamic program over the five-state BILOU
// automaton with illegal transitions masked by construction, a
// partition-rescaling step that keeps the {B,I} and {L,O,U} maxima
// commensurable after each update, and the back-trace/span-extraction
// that turns the winning path into named entities.
package decode

import (
	"math"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/feature"
)

// Init seeds the global record at the first token of a sentence: I and
// L cannot start a sentence so their probability is forced to zero,
// and best is the arg-max over {B, O, U} with ties resolved B, then O,
// then U.
func Init(local feature.LocalProbs) feature.GlobalProbs {
	var g feature.GlobalProbs
	g.Local = local
	g.Local[bilou.TagI] = feature.ProbInfo{Entity: local[bilou.TagI].Entity}
	g.Local[bilou.TagL] = feature.ProbInfo{Entity: local[bilou.TagL].Entity}

	best := bilou.TagB
	if g.Local[bilou.TagO].Prob > g.Local[best].Prob {
		best = bilou.TagO
	}
	if g.Local[bilou.TagU].Prob > g.Local[best].Prob {
		best = bilou.TagU
	}
	g.Best = best
	return g
}

// Update advances the decoder from the previous token's global record
// to the current token's, given the current token's local
// probabilities. See spec §4.7 for the seven numbered steps this
// implements verbatim.
func Update(prev feature.GlobalProbs, local feature.LocalProbs) feature.GlobalProbs {
	argLOU := bilou.TagL
	for _, t := range [...]bilou.Tag{bilou.TagO, bilou.TagU} {
		if prev.Local[t].Prob > prev.Local[argLOU].Prob {
			argLOU = t
		}
	}
	bestLOU := prev.Local[argLOU].Prob

	argBI := bilou.TagB
	if prev.Local[bilou.TagI].Prob > prev.Local[bilou.TagB].Prob {
		argBI = bilou.TagI
	}
	bestBI := prev.Local[argBI].Prob

	if m := math.Max(bestLOU, bestBI); m > 0 {
		bestLOU /= m
		bestBI /= m
	}

	var g feature.GlobalProbs
	g.Local[bilou.TagB] = feature.ProbInfo{Prob: bestLOU * local[bilou.TagB].Prob, Entity: local[bilou.TagB].Entity}
	g.Previous[bilou.TagB] = argLOU

	carriedEntity := prev.Local[argBI].Entity
	g.Local[bilou.TagI] = feature.ProbInfo{Prob: bestBI * local[bilou.TagI].Prob, Entity: carriedEntity}
	g.Previous[bilou.TagI] = argBI
	g.Local[bilou.TagL] = feature.ProbInfo{Prob: bestBI * local[bilou.TagL].Prob, Entity: carriedEntity}
	g.Previous[bilou.TagL] = argBI

	g.Local[bilou.TagO] = feature.ProbInfo{Prob: bestLOU * local[bilou.TagO].Prob, Entity: local[bilou.TagO].Entity}
	g.Previous[bilou.TagO] = argLOU
	g.Local[bilou.TagU] = feature.ProbInfo{Prob: bestLOU * local[bilou.TagU].Prob, Entity: local[bilou.TagU].Entity}
	g.Previous[bilou.TagU] = argLOU

	best := bilou.TagB
	for _, t := range [...]bilou.Tag{bilou.TagI, bilou.TagL, bilou.TagO, bilou.TagU} {
		if g.Local[t].Prob > g.Local[best].Prob {
			best = t
		}
	}
	g.Best = best
	return g
}

// BestPath back-traces a full sentence's global records into the
// winning per-token BILOU tag sequence. The terminal tag is
// constrained to {L, O, U} since an entity cannot be left open at the
// end of a sentence; the walk then follows each token's Previous
// pointer back to position 0.
func BestPath(globals []feature.GlobalProbs) []bilou.Tag {
	n := len(globals)
	if n == 0 {
		return nil
	}
	last := globals[n-1]
	final := bilou.TagL
	for _, t := range [...]bilou.Tag{bilou.TagO, bilou.TagU} {
		if last.Local[t].Prob > last.Local[final].Prob {
			final = t
		}
	}

	tags := make([]bilou.Tag, n)
	tags[n-1] = final
	for i := n - 1; i > 0; i-- {
		tags[i-1] = globals[i].Previous[tags[i]]
	}
	return tags
}

// ExtractSpans scans a decoded tag sequence left to right and emits
// named entities: a U at position i is a length-1 span; a B begins a
// span that extends through any following I and the first L (or to the
// end of the sentence if none arrives, per the boundary rule that a B
// without a closing L is still closed at end-of-sentence).
func ExtractSpans(tags []bilou.Tag, globals []feature.GlobalProbs, entities *bilou.EntityMap) []feature.Entity {
	var out []feature.Entity
	n := len(tags)
	for i := 0; i < n; {
		switch tags[i] {
		case bilou.TagU:
			id := globals[i].Local[bilou.TagU].Entity
			out = append(out, feature.Entity{Start: i, Length: 1, Type: entities.Name(id)})
			i++
		case bilou.TagB:
			id := globals[i].Local[bilou.TagB].Entity
			start := i
			i++
			for i < n && tags[i] == bilou.TagI {
				i++
			}
			if i < n && tags[i] == bilou.TagL {
				i++
			}
			out = append(out, feature.Entity{Start: start, Length: i - start, Type: entities.Name(id)})
		default:
			i++
		}
	}
	return out
}
