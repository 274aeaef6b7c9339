// Package feature implements the sentence data model, the feature
// template registry and the catalogue of sentence-feature and
// entity-post processors the rest of the engine drives per stage.
package feature

import "github.com/screenager/nertag/internal/bilou"

// Token is one tagged word: the raw form plus whatever the external
// tokenizer/tagger collaborator attached to it. The engine never
// mutates a Token after the sentence is built for a recognize call.
type Token struct {
	Form          string
	RawLemma      string
	RawLemmasAll  []string
	LemmaID       uint32
	LemmaComments string
	Tag           string
}

// ProbInfo is a (probability, entity) pair: the probability mass
// assigned to one BILOU tag, and the entity id that achieves it.
type ProbInfo struct {
	Prob   float64
	Entity uint32
}

// LocalProbs holds one ProbInfo per BILOU tag, indexed by bilou.Tag
// (B, I, L, O, U — TagUnknown is never a valid index here).
type LocalProbs [5]ProbInfo

// GlobalProbs is the local record plus the decoder's running best tag
// and, per tag, the predecessor tag chosen when extending a path that
// ends in it.
type GlobalProbs struct {
	Local    LocalProbs
	Best     bilou.Tag
	Previous [5]bilou.Tag
}

// TokenState is the per-token mutable scratch the stage orchestrator
// fills in: the feature ids fired for this token at the current stage,
// its local/global BILOU probabilities, and whether local has already
// been authoritatively set (by a gazetteer HardPre match or the
// URL/email detector) so the classifier must not overwrite it.
type TokenState struct {
	Features    []uint32
	Local       LocalProbs
	LocalFilled bool
	Global      GlobalProbs
}

// PrevStage records the decoded (tag, entity) pair a prior stage
// produced for a token, fed forward as a feature to the next stage.
type PrevStage struct {
	Tag    bilou.Tag
	Entity uint32
}

// Entity is a decoded named-entity span: a token-index start, a
// token-count length (>= 1), and an entity-type name.
type Entity struct {
	Start  int
	Length int
	Type   string
}

// Sentence is the per-call scratch structure threaded through one
// recognize invocation. Capacity (the backing arrays of Words, State
// and PrevStage) is retained across calls by the cache pool so repeated
// calls on differently-sized sentences don't reallocate on every call;
// Size is the number of entries that are currently valid.
type Sentence struct {
	Words     []Token
	State     []TokenState
	PrevStage []PrevStage
	Size      int
}

// Reset resizes the sentence to hold n tokens, growing backing slices
// as needed but never shrinking their capacity, and copies words in.
func (s *Sentence) Reset(words []Token) {
	n := len(words)
	s.Size = n
	if cap(s.Words) < n {
		s.Words = make([]Token, n)
	}
	s.Words = s.Words[:n]
	copy(s.Words, words)

	if cap(s.State) < n {
		s.State = make([]TokenState, n)
	}
	s.State = s.State[:n]

	if cap(s.PrevStage) < n {
		s.PrevStage = make([]PrevStage, n)
	}
	s.PrevStage = s.PrevStage[:n]
}

// ClearPreviousStage sets every PrevStage entry back to unknown, run
// once at the start of a recognize call before the first stage.
func (s *Sentence) ClearPreviousStage() {
	for i := 0; i < s.Size; i++ {
		s.PrevStage[i] = PrevStage{Tag: bilou.TagUnknown, Entity: bilou.EntityUnknown}
	}
}

// ClearStageState clears features and local_filled for every token,
// run at the start of each stage. Note this clears State[i] in place —
// the original source's equivalent loop mistakenly cleared the whole
// features vector on every iteration instead of indexing it; this
// clears exactly one token's state per iteration, which is the
// intended behaviour.
func (s *Sentence) ClearStageState() {
	for i := 0; i < s.Size; i++ {
		if s.State[i].Features != nil {
			s.State[i].Features = s.State[i].Features[:0]
		}
		s.State[i].LocalFilled = false
		s.State[i].Global = GlobalProbs{}
	}
}

// AppendFeature appends a feature id to token i's feature list, if i is
// in range. Out-of-range indices (from window emission at the
// sentence's edges) are silently dropped.
func (s *Sentence) AppendFeature(i int, id uint32) {
	if i < 0 || i >= s.Size {
		return
	}
	s.State[i].Features = append(s.State[i].Features, id)
}

// ApplyInWindow appends base+w to token i+w's features for every w in
// [-window, window] that lands inside the sentence.
func (s *Sentence) ApplyInWindow(i, window int, base uint32) {
	s.ApplyInRange(i, window, base, 0, s.Size-1)
}

// ApplyInRange restricts ApplyInWindow's emission to [lo, hi] inclusive.
func (s *Sentence) ApplyInRange(i, window int, base uint32, lo, hi int) {
	for w := -window; w <= window; w++ {
		pos := i + w
		if pos < lo || pos > hi {
			continue
		}
		s.AppendFeature(pos, uint32(int(base)+w))
	}
}

// ApplyOuterWordsInWindow emits the empty-key (padding) feature as if
// the sentence were padded with synthetic positions at -1..-window and
// size..size+window-1, for every real position that falls within
// window of an edge.
func (s *Sentence) ApplyOuterWordsInWindow(window int, base uint32) {
	for w := 1; w <= window; w++ {
		// A synthetic position at -w contributes to real positions
		// [-w-window, -w+window] intersected with [0, size); similarly
		// for size-1+w on the right edge.
		s.ApplyInRange(-w, window, base, 0, s.Size-1)
		s.ApplyInRange(s.Size-1+w, window, base, 0, s.Size-1)
	}
}
