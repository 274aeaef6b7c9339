package feature

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

// GazMode is a gazetteer entry's match mode. HardPre overrides whatever
// the classifier would have said for the matched span; HardPost
// inserts a synthetic entity during post-processing if nothing already
// covers the span; Soft only contributes features.
type GazMode uint8

const (
	GazSoft GazMode = iota
	GazHardPre
	GazHardPost
)

// gazMatchField selects which token field a gazetteer matches against.
type gazMatchField uint8

const (
	matchForm gazMatchField = iota
	matchRawLemma
	matchRawLemmas
)

// Trie is a node-indexed prefix tree over recased token strings. Node 0
// is always the root, per the data-model invariant.
type Trie struct {
	children []map[string]int32
	terminal []bool
	mode     []GazMode
	entity   []uint32
}

func NewTrie() *Trie {
	return &Trie{
		children: []map[string]int32{{}},
		terminal: []bool{false},
		mode:     []GazMode{GazSoft},
		entity:   []uint32{bilou.EntityUnknown},
	}
}

func (t *Trie) newNode() int32 {
	t.children = append(t.children, map[string]int32{})
	t.terminal = append(t.terminal, false)
	t.mode = append(t.mode, GazSoft)
	t.entity = append(t.entity, bilou.EntityUnknown)
	return int32(len(t.children) - 1)
}

// recaseNative returns only the casings consistent with the observed
// case pattern of s — used when building the gazetteer from a curated
// list, so "Prague" does not also register as "prague" or "PRAGUE"
// unless the list spells it that way.
func recaseNative(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}
	firstUC := unicode.IsUpper(runes[0]) || unicode.IsTitle(runes[0])
	anyLower := false
	allUpper := true
	for _, r := range runes[1:] {
		if unicode.IsLower(r) {
			anyLower = true
		}
		if !unicode.IsUpper(r) && !unicode.IsTitle(r) {
			allUpper = false
		}
	}
	out := []string{s}
	if firstUC && anyLower {
		out = append(out, strings.ToLower(s))
	}
	if !firstUC && !anyLower {
		// all-lowercase source: also admit titlecase, a common gazetteer shorthand.
		out = append(out, titleCase(s))
	}
	if allUpper && firstUC {
		out = append(out, strings.ToLower(s), titleCase(s))
	}
	return dedupe(out)
}

// recaseAny returns every casing a sentence-side lookup should try: it
// is more permissive than recaseNative since running text carries
// incidental capitalisation (sentence-initial, all-caps headers) that
// shouldn't defeat a gazetteer match.
func recaseAny(s string) []string {
	return dedupe([]string{s, strings.ToLower(s), titleCase(s), strings.ToUpper(s)})
}

func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Insert adds one multi-token gazetteer entry. mode/entity merge onto
// an existing terminal per HardPre > HardPost > Soft priority, so a
// string appearing in both a hard and a soft list keeps its hard
// behaviour.
func (t *Trie) Insert(tokens []string, native bool, mode GazMode, entity uint32) {
	node := int32(0)
	recase := recaseAny
	if native {
		recase = recaseNative
	}
	for _, tok := range tokens {
		casings := recase(tok)
		var child int32 = -1
		for _, c := range casings {
			if existing, ok := t.children[node][c]; ok {
				child = existing
				break
			}
		}
		if child == -1 {
			child = t.newNode()
		}
		for _, c := range casings {
			t.children[node][c] = child
		}
		node = child
	}
	t.terminal[node] = true
	rank := map[GazMode]int{GazSoft: 0, GazHardPost: 1, GazHardPre: 2}
	if rank[mode] > rank[t.mode[node]] || !isMergeable(t, node) {
		t.mode[node] = mode
		t.entity[node] = entity
	}
}

func isMergeable(t *Trie, node int32) bool {
	return t.entity[node] == bilou.EntityUnknown
}

type gazMatch struct {
	start, end int // inclusive token indices
	node       int32
}

// walk finds the terminals reached by consuming tokens starting at i.
// At each token it tries the recasings of the sentence-side form in
// order and follows only the first one that has a child; other
// recasings that lead to a different child are not explored.
func (t *Trie) walk(s *Sentence, i int, field func(Token) []string) []gazMatch {
	var matches []gazMatch
	node := int32(0)
	for k := i; k < s.Size; k++ {
		var next int32 = -1
		for _, candidate := range field(s.Words[k]) {
			if child, ok := t.children[node][candidate]; ok {
				next = child
				break
			}
		}
		if next == -1 {
			break
		}
		node = next
		if t.terminal[node] {
			matches = append(matches, gazMatch{start: i, end: k, node: node})
		}
	}
	return matches
}

func matchField(f gazMatchField) func(Token) []string {
	switch f {
	case matchRawLemma:
		return func(t Token) []string { return recaseAny(t.RawLemma) }
	case matchRawLemmas:
		return func(t Token) []string {
			out := make([]string, 0, len(t.RawLemmasAll))
			for _, l := range t.RawLemmasAll {
				out = append(out, recaseAny(l)...)
			}
			return out
		}
	default:
		return func(t Token) []string { return recaseAny(t.Form) }
	}
}

// role returns the BILOU-position-specific role a gazetteer match
// contributes at token k within [start, end].
func gazRole(k, start, end int) string {
	switch {
	case start == end:
		return "U"
	case k == start:
		return "B"
	case k == end:
		return "L"
	default:
		return "I"
	}
}

// GazetteersEnhanced implements §4.5: trie matching with Soft,
// HardPre and HardPost modes, recasing, and feature emission tagged by
// BILOU role plus the generic role G.
type GazetteersEnhanced struct {
	field    gazMatchField
	trie     *Trie
	km       *keyMap // key = "<node> <role>"
	entities *bilou.EntityMap
}

func init() {
	Register("GazetteersEnhanced", func(w int, args []string, entities *bilou.EntityMap) (Processor, error) {
		field := matchForm
		if len(args) > 0 {
			switch args[0] {
			case "Form":
				field = matchForm
			case "RawLemma":
				field = matchRawLemma
			case "RawLemmas":
				field = matchRawLemmas
			default:
				return nil, fmt.Errorf("GazetteersEnhanced: unknown match field %q", args[0])
			}
		}
		// Every match emits at most one id per (node, role) key, directly
		// at the matched position — there is no window spread to centre,
		// so the key map claims exactly one id per key (one-directional,
		// window fixed at 1) regardless of any window the template line
		// names.
		return &GazetteersEnhanced{field: field, trie: NewTrie(), km: newKeyMap(1), entities: entities}, nil
	})
}

func (g *GazetteersEnhanced) Name() string { return "GazetteersEnhanced" }

// AddEntry registers one already-tokenised gazetteer string. Building
// a gazetteer from raw text requires the external tokenizer/tagger
// collaborator (out of scope per §1); callers that have access to one
// tokenise and tag first, then call AddEntry per resulting span.
func (g *GazetteersEnhanced) AddEntry(tokens []string, mode GazMode, entity uint32) {
	g.trie.Insert(tokens, true, mode, entity)
}

func (g *GazetteersEnhanced) ProcessSentence(s *Sentence, adding *uint32) {
	field := matchField(g.field)
	type hardCandidate struct {
		start, end int
		entity     uint32
		node       int32
	}
	bestPerStart := make(map[int]hardCandidate)

	for i := 0; i < s.Size; i++ {
		for _, m := range g.trie.walk(s, i, field) {
			for k := m.start; k <= m.end; k++ {
				if base, ok := g.km.lookupOneDirectional(keyStr(m.node, "G"), adding); ok {
					s.AppendFeature(k, base)
				}
				if base, ok := g.km.lookupOneDirectional(keyStr(m.node, gazRole(k, m.start, m.end)), adding); ok {
					s.AppendFeature(k, base)
				}
			}
			if g.trie.mode[m.node] == GazHardPre {
				length := m.end - m.start + 1
				if cur, ok := bestPerStart[m.start]; !ok || length > (cur.end-cur.start+1) || (length == (cur.end-cur.start+1) && m.node < cur.node) {
					bestPerStart[m.start] = hardCandidate{start: m.start, end: m.end, entity: g.trie.entity[m.node], node: m.node}
				}
			}
		}
	}

	for _, c := range bestPerStart {
		locked := false
		for k := c.start; k <= c.end; k++ {
			if s.State[k].LocalFilled {
				locked = true
				break
			}
		}
		if locked {
			continue
		}
		for k := c.start; k <= c.end; k++ {
			var local LocalProbs
			role := gazRole(k, c.start, c.end)
			tag := bilou.TagI
			switch role {
			case "U":
				tag = bilou.TagU
			case "B":
				tag = bilou.TagB
			case "L":
				tag = bilou.TagL
			}
			local[tag] = ProbInfo{Prob: 1.0, Entity: c.entity}
			s.State[k].Local = local
			s.State[k].LocalFilled = true
		}
	}
}

func keyStr(node int32, role string) string {
	return strconv.Itoa(int(node)) + " " + role
}

// ProcessEntities implements HardPost: any HardPost match whose span
// is not already covered by an existing entity is inserted.
func (g *GazetteersEnhanced) ProcessEntities(s *Sentence, entities []Entity, buffer []Entity) []Entity {
	field := matchField(g.field)
	covered := func(start, end int) bool {
		for _, e := range entities {
			if start >= e.Start && end < e.Start+e.Length {
				return true
			}
		}
		return false
	}
	for i := 0; i < s.Size; i++ {
		for _, m := range g.trie.walk(s, i, field) {
			if g.trie.mode[m.node] != GazHardPost {
				continue
			}
			if covered(m.start, m.end) {
				continue
			}
			typeName := ""
			if g.entities != nil {
				typeName = g.entities.Name(g.trie.entity[m.node])
			}
			buffer = append(buffer, Entity{Start: m.start, Length: m.end - m.start + 1, Type: typeName})
		}
	}
	return buffer
}

func (g *GazetteersEnhanced) Load(d *codec.Decoder) error {
	g.field = gazMatchField(d.Next1B())
	g.trie = loadTrie(d)
	g.km = newKeyMap(0)
	g.km.load(d)
	return d.Err()
}

func (g *GazetteersEnhanced) Save(e *codec.Encoder) {
	e.Add1B(uint8(g.field))
	saveTrie(e, g.trie)
	g.km.save(e)
}

func loadTrie(d *codec.Decoder) *Trie {
	n := d.Next4B()
	t := &Trie{
		children: make([]map[string]int32, n),
		terminal: make([]bool, n),
		mode:     make([]GazMode, n),
		entity:   make([]uint32, n),
	}
	for i := uint32(0); i < n; i++ {
		t.terminal[i] = d.Next1B() != 0
		t.mode[i] = GazMode(d.Next1B())
		t.entity[i] = d.Next4B()
		childCount := d.Next4B()
		t.children[i] = make(map[string]int32, childCount)
		for c := uint32(0); c < childCount; c++ {
			key := d.NextStr4()
			idx := int32(d.Next4B())
			t.children[i][key] = idx
		}
	}
	return t
}

func saveTrie(e *codec.Encoder, t *Trie) {
	e.Add4B(uint32(len(t.children)))
	for i := range t.children {
		if t.terminal[i] {
			e.Add1B(1)
		} else {
			e.Add1B(0)
		}
		e.Add1B(uint8(t.mode[i]))
		e.Add4B(t.entity[i])
		e.Add4B(uint32(len(t.children[i])))
		for k, v := range t.children[i] {
			e.AddStr4(k)
			e.Add4B(uint32(v))
		}
	}
}
