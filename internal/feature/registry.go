package feature

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/screenager/nertag/internal/bilou"
	"github.com/screenager/nertag/internal/codec"
)

// Processor is the unified interface every sentence-feature processor
// and entity post-processor implements. A pure sentence-feature
// processor's ProcessEntities is a no-op; a pure entity post-processor's
// ProcessSentence is a no-op. Most built-ins are one or the other, never
// both, mirroring the source's class hierarchy collapsed into a single
// Go interface per the "tagged variant, two operations" design.
type Processor interface {
	// Name is the template-DSL name this processor was registered
	// under (e.g. "Form", "GazetteersEnhanced").
	Name() string

	// ProcessSentence emits features into every token's feature list.
	// adding is non-nil only while building a model (new keys may be
	// admitted); it is nil at inference (unknown keys are dropped).
	ProcessSentence(s *Sentence, adding *uint32)

	// ProcessEntities appends any additional entities this
	// post-processor derives from the current list to buffer and
	// returns the (possibly unmodified) buffer.
	ProcessEntities(s *Sentence, entities []Entity, buffer []Entity) []Entity

	Load(d *codec.Decoder) error
	Save(e *codec.Encoder)
}

// Factory builds one Processor instance from a parsed template line.
type Factory func(window int, args []string, entities *bilou.EntityMap) (Processor, error)

// EmptyFactory builds a zero-value Processor for Load to populate via
// Processor.Load. Most built-ins ignore window/args entirely, so their
// ordinary Factory already doubles as this; only a processor whose
// Factory validates args (and so cannot be called with window=0,
// args=nil while loading a saved model) needs to register one.
type EmptyFactory func() Processor

var factories = map[string]Factory{}
var emptyFactories = map[string]EmptyFactory{}

// Register adds a processor factory to the global catalogue. Called
// from init() in the files that define each built-in processor.
func Register(name string, f Factory) {
	factories[name] = f
}

// RegisterEmpty adds a zero-value constructor used only by Load, for a
// processor whose ordinary Factory rejects the window=0/args=nil call
// Load would otherwise make. Call it from the same init() as Register.
func RegisterEmpty(name string, f EmptyFactory) {
	emptyFactories[name] = f
}

// Set is the feature-template registry: the ordered list of
// processors built from a template file, plus the monotone
// total_features counter every processor's key maps draw ids from.
type Set struct {
	Processors    []Processor
	TotalFeatures uint32
}

// NewSet returns an empty, writable Set. Id 0 (the omnipresent
// feature) is reserved by convention: TotalFeatures starts at 1 so no
// processor ever claims it.
func NewSet() *Set {
	return &Set{TotalFeatures: 1}
}

// Parse reads a template-DSL stream: one template per line, `#` starts
// a comment, blank lines are ignored. Grammar: `Name[/window] arg1 arg2
// …`, split on spaces. Unknown names are a fatal configuration error
// naming the offending line.
func (set *Set) Parse(r io.Reader, entities *bilou.EntityMap) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		head := fields[0]
		args := fields[1:]

		name := head
		window := 0
		if idx := strings.IndexByte(head, '/'); idx >= 0 {
			name = head[:idx]
			w, err := strconv.Atoi(head[idx+1:])
			if err != nil || w < 0 {
				return fmt.Errorf("feature: line %d: invalid window in %q", lineNo, head)
			}
			window = w
		}

		factory, ok := factories[name]
		if !ok {
			return fmt.Errorf("feature: line %d: unknown template %q", lineNo, name)
		}
		proc, err := factory(window, args, entities)
		if err != nil {
			return fmt.Errorf("feature: line %d: %w", lineNo, err)
		}
		set.Processors = append(set.Processors, proc)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feature: reading templates: %w", err)
	}
	return nil
}

// ProcessSentence resets every token's features to just the
// omnipresent id 0, then invokes every processor's ProcessSentence in
// registration order. local_filled is not touched here (the caller
// clears it with Sentence.ClearStageState). adding is false at
// inference.
func (set *Set) ProcessSentence(s *Sentence, adding bool) {
	var totalPtr *uint32
	if adding {
		totalPtr = &set.TotalFeatures
	}
	for i := 0; i < s.Size; i++ {
		state := &s.State[i]
		state.Features = append(state.Features[:0], 0)
	}
	for _, p := range set.Processors {
		p.ProcessSentence(s, totalPtr)
	}
}

// ProcessEntities runs every post-processor in registration order. Per
// processor: it appends to a buffer seeded with the current entity
// list, and the current list is replaced by that buffer only if the
// buffer is strictly longer (the "container" idiom), so each pass sees
// any container entities the previous passes added.
func (set *Set) ProcessEntities(s *Sentence, entities []Entity) []Entity {
	for _, p := range set.Processors {
		buffer := append([]Entity(nil), entities...)
		result := p.ProcessEntities(s, entities, buffer)
		if len(result) > len(entities) {
			entities = result
		}
	}
	return entities
}

// Load reads total_features, a 4-byte processor count, then for each
// processor a 1-byte name length + name string followed by the
// processor's own serialised state. Each processor is built with its
// RegisterEmpty constructor if it has one, otherwise by calling its
// factory with a zero window/args, and then Load-ed over.
func (set *Set) Load(d *codec.Decoder, entities *bilou.EntityMap) error {
	set.TotalFeatures = d.Next4B()
	count := d.Next4B()
	set.Processors = make([]Processor, 0, count)
	for i := uint32(0); i < count; i++ {
		name := d.NextStr()
		var proc Processor
		if empty, ok := emptyFactories[name]; ok {
			proc = empty()
		} else {
			factory, ok := factories[name]
			if !ok {
				return fmt.Errorf("%w: unknown template %q in saved model", codec.ErrTruncated, name)
			}
			p, err := factory(0, nil, entities)
			if err != nil {
				return fmt.Errorf("feature: reconstructing %q: %w", name, err)
			}
			proc = p
		}
		if err := proc.Load(d); err != nil {
			return fmt.Errorf("feature: loading %q: %w", name, err)
		}
		set.Processors = append(set.Processors, proc)
	}
	return d.Err()
}

// Save writes the Set in the format Load expects.
func (set *Set) Save(e *codec.Encoder) {
	e.Add4B(set.TotalFeatures)
	e.Add4B(uint32(len(set.Processors)))
	for _, p := range set.Processors {
		e.AddStr(p.Name())
		p.Save(e)
	}
}
