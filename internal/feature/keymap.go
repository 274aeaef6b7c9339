package feature

import (
	"sort"

	"github.com/screenager/nertag/internal/codec"
)

// keyMap is the key -> base_id table shared by every windowed
// sentence-feature processor. A new key claims the next 2*window+1 ids
// centred at total+window; total is then bumped by that amount. During
// inference `total` is nil and unknown keys simply miss.
type keyMap struct {
	window int
	ids    map[string]uint32
}

func newKeyMap(window int) *keyMap {
	return &keyMap{window: window, ids: make(map[string]uint32)}
}

// lookup returns (base_id, true) if key is known or newly admitted
// (adding != nil), or (0, false) if key is unknown at inference.
func (m *keyMap) lookup(key string, adding *uint32) (uint32, bool) {
	if id, ok := m.ids[key]; ok {
		return id, true
	}
	if adding == nil {
		return 0, false
	}
	base := *adding + uint32(m.window)
	m.ids[key] = base
	*adding += uint32(2*m.window + 1)
	return base, true
}

// lookupOneDirectional is the allocation rule for one-directional
// templates (PreviousStage): a new key claims exactly `window` ids
// starting at total, with no centred offset.
func (m *keyMap) lookupOneDirectional(key string, adding *uint32) (uint32, bool) {
	if id, ok := m.ids[key]; ok {
		return id, true
	}
	if adding == nil {
		return 0, false
	}
	base := *adding
	m.ids[key] = base
	*adding += uint32(m.window)
	return base, true
}

func (m *keyMap) load(d *codec.Decoder) {
	m.window = int(d.Next2B())
	count := d.Next4B()
	m.ids = make(map[string]uint32, count)
	for i := uint32(0); i < count; i++ {
		key := d.NextStr4()
		id := d.Next4B()
		m.ids[key] = id
	}
}

func (m *keyMap) save(e *codec.Encoder) {
	e.Add2B(uint16(m.window))
	keys := make([]string, 0, len(m.ids))
	for k := range m.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.Add4B(uint32(len(keys)))
	for _, k := range keys {
		e.AddStr4(k)
		e.Add4B(m.ids[k])
	}
}
