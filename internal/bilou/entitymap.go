package bilou

import "github.com/screenager/nertag/internal/codec"

// EntityMap is the bidirectional interning table between entity-type
// names (e.g. "pf", "P", "gu") and the small integer ids the rest of
// the pipeline carries around. Ids are assigned in insertion order and
// frozen once the model is saved; at inference time Parse is called
// with add=false so unrecognised names surface as EntityUnknown rather
// than mutating the table.
type EntityMap struct {
	names []string
	ids   map[string]uint32
}

// NewEntityMap returns an empty, writable entity map.
func NewEntityMap() *EntityMap {
	return &EntityMap{ids: make(map[string]uint32)}
}

// Parse looks up name, optionally admitting it as a new id when add is
// true. It returns EntityUnknown when name is unknown and add is false.
func (m *EntityMap) Parse(name string, add bool) uint32 {
	if id, ok := m.ids[name]; ok {
		return id
	}
	if !add {
		return EntityUnknown
	}
	id := uint32(len(m.names))
	m.names = append(m.names, name)
	m.ids[name] = id
	return id
}

// Name returns the name registered for id, or "" if id is out of range.
func (m *EntityMap) Name(id uint32) string {
	if int(id) >= len(m.names) {
		return ""
	}
	return m.names[id]
}

// Size returns the number of distinct entity types registered.
func (m *EntityMap) Size() int {
	return len(m.names)
}

// Names returns all registered entity-type names, in id order.
func (m *EntityMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Load reads a 4-byte count followed by that many 1-byte-length-prefixed
// UTF-8 strings, replacing the map's contents.
func (m *EntityMap) Load(d *codec.Decoder) error {
	count := d.Next4B()
	m.names = make([]string, 0, count)
	m.ids = make(map[string]uint32, count)
	for i := uint32(0); i < count; i++ {
		name := d.NextStr()
		m.names = append(m.names, name)
		m.ids[name] = uint32(i)
	}
	return d.Err()
}

// Save writes the map in the format Load expects: a 4-byte count, then
// each name as a 1-byte length prefix followed by its UTF-8 bytes.
func (m *EntityMap) Save(e *codec.Encoder) {
	e.Add4B(uint32(len(m.names)))
	for _, name := range m.names {
		e.AddStr(name)
	}
}
