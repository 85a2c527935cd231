package babylon

// MessageKey identifies a message within one message file.
type MessageKey = string

// Language identifies a target locale (e.g. "cz", "de").
type Language = string

// Messages is an ordered message bundle for one (file, language) pair.
// Iteration order is insertion order, which follows the source file.
// A nil value means the key carries no text.
type Messages struct {
	keys   []MessageKey
	values map[MessageKey]*string
}

// NewMessages returns an empty bundle.
func NewMessages() *Messages {
	return &Messages{values: make(map[MessageKey]*string)}
}

// MessagesOf builds a bundle from alternating key/value pairs.
// Panics on an odd number of arguments.
func MessagesOf(kv ...string) *Messages {
	if len(kv)%2 != 0 {
		panic("babylon: MessagesOf needs key/value pairs")
	}
	m := NewMessages()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Text returns a pointer to s, for building optional messages.
func Text(s string) *string { return &s }

// Set stores a text message. An existing key keeps its position.
func (m *Messages) Set(key MessageKey, text string) {
	m.Put(key, Text(text))
}

// Put stores an optional message. An existing key keeps its position.
func (m *Messages) Put(key MessageKey, msg *string) {
	if m.values == nil {
		m.values = make(map[MessageKey]*string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = msg
}

// Get returns the message for key and whether the key exists.
// The message may be nil for an existing key.
func (m *Messages) Get(key MessageKey) (*string, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key exists in the bundle.
func (m *Messages) Has(key MessageKey) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in bundle order. The slice is a copy.
func (m *Messages) Keys() []MessageKey {
	if m == nil {
		return nil
	}
	out := make([]MessageKey, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Messages) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *Messages) Clone() *Messages {
	out := NewMessages()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		v := m.values[k]
		if v != nil {
			v = Text(*v)
		}
		out.Put(k, v)
	}
	return out
}

// sameMessage compares two optional messages byte for byte.
// Absent and present never compare equal.
func sameMessage(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
