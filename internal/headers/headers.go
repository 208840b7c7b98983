package headers

import (
	"net/http"
	"net/textproto"
	"sort"
)

// Field is a single header occurrence. Repeated keys are represented by
// repeated fields.
type Field struct {
	Name  string
	Value string
}

// HeaderMap is an ordered, case-insensitive header multimap.
type HeaderMap []Field

// Add appends a field, preserving insertion order.
func (h *HeaderMap) Add(name, value string) {
	*h = append(*h, Field{Name: name, Value: value})
}

// Get returns the first value for the given key, or "" if absent.
// Key comparison is case-insensitive.
func (h HeaderMap) Get(name string) string {
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	for _, f := range h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) == canonical {
			return f.Value
		}
	}
	return ""
}

// Values returns all values for the given key in insertion order.
func (h HeaderMap) Values(name string) []string {
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	var values []string
	for _, f := range h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) == canonical {
			values = append(values, f.Value)
		}
	}
	return values
}

// Del returns a copy of the map with every occurrence of the given key
// removed. The receiver is not modified.
func (h HeaderMap) Del(name string) HeaderMap {
	canonical := textproto.CanonicalMIMEHeaderKey(name)
	out := make(HeaderMap, 0, len(h))
	for _, f := range h {
		if textproto.CanonicalMIMEHeaderKey(f.Name) == canonical {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Clone returns a deep copy.
func (h HeaderMap) Clone() HeaderMap {
	out := make(HeaderMap, len(h))
	copy(out, h)
	return out
}

// FromWire converts an http.Header into a HeaderMap. Same-key value order is
// preserved; key order across distinct keys is sorted for determinism, since
// http.Header does not record it.
func FromWire(wire http.Header) HeaderMap {
	keys := make([]string, 0, len(wire))
	for k := range wire {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var h HeaderMap
	for _, k := range keys {
		for _, v := range wire[k] {
			h.Add(k, v)
		}
	}
	return h
}

// ToWire converts a HeaderMap into an http.Header. Keys are normalized to
// canonical MIME form; same-key value order is preserved.
func ToWire(h HeaderMap) http.Header {
	wire := make(http.Header, len(h))
	for _, f := range h {
		wire.Add(f.Name, f.Value)
	}
	return wire
}
