// Package selection keeps the per-user "liked" and "cart" product id sets
// and persists them to key/value storage after every change.
package selection

import (
	"bytes"
	"encoding/json"
	"slices"
)

// Set is an insertion-ordered set of product ids. The zero value is empty
// and ready to use. Set values are never mutated in place.
type Set struct {
	ids []int
}

func NewSet(ids ...int) Set {
	var s Set
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

func (s Set) Contains(id int) bool {
	return slices.Contains(s.ids, id)
}

// Toggle returns a copy of s with id removed if present, appended otherwise.
func (s Set) Toggle(id int) Set {
	if i := slices.Index(s.ids, id); i >= 0 {
		next := make([]int, 0, len(s.ids)-1)
		next = append(next, s.ids[:i]...)
		next = append(next, s.ids[i+1:]...)
		return Set{ids: next}
	}

	next := make([]int, len(s.ids), len(s.ids)+1)
	copy(next, s.ids)
	return Set{ids: append(next, id)}
}

func (s Set) Len() int { return len(s.ids) }

// IDs returns the members in insertion order.
func (s Set) IDs() []int {
	out := make([]int, len(s.ids))
	copy(out, s.ids)
	return out
}

// Equal compares membership only.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, id := range s.ids {
		if !o.Contains(id) {
			return false
		}
	}
	return true
}

// Encode renders the set as a JSON array of integers.
func Encode(s Set) []byte {
	if len(s.ids) == 0 {
		return []byte("[]")
	}
	b, _ := json.Marshal(s.ids)
	return b
}

// Decode parses stored data. Anything that is not a JSON array made only of
// integers yields the empty set.
func Decode(raw []byte) Set {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Set{}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return Set{}
	}
	if dec.More() {
		return Set{}
	}

	ids := make([]int, 0, len(items))
	for _, it := range items {
		n, ok := it.(json.Number)
		if !ok {
			return Set{}
		}
		v, err := n.Int64()
		if err != nil {
			return Set{}
		}
		ids = append(ids, int(v))
	}
	return NewSet(ids...)
}
