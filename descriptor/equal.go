package descriptor

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Equal compares two descriptors structurally. Types are compared by
// identity, which a single solver keeps stable.
func Equal(a, b Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *Or:
		y, ok := b.(*Or)
		return ok && equalSeq(x.children, y.children)
	case *And:
		y, ok := b.(*And)
		return ok && equalSeq(x.children, y.children)
	case *TypeCheck:
		y, ok := b.(*TypeCheck)
		return ok && x.typ == y.typ && Equal(x.checked, y.checked)
	case *PropertyChain:
		y, ok := b.(*PropertyChain)
		if !ok || len(x.path) != len(y.path) {
			return false
		}
		for i := range x.path {
			if x.path[i] != y.path[i] {
				return false
			}
		}
		return true
	default:
		panic("descriptor: unhandled variant " + a.String())
	}
}

func equalSeq(xs, ys []Descriptor) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

// Key returns the canonical encoding of d. Structurally equal descriptors
// over the same solver share a key. Strings are length-prefixed so the
// encoding is unambiguous.
func Key(d Descriptor) string {
	var b strings.Builder
	encode(&b, d)
	return b.String()
}

// Hash returns a hash consistent with Equal
func Hash(d Descriptor) uint64 {
	return xxhash.Sum64String(Key(d))
}

func encode(b *strings.Builder, d Descriptor) {
	switch x := d.(type) {
	case *Or:
		encodeSeq(b, 'o', x.children)
	case *And:
		encodeSeq(b, 'a', x.children)
	case *TypeCheck:
		b.WriteString("t(")
		encode(b, x.checked)
		b.WriteByte(',')
		writeString(b, x.typ.ID())
		b.WriteByte(')')
	case *PropertyChain:
		b.WriteString("p(")
		for i, seg := range x.path {
			if i > 0 {
				b.WriteByte(',')
			}
			writeString(b, seg)
		}
		b.WriteByte(')')
	default:
		panic("descriptor: unhandled variant")
	}
}

func encodeSeq(b *strings.Builder, tag byte, children []Descriptor) {
	b.WriteByte(tag)
	b.WriteByte('(')
	for i, c := range children {
		if i > 0 {
			b.WriteByte(',')
		}
		encode(b, c)
	}
	b.WriteByte(')')
}

func writeString(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}

type entry[V any] struct {
	key   Descriptor
	value V
}

// Map associates values with descriptors under structural equality. The
// zero value is ready to use.
type Map[V any] struct {
	buckets map[string][]entry[V]
	n       int
}

// Set stores v under d, replacing an equal key
func (m *Map[V]) Set(d Descriptor, v V) {
	if m.buckets == nil {
		m.buckets = make(map[string][]entry[V])
	}
	k := Key(d)
	bucket := m.buckets[k]
	for i := range bucket {
		if Equal(bucket[i].key, d) {
			bucket[i].value = v
			return
		}
	}
	m.buckets[k] = append(bucket, entry[V]{key: d, value: v})
	m.n++
}

// Get returns the value stored under a key equal to d
func (m *Map[V]) Get(d Descriptor) (V, bool) {
	var zero V
	if m == nil {
		return zero, false
	}
	for _, e := range m.buckets[Key(d)] {
		if Equal(e.key, d) {
			return e.value, true
		}
	}
	return zero, false
}

// Delete removes d, reporting whether it was present
func (m *Map[V]) Delete(d Descriptor) bool {
	if m == nil {
		return false
	}
	k := Key(d)
	bucket := m.buckets[k]
	for i := range bucket {
		if Equal(bucket[i].key, d) {
			bucket = append(bucket[:i], bucket[i+1:]...)
			if len(bucket) == 0 {
				delete(m.buckets, k)
			} else {
				m.buckets[k] = bucket
			}
			m.n--
			return true
		}
	}
	return false
}

// Len returns the number of entries
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.n
}

// Range visits entries in key order until fn returns false
func (m *Map[V]) Range(fn func(d Descriptor, v V) bool) {
	if m == nil {
		return
	}
	keys := make([]string, 0, len(m.buckets))
	for k := range m.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, e := range m.buckets[k] {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Clone returns a shallow copy
func (m *Map[V]) Clone() *Map[V] {
	out := &Map[V]{}
	m.Range(func(d Descriptor, v V) bool {
		out.Set(d, v)
		return true
	})
	return out
}
