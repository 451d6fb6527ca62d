// Package hashtable implements the open-addressed table shared by every
// mapping structure in the VM: the builtin environment, module globals,
// class attribute dicts, instance dicts, the user-visible dict type, and
// string interning.
//
// The probe sequence is quadratic (h, h+1, h+3, h+6, ... i.e. the
// triangular numbers) which visits every slot exactly once when capacity
// is a power of two. Deletions leave a tombstone so later probes don't
// stop short of a live entry that was inserted after a now-removed one.
package hashtable

const (
	initialCapacity = 8
	loadFactor      = 0.75
)

// Key is satisfied by anything that can live in a Table: a stable hash
// and a content equality test. Deliberately independent of any value
// package so the VM's tagged-union Value can implement it without
// hashtable importing value (and vice versa, avoiding an import cycle).
type Key interface {
	HashKey() uint64
	EqualKey(other Key) bool
}

type entry[V any] struct {
	key   Key // nil means free; a tombstone also has key == nil, distinguished by tombstone
	value V
}

// Table is an open-addressed, insertion-order-preserving map from Key to
// V. The zero value is not usable; use New.
type Table[V any] struct {
	entries    []slot[V]
	order      []*slot[V]
	size       int // live entries
	tombstones int
}

type slot[V any] struct {
	occupied  bool
	tombstone bool
	key       Key
	value     V
}

// New returns an empty table.
func New[V any]() *Table[V] {
	return &Table[V]{
		entries: make([]slot[V], initialCapacity),
	}
}

// Len reports the number of live entries.
func (t *Table[V]) Len() int { return t.size }

// Capacity reports the current backing array size.
func (t *Table[V]) Capacity() int { return len(t.entries) }

// Get returns the value stored under key, or the zero value and false.
func (t *Table[V]) Get(key Key) (V, bool) {
	var zero V
	if t.size == 0 {
		return zero, false
	}
	idx, found := t.find(key)
	if !found {
		return zero, false
	}
	return t.entries[idx].value, true
}

// Set inserts or overwrites key -> value. Returns true iff a new key was
// added (i.e. the key was absent before this call).
func (t *Table[V]) Set(key Key, value V) bool {
	if float64(t.size+t.tombstones+1) >= loadFactor*float64(len(t.entries)) {
		t.grow(len(t.entries) * 2)
	}

	idx, inserted := t.insertSlot(key)
	t.entries[idx].value = value
	if inserted {
		s := &t.entries[idx]
		t.order = append(t.order, s)
		t.size++
	}
	return inserted
}

// Delete removes key, returning its prior value and whether it was
// present. The freed slot becomes a tombstone so probes that stepped
// over it keep working.
func (t *Table[V]) Delete(key Key) (V, bool) {
	var zero V
	idx, found := t.find(key)
	if !found {
		return zero, false
	}
	val := t.entries[idx].value
	t.entries[idx] = slot[V]{occupied: true, tombstone: true}
	t.tombstones++
	t.size--

	for i, s := range t.order {
		if s == &t.entries[idx] {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return val, true
}

// Keys returns live keys in insertion order.
func (t *Table[V]) Keys() []Key {
	keys := make([]Key, 0, len(t.order))
	for _, s := range t.order {
		keys = append(keys, s.key)
	}
	return keys
}

// Each calls fn for every live entry in insertion order, stopping early
// if fn returns false.
func (t *Table[V]) Each(fn func(Key, V) bool) {
	for _, s := range t.order {
		if !fn(s.key, s.value) {
			return
		}
	}
}

// FindByHash probes for an entry whose precomputed hash equals hash and
// for which match returns true, without needing a fully-formed Key. This
// is what makes the table usable as the VM's string-interning set: a
// candidate string can be looked up by its raw bytes and hash before an
// interned Key wrapper for it exists.
func (t *Table[V]) FindByHash(hash uint64, match func(Key) bool) (Key, V, bool) {
	var zero V
	if len(t.entries) == 0 {
		return nil, zero, false
	}
	cap64 := uint64(len(t.entries))
	mask := cap64 - 1
	i := hash & mask
	step := uint64(1)
	for {
		s := &t.entries[i]
		if !s.occupied {
			return nil, zero, false
		}
		if !s.tombstone && s.key.HashKey() == hash && match(s.key) {
			return s.key, s.value, true
		}
		i = (i + step) & mask
		step++
	}
}

func (t *Table[V]) find(key Key) (int, bool) {
	if len(t.entries) == 0 {
		return 0, false
	}
	hash := key.HashKey()
	cap64 := uint64(len(t.entries))
	mask := cap64 - 1
	i := hash & mask
	step := uint64(1)
	for {
		s := &t.entries[i]
		if !s.occupied {
			return 0, false
		}
		if !s.tombstone && key.EqualKey(s.key) {
			return int(i), true
		}
		i = (i + step) & mask
		step++
	}
}

// insertSlot finds the slot key should occupy, creating it (and marking
// it occupied/live) if it wasn't already present. Returns whether this
// is a brand new key.
func (t *Table[V]) insertSlot(key Key) (int, bool) {
	hash := key.HashKey()
	cap64 := uint64(len(t.entries))
	mask := cap64 - 1
	i := hash & mask
	step := uint64(1)
	firstTombstone := -1
	for {
		s := &t.entries[i]
		if !s.occupied {
			target := int(i)
			if firstTombstone != -1 {
				target = firstTombstone
				t.tombstones--
			}
			t.entries[target] = slot[V]{occupied: true, key: key}
			return target, true
		}
		if s.tombstone {
			if firstTombstone == -1 {
				firstTombstone = int(i)
			}
		} else if key.EqualKey(s.key) {
			return int(i), false
		}
		i = (i + step) & mask
		step++
	}
}

// grow rebuilds the table at newCapacity (always a power of two),
// compacting tombstones while preserving insertion order.
func (t *Table[V]) grow(newCapacity int) {
	if newCapacity < initialCapacity {
		newCapacity = initialCapacity
	}
	old := t.order
	t.entries = make([]slot[V], newCapacity)
	t.order = make([]*slot[V], 0, len(old))
	t.size = 0
	t.tombstones = 0

	for _, s := range old {
		idx, _ := t.insertSlot(s.key)
		t.entries[idx].value = s.value
		t.order = append(t.order, &t.entries[idx])
	}
	t.size = len(t.order)
}
