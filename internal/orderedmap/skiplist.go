// Package orderedmap provides an int64-keyed map that iterates in ascending key
// order. Output tables are accumulated in it so the JSON they serialize to is
// byte-stable without a sort at write time.
package orderedmap

import (
	"math/rand"
)

const (
	defaultMaxLevel = 20
	defaultP        = 0.5
	levelSeed       = 1
)

// Map is a skip list keyed by int64. The zero value is not usable; call New.
type Map[V any] struct {
	maxLevel int
	p        float64
	level    int
	rand     *rand.Rand
	len      int
	head     *element[V]
}

type element[V any] struct {
	key   int64
	value V
	next  []*element[V]
}

// Flat is a single-level output table (id → text).
type Flat = Map[string]

// Nested is a two-level output table (outer id → inner id → text).
type Nested = Map[*Map[string]]

// New creates an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{
		maxLevel: defaultMaxLevel,
		p:        defaultP,
		level:    1,
		rand:     rand.New(rand.NewSource(levelSeed)),
		head: &element[V]{
			next: make([]*element[V], defaultMaxLevel),
		},
	}
}

// NewFlat creates an empty Flat table.
func NewFlat() *Flat { return New[string]() }

// NewNested creates an empty Nested table.
func NewNested() *Nested { return New[*Map[string]]() }

// Len returns the number of keys.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return m.len
}

// Get returns the value stored at key.
func (m *Map[V]) Get(key int64) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}

	curr := m.head
	for i := m.level - 1; i >= 0; i-- {
		for curr.next[i] != nil && curr.next[i].key < key {
			curr = curr.next[i]
		}
	}

	curr = curr.next[0]
	if curr != nil && curr.key == key {
		return curr.value, true
	}
	var zero V
	return zero, false
}

// Set stores value at key, replacing any previous value.
func (m *Map[V]) Set(key int64, value V) {
	m.put(key, value, true)
}

// SetIfAbsent stores value at key only when the key is not yet occupied.
// It reports whether the value was stored.
func (m *Map[V]) SetIfAbsent(key int64, value V) bool {
	return m.put(key, value, false)
}

// GetOrInsert returns the value at key, inserting create() first when the key
// is absent.
func (m *Map[V]) GetOrInsert(key int64, create func() V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	v := create()
	m.put(key, v, false)
	return v
}

func (m *Map[V]) put(key int64, value V, overwrite bool) bool {
	curr := m.head
	update := make([]*element[V], m.maxLevel)

	for i := m.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && curr.next[i].key < key {
			curr = curr.next[i]
		}
		update[i] = curr
	}
	if curr.next[0] != nil && curr.next[0].key == key {
		if !overwrite {
			return false
		}
		curr.next[0].value = value
		return true
	}

	level := m.randomLevel()
	if level > m.level {
		for i := m.level; i < level; i++ {
			update[i] = m.head
		}
		m.level = level
	}

	e := &element[V]{
		key:   key,
		value: value,
		next:  make([]*element[V], level),
	}
	for i := 0; i < level; i++ {
		e.next[i] = update[i].next[i]
		update[i].next[i] = e
	}
	m.len++
	return true
}

// Range calls fn for every entry in ascending key order until fn returns false.
func (m *Map[V]) Range(fn func(key int64, value V) bool) {
	if m == nil {
		return
	}
	for curr := m.head.next[0]; curr != nil; curr = curr.next[0] {
		if !fn(curr.key, curr.value) {
			return
		}
	}
}

// Keys returns all keys in ascending order.
func (m *Map[V]) Keys() []int64 {
	keys := make([]int64, 0, m.Len())
	m.Range(func(k int64, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

func (m *Map[V]) randomLevel() int {
	level := 1
	for m.rand.Float64() < m.p && level < m.maxLevel {
		level++
	}
	return level
}
