// Package locktable provides lazily created per-key mutexes spread over
// independent stripes.
package locktable

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 16

type stripe struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Table hands out one mutex per key. The stripe lock is held only while the
// key's mutex is looked up or created, never while the caller's critical
// section runs.
type Table struct {
	stripes []stripe
}

// New builds a table with the given stripe count.
func New(stripes int) *Table {
	if stripes <= 0 {
		stripes = defaultStripes
	}
	t := &Table{stripes: make([]stripe, stripes)}
	for i := range t.stripes {
		t.stripes[i].locks = make(map[string]*sync.Mutex)
	}
	return t
}

// Lock acquires the mutex for key and returns its release func.
func (t *Table) Lock(key string) func() {
	m := t.get(key)
	m.Lock()
	return m.Unlock
}

// Len reports how many keys have a mutex allocated.
func (t *Table) Len() int {
	n := 0
	for i := range t.stripes {
		s := &t.stripes[i]
		s.mu.Lock()
		n += len(s.locks)
		s.mu.Unlock()
	}
	return n
}

func (t *Table) get(key string) *sync.Mutex {
	s := &t.stripes[t.index(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

func (t *Table) index(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(t.stripes)))
}
