// Package store owns the current logical value of every parameter and tracks
// which values changed since the last save.
package store

import (
	"sort"
	"sync"

	"synthpanel/control"
	"synthpanel/core"
)

// Snapshot is a set of parameter values.
type Snapshot map[control.Param]int

// Params returns the snapshot's parameters in table order.
func (s Snapshot) Params() []control.Param {
	out := make([]control.Param, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Store is the parameter table. It is safe for concurrent use; the scanner
// writes through HandleEvent while display code reads.
type Store struct {
	mu     sync.RWMutex
	values [control.NumParams]int
	known  [control.NumParams]bool
	dirty  [control.NumParams]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Seed loads values as the saved state: they are current and not pending.
func (s *Store) Seed(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p, v := range snap {
		if !p.Valid() {
			continue
		}
		s.values[p] = v
		s.known[p] = true
		s.dirty[p] = false
	}
}

// Set records a new value and reports whether it differed from the current
// one. Only a real change becomes pending.
func (s *Store) Set(p control.Param, v int) bool {
	if !p.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known[p] && s.values[p] == v {
		return false
	}
	s.values[p] = v
	s.known[p] = true
	s.dirty[p] = true
	return true
}

// Get returns the current value of p and whether it has one.
func (s *Store) Get(p control.Param) (int, bool) {
	if !p.Valid() {
		return 0, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[p], s.known[p]
}

// Pending returns the latest value of every parameter changed since the last
// save.
func (s *Store) Pending() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{}
	for p := control.Param(0); int(p) < control.NumParams; p++ {
		if s.dirty[p] {
			out[p] = s.values[p]
		}
	}
	return out
}

// All returns every parameter that has a value.
func (s *Store) All() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Snapshot{}
	for p := control.Param(0); int(p) < control.NumParams; p++ {
		if s.known[p] {
			out[p] = s.values[p]
		}
	}
	return out
}

// MarkSaved clears the pending flag of every parameter whose value still
// matches snap. Values changed while the save was in flight stay pending.
func (s *Store) MarkSaved(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p, v := range snap {
		if p.Valid() && s.values[p] == v {
			s.dirty[p] = false
		}
	}
}

// HandleEvent records knob and panel changes. Recalled values arrive through
// Seed instead.
func (s *Store) HandleEvent(ev core.Event) {
	if pc, ok := ev.(core.ParameterChanged); ok && pc.Source != core.SourceRecall {
		s.Set(pc.Param, pc.Value)
	}
}
