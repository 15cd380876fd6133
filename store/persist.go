package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"synthpanel/control"
)

// ErrEmptySlot is returned when loading a slot nothing was saved to.
var ErrEmptySlot = errors.New("empty patch slot")

// Persister stores patches. Save receives only the values changed since the
// last save and merges them over what the slot already holds.
type Persister interface {
	Save(slot int, changes Snapshot) error
	Load(slot int) (Snapshot, error)
}

// MemoryPersister keeps patches in memory and remembers every save.
type MemoryPersister struct {
	mu    sync.Mutex
	slots map[int]Snapshot
	saves []Snapshot
	fail  error
}

// NewMemoryPersister returns an empty in-memory persister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{slots: make(map[int]Snapshot)}
}

func (m *MemoryPersister) Save(slot int, changes Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	patch, ok := m.slots[slot]
	if !ok {
		patch = Snapshot{}
		m.slots[slot] = patch
	}
	delivered := Snapshot{}
	for p, v := range changes {
		patch[p] = v
		delivered[p] = v
	}
	m.saves = append(m.saves, delivered)
	return nil
}

func (m *MemoryPersister) Load(slot int) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	patch, ok := m.slots[slot]
	if !ok {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrEmptySlot)
	}
	out := Snapshot{}
	for p, v := range patch {
		out[p] = v
	}
	return out, nil
}

// Saves returns every snapshot delivered to Save, oldest first.
func (m *MemoryPersister) Saves() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.saves...)
}

// SetFailure makes Save fail with err until cleared with nil.
func (m *MemoryPersister) SetFailure(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

// patchFile is the on-disk layout of one slot.
type patchFile struct {
	Slot   int            `toml:"slot"`
	Values map[string]int `toml:"values"`
}

// FilePersister keeps one TOML file per slot in a directory.
type FilePersister struct {
	dir string
}

// NewFilePersister creates dir if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create patch directory: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

func (f *FilePersister) path(slot int) string {
	return filepath.Join(f.dir, fmt.Sprintf("patch-%03d.toml", slot))
}

func (f *FilePersister) Load(slot int) (Snapshot, error) {
	var pf patchFile
	if _, err := toml.DecodeFile(f.path(slot), &pf); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("slot %d: %w", slot, ErrEmptySlot)
		}
		return nil, fmt.Errorf("read slot %d: %w", slot, err)
	}

	snap := make(Snapshot, len(pf.Values))
	for name, v := range pf.Values {
		p, ok := control.ParseParam(name)
		if !ok {
			return nil, fmt.Errorf("slot %d: unknown parameter %q", slot, name)
		}
		snap[p] = v
	}
	return snap, nil
}

func (f *FilePersister) Save(slot int, changes Snapshot) error {
	patch, err := f.Load(slot)
	if errors.Is(err, ErrEmptySlot) {
		patch, err = Snapshot{}, nil
	}
	if err != nil {
		return err
	}
	for p, v := range changes {
		patch[p] = v
	}

	pf := patchFile{Slot: slot, Values: make(map[string]int, len(patch))}
	for p, v := range patch {
		pf.Values[p.String()] = v
	}

	tmp, err := os.CreateTemp(f.dir, ".patch-*")
	if err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(pf); err != nil {
		tmp.Close()
		return fmt.Errorf("encode slot %d: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		return fmt.Errorf("save slot %d: %w", slot, err)
	}
	return nil
}
