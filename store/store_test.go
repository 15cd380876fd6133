package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/control"
	"synthpanel/core"
)

func TestStoreSetMarksRealChangesOnly(t *testing.T) {
	s := New()
	s.Seed(Snapshot{control.Volume: 100})

	assert.False(t, s.Set(control.Volume, 100))
	assert.Empty(t, s.Pending())

	assert.True(t, s.Set(control.Volume, 90))
	assert.True(t, s.Set(control.FilterRes, 10), "first value counts as a change")
	assert.Equal(t, Snapshot{control.Volume: 90, control.FilterRes: 10}, s.Pending())

	v, ok := s.Get(control.Volume)
	assert.True(t, ok)
	assert.Equal(t, 90, v)
	_, ok = s.Get(control.LfoRate)
	assert.False(t, ok)
}

func TestStoreMarkSavedKeepsNewerValues(t *testing.T) {
	s := New()
	s.Set(control.Volume, 1)
	s.Set(control.LfoRate, 2)
	snap := s.Pending()

	s.Set(control.LfoRate, 3) // changed while saving
	s.MarkSaved(snap)

	assert.Equal(t, Snapshot{control.LfoRate: 3}, s.Pending())
	assert.Equal(t, Snapshot{control.Volume: 1, control.LfoRate: 3}, s.All())
}

func TestStoreHandleEvent(t *testing.T) {
	s := New()
	s.HandleEvent(core.ParameterChanged{Param: control.Glide, Value: 1, Source: core.SourcePanel})
	s.HandleEvent(core.ParameterChanged{Param: control.Volume, Value: 5, Source: core.SourceRecall})
	s.HandleEvent(core.EncoderStep{Delta: 1})

	assert.Equal(t, Snapshot{control.Glide: 1}, s.Pending())
}

func TestStoreIgnoresInvalidParams(t *testing.T) {
	s := New()
	bad := control.Param(control.NumParams)
	assert.False(t, s.Set(bad, 1))
	s.Seed(Snapshot{bad: 1})
	assert.Empty(t, s.All())
}

func TestSnapshotParamsOrdered(t *testing.T) {
	snap := Snapshot{control.Octave1: 1, control.ModWheel: 2, control.FilterCutoff: 3}
	assert.Equal(t, []control.Param{control.ModWheel, control.FilterCutoff, control.Octave1}, snap.Params())
}

func TestSaveClickDeliversExactlyPendingValues(t *testing.T) {
	s := New()
	s.Seed(Snapshot{control.Volume: 64, control.FilterCutoff: 1000, control.LfoRate: 10, control.AmpAttack: 5})
	p := NewMemoryPersister()
	c := NewSaveController(s, p)

	s.Set(control.Volume, 70)
	s.Set(control.Volume, 80)
	s.Set(control.FilterCutoff, 2000)
	s.Set(control.LfoRate, 12)
	s.Set(control.AmpAttack, 5) // unchanged

	c.HandleEvent(core.ButtonClicked{Button: control.ButtonSave})

	saves := p.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, Snapshot{control.Volume: 80, control.FilterCutoff: 2000, control.LfoRate: 12}, saves[0])
	assert.Empty(t, s.Pending())

	c.HandleEvent(core.ButtonClicked{Button: control.ButtonSave})
	assert.Len(t, p.Saves(), 1, "nothing pending, nothing saved")
}

func TestSaveFailureKeepsPending(t *testing.T) {
	s := New()
	p := NewMemoryPersister()
	c := NewSaveController(s, p)
	s.Set(control.Mix, 9)

	boom := errors.New("eeprom busy")
	p.SetFailure(boom)
	assert.ErrorIs(t, c.Save(), boom)
	assert.Equal(t, Snapshot{control.Mix: 9}, s.Pending())

	p.SetFailure(nil)
	require.NoError(t, c.Save())
	assert.Empty(t, s.Pending())
}

type seedRecorder struct {
	seeded map[control.Param]int
}

func (r *seedRecorder) Seed(values map[control.Param]int) { r.seeded = values }

func TestRecallSeedsAndForwards(t *testing.T) {
	s := New()
	p := NewMemoryPersister()
	require.NoError(t, p.Save(2, Snapshot{control.Volume: 33, control.Glide: 1}))

	rec := &seedRecorder{}
	var forwarded []core.Event
	c := NewSaveController(s, p,
		WithSeeder(rec),
		WithRecallSink(core.SinkFunc(func(ev core.Event) { forwarded = append(forwarded, ev) })),
	)
	c.HandleEvent(core.EncoderStep{Delta: 2})
	require.Equal(t, 2, c.Slot())

	c.HandleEvent(core.ButtonClicked{Button: control.ButtonRecall})

	assert.Equal(t, Snapshot{control.Volume: 33, control.Glide: 1}, s.All())
	assert.Empty(t, s.Pending(), "recalled values are the saved state")
	assert.Equal(t, map[control.Param]int{control.Volume: 33, control.Glide: 1}, rec.seeded)
	assert.Equal(t, []core.Event{
		core.ParameterChanged{Param: control.Volume, Value: 33, Source: core.SourceRecall},
		core.ParameterChanged{Param: control.Glide, Value: 1, Source: core.SourceRecall},
	}, forwarded)
}

func TestRecallEmptySlot(t *testing.T) {
	c := NewSaveController(New(), NewMemoryPersister())
	assert.ErrorIs(t, c.Recall(), ErrEmptySlot)
}

func TestSlotWraps(t *testing.T) {
	c := NewSaveController(New(), NewMemoryPersister(), WithSlots(4))
	c.HandleEvent(core.EncoderStep{Delta: -1})
	assert.Equal(t, 3, c.Slot())
	c.HandleEvent(core.EncoderStep{Delta: 6})
	assert.Equal(t, 1, c.Slot())

	c.SelectSlot(10)
	assert.Equal(t, 2, c.Slot())
}

func TestFilePersisterRoundTrip(t *testing.T) {
	p, err := NewFilePersister(t.TempDir())
	require.NoError(t, err)

	_, err = p.Load(7)
	assert.ErrorIs(t, err, ErrEmptySlot)

	require.NoError(t, p.Save(7, Snapshot{control.FilterCutoff: 440, control.MasterTune: -12}))
	require.NoError(t, p.Save(7, Snapshot{control.FilterCutoff: 880}))

	got, err := p.Load(7)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{control.FilterCutoff: 880, control.MasterTune: -12}, got, "saves merge into the slot")
}
