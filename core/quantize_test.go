package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerFirstReadAlwaysReports(t *testing.T) {
	for _, raw := range []ADCValue{0, 512, 1023} {
		tr := NewTracker(DefaultHysteresis)
		assert.True(t, tr.Update(raw), "first sample %d", raw)
	}
}

func TestTrackerHysteresisSequence(t *testing.T) {
	tr := NewTracker(DefaultHysteresis)

	assert.True(t, tr.Update(512))
	assert.False(t, tr.Update(515), "delta 3 is noise")
	assert.True(t, tr.Update(530), "delta 18 from 512 is a move")

	last, ok := tr.Last()
	assert.True(t, ok)
	assert.Equal(t, ADCValue(530), last)
}

func TestTrackerBoundary(t *testing.T) {
	tr := NewTracker(DefaultHysteresis)
	tr.Update(100)

	assert.False(t, tr.Update(106))
	assert.True(t, tr.Update(107))
	assert.False(t, tr.Update(101))
	assert.True(t, tr.Update(100))
}

func TestTrackerDriftDoesNotAccumulate(t *testing.T) {
	tr := NewTracker(DefaultHysteresis)
	tr.Update(400)

	// Creep one count at a time: the reference stays at 400 so the seventh
	// step is the first to report.
	reported := 0
	for raw := ADCValue(401); raw <= 407; raw++ {
		if tr.Update(raw) {
			reported++
			assert.Equal(t, ADCValue(407), raw)
		}
	}
	assert.Equal(t, 1, reported)
}

func TestTrackerSeedAndReset(t *testing.T) {
	tr := NewTracker(DefaultHysteresis)
	tr.Seed(300)

	assert.False(t, tr.Update(303), "seeded reference suppresses the first read")
	assert.True(t, tr.Update(320))

	tr.Reset()
	assert.True(t, tr.Update(320), "reset tracker reports again")
}

func TestTrackerMinimumThreshold(t *testing.T) {
	tr := NewTracker(0)
	tr.Update(10)
	assert.False(t, tr.Update(10))
	assert.True(t, tr.Update(11))
}
