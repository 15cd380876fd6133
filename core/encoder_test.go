package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/core"
	"synthpanel/sim"
)

func TestEncoderWholeDetents(t *testing.T) {
	counter := &sim.Encoder{}
	enc, err := core.NewEncoder(counter, 4, false)
	require.NoError(t, err)

	counter.Turn(3)
	d, err := enc.Poll()
	require.NoError(t, err)
	assert.Zero(t, d, "partial detent")

	counter.Turn(1)
	d, _ = enc.Poll()
	assert.Equal(t, 1, d)

	counter.Turn(9)
	d, _ = enc.Poll()
	assert.Equal(t, 2, d, "remainder carries")

	counter.Turn(3)
	d, _ = enc.Poll()
	assert.Equal(t, 1, d)
}

func TestEncoderSumIndependentOfPollRate(t *testing.T) {
	fast := &sim.Encoder{}
	slow := &sim.Encoder{}
	encFast, _ := core.NewEncoder(fast, 4, false)
	encSlow, _ := core.NewEncoder(slow, 4, false)

	total := 0
	for i := 0; i < 40; i++ {
		fast.Turn(1)
		d, _ := encFast.Poll()
		total += d
	}
	slow.Turn(40)
	d, _ := encSlow.Poll()

	assert.Equal(t, 10, total)
	assert.Equal(t, total, d)
}

func TestEncoderInvert(t *testing.T) {
	counter := &sim.Encoder{}
	enc, err := core.NewEncoder(counter, 4, true)
	require.NoError(t, err)

	counter.Turn(8)
	d, _ := enc.Poll()
	assert.Equal(t, -2, d)

	enc.SetInvert(false)
	assert.False(t, enc.Inverted())
	counter.Turn(-4)
	d, _ = enc.Poll()
	assert.Equal(t, -1, d)
}

func TestEncoderStartsAtCurrentPosition(t *testing.T) {
	counter := &sim.Encoder{}
	counter.Turn(17)
	enc, _ := core.NewEncoder(counter, 4, false)

	d, _ := enc.Poll()
	assert.Zero(t, d)
}

func TestEncoderSampleError(t *testing.T) {
	counter := &sim.Encoder{}
	enc, _ := core.NewEncoder(counter, 4, false)

	counter.SetFault(sim.ErrInjected)
	counter.Turn(4)
	_, err := enc.Poll()
	assert.ErrorIs(t, err, sim.ErrInjected)

	counter.SetFault(nil)
	d, err := enc.Poll()
	require.NoError(t, err)
	assert.Equal(t, 1, d, "counts made during the fault are not lost")
}

func TestEncoderConfigErrors(t *testing.T) {
	_, err := core.NewEncoder(nil, 4, false)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)

	_, err = core.NewEncoder(&sim.Encoder{}, 0, false)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}

func TestPinQuadrature(t *testing.T) {
	clock := sim.NewClock()
	board := sim.NewBoard(clock)
	const a, b = core.GPIOPin(4), core.GPIOPin(5)

	q, err := core.NewPinQuadrature(board, a, b)
	require.NoError(t, err)
	assert.Zero(t, q.Position(), "pull-ups idle at 11")

	// One full Gray cycle starting from 11.
	steps := [][2]bool{{true, false}, {false, false}, {false, true}, {true, true}}
	for _, s := range steps {
		board.SetLevel(a, s[0])
		board.SetLevel(b, s[1])
		require.NoError(t, q.Sample())
	}
	assert.Equal(t, 4, absInt(q.Position()))
	forward := q.Position()

	for i := len(steps) - 2; i >= 0; i-- {
		board.SetLevel(a, steps[i][0])
		board.SetLevel(b, steps[i][1])
		require.NoError(t, q.Sample())
	}
	board.SetLevel(a, true)
	board.SetLevel(b, true)
	require.NoError(t, q.Sample())
	assert.Zero(t, q.Position(), "reverse cycle returns to zero")

	enc, err := core.NewEncoder(q, 4, forward < 0)
	require.NoError(t, err)
	for _, s := range steps {
		board.SetLevel(a, s[0])
		board.SetLevel(b, s[1])
		d, err := enc.Poll()
		require.NoError(t, err)
		if s == steps[len(steps)-1] {
			assert.Equal(t, 1, d)
		} else {
			assert.Zero(t, d)
		}
	}

	_, err = core.NewPinQuadrature(board, a, a)
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
