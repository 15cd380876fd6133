package core

import "sync/atomic"

// QuadratureCounter is a raw quadrature count, from a hardware counter or an
// interrupt-driven decoder. tinygo.org/x/drivers/encoders devices satisfy it.
type QuadratureCounter interface {
	Position() int
}

// Sampler is implemented by counters that have to be polled to see edges.
type Sampler interface {
	Sample() error
}

// DefaultCountsPerDetent matches a common 24-detent mechanical encoder.
const DefaultCountsPerDetent = 4

// Encoder turns raw counts into whole detents. It is the only place the
// direction setting is applied.
type Encoder struct {
	counter         QuadratureCounter
	countsPerDetent int
	invert          atomic.Bool
	consumed        int
}

// NewEncoder starts counting from the counter's current position.
func NewEncoder(counter QuadratureCounter, countsPerDetent int, invert bool) (*Encoder, error) {
	if counter == nil {
		return nil, configErrorf("encoder needs a counter")
	}
	if countsPerDetent <= 0 {
		return nil, configErrorf("counts per detent %d must be positive", countsPerDetent)
	}
	e := &Encoder{
		counter:         counter,
		countsPerDetent: countsPerDetent,
		consumed:        counter.Position(),
	}
	e.invert.Store(invert)
	return e, nil
}

// SetInvert sets the direction convention. Safe to call while scanning.
func (e *Encoder) SetInvert(invert bool) {
	e.invert.Store(invert)
}

// Inverted reports the direction convention.
func (e *Encoder) Inverted() bool {
	return e.invert.Load()
}

// Sample lets a polled counter see the current pin state without consuming
// any counts. Hardware counters need nothing.
func (e *Encoder) Sample() error {
	if s, ok := e.counter.(Sampler); ok {
		return s.Sample()
	}
	return nil
}

// Poll returns whole detents since the last poll. Partial detents carry over,
// so the running sum does not depend on how often Poll is called.
func (e *Encoder) Poll() (int, error) {
	if err := e.Sample(); err != nil {
		return 0, err
	}

	diff := e.counter.Position() - e.consumed
	steps := diff / e.countsPerDetent
	e.consumed += steps * e.countsPerDetent

	if e.invert.Load() {
		steps = -steps
	}
	return steps, nil
}

// quadratureTable maps (previous AB << 2 | current AB) to a count change.
// Invalid double transitions count as zero.
var quadratureTable = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// PinQuadrature decodes an encoder on two GPIO inputs by polling. It suits
// hosts without a hardware counter; it must be sampled faster than the
// encoder's edge rate.
type PinQuadrature struct {
	gpio     GPIODriver
	a, b     GPIOPin
	prev     uint8
	position int
}

// NewPinQuadrature configures both pins with pull-ups and takes the initial
// state.
func NewPinQuadrature(gpio GPIODriver, a, b GPIOPin) (*PinQuadrature, error) {
	if a == b {
		return nil, configErrorf("encoder pins A and B are both %d", a)
	}
	for _, pin := range []GPIOPin{a, b} {
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
	}
	q := &PinQuadrature{gpio: gpio, a: a, b: b}
	s, err := q.read()
	if err != nil {
		return nil, err
	}
	q.prev = s
	return q, nil
}

func (q *PinQuadrature) read() (uint8, error) {
	a, err := q.gpio.GetPin(q.a)
	if err != nil {
		return 0, err
	}
	b, err := q.gpio.GetPin(q.b)
	if err != nil {
		return 0, err
	}
	var s uint8
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s, nil
}

// Sample reads both pins and applies the transition.
func (q *PinQuadrature) Sample() error {
	s, err := q.read()
	if err != nil {
		return err
	}
	q.position += int(quadratureTable[q.prev<<2|s])
	q.prev = s
	return nil
}

// Position returns the accumulated count.
func (q *PinQuadrature) Position() int {
	return q.position
}
