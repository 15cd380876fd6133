package core

// DefaultHysteresis is the minimum raw delta, in 10-bit units, that counts as
// a real movement of a knob.
const DefaultHysteresis = 7

// Tracker is the per-channel hysteresis filter. A sample only becomes the new
// reference when it differs from the current reference by at least the
// threshold, so slow drift can never creep across the band.
type Tracker struct {
	threshold int
	prev      int
	primed    bool
}

// NewTracker returns an unprimed tracker; its first Update always reports.
func NewTracker(threshold int) Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return Tracker{threshold: threshold}
}

// Update feeds one raw sample and reports whether it is a genuine change.
func (t *Tracker) Update(raw ADCValue) bool {
	v := int(raw)
	if !t.primed {
		t.prev = v
		t.primed = true
		return true
	}

	delta := v - t.prev
	if delta < 0 {
		delta = -delta
	}
	if delta < t.threshold {
		return false
	}
	t.prev = v
	return true
}

// Seed sets the reference without reporting, e.g. from a stored patch.
func (t *Tracker) Seed(raw ADCValue) {
	t.prev = int(raw)
	t.primed = true
}

// Reset forgets the reference so the next sample is reported.
func (t *Tracker) Reset() {
	t.primed = false
}

// Last returns the current reference and whether there is one.
func (t *Tracker) Last() (ADCValue, bool) {
	return ADCValue(t.prev), t.primed
}
