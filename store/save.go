package store

import (
	"errors"

	"github.com/rs/zerolog"

	"synthpanel/control"
	"synthpanel/core"
)

// DefaultSlots is the number of patch slots the encoder can select.
const DefaultSlots = 128

// Seeder re-primes knob filters after a recall; *core.Scanner satisfies it.
type Seeder interface {
	Seed(values map[control.Param]int)
}

// SaveController turns button and encoder events into patch saves and
// recalls. The encoder picks the slot, a Save click stores the pending
// changes, a Recall click loads the slot.
type SaveController struct {
	store     *Store
	persister Persister
	seeder    Seeder
	out       core.Sink
	log       *zerolog.Logger
	slots     int
	slot      int
}

// SaveOption configures a SaveController.
type SaveOption func(*SaveController)

// WithSeeder re-seeds knob filters on recall.
func WithSeeder(s Seeder) SaveOption {
	return func(c *SaveController) { c.seeder = s }
}

// WithRecallSink receives a ParameterChanged with SourceRecall for every
// recalled value.
func WithRecallSink(s core.Sink) SaveOption {
	return func(c *SaveController) { c.out = s }
}

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) SaveOption {
	return func(c *SaveController) { c.log = l }
}

// WithSlots sets how many slots the encoder cycles through.
func WithSlots(n int) SaveOption {
	return func(c *SaveController) {
		if n > 0 {
			c.slots = n
		}
	}
}

// NewSaveController returns a controller on slot 0.
func NewSaveController(store *Store, persister Persister, opts ...SaveOption) *SaveController {
	c := &SaveController{
		store:     store,
		persister: persister,
		slots:     DefaultSlots,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		nop := zerolog.Nop()
		c.log = &nop
	}
	return c
}

// Slot returns the selected slot.
func (c *SaveController) Slot() int {
	return c.slot
}

// SelectSlot jumps to slot n, wrapped into range.
func (c *SaveController) SelectSlot(n int) {
	c.slot = (n%c.slots + c.slots) % c.slots
}

// HandleEvent implements core.Sink.
func (c *SaveController) HandleEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.EncoderStep:
		c.SelectSlot(c.slot + e.Delta)
	case core.ButtonClicked:
		switch e.Button {
		case control.ButtonSave:
			_ = c.Save()
		case control.ButtonRecall:
			_ = c.Recall()
		}
	}
}

// Save hands the pending changes to the persister. On failure they stay
// pending for the next attempt.
func (c *SaveController) Save() error {
	changes := c.store.Pending()
	if len(changes) == 0 {
		c.log.Debug().Int("slot", c.slot).Msg("nothing to save")
		return nil
	}
	if err := c.persister.Save(c.slot, changes); err != nil {
		c.log.Error().Err(err).Int("slot", c.slot).Msg("patch save failed")
		return err
	}
	c.store.MarkSaved(changes)
	c.log.Info().Int("slot", c.slot).Int("params", len(changes)).Msg("patch saved")
	return nil
}

// Recall loads the selected slot as the new saved state.
func (c *SaveController) Recall() error {
	patch, err := c.persister.Load(c.slot)
	if err != nil {
		if errors.Is(err, ErrEmptySlot) {
			c.log.Info().Int("slot", c.slot).Msg("recall of empty slot ignored")
		} else {
			c.log.Error().Err(err).Int("slot", c.slot).Msg("patch recall failed")
		}
		return err
	}

	c.store.Seed(patch)
	if c.seeder != nil {
		c.seeder.Seed(patch)
	}
	if c.out != nil {
		for _, p := range patch.Params() {
			c.out.HandleEvent(core.ParameterChanged{Param: p, Value: patch[p], Source: core.SourceRecall})
		}
	}
	c.log.Info().Int("slot", c.slot).Int("params", len(patch)).Msg("patch recalled")
	return nil
}
