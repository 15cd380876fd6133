package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"synthpanel/config"
	"synthpanel/control"
	"synthpanel/core"
	"synthpanel/sim"
	"synthpanel/store"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{}          { return closed }
func (doneToken) Error() error                   { return nil }

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// topicRecorder stands in for the broker connection.
type topicRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *topicRecorder) Publish(topic string, _ byte, _ bool, _ interface{}) mqtt.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return doneToken{}
}

func (r *topicRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

type hostRig struct {
	cfg       *config.Config
	clock     *sim.Clock
	panel     *simPanel
	persister *store.MemoryPersister
	reg       *prometheus.Registry
	sent      []midi.Message
	broker    *topicRecorder
	app       *app
}

func newHostRig(t *testing.T, patch store.Snapshot) *hostRig {
	t.Helper()
	r := &hostRig{
		cfg:       config.Default(),
		clock:     sim.NewClock(),
		persister: store.NewMemoryPersister(),
		reg:       prometheus.NewRegistry(),
		broker:    &topicRecorder{},
	}
	r.panel = newSimPanel(r.cfg.Pins, r.clock)
	if patch != nil {
		require.NoError(t, r.persister.Save(0, patch))
	}

	send := func(msg midi.Message) error {
		r.sent = append(r.sent, msg)
		return nil
	}
	nop := zerolog.Nop()
	var err error
	r.app, err = newApp(r.cfg, r.panel.hardware(), r.persister, send, r.broker, r.reg, &nop)
	require.NoError(t, err)
	t.Cleanup(r.app.close)
	require.NoError(t, r.app.start())
	return r
}

func (r *hostRig) scan(t *testing.T) {
	t.Helper()
	require.NoError(t, r.app.panel.Scanner.Scan())
}

func (r *hostRig) lastCC(t *testing.T, p control.Param) (uint8, bool) {
	t.Helper()
	want, ok := control.CC(p)
	require.True(t, ok)
	found, value := false, uint8(0)
	for _, msg := range r.sent {
		var ch, cc, val uint8
		if msg.GetControlChange(&ch, &cc, &val) && cc == want {
			found, value = true, val
		}
	}
	return value, found
}

func (r *hostRig) clickSave(t *testing.T) {
	t.Helper()
	pin := r.cfg.Pins.Save
	r.panel.board.SetLevel(pin, false)
	r.scan(t)
	r.clock.Advance(core.DefaultDebounce + time.Millisecond)
	r.scan(t)
	r.clock.Advance(20 * time.Millisecond)
	r.panel.board.Release(pin)
	r.scan(t)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			var sum float64
			for _, m := range f.GetMetric() {
				sum += m.GetCounter().GetValue()
			}
			return sum
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestStartRecallsPatch(t *testing.T) {
	r := newHostRig(t, store.Snapshot{control.Volume: 100, control.Glide: 1})

	v, ok := r.app.store.Get(control.Volume)
	require.True(t, ok)
	assert.Equal(t, 100, v)
	assert.Empty(t, r.app.store.Pending())
	assert.True(t, r.app.latch.Latched(control.SwitchGlide))

	cc, ok := r.lastCC(t, control.Volume)
	require.True(t, ok)
	assert.Equal(t, uint8(100), cc)
	cc, ok = r.lastCC(t, control.Glide)
	require.True(t, ok)
	assert.Equal(t, uint8(127), cc, "switch parameters go out as 0/127")

	r.scan(t)
	assert.True(t, r.panel.leds.Output(r.panel.layout.LEDs[control.LEDGlide]))
}

func TestStartWithEmptySlot(t *testing.T) {
	r := newHostRig(t, nil)
	assert.Empty(t, r.app.store.All())
	assert.Empty(t, r.sent)
}

func TestKnobSwitchAndSaveFlow(t *testing.T) {
	r := newHostRig(t, nil)
	r.scan(t)

	require.NoError(t, r.panel.setKnob(control.FilterCutoff, 530))
	r.scan(t)
	cc, ok := r.lastCC(t, control.FilterCutoff)
	require.True(t, ok)
	assert.Equal(t, uint8(530>>3), cc)
	cutoff := control.ScaleFor(control.FilterCutoff).Map(530, 1023)
	v, _ := r.app.store.Get(control.FilterCutoff)
	assert.Equal(t, cutoff, v)

	entry, ok := r.panel.layout.SwitchFor(control.SwitchVCF)
	require.True(t, ok)
	r.panel.switches.SetSwitch(entry.Position, true)
	r.scan(t)
	r.clock.Advance(core.DefaultDebounce + time.Millisecond)
	r.scan(t)
	r.panel.switches.SetSwitch(entry.Position, false)
	r.clock.Advance(20 * time.Millisecond)
	r.scan(t)
	assert.True(t, r.app.latch.Latched(control.SwitchVCF))
	cc, ok = r.lastCC(t, control.LfoDestVCF)
	require.True(t, ok)
	assert.Equal(t, uint8(127), cc)

	r.clickSave(t)
	saves := r.persister.Saves()
	require.Len(t, saves, 1)
	assert.Equal(t, cutoff, saves[0][control.FilterCutoff])
	assert.Equal(t, 1, saves[0][control.LfoDestVCF])
	assert.Empty(t, r.app.store.Pending())

	assert.Equal(t, float64(r.app.panel.Scanner.Cycle()), counterValue(t, r.reg, "synthpanel_scan_cycles_total"))
	assert.Equal(t, float64(len(r.sent)), counterValue(t, r.reg, "synthpanel_midi_messages_sent_total"))

	topics := r.broker.seen()
	assert.Contains(t, topics, "synthpanel/param/filter_cutoff")
	assert.Contains(t, topics, "synthpanel/switch/vcf")
	assert.Contains(t, topics, "synthpanel/button/save")
}

func TestConsoleCommands(t *testing.T) {
	r := newHostRig(t, nil)
	in := strings.NewReader("help\nknob volume 800\nknob volume 5000\nturn 2\nbogus\nvalues\nquit\nknob volume 10\n")
	var out bytes.Buffer

	runConsole(in, &out, r.panel, r.app)

	text := out.String()
	assert.Contains(t, text, "Available commands")
	assert.Contains(t, text, "outside 0..1023")
	assert.Contains(t, text, "unknown command: bogus")
	assert.Equal(t, 2*r.cfg.Encoder.CountsPerDetent, r.panel.encoder.Position())

	r.scan(t)
	v, ok := r.app.store.Get(control.Volume)
	require.True(t, ok)
	assert.Equal(t, control.ScaleFor(control.Volume).Map(800, 1023), v, "input after quit is not read")
}
