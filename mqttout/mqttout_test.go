package mqttout

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synthpanel/control"
	"synthpanel/core"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeBroker struct {
	mu       sync.Mutex
	messages []published
	err      error
	stalled  bool
}

func (b *fakeBroker) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return newToken(b.err, !b.stalled)
}

func (b *fakeBroker) all() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.messages...)
}

func TestParameterChangeIsRetainedWithDisplayText(t *testing.T) {
	broker := &fakeBroker{}
	s := New(broker, Options{})

	s.HandleEvent(core.ParameterChanged{Param: control.FilterCutoff, Value: 440, Source: core.SourceKnob})

	msgs := broker.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "synthpanel/param/filter_cutoff", msgs[0].topic)
	assert.True(t, msgs[0].retained)

	var p paramPayload
	require.NoError(t, json.Unmarshal(msgs[0].payload, &p))
	assert.Equal(t, paramPayload{Value: 440, Display: "440 Hz", Source: "knob"}, p)
	assert.Eventually(t, func() bool { return s.Published() == 1 }, time.Second, time.Millisecond)
}

func TestEventTopics(t *testing.T) {
	broker := &fakeBroker{}
	s := New(broker, Options{Prefix: "studio/panel"})

	s.HandleEvent(core.SwitchChanged{Switch: control.SwitchGlide, On: true})
	s.HandleEvent(core.ButtonClicked{Button: control.ButtonSave, Duration: 80 * time.Millisecond})
	s.HandleEvent(core.ButtonReleased{Button: control.ButtonBack, AfterHold: true, Duration: 900 * time.Millisecond})
	s.HandleEvent(core.EncoderStep{Delta: -2})

	msgs := broker.all()
	require.Len(t, msgs, 4)
	assert.Equal(t, "studio/panel/switch/glide", msgs[0].topic)
	assert.JSONEq(t, `{"on":true}`, string(msgs[0].payload))
	assert.True(t, msgs[0].retained)

	assert.Equal(t, "studio/panel/button/save", msgs[1].topic)
	assert.JSONEq(t, `{"action":"click"}`, string(msgs[1].payload))
	assert.False(t, msgs[1].retained)

	assert.Equal(t, "studio/panel/button/back", msgs[2].topic)
	assert.JSONEq(t, `{"action":"release","held_ms":900}`, string(msgs[2].payload))

	assert.Equal(t, "studio/panel/encoder", msgs[3].topic)
	assert.JSONEq(t, `{"delta":-2}`, string(msgs[3].payload))
}

func TestPublishFailuresAreCounted(t *testing.T) {
	broker := &fakeBroker{err: errors.New("not authorized")}
	s := New(broker, Options{})

	s.HandleEvent(core.EncoderStep{Delta: 1})
	assert.Eventually(t, func() bool { return s.Failed() == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, s.Published())
}

func TestUnacknowledgedPublishTimesOut(t *testing.T) {
	broker := &fakeBroker{stalled: true}
	s := New(broker, Options{Timeout: 10 * time.Millisecond})

	s.HandleEvent(core.ButtonHeld{Button: control.ButtonRecall})
	assert.Eventually(t, func() bool { return s.Failed() == 1 }, time.Second, time.Millisecond)
}

func TestFullAckQueueCountsFailures(t *testing.T) {
	broker := &fakeBroker{stalled: true}
	s := New(broker, Options{Timeout: 200 * time.Millisecond, Queue: 2})
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.HandleEvent(core.EncoderStep{Delta: 1})
	}
	assert.Len(t, broker.all(), 5, "messages are sent even when their acks cannot be tracked")
	// At most one in flight plus two queued.
	assert.GreaterOrEqual(t, s.Failed(), uint64(2))

	assert.Eventually(t, func() bool { return s.Failed() == 5 }, 2*time.Second, time.Millisecond)
	assert.Zero(t, s.Published())
}

func TestCloseWaitsForAcks(t *testing.T) {
	broker := &fakeBroker{}
	s := New(broker, Options{})

	for i := 0; i < 3; i++ {
		s.HandleEvent(core.EncoderStep{Delta: i})
	}
	s.Close()
	assert.Equal(t, uint64(3), s.Published())

	s.HandleEvent(core.EncoderStep{Delta: 1})
	s.Close()
	assert.Len(t, broker.all(), 3)
	assert.Equal(t, uint64(1), s.Failed())
}
