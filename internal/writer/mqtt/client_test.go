// internal/writer/mqtt/client_test.go
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/kneader-monitor/internal/archive"
	"github.com/tamzrod/kneader-monitor/internal/status"
)

// ---- fake paho ----

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, finished bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if finished {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	msgs         []published
	err          error
	hang         bool
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.msgs = append(f.msgs, published{topic, qos, retained, payload.([]byte)})
	return newToken(f.err, !f.hang)
}

func (f *fakePublisher) Disconnect(uint) { f.disconnected = true }

func newTestClient(pub *fakePublisher) *Client {
	return &Client{pub: pub, cfg: Config{QoS: 1, TopicPrefix: "plant/kneaders"}}
}

// ---- tests ----

func TestWriteState_RetainedPerAddress(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestClient(pub)

	err := c.WriteState(context.Background(), status.DeviceState{Name: "K3", Address: 3, CurrentWeight: 12.5, Connected: true})
	require.NoError(t, err)

	require.Len(t, pub.msgs, 1)
	m := pub.msgs[0]
	assert.Equal(t, "plant/kneaders/state/3", m.topic)
	assert.True(t, m.retained)
	assert.Equal(t, byte(1), m.qos)

	var got map[string]any
	require.NoError(t, json.Unmarshal(m.payload, &got))
	assert.Equal(t, 12.5, got["currentWeight"])
}

func TestWriteEvent_NotRetained(t *testing.T) {
	pub := &fakePublisher{}
	c := newTestClient(pub)

	require.NoError(t, c.WriteEvent(context.Background(), archive.Record{Kneader: "K3", Weight: 50}))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "plant/kneaders/events", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)
}

func TestPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	c := newTestClient(pub)

	err := c.WriteState(context.Background(), status.DeviceState{Address: 1})
	assert.ErrorContains(t, err, "not connected")
}

func TestPublishHonoursContext(t *testing.T) {
	pub := &fakePublisher{hang: true}
	c := newTestClient(pub)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.WriteEvent(ctx, archive.Record{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClose(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, newTestClient(pub).Close())
	assert.True(t, pub.disconnected)
}

func TestNew_RequiresBroker(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
