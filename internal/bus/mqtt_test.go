package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rileyhilliard/statemon/internal/config"
	"github.com/rileyhilliard/statemon/internal/errors"
	"github.com/rileyhilliard/statemon/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessage satisfies mqtt.Message for driving handlers directly.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func testClient(t *testing.T) (*Client, *logger.BufferLogger) {
	t.Helper()
	log := logger.NewBufferLogger()
	cfg := config.DefaultConfig().Bus
	return newClient(cfg, log), log
}

func TestReplyTopic(t *testing.T) {
	assert.Equal(t, "statemon/viewer/reply", ReplyTopic("viewer"))
}

func TestClient_Discovery(t *testing.T) {
	c, _ := testClient(t)

	for _, topic := range []string{
		"robot/swf/local_odometry",
		"a/rovio/odometry",
		"robot/swf/local_odometry",
		"statemon/other/reply",
	} {
		c.onDiscovery(nil, fakeMessage{topic: topic})
	}

	assert.Equal(t, []string{"a/rovio/odometry", "robot/swf/local_odometry"}, c.Topics())
}

func TestClient_SubscribeDispatch(t *testing.T) {
	c, _ := testClient(t)

	var got []Message
	require.NoError(t, c.Subscribe("a/imu", func(m Message) { got = append(got, m) }))
	require.NoError(t, c.Subscribe("a/imu", func(m Message) { got = append(got, m) }))

	c.dispatch(nil, fakeMessage{topic: "a/imu", payload: []byte("{}")})
	c.dispatch(nil, fakeMessage{topic: "b/imu", payload: []byte("{}")})

	require.Len(t, got, 2, "both handlers see the a/imu message, nothing sees b/imu")
	assert.Equal(t, "a/imu", got[0].Topic)
	assert.Equal(t, []byte("{}"), got[1].Payload)
}

func TestClient_OnReplyRoutesToPending(t *testing.T) {
	c, log := testClient(t)

	ch := make(chan Reply, 1)
	c.pending["abc"] = ch

	data, err := json.Marshal(Reply{ID: "abc", OK: true})
	require.NoError(t, err)
	c.onReply(nil, fakeMessage{topic: c.replyTopic, payload: data})

	select {
	case r := <-ch:
		assert.True(t, r.OK)
	default:
		t.Fatal("reply was not routed")
	}
	assert.NotContains(t, c.pending, "abc")

	c.onReply(nil, fakeMessage{topic: c.replyTopic, payload: []byte("garbage")})
	assert.True(t, log.HasLevel("warn"))

	// Unknown IDs are dropped without blocking
	data, err = json.Marshal(Reply{ID: "nobody", OK: true})
	require.NoError(t, err)
	c.onReply(nil, fakeMessage{topic: c.replyTopic, payload: data})
}

func TestClient_NotConnected(t *testing.T) {
	c, _ := testClient(t)

	err := c.Publish("x", []byte("y"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrBus))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.Call(ctx, "a/reset", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrReset))
	assert.Empty(t, c.pending, "pending entry is cleaned up")
}
