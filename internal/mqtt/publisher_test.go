package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/events"
)

type message struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	messages  []message
}

func (f *fakeClient) Connect(context.Context) error { f.connected = true; return nil }
func (f *fakeClient) IsConnected() bool             { return f.connected }
func (f *fakeClient) Disconnect()                   { f.connected = false }

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message{topic, payload})
	return nil
}

func TestPublisherTopicsAndPayload(t *testing.T) {
	fc := &fakeClient{connected: true}
	p := NewPublisher(fc, "shobdotori/progress/")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, p.ProcessEvent(events.ProgressEvent{
		Type:          events.RecordingCommitted,
		Dialect:       "dhaka",
		SentenceID:    7,
		SequenceIndex: 3,
		Recorded:      3,
		Total:         10,
		Status:        "in_progress",
		Timestamp:     ts,
	}))

	require.Len(t, fc.messages, 1)
	assert.Equal(t, "shobdotori/progress/dhaka", fc.messages[0].topic)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fc.messages[0].payload, &got))
	assert.Equal(t, "recording_committed", got["type"])
	assert.InDelta(t, 7, got["sentenceId"], 0)
	assert.Equal(t, "2026-03-01T10:00:00Z", got["timestamp"])

	assert.Equal(t, "shobdotori/progress", p.Topic(events.ProgressEvent{}))
	assert.Equal(t, "shobdotori/sylhet", NewPublisher(fc, "").Topic(events.ProgressEvent{Dialect: "sylhet"}))
}

func TestPublisherRequiresConnection(t *testing.T) {
	fc := &fakeClient{}
	err := NewPublisher(fc, "t").ProcessEvent(events.ProgressEvent{Type: events.DialectCompleted})
	require.Error(t, err)
	assert.Empty(t, fc.messages)
}

func TestNewClientRequiresBroker(t *testing.T) {
	_, err := NewClient(&conf.MQTTSettings{})
	require.Error(t, err)

	c, err := NewClient(&conf.MQTTSettings{Broker: "tcp://127.0.0.1:1883"})
	require.NoError(t, err)
	assert.False(t, c.IsConnected())
	require.Error(t, c.Publish(t.Context(), "x", []byte("{}")))
}
