package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ridwan414/shobdotori/internal/conf"
	"github.com/Ridwan414/shobdotori/internal/events"
)

type sent struct{ title, message string }

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.sent = append(f.sent, sent{title, message})
	return f.err
}

func TestNotifierSendsCompletionAndReset(t *testing.T) {
	fs := &fakeSender{}
	n := NewNotifier(fs, time.Second)

	require.NoError(t, n.ProcessEvent(events.ProgressEvent{Type: events.RecordingCommitted, Dialect: "dhaka"}))
	assert.Empty(t, fs.sent, "commits are not notified")

	require.NoError(t, n.ProcessEvent(events.ProgressEvent{Type: events.DialectCompleted, Dialect: "dhaka", Total: 120}))
	require.NoError(t, n.ProcessEvent(events.ProgressEvent{
		Type:    events.DialectReset,
		Dialect: "sylhet",
		Total:   50,
		Details: map[string]any{"deletedFiles": 12, "failedFiles": 1},
	}))

	require.Len(t, fs.sent, 2)
	assert.Equal(t, "Dialect dhaka completed", fs.sent[0].title)
	assert.Equal(t, "All 120 sentences of dhaka have been recorded.", fs.sent[0].message)
	assert.Equal(t, "Dialect sylhet reset", fs.sent[1].title)
	assert.Contains(t, fs.sent[1].message, "Deleted files: 12, failed: 1.")
}

func TestNotifierReturnsSendErrors(t *testing.T) {
	fs := &fakeSender{err: errors.New("smtp unavailable")}
	err := NewNotifier(fs, 0).ProcessEvent(events.ProgressEvent{Type: events.DialectCompleted, Dialect: "khulna"})
	require.Error(t, err)
}

func TestNewNotifierFromSettings(t *testing.T) {
	n, err := New(&conf.NotificationSettings{})
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = New(&conf.NotificationSettings{Enabled: true})
	require.Error(t, err)

	_, err = New(&conf.NotificationSettings{Enabled: true, URLs: []string{"nosuchservice://token@host"}})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "token@")

	n, err = New(&conf.NotificationSettings{Enabled: true, URLs: []string{"logger://"}, Timeout: time.Second})
	require.NoError(t, err)
	require.NotNil(t, n)
	require.NoError(t, n.ProcessEvent(events.ProgressEvent{Type: events.DialectCompleted, Dialect: "rangpur", Total: 3}))
}
