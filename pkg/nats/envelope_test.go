package nats

import (
	"testing"
	"time"

	"messaging-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKeepsType(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := events.BaseEvent{Type: events.MessageRead, Data: map[string]interface{}{"message_id": "m1"}, OccurredAt: at}

	raw, err := encode(in)
	require.NoError(t, err)

	out, err := decode("events.MESSAGE_READ", raw)
	require.NoError(t, err)
	assert.Equal(t, events.MessageRead, out.Type)
	assert.Equal(t, "m1", out.Data["message_id"])
	assert.True(t, at.Equal(out.OccurredAt))
}

func TestDecodeBarePayloadUsesSubject(t *testing.T) {
	out, err := decode("events.USER_DELETED", []byte(`{"user_id":"u1"}`))
	require.NoError(t, err)

	assert.Equal(t, events.UserDeleted, out.Type)
	assert.Equal(t, "u1", out.Data["user_id"])
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decode("events.X", []byte("not json"))
	assert.Error(t, err)
}
