package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"messaging-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSendReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()
	defer hub.Stop()

	alice := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	bob := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 4)}
	hub.register <- alice
	hub.register <- bob

	hub.Send(alice.UserID, "notification", map[string]string{"message_id": "m1"})

	select {
	case raw := <-alice.Send:
		var frame struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &frame))
		assert.Equal(t, "notification", frame.Type)
		assert.Equal(t, "m1", frame.Data["message_id"])
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the frame")
	}

	select {
	case <-bob.Send:
		t.Fatal("bob should not receive alice's frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()
	defer hub.Stop()

	c := &Client{Hub: hub, UserID: uuid.New(), Send: make(chan []byte, 1)}
	hub.register <- c
	hub.unregister <- c
	// A second unregister, as readPump does on exit, is harmless.
	hub.unregister <- c

	_, open := <-c.Send
	assert.False(t, open)
}

func TestHubEvictsEverySlowDeviceOfAUser(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run()
	defer hub.Stop()

	user := uuid.New()
	// Unbuffered channels with no reader are always full.
	phone := &Client{Hub: hub, UserID: user, Send: make(chan []byte)}
	laptop := &Client{Hub: hub, UserID: user, Send: make(chan []byte, 4)}
	tablet := &Client{Hub: hub, UserID: user, Send: make(chan []byte)}
	for _, c := range []*Client{phone, laptop, tablet} {
		hub.register <- c
	}

	hub.Send(user, "notification", "first")
	hub.Send(user, "notification", "second")

	for i := 0; i < 2; i++ {
		select {
		case <-laptop.Send:
		case <-time.After(time.Second):
			t.Fatalf("laptop missed frame %d", i+1)
		}
	}

	_, open := <-phone.Send
	assert.False(t, open)
	_, open = <-tablet.Send
	assert.False(t, open)

	// The hub keeps serving the remaining device.
	hub.Send(user, "notification", "third")
	select {
	case raw := <-laptop.Send:
		assert.Contains(t, string(raw), "third")
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after evictions")
	}
}

func TestHubSendReturnsAfterStop(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	hub.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// More frames than the delivery buffer holds, with no Run loop draining it.
		for i := 0; i < 300; i++ {
			hub.Send(uuid.New(), "notification", i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked after the hub stopped")
	}
}
