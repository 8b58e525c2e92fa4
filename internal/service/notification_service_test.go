package service

import (
	"context"
	"sync"
	"testing"

	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/pkg/events"
	pktNats "messaging-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentFrame struct {
	userID    uuid.UUID
	frameType string
	data      interface{}
}

type fakeDelivery struct {
	mu     sync.Mutex
	frames []sentFrame
}

func (d *fakeDelivery) Send(userID uuid.UUID, frameType string, data interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, sentFrame{userID: userID, frameType: frameType, data: data})
}

func (d *fakeDelivery) sent() []sentFrame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentFrame(nil), d.frames...)
}

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
}

func (s *fakeSubscriber) Subscribe(subject, durable string, handler pktNats.EventHandler) error {
	s.subject, s.durable, s.handler = subject, durable, handler
	return nil
}

func TestNotificationServiceFansOutStoredNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	msg := env.send(t, alice.Id, bob.Id, "ping", nil)

	sub := &fakeSubscriber{}
	delivery := &fakeDelivery{}
	svc := NewNotificationService(env.uowFactory, sub, delivery, env.log)
	svc.Start()
	require.NotNil(t, sub.handler)
	assert.Equal(t, events.SubjectPrefix+">", sub.subject)

	err := sub.handler(ctx, events.New(events.MessageCreated, map[string]interface{}{
		"message_id":  msg.Id.String(),
		"sender_id":   alice.Id.String(),
		"receiver_id": bob.Id.String(),
	}))
	require.NoError(t, err)

	frames := delivery.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, bob.Id, frames[0].userID)
	assert.Equal(t, "notification", frames[0].frameType)
	payload, ok := frames[0].data.(*dto.NotificationResponse)
	require.True(t, ok)
	assert.Equal(t, msg.Id, payload.MessageId)
}

func TestNotificationServiceAsksForRedeliveryWhileRowIsMissing(t *testing.T) {
	env := newTestEnv(t)
	delivery := &fakeDelivery{}
	svc := NewNotificationService(env.uowFactory, &fakeSubscriber{}, delivery, env.log)

	err := svc.handleEvent(context.Background(), events.New(events.MessageCreated, map[string]interface{}{
		"message_id": uuid.New().String(),
	}))
	assert.Error(t, err)
	assert.Empty(t, delivery.sent())
}

func TestNotificationServiceForwardsMessageEventsToParticipants(t *testing.T) {
	env := newTestEnv(t)
	delivery := &fakeDelivery{}
	svc := NewNotificationService(env.uowFactory, &fakeSubscriber{}, delivery, env.log)
	sender, receiver := uuid.New(), uuid.New()

	for _, typ := range []string{events.MessageEdited, events.MessageRead, events.MessageDeleted} {
		require.NoError(t, svc.handleEvent(context.Background(), events.New(typ, map[string]interface{}{
			"message_id":  uuid.New().String(),
			"sender_id":   sender.String(),
			"receiver_id": receiver.String(),
		})))
	}
	require.NoError(t, svc.handleEvent(context.Background(), events.New(events.UserDeleted, map[string]interface{}{
		"user_id": sender.String(),
	})))

	frames := delivery.sent()
	require.Len(t, frames, 6)
	assert.Equal(t, "message_edited", frames[0].frameType)
	assert.Equal(t, sender, frames[0].userID)
	assert.Equal(t, receiver, frames[1].userID)
	assert.Equal(t, "message_read", frames[2].frameType)
	assert.Equal(t, "message_deleted", frames[4].frameType)
}

func TestNotificationReadPaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	first := env.send(t, alice.Id, bob.Id, "one", nil)
	env.send(t, alice.Id, bob.Id, "two", nil)
	env.send(t, alice.Id, bob.Id, "three", nil)

	svc := NewNotificationService(env.uowFactory, nil, nil, env.log)

	list, err := svc.List(ctx, bob.Id, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	all, err := svc.List(ctx, bob.Id, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	var target *dto.NotificationResponse
	for _, n := range all {
		if n.MessageId == first.Id {
			target = n
		}
	}
	require.NotNil(t, target)

	_, err = svc.MarkRead(ctx, target.Id, alice.Id)
	assert.ErrorIs(t, err, apperror.ErrPermissionDenied)
	_, err = svc.MarkRead(ctx, uuid.New(), bob.Id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	read, err := svc.MarkRead(ctx, target.Id, bob.Id)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	count, err := svc.UnreadCount(ctx, bob.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count.Count)

	res, err := svc.MarkAllRead(ctx, bob.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Updated)

	count, err = svc.UnreadCount(ctx, bob.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count.Count)

	// reading a notification leaves the message itself unread
	assert.EqualValues(t, 3, env.count(t, "messages", "receiver_id = ? AND is_read = ?", bob.Id, false))
}

