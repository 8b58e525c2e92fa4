package service

import (
	"context"
	"encoding/json"

	"messaging-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IPublisherService queues background jobs on the in-process bus.
type IPublisherService interface {
	ScheduleNotificationRetry(ctx context.Context, messageId uuid.UUID) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) ScheduleNotificationRetry(ctx context.Context, messageId uuid.UUID) error {
	payload, err := json.Marshal(dto.NotificationRetryJob{MessageId: messageId})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(context.WithoutCancel(ctx))
	msg.Metadata.Set("message_id", messageId.String())

	return ps.publisher.Publish(ps.topicName, msg)
}
