package service

import (
	"context"
	"fmt"
	"strings"

	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/events"
	pktNats "messaging-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, frameType string, data interface{})
}

// EventSubscriber is satisfied by the NATS subscriber.
type EventSubscriber interface {
	Subscribe(subject string, durableName string, handler pktNats.EventHandler) error
}

type INotificationService interface {
	List(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, notificationId, userId uuid.UUID) (*dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userId uuid.UUID) (*dto.MarkAllReadResponse, error)
}

type NotificationService struct {
	uowFactory unitofwork.RepositoryFactory
	subscriber EventSubscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(uowFactory unitofwork.RepositoryFactory, sub EventSubscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		uowFactory: uowFactory,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe(events.SubjectPrefix+">", "notification-fanout", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	s.logger.Debug("NotificationService", fmt.Sprintf("Processing event: %s", event.EventType()), map[string]interface{}{"type": event.EventType()})

	switch event.EventType() {
	case events.MessageCreated:
		return s.pushNotification(ctx, payload)

	case events.MessageEdited, events.MessageRead, events.MessageDeleted:
		frameType := strings.ToLower(event.EventType())
		for _, key := range []string{"sender_id", "receiver_id"} {
			if uid, ok := payloadUUID(payload, key); ok {
				s.deliver(uid, frameType, payload)
			}
		}
		return nil

	default:
		return nil
	}
}

// pushNotification fans out the stored row, so clients see the same id they
// later mark read. The row may still be waiting on a retry; returning an error
// lets the bus redeliver.
func (s *NotificationService) pushNotification(ctx context.Context, payload map[string]interface{}) error {
	messageId, ok := payloadUUID(payload, "message_id")
	if !ok {
		s.logger.Warn("NotificationService", "MESSAGE_CREATED without message_id", nil)
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	notification, err := uow.NotificationRepository().FindOne(ctx, specification.ByMessageID{MessageID: messageId})
	if err != nil {
		return err
	}
	if notification == nil {
		return fmt.Errorf("notification for message %s not stored yet", messageId)
	}

	s.deliver(notification.UserId, "notification", dto.NewNotificationResponse(notification))
	return nil
}

func (s *NotificationService) deliver(userID uuid.UUID, frameType string, data interface{}) {
	if s.delivery != nil {
		s.delivery.Send(userID, frameType, data)
	}
}

func payloadUUID(payload map[string]interface{}, key string) (uuid.UUID, bool) {
	raw, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (s *NotificationService) List(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.NotificationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	notifications, err := uow.NotificationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderByCreatedDesc(),
		specification.Limit{N: limit},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, dto.NewNotificationResponse(n))
	}
	return res, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.NotificationRepository().Count(ctx,
		specification.ByUserID{UserID: userId},
		specification.Unread{},
	)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationId, userId uuid.UUID) (*dto.NotificationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.NotificationRepository()

	notification, err := repo.FindOne(ctx, specification.ByID{ID: notificationId})
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, apperror.NotFound("notification %s not found", notificationId)
	}
	if notification.UserId != userId {
		return nil, apperror.PermissionDenied("only the recipient can mark a notification read")
	}
	if notification.IsRead {
		return dto.NewNotificationResponse(notification), nil
	}

	if _, err := repo.MarkRead(ctx, specification.ByID{ID: notificationId}); err != nil {
		return nil, err
	}
	updated, err := repo.FindOne(ctx, specification.ByID{ID: notificationId})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("notification %s not found", notificationId)
	}
	return dto.NewNotificationResponse(updated), nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userId uuid.UUID) (*dto.MarkAllReadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := uow.NotificationRepository().MarkRead(ctx, specification.ByUserID{UserID: userId})
	if err != nil {
		return nil, err
	}
	return &dto.MarkAllReadResponse{Updated: updated}, nil
}
