package service

import (
	"context"
	"fmt"

	"messaging-be/internal/entity"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/contract"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	dispatchSavePoint = "notification_dispatch"
	previewLength     = 80
)

type INotificationDispatcher interface {
	// Dispatch stores the receiver's notification inside the create
	// transaction. A failed insert is contained by a savepoint and reported as
	// false so the caller can schedule a retry after commit; a returned error
	// means the transaction itself is unusable.
	Dispatch(ctx context.Context, uow unitofwork.UnitOfWork, message *entity.Message) (bool, error)
	// Redeliver dispatches outside any request transaction, for retries.
	Redeliver(ctx context.Context, messageId uuid.UUID) error
}

type notificationDispatcher struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	now        Clock
}

func NewNotificationDispatcher(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) INotificationDispatcher {
	return &notificationDispatcher{
		uowFactory: uowFactory,
		logger:     log,
		now:        systemClock,
	}
}

func (d *notificationDispatcher) Dispatch(ctx context.Context, uow unitofwork.UnitOfWork, message *entity.Message) (bool, error) {
	if err := uow.SavePoint(dispatchSavePoint); err != nil {
		d.logger.Error("NotificationDispatcher", "Failed to set savepoint", map[string]interface{}{
			"message_id": message.Id.String(),
			"error":      err.Error(),
		})
		return false, nil
	}

	if _, err := d.store(ctx, uow.NotificationRepository(), message); err != nil {
		if rbErr := uow.RollbackTo(dispatchSavePoint); rbErr != nil {
			return false, fmt.Errorf("rollback notification savepoint: %w", rbErr)
		}
		d.logger.Error("NotificationDispatcher", "Failed to store notification, scheduling retry", map[string]interface{}{
			"message_id": message.Id.String(),
			"user_id":    message.ReceiverId.String(),
			"error":      err.Error(),
		})
		return false, nil
	}
	return true, nil
}

func (d *notificationDispatcher) Redeliver(ctx context.Context, messageId uuid.UUID) error {
	uow := d.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return fmt.Errorf("load message %s: %w", messageId, err)
	}
	if message == nil {
		d.logger.Warn("NotificationDispatcher", "Message gone before retry, dropping", map[string]interface{}{
			"message_id": messageId.String(),
		})
		return nil
	}

	created, err := d.store(ctx, uow.NotificationRepository(), message)
	if err != nil {
		return err
	}
	d.logger.Info("NotificationDispatcher", "Notification redelivered", map[string]interface{}{
		"message_id": messageId.String(),
		"created":    created,
	})
	return nil
}

// store is idempotent on message id.
func (d *notificationDispatcher) store(ctx context.Context, repo contract.NotificationRepository, message *entity.Message) (bool, error) {
	notification := entity.Notification{
		Id:        uuid.New(),
		UserId:    message.ReceiverId,
		MessageId: message.Id,
		Metadata: map[string]interface{}{
			"sender_id": message.SenderId.String(),
			"preview":   preview(message.Content, previewLength),
		},
		IsRead:    false,
		CreatedAt: d.now(),
	}
	if message.ParentMessageId != nil {
		notification.Metadata["parent_message_id"] = message.ParentMessageId.String()
	}
	return repo.CreateIfAbsent(ctx, &notification)
}
