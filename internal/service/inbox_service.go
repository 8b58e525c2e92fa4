package service

import (
	"context"
	"fmt"

	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/keylock"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/events"

	"github.com/google/uuid"
)

type IInboxService interface {
	// UnreadFor reads storage on every call; inbox state is never cached.
	UnreadFor(ctx context.Context, userId uuid.UUID) ([]*dto.UnreadMessageResponse, error)
	MarkRead(ctx context.Context, messageId, userId uuid.UUID) (*dto.MessageResponse, error)
	UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error)
}

type inboxService struct {
	uowFactory     unitofwork.RepositoryFactory
	users          UserDirectory
	eventPublisher EventPublisher
	locks          *keylock.KeyLock
	logger         logger.ILogger
}

func NewInboxService(
	uowFactory unitofwork.RepositoryFactory,
	users UserDirectory,
	eventPublisher EventPublisher,
	locks *keylock.KeyLock,
	log logger.ILogger,
) IInboxService {
	return &inboxService{
		uowFactory:     uowFactory,
		users:          users,
		eventPublisher: eventPublisher,
		locks:          locks,
		logger:         log,
	}
}

func (s *inboxService) ensureUser(ctx context.Context, userId uuid.UUID) error {
	exists, err := s.users.Exists(ctx, userId)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("user %s not found", userId)
	}
	return nil
}

func (s *inboxService) UnreadFor(ctx context.Context, userId uuid.UUID) ([]*dto.UnreadMessageResponse, error) {
	if err := s.ensureUser(ctx, userId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	unread, err := uow.MessageRepository().FindUnreadFor(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.UnreadMessageResponse, 0, len(unread))
	for _, u := range unread {
		res = append(res, dto.NewUnreadMessageResponse(u))
	}
	return res, nil
}

func (s *inboxService) MarkRead(ctx context.Context, messageId, userId uuid.UUID) (*dto.MessageResponse, error) {
	unlock := s.locks.Lock(messageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, fmt.Errorf("load message: %w", err)
	}
	if message == nil {
		return nil, apperror.NotFound("message %s not found", messageId)
	}
	if message.ReceiverId != userId {
		return nil, apperror.PermissionDenied("only the receiver can mark a message read")
	}
	if message.IsRead {
		return dto.NewMessageResponse(message), nil
	}

	if err := uow.MessageRepository().MarkRead(ctx, messageId); err != nil {
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	if _, err := uow.NotificationRepository().MarkRead(ctx, specification.ByMessageID{MessageID: messageId}); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	message.IsRead = true

	publishEvent(ctx, s.eventPublisher, s.logger, "InboxService", events.MessageRead, map[string]interface{}{
		"message_id":  message.Id.String(),
		"sender_id":   message.SenderId.String(),
		"receiver_id": message.ReceiverId.String(),
	})

	return dto.NewMessageResponse(message), nil
}

func (s *inboxService) UnreadCount(ctx context.Context, userId uuid.UUID) (*dto.UnreadCountResponse, error) {
	if err := s.ensureUser(ctx, userId); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.MessageRepository().Count(ctx,
		specification.ReceivedBy{UserID: userId},
		specification.Unread{},
	)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}
