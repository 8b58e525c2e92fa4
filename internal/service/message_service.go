package service

import (
	"context"
	"fmt"

	"messaging-be/internal/dto"
	"messaging-be/internal/entity"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/keylock"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/events"

	"github.com/google/uuid"
)

type IMessageService interface {
	Create(ctx context.Context, senderId uuid.UUID, req *dto.CreateMessageRequest) (*dto.MessageResponse, error)
	UpdateContent(ctx context.Context, messageId, editorId uuid.UUID, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error)
	Delete(ctx context.Context, messageId, callerId uuid.UUID) error
	Get(ctx context.Context, messageId, callerId uuid.UUID) (*dto.MessageResponse, error)
}

type MessagePolicy struct {
	RestrictEditsToSender bool
}

type messageService struct {
	uowFactory       unitofwork.RepositoryFactory
	history          IHistoryTracker
	dispatcher       INotificationDispatcher
	publisherService IPublisherService
	eventPublisher   EventPublisher
	locks            *keylock.KeyLock
	policy           MessagePolicy
	logger           logger.ILogger
	now              Clock
}

func NewMessageService(
	uowFactory unitofwork.RepositoryFactory,
	history IHistoryTracker,
	dispatcher INotificationDispatcher,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	locks *keylock.KeyLock,
	policy MessagePolicy,
	log logger.ILogger,
) IMessageService {
	return &messageService{
		uowFactory:       uowFactory,
		history:          history,
		dispatcher:       dispatcher,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		locks:            locks,
		policy:           policy,
		logger:           log,
		now:              systemClock,
	}
}

func (s *messageService) Create(ctx context.Context, senderId uuid.UUID, req *dto.CreateMessageRequest) (*dto.MessageResponse, error) {
	if isBlank(req.Content) {
		return nil, apperror.InvalidArgument("content must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	for _, id := range []uuid.UUID{senderId, req.ReceiverId} {
		user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: id}, specification.ForShare())
		if err != nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return nil, apperror.NotFound("user %s not found", id)
		}
	}

	if req.ParentMessageId != nil {
		parent, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: *req.ParentMessageId}, specification.ForShare())
		if err != nil {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		if parent == nil {
			return nil, apperror.NotFound("parent message %s not found", *req.ParentMessageId)
		}
	}

	message := entity.Message{
		Id:              uuid.New(),
		SenderId:        senderId,
		ReceiverId:      req.ReceiverId,
		Content:         req.Content,
		ParentMessageId: req.ParentMessageId,
		IsThreadRoot:    req.ParentMessageId == nil,
		Version:         1,
		CreatedAt:       s.now(),
	}
	if err := uow.MessageRepository().Create(ctx, &message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	dispatched, err := s.dispatcher.Dispatch(ctx, uow, &message)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if !dispatched {
		if err := s.publisherService.ScheduleNotificationRetry(ctx, message.Id); err != nil {
			s.logger.Error("MessageService", "Failed to schedule notification retry", map[string]interface{}{
				"message_id": message.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	s.logger.Info("MessageService", "Message created", map[string]interface{}{
		"message_id": message.Id.String(),
		"sender_id":  senderId.String(),
		"thread":     message.IsThreadRoot,
	})

	data := map[string]interface{}{
		"message_id":  message.Id.String(),
		"sender_id":   message.SenderId.String(),
		"receiver_id": message.ReceiverId.String(),
	}
	if message.ParentMessageId != nil {
		data["parent_message_id"] = message.ParentMessageId.String()
	}
	publishEvent(ctx, s.eventPublisher, s.logger, "MessageService", events.MessageCreated, data)

	return dto.NewMessageResponse(&message), nil
}

func (s *messageService) UpdateContent(ctx context.Context, messageId, editorId uuid.UUID, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error) {
	if isBlank(req.Content) {
		return nil, apperror.InvalidArgument("content must not be empty")
	}

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
	if err := s.authorizeEdit(message, editorId); err != nil {
		return nil, err
	}

	changed, err := s.history.Track(ctx, uow, message, req.Content, editorId)
	if err != nil {
		return nil, err
	}
	if !changed {
		return dto.NewMessageResponse(message), nil
	}

	ok, err := uow.MessageRepository().UpdateIfVersion(ctx, message, message.Version)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if !ok {
		remaining, err := uow.MessageRepository().Count(ctx, specification.ByID{ID: messageId})
		if err != nil {
			return nil, err
		}
		if remaining == 0 {
			return nil, apperror.NotFound("message %s not found", messageId)
		}
		return nil, apperror.Conflict("message %s was modified concurrently", messageId)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, "MessageService", events.MessageEdited, map[string]interface{}{
		"message_id":  message.Id.String(),
		"sender_id":   message.SenderId.String(),
		"receiver_id": message.ReceiverId.String(),
		"editor_id":   editorId.String(),
	})

	return dto.NewMessageResponse(message), nil
}

// authorizeEdit allows only the sender when edits are restricted, otherwise
// either participant.
func (s *messageService) authorizeEdit(message *entity.Message, editorId uuid.UUID) error {
	if s.policy.RestrictEditsToSender {
		if message.SenderId != editorId {
			return apperror.PermissionDenied("only the sender can edit this message")
		}
		return nil
	}
	if !message.IsParticipant(editorId) {
		return apperror.PermissionDenied("only participants can edit this message")
	}
	return nil
}

func (s *messageService) Delete(ctx context.Context, messageId, callerId uuid.UUID) error {
	unlock := s.locks.Lock(messageId.String())
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return fmt.Errorf("load message: %w", err)
	}
	if message == nil {
		return apperror.NotFound("message %s not found", messageId)
	}
	if !message.IsParticipant(callerId) {
		return apperror.PermissionDenied("only participants can delete this message")
	}

	ids, err := collectReplies(ctx, uow.MessageRepository(), []uuid.UUID{messageId})
	if err != nil {
		return err
	}
	if err := purgeMessages(ctx, uow, ids); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, "MessageService", events.MessageDeleted, map[string]interface{}{
		"message_id":  message.Id.String(),
		"sender_id":   message.SenderId.String(),
		"receiver_id": message.ReceiverId.String(),
		"removed":     len(ids),
	})
	return nil
}

func (s *messageService) Get(ctx context.Context, messageId, callerId uuid.UUID) (*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NotFound("message %s not found", messageId)
	}
	if !message.IsParticipant(callerId) {
		return nil, apperror.PermissionDenied("only participants can read this message")
	}
	return dto.NewMessageResponse(message), nil
}
