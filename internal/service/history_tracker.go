package service

import (
	"context"
	"fmt"

	"messaging-be/internal/dto"
	"messaging-be/internal/entity"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IHistoryTracker interface {
	// Track snapshots the stored content when newContent differs and applies
	// the edit to message. It must run inside the update transaction.
	Track(ctx context.Context, uow unitofwork.UnitOfWork, message *entity.Message, newContent string, editorId uuid.UUID) (bool, error)
	History(ctx context.Context, messageId, callerId uuid.UUID) ([]*dto.MessageHistoryResponse, error)
}

type historyTracker struct {
	uowFactory unitofwork.RepositoryFactory
	now        Clock
}

func NewHistoryTracker(uowFactory unitofwork.RepositoryFactory) IHistoryTracker {
	return &historyTracker{
		uowFactory: uowFactory,
		now:        systemClock,
	}
}

func (t *historyTracker) Track(ctx context.Context, uow unitofwork.UnitOfWork, message *entity.Message, newContent string, editorId uuid.UUID) (bool, error) {
	if message.Content == newContent {
		return false, nil
	}

	editedAt := t.now()
	editor := editorId
	history := entity.MessageHistory{
		Id:         uuid.New(),
		MessageId:  message.Id,
		OldContent: message.Content,
		EditedAt:   editedAt,
		EditedBy:   &editor,
	}
	if err := uow.MessageHistoryRepository().Create(ctx, &history); err != nil {
		return false, fmt.Errorf("append history: %w", err)
	}

	message.Content = newContent
	message.Edited = true
	message.LastEditedAt = &editedAt
	return true, nil
}

func (t *historyTracker) History(ctx context.Context, messageId, callerId uuid.UUID) ([]*dto.MessageHistoryResponse, error) {
	uow := t.uowFactory.NewUnitOfWork(ctx)

	message, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: messageId})
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NotFound("message %s not found", messageId)
	}
	if !message.IsParticipant(callerId) {
		return nil, apperror.PermissionDenied("only participants can read the edit history")
	}

	histories, err := uow.MessageHistoryRepository().FindAll(ctx,
		specification.ByMessageID{MessageID: messageId},
		specification.OrderBy{Field: "edited_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageHistoryResponse, 0, len(histories))
	for _, h := range histories {
		res = append(res, dto.NewMessageHistoryResponse(h))
	}
	return res, nil
}
