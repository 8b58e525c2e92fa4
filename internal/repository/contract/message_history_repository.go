package contract

import (
	"context"

	"messaging-be/internal/entity"
	"messaging-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageHistoryRepository interface {
	Create(ctx context.Context, history *entity.MessageHistory) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MessageHistory, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByMessageIDs(ctx context.Context, messageIds []uuid.UUID) error
	ClearEditor(ctx context.Context, editorId uuid.UUID) error
}
