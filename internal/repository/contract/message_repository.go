package contract

import (
	"context"

	"messaging-be/internal/entity"
	"messaging-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// UpdateIfVersion writes content and edit flags only when the stored version
	// still equals expectedVersion, bumping the version. It reports false when
	// another writer got there first.
	UpdateIfVersion(ctx context.Context, message *entity.Message, expectedVersion int) (bool, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	FindIDs(ctx context.Context, specs ...specification.Specification) ([]uuid.UUID, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	FindUnreadFor(ctx context.Context, receiverId uuid.UUID) ([]*entity.UnreadMessage, error)
}
