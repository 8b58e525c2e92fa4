package contract

import (
	"context"

	"messaging-be/internal/entity"
	"messaging-be/internal/repository/specification"

	"github.com/google/uuid"
)

type NotificationRepository interface {
	// CreateIfAbsent inserts the notification unless one already exists for the
	// same message. It reports whether a row was written.
	CreateIfAbsent(ctx context.Context, notification *entity.Notification) (bool, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Notification, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	MarkRead(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByMessageIDs(ctx context.Context, messageIds []uuid.UUID) error
	DeleteByUserID(ctx context.Context, userId uuid.UUID) error
}
