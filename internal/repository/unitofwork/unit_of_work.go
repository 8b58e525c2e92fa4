package unitofwork

import (
	"context"

	"messaging-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// SavePoint and RollbackTo scope a partial failure inside the active
	// transaction without aborting it.
	SavePoint(name string) error
	RollbackTo(name string) error

	UserRepository() contract.UserRepository
	MessageRepository() contract.MessageRepository
	MessageHistoryRepository() contract.MessageHistoryRepository
	NotificationRepository() contract.NotificationRepository
}
