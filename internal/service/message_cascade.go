package service

import (
	"context"
	"fmt"

	"messaging-be/internal/repository/contract"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// collectReplies expands roots with every message that replies to them,
// transitively, so no surviving message points at a deleted parent.
func collectReplies(ctx context.Context, repo contract.MessageRepository, roots []uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{}, len(roots))
	all := make([]uuid.UUID, 0, len(roots))
	frontier := make([]uuid.UUID, 0, len(roots))
	for _, id := range roots {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		all = append(all, id)
		frontier = append(frontier, id)
	}

	for len(frontier) > 0 {
		children, err := repo.FindIDs(ctx, specification.ByParentIDs{ParentIDs: frontier})
		if err != nil {
			return nil, fmt.Errorf("find replies: %w", err)
		}
		frontier = frontier[:0]
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			frontier = append(frontier, id)
		}
	}
	return all, nil
}

// purgeMessages removes messages with the notifications and histories they own.
func purgeMessages(ctx context.Context, uow unitofwork.UnitOfWork, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	// Writers editing these rows finish before their dependents are removed.
	if _, err := uow.MessageRepository().FindIDs(ctx, specification.ByIDs{IDs: ids}, specification.ForUpdate()); err != nil {
		return fmt.Errorf("lock messages: %w", err)
	}
	if err := uow.NotificationRepository().DeleteByMessageIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := uow.MessageHistoryRepository().DeleteByMessageIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete histories: %w", err)
	}
	if err := uow.MessageRepository().DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
