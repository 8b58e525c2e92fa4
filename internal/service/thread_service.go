package service

import (
	"context"

	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IThreadService interface {
	// GetThread returns the root followed by its direct replies, oldest first.
	GetThread(ctx context.Context, rootId uuid.UUID) ([]*dto.MessageResponse, error)
	// GetThreadAs is GetThread restricted to participants of the root.
	GetThreadAs(ctx context.Context, rootId, callerId uuid.UUID) ([]*dto.MessageResponse, error)
	ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.MessageResponse, error)
}

type threadService struct {
	uowFactory unitofwork.RepositoryFactory
	users      UserDirectory
}

func NewThreadService(uowFactory unitofwork.RepositoryFactory, users UserDirectory) IThreadService {
	return &threadService{
		uowFactory: uowFactory,
		users:      users,
	}
}

func (s *threadService) GetThread(ctx context.Context, rootId uuid.UUID) ([]*dto.MessageResponse, error) {
	return s.thread(ctx, rootId, nil)
}

func (s *threadService) GetThreadAs(ctx context.Context, rootId, callerId uuid.UUID) ([]*dto.MessageResponse, error) {
	return s.thread(ctx, rootId, &callerId)
}

func (s *threadService) thread(ctx context.Context, rootId uuid.UUID, callerId *uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	root, err := uow.MessageRepository().FindOne(ctx, specification.ByID{ID: rootId})
	if err != nil {
		return nil, err
	}
	if root == nil || !root.IsThreadRoot {
		return nil, apperror.NotFound("thread %s not found", rootId)
	}
	if callerId != nil && !root.IsParticipant(*callerId) {
		return nil, apperror.PermissionDenied("only participants can read this thread")
	}

	replies, err := uow.MessageRepository().FindAll(ctx,
		specification.Filter("parent_message_id", rootId),
		specification.OrderByCreatedAsc(),
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(replies)+1)
	res = append(res, dto.NewMessageResponse(root))
	return append(res, dto.NewMessageResponses(replies)...), nil
}

func (s *threadService) ListThreads(ctx context.Context, userId uuid.UUID) ([]*dto.MessageResponse, error) {
	exists, err := s.users.Exists(ctx, userId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("user %s not found", userId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	roots, err := uow.MessageRepository().FindAll(ctx,
		specification.ThreadRoots{},
		specification.InvolvingUser{UserID: userId},
		specification.OrderByCreatedDesc(),
	)
	if err != nil {
		return nil, err
	}
	return dto.NewMessageResponses(roots), nil
}
