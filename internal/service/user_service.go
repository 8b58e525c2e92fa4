package service

import (
	"context"
	"fmt"
	"strings"

	"messaging-be/internal/dto"
	"messaging-be/internal/entity"
	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/memory"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/events"

	"github.com/google/uuid"
)

type IUserService interface {
	Register(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error)
	Get(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error)
	Exists(ctx context.Context, userId uuid.UUID) (bool, error)
	// Delete removes the user and every message they sent or received in a
	// single transaction.
	Delete(ctx context.Context, userId uuid.UUID) error
}

type userService struct {
	uowFactory     unitofwork.RepositoryFactory
	cache          *memory.UserCache
	eventPublisher EventPublisher
	logger         logger.ILogger
	now            Clock
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, cache *memory.UserCache, eventPublisher EventPublisher, log logger.ILogger) IUserService {
	return &userService{
		uowFactory:     uowFactory,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         log,
		now:            systemClock,
	}
}

func (s *userService) Register(ctx context.Context, req *dto.RegisterUserRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, apperror.InvalidArgument("username and email are required")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.UserRepository()

	taken, err := repo.Count(ctx, specification.Filter("username", username))
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, apperror.Conflict("username %q is already taken", username)
	}
	taken, err = repo.Count(ctx, specification.Filter("email", email))
	if err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, apperror.Conflict("email %q is already registered", email)
	}

	user := entity.User{
		Id:        uuid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := repo.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.cache.Save(&user)

	return dto.NewUserResponse(&user), nil
}

func (s *userService) load(ctx context.Context, userId uuid.UUID) (*entity.User, error) {
	if user, found := s.cache.Get(userId); found {
		return user, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user != nil {
		s.cache.Save(user)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, userId uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.load(ctx, userId)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", userId)
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Exists(ctx context.Context, userId uuid.UUID) (bool, error) {
	user, err := s.load(ctx, userId)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *userService) Delete(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.NotFound("user %s not found", userId)
	}

	owned, err := uow.MessageRepository().FindIDs(ctx, specification.InvolvingUser{UserID: userId})
	if err != nil {
		return fmt.Errorf("find user messages: %w", err)
	}
	ids, err := collectReplies(ctx, uow.MessageRepository(), owned)
	if err != nil {
		return err
	}
	if err := purgeMessages(ctx, uow, ids); err != nil {
		return err
	}
	if err := uow.MessageHistoryRepository().ClearEditor(ctx, userId); err != nil {
		return fmt.Errorf("detach editor: %w", err)
	}
	if err := uow.NotificationRepository().DeleteByUserID(ctx, userId); err != nil {
		return fmt.Errorf("delete user notifications: %w", err)
	}
	if err := uow.UserRepository().Delete(ctx, userId); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	s.cache.Delete(userId)

	s.logger.Info("UserService", "User deleted", map[string]interface{}{
		"user_id":          userId.String(),
		"messages_removed": len(ids),
	})
	publishEvent(ctx, s.eventPublisher, s.logger, "UserService", events.UserDeleted, map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}
