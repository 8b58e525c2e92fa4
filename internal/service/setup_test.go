package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"messaging-be/internal/dto"
	"messaging-be/internal/entity"
	"messaging-be/internal/pkg/keylock"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/repository/contract"
	"messaging-be/internal/repository/memory"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/database"
	"messaging-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testRetryTopic = "notification.dispatch.retry.test"

// fakeClock advances one second per call so created_at ordering is stable.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type recordingRetries struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (r *recordingRetries) ScheduleNotificationRetry(_ context.Context, messageId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, messageId)
	return nil
}

func (r *recordingRetries) scheduled() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.ids...)
}

// flakyFactory hands out units whose notification inserts fail until the
// configured number of failures is used up.
type flakyFactory struct {
	inner unitofwork.RepositoryFactory
	mu    sync.Mutex
	fails int
}

func (f *flakyFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &flakyUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx), factory: f}
}

func (f *flakyFactory) take() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails <= 0 {
		return false
	}
	f.fails--
	return true
}

type flakyUnitOfWork struct {
	unitofwork.UnitOfWork
	factory *flakyFactory
}

func (u *flakyUnitOfWork) NotificationRepository() contract.NotificationRepository {
	return &flakyNotificationRepository{NotificationRepository: u.UnitOfWork.NotificationRepository(), factory: u.factory}
}

type flakyNotificationRepository struct {
	contract.NotificationRepository
	factory *flakyFactory
}

var errNotificationStore = errors.New("notification store unavailable")

func (r *flakyNotificationRepository) CreateIfAbsent(ctx context.Context, n *entity.Notification) (bool, error) {
	if r.factory.take() {
		return false, errNotificationStore
	}
	return r.NotificationRepository.CreateIfAbsent(ctx, n)
}

type testEnv struct {
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	clock      *fakeClock
	events     *recordingPublisher
	retries    *recordingRetries
	log        logger.ILogger

	users      IUserService
	history    IHistoryTracker
	dispatcher INotificationDispatcher
	messages   IMessageService
	threads    IThreadService
	inbox      IInboxService
}

type envOption func(*envConfig)

type envConfig struct {
	policy  MessagePolicy
	factory func(unitofwork.RepositoryFactory) unitofwork.RepositoryFactory
	retries IPublisherService
}

func withPolicy(p MessagePolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

func withFactory(wrap func(unitofwork.RepositoryFactory) unitofwork.RepositoryFactory) envOption {
	return func(c *envConfig) { c.factory = wrap }
}

func withRetryPublisher(p IPublisherService) envOption {
	return func(c *envConfig) { c.retries = p }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{policy: MessagePolicy{RestrictEditsToSender: true}}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := newTestDB(t)
	var factory unitofwork.RepositoryFactory = unitofwork.NewRepositoryFactory(db)
	if cfg.factory != nil {
		factory = cfg.factory(factory)
	}

	env := &testEnv{
		db:         db,
		uowFactory: factory,
		clock:      newFakeClock(),
		events:     &recordingPublisher{},
		retries:    &recordingRetries{},
		log:        logger.NewNopLogger(),
	}

	var retries IPublisherService = env.retries
	if cfg.retries != nil {
		retries = cfg.retries
	}

	locks := keylock.New()

	users := NewUserService(factory, memory.NewUserCache(time.Minute), env.events, env.log)
	users.(*userService).now = env.clock.Now

	history := NewHistoryTracker(factory)
	history.(*historyTracker).now = env.clock.Now

	dispatcher := NewNotificationDispatcher(factory, env.log)
	dispatcher.(*notificationDispatcher).now = env.clock.Now

	messages := NewMessageService(factory, history, dispatcher, retries, env.events, locks, cfg.policy, env.log)
	messages.(*messageService).now = env.clock.Now

	env.users = users
	env.history = history
	env.dispatcher = dispatcher
	env.messages = messages
	env.threads = NewThreadService(factory, users)
	env.inbox = NewInboxService(factory, users, env.events, locks, env.log)
	return env
}

func (e *testEnv) register(t *testing.T, username string) *dto.UserResponse {
	t.Helper()
	user, err := e.users.Register(context.Background(), &dto.RegisterUserRequest{
		Username: username,
		Email:    username + "@example.com",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) send(t *testing.T, from, to uuid.UUID, content string, parent *uuid.UUID) *dto.MessageResponse {
	t.Helper()
	msg, err := e.messages.Create(context.Background(), from, &dto.CreateMessageRequest{
		ReceiverId:      to,
		Content:         content,
		ParentMessageId: parent,
	})
	require.NoError(t, err)
	return msg
}

func (e *testEnv) count(t *testing.T, table string, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := e.db.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func newTestPubSub(t *testing.T, log logger.ILogger) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, logger.NewWatermillAdapter(log, "JobBus"))
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

