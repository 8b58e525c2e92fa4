package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"messaging-be/internal/entity"
	"messaging-be/internal/repository/specification"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, database.Migrate(gormDB))

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)

	newUser := func(t *testing.T) *entity.User {
		suffix := uuid.NewString()[:8]
		u := &entity.User{
			Id:        uuid.New(),
			Username:  "it-" + suffix,
			Email:     "it-" + suffix + "@example.com",
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, uowFactory.NewUnitOfWork(ctx).UserRepository().Create(ctx, u))
		return u
	}

	t.Run("Savepoint keeps the transaction usable after a failed insert", func(t *testing.T) {
		sender, receiver := newUser(t), newUser(t)

		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		msg := &entity.Message{
			Id:           uuid.New(),
			SenderId:     sender.Id,
			ReceiverId:   receiver.Id,
			Content:      "integration",
			IsThreadRoot: true,
			Version:      1,
			CreatedAt:    time.Now().UTC(),
		}
		require.NoError(t, uow.MessageRepository().Create(ctx, msg))

		// a failing insert aborts the statement; postgres then needs the
		// savepoint to keep going
		dupId := uuid.New()
		require.NoError(t, uow.SavePoint("dup"))
		_, err := uow.NotificationRepository().CreateIfAbsent(ctx, &entity.Notification{Id: dupId, UserId: receiver.Id, MessageId: msg.Id, CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
		_, err = uow.NotificationRepository().CreateIfAbsent(ctx, &entity.Notification{Id: dupId, UserId: receiver.Id, MessageId: uuid.New(), CreatedAt: time.Now().UTC()})
		require.Error(t, err)
		require.NoError(t, uow.RollbackTo("dup"))

		require.NoError(t, uow.Commit())

		stored, err := uowFactory.NewUnitOfWork(ctx).MessageRepository().FindOne(ctx, specification.ByID{ID: msg.Id})
		require.NoError(t, err)
		require.NotNil(t, stored)
		count, err := uowFactory.NewUnitOfWork(ctx).NotificationRepository().Count(ctx, specification.ByMessageID{MessageID: msg.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("Notification insert is idempotent on message id", func(t *testing.T) {
		sender, receiver := newUser(t), newUser(t)
		uow := uowFactory.NewUnitOfWork(ctx)

		msg := &entity.Message{
			Id: uuid.New(), SenderId: sender.Id, ReceiverId: receiver.Id,
			Content: "once", IsThreadRoot: true, Version: 1, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, uow.MessageRepository().Create(ctx, msg))

		for i := 0; i < 2; i++ {
			_, err := uow.NotificationRepository().CreateIfAbsent(ctx, &entity.Notification{
				Id: uuid.New(), UserId: receiver.Id, MessageId: msg.Id, CreatedAt: time.Now().UTC(),
			})
			require.NoError(t, err)
		}
		count, err := uow.NotificationRepository().Count(ctx, specification.ByMessageID{MessageID: msg.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		unread, err := uow.MessageRepository().FindUnreadFor(ctx, receiver.Id)
		require.NoError(t, err)
		require.Len(t, unread, 1)
		assert.Equal(t, sender.Username, unread[0].SenderUsername)
	})

	t.Run("Foreign keys reject orphans and cascade deletes", func(t *testing.T) {
		sender, receiver := newUser(t), newUser(t)
		uow := uowFactory.NewUnitOfWork(ctx)

		missing := uuid.New()
		err := uow.MessageRepository().Create(ctx, &entity.Message{
			Id: uuid.New(), SenderId: sender.Id, ReceiverId: receiver.Id,
			Content: "orphan", ParentMessageId: &missing, Version: 1, CreatedAt: time.Now().UTC(),
		})
		require.Error(t, err)

		root := &entity.Message{
			Id: uuid.New(), SenderId: sender.Id, ReceiverId: receiver.Id,
			Content: "root", IsThreadRoot: true, Version: 1, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, uow.MessageRepository().Create(ctx, root))
		reply := &entity.Message{
			Id: uuid.New(), SenderId: receiver.Id, ReceiverId: sender.Id,
			Content: "reply", ParentMessageId: &root.Id, Version: 1, CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, uow.MessageRepository().Create(ctx, reply))
		require.NoError(t, uow.MessageHistoryRepository().Create(ctx, &entity.MessageHistory{
			Id: uuid.New(), MessageId: reply.Id, OldContent: "rep", EditedAt: time.Now().UTC(),
		}))

		require.NoError(t, uow.MessageRepository().DeleteByIDs(ctx, []uuid.UUID{root.Id}))

		n, err := uow.MessageRepository().Count(ctx, specification.ByID{ID: reply.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
		n, err = uow.MessageHistoryRepository().Count(ctx, specification.ByMessageID{MessageID: reply.Id})
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})
}
