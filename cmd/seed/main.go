package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"messaging-be/internal/config"
	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/keylock"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/pkg/serverutils"
	"messaging-be/internal/repository/memory"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/internal/service"
	"messaging-be/pkg/database"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Seeds two users with a short conversation and prints dev tokens for them.
func main() {
	cfg := config.Load()
	if cfg.Auth.JwtSecret == "" {
		log.Fatal("JWT_SECRET must be set to issue dev tokens")
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	ctx := context.Background()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer sysLogger.Sync()

	uowFactory := unitofwork.NewRepositoryFactory(db)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger.NewWatermillAdapter(sysLogger, "JobBus"))
	defer pubSub.Close()

	users := service.NewUserService(uowFactory, memory.NewUserCache(cfg.Messaging.UserCacheTTL), nil, sysLogger)
	messages := service.NewMessageService(
		uowFactory,
		service.NewHistoryTracker(uowFactory),
		service.NewNotificationDispatcher(uowFactory, sysLogger),
		service.NewPublisherService("notification.dispatch.retry", pubSub),
		nil,
		keylock.New(),
		service.MessagePolicy{RestrictEditsToSender: cfg.Messaging.RestrictEditsToSender},
		sysLogger,
	)

	suffix := time.Now().Format("150405")
	alice, err := users.Register(ctx, &dto.RegisterUserRequest{Username: "alice" + suffix, Email: "alice" + suffix + "@example.com"})
	if err != nil {
		log.Fatalf("register alice: %v", err)
	}
	bob, err := users.Register(ctx, &dto.RegisterUserRequest{Username: "bob" + suffix, Email: "bob" + suffix + "@example.com"})
	if err != nil {
		log.Fatalf("register bob: %v", err)
	}

	root, err := messages.Create(ctx, alice.Id, &dto.CreateMessageRequest{ReceiverId: bob.Id, Content: "hi"})
	if err != nil {
		log.Fatalf("create root: %v", err)
	}
	if _, err := messages.UpdateContent(ctx, root.Id, alice.Id, &dto.UpdateMessageRequest{Content: "hi there"}); err != nil {
		log.Fatalf("edit root: %v", err)
	}
	if _, err := messages.Create(ctx, bob.Id, &dto.CreateMessageRequest{ReceiverId: alice.Id, Content: "hello!", ParentMessageId: &root.Id}); err != nil {
		log.Fatalf("create reply: %v", err)
	}

	for _, u := range []*dto.UserResponse{alice, bob} {
		token, err := serverutils.IssueToken(cfg.Auth.JwtSecret, u.Id, 24*time.Hour)
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		fmt.Printf("%s (%s)\n  %s\n", u.Username, u.Id, token)
	}
	fmt.Printf("thread root: %s\n", root.Id)
}
