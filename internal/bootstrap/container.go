package bootstrap

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"messaging-be/internal/config"
	"messaging-be/internal/controller"
	"messaging-be/internal/handler"
	"messaging-be/internal/pkg/keylock"
	"messaging-be/internal/pkg/logger"
	"messaging-be/internal/pkg/serverutils"
	"messaging-be/internal/repository/memory"
	"messaging-be/internal/repository/unitofwork"
	"messaging-be/internal/service"
	"messaging-be/internal/websocket"
	pktNats "messaging-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const notificationRetryTopic = "notification.dispatch.retry"

// Infrastructure holds the optional network dependencies. Any of them may be
// nil; the service then runs without cross-process events or fan-out.
type Infrastructure struct {
	Publisher  *pktNats.Publisher
	Subscriber *pktNats.Subscriber
	Redis      *redis.Client
}

// ConnectInfrastructure dials NATS and Redis, logging and skipping whatever
// is unreachable.
func ConnectInfrastructure(cfg *config.Config) *Infrastructure {
	infra := &Infrastructure{}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		infra.Publisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		infra.Subscriber = natsSub
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
	} else {
		infra.Redis = rdb
	}

	return infra
}

func (i *Infrastructure) Close() {
	if i.Publisher != nil {
		i.Publisher.Close()
	}
	if i.Subscriber != nil {
		i.Subscriber.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}

type Container struct {
	// Controllers
	UserController    controller.IUserController
	MessageController controller.IMessageController
	ThreadController  controller.IThreadController
	InboxController   controller.IInboxController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	AuthMiddleware fiber.Handler
	Logger         logger.ILogger
	eventBus       bool
	cleanup        []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, infra *Infrastructure, sysLogger logger.ILogger) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	locks := keylock.New()
	userCache := memory.NewUserCache(cfg.Messaging.UserCacheTTL)

	// 2. Job Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logger.NewWatermillAdapter(sysLogger, "JobBus"),
	)

	// Unset interfaces stay nil so services can test for them.
	var eventPublisher service.EventPublisher
	if infra.Publisher != nil {
		eventPublisher = infra.Publisher
	}

	// 3. Services
	publisherService := service.NewPublisherService(notificationRetryTopic, pubSub)
	dispatcher := service.NewNotificationDispatcher(uowFactory, sysLogger)
	consumerService, err := service.NewConsumerService(
		pubSub,
		notificationRetryTopic,
		dispatcher,
		service.RetryPolicy{
			MaxRetries:      cfg.Notification.RetryMax,
			InitialInterval: cfg.Notification.RetryInterval,
		},
		sysLogger,
	)
	if err != nil {
		return nil, err
	}

	userService := service.NewUserService(uowFactory, userCache, eventPublisher, sysLogger)
	historyTracker := service.NewHistoryTracker(uowFactory)
	messageService := service.NewMessageService(
		uowFactory,
		historyTracker,
		dispatcher,
		publisherService,
		eventPublisher,
		locks,
		service.MessagePolicy{RestrictEditsToSender: cfg.Messaging.RestrictEditsToSender},
		sysLogger,
	)
	threadService := service.NewThreadService(uowFactory, userService)
	inboxService := service.NewInboxService(uowFactory, userService, eventPublisher, locks, sysLogger)

	// 4. Realtime
	// Realtime traffic gets its own file next to the main log.
	wsLogger := sysLogger
	if cfg.App.LogFilePath != "" {
		wsLogger = logger.NewIsolatedLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "notification.log"))
	}
	wsHub := websocket.NewHub(infra.Redis, wsLogger)

	var subscriber service.EventSubscriber
	if infra.Subscriber != nil {
		subscriber = infra.Subscriber
	}
	notifService := service.NewNotificationService(uowFactory, subscriber, wsHub, wsLogger)
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, cfg.Auth.JwtSecret, wsLogger)

	return &Container{
		UserController:    controller.NewUserController(userService),
		MessageController: controller.NewMessageController(messageService, historyTracker, inboxService),
		ThreadController:  controller.NewThreadController(threadService),
		InboxController:   controller.NewInboxController(inboxService),

		ConsumerService:     consumerService,
		NotificationService: notifService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		AuthMiddleware: serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret),
		Logger:         sysLogger,
		eventBus:       subscriber != nil,
		cleanup: []func(){
			func() { _ = pubSub.Close() },
		},
	}, nil
}

// Start launches the background workers and blocks until the retry consumer
// is subscribed, so no retry job published afterwards is lost.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.ConsumerService.Consume(ctx)
	}()

	select {
	case <-c.ConsumerService.Running():
	case err := <-errCh:
		return fmt.Errorf("notification retry consumer: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}

	if c.eventBus {
		go c.NotificationService.Start()
	}
	return nil
}

func (c *Container) Close() {
	c.WebSocketHub.Stop()
	for _, fn := range c.cleanup {
		fn()
	}
}
