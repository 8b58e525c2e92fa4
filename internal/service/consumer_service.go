package service

import (
	"context"
	"encoding/json"
	"time"

	"messaging-be/internal/dto"
	"messaging-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

type IConsumerService interface {
	// Consume blocks until ctx is cancelled.
	Consume(ctx context.Context) error
	// Running is closed once the consumer is subscribed.
	Running() <-chan struct{}
}

type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	dispatcher INotificationDispatcher
	policy     RetryPolicy
	logger     logger.ILogger
	router     *message.Router
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	dispatcher INotificationDispatcher,
	policy RetryPolicy,
	log logger.ILogger,
) (IConsumerService, error) {
	wmLogger := logger.NewWatermillAdapter(log, "NotificationRetry")

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	cs := &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		dispatcher: dispatcher,
		policy:     policy,
		logger:     log,
		router:     router,
	}

	// Middlewares added first wrap the ones added later.
	router.AddMiddleware(
		cs.giveUp,
		middleware.Retry{
			MaxRetries:      policy.MaxRetries,
			InitialInterval: policy.InitialInterval,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)
	router.AddNoPublisherHandler("notification_retry", topicName, subscriber, cs.processMessage)

	return cs, nil
}

func (cs *consumerService) Consume(ctx context.Context) error {
	return cs.router.Run(ctx)
}

func (cs *consumerService) Running() <-chan struct{} {
	return cs.router.Running()
}

func (cs *consumerService) processMessage(msg *message.Message) error {
	var job dto.NotificationRetryJob
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		cs.logger.Error("NotificationRetry", "Dropping malformed retry job", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return cs.dispatcher.Redeliver(msg.Context(), job.MessageId)
}

// giveUp acks a job once retries are exhausted so gochannel does not
// redeliver it forever.
func (cs *consumerService) giveUp(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		produced, err := h(msg)
		if err != nil {
			cs.logger.Error("NotificationRetry", "Notification retries exhausted", map[string]interface{}{
				"message_id": msg.Metadata.Get("message_id"),
				"error":      err.Error(),
			})
			return nil, nil
		}
		return produced, nil
	}
}
