package service

import (
	"context"
	"strings"
	"time"

	"messaging-be/internal/pkg/logger"
	"messaging-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// UserDirectory answers whether a user id refers to a stored user.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Clock returns the current time; services take one so ordering is
// deterministic in tests.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// publishEvent is best effort: the state change is already committed.
func publishEvent(ctx context.Context, publisher EventPublisher, log logger.ILogger, module, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.New(eventType, data)); err != nil {
		log.Warn(module, "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// preview truncates content for notification metadata.
func preview(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
