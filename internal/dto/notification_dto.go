package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	Id        uuid.UUID              `json:"id"`
	UserId    uuid.UUID              `json:"user_id"`
	MessageId uuid.UUID              `json:"message_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// NotificationRetryJob is the payload queued when a dispatch fails inside the
// create transaction.
type NotificationRetryJob struct {
	MessageId uuid.UUID `json:"message_id"`
}
