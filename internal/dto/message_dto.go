package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateMessageRequest struct {
	ReceiverId      uuid.UUID  `json:"receiver_id" validate:"required"`
	Content         string     `json:"content" validate:"required"`
	ParentMessageId *uuid.UUID `json:"parent_message_id"`
}

type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type MessageResponse struct {
	Id              uuid.UUID  `json:"id"`
	SenderId        uuid.UUID  `json:"sender_id"`
	ReceiverId      uuid.UUID  `json:"receiver_id"`
	Content         string     `json:"content"`
	IsRead          bool       `json:"is_read"`
	Edited          bool       `json:"edited"`
	LastEditedAt    *time.Time `json:"last_edited_at"`
	ParentMessageId *uuid.UUID `json:"parent_message_id"`
	IsThreadRoot    bool       `json:"is_thread_root"`
	CreatedAt       time.Time  `json:"created_at"`
}

type MessageHistoryResponse struct {
	Id         uuid.UUID  `json:"id"`
	MessageId  uuid.UUID  `json:"message_id"`
	OldContent string     `json:"old_content"`
	EditedAt   time.Time  `json:"edited_at"`
	EditedBy   *uuid.UUID `json:"edited_by"`
}

type MessageSender struct {
	Id       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// UnreadMessageResponse carries only the fields the inbox list renders.
type UnreadMessageResponse struct {
	Id        uuid.UUID     `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Sender    MessageSender `json:"sender"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
