package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id              uuid.UUID
	SenderId        uuid.UUID
	ReceiverId      uuid.UUID
	Content         string
	IsRead          bool
	Edited          bool
	LastEditedAt    *time.Time
	ParentMessageId *uuid.UUID
	IsThreadRoot    bool
	Version         int
	CreatedAt       time.Time
}

// IsParticipant reports whether the user sent or received the message.
func (m *Message) IsParticipant(userId uuid.UUID) bool {
	return m.SenderId == userId || m.ReceiverId == userId
}

type MessageHistory struct {
	Id         uuid.UUID
	MessageId  uuid.UUID
	OldContent string
	EditedAt   time.Time
	EditedBy   *uuid.UUID
}

// UnreadMessage is the list-view projection of an unread inbox entry.
type UnreadMessage struct {
	Id             uuid.UUID
	Content        string
	CreatedAt      time.Time
	SenderId       uuid.UUID
	SenderUsername string
}
