package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SenderId        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReceiverId      uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_receiver_unread,priority:1"`
	Content         string     `gorm:"type:text;not null"`
	IsRead          bool       `gorm:"not null;default:false;index:idx_messages_receiver_unread,priority:2"`
	Edited          bool       `gorm:"not null;default:false"`
	LastEditedAt    *time.Time
	ParentMessageId *uuid.UUID `gorm:"type:uuid;index"`
	IsThreadRoot    bool       `gorm:"not null;default:false;index"`
	Version         int        `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null;index"`

	// Associations exist only to declare foreign keys.
	Sender   *User    `gorm:"foreignKey:SenderId"`
	Receiver *User    `gorm:"foreignKey:ReceiverId"`
	Parent   *Message `gorm:"foreignKey:ParentMessageId;constraint:OnDelete:CASCADE"`
}

func (Message) TableName() string {
	return "messages"
}

// UnreadMessageRow is the narrow projection scanned by the unread inbox query.
type UnreadMessageRow struct {
	Id             uuid.UUID
	Content        string
	CreatedAt      time.Time
	SenderId       uuid.UUID
	SenderUsername string
}
