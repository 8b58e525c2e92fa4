package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageHistory rows are insert-only.
type MessageHistory struct {
	Id         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	MessageId  uuid.UUID  `gorm:"type:uuid;not null;index:idx_message_histories_message_edited,priority:1"`
	OldContent string     `gorm:"type:text;not null"`
	EditedAt   time.Time  `gorm:"not null;index:idx_message_histories_message_edited,priority:2"`
	EditedBy   *uuid.UUID `gorm:"type:uuid;index"`

	Message *Message `gorm:"foreignKey:MessageId;constraint:OnDelete:CASCADE"`
	Editor  *User    `gorm:"foreignKey:EditedBy;constraint:OnDelete:SET NULL"`
}

func (MessageHistory) TableName() string {
	return "message_histories"
}
