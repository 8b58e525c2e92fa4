package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InThread matches a root message and its direct replies.
type InThread struct {
	RootID uuid.UUID
}

func (s InThread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ? OR parent_message_id = ?", s.RootID, s.RootID)
}

type ByParentIDs struct {
	ParentIDs []uuid.UUID
}

func (s ByParentIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("parent_message_id IN ?", s.ParentIDs)
}

type ThreadRoots struct{}

func (s ThreadRoots) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_thread_root = ?", true)
}

// InvolvingUser matches messages the user sent or received.
type InvolvingUser struct {
	UserID uuid.UUID
}

func (s InvolvingUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sender_id = ? OR receiver_id = ?", s.UserID, s.UserID)
}

type ReceivedBy struct {
	UserID uuid.UUID
}

func (s ReceivedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("receiver_id = ?", s.UserID)
}

type Unread struct{}

func (s Unread) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_read = ?", false)
}

type ByMessageID struct {
	MessageID uuid.UUID
}

func (s ByMessageID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id = ?", s.MessageID)
}

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
