package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type MessageType string

const (
	MessageTypeText  MessageType = "Text"
	MessageTypeImage MessageType = "Image"
	MessageTypeVideo MessageType = "Video"
	MessageTypeFile  MessageType = "File"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

var ErrNoRecipient = errors.New("message must target exactly one user or group")

// Message is immutable after creation apart from timestamp bookkeeping.
// Exactly one of ToUserID/ToGroupID is set.
type Message struct {
	ID         string      `gorm:"primaryKey" json:"id"`
	Content    string      `gorm:"not null" json:"content"`
	Type       MessageType `gorm:"default:Text" json:"type"`
	FromUserID string      `gorm:"not null;index" json:"fromUserId"`
	ToUserID   *string     `gorm:"index" json:"toUserId,omitempty"`
	ToGroupID  *string     `gorm:"index" json:"toGroupId,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	FromUser *User  `gorm:"foreignKey:FromUserID" json:"fromUser,omitempty"`
	ToUser   *User  `gorm:"foreignKey:ToUserID" json:"toUser,omitempty"`
	ToGroup  *Group `gorm:"foreignKey:ToGroupID" json:"toGroup,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if (m.ToUserID == nil) == (m.ToGroupID == nil) {
		return ErrNoRecipient
	}
	if m.ID == "" {
		m.ID = TimePrefixedID()
	}
	return nil
}

type MessageQueryOpts struct {
	WithFromUser bool
	WithToUser   bool
	WithToGroup  bool
}
