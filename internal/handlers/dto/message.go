package dto

import (
	"time"

	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
)

type CreateMessageRequest struct {
	Content    string             `json:"content" binding:"required"`
	Type       models.MessageType `json:"type"`
	FromUserID string             `json:"fromUserId"`
	ToUserID   string             `json:"toUserId"`
	ToGroupID  string             `json:"toGroupId"`
}

type BroadcastRequest struct {
	Content    string             `json:"content" binding:"required"`
	Type       models.MessageType `json:"type"`
	ToUserIDs  []string           `json:"toUserIds"`
	ToGroupIDs []string           `json:"toGroupIds"`
}

// CreatedTime is a [from, to] pair of unix milliseconds; zero means
// unconstrained.
type SearchMessagesRequest struct {
	pagination.Page
	ID          string             `json:"id"`
	Content     string             `json:"content"`
	Type        models.MessageType `json:"type"`
	CreatedTime [2]int64           `json:"createdTime"`
	FromUserID  string             `json:"fromUserId"`
	ToUserID    string             `json:"toUserId"`
	ToGroupID   string             `json:"toGroupId"`
}

type ConversationRequest struct {
	pagination.Page
	MasterID   string `json:"masterId" binding:"required"`
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
}

type MessageRO struct {
	ID        string             `json:"id"`
	Content   string             `json:"content"`
	Type      models.MessageType `json:"type"`
	FromUser  UserRO             `json:"fromUser"`
	ToUser    *UserRO            `json:"toUser,omitempty"`
	ToGroup   *GroupRO           `json:"toGroup,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func NewMessageRO(m *models.Message) MessageRO {
	ro := MessageRO{
		ID:        m.ID,
		Content:   m.Content,
		Type:      m.Type,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.FromUser != nil {
		ro.FromUser = NewUserRO(m.FromUser, "")
	} else {
		ro.FromUser = UserRO{ID: m.FromUserID}
	}
	if m.ToUser != nil {
		u := NewUserRO(m.ToUser, "")
		ro.ToUser = &u
	} else if m.ToUserID != nil {
		ro.ToUser = &UserRO{ID: *m.ToUserID}
	}
	if m.ToGroup != nil {
		g := NewGroupRO(m.ToGroup)
		ro.ToGroup = &g
	} else if m.ToGroupID != nil {
		ro.ToGroup = &GroupRO{ID: *m.ToGroupID}
	}
	return ro
}

func NewMessageROs(msgs []models.Message) []MessageRO {
	ros := make([]MessageRO, len(msgs))
	for i := range msgs {
		ros[i] = NewMessageRO(&msgs[i])
	}
	return ros
}

// TimeRange converts the request's millisecond pair to a store filter.
func (r SearchMessagesRequest) TimeRange() (from, to *time.Time) {
	if r.CreatedTime[0] == 0 && r.CreatedTime[1] == 0 {
		return nil, nil
	}
	f := time.UnixMilli(r.CreatedTime[0])
	t := time.UnixMilli(r.CreatedTime[1])
	return &f, &t
}
