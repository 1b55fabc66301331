package handlers

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/middleware"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
	"github.com/mirachat/mira/internal/response"
	ws "github.com/mirachat/mira/internal/websocket"
)

type MessageHandler struct {
	db  *database.Database
	hub *ws.Hub
}

func NewMessageHandler(db *database.Database, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{db: db, hub: hub}
}

// Create persists a message and pushes it to connected recipients.
// Non-admins may only send as themselves.
func (h *MessageHandler) Create(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	p := middleware.Principal(c)
	fromUserID := req.FromUserID
	if fromUserID == "" {
		fromUserID = p.UserID
	}
	if !p.CanActAs(fromUserID) {
		response.Fail(c, apperrors.Forbidden("may only send messages as yourself"))
		return
	}

	msg, err := h.db.SendMessage(fromUserID, req.Content, req.Type, req.ToUserID, req.ToGroupID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.push(msg)
	response.OK(c, dto.NewMessageRO(msg))
}

// Broadcast fans one payload out to up to 10 users and 10 groups.
func (h *MessageHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	p := middleware.Principal(c)
	msgs, err := h.db.Broadcast(p.UserID, req.Content, req.Type, req.ToUserIDs, req.ToGroupIDs)
	if err != nil {
		response.Fail(c, err)
		return
	}

	ros := make([]dto.MessageRO, len(msgs))
	for i, m := range msgs {
		h.push(m)
		ros[i] = dto.NewMessageRO(m)
	}
	response.OK(c, ros)
}

func (h *MessageHandler) Search(c *gin.Context) {
	var req dto.SearchMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	from, to := req.TimeRange()
	res, err := h.db.SearchMessages(middleware.Principal(c), database.MessageFilter{
		ID:          req.ID,
		Content:     req.Content,
		Type:        req.Type,
		CreatedFrom: from,
		CreatedTo:   to,
		FromUserID:  req.FromUserID,
		ToUserID:    req.ToUserID,
		ToGroupID:   req.ToGroupID,
	}, req.Page)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, pagination.MapResult(res, func(m *models.Message) dto.MessageRO {
		return dto.NewMessageRO(m)
	}))
}

// ListBetween returns the thread between a master user and a target.
func (h *MessageHandler) ListBetween(c *gin.Context) {
	var req dto.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperrors.Validation(err.Error()))
		return
	}

	res, err := h.db.Conversation(middleware.Principal(c), req.MasterID,
		database.TargetType(req.TargetType), req.TargetID, req.Page)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.OK(c, pagination.MapResult(res, func(m *models.Message) dto.MessageRO {
		return dto.NewMessageRO(m)
	}))
}

// ChatList returns the newest message of every distinct conversation the
// user participates in.
func (h *MessageHandler) ChatList(c *gin.Context) {
	msgs, err := h.db.ChatList(middleware.Principal(c), c.Param("userId"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, dto.NewMessageROs(msgs))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.db.DeleteMessage(middleware.Principal(c), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, true)
}

// push delivers a persisted message to its recipients' live connections.
// Delivery is best-effort: a failed push is logged, the message is
// already durable.
func (h *MessageHandler) push(msg *models.Message) {
	if h.hub == nil {
		return
	}

	payload, err := ws.MarshalFrame(ws.OpMessage, dto.NewMessageRO(msg))
	if err != nil {
		log.Printf("failed to marshal push frame: %v", err)
		return
	}

	switch {
	case msg.ToUserID != nil:
		h.hub.SendToUser(*msg.ToUserID, payload)
	case msg.ToGroupID != nil:
		memberIDs, err := h.db.GroupMemberIDs(*msg.ToGroupID)
		if err != nil {
			log.Printf("failed to resolve group members for push: %v", err)
			return
		}
		h.hub.SendToUsers(memberIDs, payload, msg.FromUserID)
	}
}
