package handlers

import (
	"encoding/json"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/handlers/dto"
	"github.com/mirachat/mira/internal/models"
	"github.com/mirachat/mira/internal/pagination"
	ws "github.com/mirachat/mira/internal/websocket"
)

// WSOps dispatches operation frames from live connections onto the same
// store operations the REST surface uses.
type WSOps struct {
	db  *database.Database
	msg *MessageHandler
}

func NewWSOps(db *database.Database, msg *MessageHandler) *WSOps {
	return &WSOps{db: db, msg: msg}
}

func (o *WSOps) HandleOp(client *ws.Client, req *ws.Request) error {
	switch req.Op {
	case ws.OpChatList:
		return o.chatList(client, req)
	case ws.OpSend:
		return o.send(client, req)
	case ws.OpConversation:
		return o.conversation(client, req)
	default:
		return ws.ErrUnknownOp
	}
}

func (o *WSOps) chatList(client *ws.Client, req *ws.Request) error {
	var payload struct {
		UserID string `json:"userId"`
	}
	if len(req.Data) > 0 {
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return ws.ErrInvalidFrame
		}
	}
	if payload.UserID == "" {
		payload.UserID = client.Principal.UserID
	}

	msgs, err := o.db.ChatList(client.Principal, payload.UserID)
	if err != nil {
		return err
	}
	return client.SendFrame(ws.OpChatList, dto.NewMessageROs(msgs))
}

// send persists the message, pushes it to recipients, and answers the
// sender with the stored message.
func (o *WSOps) send(client *ws.Client, req *ws.Request) error {
	var payload dto.CreateMessageRequest
	if err := json.Unmarshal(req.Data, &payload); err != nil {
		return ws.ErrInvalidFrame
	}
	if payload.Content == "" {
		return apperrors.Validation("content must not be empty")
	}

	fromUserID := payload.FromUserID
	if fromUserID == "" {
		fromUserID = client.Principal.UserID
	}
	if !client.Principal.CanActAs(fromUserID) {
		return apperrors.Forbidden("may only send messages as yourself")
	}

	msg, err := o.db.SendMessage(fromUserID, payload.Content, payload.Type, payload.ToUserID, payload.ToGroupID)
	if err != nil {
		return err
	}

	o.msg.push(msg)
	return client.SendFrame(ws.OpSend, dto.NewMessageRO(msg))
}

func (o *WSOps) conversation(client *ws.Client, req *ws.Request) error {
	var payload dto.ConversationRequest
	if err := json.Unmarshal(req.Data, &payload); err != nil {
		return ws.ErrInvalidFrame
	}
	if payload.MasterID == "" {
		payload.MasterID = client.Principal.UserID
	}

	res, err := o.db.Conversation(client.Principal, payload.MasterID,
		database.TargetType(payload.TargetType), payload.TargetID, payload.Page)
	if err != nil {
		return err
	}
	return client.SendFrame(ws.OpConversation, pagination.MapResult(res, func(m *models.Message) dto.MessageRO {
		return dto.NewMessageRO(m)
	}))
}
