package websocket

import (
	"encoding/json"

	"github.com/mirachat/mira/internal/response"
)

// Named operations a connection may invoke.
const (
	OpChatList     = "chat-list"
	OpSend         = "send"
	OpConversation = "conversation"
	OpPing         = "ping"
	OpPong         = "pong"
	OpMessage      = "message"      // server push of a newly persisted message
	OpUnauthorized = "unauthorized" // handshake rejection
	OpError        = "error"
)

// Request is an inbound frame: an operation name plus its payload.
type Request struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

// Frame is an outbound frame: the REST response envelope plus the
// operation it answers (or the push kind).
type Frame struct {
	Op string `json:"op"`
	response.Envelope
}

func MarshalFrame(op string, data interface{}) ([]byte, error) {
	return json.Marshal(Frame{Op: op, Envelope: response.Wrap(data)})
}

func MarshalErrorFrame(op string, err error) ([]byte, error) {
	return json.Marshal(Frame{Op: op, Envelope: response.WrapError(err)})
}
