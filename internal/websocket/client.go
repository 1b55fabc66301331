package websocket

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mirachat/mira/internal/models"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB
)

// OpHandler routes an authenticated request frame to its operation.
type OpHandler interface {
	HandleOp(client *Client, req *Request) error
}

// Client is one authenticated connection. The principal is bound at
// handshake time and never changes for the connection's lifetime.
type Client struct {
	ID        uuid.UUID
	Principal models.Principal
	Conn      *websocket.Conn
	Send      chan []byte
	Hub       *Hub
}

func NewClient(hub *Hub, conn *websocket.Conn, principal models.Principal) *Client {
	return &Client{
		ID:        uuid.New(),
		Principal: principal,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Hub:       hub,
	}
}

// ReadPump reads request frames and dispatches them until the connection
// drops. Handler errors become error frames, never a closed connection.
func (c *Client) ReadPump(handler OpHandler) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req Request
		err := c.Conn.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		if req.Op == OpPong {
			continue
		}

		if handler != nil {
			if err := handler.HandleOp(c, &req); err != nil {
				log.Printf("op %q failed for user %s: %v", req.Op, c.Principal.UserID, err)
				c.SendError(req.Op, err)
			}
		}
	}
}

// WritePump drains the send channel and keeps the connection alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, payload)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendFrame(op string, data interface{}) error {
	payload, err := MarshalFrame(op, data)
	if err != nil {
		return err
	}
	select {
	case c.Send <- payload:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(op string, cause error) {
	payload, err := MarshalErrorFrame(op, cause)
	if err != nil {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}
