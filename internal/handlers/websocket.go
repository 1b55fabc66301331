package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"

	"github.com/mirachat/mira/internal/apperrors"
	"github.com/mirachat/mira/internal/database"
	"github.com/mirachat/mira/internal/models"
	ws "github.com/mirachat/mira/internal/websocket"
	"github.com/mirachat/mira/pkg/auth"
)

type WebSocketHandler struct {
	hub        *ws.Hub
	db         *database.Database
	jwtManager *auth.JWTManager
	redis      *redis.Client
	ops        ws.OpHandler
	upgrader   websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, db *database.Database, jwtManager *auth.JWTManager, rdb *redis.Client, ops ws.OpHandler) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		db:         db,
		jwtManager: jwtManager,
		redis:      rdb,
		ops:        ops,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handle upgrades the connection first and authenticates after: browser
// WebSocket clients cannot set headers, so the token travels in the query
// string, and an auth failure must arrive as a frame the client can read
// rather than as a failed handshake.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	principal, err := h.authenticate(c)
	if err != nil {
		h.reject(conn, err)
		return
	}

	client := ws.NewClient(h.hub, conn, principal)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.ops)
}

func (h *WebSocketHandler) authenticate(c *gin.Context) (models.Principal, error) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.Query("Authorization"), "Bearer ")
	}
	if token == "" {
		return models.Principal{}, apperrors.Unauthenticated("missing token")
	}

	// same revocation check the HTTP middleware runs; fails closed
	exists, err := h.redis.Exists(context.Background(), "blacklist:"+token).Result()
	if err != nil || exists > 0 {
		return models.Principal{}, apperrors.Unauthenticated("token is no longer valid")
	}

	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		return models.Principal{}, apperrors.Unauthenticated("invalid token")
	}

	user, err := h.db.GetUser(claims.ID, models.UserQueryOpts{WithRoles: true, WithGroups: true})
	if err != nil {
		return models.Principal{}, apperrors.Unauthenticated("unknown user")
	}
	return models.NewPrincipal(user), nil
}

func (h *WebSocketHandler) reject(conn *websocket.Conn, cause error) {
	payload, err := ws.MarshalErrorFrame(ws.OpUnauthorized, cause)
	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		conn.WriteMessage(websocket.TextMessage, payload)
	}
	conn.Close()
}
