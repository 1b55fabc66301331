package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PresenceFunc is invoked when a user's first connection registers
// (online=true) and when their last connection drops (online=false).
type PresenceFunc func(userID string, online bool)

// Hub tracks authenticated connections, keyed by connection id and by the
// bound user id. One user may hold several connections.
type Hub struct {
	clients     map[uuid.UUID]*Client
	userClients map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	presence PresenceFunc

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(presence PresenceFunc) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		presence:    presence,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

// Register and Unregister are no-ops once the hub has stopped, so pumps
// draining after shutdown cannot block on the channels Run no longer
// reads.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	userID := client.Principal.UserID
	first := len(h.userClients[userID]) == 0

	h.clients[client.ID] = client
	if _, ok := h.userClients[userID]; !ok {
		h.userClients[userID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[userID][client.ID] = client
	h.mu.Unlock()

	log.Printf("client registered: %s (user: %s)", client.ID, userID)

	if first && h.presence != nil {
		h.presence(userID, true)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	userID := client.Principal.UserID
	last := false

	if _, ok := h.clients[client.ID]; ok {
		if userClients, ok := h.userClients[userID]; ok {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.userClients, userID)
				last = true
			}
		}
		delete(h.clients, client.ID)
		close(client.Send)

		log.Printf("client unregistered: %s (user: %s)", client.ID, userID)
	}
	h.mu.Unlock()

	if last && h.presence != nil {
		h.presence(userID, false)
	}
}

// SendToUser pushes a frame to every connection the user holds.
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.userClients[userID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- payload:
			default:
				log.Printf("client %s send channel full", client.ID)
			}
		}
	}
}

// SendToUsers fans a frame out to several users, skipping one (usually
// the sender, who gets the reply frame instead).
func (h *Hub) SendToUsers(userIDs []string, payload []byte, exclude string) {
	for _, id := range userIDs {
		if id == exclude {
			continue
		}
		h.SendToUser(id, payload)
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	payload, err := MarshalFrame(OpPing, nil)
	if err != nil {
		return
	}
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// OnlineUserIDs lists users holding at least one connection.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}
