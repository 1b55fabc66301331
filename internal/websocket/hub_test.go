package websocket

import (
	"testing"
	"time"

	"github.com/mirachat/mira/internal/models"
)

// Pumps drain after shutdown; their register/unregister sends must not
// wedge once Run has exited.
func TestHubRegisterAfterStopReturns(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	hub.Stop()
	// give Run a beat to observe the cancellation and exit
	time.Sleep(10 * time.Millisecond)

	client := NewClient(hub, nil, models.Principal{UserID: "u1"})

	done := make(chan struct{})
	go func() {
		hub.Register(client)
		hub.Unregister(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Register/Unregister blocked after Stop")
	}

	if got := hub.OnlineUserIDs(); len(got) != 0 {
		t.Errorf("stopped hub registered a client: %v", got)
	}
}
