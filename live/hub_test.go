package live

import (
	"encoding/json"
	"testing"
	"time"

	"kwickpay/models"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{
		Send: make(chan []byte, 10),
		Room: "u1",
	}
	hub.register <- client

	event := models.TxnEvent{Type: "airtime", Status: "success", Ref: "AIR123", UserID: "u1", Amount: 500}
	data, _ := json.Marshal(event)
	hub.broadcast <- broadcastMsg{Room: "u1", Data: data}

	select {
	case got := <-client.Send:
		if string(got) != string(data) {
			t.Fatalf("expected %s, got %s", data, got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	hub.unregister <- client
}

func TestHubWildcardReceivesEveryRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	watcher := &Client{Send: make(chan []byte, 10), Room: "*"}
	hub.register <- watcher

	hub.broadcast <- broadcastMsg{Room: "u9", Data: []byte("event")}

	select {
	case got := <-watcher.Send:
		if string(got) != "event" {
			t.Fatalf("expected event, got %s", got)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for wildcard delivery")
	}
}

func TestHubBroadcastWithoutListenersDoesNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Broadcast("nobody", []byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("broadcast blocked with no listeners")
	}
}
