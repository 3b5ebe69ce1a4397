package wsclient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
)

func TestWebSocketURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":      "ws://localhost:8080/ws",
		"http://localhost:8080/":     "ws://localhost:8080/ws",
		"https://share.example.com":  "wss://share.example.com/ws",
		"https://share.example.com/": "wss://share.example.com/ws",
	}
	for in, want := range cases {
		if got := WebSocketURL(in); got != want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandlerRoutesAndClosesChannelsOnDrain(t *testing.T) {
	c := NewClient("ws://relay.test/ws")
	h := NewHandler(c)
	go h.Start()

	connected, _ := json.Marshal(signaling.ConnectedPayload{ConnectionID: "conn-a"})
	c.incoming <- &signaling.Message{Event: signaling.EventConnected, Payload: connected}

	ann := signaling.ChunkAnnouncement{
		ChunkIndex:  0,
		TotalChunks: 1,
		ChunkURL:    "https://relay.test/chunks/0",
		FileName:    "report.pdf",
		SenderID:    "conn-b",
	}
	raw, _ := json.Marshal(ann)
	c.incoming <- &signaling.Message{Event: signaling.EventChunkReceived, Payload: raw}

	// The connection ending closes the incoming stream; Start must route
	// what arrived and then close every event channel itself, so consumers
	// never race a separate closer.
	close(c.incoming)

	select {
	case id := <-h.Connected:
		if id != "conn-a" {
			t.Errorf("connected id = %q, want conn-a", id)
		}
	case <-time.After(time.Second):
		t.Fatal("connected event never routed")
	}
	select {
	case got := <-h.Chunks:
		if got != ann {
			t.Errorf("announcement = %+v, want %+v", got, ann)
		}
	case <-time.After(time.Second):
		t.Fatal("chunk event never routed")
	}

	select {
	case _, ok := <-h.Chunks:
		if ok {
			t.Fatal("unexpected extra chunk event")
		}
	case <-time.After(time.Second):
		t.Fatal("chunk channel never closed after the stream drained")
	}
	if _, ok := <-h.Connected; ok {
		t.Error("connected channel still open after the stream drained")
	}
	if _, ok := <-h.Errors; ok {
		t.Error("errors channel still open after the stream drained")
	}
}
