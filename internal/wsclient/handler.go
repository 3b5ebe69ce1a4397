package wsclient

import (
	"encoding/json"

	"github.com/Ruthe06/cloudsharefiles/internal/signaling"
)

// Handler routes incoming relay messages to per-event channels.
type Handler struct {
	client *Client

	Connected  chan string
	UserJoined chan string
	UserLeft   chan string
	Chunks     chan signaling.ChunkAnnouncement
	Chat       chan string
	Errors     chan string
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:     client,
		Connected:  make(chan string, 1),
		UserJoined: make(chan string, 8),
		UserLeft:   make(chan string, 8),
		Chunks:     make(chan signaling.ChunkAnnouncement, 64),
		Chat:       make(chan string, 8),
		Errors:     make(chan string, 8),
	}
}

// Start listens to incoming messages and routes them until the connection
// closes. Start is the only writer to the event channels, so it also closes
// them once the incoming stream drains; consumers see the close as
// end-of-connection.
func (h *Handler) Start() {
	defer func() {
		close(h.Connected)
		close(h.UserJoined)
		close(h.UserLeft)
		close(h.Chunks)
		close(h.Chat)
		close(h.Errors)
	}()

	for msg := range h.client.Incoming() {
		switch msg.Event {

		case signaling.EventConnected:
			var payload signaling.ConnectedPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.Connected <- payload.ConnectionID
			}

		case signaling.EventUserJoined:
			h.UserJoined <- msg.SenderID

		case signaling.EventUserLeft:
			h.UserLeft <- msg.SenderID

		case signaling.EventChunkReceived:
			var announcement signaling.ChunkAnnouncement
			if json.Unmarshal(msg.Payload, &announcement) == nil {
				h.Chunks <- announcement
			}

		case signaling.EventChatMessage:
			var payload signaling.ChatPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.Chat <- payload.Message
			}

		case signaling.EventError:
			var payload signaling.ErrorPayload
			if json.Unmarshal(msg.Payload, &payload) == nil {
				h.Errors <- payload.Error
			}

		default:
			// Signaling relays (offer/answer/ICE) are for browser peers;
			// the CLI ignores them.
		}
	}
}
