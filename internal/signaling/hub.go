package signaling

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Hub is the central brain of the relay. It owns every room and membership
// set, and all state transitions happen on the single goroutine running Run,
// which is what gives one source's events their delivery order.
type Hub struct {
	// rooms maps normalized room IDs to Room instances.
	rooms map[string]*Room

	// clients tracks live registrations so a second unregister for the
	// same connection cannot double-close its send channel.
	clients map[*Client]bool

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries messages read from client connections.
	Inbound chan *Message

	// notify carries server-originated broadcasts (chunk announcements).
	notify chan *notification

	logger *slog.Logger
}

type notification struct {
	roomID    string
	msg       *Message
	excludeID string
}

// NewHub creates a new Hub instance.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message),
		notify:     make(chan *notification, 64),
		logger:     logger,
	}
}

// Join adds a client to a room through the hub's event loop. ReadPump feeds
// join_room messages here too; this entry point exists for callers that hold
// a *Client directly.
func (h *Hub) Join(client *Client, roomID string) {
	h.Inbound <- &Message{Event: EventJoinRoom, RoomID: roomID, client: client}
}

// Disconnect removes a client from all of its rooms and closes its send
// channel.
func (h *Hub) Disconnect(client *Client) {
	h.Unregister <- client
}

// Broadcast delivers event+payload to every member of roomID except the
// connection named by excludeID. Broadcasting to an unknown or empty room is
// a silent no-op. Safe to call from any goroutine; delivery happens on the
// hub goroutine.
func (h *Hub) Broadcast(roomID, event string, payload any, excludeID string) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = data
	}
	h.notify <- &notification{
		roomID:    NormalizeRoomID(roomID),
		msg:       &Message{Event: event, RoomID: NormalizeRoomID(roomID), Payload: raw},
		excludeID: excludeID,
	}
	return nil
}

// Run starts the hub's main processing loop. This is the single goroutine
// that safely manages all state (rooms, memberships).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.clients[client] {
				continue
			}
			h.clients[client] = true
			if client.rooms == nil {
				client.rooms = make(map[string]bool)
			}
			h.logger.Debug("client registered", "connection", client.ID)

			payload, _ := json.Marshal(ConnectedPayload{ConnectionID: client.ID})
			h.send(client, &Message{Event: EventConnected, Payload: payload})

		case client := <-h.Unregister:
			// ReadPump's deferred unregister can land after an explicit
			// Disconnect already tore the client down.
			if !h.clients[client] {
				continue
			}
			delete(h.clients, client)
			h.logger.Debug("client unregistered", "connection", client.ID)
			for roomID := range client.rooms {
				h.removeFromRoom(client, roomID)
			}
			close(client.Send)

		case message := <-h.Inbound:
			h.dispatch(message)

		case n := <-h.notify:
			h.deliver(n.roomID, n.msg, n.excludeID)
		}
	}
}

// dispatch handles one client-originated message on the hub goroutine.
func (h *Hub) dispatch(message *Message) {
	client := message.client
	roomID := NormalizeRoomID(message.RoomID)

	switch message.Event {

	case EventJoinRoom:
		if roomID == "" {
			h.send(client, errorMessage("room id is required"))
			return
		}
		room, ok := h.rooms[roomID]
		if !ok {
			room = NewRoom(roomID)
			h.rooms[roomID] = room
			h.logger.Info("room created", "room", roomID)
		}
		if room.Members[client] {
			// Already a member; joining twice is a no-op.
			return
		}

		// Notify existing members before adding the joiner, so the joiner
		// never sees its own arrival.
		h.deliver(roomID, &Message{Event: EventUserJoined, RoomID: roomID, SenderID: client.ID}, "")

		room.Members[client] = true
		client.rooms[roomID] = true
		h.logger.Info("client joined room", "connection", client.ID, "room", roomID)

	case EventLeaveRoom:
		if !client.rooms[roomID] {
			return
		}
		h.removeFromRoom(client, roomID)

	case EventOffer, EventAnswer, EventICECandidate, EventTyping:
		// Opaque relay to everyone else in the room, tagged with the
		// sender's connection id. Payload contents are the peers' problem.
		if !client.rooms[roomID] {
			h.send(client, errorMessage("you must join a room first"))
			return
		}
		h.deliver(roomID, &Message{
			Event:    message.Event,
			RoomID:   roomID,
			SenderID: client.ID,
			Payload:  message.Payload,
		}, client.ID)

	case EventChatMessage:
		// Chat goes to the whole room, sender included; suppressing the
		// echo is a display concern, not a hub concern. Never stored.
		if !client.rooms[roomID] {
			h.send(client, errorMessage("you must join a room first"))
			return
		}
		h.deliver(roomID, &Message{
			Event:    EventChatMessage,
			RoomID:   roomID,
			SenderID: client.ID,
			Payload:  message.Payload,
		}, "")

	default:
		h.logger.Warn("unknown event", "event", message.Event, "connection", client.ID)
		h.send(client, errorMessage("unknown event: "+message.Event))
	}
}

// removeFromRoom drops a client's membership and tells the remaining members.
// The room is deleted once its last member is gone.
func (h *Hub) removeFromRoom(client *Client, roomID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(room.Members, client)
	delete(client.rooms, roomID)

	if len(room.Members) == 0 {
		delete(h.rooms, roomID)
		h.logger.Info("room deleted", "room", roomID)
		return
	}
	h.deliver(roomID, &Message{Event: EventUserLeft, RoomID: roomID, SenderID: client.ID}, "")
}

// deliver fans a message out to a room's members. Must run on the hub
// goroutine.
func (h *Hub) deliver(roomID string, msg *Message, excludeID string) {
	room, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for member := range room.Members {
		if excludeID != "" && member.ID == excludeID {
			continue
		}
		h.send(member, msg)
	}
}

// send enqueues a message on one client's outbound channel without ever
// blocking the hub; a peer whose channel is full misses the message.
func (h *Hub) send(client *Client, msg *Message) {
	select {
	case client.Send <- msg:
	default:
		h.logger.Warn("dropping message for slow client", "connection", client.ID, "event", msg.Event)
	}
}
