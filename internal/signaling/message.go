package signaling

import "encoding/json"

// Event names carried over the websocket channel. Inbound events come from
// clients; the rest are emitted by the hub or the chunk ingest endpoint.
const (
	// Inbound
	EventJoinRoom  = "join_room"
	EventLeaveRoom = "leave_room"

	// Relayed (inbound and re-broadcast)
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventICECandidate = "ice_candidate"
	EventChatMessage  = "chat_message"
	EventTyping       = "typing"

	// Outbound only
	EventConnected     = "connected"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventChunkReceived = "chunk_received"
	EventError         = "error"
)

// Message is the envelope for all websocket traffic, in both directions.
// Payload stays raw until the event name tells us which shape to decode;
// signaling payloads (SDP, ICE) are relayed without ever being decoded.
type Message struct {
	Event    string          `json:"event"`
	RoomID   string          `json:"room_id,omitempty"`
	SenderID string          `json:"sender_id,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`

	// client is the connection that sent the message. Internal to the hub,
	// never serialized.
	client *Client
}

// ConnectedPayload tells a freshly registered client its connection id.
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// ChatPayload is an ephemeral chat message. Relayed, never stored.
type ChatPayload struct {
	Message string `json:"message"`
}

// ChunkAnnouncement is broadcast to a room each time one chunk of a transfer
// session lands in storage. Field names match the browser client's wire
// format.
type ChunkAnnouncement struct {
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	ChunkURL    string `json:"chunkUrl"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	SenderID    string `json:"senderId"`
}

// ErrorPayload reports a per-connection protocol error back to its sender.
type ErrorPayload struct {
	Error string `json:"error"`
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	return &Message{Event: EventError, Payload: payload}
}
