package signaling

import (
	"crypto/rand"
	"log"
	"math/big"
	"strings"
)

// Room is a short-lived named group of connections that exchange relayed
// events. Rooms are created implicitly on first join and deleted when the
// last member leaves.
type Room struct {
	ID      string
	Members map[*Client]bool
}

func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Members: make(map[*Client]bool),
	}
}

// NormalizeRoomID maps human-entered room codes onto a single key, so that
// "ab12cd" and "AB12CD" name the same room.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const roomCodeLength = 6

// NewRoomCode returns a short, shareable room code: six upper-case base-36
// characters, e.g. "K3QZ8F".
func NewRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[randomIndex(len(roomCodeAlphabet))]
	}
	return string(code)
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("Failed to generate random index:", err)
	}
	return int(n.Int64())
}
