package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// NATS subjects. One subject per stream keeps the three streams independently
// ordered, which is exactly the delivery model receivers are written against.
const (
	SubjectRequests = "uno.rooms.requests"
	SubjectActions  = "uno.rooms.actions"
	SubjectGlobal   = "uno.global.events"
)

// SubjectRoom is the room-stream subject for one room.
func SubjectRoom(roomID uuid.UUID) string {
	return fmt.Sprintf("uno.room.%s.events", roomID)
}

// SubjectGame is the game-stream subject for one room's game.
func SubjectGame(roomID uuid.UUID) string {
	return fmt.Sprintf("uno.game.%s.events", roomID)
}
