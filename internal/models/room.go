package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus tracks the lobby phase of a room.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Room is an ephemeral grouping of players around one game instance.
// Password holds an argon2id hash, never the plaintext, and is stripped
// before the room is handed to anyone but the authoritative node.
type Room struct {
	ID             uuid.UUID    `json:"id"`
	Name           string       `json:"name"`
	HostID         uuid.UUID    `json:"hostId"`
	HostName       string       `json:"hostName"`
	MaxPlayers     int          `json:"maxPlayers"`
	CurrentPlayers int          `json:"currentPlayers"`
	HasPassword    bool         `json:"hasPassword"`
	Password       string       `json:"-"`
	Players        []RoomPlayer `json:"players"`
	Status         RoomStatus   `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
	GameInProgress bool         `json:"gameInProgress"`
}

// Sanitized returns a copy safe to expose to non-host clients: the password
// hash is dropped, HasPassword stays.
func (r Room) Sanitized() Room {
	out := r
	out.Password = ""
	out.Players = make([]RoomPlayer, len(r.Players))
	copy(out.Players, r.Players)
	return out
}

// FindPlayer returns the index of the member with the given id, or -1.
func (r Room) FindPlayer(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
