package models

import (
	"time"

	"github.com/google/uuid"
)

// Player is a seated participant of one game instance. The hand is ordered;
// index positions are part of the client contract.
type Player struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Hand         []Card    `json:"hand"`
	IsHuman      bool      `json:"isHuman"`
	HasCalledUno bool      `json:"hasCalledUno"`
}

// RoomPlayer is a room member before/outside a game instance.
type RoomPlayer struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsHost   bool      `json:"isHost"`
	IsReady  bool      `json:"isReady"`
	JoinedAt time.Time `json:"joinedAt"`
}
