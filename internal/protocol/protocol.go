// Package protocol defines the payload shapes exchanged with the transport:
// direct-operation requests/responses and the tagged event variants of the
// three notification streams (global, room, game). Streams are independently
// ordered; nothing here assumes cross-stream ordering.
package protocol

import (
	"github.com/google/uuid"

	"unoroom/internal/errs"
	"unoroom/internal/models"
)

// Op names a direct operation carried in a Request envelope.
type Op string

const (
	OpCreateRoom  Op = "create_room"
	OpJoinRoom    Op = "join_room"
	OpLeaveRoom   Op = "leave_room"
	OpKickPlayer  Op = "kick_player"
	OpToggleReady Op = "toggle_ready"
	OpStartGame   Op = "start_game"
	OpGetRooms    Op = "get_rooms"

	// One-way game announcements; no reply is sent.
	OpBroadcastGameState Op = "broadcast_game_state"
	OpBroadcastCardPlay  Op = "broadcast_card_play"
	OpBroadcastDrawCard  Op = "broadcast_draw_card"
	OpBroadcastUnoCall   Op = "broadcast_uno_call"
)

// Request is the single request envelope. Fields irrelevant to an op stay
// zero and are omitted on the wire.
type Request struct {
	Op       Op        `json:"op"`
	RoomID   uuid.UUID `json:"roomId,omitempty"`
	PlayerID uuid.UUID `json:"playerId,omitempty"`
	TargetID uuid.UUID `json:"targetId,omitempty"`

	RoomName   string `json:"roomName,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
	Password   string `json:"password,omitempty"`

	CardID      uuid.UUID         `json:"cardId,omitempty"`
	ChosenColor *models.CardColor `json:"chosenColor,omitempty"`
	Count       int               `json:"count,omitempty"`

	State *models.GameState `json:"state,omitempty"`
}

// Response is the structured result of a direct operation.
type Response struct {
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Code     errs.Code     `json:"code,omitempty"`
	Room     *models.Room  `json:"room,omitempty"`
	PlayerID uuid.UUID     `json:"playerId,omitempty"`
	Rooms    []models.Room `json:"rooms,omitempty"`
	Cards    []models.Card `json:"cards,omitempty"`
}

// Ok builds a success response.
func Ok() *Response { return &Response{Success: true} }

// Fail builds a failure response from a taxonomy error.
func Fail(err error) *Response {
	return &Response{Success: false, Error: err.Error(), Code: errs.CodeOf(err)}
}

// Err reconstructs the taxonomy error of a failed response, or nil.
func (r *Response) Err() error {
	if r == nil {
		return errs.Transport("empty response", nil)
	}
	if r.Success {
		return nil
	}
	return errs.FromCode(r.Code, r.Error)
}

// --- Room stream ---

// RoomEventType tags room-stream notifications.
type RoomEventType string

const (
	RoomPlayerJoined   RoomEventType = "PLAYER_JOINED"
	RoomPlayerLeft     RoomEventType = "PLAYER_LEFT"
	RoomHostChanged    RoomEventType = "HOST_CHANGED"
	RoomGameStarted    RoomEventType = "GAME_STARTED"
	RoomKickedFromRoom RoomEventType = "KICKED_FROM_ROOM"
)

// RoomEvent is a room-stream notification. Delivery may repeat or reorder;
// receivers apply it idempotently.
type RoomEvent struct {
	Type      RoomEventType      `json:"type"`
	RoomID    uuid.UUID          `json:"roomId"`
	Player    *models.RoomPlayer `json:"player,omitempty"`    // PLAYER_JOINED
	PlayerID  uuid.UUID          `json:"playerId,omitempty"`  // PLAYER_LEFT, KICKED_FROM_ROOM
	NewHostID uuid.UUID          `json:"newHostId,omitempty"` // HOST_CHANGED
	Room      *models.Room       `json:"room,omitempty"`      // GAME_STARTED snapshot
}

// --- Game stream ---

// GameEventType tags game-stream notifications.
type GameEventType string

const (
	GameStateUpdate GameEventType = "GAME_STATE_UPDATE"
)

// GameEvent is a game-stream notification carrying a wholesale snapshot.
type GameEvent struct {
	Type   GameEventType     `json:"type"`
	RoomID uuid.UUID         `json:"roomId"`
	State  *models.GameState `json:"state,omitempty"`
}

// --- Global stream ---

// GlobalEventType tags global-stream notifications.
type GlobalEventType string

const (
	GlobalRoomsUpdated     GlobalEventType = "ROOMS_UPDATED"
	GlobalConnectionFailed GlobalEventType = "CONNECTION_FAILED"
)

// GlobalEvent is a global-stream notification.
type GlobalEvent struct {
	Type    GlobalEventType `json:"type"`
	Rooms   []models.Room   `json:"rooms,omitempty"`
	Message string          `json:"message,omitempty"`
}
