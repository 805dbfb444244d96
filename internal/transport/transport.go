// Package transport defines the client-side transport contract and its NATS
// and websocket implementations. The contract is payload shapes only; both
// carriers speak the same JSON envelopes from internal/protocol.
package transport

import (
	"context"

	"github.com/google/uuid"

	"unoroom/internal/models"
	"unoroom/internal/protocol"
)

// Unsubscribe detaches one stream subscription. Implementations tolerate
// repeated calls; owners still invoke each handle exactly once on teardown.
type Unsubscribe func()

// Transport is one client session against the room service. A session
// remembers the room and player identity established by a successful create
// or join, so the session-scoped operations need no ids.
//
// Direct operations suspend only the calling goroutine; callers bound the
// wait with the context deadline.
type Transport interface {
	CreateRoom(ctx context.Context, name, hostName string, maxPlayers int, password string) (*protocol.Response, error)
	JoinRoom(ctx context.Context, roomID uuid.UUID, playerName, password string) (*protocol.Response, error)

	// LeaveRoom is fire-and-forget: the request is sent and local session
	// identity is dropped without waiting for a reply.
	LeaveRoom(ctx context.Context) error

	KickPlayer(ctx context.Context, targetID uuid.UUID) (*protocol.Response, error)
	ToggleReady(ctx context.Context) (*protocol.Response, error)
	StartGame(ctx context.Context) (*protocol.Response, error)
	GetActiveRooms(ctx context.Context) ([]models.Room, error)

	// One-way announcements, no acknowledgment.
	BroadcastGameState(st models.GameState) error
	BroadcastCardPlay(playerID, cardID uuid.UUID, color *models.CardColor) error
	BroadcastDrawCard(playerID uuid.UUID, count int) error
	BroadcastUnoCall(playerID uuid.UUID) error

	SubscribeGlobal(h func(protocol.GlobalEvent)) (Unsubscribe, error)
	SubscribeRoom(roomID uuid.UUID, h func(protocol.RoomEvent)) (Unsubscribe, error)
	SubscribeGame(roomID uuid.UUID, h func(protocol.GameEvent)) (Unsubscribe, error)

	// IsConnected is synchronous and never blocks.
	IsConnected() bool

	// Session exposes the identity established by create/join.
	Session() (roomID, playerID uuid.UUID)

	Close() error
}
