// Package state holds a client's local view of the world: current room,
// identity, active game, and the cached room directory. The container is
// constructed and disposed explicitly by its owning scope and injected into
// whatever reads it.
//
// Writes come only from the event reconciler and the direct-action client;
// everything else reads through snapshot accessors. That single-writer
// discipline is what keeps updates from being lost now that handlers may run
// on separate goroutines.
package state

import (
	"sync"

	"github.com/google/uuid"

	"unoroom/internal/models"
)

// Client is the local state container.
type Client struct {
	mu sync.Mutex

	currentRoom *models.Room
	playerID    uuid.UUID
	isHost      bool
	game        *models.GameState
	lastGameSeq int64

	directory []models.Room

	connected bool
	connErr   string // sticky until connectivity resumes
}

// New returns an empty container.
func New() *Client {
	return &Client{}
}

// Reset returns every field to its empty default. Used on teardown and when
// the client is kicked from a room.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentRoom = nil
	c.playerID = uuid.Nil
	c.isHost = false
	c.game = nil
	c.lastGameSeq = 0
}

// SetMembership records the room and identity returned by a successful
// create or join.
func (c *Client) SetMembership(room models.Room, playerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := room
	c.currentRoom = &r
	c.playerID = playerID
	c.isHost = room.HostID == playerID
	c.game = nil
	c.lastGameSeq = 0
}

// ClearMembership drops the room, identity, and game; the directory and
// connectivity flags survive.
func (c *Client) ClearMembership() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentRoom = nil
	c.playerID = uuid.Nil
	c.isHost = false
	c.game = nil
	c.lastGameSeq = 0
}

// Room returns a copy of the current room, if any.
func (c *Client) Room() (models.Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentRoom == nil {
		return models.Room{}, false
	}
	return c.currentRoom.Sanitized(), true
}

// MutateRoom applies fn to the current room under the lock. No-op when there
// is no room. fn must not retain the pointer.
func (c *Client) MutateRoom(fn func(*models.Room)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentRoom == nil {
		return
	}
	fn(c.currentRoom)
	c.currentRoom.CurrentPlayers = len(c.currentRoom.Players)
	c.isHost = c.currentRoom.HostID == c.playerID
}

// PlayerID returns this client's in-room identity, uuid.Nil when not joined.
func (c *Client) PlayerID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// IsHost reports whether this client currently holds the host role.
func (c *Client) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isHost
}

// Game returns a copy of the local game snapshot, if any.
func (c *Client) Game() (models.GameState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.game == nil {
		return models.GameState{}, false
	}
	g := *c.game
	return g, true
}

// ReplaceGame swaps in a received snapshot wholesale. Snapshots carrying a
// sequence number are dropped when stale; unnumbered snapshots keep the
// original last-arrival-wins behavior. Reports whether the snapshot was kept.
func (c *Client) ReplaceGame(st models.GameState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st.Seq != 0 && st.Seq <= c.lastGameSeq {
		return false
	}
	g := st
	c.game = &g
	if st.Seq != 0 {
		c.lastGameSeq = st.Seq
	}
	return true
}

// ClearGame drops the local game snapshot, e.g. when a new game begins.
func (c *Client) ClearGame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.game = nil
	c.lastGameSeq = 0
}

// SetDirectory replaces the cached room-directory listing wholesale.
func (c *Client) SetDirectory(rooms []models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.directory = append([]models.Room(nil), rooms...)
}

// Directory returns a copy of the cached room listing.
func (c *Client) Directory() []models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Room(nil), c.directory...)
}

// SetConnected updates transport liveness. Going down records a sticky
// error; coming back up clears it.
func (c *Client) SetConnected(up bool, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = up
	if up {
		c.connErr = ""
	} else if msg != "" {
		c.connErr = msg
	} else if c.connErr == "" {
		c.connErr = "connection lost"
	}
}

// Connected reports transport liveness and any sticky connection error.
func (c *Client) Connected() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected, c.connErr
}
