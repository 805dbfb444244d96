package state

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unoroom/internal/models"
)

func TestSetMembershipDerivesHostFlag(t *testing.T) {
	c := New()
	hostID := uuid.New()
	room := models.Room{ID: uuid.New(), HostID: hostID, Players: []models.RoomPlayer{{ID: hostID, IsHost: true}}}

	c.SetMembership(room, hostID)
	assert.True(t, c.IsHost())
	assert.Equal(t, hostID, c.PlayerID())

	other := uuid.New()
	c.SetMembership(room, other)
	assert.False(t, c.IsHost())
}

func TestRoomReturnsCopy(t *testing.T) {
	c := New()
	id := uuid.New()
	c.SetMembership(models.Room{ID: uuid.New(), HostID: id, Players: []models.RoomPlayer{{ID: id, IsHost: true}}}, id)

	snap, ok := c.Room()
	require.True(t, ok)
	snap.Players[0].Name = "mutated"

	fresh, _ := c.Room()
	assert.NotEqual(t, "mutated", fresh.Players[0].Name)
}

func TestMutateRoomRecomputesDerivedFields(t *testing.T) {
	c := New()
	selfID := uuid.New()
	hostID := uuid.New()
	c.SetMembership(models.Room{
		ID:     uuid.New(),
		HostID: hostID,
		Players: []models.RoomPlayer{
			{ID: hostID, IsHost: true},
			{ID: selfID},
		},
	}, selfID)

	c.MutateRoom(func(rm *models.Room) {
		rm.Players = rm.Players[1:]
		rm.HostID = selfID
	})

	snap, _ := c.Room()
	assert.Equal(t, 1, snap.CurrentPlayers)
	assert.True(t, c.IsHost(), "host flag follows the mutated room")
}

func TestReplaceGameSequenceRules(t *testing.T) {
	c := New()

	assert.True(t, c.ReplaceGame(models.GameState{Seq: 2}))
	assert.False(t, c.ReplaceGame(models.GameState{Seq: 2}), "equal sequence is stale")
	assert.False(t, c.ReplaceGame(models.GameState{Seq: 1}))
	assert.True(t, c.ReplaceGame(models.GameState{Seq: 3}))

	// Unnumbered snapshots bypass the ordering check entirely.
	assert.True(t, c.ReplaceGame(models.GameState{CurrentPlayerIndex: 7}))
	got, ok := c.Game()
	require.True(t, ok)
	assert.Equal(t, 7, got.CurrentPlayerIndex)

	// The remembered high-water mark survives unnumbered arrivals.
	assert.False(t, c.ReplaceGame(models.GameState{Seq: 3}))
}

func TestClearGameResetsSequence(t *testing.T) {
	c := New()
	require.True(t, c.ReplaceGame(models.GameState{Seq: 10}))

	c.ClearGame()
	_, ok := c.Game()
	assert.False(t, ok)
	assert.True(t, c.ReplaceGame(models.GameState{Seq: 1}), "new games restart numbering")
}

func TestConnectedStickyError(t *testing.T) {
	c := New()

	c.SetConnected(false, "")
	up, msg := c.Connected()
	assert.False(t, up)
	assert.Equal(t, "connection lost", msg)

	c.SetConnected(false, "broker unreachable")
	_, msg = c.Connected()
	assert.Equal(t, "broker unreachable", msg)

	// The message sticks through further anonymous failures.
	c.SetConnected(false, "")
	_, msg = c.Connected()
	assert.Equal(t, "broker unreachable", msg)

	c.SetConnected(true, "")
	up, msg = c.Connected()
	assert.True(t, up)
	assert.Empty(t, msg)
}

func TestResetPreservesDirectoryAndConnectivity(t *testing.T) {
	c := New()
	id := uuid.New()
	c.SetMembership(models.Room{ID: uuid.New(), HostID: id}, id)
	c.SetDirectory([]models.Room{{ID: uuid.New()}})
	c.SetConnected(true, "")

	c.Reset()

	_, ok := c.Room()
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, c.PlayerID())
	assert.Len(t, c.Directory(), 1, "directory is not membership state")
	up, _ := c.Connected()
	assert.True(t, up)
}
