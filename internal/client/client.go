// Package client is the direct-action surface of a player node: every
// user-initiated operation goes through here, gets a bounded wait against the
// transport, and on success is applied to the local state container. Stream
// notifications flow through the reconciler, which this package wires up and
// tears down alongside room membership.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoroom/internal/models"
	"unoroom/internal/reconcile"
	"unoroom/internal/state"
	"unoroom/internal/transport"
)

// DefaultRequestTimeout bounds direct operations. The observed protocol had
// no timeout at all, which could stall a caller forever; ten seconds is long
// enough for any sane round trip.
const DefaultRequestTimeout = 10 * time.Second

// Client couples one transport session with the local state container.
type Client struct {
	tr      transport.Transport
	st      *state.Client
	rec     *reconcile.Reconciler
	log     *logrus.Logger
	timeout time.Duration

	mu          sync.Mutex
	roomUnsubs  []transport.Unsubscribe
	globalUnsub transport.Unsubscribe
	closed      bool
}

// New builds a client. timeout <= 0 means DefaultRequestTimeout.
func New(tr transport.Transport, st *state.Client, logger *logrus.Logger, timeout time.Duration) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	c := &Client{
		tr:      tr,
		st:      st,
		log:     logger,
		timeout: timeout,
	}
	c.rec = reconcile.New(st, logger)
	c.rec.OnKicked = c.dropRoomSubs
	return c
}

// Connect attaches the global stream. Call once before any operation.
func (c *Client) Connect() error {
	unsub, err := c.tr.SubscribeGlobal(c.rec.ApplyGlobalEvent)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.globalUnsub = unsub
	c.mu.Unlock()
	c.st.SetConnected(c.tr.IsConnected(), "")
	return nil
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// CreateRoom creates a room, adopts membership, and attaches the room and
// game streams.
func (c *Client) CreateRoom(ctx context.Context, name, hostName string, maxPlayers int, password string) (models.Room, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	resp, err := c.tr.CreateRoom(ctx, name, hostName, maxPlayers, password)
	if err != nil {
		return models.Room{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Room{}, err
	}
	c.adoptMembership(*resp.Room, resp.PlayerID)
	return *resp.Room, nil
}

// JoinRoom joins a room, adopts membership, and attaches the room and game
// streams.
func (c *Client) JoinRoom(ctx context.Context, roomID uuid.UUID, playerName, password string) (models.Room, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	resp, err := c.tr.JoinRoom(ctx, roomID, playerName, password)
	if err != nil {
		return models.Room{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Room{}, err
	}
	c.adoptMembership(*resp.Room, resp.PlayerID)
	return *resp.Room, nil
}

func (c *Client) adoptMembership(r models.Room, playerID uuid.UUID) {
	c.st.SetMembership(r, playerID)

	roomUnsub, err := c.tr.SubscribeRoom(r.ID, c.rec.ApplyRoomEvent)
	if err != nil {
		c.log.WithError(err).Warn("could not subscribe room stream")
	}
	gameUnsub, err := c.tr.SubscribeGame(r.ID, c.rec.ApplyGameEvent)
	if err != nil {
		c.log.WithError(err).Warn("could not subscribe game stream")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Paranoia against double-join: detach whatever was attached before.
	c.dropRoomSubsLocked()
	if roomUnsub != nil {
		c.roomUnsubs = append(c.roomUnsubs, roomUnsub)
	}
	if gameUnsub != nil {
		c.roomUnsubs = append(c.roomUnsubs, gameUnsub)
	}
}

// LeaveRoom fires the leave, detaches room/game streams, and clears local
// membership. No reply is awaited.
func (c *Client) LeaveRoom(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	err := c.tr.LeaveRoom(ctx)
	c.dropRoomSubs()
	c.st.ClearMembership()
	return err
}

// KickPlayer removes target from the current room. Host-only; the room view
// updates when the KICKED_FROM_ROOM notification arrives.
func (c *Client) KickPlayer(ctx context.Context, targetID uuid.UUID) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	resp, err := c.tr.KickPlayer(ctx, targetID)
	if err != nil {
		return err
	}
	return resp.Err()
}

// ToggleReady flips this player's ready flag and applies the returned room
// snapshot locally.
func (c *Client) ToggleReady(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	resp, err := c.tr.ToggleReady(ctx)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if resp.Room != nil {
		c.st.MutateRoom(func(rm *models.Room) { *rm = *resp.Room })
	}
	return nil
}

// StartGame asks the service to start the game. Host-only. State flips when
// GAME_STARTED and the first snapshot arrive.
func (c *Client) StartGame(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	resp, err := c.tr.StartGame(ctx)
	if err != nil {
		return err
	}
	return resp.Err()
}

// PlayCard announces a card play. One-way; the resulting snapshot arrives on
// the game stream.
func (c *Client) PlayCard(cardID uuid.UUID, color *models.CardColor) error {
	return c.tr.BroadcastCardPlay(c.st.PlayerID(), cardID, color)
}

// DrawCard announces a draw of count cards. One-way.
func (c *Client) DrawCard(count int) error {
	return c.tr.BroadcastDrawCard(c.st.PlayerID(), count)
}

// CallUno announces an uno call. One-way.
func (c *Client) CallUno() error {
	return c.tr.BroadcastUnoCall(c.st.PlayerID())
}

// RefreshRooms fetches the directory immediately, outside the polling cadence.
func (c *Client) RefreshRooms(ctx context.Context) ([]models.Room, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	rooms, err := c.tr.GetActiveRooms(ctx)
	if err != nil {
		return nil, err
	}
	c.st.SetDirectory(rooms)
	return rooms, nil
}

func (c *Client) dropRoomSubs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropRoomSubsLocked()
}

func (c *Client) dropRoomSubsLocked() {
	for _, unsub := range c.roomUnsubs {
		unsub()
	}
	c.roomUnsubs = nil
}

// Close tears the client down: every subscription is released exactly once,
// local state is reset, and the transport is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.dropRoomSubsLocked()
	globalUnsub := c.globalUnsub
	c.globalUnsub = nil
	c.mu.Unlock()

	if globalUnsub != nil {
		globalUnsub()
	}
	c.st.Reset()
	return c.tr.Close()
}
