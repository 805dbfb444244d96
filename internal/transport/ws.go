package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoroom/internal/errs"
	"unoroom/internal/models"
	"unoroom/internal/protocol"
)

// wsFrame is the single envelope on the websocket carrier. Direct operations
// correlate request and response by ID; notifications carry a stream tag.
// All three streams share one socket here, which still satisfies the
// contract: receivers are written for no cross-stream ordering, not against
// it.
type wsFrame struct {
	ID       uint64                `json:"id,omitempty"`
	Request  *protocol.Request     `json:"request,omitempty"`
	Response *protocol.Response    `json:"response,omitempty"`
	Stream   string                `json:"stream,omitempty"`
	Room     *protocol.RoomEvent   `json:"room,omitempty"`
	Game     *protocol.GameEvent   `json:"game,omitempty"`
	Global   *protocol.GlobalEvent `json:"global,omitempty"`
}

const (
	streamGlobal = "global"
	streamRoom   = "room"
	streamGame   = "game"
)

// wsWriteTimeout bounds one-way writes so a stalled socket cannot suspend the
// caller; direct operations are bounded by the caller's context instead.
const wsWriteTimeout = 5 * time.Second

var _ Transport = (*WSTransport)(nil)

// WSTransport speaks the room protocol over a single websocket.
type WSTransport struct {
	conn *websocket.Conn
	log  *logrus.Logger

	writeMu sync.Mutex

	nextID    uint64
	pendingMu sync.Mutex
	pending   map[uint64]chan *protocol.Response

	subMu     sync.Mutex
	nextSubID uint64
	globalSub map[uint64]func(protocol.GlobalEvent)
	roomSub   map[uint64]roomSubscription
	gameSub   map[uint64]gameSubscription

	connected atomic.Bool
	closeOnce sync.Once

	mu       sync.Mutex
	roomID   uuid.UUID
	playerID uuid.UUID
}

type roomSubscription struct {
	roomID uuid.UUID
	h      func(protocol.RoomEvent)
}

type gameSubscription struct {
	roomID uuid.UUID
	h      func(protocol.GameEvent)
}

// DialWS connects to a websocket room service and starts the read loop.
func DialWS(ctx context.Context, url string, logger *logrus.Logger) (*WSTransport, error) {
	if logger == nil {
		logger = logrus.New()
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"uno"},
	})
	if err != nil {
		return nil, errs.Transport("websocket dial failed", err)
	}
	t := &WSTransport{
		conn:      conn,
		log:       logger,
		pending:   make(map[uint64]chan *protocol.Response),
		globalSub: make(map[uint64]func(protocol.GlobalEvent)),
		roomSub:   make(map[uint64]roomSubscription),
		gameSub:   make(map[uint64]gameSubscription),
	}
	t.connected.Store(true)
	go t.readLoop()
	return t, nil
}

func (t *WSTransport) readLoop() {
	ctx := context.Background()
	for {
		var frame wsFrame
		if err := wsjson.Read(ctx, t.conn, &frame); err != nil {
			t.log.WithError(err).Debug("websocket read loop ended")
			t.markDown()
			return
		}
		switch {
		case frame.Response != nil:
			t.pendingMu.Lock()
			ch, ok := t.pending[frame.ID]
			delete(t.pending, frame.ID)
			t.pendingMu.Unlock()
			if ok {
				ch <- frame.Response
			}
		case frame.Stream != "":
			t.dispatch(frame)
		}
	}
}

// dispatch snapshots the matching handlers under subMu and invokes them with
// the lock released, so a handler may unsubscribe (even itself) without
// deadlocking the read loop.
func (t *WSTransport) dispatch(frame wsFrame) {
	var globalHs []func(protocol.GlobalEvent)
	var roomHs []func(protocol.RoomEvent)
	var gameHs []func(protocol.GameEvent)

	t.subMu.Lock()
	switch frame.Stream {
	case streamGlobal:
		if frame.Global != nil {
			for _, h := range t.globalSub {
				globalHs = append(globalHs, h)
			}
		}
	case streamRoom:
		if frame.Room != nil {
			for _, s := range t.roomSub {
				if s.roomID == frame.Room.RoomID {
					roomHs = append(roomHs, s.h)
				}
			}
		}
	case streamGame:
		if frame.Game != nil {
			for _, s := range t.gameSub {
				if s.roomID == frame.Game.RoomID {
					gameHs = append(gameHs, s.h)
				}
			}
		}
	}
	t.subMu.Unlock()

	for _, h := range globalHs {
		h(*frame.Global)
	}
	for _, h := range roomHs {
		h(*frame.Room)
	}
	for _, h := range gameHs {
		h(*frame.Game)
	}
}

// markDown fails every pending request and flips the liveness flag.
func (t *WSTransport) markDown() {
	t.connected.Store(false)
	t.pendingMu.Lock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
	t.pendingMu.Unlock()
}

func (t *WSTransport) write(ctx context.Context, frame wsFrame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := wsjson.Write(ctx, t.conn, frame); err != nil {
		return errs.Transport("websocket write failed", err)
	}
	return nil
}

func (t *WSTransport) request(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	if !t.connected.Load() {
		return nil, errs.ConnectionFailed
	}
	id := atomic.AddUint64(&t.nextID, 1)
	ch := make(chan *protocol.Response, 1)
	t.pendingMu.Lock()
	t.pending[id] = ch
	t.pendingMu.Unlock()

	if err := t.write(ctx, wsFrame{ID: id, Request: &req}); err != nil {
		t.pendingMu.Lock()
		delete(t.pending, id)
		t.pendingMu.Unlock()
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, errs.ConnectionFailed
		}
		return resp, nil
	case <-ctx.Done():
		t.pendingMu.Lock()
		delete(t.pending, id)
		t.pendingMu.Unlock()
		return nil, errs.Transport("request timed out", ctx.Err())
	}
}

func (t *WSTransport) session() (uuid.UUID, uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.roomID, t.playerID
}

// Session returns the room and player identity of this session.
func (t *WSTransport) Session() (uuid.UUID, uuid.UUID) {
	return t.session()
}

func (t *WSTransport) adoptSession(resp *protocol.Response) {
	if resp == nil || !resp.Success || resp.Room == nil {
		return
	}
	t.mu.Lock()
	t.roomID = resp.Room.ID
	t.playerID = resp.PlayerID
	t.mu.Unlock()
}

// CreateRoom creates a room and adopts the returned identity on success.
func (t *WSTransport) CreateRoom(ctx context.Context, name, hostName string, maxPlayers int, password string) (*protocol.Response, error) {
	resp, err := t.request(ctx, protocol.Request{
		Op:         protocol.OpCreateRoom,
		RoomName:   name,
		PlayerName: hostName,
		MaxPlayers: maxPlayers,
		Password:   password,
	})
	if err != nil {
		return nil, err
	}
	t.adoptSession(resp)
	return resp, nil
}

// JoinRoom joins a room and adopts the returned identity on success.
func (t *WSTransport) JoinRoom(ctx context.Context, roomID uuid.UUID, playerName, password string) (*protocol.Response, error) {
	resp, err := t.request(ctx, protocol.Request{
		Op:         protocol.OpJoinRoom,
		RoomID:     roomID,
		PlayerName: playerName,
		Password:   password,
	})
	if err != nil {
		return nil, err
	}
	t.adoptSession(resp)
	return resp, nil
}

// LeaveRoom sends the leave without waiting for a reply and drops session
// identity.
func (t *WSTransport) LeaveRoom(ctx context.Context) error {
	roomID, playerID := t.session()
	if roomID == uuid.Nil {
		return nil
	}
	err := t.write(ctx, wsFrame{Request: &protocol.Request{
		Op:       protocol.OpLeaveRoom,
		RoomID:   roomID,
		PlayerID: playerID,
	}})
	t.mu.Lock()
	t.roomID = uuid.Nil
	t.playerID = uuid.Nil
	t.mu.Unlock()
	return err
}

// KickPlayer asks the service to remove target from this session's room.
func (t *WSTransport) KickPlayer(ctx context.Context, targetID uuid.UUID) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpKickPlayer,
		RoomID:   roomID,
		PlayerID: playerID,
		TargetID: targetID,
	})
}

// ToggleReady flips this session's ready flag.
func (t *WSTransport) ToggleReady(ctx context.Context) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpToggleReady,
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// StartGame asks the service to start this session's room.
func (t *WSTransport) StartGame(ctx context.Context) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpStartGame,
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// GetActiveRooms fetches the room directory.
func (t *WSTransport) GetActiveRooms(ctx context.Context) ([]models.Room, error) {
	resp, err := t.request(ctx, protocol.Request{Op: protocol.OpGetRooms})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

func (t *WSTransport) fireAndForget(req protocol.Request) error {
	roomID, _ := t.session()
	req.RoomID = roomID
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteTimeout)
	defer cancel()
	return t.write(ctx, wsFrame{Request: &req})
}

// BroadcastGameState announces a full state snapshot. One-way.
func (t *WSTransport) BroadcastGameState(st models.GameState) error {
	return t.fireAndForget(protocol.Request{Op: protocol.OpBroadcastGameState, State: &st})
}

// BroadcastCardPlay announces a card play. One-way.
func (t *WSTransport) BroadcastCardPlay(playerID, cardID uuid.UUID, color *models.CardColor) error {
	return t.fireAndForget(protocol.Request{
		Op:          protocol.OpBroadcastCardPlay,
		PlayerID:    playerID,
		CardID:      cardID,
		ChosenColor: color,
	})
}

// BroadcastDrawCard announces a draw. One-way.
func (t *WSTransport) BroadcastDrawCard(playerID uuid.UUID, count int) error {
	return t.fireAndForget(protocol.Request{
		Op:       protocol.OpBroadcastDrawCard,
		PlayerID: playerID,
		Count:    count,
	})
}

// BroadcastUnoCall announces an uno call. One-way.
func (t *WSTransport) BroadcastUnoCall(playerID uuid.UUID) error {
	return t.fireAndForget(protocol.Request{Op: protocol.OpBroadcastUnoCall, PlayerID: playerID})
}

func (t *WSTransport) removeSub(id uint64) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.globalSub, id)
			delete(t.roomSub, id)
			delete(t.gameSub, id)
			t.subMu.Unlock()
		})
	}
}

// SubscribeGlobal attaches h to the global stream.
func (t *WSTransport) SubscribeGlobal(h func(protocol.GlobalEvent)) (Unsubscribe, error) {
	t.subMu.Lock()
	t.nextSubID++
	id := t.nextSubID
	t.globalSub[id] = h
	t.subMu.Unlock()
	return t.removeSub(id), nil
}

// SubscribeRoom attaches h to one room's stream.
func (t *WSTransport) SubscribeRoom(roomID uuid.UUID, h func(protocol.RoomEvent)) (Unsubscribe, error) {
	t.subMu.Lock()
	t.nextSubID++
	id := t.nextSubID
	t.roomSub[id] = roomSubscription{roomID: roomID, h: h}
	t.subMu.Unlock()
	return t.removeSub(id), nil
}

// SubscribeGame attaches h to one room's game stream.
func (t *WSTransport) SubscribeGame(roomID uuid.UUID, h func(protocol.GameEvent)) (Unsubscribe, error) {
	t.subMu.Lock()
	t.nextSubID++
	id := t.nextSubID
	t.gameSub[id] = gameSubscription{roomID: roomID, h: h}
	t.subMu.Unlock()
	return t.removeSub(id), nil
}

// IsConnected reports socket liveness synchronously.
func (t *WSTransport) IsConnected() bool {
	return t.connected.Load()
}

// Close shuts the socket down and fails any in-flight requests.
func (t *WSTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.markDown()
		err = t.conn.Close(websocket.StatusNormalClosure, "client closing")
	})
	return err
}
