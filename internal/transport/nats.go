package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"unoroom/internal/errs"
	"unoroom/internal/models"
	"unoroom/internal/protocol"
)

var _ Transport = (*NATSTransport)(nil)

// NATSTransport speaks the room protocol over NATS: request/reply for direct
// operations, one subject per stream for notifications. Separate subjects
// mean the three streams really are independently ordered.
type NATSTransport struct {
	nc  *nats.Conn
	log *logrus.Logger

	mu       sync.Mutex
	roomID   uuid.UUID
	playerID uuid.UUID
}

// DialNATS connects to the given NATS URL with reconnect enabled.
func DialNATS(url string, logger *logrus.Logger) (*NATSTransport, error) {
	if logger == nil {
		logger = logrus.New()
	}
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errs.Transport("nats connect failed", err)
	}
	return &NATSTransport{nc: nc, log: logger}, nil
}

func (t *NATSTransport) request(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Transport("marshal request", err)
	}
	msg, err := t.nc.RequestWithContext(ctx, protocol.SubjectRequests, data)
	if err != nil {
		return nil, errs.Transport(fmt.Sprintf("%s request failed", req.Op), err)
	}
	var resp protocol.Response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, errs.Transport("decode response", err)
	}
	return &resp, nil
}

func (t *NATSTransport) session() (uuid.UUID, uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.roomID, t.playerID
}

// Session returns the room and player identity of this session.
func (t *NATSTransport) Session() (uuid.UUID, uuid.UUID) {
	return t.session()
}

func (t *NATSTransport) adoptSession(resp *protocol.Response) {
	if resp == nil || !resp.Success || resp.Room == nil {
		return
	}
	t.mu.Lock()
	t.roomID = resp.Room.ID
	t.playerID = resp.PlayerID
	t.mu.Unlock()
}

// CreateRoom creates a room and adopts the returned identity on success.
func (t *NATSTransport) CreateRoom(ctx context.Context, name, hostName string, maxPlayers int, password string) (*protocol.Response, error) {
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
func (t *NATSTransport) JoinRoom(ctx context.Context, roomID uuid.UUID, playerName, password string) (*protocol.Response, error) {
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

// LeaveRoom publishes the leave and drops local session identity without
// waiting for a reply.
func (t *NATSTransport) LeaveRoom(ctx context.Context) error {
	roomID, playerID := t.session()
	if roomID == uuid.Nil {
		return nil
	}
	data, err := json.Marshal(protocol.Request{
		Op:       protocol.OpLeaveRoom,
		RoomID:   roomID,
		PlayerID: playerID,
	})
	if err != nil {
		return errs.Transport("marshal leave", err)
	}
	if err := t.nc.Publish(protocol.SubjectRequests, data); err != nil {
		return errs.Transport("publish leave", err)
	}
	t.mu.Lock()
	t.roomID = uuid.Nil
	t.playerID = uuid.Nil
	t.mu.Unlock()
	return nil
}

// KickPlayer asks the service to remove target from this session's room.
func (t *NATSTransport) KickPlayer(ctx context.Context, targetID uuid.UUID) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpKickPlayer,
		RoomID:   roomID,
		PlayerID: playerID,
		TargetID: targetID,
	})
}

// ToggleReady flips this session's ready flag.
func (t *NATSTransport) ToggleReady(ctx context.Context) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpToggleReady,
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// StartGame asks the service to start this session's room.
func (t *NATSTransport) StartGame(ctx context.Context) (*protocol.Response, error) {
	roomID, playerID := t.session()
	return t.request(ctx, protocol.Request{
		Op:       protocol.OpStartGame,
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// GetActiveRooms fetches the room directory, password fields stripped.
func (t *NATSTransport) GetActiveRooms(ctx context.Context) ([]models.Room, error) {
	resp, err := t.request(ctx, protocol.Request{Op: protocol.OpGetRooms})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

func (t *NATSTransport) publishAction(req protocol.Request) error {
	roomID, _ := t.session()
	req.RoomID = roomID
	data, err := json.Marshal(req)
	if err != nil {
		return errs.Transport("marshal action", err)
	}
	if err := t.nc.Publish(protocol.SubjectActions, data); err != nil {
		return errs.Transport("publish action", err)
	}
	return nil
}

// BroadcastGameState announces a full state snapshot. One-way.
func (t *NATSTransport) BroadcastGameState(st models.GameState) error {
	return t.publishAction(protocol.Request{Op: protocol.OpBroadcastGameState, State: &st})
}

// BroadcastCardPlay announces a card play. One-way.
func (t *NATSTransport) BroadcastCardPlay(playerID, cardID uuid.UUID, color *models.CardColor) error {
	return t.publishAction(protocol.Request{
		Op:          protocol.OpBroadcastCardPlay,
		PlayerID:    playerID,
		CardID:      cardID,
		ChosenColor: color,
	})
}

// BroadcastDrawCard announces a draw. One-way.
func (t *NATSTransport) BroadcastDrawCard(playerID uuid.UUID, count int) error {
	return t.publishAction(protocol.Request{
		Op:       protocol.OpBroadcastDrawCard,
		PlayerID: playerID,
		Count:    count,
	})
}

// BroadcastUnoCall announces an uno call. One-way.
func (t *NATSTransport) BroadcastUnoCall(playerID uuid.UUID) error {
	return t.publishAction(protocol.Request{Op: protocol.OpBroadcastUnoCall, PlayerID: playerID})
}

func unsubscribeOnce(sub *nats.Subscription) Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() { _ = sub.Unsubscribe() })
	}
}

// SubscribeGlobal attaches h to the global stream.
func (t *NATSTransport) SubscribeGlobal(h func(protocol.GlobalEvent)) (Unsubscribe, error) {
	sub, err := t.nc.Subscribe(protocol.SubjectGlobal, func(msg *nats.Msg) {
		var ev protocol.GlobalEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.log.WithError(err).Debug("dropping malformed global event")
			return
		}
		h(ev)
	})
	if err != nil {
		return nil, errs.Transport("subscribe global", err)
	}
	return unsubscribeOnce(sub), nil
}

// SubscribeRoom attaches h to one room's stream.
func (t *NATSTransport) SubscribeRoom(roomID uuid.UUID, h func(protocol.RoomEvent)) (Unsubscribe, error) {
	sub, err := t.nc.Subscribe(protocol.SubjectRoom(roomID), func(msg *nats.Msg) {
		var ev protocol.RoomEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.log.WithError(err).Debug("dropping malformed room event")
			return
		}
		h(ev)
	})
	if err != nil {
		return nil, errs.Transport("subscribe room", err)
	}
	return unsubscribeOnce(sub), nil
}

// SubscribeGame attaches h to one room's game stream.
func (t *NATSTransport) SubscribeGame(roomID uuid.UUID, h func(protocol.GameEvent)) (Unsubscribe, error) {
	sub, err := t.nc.Subscribe(protocol.SubjectGame(roomID), func(msg *nats.Msg) {
		var ev protocol.GameEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			t.log.WithError(err).Debug("dropping malformed game event")
			return
		}
		h(ev)
	})
	if err != nil {
		return nil, errs.Transport("subscribe game", err)
	}
	return unsubscribeOnce(sub), nil
}

// IsConnected reports NATS connection status synchronously.
func (t *NATSTransport) IsConnected() bool {
	return t.nc.Status() == nats.CONNECTED
}

// Close drains and closes the connection.
func (t *NATSTransport) Close() error {
	t.nc.Close()
	return nil
}
