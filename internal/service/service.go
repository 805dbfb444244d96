// Package service binds the authoritative room lifecycle and turn engine to
// the NATS surface: request/reply for direct operations, per-room subjects
// for the notification streams.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"unoroom/internal/game"
	"unoroom/internal/journal"
	"unoroom/internal/models"
	"unoroom/internal/protocol"
	"unoroom/internal/room"
)

// publishFunc lets tests capture published events instead of hitting NATS.
type publishFunc func(subject string, data []byte)

// Service is the authoritative node.
type Service struct {
	nc    *nats.Conn
	pub   publishFunc
	rooms *room.Lifecycle
	jr    *journal.Journal
	log   *logrus.Logger
	subs  []*nats.Subscription
}

// New wires a service over an established NATS connection. jr may be nil.
func New(nc *nats.Conn, rooms *room.Lifecycle, jr *journal.Journal, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Service{nc: nc, rooms: rooms, jr: jr, log: logger}
	s.pub = func(subject string, data []byte) {
		if err := nc.Publish(subject, data); err != nil {
			logger.WithError(err).WithField("subject", subject).Warn("publish failed")
		}
	}
	// Engines created for starting games publish every accepted snapshot on
	// that room's game stream.
	rooms.NewEngine = func(roomID uuid.UUID) *game.TurnEngine {
		eng := game.NewTurnEngine(logger)
		eng.BroadcastFn = func(st models.GameState) {
			s.publishGameState(roomID, st)
		}
		return eng
	}
	return s
}

// Start subscribes to the request and action subjects.
func (s *Service) Start() error {
	reqSub, err := s.nc.Subscribe(protocol.SubjectRequests, func(msg *nats.Msg) {
		var req protocol.Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.log.WithError(err).Debug("dropping malformed request")
			return
		}
		resp := s.HandleRequest(req)
		if msg.Reply == "" || resp == nil {
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			s.log.WithError(err).Warn("could not marshal response")
			return
		}
		if err := msg.Respond(data); err != nil {
			s.log.WithError(err).Debug("could not respond to request")
		}
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, reqSub)

	actSub, err := s.nc.Subscribe(protocol.SubjectActions, func(msg *nats.Msg) {
		var req protocol.Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.log.WithError(err).Debug("dropping malformed action")
			return
		}
		s.HandleAction(req)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, actSub)

	s.log.Info("room service listening")
	return nil
}

// Stop detaches the subscriptions.
func (s *Service) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

// HandleRequest dispatches one direct operation and returns its response.
// Operations that mutate membership also push the matching notifications.
func (s *Service) HandleRequest(req protocol.Request) *protocol.Response {
	switch req.Op {
	case protocol.OpCreateRoom:
		r, playerID, err := s.rooms.CreateRoom(room.CreateParams{
			Name:       req.RoomName,
			HostName:   req.PlayerName,
			MaxPlayers: req.MaxPlayers,
			Password:   req.Password,
		})
		if err != nil {
			return protocol.Fail(err)
		}
		s.journal(r.ID, playerID, "create_room", nil)
		s.publishDirectory()
		return &protocol.Response{Success: true, Room: &r, PlayerID: playerID}

	case protocol.OpJoinRoom:
		r, playerID, err := s.rooms.JoinRoom(room.JoinParams{
			RoomID:     req.RoomID,
			PlayerName: req.PlayerName,
			Password:   req.Password,
		})
		if err != nil {
			return protocol.Fail(err)
		}
		if idx := r.FindPlayer(playerID); idx >= 0 {
			joined := r.Players[idx]
			s.publishRoomEvent(r.ID, protocol.RoomEvent{
				Type:   protocol.RoomPlayerJoined,
				RoomID: r.ID,
				Player: &joined,
			})
		}
		s.journal(r.ID, playerID, "join_room", nil)
		s.publishDirectory()
		return &protocol.Response{Success: true, Room: &r, PlayerID: playerID}

	case protocol.OpLeaveRoom:
		res, err := s.rooms.LeaveRoom(req.RoomID, req.PlayerID)
		if err != nil {
			return protocol.Fail(err)
		}
		s.publishRemoval(req.RoomID, protocol.RoomEvent{
			Type:     protocol.RoomPlayerLeft,
			RoomID:   req.RoomID,
			PlayerID: req.PlayerID,
		}, res)
		s.journal(req.RoomID, req.PlayerID, "leave_room", nil)
		return protocol.Ok()

	case protocol.OpKickPlayer:
		res, err := s.rooms.KickPlayer(req.RoomID, req.PlayerID, req.TargetID)
		if err != nil {
			return protocol.Fail(err)
		}
		s.publishRemoval(req.RoomID, protocol.RoomEvent{
			Type:     protocol.RoomKickedFromRoom,
			RoomID:   req.RoomID,
			PlayerID: req.TargetID,
		}, res)
		s.journal(req.RoomID, req.PlayerID, "kick_player", map[string]any{"target": req.TargetID})
		return protocol.Ok()

	case protocol.OpToggleReady:
		r, err := s.rooms.ToggleReady(req.RoomID, req.PlayerID)
		if err != nil {
			return protocol.Fail(err)
		}
		s.publishDirectory()
		return &protocol.Response{Success: true, Room: &r}

	case protocol.OpStartGame:
		r, st, err := s.rooms.StartGame(req.RoomID, req.PlayerID)
		if err != nil {
			return protocol.Fail(err)
		}
		s.publishRoomEvent(r.ID, protocol.RoomEvent{
			Type:   protocol.RoomGameStarted,
			RoomID: r.ID,
			Room:   &r,
		})
		// Initialize already pushed the snapshot through the engine hook;
		// resend here so a client that subscribes on GAME_STARTED still
		// converges even if the first snapshot predates its subscription.
		s.publishGameState(r.ID, st)
		s.journal(r.ID, req.PlayerID, "start_game", nil)
		s.publishDirectory()
		return &protocol.Response{Success: true, Room: &r}

	case protocol.OpGetRooms:
		return &protocol.Response{Success: true, Rooms: s.rooms.Rooms()}

	default:
		s.log.WithField("op", string(req.Op)).Debug("ignoring unknown request op")
		return nil
	}
}

// HandleAction applies one one-way game announcement. Failures are logged
// and dropped; there is nobody to reply to.
func (s *Service) HandleAction(req protocol.Request) {
	eng, ok := s.rooms.Engine(req.RoomID)
	if !ok {
		s.log.WithFields(logrus.Fields{
			"op":      string(req.Op),
			"room_id": req.RoomID,
		}).Debug("dropping action for room without a game")
		return
	}

	switch req.Op {
	case protocol.OpBroadcastCardPlay:
		if _, err := eng.ApplyPlay(req.PlayerID, req.CardID, req.ChosenColor); err != nil {
			s.log.WithError(err).WithField("player_id", req.PlayerID).Debug("rejected card play")
			return
		}
		s.journal(req.RoomID, req.PlayerID, "play_card", map[string]any{"card": req.CardID})

	case protocol.OpBroadcastDrawCard:
		if _, _, err := eng.ApplyDraw(req.PlayerID, req.Count); err != nil {
			s.log.WithError(err).WithField("player_id", req.PlayerID).Debug("rejected draw")
			return
		}
		s.journal(req.RoomID, req.PlayerID, "draw_card", map[string]any{"count": req.Count})

	case protocol.OpBroadcastUnoCall:
		if _, err := eng.ApplyUnoCall(req.PlayerID); err != nil {
			s.log.WithError(err).WithField("player_id", req.PlayerID).Debug("rejected uno call")
			return
		}
		s.journal(req.RoomID, req.PlayerID, "uno_call", nil)

	case protocol.OpBroadcastGameState:
		// Relay for client-authoritative peers: republish wholesale.
		if req.State != nil {
			s.publishGameState(req.RoomID, *req.State)
		}

	default:
		s.log.WithField("op", string(req.Op)).Debug("ignoring unknown action op")
	}
}

// publishRemoval pushes the removal event plus whatever it triggered: a host
// change when the host left, nothing further when the room was destroyed.
func (s *Service) publishRemoval(roomID uuid.UUID, ev protocol.RoomEvent, res room.LeaveResult) {
	s.publishRoomEvent(roomID, ev)
	if res.NewHostID != uuid.Nil {
		s.publishRoomEvent(roomID, protocol.RoomEvent{
			Type:      protocol.RoomHostChanged,
			RoomID:    roomID,
			NewHostID: res.NewHostID,
		})
	}
	s.publishDirectory()
}

func (s *Service) publishRoomEvent(roomID uuid.UUID, ev protocol.RoomEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Warn("could not marshal room event")
		return
	}
	s.pub(protocol.SubjectRoom(roomID), data)
}

func (s *Service) publishGameState(roomID uuid.UUID, st models.GameState) {
	ev := protocol.GameEvent{
		Type:   protocol.GameStateUpdate,
		RoomID: roomID,
		State:  &st,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Warn("could not marshal game event")
		return
	}
	s.pub(protocol.SubjectGame(roomID), data)
}

func (s *Service) publishDirectory() {
	ev := protocol.GlobalEvent{
		Type:  protocol.GlobalRoomsUpdated,
		Rooms: s.rooms.Rooms(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		s.log.WithError(err).Warn("could not marshal global event")
		return
	}
	s.pub(protocol.SubjectGlobal, data)
}

func (s *Service) journal(roomID, actorID uuid.UUID, action string, payload map[string]any) {
	if s.jr == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.jr.Record(ctx, journal.ActionRecord{
		RoomID:  roomID,
		ActorID: actorID,
		Action:  action,
		Payload: payload,
	})
}
