package room

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoroom/internal/auth"
	"unoroom/internal/deck"
	"unoroom/internal/errs"
	"unoroom/internal/game"
	"unoroom/internal/models"
)

// Bounds limits accepted room capacities.
type Bounds struct {
	MinPlayers int
	MaxPlayers int
}

// DefaultBounds matches the classic table sizes.
var DefaultBounds = Bounds{MinPlayers: 2, MaxPlayers: 8}

// MaxSeats is the hard capacity ceiling: every seat must receive a full hand
// with at least the starter card left over.
const MaxSeats = (deck.Size - 1) / game.DefaultHandSize

// CreateParams carries a create request after transport decoding.
type CreateParams struct {
	Name       string
	HostName   string
	MaxPlayers int
	Password   string
}

// JoinParams carries a join request after transport decoding.
type JoinParams struct {
	RoomID     uuid.UUID
	PlayerName string
	Password   string
}

// LeaveResult describes what a removal changed, so callers can publish the
// matching notifications.
type LeaveResult struct {
	Room      *models.Room // nil when the room was destroyed
	NewHostID uuid.UUID    // uuid.Nil when the host did not change
	Destroyed bool
}

// Lifecycle is the single writer for all room state. Every operation locks,
// mutates, and returns sanitized snapshots; concurrent readers never observe
// a half-applied change.
type Lifecycle struct {
	store   *Store
	engines map[uuid.UUID]*game.TurnEngine
	bounds  Bounds
	log     *logrus.Logger

	// NewEngine builds the engine for a starting game. The owner may hook a
	// broadcast function onto the returned engine. Swappable in tests.
	NewEngine func(roomID uuid.UUID) *game.TurnEngine
}

// NewLifecycle builds a Lifecycle over its own empty store.
func NewLifecycle(logger *logrus.Logger, bounds Bounds) *Lifecycle {
	if logger == nil {
		logger = logrus.New()
	}
	if bounds.MinPlayers < 2 {
		bounds.MinPlayers = DefaultBounds.MinPlayers
	}
	if bounds.MaxPlayers < bounds.MinPlayers {
		bounds.MaxPlayers = DefaultBounds.MaxPlayers
	}
	if bounds.MaxPlayers > MaxSeats {
		bounds.MaxPlayers = MaxSeats
	}
	l := &Lifecycle{
		store:   NewStore(),
		engines: make(map[uuid.UUID]*game.TurnEngine),
		bounds:  bounds,
		log:     logger,
	}
	l.NewEngine = func(uuid.UUID) *game.TurnEngine { return game.NewTurnEngine(logger) }
	return l
}

// CreateRoom validates capacity bounds, assigns fresh room and host ids, and
// registers the room in waiting status. The returned player id is the host's.
func (l *Lifecycle) CreateRoom(p CreateParams) (models.Room, uuid.UUID, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return models.Room{}, uuid.Nil, errs.Invalid("room name must not be empty")
	}
	hostName := strings.TrimSpace(p.HostName)
	if hostName == "" {
		return models.Room{}, uuid.Nil, errs.Invalid("host name must not be empty")
	}
	if p.MaxPlayers < l.bounds.MinPlayers || p.MaxPlayers > l.bounds.MaxPlayers {
		return models.Room{}, uuid.Nil, errs.Invalid("maxPlayers must be between %d and %d", l.bounds.MinPlayers, l.bounds.MaxPlayers)
	}

	hostID := uuid.New()
	r := &models.Room{
		ID:         uuid.New(),
		Name:       name,
		HostID:     hostID,
		HostName:   hostName,
		MaxPlayers: p.MaxPlayers,
		Status:     models.RoomWaiting,
		CreatedAt:  time.Now(),
		Players: []models.RoomPlayer{{
			ID:       hostID,
			Name:     hostName,
			IsHost:   true,
			JoinedAt: time.Now(),
		}},
	}
	if p.Password != "" {
		hash, err := auth.HashRoomPassword(p.Password)
		if err != nil {
			return models.Room{}, uuid.Nil, errs.Invalid("could not hash room password")
		}
		r.HasPassword = true
		r.Password = hash
	}
	r.CurrentPlayers = len(r.Players)

	l.store.add(r)
	l.log.WithFields(logrus.Fields{
		"room_id": r.ID,
		"host_id": hostID,
		"name":    name,
	}).Info("room created")
	return r.Sanitized(), hostID, nil
}

// JoinRoom appends a non-host, not-ready member. Fails with RoomNotFound,
// RoomFull, or WrongPassword; password checks run before capacity is consumed.
func (l *Lifecycle) JoinRoom(p JoinParams) (models.Room, uuid.UUID, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	r, ok := l.store.rooms[p.RoomID]
	if !ok {
		return models.Room{}, uuid.Nil, errs.RoomNotFound
	}
	if r.CurrentPlayers >= r.MaxPlayers {
		return models.Room{}, uuid.Nil, errs.RoomFull
	}
	if r.HasPassword {
		match, err := auth.VerifyRoomPassword(p.Password, r.Password)
		if err != nil || !match {
			return models.Room{}, uuid.Nil, errs.WrongPassword
		}
	}

	playerName := strings.TrimSpace(p.PlayerName)
	if playerName == "" {
		return models.Room{}, uuid.Nil, errs.Invalid("player name must not be empty")
	}

	playerID := uuid.New()
	r.Players = append(r.Players, models.RoomPlayer{
		ID:       playerID,
		Name:     playerName,
		JoinedAt: time.Now(),
	})
	r.CurrentPlayers = len(r.Players)

	l.log.WithFields(logrus.Fields{
		"room_id":   r.ID,
		"player_id": playerID,
	}).Info("player joined")
	return r.Sanitized(), playerID, nil
}

// LeaveRoom removes the member. A departing host hands off to the successor;
// the room is destroyed when it empties.
func (l *Lifecycle) LeaveRoom(roomID, playerID uuid.UUID) (LeaveResult, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return l.removePlayerLocked(roomID, playerID)
}

// KickPlayer removes target from the room. Host-only.
func (l *Lifecycle) KickPlayer(roomID, requesterID, targetID uuid.UUID) (LeaveResult, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	r, ok := l.store.rooms[roomID]
	if !ok {
		return LeaveResult{}, errs.RoomNotFound
	}
	if r.HostID != requesterID {
		return LeaveResult{}, errs.NotHost
	}
	return l.removePlayerLocked(roomID, targetID)
}

func (l *Lifecycle) removePlayerLocked(roomID, playerID uuid.UUID) (LeaveResult, error) {
	r, ok := l.store.rooms[roomID]
	if !ok {
		return LeaveResult{}, errs.RoomNotFound
	}
	idx := r.FindPlayer(playerID)
	if idx < 0 {
		return LeaveResult{}, errs.PlayerNotFound
	}

	wasHost := r.Players[idx].IsHost
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	r.CurrentPlayers = len(r.Players)

	if len(r.Players) == 0 {
		delete(l.store.rooms, roomID)
		if eng, ok := l.engines[roomID]; ok {
			eng.Reset()
			delete(l.engines, roomID)
		}
		l.log.WithField("room_id", roomID).Info("room destroyed")
		return LeaveResult{Destroyed: true}, nil
	}

	res := LeaveResult{}
	if wasHost {
		succ := NextHost(r.Players)
		for i := range r.Players {
			r.Players[i].IsHost = r.Players[i].ID == succ
		}
		r.HostID = succ
		r.HostName = r.Players[r.FindPlayer(succ)].Name
		res.NewHostID = succ
		l.log.WithFields(logrus.Fields{
			"room_id":  roomID,
			"new_host": succ,
		}).Info("host reassigned")
	}
	snap := r.Sanitized()
	res.Room = &snap
	return res, nil
}

// ToggleReady flips a non-host member's ready flag. Host readiness is
// implicit, so a host toggle is a no-op.
func (l *Lifecycle) ToggleReady(roomID, playerID uuid.UUID) (models.Room, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	r, ok := l.store.rooms[roomID]
	if !ok {
		return models.Room{}, errs.RoomNotFound
	}
	idx := r.FindPlayer(playerID)
	if idx < 0 {
		return models.Room{}, errs.PlayerNotFound
	}
	if !r.Players[idx].IsHost {
		r.Players[idx].IsReady = !r.Players[idx].IsReady
	}
	return r.Sanitized(), nil
}

// StartGame transitions the room to playing and initializes the turn engine
// with the current roster. Host-only; requires 2+ members and every non-host
// member ready. The roster is fixed from this point on.
func (l *Lifecycle) StartGame(roomID, requesterID uuid.UUID) (models.Room, models.GameState, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	r, ok := l.store.rooms[roomID]
	if !ok {
		return models.Room{}, models.GameState{}, errs.RoomNotFound
	}
	if r.HostID != requesterID {
		return models.Room{}, models.GameState{}, errs.NotHost
	}
	if len(r.Players) < 2 {
		return models.Room{}, models.GameState{}, errs.InsufficientPlayers
	}
	for _, p := range r.Players {
		if !p.IsHost && !p.IsReady {
			return models.Room{}, models.GameState{}, errs.NotAllReady
		}
	}

	eng, ok := l.engines[roomID]
	if !ok {
		eng = l.NewEngine(roomID)
		l.engines[roomID] = eng
	}
	st, err := eng.Initialize(r.Players)
	if err != nil {
		return models.Room{}, models.GameState{}, err
	}

	r.Status = models.RoomPlaying
	r.GameInProgress = true
	l.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"players": len(r.Players),
	}).Info("game started")
	return r.Sanitized(), st, nil
}

// Engine returns the live engine for a room, if a game has been started.
func (l *Lifecycle) Engine(roomID uuid.UUID) (*game.TurnEngine, bool) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	eng, ok := l.engines[roomID]
	return eng, ok
}

// Room returns a sanitized snapshot of one room.
func (l *Lifecycle) Room(roomID uuid.UUID) (models.Room, bool) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	r, ok := l.store.rooms[roomID]
	if !ok {
		return models.Room{}, false
	}
	return r.Sanitized(), true
}

// Rooms lists the active room directory, password hashes stripped.
func (l *Lifecycle) Rooms() []models.Room {
	return l.store.List()
}

// NextHost picks the successor host: earliest JoinedAt, ties broken by the
// lexicographically smallest id. Deterministic so every node converges on the
// same host without coordination.
func NextHost(players []models.RoomPlayer) uuid.UUID {
	if len(players) == 0 {
		return uuid.Nil
	}
	best := players[0]
	for _, p := range players[1:] {
		if p.JoinedAt.Before(best.JoinedAt) ||
			(p.JoinedAt.Equal(best.JoinedAt) && p.ID.String() < best.ID.String()) {
			best = p
		}
	}
	return best.ID
}
