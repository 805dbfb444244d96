// Package reconcile applies inbound stream notifications to the local client
// state. The transport may deliver events duplicated or reordered across
// streams, so every application is defensive and idempotent, and a malformed
// or unknown event is dropped rather than raised.
package reconcile

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"unoroom/internal/models"
	"unoroom/internal/protocol"
	"unoroom/internal/room"
	"unoroom/internal/state"
)

// Reconciler is the only writer of state.Client besides the direct-action
// client. It owns no state of its own.
type Reconciler struct {
	st  *state.Client
	log *logrus.Logger

	// OnKicked fires after a KICKED_FROM_ROOM teardown, letting the owning
	// scope drop its room/game subscriptions.
	OnKicked func()
}

// New builds a reconciler over the given state container.
func New(st *state.Client, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{st: st, log: logger}
}

// ApplyRoomEvent handles one room-stream notification.
func (r *Reconciler) ApplyRoomEvent(ev protocol.RoomEvent) {
	switch ev.Type {
	case protocol.RoomPlayerJoined:
		if ev.Player == nil {
			return
		}
		r.st.MutateRoom(func(rm *models.Room) {
			// Duplicate delivery of the same join is a no-op.
			if rm.FindPlayer(ev.Player.ID) >= 0 {
				return
			}
			rm.Players = append(rm.Players, *ev.Player)
		})

	case protocol.RoomPlayerLeft:
		r.removePlayer(ev.PlayerID)

	case protocol.RoomHostChanged:
		if ev.NewHostID == uuid.Nil {
			return
		}
		r.st.MutateRoom(func(rm *models.Room) {
			// The successor's PLAYER_JOINED may not have arrived yet; applying
			// anyway would leave the room with no host at all. Drop the event
			// and let the local succession rule converge instead.
			if rm.FindPlayer(ev.NewHostID) < 0 {
				r.log.WithFields(logrus.Fields{
					"room_id":     ev.RoomID,
					"new_host_id": ev.NewHostID,
				}).Debug("ignoring host change for unknown member")
				return
			}
			for i := range rm.Players {
				rm.Players[i].IsHost = rm.Players[i].ID == ev.NewHostID
				if rm.Players[i].IsHost {
					rm.HostID = rm.Players[i].ID
					rm.HostName = rm.Players[i].Name
				}
			}
		})

	case protocol.RoomGameStarted:
		r.st.MutateRoom(func(rm *models.Room) {
			rm.Status = models.RoomPlaying
			rm.GameInProgress = true
		})
		// A fresh game supersedes whatever snapshot the last one left behind.
		r.st.ClearGame()

	case protocol.RoomKickedFromRoom:
		if ev.PlayerID != uuid.Nil && ev.PlayerID != r.st.PlayerID() {
			// Someone else was kicked; for this client that is just a leave.
			r.removePlayer(ev.PlayerID)
			return
		}
		r.log.WithField("room_id", ev.RoomID).Info("kicked from room, tearing down local membership")
		r.st.Reset()
		if r.OnKicked != nil {
			r.OnKicked()
		}

	default:
		r.log.WithField("type", string(ev.Type)).Debug("ignoring unknown room event")
	}
}

// removePlayer removes the member if present and reapplies the host
// succession rule when the departed member held the host flag. The rule is
// the same one the authoritative node uses, so the local view converges even
// when HOST_CHANGED arrives late or not at all.
func (r *Reconciler) removePlayer(playerID uuid.UUID) {
	if playerID == uuid.Nil {
		return
	}
	r.st.MutateRoom(func(rm *models.Room) {
		idx := rm.FindPlayer(playerID)
		if idx < 0 {
			return
		}
		wasHost := rm.Players[idx].IsHost
		rm.Players = append(rm.Players[:idx], rm.Players[idx+1:]...)
		if wasHost && len(rm.Players) > 0 {
			succ := room.NextHost(rm.Players)
			for i := range rm.Players {
				rm.Players[i].IsHost = rm.Players[i].ID == succ
			}
			rm.HostID = succ
			rm.HostName = rm.Players[rm.FindPlayer(succ)].Name
		}
	})
}

// ApplyGameEvent handles one game-stream notification.
func (r *Reconciler) ApplyGameEvent(ev protocol.GameEvent) {
	switch ev.Type {
	case protocol.GameStateUpdate:
		if ev.State == nil {
			return
		}
		if !r.st.ReplaceGame(*ev.State) {
			r.log.WithFields(logrus.Fields{
				"room_id": ev.RoomID,
				"seq":     ev.State.Seq,
			}).Debug("discarding stale game snapshot")
		}

	default:
		r.log.WithField("type", string(ev.Type)).Debug("ignoring unknown game event")
	}
}

// ApplyGlobalEvent handles one global-stream notification.
func (r *Reconciler) ApplyGlobalEvent(ev protocol.GlobalEvent) {
	switch ev.Type {
	case protocol.GlobalRoomsUpdated:
		r.st.SetDirectory(ev.Rooms)

	case protocol.GlobalConnectionFailed:
		msg := ev.Message
		if msg == "" {
			msg = "connection failed"
		}
		r.st.SetConnected(false, msg)

	default:
		r.log.WithField("type", string(ev.Type)).Debug("ignoring unknown global event")
	}
}
