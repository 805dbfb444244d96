// Package room implements the authoritative room lifecycle: create, join,
// leave, kick, ready toggling, host succession, and game start.
package room

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"unoroom/internal/models"
)

// Store keeps active rooms in memory. Rooms do not survive a restart.
type Store struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*models.Room
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{rooms: make(map[uuid.UUID]*models.Room)}
}

func (s *Store) add(r *models.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// List returns sanitized copies of every active room, ordered by creation
// time so directory listings are stable across polls.
func (s *Store) List() []models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Sanitized())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
