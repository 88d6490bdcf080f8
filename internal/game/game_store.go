package game

import (
	"sync"

	"github.com/google/uuid"
)

// GameStore owns one session per room key. Lookups by room are indexed,
// not scanned.
type GameStore struct {
	mu     sync.Mutex
	games  map[uuid.UUID]*SchafkopfGame
	byRoom map[uuid.UUID]*SchafkopfGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:  make(map[uuid.UUID]*SchafkopfGame),
		byRoom: make(map[uuid.UUID]*SchafkopfGame),
	}
}

func (s *GameStore) AddGame(g *SchafkopfGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	s.byRoom[g.RoomID] = g
}

func (s *GameStore) GetGame(id uuid.UUID) (*SchafkopfGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// GetGameByRoomID returns the session bound to a room, or nil if none.
func (s *GameStore) GetGameByRoomID(roomID uuid.UUID) *SchafkopfGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byRoom[roomID]
}

func (s *GameStore) DeleteGame(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		delete(s.byRoom, g.RoomID)
		delete(s.games, id)
	}
}
