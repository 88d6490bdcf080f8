// internal/room/room_store.go
package room

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore manages ephemeral rooms in memory only.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

// NewRoomStore returns an in-memory store for Rooms.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[uuid.UUID]*Room),
	}
}

// AddRoom stores the room in memory. Typically you also define OnEmpty
// so that the room can remove itself.
func (s *RoomStore) AddRoom(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

// DeleteRoom removes the ephemeral room from memory.
func (s *RoomStore) DeleteRoom(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// GetRoom retrieves a room if it exists.
func (s *RoomStore) GetRoom(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetRooms returns a copy of the map of active rooms, typically for
// listing. The copy lets the caller iterate while other goroutines add
// or remove rooms in the store.
func (s *RoomStore) GetRooms() map[uuid.UUID]*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	roomsCopy := make(map[uuid.UUID]*Room, len(s.rooms))
	for k, v := range s.rooms {
		roomsCopy[k] = v
	}
	return roomsCopy
}
