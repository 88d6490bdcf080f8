// internal/room/room.go
package room

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sebi2010-90/Schafkupfer/internal/game"
)

// Room is one ephemeral Schafkopf table: four fixed seats, a connection
// registry and the channels used to notify everyone (or one seat) of
// game events. Rooms live in memory only.
type Room struct {
	ID         uuid.UUID `json:"id"`
	HostUserID uuid.UUID `json:"hostUserID"`
	Name       string    `json:"name"`
	Type       string    `json:"type"` // "private" or "public"; private rooms are invite only

	// Seats binds each seat index to a user for the duration of a hand.
	// uuid.Nil marks an empty seat.
	Seats [game.NumSeats]uuid.UUID `json:"seats"`

	// Users tracks who is allowed in the room (invited or joined).
	Users map[uuid.UUID]bool `json:"-"`

	Connections map[uuid.UUID]*RoomConnection `json:"-"`

	// InHand is true while a dealt hand is being played; seating is
	// frozen for its duration.
	InHand bool      `json:"inHand"`
	GameID uuid.UUID `json:"gameID"`

	Mu sync.Mutex `json:"-"`

	// OnEmpty is invoked when the last connection leaves, typically to
	// remove the room from its store.
	OnEmpty func(roomID uuid.UUID) `json:"-"`
}

// RoomConnection wraps a single user's active WebSocket connection.
type RoomConnection struct {
	UserID  uuid.UUID
	Cancel  context.CancelFunc
	OutChan chan map[string]interface{}
	IsHost  bool
}

// Write pushes a message to the user's outbound channel. The send never
// blocks; a stalled client drops messages rather than stalling the room.
func (conn *RoomConnection) Write(msg map[string]interface{}) {
	select {
	case conn.OutChan <- msg:
	default:
	}
}

// WriteError pushes an error message to the user's outbound channel.
// Only the requester sees it; rejections never disturb other seats.
func (conn *RoomConnection) WriteError(msg string) {
	conn.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}

// NewRoomWithDefaults creates a public room under the specified host user.
func NewRoomWithDefaults(hostID uuid.UUID) *Room {
	roomID, _ := uuid.NewV7()
	return &Room{
		ID:          roomID,
		HostUserID:  hostID,
		Type:        "public",
		Users:       map[uuid.UUID]bool{hostID: false},
		Connections: make(map[uuid.UUID]*RoomConnection),
	}
}

// InviteUser grants a user permission to join. Only meaningful for
// private rooms.
func (r *Room) InviteUser(userID uuid.UUID) {
	r.Users[userID] = false
}

// AddConnection registers a user's connection. This is the "join room"
// operation. Callers hold Mu.
func (r *Room) AddConnection(userID uuid.UUID, conn *RoomConnection) error {
	if r.Type == "private" {
		if _, ok := r.Users[userID]; !ok {
			return ErrNotInvited
		}
	}
	r.Users[userID] = true
	r.Connections[userID] = conn
	return nil
}

// TakeSeat binds a user to a seat. Each user holds at most one seat; a
// taken seat is refused with game.ErrSeatConflict. Seating is frozen
// while a hand is in progress. Callers hold Mu.
func (r *Room) TakeSeat(userID uuid.UUID, seat int) error {
	if seat < 0 || seat >= game.NumSeats {
		return ErrInvalidSeat
	}
	if r.InHand {
		return ErrSeatingFrozen
	}
	if r.Seats[seat] != uuid.Nil && r.Seats[seat] != userID {
		return game.ErrSeatConflict
	}
	// Vacate any seat the user already holds.
	for i, id := range r.Seats {
		if id == userID {
			r.Seats[i] = uuid.Nil
		}
	}
	r.Seats[seat] = userID
	return nil
}

// LeaveSeat vacates whichever seat the user holds. Callers hold Mu.
func (r *Room) LeaveSeat(userID uuid.UUID) {
	if r.InHand {
		return
	}
	for i, id := range r.Seats {
		if id == userID {
			r.Seats[i] = uuid.Nil
		}
	}
}

// SeatOf returns the seat bound to a user, or false if unseated.
func (r *Room) SeatOf(userID uuid.UUID) (int, bool) {
	for i, id := range r.Seats {
		if id == userID {
			return i, true
		}
	}
	return 0, false
}

// AllSeatsFilled reports whether all four seats are bound.
func (r *Room) AllSeatsFilled() bool {
	for _, id := range r.Seats {
		if id == uuid.Nil {
			return false
		}
	}
	return true
}

// RemoveUser drops a user's connection and, outside a hand, their seat.
// Invokes OnEmpty when the room has no connections left. Callers hold Mu.
func (r *Room) RemoveUser(userID uuid.UUID) {
	delete(r.Users, userID)
	delete(r.Connections, userID)
	if !r.InHand {
		for i, id := range r.Seats {
			if id == userID {
				r.Seats[i] = uuid.Nil
			}
		}
	}
	if len(r.Connections) == 0 && r.OnEmpty != nil {
		r.OnEmpty(r.ID)
	}
}

// BroadcastAll sends a JSON object to all connected users' OutChan.
func (r *Room) BroadcastAll(msg map[string]interface{}) {
	for _, conn := range r.Connections {
		conn.Write(msg)
	}
}

// SendToUser sends a JSON object to a single user, if connected.
func (r *Room) SendToUser(userID uuid.UUID, msg map[string]interface{}) {
	if conn, ok := r.Connections[userID]; ok {
		conn.Write(msg)
	}
}

// SendToSeat sends a JSON object to whichever user holds a seat. This
// is the private delivery channel for dealt hands.
func (r *Room) SendToSeat(seat int, msg map[string]interface{}) {
	if seat < 0 || seat >= game.NumSeats {
		return
	}
	if userID := r.Seats[seat]; userID != uuid.Nil {
		r.SendToUser(userID, msg)
	}
}

// BroadcastJoin announces a user joining the room.
func (r *Room) BroadcastJoin(userID uuid.UUID) {
	r.BroadcastAll(map[string]interface{}{
		"type":      "room_update",
		"user_join": userID.String(),
		"seats":     r.seatView(),
	})
}

// BroadcastLeave announces a user leaving the room.
func (r *Room) BroadcastLeave(userID uuid.UUID) {
	r.BroadcastAll(map[string]interface{}{
		"type":      "room_update",
		"user_left": userID.String(),
		"seats":     r.seatView(),
	})
}

// BroadcastSeats announces the current seat binding.
func (r *Room) BroadcastSeats() {
	r.BroadcastAll(map[string]interface{}{
		"type":  "seat_update",
		"seats": r.seatView(),
	})
}

// BroadcastChat relays a chat message from a given user.
func (r *Room) BroadcastChat(userID uuid.UUID, msg string) {
	r.BroadcastAll(map[string]interface{}{
		"type":    "chat",
		"user_id": userID.String(),
		"msg":     msg,
		"ts":      time.Now().Unix(),
	})
}

func (r *Room) seatView() []string {
	view := make([]string, game.NumSeats)
	for i, id := range r.Seats {
		if id != uuid.Nil {
			view[i] = id.String()
		}
	}
	return view
}
