// internal/handlers/game_server.go
package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/Sebi2010-90/Schafkupfer/internal/database"
	"github.com/Sebi2010-90/Schafkupfer/internal/game"
	"github.com/Sebi2010-90/Schafkupfer/internal/models"
	"github.com/Sebi2010-90/Schafkupfer/internal/room"
)

// GameServer holds the room and session stores and creates new hands
// from fully seated rooms.
type GameServer struct {
	GameStore *game.GameStore
	RoomStore *room.RoomStore
	Logf      func(f string, v ...interface{})
}

func NewGameServer() *GameServer {
	return &GameServer{
		GameStore: game.NewGameStore(),
		RoomStore: room.NewRoomStore(),
		Logf:      log.Printf,
	}
}

// NewHandFromRoom builds the seat-ordered player view from the room's
// seat bindings, wires the session's event callbacks to the room's
// channels and deals the hand. The room must have all four seats filled;
// otherwise the deal is refused.
//
// The room is reserved (InHand set) in the same locked section that
// validates the seating, so seats are frozen before the deal and a
// second concurrent start request is refused instead of replacing a
// live session. A failed deal rolls the reservation back.
//
// Callers must NOT hold the room lock: dealt-hand events take it.
func (gs *GameServer) NewHandFromRoom(ctx context.Context, rm *room.Room) (*game.SchafkopfGame, error) {
	rm.Mu.Lock()
	if rm.InHand {
		rm.Mu.Unlock()
		return nil, game.ErrHandInProgress
	}
	if !rm.AllSeatsFilled() {
		rm.Mu.Unlock()
		return nil, game.ErrInsufficientSeats
	}
	rm.InHand = true
	seats := rm.Seats
	rm.Mu.Unlock()

	players := make([]*models.Player, game.NumSeats)
	for seat, userID := range seats {
		p := &models.Player{
			ID:        userID,
			Seat:      seat,
			Connected: true,
			Hand:      []models.Card{},
		}
		// Best-effort username lookup; the engine only needs the seat binding.
		if database.DB != nil {
			if u, err := database.GetUserByID(ctx, userID); err == nil {
				p.User = u
			}
		}
		players[seat] = p
	}

	// Reuse the room's existing terminal session slot: a fresh hand
	// replaces a completed one.
	if old := gs.GameStore.GetGameByRoomID(rm.ID); old != nil {
		gs.GameStore.DeleteGame(old.ID)
	}

	g := game.NewSchafkopfGame(rm.ID)
	g.SeatPlayers(players)
	g.BroadcastFn = createRoomBroadcastFunc(rm)
	g.BroadcastToSeatFn = createSeatBroadcastFunc(rm)
	g.OnHandEnd = func(roomID uuid.UUID, winnerCounts map[int]int) {
		rm.Mu.Lock()
		rm.InHand = false
		rm.Mu.Unlock()
	}

	gs.GameStore.AddGame(g)

	if err := g.StartHand(); err != nil {
		gs.GameStore.DeleteGame(g.ID)
		rm.Mu.Lock()
		rm.InHand = false
		rm.Mu.Unlock()
		return nil, err
	}

	rm.Mu.Lock()
	rm.GameID = g.ID
	rm.Mu.Unlock()

	return g, nil
}

// createRoomBroadcastFunc returns a function suitable for
// SchafkopfGame.BroadcastFn. It is called while the game lock is held,
// so it must not call back into the engine; it only takes the room lock
// to reach the outbound channels.
func createRoomBroadcastFunc(rm *room.Room) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		msg := eventToMap(ev)
		rm.Mu.Lock()
		rm.BroadcastAll(msg)
		rm.Mu.Unlock()
	}
}

// createSeatBroadcastFunc returns a function suitable for
// SchafkopfGame.BroadcastToSeatFn. Events go only to the user bound to
// the seat; dealt hands are never visible to other seats.
func createSeatBroadcastFunc(rm *room.Room) func(seat int, ev game.GameEvent) {
	return func(seat int, ev game.GameEvent) {
		msg := eventToMap(ev)
		rm.Mu.Lock()
		rm.SendToSeat(seat, msg)
		rm.Mu.Unlock()
	}
}

// eventToMap converts a GameEvent into the generic JSON object the room
// write pumps expect. Returns an empty object on marshal failure.
func eventToMap(ev game.GameEvent) map[string]interface{} {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("WARNING: Failed to marshal GameEvent type %s: %v", ev.Type, err)
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("WARNING: Failed to convert GameEvent type %s: %v", ev.Type, err)
		return map[string]interface{}{}
	}
	return m
}
