// internal/handlers/game_server_test.go
package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sebi2010-90/Schafkupfer/internal/game"
	"github.com/Sebi2010-90/Schafkupfer/internal/room"
)

func seatRoomWithConns(t *testing.T, rm *room.Room) map[int]*room.RoomConnection {
	t.Helper()
	conns := make(map[int]*room.RoomConnection, game.NumSeats)
	for seat := 0; seat < game.NumSeats; seat++ {
		userID := uuid.New()
		conn := &room.RoomConnection{
			UserID:  userID,
			OutChan: make(chan map[string]interface{}, 64),
		}
		rm.Mu.Lock()
		if err := rm.AddConnection(userID, conn); err != nil {
			rm.Mu.Unlock()
			t.Fatalf("add connection: %v", err)
		}
		if err := rm.TakeSeat(userID, seat); err != nil {
			rm.Mu.Unlock()
			t.Fatalf("take seat %d: %v", seat, err)
		}
		rm.Mu.Unlock()
		conns[seat] = conn
	}
	return conns
}

func drain(conn *room.RoomConnection) []map[string]interface{} {
	var msgs []map[string]interface{}
	for {
		select {
		case msg := <-conn.OutChan:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// TestNewHandFromRoom deals a hand for a fully seated room and checks
// that each seat privately receives exactly its own eight cards.
func TestNewHandFromRoom(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	conns := seatRoomWithConns(t, rm)

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}
	if !rm.InHand {
		t.Fatalf("room not marked in-hand")
	}
	if rm.GameID != g.ID {
		t.Fatalf("room not bound to session")
	}
	if got := gs.GameStore.GetGameByRoomID(rm.ID); got != g {
		t.Fatalf("session not registered under room")
	}

	for seat, conn := range conns {
		msgs := drain(conn)
		var dealt []map[string]interface{}
		for _, msg := range msgs {
			if msg["type"] == string(game.EventPrivateHandDealt) {
				dealt = append(dealt, msg)
			}
		}
		if len(dealt) != 1 {
			t.Fatalf("seat %d received %d deal messages, want 1", seat, len(dealt))
		}
		hand, ok := dealt[0]["hand"].([]interface{})
		if !ok || len(hand) != game.HandSize {
			t.Fatalf("seat %d deal message has malformed hand: %v", seat, dealt[0]["hand"])
		}
	}
}

// TestNewHandFromRoomRefusedWhileInHand checks that a second start
// request cannot replace a live session.
func TestNewHandFromRoomRefusedWhileInHand(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	seatRoomWithConns(t, rm)

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}

	if _, err := gs.NewHandFromRoom(context.Background(), rm); err != game.ErrHandInProgress {
		t.Fatalf("expected ErrHandInProgress, got %v", err)
	}
	if got := gs.GameStore.GetGameByRoomID(rm.ID); got != g {
		t.Fatalf("refused start must leave the live session in place")
	}
	if !g.InProgress {
		t.Fatalf("live session must keep playing after a refused start")
	}

	// The reservation also freezes seating from the moment of the deal.
	rm.Mu.Lock()
	err = rm.TakeSeat(uuid.New(), 0)
	rm.Mu.Unlock()
	if err != room.ErrSeatingFrozen {
		t.Fatalf("expected ErrSeatingFrozen during the hand, got %v", err)
	}
}

func TestNewHandFromRoomRequiresFullSeating(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)

	if _, err := gs.NewHandFromRoom(context.Background(), rm); err != game.ErrInsufficientSeats {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}
	if rm.InHand {
		t.Fatalf("room must not be marked in-hand after a refused deal")
	}
}

// TestPlayThroughRoom plays one card through the same lock sequence the
// websocket message loop uses and checks the broadcast reaches all seats.
func TestPlayThroughRoom(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	conns := seatRoomWithConns(t, rm)

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}
	for _, conn := range conns {
		drain(conn)
	}

	seat := g.CurrentSeat()
	cardID := g.Players[seat].Hand[0].ID()
	if err := g.HandlePlay(seat, cardID); err != nil {
		t.Fatalf("HandlePlay: %v", err)
	}

	for s, conn := range conns {
		msgs := drain(conn)
		found := false
		for _, msg := range msgs {
			if msg["type"] == string(game.EventPlayerCardPlayed) {
				card, _ := msg["card"].(map[string]interface{})
				if card["id"] != cardID {
					t.Fatalf("seat %d saw wrong card: %v", s, card)
				}
				found = true
			}
		}
		if !found {
			t.Fatalf("seat %d did not see the played card", s)
		}
	}
}

// TestSpectatorLeaveKeepsHandRunning checks that an unseated user
// disconnecting mid-hand leaves the hand and the seat freeze untouched.
func TestSpectatorLeaveKeepsHandRunning(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	seatRoomWithConns(t, rm)

	spectatorID := uuid.New()
	spectator := &room.RoomConnection{
		UserID:  spectatorID,
		OutChan: make(chan map[string]interface{}, 64),
	}
	rm.Mu.Lock()
	if err := rm.AddConnection(spectatorID, spectator); err != nil {
		rm.Mu.Unlock()
		t.Fatalf("add spectator: %v", err)
	}
	rm.Mu.Unlock()

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}

	cleanupConnection(rm, spectator, gs, logrus.New())

	rm.Mu.Lock()
	inHand := rm.InHand
	rm.Mu.Unlock()
	if !inHand {
		t.Fatalf("spectator disconnect must not clear the room's in-hand flag")
	}
	if !g.InProgress {
		t.Fatalf("spectator disconnect must not end the hand")
	}
	rm.Mu.Lock()
	err = rm.TakeSeat(uuid.New(), 0)
	rm.Mu.Unlock()
	if err != room.ErrSeatingFrozen {
		t.Fatalf("seating must stay frozen, got %v", err)
	}
	if _, err := gs.NewHandFromRoom(context.Background(), rm); err != game.ErrHandInProgress {
		t.Fatalf("a fresh start must still be refused, got %v", err)
	}
}

// TestSeatedLeaveAbortsHand checks that a seated player disconnecting
// mid-hand fails the session closed and unlocks the room.
func TestSeatedLeaveAbortsHand(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	conns := seatRoomWithConns(t, rm)

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}

	cleanupConnection(rm, conns[2], gs, logrus.New())

	if g.InProgress {
		t.Fatalf("hand must abort when a seated player leaves")
	}
	rm.Mu.Lock()
	inHand := rm.InHand
	rm.Mu.Unlock()
	if inHand {
		t.Fatalf("room must unlock after the aborted hand")
	}
}

// TestHandEndUnlocksRoom plays a full hand and checks the room accepts
// a fresh deal afterwards.
func TestHandEndUnlocksRoom(t *testing.T) {
	gs := NewGameServer()
	rm := room.NewRoomWithDefaults(uuid.New())
	gs.RoomStore.AddRoom(rm)
	seatRoomWithConns(t, rm)

	g, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("NewHandFromRoom: %v", err)
	}

	for i := 0; i < game.DeckSize; i++ {
		seat := g.CurrentSeat()
		if err := g.HandlePlay(seat, g.Players[seat].Hand[0].ID()); err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
	}

	rm.Mu.Lock()
	inHand := rm.InHand
	rm.Mu.Unlock()
	if inHand {
		t.Fatalf("room still marked in-hand after the eighth trick")
	}

	// The next deal replaces the finished session.
	g2, err := gs.NewHandFromRoom(context.Background(), rm)
	if err != nil {
		t.Fatalf("second NewHandFromRoom: %v", err)
	}
	if g2.ID == g.ID {
		t.Fatalf("expected a fresh session for the new hand")
	}
	if gs.GameStore.GetGameByRoomID(rm.ID) != g2 {
		t.Fatalf("room should be bound to the new session")
	}
}
