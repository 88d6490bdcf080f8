// internal/game/game.go
package game

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sebi2010-90/Schafkupfer/internal/cache"
	"github.com/Sebi2010-90/Schafkupfer/internal/models"
)

// OnHandEndFunc handles a finished hand, e.g. unlocking the room so the
// host can request a fresh deal.
type OnHandEndFunc func(roomID uuid.UUID, winnerCounts map[int]int)

// PlayedCard is one (seat, card) entry of the trick in play order.
type PlayedCard struct {
	Seat int
	Card models.Card
}

// SchafkopfGame holds the entire state for a single hand in memory.
//
// All mutation is serialized through Mu: trick resolution and turn
// advancement are not idempotent, and interleaved plays would corrupt
// the hand partition invariant. Sessions of different rooms are fully
// independent.
type SchafkopfGame struct {
	ID     uuid.UUID
	RoomID uuid.UUID

	// Players is the seat-ordered view, fixed for the duration of the
	// hand. Index i is seat i; mid-hand seating changes are unsupported.
	Players []*models.Player

	// Trick accumulates at most NumSeats played cards, then resolves.
	Trick []PlayedCard

	// TurnIndex is the seat whose turn it is; LeaderIndex the seat that
	// led the current trick.
	TurnIndex   int
	LeaderIndex int

	InProgress     bool
	TricksResolved int

	actionIndex int
	Mu          sync.Mutex

	// BroadcastFn sends an event to every seat. If nil, no broadcast is done.
	BroadcastFn func(ev GameEvent)

	// BroadcastToSeatFn sends an event to a single seat only. Dealt
	// hands must go through this and never through BroadcastFn.
	BroadcastToSeatFn func(seat int, ev GameEvent)

	// OnHandEnd is invoked once when the eighth trick resolves.
	OnHandEnd OnHandEndFunc

	// winnerCounts tracks tricks won per seat, reported at hand end.
	// No point tallying happens here.
	winnerCounts map[int]int
}

// NewSchafkopfGame builds an empty session for a room.
func NewSchafkopfGame(roomID uuid.UUID) *SchafkopfGame {
	id, _ := uuid.NewRandom()
	return &SchafkopfGame{
		ID:           id,
		RoomID:       roomID,
		winnerCounts: make(map[int]int),
	}
}

// SeatPlayers installs the seat-ordered player view. Must be called with
// exactly one player per seat before StartHand; the slice is indexed by
// seat so it is computed once and never re-derived per event.
func (g *SchafkopfGame) SeatPlayers(players []*models.Player) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	g.Players = players
}

// StartHand shuffles a fresh deck, deals eight cards to each of the four
// seats and gives the lead to seat 0. Fails with ErrInsufficientSeats
// unless all four seats are bound.
func (g *SchafkopfGame) StartHand() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.InProgress {
		return ErrHandInProgress
	}
	if len(g.Players) != NumSeats {
		return ErrInsufficientSeats
	}
	for _, p := range g.Players {
		if p == nil {
			return ErrInsufficientSeats
		}
	}

	deck := NewDeck()
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	// Cards [8k, 8k+8) of the shuffled sequence go to seat k.
	for seat, p := range g.Players {
		hand := make([]models.Card, HandSize)
		copy(hand, deck[seat*HandSize:(seat+1)*HandSize])
		p.Hand = hand
	}

	g.Trick = g.Trick[:0]
	g.TurnIndex = 0
	g.LeaderIndex = 0
	g.TricksResolved = 0
	g.winnerCounts = make(map[int]int)
	g.InProgress = true

	g.logAction(uuid.Nil, -1, "hand_start", nil)

	// Each seat learns only its own hand.
	for seat, p := range g.Players {
		g.fireEventToSeat(seat, GameEvent{
			Type: EventPrivateHandDealt,
			Seat: intPtr(seat),
			Hand: buildEventHand(p.Hand),
		})
		g.logAction(p.ID, seat, string(EventPrivateHandDealt), map[string]interface{}{"cards": len(p.Hand)})
	}

	g.broadcastPlayerTurn()
	return nil
}

// CurrentSeat returns the seat whose turn it is.
func (g *SchafkopfGame) CurrentSeat() int {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.TurnIndex
}

// HandlePlay validates and applies one play request.
//
// Validation fully precedes mutation: a rejected play leaves hands,
// trick and turn state byte-for-byte unchanged.
func (g *SchafkopfGame) HandlePlay(seat int, cardID string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if !g.InProgress {
		return ErrHandNotInProgress
	}
	if seat != g.TurnIndex {
		return ErrOutOfTurn
	}
	card, err := models.CardFromID(cardID)
	if err != nil {
		return ErrCardNotInHand
	}
	p := g.Players[seat]
	if !p.HasCard(card) {
		return ErrCardNotInHand
	}

	p.RemoveCard(card)
	g.Trick = append(g.Trick, PlayedCard{Seat: seat, Card: card})

	ec := buildEventCard(card)
	g.fireEvent(GameEvent{
		Type: EventPlayerCardPlayed,
		Seat: intPtr(seat),
		User: &EventUser{ID: p.ID},
		Card: &ec,
	})
	g.logAction(p.ID, seat, string(EventPlayerCardPlayed), map[string]interface{}{"card": card.ID()})

	if len(g.Trick) < NumSeats {
		g.TurnIndex = (g.TurnIndex + 1) % NumSeats
		g.broadcastPlayerTurn()
		return nil
	}

	g.resolveTrick()
	return nil
}

// resolveTrick determines the winner of the full trick, clears it and
// hands the lead to the winning seat. Assumes lock is held.
func (g *SchafkopfGame) resolveTrick() {
	// A trump lead means no suit-following constraint applies: no
	// non-trump card can win, so the lead suit stays unset.
	var leadSuit *models.Suit
	if first := g.Trick[0].Card; !first.IsTrump() {
		s := first.Suit
		leadSuit = &s
	}

	winner := g.Trick[0]
	best := effectivePower(winner.Card, leadSuit)
	for _, pc := range g.Trick[1:] {
		if ep := effectivePower(pc.Card, leadSuit); ep > best {
			winner, best = pc, ep
		}
	}

	trick := make([]EventTrickCard, 0, len(g.Trick))
	for _, pc := range g.Trick {
		trick = append(trick, EventTrickCard{Seat: pc.Seat, Card: buildEventCard(pc.Card)})
	}

	g.Trick = g.Trick[:0]
	g.TricksResolved++
	g.winnerCounts[winner.Seat]++
	g.TurnIndex = winner.Seat
	g.LeaderIndex = winner.Seat

	g.fireEvent(GameEvent{
		Type:  EventTrickWon,
		Seat:  intPtr(winner.Seat),
		User:  &EventUser{ID: g.Players[winner.Seat].ID},
		Trick: trick,
	})
	g.logAction(g.Players[winner.Seat].ID, winner.Seat, string(EventTrickWon),
		map[string]interface{}{"trickNumber": g.TricksResolved})

	if g.handComplete() {
		g.endHand(false)
		return
	}
	g.broadcastPlayerTurn()
}

// handComplete reports whether all four hands are empty. Assumes lock is held.
func (g *SchafkopfGame) handComplete() bool {
	for _, p := range g.Players {
		if len(p.Hand) > 0 {
			return false
		}
	}
	return true
}

// endHand clears the in-progress flag and signals completion. The hand
// is terminal afterwards; a new hand needs an explicit start request.
// Assumes lock is held.
func (g *SchafkopfGame) endHand(aborted bool) {
	g.InProgress = false
	payload := map[string]interface{}{"tricks": g.TricksResolved}
	if aborted {
		payload["aborted"] = true
	}
	g.fireEvent(GameEvent{Type: EventHandEnd, Payload: payload})
	g.logAction(uuid.Nil, -1, string(EventHandEnd), payload)

	if g.OnHandEnd != nil {
		counts := make(map[int]int, len(g.winnerCounts))
		for seat, n := range g.winnerCounts {
			counts[seat] = n
		}
		g.OnHandEnd(g.RoomID, counts)
	}
}

// AbortHand tears down an in-progress hand that can no longer complete,
// e.g. when a seated player leaves the room mid-trick. The engine fails
// closed rather than inventing recovery semantics for a broken trick.
func (g *SchafkopfGame) AbortHand() {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if !g.InProgress {
		return
	}
	g.endHand(true)
}

// HandleDisconnect marks a seated player disconnected. The hand itself
// is left alone until the room decides to abort; there are no resume
// semantics for a trick the seat can no longer complete.
func (g *SchafkopfGame) HandleDisconnect(userID uuid.UUID) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, pl := range g.Players {
		if pl.ID == userID {
			pl.Connected = false
			log.Printf("Player %s disconnected from session %s", userID, g.ID)
			return
		}
	}
}

// broadcastPlayerTurn announces the active seat. Assumes lock is held.
func (g *SchafkopfGame) broadcastPlayerTurn() {
	seat := g.TurnIndex
	g.fireEvent(GameEvent{
		Type: EventPlayerTurn,
		Seat: intPtr(seat),
		User: &EventUser{ID: g.Players[seat].ID},
	})
}

func (g *SchafkopfGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

func (g *SchafkopfGame) fireEventToSeat(seat int, ev GameEvent) {
	if g.BroadcastToSeatFn == nil {
		log.Println("Warning: BroadcastToSeatFn is nil, cannot send private event.")
		return
	}
	g.BroadcastToSeatFn(seat, ev)
}

// logAction pushes a HandActionRecord onto the historian queue. Safe to
// call with a nil Redis client; the record is then dropped.
func (g *SchafkopfGame) logAction(actorID uuid.UUID, seat int, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.HandActionRecord{
		SessionID:     g.ID,
		RoomID:        g.RoomID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		Seat:          seat,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec cache.HandActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishHandAction(ctx, rec); err != nil {
			log.Printf("Error publishing hand action %d for session %s: %v", rec.ActionIndex, g.ID, err)
		}
	}(record)
}

func intPtr(v int) *int { return &v }
