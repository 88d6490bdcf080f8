// internal/game/events.go
package game

import (
	"github.com/Sebi2010-90/Schafkupfer/internal/models"
	"github.com/google/uuid"
)

// GameEventType is an enum-like type for broadcasting game events.
type GameEventType string

const (
	// EventPrivateHandDealt delivers a seat's own dealt hand. Never broadcast.
	EventPrivateHandDealt GameEventType = "private_hand_dealt"
	// EventPlayerCardPlayed announces an accepted play to the whole room.
	EventPlayerCardPlayed GameEventType = "player_card_played"
	// EventTrickWon announces the resolved trick and its winning seat.
	EventTrickWon GameEventType = "trick_won"
	// EventPlayerTurn announces whose turn it is.
	EventPlayerTurn GameEventType = "game_player_turn"
	// EventHandEnd announces that all eight tricks have been played.
	// It carries no scores; tallying is not part of this engine.
	EventHandEnd GameEventType = "hand_end"
)

// EventUser identifies a user within an event payload.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// EventCard is the wire representation of one card.
type EventCard struct {
	ID   string `json:"id"`
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// EventTrickCard pairs a played card with the seat that played it.
type EventTrickCard struct {
	Seat int       `json:"seat"`
	Card EventCard `json:"card"`
}

// GameEvent holds data about an event sent to clients in a consistent
// format. Wire encoding is the transport layer's concern.
type GameEvent struct {
	Type GameEventType `json:"type"`

	Seat *int       `json:"seat,omitempty"`
	User *EventUser `json:"user,omitempty"`
	Card *EventCard `json:"card,omitempty"`

	// Hand carries a seat's full dealt hand (private events only).
	Hand []EventCard `json:"hand,omitempty"`

	// Trick carries the completed trick for EventTrickWon.
	Trick []EventTrickCard `json:"trick,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

func buildEventCard(c models.Card) EventCard {
	return EventCard{ID: c.ID(), Suit: c.Suit.String(), Rank: c.Rank.String()}
}

func buildEventHand(hand []models.Card) []EventCard {
	out := make([]EventCard, 0, len(hand))
	for _, c := range hand {
		out = append(out, buildEventCard(c))
	}
	return out
}
