package models

import "github.com/google/uuid"

// Player is one seated participant of a hand. The seat index is the
// stable addressing unit for turns; the connection may come and go and
// is tracked by the room, not here.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Seat      int       `json:"seat"`
	Hand      []Card    `json:"hand"`
	Connected bool      `json:"connected"`

	User *User `json:"-"`
}

// HasCard reports whether the card is currently in the player's hand.
func (p *Player) HasCard(c Card) bool {
	for _, held := range p.Hand {
		if held == c {
			return true
		}
	}
	return false
}

// RemoveCard removes one card from the hand, preserving order of the
// remaining cards. Returns false if the card is not held.
func (p *Player) RemoveCard(c Card) bool {
	for i, held := range p.Hand {
		if held == c {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return true
		}
	}
	return false
}
