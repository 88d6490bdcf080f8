// internal/models/card.go
package models

import (
	"fmt"
	"strings"
)

// Suit is one of the four Bavarian suits.
type Suit int

const (
	Eichel Suit = iota
	Gras
	Herz
	Schelln
)

var suitNames = map[Suit]string{
	Eichel:  "Eichel",
	Gras:    "Gras",
	Herz:    "Herz",
	Schelln: "Schelln",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Suit(%d)", int(s))
}

// Rank is one of the eight Schafkopf ranks.
type Rank int

const (
	Sieben Rank = iota
	Acht
	Neun
	Zehn
	Unter
	Ober
	Koenig
	Ass
)

var rankNames = map[Rank]string{
	Sieben: "7",
	Acht:   "8",
	Neun:   "9",
	Zehn:   "10",
	Unter:  "Unter",
	Ober:   "Ober",
	Koenig: "Koenig",
	Ass:    "Ass",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

// Card is an immutable (suit, rank) value. There is exactly one card per
// pair, so struct equality is card identity.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// ID returns the wire identifier of the card, e.g. "Ass_von_Eichel".
func (c Card) ID() string {
	return fmt.Sprintf("%s_von_%s", c.Rank, c.Suit)
}

func (c Card) String() string {
	return c.ID()
}

// IsTrump reports whether the card is trump: every Herz card plus every
// Ober and Unter regardless of suit (14 of the 32 cards).
func (c Card) IsTrump() bool {
	return c.Suit == Herz || c.Rank == Ober || c.Rank == Unter
}

var (
	suitsByName = map[string]Suit{}
	ranksByName = map[string]Rank{}
)

func init() {
	for s, name := range suitNames {
		suitsByName[name] = s
	}
	for r, name := range rankNames {
		ranksByName[name] = r
	}
}

// CardFromID parses a wire identifier produced by Card.ID.
func CardFromID(id string) (Card, error) {
	parts := strings.SplitN(id, "_von_", 2)
	if len(parts) != 2 {
		return Card{}, fmt.Errorf("malformed card id %q", id)
	}
	rank, ok := ranksByName[parts[0]]
	if !ok {
		return Card{}, fmt.Errorf("unknown rank %q in card id %q", parts[0], id)
	}
	suit, ok := suitsByName[parts[1]]
	if !ok {
		return Card{}, fmt.Errorf("unknown suit %q in card id %q", parts[1], id)
	}
	return Card{Suit: suit, Rank: rank}, nil
}
