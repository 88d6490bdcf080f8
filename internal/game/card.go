// internal/game/card.go
package game

import "github.com/Sebi2010-90/Schafkupfer/internal/models"

const (
	// NumSeats is the fixed number of seats at a Schafkopf table.
	NumSeats = 4
	// HandSize is the number of cards each seat is dealt.
	HandSize = 8
	// DeckSize is the full Bavarian deck: 4 suits x 8 ranks.
	DeckSize = NumSeats * HandSize
)

var allSuits = []models.Suit{models.Eichel, models.Gras, models.Herz, models.Schelln}

var allRanks = []models.Rank{
	models.Sieben, models.Acht, models.Neun, models.Zehn,
	models.Unter, models.Ober, models.Koenig, models.Ass,
}

// NewDeck builds the 32-card deck in canonical order: suits in order
// Eichel, Gras, Herz, Schelln, ranks 7 through Ass within each suit.
func NewDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, s := range allSuits {
		for _, r := range allRanks {
			deck = append(deck, models.Card{Suit: s, Rank: r})
		}
	}
	return deck
}
