// internal/game/power.go
package game

import "github.com/Sebi2010-90/Schafkupfer/internal/models"

const (
	// trumpBonus lifts every trump above every non-trump card.
	trumpBonus = 1000
	// offSuitPenalty pushes an off-suit non-trump card below every card
	// that can actually win the trick.
	offSuitPenalty = 200
)

// basePower is the context-free rank hierarchy. Unter and Ober sit on
// top because they are always trump; among the plain ranks the Ass beats
// the Zehn beats the Koenig.
func basePower(r models.Rank) int {
	switch r {
	case models.Unter:
		return 100
	case models.Ober:
		return 90
	case models.Ass:
		return 80
	case models.Zehn:
		return 70
	case models.Koenig:
		return 60
	case models.Neun:
		return 50
	case models.Acht:
		return 40
	default: // Sieben
		return 30
	}
}

// suitTiebreak is an arbitrary but fixed order so that no two cards ever
// compare equal. The spread (1..4) is far smaller than any rank step.
func suitTiebreak(s models.Suit) int {
	switch s {
	case models.Eichel:
		return 1
	case models.Gras:
		return 2
	case models.Herz:
		return 3
	default: // Schelln
		return 4
	}
}

// Power assigns every card a globally unique strength, independent of
// any trick context. Every trump outranks every non-trump.
func Power(c models.Card) int {
	p := basePower(c.Rank) + suitTiebreak(c.Suit)
	if c.IsTrump() {
		p += trumpBonus
	}
	return p
}

// effectivePower is a card's strength within one trick. Trumps and cards
// following the lead suit keep their context-free power. Everything else
// cannot win: it is valued as the Sieben of its own suit minus a penalty,
// which keeps the order total while ranking below all genuine contenders.
// leadSuit is nil when the trick was led with trump.
func effectivePower(c models.Card, leadSuit *models.Suit) int {
	if c.IsTrump() {
		return Power(c)
	}
	if leadSuit != nil && c.Suit == *leadSuit {
		return Power(c)
	}
	return Power(models.Card{Suit: c.Suit, Rank: models.Sieben}) - offSuitPenalty
}
