// internal/game/errors.go
package game

import "errors"

// Rejection errors returned to the requesting seat. All of them leave
// the session untouched; none is fatal to the session.
var (
	// ErrSeatConflict is returned when a seat is already bound to a user.
	ErrSeatConflict = errors.New("seat already occupied")

	// ErrInsufficientSeats is returned when a deal is requested with
	// fewer than four seats filled.
	ErrInsufficientSeats = errors.New("not enough seats filled")

	// ErrOutOfTurn is returned when a seat plays out of turn.
	ErrOutOfTurn = errors.New("not your turn")

	// ErrCardNotInHand is returned when the referenced card is not in
	// the requesting seat's hand.
	ErrCardNotInHand = errors.New("card not in hand")

	// ErrHandNotInProgress is returned for plays before a deal or after
	// the hand has completed.
	ErrHandNotInProgress = errors.New("hand not in progress")

	// ErrHandInProgress is returned when a deal is requested while a
	// hand is still being played.
	ErrHandInProgress = errors.New("hand already in progress")
)
