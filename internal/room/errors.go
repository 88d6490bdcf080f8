package room

import "errors"

var (
	// ErrNotInvited is returned when a user tries to join a private room
	// without an invite.
	ErrNotInvited = errors.New("user not invited to this room")

	// ErrInvalidSeat is returned for seat indexes outside 0..3.
	ErrInvalidSeat = errors.New("invalid seat index")

	// ErrSeatingFrozen is returned when seating changes are requested
	// while a hand is in progress.
	ErrSeatingFrozen = errors.New("seating is frozen during a hand")
)
