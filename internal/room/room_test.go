// internal/room/room_test.go
package room

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sebi2010-90/Schafkupfer/internal/game"
)

func newTestConn(userID uuid.UUID) *RoomConnection {
	return &RoomConnection{
		UserID:  userID,
		OutChan: make(chan map[string]interface{}, 32),
	}
}

func TestTakeSeat(t *testing.T) {
	host := uuid.New()
	other := uuid.New()
	rm := NewRoomWithDefaults(host)

	require.NoError(t, rm.TakeSeat(host, 0))
	seat, ok := rm.SeatOf(host)
	require.True(t, ok)
	assert.Equal(t, 0, seat)

	// A taken seat is refused, everything else stays as it was.
	assert.ErrorIs(t, rm.TakeSeat(other, 0), game.ErrSeatConflict)
	assert.Equal(t, host, rm.Seats[0])

	// Moving to another seat vacates the old one.
	require.NoError(t, rm.TakeSeat(host, 2))
	assert.Equal(t, uuid.Nil, rm.Seats[0])
	assert.Equal(t, host, rm.Seats[2])

	// Re-taking one's own seat is a no-op, not a conflict.
	require.NoError(t, rm.TakeSeat(host, 2))

	assert.ErrorIs(t, rm.TakeSeat(host, -1), ErrInvalidSeat)
	assert.ErrorIs(t, rm.TakeSeat(host, game.NumSeats), ErrInvalidSeat)
}

func TestSeatingFrozenDuringHand(t *testing.T) {
	host := uuid.New()
	rm := NewRoomWithDefaults(host)
	require.NoError(t, rm.TakeSeat(host, 1))

	rm.InHand = true
	assert.ErrorIs(t, rm.TakeSeat(uuid.New(), 0), ErrSeatingFrozen)

	rm.LeaveSeat(host)
	assert.Equal(t, host, rm.Seats[1], "seats stay bound while a hand runs")

	rm.InHand = false
	rm.LeaveSeat(host)
	assert.Equal(t, uuid.Nil, rm.Seats[1])
}

func TestAllSeatsFilled(t *testing.T) {
	rm := NewRoomWithDefaults(uuid.New())
	assert.False(t, rm.AllSeatsFilled())
	for i := 0; i < game.NumSeats; i++ {
		require.NoError(t, rm.TakeSeat(uuid.New(), i))
	}
	assert.True(t, rm.AllSeatsFilled())
}

func TestPrivateRoomRequiresInvite(t *testing.T) {
	host := uuid.New()
	guest := uuid.New()
	rm := NewRoomWithDefaults(host)
	rm.Type = "private"

	err := rm.AddConnection(guest, newTestConn(guest))
	assert.ErrorIs(t, err, ErrNotInvited)

	rm.InviteUser(guest)
	assert.NoError(t, rm.AddConnection(guest, newTestConn(guest)))
}

func TestRemoveUser(t *testing.T) {
	host := uuid.New()
	guest := uuid.New()
	rm := NewRoomWithDefaults(host)

	var emptied []uuid.UUID
	rm.OnEmpty = func(roomID uuid.UUID) { emptied = append(emptied, roomID) }

	require.NoError(t, rm.AddConnection(host, newTestConn(host)))
	require.NoError(t, rm.AddConnection(guest, newTestConn(guest)))
	require.NoError(t, rm.TakeSeat(guest, 3))

	rm.RemoveUser(guest)
	assert.Equal(t, uuid.Nil, rm.Seats[3], "seat vacated outside a hand")
	assert.Empty(t, emptied)

	rm.RemoveUser(host)
	require.Len(t, emptied, 1)
	assert.Equal(t, rm.ID, emptied[0])
}

func TestRemoveUserKeepsSeatDuringHand(t *testing.T) {
	host := uuid.New()
	rm := NewRoomWithDefaults(host)
	require.NoError(t, rm.AddConnection(host, newTestConn(host)))
	require.NoError(t, rm.TakeSeat(host, 0))

	rm.InHand = true
	rm.RemoveUser(host)
	assert.Equal(t, host, rm.Seats[0], "seat stays bound so the abort path can attribute it")
}

func TestSendToSeat(t *testing.T) {
	host := uuid.New()
	guest := uuid.New()
	rm := NewRoomWithDefaults(host)

	hostConn := newTestConn(host)
	guestConn := newTestConn(guest)
	require.NoError(t, rm.AddConnection(host, hostConn))
	require.NoError(t, rm.AddConnection(guest, guestConn))
	require.NoError(t, rm.TakeSeat(guest, 2))

	rm.SendToSeat(2, map[string]interface{}{"type": "private_hand_dealt"})

	// Only the seat holder receives seat-addressed messages.
	require.Len(t, guestConn.OutChan, 1)
	assert.Empty(t, hostConn.OutChan)

	// Empty or invalid seats drop the message silently.
	rm.SendToSeat(0, map[string]interface{}{"type": "x"})
	rm.SendToSeat(-1, map[string]interface{}{"type": "x"})
	rm.SendToSeat(game.NumSeats, map[string]interface{}{"type": "x"})
	assert.Empty(t, hostConn.OutChan)
	assert.Len(t, guestConn.OutChan, 1)
}

func TestBroadcastAll(t *testing.T) {
	host := uuid.New()
	guest := uuid.New()
	rm := NewRoomWithDefaults(host)

	hostConn := newTestConn(host)
	guestConn := newTestConn(guest)
	require.NoError(t, rm.AddConnection(host, hostConn))
	require.NoError(t, rm.AddConnection(guest, guestConn))

	rm.BroadcastChat(host, "servus")
	require.Len(t, hostConn.OutChan, 1)
	require.Len(t, guestConn.OutChan, 1)

	msg := <-guestConn.OutChan
	assert.Equal(t, "chat", msg["type"])
	assert.Equal(t, "servus", msg["msg"])
	assert.Equal(t, host.String(), msg["user_id"])
}

func TestGetRoomsReturnsCopy(t *testing.T) {
	store := NewRoomStore()
	rm := NewRoomWithDefaults(uuid.New())
	store.AddRoom(rm)

	listed := store.GetRooms()
	require.Len(t, listed, 1)

	// Mutating the listing must not reach the store.
	delete(listed, rm.ID)
	got, ok := store.GetRoom(rm.ID)
	require.True(t, ok)
	assert.Same(t, rm, got)

	// Later additions must not appear in an already taken listing.
	store.AddRoom(NewRoomWithDefaults(uuid.New()))
	assert.Empty(t, listed)
}

func TestWriteNeverBlocks(t *testing.T) {
	conn := &RoomConnection{
		UserID:  uuid.New(),
		OutChan: make(chan map[string]interface{}, 1),
	}
	conn.Write(map[string]interface{}{"n": 1})
	// A full channel drops instead of stalling the sender.
	conn.Write(map[string]interface{}{"n": 2})
	conn.WriteError("still fine")

	require.Len(t, conn.OutChan, 1)
	msg := <-conn.OutChan
	assert.Equal(t, 1, msg["n"])
}
