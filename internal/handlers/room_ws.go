// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sebi2010-90/Schafkupfer/internal/game"
	"github.com/Sebi2010-90/Schafkupfer/internal/middleware"
	"github.com/Sebi2010-90/Schafkupfer/internal/room"
)

// roomMessage is the shape of every incoming room websocket message.
type roomMessage struct {
	Type string `json:"type"`
	Seat *int   `json:"seat,omitempty"`
	Card string `json:"card,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

// RoomWSHandler upgrades the HTTP connection to WebSocket for a room.
// The same connection carries seating, chat and, once a hand is dealt,
// the play messages for that room's session.
func RoomWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/room/ws/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing room_id", http.StatusBadRequest)
			return
		}
		roomID, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "invalid room_id", http.StatusBadRequest)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}

		userID, err := EnsureEphemeralUser(w, r)
		if err != nil {
			logger.Warnf("User authentication failed for room %s: %v", roomID, err)
			c.Close(websocket.StatusPolicyViolation, "Authentication failed.")
			return
		}

		rm, exists := gs.RoomStore.GetRoom(roomID)
		if !exists {
			c.Close(InvalidRoomIDError, "room does not exist")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &room.RoomConnection{
			UserID:  userID,
			Cancel:  cancel,
			OutChan: make(chan map[string]interface{}, 32),
			IsHost:  rm.HostUserID == userID,
		}

		rm.Mu.Lock()
		err = rm.AddConnection(userID, conn)
		if err == nil {
			rm.BroadcastJoin(userID)
		}
		rm.Mu.Unlock()
		if err != nil {
			logger.Warnf("failed AddConnection for user %v: %v", userID, err)
			c.Close(websocket.StatusPolicyViolation, err.Error())
			cancel()
			return
		}

		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)
		logger.Infof("User %v connected to room %v", userID, roomID)

		go writePump(ctx, c, conn, logger)

		readPump(ctx, c, rm, conn, gs, logger)

		// ---- Cleanup after readPump exits ----
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
		cleanupConnection(rm, conn, gs, logger)
		cancel()
	}
}

// cleanupConnection removes a departed user from the room. If the user
// held a seat during an in-progress hand, the trick can never complete,
// so the session fails closed and the hand is aborted. An unseated
// spectator leaving does not touch the hand: seating stays frozen and
// the session plays on.
func cleanupConnection(rm *room.Room, conn *room.RoomConnection, gs *GameServer, logger *logrus.Logger) {
	rm.Mu.Lock()
	seat, wasSeated := rm.SeatOf(conn.UserID)
	inHand := rm.InHand
	rm.Mu.Unlock()

	if wasSeated && inHand {
		// AbortHand ends the session; OnHandEnd clears the room's
		// InHand flag.
		if g := gs.GameStore.GetGameByRoomID(rm.ID); g != nil {
			g.HandleDisconnect(conn.UserID)
			logger.Warnf("Seat %d left room %s mid-hand, aborting hand", seat, rm.ID)
			g.AbortHand()
		} else {
			rm.Mu.Lock()
			rm.InHand = false
			rm.Mu.Unlock()
		}
	}

	rm.Mu.Lock()
	rm.RemoveUser(conn.UserID)
	rm.BroadcastLeave(conn.UserID)
	rm.Mu.Unlock()
}

// writePump drains the connection's outbound channel onto the socket.
func writePump(ctx context.Context, c *websocket.Conn, conn *room.RoomConnection, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outbound message: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("write error for user %v: %v", conn.UserID, err)
				return
			}
		}
	}
}

// readPump handles incoming messages from the room websocket until the
// connection closes. Room-level messages run under the room lock; play
// messages run under the session lock only, so one room's stalled
// client never blocks another room.
func readPump(ctx context.Context, c *websocket.Conn, rm *room.Room, conn *room.RoomConnection, gs *GameServer, logger *logrus.Logger) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("Room %s: WebSocket closed normally for user %v", rm.ID, conn.UserID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("Room %s: context canceled for user %v", rm.ID, conn.UserID)
			} else {
				logger.Warnf("Room %s: read error for user %v: %v", rm.ID, conn.UserID, err)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("Room %s: non-text message from user %v, ignoring", rm.ID, conn.UserID)
			continue
		}

		var packet roomMessage
		if err := json.Unmarshal(msg, &packet); err != nil {
			logger.Warnf("Room %s: invalid json from user %v: %v", rm.ID, conn.UserID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		handleRoomMessage(packet, rm, conn, gs, logger)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// handleRoomMessage routes one parsed message. Rejections are reported
// only to the requester; accepted actions reach the room through the
// session's broadcast callbacks.
func handleRoomMessage(packet roomMessage, rm *room.Room, conn *room.RoomConnection, gs *GameServer, logger *logrus.Logger) {
	switch packet.Type {
	case "take_seat":
		if packet.Seat == nil {
			conn.WriteError("take_seat requires a seat index")
			return
		}
		rm.Mu.Lock()
		err := rm.TakeSeat(conn.UserID, *packet.Seat)
		if err == nil {
			rm.BroadcastSeats()
		}
		rm.Mu.Unlock()
		if err != nil {
			conn.WriteError(err.Error())
		}

	case "leave_seat":
		rm.Mu.Lock()
		rm.LeaveSeat(conn.UserID)
		rm.BroadcastSeats()
		rm.Mu.Unlock()

	case "chat":
		rm.Mu.Lock()
		rm.BroadcastChat(conn.UserID, packet.Msg)
		rm.Mu.Unlock()

	case "start_hand":
		if !conn.IsHost {
			conn.WriteError("only the host can start a hand")
			return
		}
		// NewHandFromRoom refuses atomically while a hand runs.
		if _, err := gs.NewHandFromRoom(context.Background(), rm); err != nil {
			logger.Warnf("Room %s: failed to start hand: %v", rm.ID, err)
			conn.WriteError(err.Error())
		}

	case "action_play_card":
		g := gs.GameStore.GetGameByRoomID(rm.ID)
		if g == nil {
			conn.WriteError(game.ErrHandNotInProgress.Error())
			return
		}
		rm.Mu.Lock()
		seat, seated := rm.SeatOf(conn.UserID)
		rm.Mu.Unlock()
		if !seated {
			conn.WriteError(game.ErrOutOfTurn.Error())
			return
		}
		if err := g.HandlePlay(seat, packet.Card); err != nil {
			reportRejection(conn, err)
		}

	case "ping":
		conn.Write(map[string]interface{}{"type": "pong"})

	default:
		logger.Warnf("Room %s: unknown message type %q from user %v", rm.ID, packet.Type, conn.UserID)
		conn.WriteError("unknown message type: " + packet.Type)
	}
}

// reportRejection maps an engine rejection to a requester-only error
// message with a stable reason code.
func reportRejection(conn *room.RoomConnection, err error) {
	reason := "rejected"
	switch {
	case errors.Is(err, game.ErrOutOfTurn):
		reason = "out_of_turn"
	case errors.Is(err, game.ErrCardNotInHand):
		reason = "card_not_in_hand"
	case errors.Is(err, game.ErrHandNotInProgress):
		reason = "hand_not_in_progress"
	case errors.Is(err, game.ErrHandInProgress):
		reason = "hand_in_progress"
	case errors.Is(err, game.ErrInsufficientSeats):
		reason = "insufficient_seats"
	case errors.Is(err, game.ErrSeatConflict):
		reason = "seat_conflict"
	}
	conn.Write(map[string]interface{}{
		"type":    "error",
		"reason":  reason,
		"message": err.Error(),
	})
}
